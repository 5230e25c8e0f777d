package devices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/navgurukul/windows-rms-server/internal/database"
	"github.com/navgurukul/windows-rms-server/internal/db"
)

var (
	ErrNotFound      = errors.New("device not found")
	ErrAlreadyExists = errors.New("device serial number already registered")
	ErrInvalidInput  = errors.New("invalid device")
)

const (
	defaultCacheSize = 10000
	defaultCacheTTL  = 5 * time.Minute
	defaultPageSize  = 100
	maxPageSize      = 1000
)

// Queries is the subset of db.Queries the service uses.
type Queries interface {
	CreateDevice(ctx context.Context, arg db.CreateDeviceParams) (db.Device, error)
	GetDeviceByID(ctx context.Context, id int32) (db.Device, error)
	GetDeviceBySerial(ctx context.Context, serialNumber string) (db.Device, error)
	ListDevices(ctx context.Context, arg db.ListDevicesParams) ([]db.Device, error)
	SetDeviceActive(ctx context.Context, arg db.SetDeviceActiveParams) (db.Device, error)
}

type Device struct {
	ID           int32
	Username     string
	SerialNumber string
	MacAddress   string
	Location     string
	IsActive     bool
	CreatedAt    time.Time
}

type RegisterInput struct {
	Username     string
	SerialNumber string
	MacAddress   string
	Location     string
}

type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// Service owns device identity. Resolve results for active devices are cached;
// misses are never cached so a newly registered device resolves immediately.
type Service struct {
	queries Queries
	cache   *expirable.LRU[string, int32]
	logger  *slog.Logger
}

func NewService(queries Queries, cacheCfg CacheConfig) *Service {
	size := cacheCfg.Size
	if size <= 0 {
		size = defaultCacheSize
	}
	ttl := cacheCfg.TTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		queries: queries,
		cache:   expirable.NewLRU[string, int32](size, nil, ttl),
		logger:  slog.Default(),
	}
}

// Resolve maps a serial number to the id of an active device.
func (s *Service) Resolve(ctx context.Context, serial string) (int32, error) {
	serial = normalizeSerial(serial)
	if serial == "" {
		return 0, ErrNotFound
	}
	if id, ok := s.cache.Get(serial); ok {
		return id, nil
	}
	row, err := s.queries.GetDeviceBySerial(ctx, serial)
	if err != nil {
		if database.IsNotFound(err) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("get device by serial: %w", err)
	}
	if !row.IsActive {
		return 0, ErrNotFound
	}
	s.cache.Add(serial, row.ID)
	return row.ID, nil
}

// Lookup maps a serial number to a device id regardless of the active flag.
func (s *Service) Lookup(ctx context.Context, serial string) (int32, error) {
	dev, err := s.GetBySerial(ctx, serial)
	if err != nil {
		return 0, err
	}
	return dev.ID, nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Device, error) {
	serial := normalizeSerial(in.SerialNumber)
	if serial == "" {
		return Device{}, fmt.Errorf("%w: serial_number is required", ErrInvalidInput)
	}
	row, err := s.queries.CreateDevice(ctx, db.CreateDeviceParams{
		Username:     strings.TrimSpace(in.Username),
		SerialNumber: serial,
		MacAddress:   strings.TrimSpace(in.MacAddress),
		Location:     strings.TrimSpace(in.Location),
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Device{}, ErrAlreadyExists
		}
		return Device{}, fmt.Errorf("create device: %w", err)
	}
	s.cache.Remove(serial)
	s.logger.Info("device registered", "device_id", row.ID, "serial_number", serial)
	return toDevice(row), nil
}

func (s *Service) Get(ctx context.Context, id int32) (Device, error) {
	row, err := s.queries.GetDeviceByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return Device{}, ErrNotFound
		}
		return Device{}, fmt.Errorf("get device: %w", err)
	}
	return toDevice(row), nil
}

func (s *Service) GetBySerial(ctx context.Context, serial string) (Device, error) {
	serial = normalizeSerial(serial)
	if serial == "" {
		return Device{}, ErrNotFound
	}
	row, err := s.queries.GetDeviceBySerial(ctx, serial)
	if err != nil {
		if database.IsNotFound(err) {
			return Device{}, ErrNotFound
		}
		return Device{}, fmt.Errorf("get device by serial: %w", err)
	}
	return toDevice(row), nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Device, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.queries.ListDevices(ctx, db.ListDevicesParams{Limit: int32(limit), Offset: int32(offset)})
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	out := make([]Device, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDevice(row))
	}
	return out, nil
}

// SetActive toggles the device and drops its cached resolution.
func (s *Service) SetActive(ctx context.Context, id int32, active bool) (Device, error) {
	row, err := s.queries.SetDeviceActive(ctx, db.SetDeviceActiveParams{ID: id, IsActive: active})
	if err != nil {
		if database.IsNotFound(err) {
			return Device{}, ErrNotFound
		}
		return Device{}, fmt.Errorf("set device active: %w", err)
	}
	s.cache.Remove(row.SerialNumber)
	s.logger.Info("device activation changed", "device_id", row.ID, "active", active)
	return toDevice(row), nil
}

func normalizeSerial(serial string) string {
	return strings.TrimSpace(serial)
}

func toDevice(row db.Device) Device {
	var created time.Time
	if row.CreatedAt.Valid {
		created = row.CreatedAt.Time.UTC()
	}
	return Device{
		ID:           row.ID,
		Username:     row.Username,
		SerialNumber: row.SerialNumber,
		MacAddress:   row.MacAddress,
		Location:     row.Location,
		IsActive:     row.IsActive,
		CreatedAt:    created,
	}
}
