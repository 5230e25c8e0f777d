package wallpapers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/navgurukul/windows-rms-server/internal/commands"
	"github.com/navgurukul/windows-rms-server/internal/database"
	"github.com/navgurukul/windows-rms-server/internal/db"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
)

var (
	ErrInvalidInput = errors.New("invalid wallpaper request")
	ErrNotAssigned  = errors.New("no wallpaper assigned")
)

type Queries interface {
	UpsertWallpaper(ctx context.Context, wallpaperUrl string) (db.Wallpaper, error)
	AssignDeviceWallpaper(ctx context.Context, arg db.AssignDeviceWallpaperParams) (db.DeviceWallpaper, error)
	GetCurrentDeviceWallpaper(ctx context.Context, deviceID int32) (db.GetCurrentDeviceWallpaperRow, error)
}

// CommandQueue persists commands until the device confirms them.
type CommandQueue interface {
	Enqueue(ctx context.Context, deviceID int32, cmd commands.Command) (commands.Record, error)
}

type DeviceStore interface {
	Get(ctx context.Context, id int32) (devices.Device, error)
	GetBySerial(ctx context.Context, serial string) (devices.Device, error)
}

// AssignInput targets a device by id or, when DeviceID is zero, by serial number.
type AssignInput struct {
	DeviceID     int32
	SerialNumber string
	URL          string
}

type Assignment struct {
	DeviceID     int32
	SerialNumber string
	WallpaperID  int32
	URL          string
	CommandID    string
	Delivered    bool
	AssignedAt   time.Time
}

// Service records wallpaper selections and pushes them to devices.
type Service struct {
	queries   Queries
	devices   DeviceStore
	queue     CommandQueue
	publisher commands.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(queries Queries, devices DeviceStore, queue CommandQueue, publisher commands.Publisher) *Service {
	if publisher == nil {
		publisher = commands.NoopPublisher{}
	}
	return &Service{
		queries:   queries,
		devices:   devices,
		queue:     queue,
		publisher: publisher,
		logger:    slog.Default(),
		now:       time.Now,
	}
}

// Assign stores the wallpaper for the device, queues a set_wallpaper command
// and pushes it over MQTT. A failed push is logged; the command stays pending
// until the device polls for it and confirms execution.
func (s *Service) Assign(ctx context.Context, in AssignInput) (Assignment, error) {
	wallpaperURL, err := validateURL(in.URL)
	if err != nil {
		return Assignment{}, err
	}
	dev, err := s.device(ctx, in)
	if err != nil {
		return Assignment{}, err
	}

	wp, err := s.queries.UpsertWallpaper(ctx, wallpaperURL)
	if err != nil {
		return Assignment{}, fmt.Errorf("upsert wallpaper: %w", err)
	}
	link, err := s.queries.AssignDeviceWallpaper(ctx, db.AssignDeviceWallpaperParams{DeviceID: dev.ID, WallpaperID: wp.ID})
	if err != nil {
		return Assignment{}, fmt.Errorf("assign wallpaper: %w", err)
	}

	assigned := s.now().UTC()
	if link.UpdatedAt.Valid {
		assigned = link.UpdatedAt.Time.UTC()
	}
	out := Assignment{
		DeviceID:     dev.ID,
		SerialNumber: dev.SerialNumber,
		WallpaperID:  wp.ID,
		URL:          wp.WallpaperUrl,
		AssignedAt:   assigned,
	}

	rec, err := s.queue.Enqueue(ctx, dev.ID, commands.Command{
		ID:      uuid.NewString(),
		Type:    commands.TypeSetWallpaper,
		Payload: map[string]any{"wallpaper_url": out.URL},
	})
	if err != nil {
		return Assignment{}, fmt.Errorf("queue wallpaper command: %w", err)
	}
	out.CommandID = rec.ID

	if err := s.publisher.Publish(ctx, dev.SerialNumber, rec.Command); err != nil {
		s.logger.Warn("wallpaper command not delivered", "device_id", dev.ID, "error", err)
	} else {
		out.Delivered = true
	}
	return out, nil
}

// Current returns the latest wallpaper assigned to the device.
func (s *Service) Current(ctx context.Context, serial string) (Assignment, error) {
	dev, err := s.device(ctx, AssignInput{SerialNumber: serial})
	if err != nil {
		return Assignment{}, err
	}
	row, err := s.queries.GetCurrentDeviceWallpaper(ctx, dev.ID)
	if err != nil {
		if database.IsNotFound(err) {
			return Assignment{}, ErrNotAssigned
		}
		return Assignment{}, fmt.Errorf("get device wallpaper: %w", err)
	}
	return Assignment{
		DeviceID:     dev.ID,
		SerialNumber: dev.SerialNumber,
		WallpaperID:  row.ID,
		URL:          row.WallpaperUrl,
		AssignedAt:   row.UpdatedAt.Time.UTC(),
	}, nil
}

func (s *Service) device(ctx context.Context, in AssignInput) (devices.Device, error) {
	if in.DeviceID > 0 {
		return s.devices.Get(ctx, in.DeviceID)
	}
	serial := strings.TrimSpace(in.SerialNumber)
	if serial == "" {
		return devices.Device{}, fmt.Errorf("%w: device_id or serial_number is required", ErrInvalidInput)
	}
	return s.devices.GetBySerial(ctx, serial)
}

func validateURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: wallpaper_url is required", ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("%w: wallpaper_url must be an http(s) URL", ErrInvalidInput)
	}
	return u.String(), nil
}
