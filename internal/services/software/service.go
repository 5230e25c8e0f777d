package software

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/navgurukul/windows-rms-server/internal/config"
	"github.com/navgurukul/windows-rms-server/internal/db"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
)

var ErrInvalidInput = errors.New("invalid software request")

type Queries interface {
	UpsertSoftware(ctx context.Context, arg db.UpsertSoftwareParams) (db.Software, error)
	ListSoftware(ctx context.Context) ([]db.Software, error)
	ListPendingSoftwareForDevice(ctx context.Context, deviceID int32) ([]db.Software, error)
	InsertSoftwareInstall(ctx context.Context, arg db.InsertSoftwareInstallParams) (db.SoftwaresInstalled, error)
	ListSoftwareInstallsByDevice(ctx context.Context, deviceID int32) ([]db.SoftwaresInstalled, error)
}

// DeviceLookup resolves a serial number to a device id.
type DeviceLookup interface {
	Lookup(ctx context.Context, serial string) (int32, error)
}

type Software struct {
	ID        int32
	Name      string
	WingetID  string
	CreatedAt time.Time
}

type Install struct {
	ID           int32
	DeviceID     int32
	SoftwareName string
	Successful   bool
	CreatedAt    time.Time
}

// Service manages the software catalog and per-device install attempts.
type Service struct {
	queries Queries
	devices DeviceLookup
	logger  *slog.Logger
}

func NewService(queries Queries, devices DeviceLookup) *Service {
	return &Service{queries: queries, devices: devices, logger: slog.Default()}
}

// Upsert adds a catalog entry or reactivates an existing one.
func (s *Service) Upsert(ctx context.Context, name, wingetID string) (Software, error) {
	name = strings.TrimSpace(name)
	wingetID = strings.TrimSpace(wingetID)
	if name == "" || wingetID == "" {
		return Software{}, fmt.Errorf("%w: software_name and winget_id are required", ErrInvalidInput)
	}
	row, err := s.queries.UpsertSoftware(ctx, db.UpsertSoftwareParams{SoftwareName: name, WingetID: wingetID})
	if err != nil {
		return Software{}, fmt.Errorf("upsert software: %w", err)
	}
	return toSoftware(row), nil
}

// Seed upserts the configured catalog entries and returns how many were written.
func (s *Service) Seed(ctx context.Context, seeds []config.SoftwareSeed) (int, error) {
	count := 0
	for _, seed := range seeds {
		if _, err := s.Upsert(ctx, seed.Name, seed.WingetID); err != nil {
			return count, fmt.Errorf("seed %q: %w", seed.Name, err)
		}
		count++
	}
	if count > 0 {
		s.logger.Info("software catalog seeded", "entries", count)
	}
	return count, nil
}

func (s *Service) List(ctx context.Context) ([]Software, error) {
	rows, err := s.queries.ListSoftware(ctx)
	if err != nil {
		return nil, fmt.Errorf("list software: %w", err)
	}
	return toSoftwareList(rows), nil
}

// Pending lists catalog entries the device has not yet installed successfully.
func (s *Service) Pending(ctx context.Context, serial string) ([]Software, error) {
	deviceID, err := s.device(ctx, serial)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListPendingSoftwareForDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list pending software: %w", err)
	}
	return toSoftwareList(rows), nil
}

// RecordInstall stores one install attempt reported by a device.
func (s *Service) RecordInstall(ctx context.Context, serial, softwareName string, successful bool) (Install, error) {
	softwareName = strings.TrimSpace(softwareName)
	if softwareName == "" {
		return Install{}, fmt.Errorf("%w: software_name is required", ErrInvalidInput)
	}
	deviceID, err := s.device(ctx, serial)
	if err != nil {
		return Install{}, err
	}
	row, err := s.queries.InsertSoftwareInstall(ctx, db.InsertSoftwareInstallParams{
		DeviceID:     deviceID,
		SoftwareName: softwareName,
		IsSuccessful: successful,
	})
	if err != nil {
		return Install{}, fmt.Errorf("insert software install: %w", err)
	}
	s.logger.Info("software install recorded", "device_id", deviceID, "software", softwareName, "successful", successful)
	return toInstall(row), nil
}

func (s *Service) History(ctx context.Context, serial string) ([]Install, error) {
	deviceID, err := s.device(ctx, serial)
	if err != nil {
		return nil, err
	}
	rows, err := s.queries.ListSoftwareInstallsByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list software installs: %w", err)
	}
	out := make([]Install, 0, len(rows))
	for _, row := range rows {
		out = append(out, toInstall(row))
	}
	return out, nil
}

func (s *Service) device(ctx context.Context, serial string) (int32, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return 0, fmt.Errorf("%w: serial_number is required", ErrInvalidInput)
	}
	id, err := s.devices.Lookup(ctx, serial)
	if err != nil {
		if errors.Is(err, devices.ErrNotFound) {
			return 0, devices.ErrNotFound
		}
		return 0, fmt.Errorf("lookup device: %w", err)
	}
	return id, nil
}

func toSoftwareList(rows []db.Software) []Software {
	out := make([]Software, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSoftware(row))
	}
	return out
}

func toSoftware(row db.Software) Software {
	return Software{
		ID:        row.ID,
		Name:      row.SoftwareName,
		WingetID:  row.WingetID,
		CreatedAt: row.CreatedAt.Time.UTC(),
	}
}

func toInstall(row db.SoftwaresInstalled) Install {
	return Install{
		ID:           row.ID,
		DeviceID:     row.DeviceID,
		SoftwareName: row.SoftwareName,
		Successful:   row.IsSuccessful,
		CreatedAt:    row.CreatedAt.Time.UTC(),
	}
}
