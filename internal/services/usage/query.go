package usage

import (
	"context"
	"errors"
	"fmt"

	"github.com/navgurukul/windows-rms-server/internal/services/devices"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

// DailyUsage returns the device's buckets within r, newest first. Days without
// reports are absent rather than zero filled.
func (s *Service) DailyUsage(ctx context.Context, deviceID int32, r timeutil.DateRange) ([]Bucket, error) {
	if err := r.Validate(); err != nil {
		return nil, invalid("start_date", "must not be after end_date")
	}
	buckets, err := s.store.ListByDevice(ctx, deviceID, r)
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// DailyUsageBySerial is DailyUsage keyed by serial number. Inactive devices
// still resolve so their history stays readable.
func (s *Service) DailyUsageBySerial(ctx context.Context, serial string, r timeutil.DateRange) ([]Bucket, error) {
	id, err := s.resolver.Lookup(ctx, serial)
	if err != nil {
		if errors.Is(err, devices.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
		}
		return nil, fmt.Errorf("lookup device: %w", err)
	}
	return s.DailyUsage(ctx, id, r)
}

// AllDailyUsage lists buckets across the fleet ordered by date desc, device id.
func (s *Service) AllDailyUsage(ctx context.Context, r timeutil.DateRange, limit int) ([]Bucket, error) {
	if err := r.Validate(); err != nil {
		return nil, invalid("start_date", "must not be after end_date")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListAll(ctx, r, int32(limit))
}
