package usage

import (
	"context"
	"time"
)

// SyncResult is the outcome of a single report.
type SyncResult struct {
	TrackingID      int64
	DeviceID        int32
	Date            time.Time
	TotalActiveTime int64
	Created         bool
}

// SyncOne validates, resolves and merges one report into its daily bucket.
func (s *Service) SyncOne(ctx context.Context, p Payload) (res SyncResult, err error) {
	started := s.now()
	defer func() {
		s.observe("single", started, err)
		if s.metrics == nil {
			return
		}
		if err != nil {
			s.metrics.RecordUsageReports("single", outcomeFor(err), 1)
		} else {
			s.metrics.RecordUsageReports("single", "applied", 1)
		}
	}()

	report, err := p.Report(started, s.cfg.MaxFutureSkew)
	if err != nil {
		return SyncResult{}, err
	}
	deviceID, err := s.resolve(ctx, report.SerialNumber)
	if err != nil {
		return SyncResult{}, err
	}
	report.DeviceID = deviceID

	err = s.withRetry(ctx, func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx StoreTx) error {
			r, err := apply(ctx, tx, report)
			if err != nil {
				return err
			}
			res = r
			return nil
		})
	})
	if err != nil {
		return SyncResult{}, err
	}

	if s.metrics != nil && report.Measurement.Kind == MeasurementDelta {
		s.metrics.RecordDeltaSeconds("single", report.Measurement.Seconds)
	}
	s.logger.Debug("usage synced",
		"device_id", res.DeviceID,
		"date", res.Date.Format("2006-01-02"),
		"kind", report.Measurement.Kind.String(),
		"total_active_time", res.TotalActiveTime,
		"created", res.Created,
	)
	return res, nil
}

// apply performs the locked read-merge-write for one report inside tx.
func apply(ctx context.Context, tx StoreTx, r Report) (SyncResult, error) {
	key := r.Key()
	if err := tx.Lock(ctx, key); err != nil {
		return SyncResult{}, err
	}
	return mergeAndSave(ctx, tx, r)
}

// mergeAndSave assumes the key lock is already held.
func mergeAndSave(ctx context.Context, tx StoreTx, r Report) (SyncResult, error) {
	existing, err := tx.Get(ctx, r.Key())
	if err != nil {
		return SyncResult{}, err
	}
	next, err := Merge(existing, r)
	if err != nil {
		return SyncResult{}, err
	}
	saved, err := tx.Save(ctx, next)
	if err != nil {
		return SyncResult{}, err
	}
	return SyncResult{
		TrackingID:      saved.TrackingID,
		DeviceID:        saved.DeviceID,
		Date:            saved.Date,
		TotalActiveTime: saved.TotalActiveTime,
		Created:         existing == nil,
	}, nil
}
