package usage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// BatchItem is the outcome of one applied record.
type BatchItem struct {
	Index           int
	Action          string
	TrackingID      int64
	DeviceID        int32
	SerialNumber    string
	TotalActiveTime int64
	Date            time.Time
}

// SkippedRecord names a record left out of the batch and why.
type SkippedRecord struct {
	Index  int
	Reason string
}

type BatchResult struct {
	Results   []BatchItem
	Skipped   []SkippedRecord
	Processed int
	Received  int
}

type pendingRecord struct {
	index  int
	report Report
}

// SyncBatch applies many reports atomically. Records that fail validation or
// resolution are skipped; every surviving record commits together or not at all.
func (s *Service) SyncBatch(ctx context.Context, payloads []Payload) (BatchResult, error) {
	return s.SyncBatchWithRejects(ctx, payloads, nil)
}

// SyncBatchWithRejects is SyncBatch for callers that could not decode some
// records. payloads holds one entry per received record; entries at a rejected
// index are ignored and reported as skipped with the given reason.
func (s *Service) SyncBatchWithRejects(ctx context.Context, payloads []Payload, rejected []SkippedRecord) (res BatchResult, err error) {
	started := s.now()
	defer func() {
		s.observe("batch", started, err)
		if s.metrics == nil {
			return
		}
		if err != nil {
			s.metrics.RecordUsageReports("batch", outcomeFor(err), len(payloads))
			return
		}
		s.metrics.RecordUsageReports("batch", "applied", res.Processed)
		s.metrics.RecordUsageReports("batch", "skipped", len(res.Skipped))
	}()

	if len(payloads) == 0 {
		return BatchResult{}, invalid("records", "must contain at least one record")
	}
	if len(payloads) > s.cfg.MaxBatchRecords {
		return BatchResult{}, fmt.Errorf("%w: %d records, limit %d", ErrBatchTooLarge, len(payloads), s.cfg.MaxBatchRecords)
	}

	pending, skipped, err := s.prepareBatch(ctx, payloads, rejected, started)
	if err != nil {
		return BatchResult{}, err
	}

	var items []BatchItem
	var mergeSkips []SkippedRecord
	var appliedDelta int64
	if len(pending) > 0 {
		keys := lockOrder(pending)
		err = s.withRetry(ctx, func(ctx context.Context) error {
			items = items[:0]
			mergeSkips = mergeSkips[:0]
			appliedDelta = 0
			return s.store.InTx(ctx, func(tx StoreTx) error {
				for _, key := range keys {
					if err := tx.Lock(ctx, key); err != nil {
						return err
					}
				}
				for _, rec := range pending {
					out, err := mergeAndSave(ctx, tx, rec.report)
					if err != nil {
						var verr *ValidationError
						if errors.As(err, &verr) {
							mergeSkips = append(mergeSkips, SkippedRecord{Index: rec.index, Reason: verr.Error()})
							continue
						}
						return err
					}
					items = append(items, batchItem(rec, out))
					if rec.report.Measurement.Kind == MeasurementDelta {
						appliedDelta += rec.report.Measurement.Seconds
					}
				}
				return nil
			})
		})
		if err != nil {
			s.logger.Error("bulk sync failed", "records", len(pending), "error", err)
			return BatchResult{}, err
		}
	}

	skipped = append(skipped, mergeSkips...)
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Index < skipped[j].Index })

	if s.metrics != nil {
		s.metrics.RecordDeltaSeconds("batch", appliedDelta)
	}

	res = BatchResult{
		Results:   slices.Clone(items),
		Skipped:   skipped,
		Processed: len(items),
		Received:  len(payloads),
	}
	if res.Results == nil {
		res.Results = []BatchItem{}
	}
	if res.Skipped == nil {
		res.Skipped = []SkippedRecord{}
	}
	s.logger.Info("bulk sync applied", "received", res.Received, "processed", res.Processed, "skipped", len(res.Skipped))
	return res, nil
}

// prepareBatch validates and resolves every record outside the transaction.
func (s *Service) prepareBatch(ctx context.Context, payloads []Payload, rejected []SkippedRecord, now time.Time) ([]pendingRecord, []SkippedRecord, error) {
	pending := make([]pendingRecord, 0, len(payloads))
	var skipped []SkippedRecord
	resolved := make(map[string]int32)

	skip := make(map[int]struct{}, len(rejected))
	for _, r := range rejected {
		if r.Index < 0 || r.Index >= len(payloads) {
			continue
		}
		if _, dup := skip[r.Index]; dup {
			continue
		}
		skip[r.Index] = struct{}{}
		skipped = append(skipped, r)
	}

	for i, p := range payloads {
		if _, ok := skip[i]; ok {
			continue
		}
		report, err := p.Report(now, s.cfg.MaxFutureSkew)
		if err != nil {
			skipped = append(skipped, SkippedRecord{Index: i, Reason: err.Error()})
			continue
		}
		id, ok := resolved[report.SerialNumber]
		if !ok {
			id, err = s.resolve(ctx, report.SerialNumber)
			if err != nil {
				if errors.Is(err, ErrDeviceNotFound) {
					skipped = append(skipped, SkippedRecord{Index: i, Reason: ErrDeviceNotFound.Error()})
					continue
				}
				return nil, nil, err
			}
			resolved[report.SerialNumber] = id
		}
		report.DeviceID = id
		pending = append(pending, pendingRecord{index: i, report: report})
	}
	return pending, skipped, nil
}

// lockOrder returns the distinct keys of the batch in ascending (device, date)
// order so concurrent batches acquire locks in the same sequence.
func lockOrder(pending []pendingRecord) []Key {
	seen := make(map[Key]struct{}, len(pending))
	keys := make([]Key, 0, len(pending))
	for _, rec := range pending {
		k := rec.report.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

func batchItem(rec pendingRecord, out SyncResult) BatchItem {
	action := ActionUpdated
	if out.Created {
		action = ActionCreated
	}
	return BatchItem{
		Index:           rec.index,
		Action:          action,
		TrackingID:      out.TrackingID,
		DeviceID:        out.DeviceID,
		SerialNumber:    rec.report.SerialNumber,
		TotalActiveTime: out.TotalActiveTime,
		Date:            out.Date,
	}
}
