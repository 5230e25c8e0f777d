package usage

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Key identifies a daily bucket.
type Key struct {
	DeviceID int32
	Date     time.Time
}

func (k Key) less(o Key) bool {
	if k.DeviceID != o.DeviceID {
		return k.DeviceID < o.DeviceID
	}
	return k.Date.Before(o.Date)
}

// Bucket is the accumulated active time for one device on one UTC date.
type Bucket struct {
	TrackingID      int64
	DeviceID        int32
	Date            time.Time
	TotalActiveTime int64
	Latitude        *decimal.Decimal
	Longitude       *decimal.Decimal
	LocationName    *string
	LastReportAt    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (b Bucket) Key() Key {
	return Key{DeviceID: b.DeviceID, Date: b.Date}
}

// Merge folds a report into the existing bucket (nil when none exists yet) and
// returns the bucket to persist. Deltas add, totals take the maximum, and the
// report's location always replaces the stored one.
func Merge(existing *Bucket, r Report) (Bucket, error) {
	if r.Measurement.Kind != MeasurementDelta && r.Measurement.Kind != MeasurementTotal {
		return Bucket{}, invalid("active_time", "has an unknown measurement kind")
	}
	if r.Measurement.Seconds < 0 {
		return Bucket{}, invalid(measurementField(r.Measurement.Kind), "must not be negative")
	}

	var next Bucket
	if existing == nil {
		next = Bucket{
			DeviceID:        r.DeviceID,
			Date:            r.Date(),
			TotalActiveTime: r.Measurement.Seconds,
		}
	} else {
		next = *existing
		switch r.Measurement.Kind {
		case MeasurementDelta:
			if existing.TotalActiveTime > math.MaxInt64-r.Measurement.Seconds {
				return Bucket{}, invalid("active_time", "overflows the daily total")
			}
			next.TotalActiveTime = existing.TotalActiveTime + r.Measurement.Seconds
		case MeasurementTotal:
			next.TotalActiveTime = max(existing.TotalActiveTime, r.Measurement.Seconds)
		}
	}

	next.Latitude = r.Latitude
	next.Longitude = r.Longitude
	next.LocationName = r.LocationName
	next.LastReportAt = r.At
	return next, nil
}

func measurementField(kind MeasurementKind) string {
	if kind == MeasurementTotal {
		return "total_time"
	}
	return "active_time"
}
