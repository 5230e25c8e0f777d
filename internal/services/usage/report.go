package usage

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

const (
	maxSerialLength       = 255
	maxLocationNameLength = 255
	coordinatePlaces      = 6
)

var (
	minLatitude  = decimal.NewFromInt(-90)
	maxLatitude  = decimal.NewFromInt(90)
	minLongitude = decimal.NewFromInt(-180)
	maxLongitude = decimal.NewFromInt(180)
)

// MeasurementKind distinguishes incremental and cumulative reports.
type MeasurementKind int

const (
	MeasurementDelta MeasurementKind = iota + 1
	MeasurementTotal
)

func (k MeasurementKind) String() string {
	switch k {
	case MeasurementDelta:
		return "delta"
	case MeasurementTotal:
		return "total"
	default:
		return "unknown"
	}
}

// Measurement is the active time carried by a report, in seconds.
type Measurement struct {
	Kind    MeasurementKind
	Seconds int64
}

// Payload is the wire form of a usage report, shared by /sync and each /bulk-sync record.
type Payload struct {
	SerialNumber string           `json:"serial_number"`
	ActiveTime   *int64           `json:"active_time,omitempty"`
	TotalTime    *int64           `json:"total_time,omitempty"`
	Latitude     *decimal.Decimal `json:"latitude,omitempty"`
	Longitude    *decimal.Decimal `json:"longitude,omitempty"`
	LocationName *string          `json:"location_name,omitempty"`
	Timestamp    string           `json:"timestamp,omitempty"`
}

// DecodePayload parses one JSON record. Type mismatches come back as a
// ValidationError naming the offending field.
func DecodePayload(raw []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return Payload{}, invalid(typeErr.Field, "has the wrong type")
		}
		return Payload{}, invalid("", "record is not a valid usage report")
	}
	return p, nil
}

// Report is a validated Payload. DeviceID is zero until the serial is resolved.
type Report struct {
	SerialNumber string
	DeviceID     int32
	Measurement  Measurement
	Latitude     *decimal.Decimal
	Longitude    *decimal.Decimal
	LocationName *string
	At           time.Time
}

// Date is the UTC calendar date the report is bucketed into.
func (r Report) Date() time.Time {
	return timeutil.UTCDate(r.At)
}

// Key identifies the bucket the report merges into.
func (r Report) Key() Key {
	return Key{DeviceID: r.DeviceID, Date: r.Date()}
}

// Report validates the payload and resolves its measurement. now is the receipt
// time; a zero maxSkew disables the future-timestamp check.
func (p Payload) Report(now time.Time, maxSkew time.Duration) (Report, error) {
	serial := strings.TrimSpace(p.SerialNumber)
	if serial == "" {
		return Report{}, invalid("serial_number", "is required")
	}
	if len(serial) > maxSerialLength {
		return Report{}, invalid("serial_number", "is too long")
	}

	m, err := p.measurement()
	if err != nil {
		return Report{}, err
	}

	r := Report{
		SerialNumber: serial,
		Measurement:  m,
		At:           now.UTC(),
	}

	if p.Latitude != nil {
		if p.Latitude.LessThan(minLatitude) || p.Latitude.GreaterThan(maxLatitude) {
			return Report{}, invalid("latitude", "must be between -90 and 90")
		}
		lat := p.Latitude.Round(coordinatePlaces)
		r.Latitude = &lat
	}
	if p.Longitude != nil {
		if p.Longitude.LessThan(minLongitude) || p.Longitude.GreaterThan(maxLongitude) {
			return Report{}, invalid("longitude", "must be between -180 and 180")
		}
		lng := p.Longitude.Round(coordinatePlaces)
		r.Longitude = &lng
	}
	if p.LocationName != nil {
		name := strings.TrimSpace(*p.LocationName)
		if len(name) > maxLocationNameLength {
			return Report{}, invalid("location_name", "is too long")
		}
		if name != "" {
			r.LocationName = &name
		}
	}

	if ts := strings.TrimSpace(p.Timestamp); ts != "" {
		at, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Report{}, invalid("timestamp", "must be an RFC3339 timestamp")
		}
		if maxSkew > 0 && at.After(now.Add(maxSkew)) {
			return Report{}, invalid("timestamp", "is too far in the future")
		}
		r.At = at.UTC()
	}

	return r, nil
}

// measurement picks the cumulative total when both fields are present.
func (p Payload) measurement() (Measurement, error) {
	if p.ActiveTime == nil && p.TotalTime == nil {
		return Measurement{}, invalid("active_time", "or total_time is required")
	}
	if p.ActiveTime != nil && *p.ActiveTime < 0 {
		return Measurement{}, invalid("active_time", "must not be negative")
	}
	if p.TotalTime != nil {
		if *p.TotalTime < 0 {
			return Measurement{}, invalid("total_time", "must not be negative")
		}
		return Measurement{Kind: MeasurementTotal, Seconds: *p.TotalTime}, nil
	}
	return Measurement{Kind: MeasurementDelta, Seconds: *p.ActiveTime}, nil
}
