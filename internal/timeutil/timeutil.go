package timeutil

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("start date after end date")
)

// EnsureLocation returns UTC when loc is nil.
func EnsureLocation(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// TruncateToDay normalizes the timestamp to midnight in the provided zone.
func TruncateToDay(t time.Time, loc *time.Location) time.Time {
	loc = EnsureLocation(loc)
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// UTCDate returns the UTC calendar date containing t.
func UTCDate(t time.Time) time.Time {
	return TruncateToDay(t, time.UTC)
}

// DayNumber returns the number of whole days between the Unix epoch and the UTC date of t.
func DayNumber(t time.Time) int32 {
	d := UTCDate(t)
	return int32(d.Unix() / 86400)
}

// FormatDate renders t as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight timestamp.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// DateRange is an inclusive calendar-date range. Either bound may be nil.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// ParseDateRange builds a range from optional YYYY-MM-DD bounds.
func ParseDateRange(start, end string) (DateRange, error) {
	var r DateRange
	if s := strings.TrimSpace(start); s != "" {
		t, err := ParseDate(s)
		if err != nil {
			return DateRange{}, err
		}
		r.Start = &t
	}
	if e := strings.TrimSpace(end); e != "" {
		t, err := ParseDate(e)
		if err != nil {
			return DateRange{}, err
		}
		r.End = &t
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate reports ErrInvalidRange when both bounds are set and out of order.
func (r DateRange) Validate() error {
	if r.Start != nil && r.End != nil && r.Start.After(*r.End) {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether the UTC date of t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	d := UTCDate(t)
	if r.Start != nil && d.Before(UTCDate(*r.Start)) {
		return false
	}
	if r.End != nil && d.After(UTCDate(*r.End)) {
		return false
	}
	return true
}
