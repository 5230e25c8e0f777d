package usage

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func reportOf(kind MeasurementKind, secs int64) Report {
	return Report{
		SerialNumber: "SN-1",
		DeviceID:     1,
		Measurement:  Measurement{Kind: kind, Seconds: secs},
		At:           testNow,
	}
}

func TestMergeAbsentBucket(t *testing.T) {
	for _, kind := range []MeasurementKind{MeasurementDelta, MeasurementTotal} {
		t.Run(kind.String(), func(t *testing.T) {
			r := reportOf(kind, 40)
			r.LocationName = str("Pune")
			b, err := Merge(nil, r)
			require.NoError(t, err)
			require.Equal(t, int64(40), b.TotalActiveTime)
			require.Equal(t, int32(1), b.DeviceID)
			require.True(t, b.Date.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)))
			require.Equal(t, "Pune", *b.LocationName)
			require.True(t, b.LastReportAt.Equal(testNow))
		})
	}
}

func TestMergeRules(t *testing.T) {
	tests := []struct {
		name     string
		existing int64
		kind     MeasurementKind
		secs     int64
		want     int64
	}{
		{"delta adds", 30, MeasurementDelta, 45, 75},
		{"zero delta keeps total", 30, MeasurementDelta, 0, 30},
		{"larger total replaces", 90, MeasurementTotal, 120, 120},
		{"smaller total ignored", 120, MeasurementTotal, 90, 120},
		{"equal total idempotent", 120, MeasurementTotal, 120, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := &Bucket{TrackingID: 7, DeviceID: 1, Date: testNow, TotalActiveTime: tt.existing}
			b, err := Merge(existing, reportOf(tt.kind, tt.secs))
			require.NoError(t, err)
			require.Equal(t, tt.want, b.TotalActiveTime)
			require.Equal(t, int64(7), b.TrackingID)
		})
	}
}

func TestMergeRejectsNegativeAndOverflow(t *testing.T) {
	existing := &Bucket{DeviceID: 1, Date: testNow, TotalActiveTime: 50}

	_, err := Merge(existing, reportOf(MeasurementDelta, -10))
	require.True(t, errors.Is(err, ErrValidation))
	require.Equal(t, int64(50), existing.TotalActiveTime)

	_, err = Merge(existing, reportOf(MeasurementTotal, -1))
	require.True(t, errors.Is(err, ErrValidation))

	full := &Bucket{DeviceID: 1, Date: testNow, TotalActiveTime: math.MaxInt64 - 5}
	_, err = Merge(full, reportOf(MeasurementDelta, 6))
	require.True(t, errors.Is(err, ErrValidation))

	_, err = Merge(nil, Report{DeviceID: 1, At: testNow})
	require.True(t, errors.Is(err, ErrValidation))
}

func TestMergeOverwritesLocationOnDelta(t *testing.T) {
	existing := &Bucket{
		DeviceID:        1,
		Date:            testNow,
		TotalActiveTime: 10,
		Latitude:        dec("10"),
		Longitude:       dec("20"),
		LocationName:    str("Old"),
		LastReportAt:    testNow.Add(-time.Hour),
	}
	r := reportOf(MeasurementDelta, 5)
	r.Latitude = dec("11.5")
	r.Longitude = dec("21.5")
	r.LocationName = str("New")

	b, err := Merge(existing, r)
	require.NoError(t, err)
	require.Equal(t, int64(15), b.TotalActiveTime)
	require.Equal(t, "11.5", b.Latitude.String())
	require.Equal(t, "21.5", b.Longitude.String())
	require.Equal(t, "New", *b.LocationName)
	require.True(t, b.LastReportAt.Equal(testNow))

	cleared, err := Merge(&b, reportOf(MeasurementDelta, 1))
	require.NoError(t, err)
	require.Nil(t, cleared.Latitude)
	require.Nil(t, cleared.LocationName)
}
