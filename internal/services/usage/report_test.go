package usage

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPayloadReport(t *testing.T) {
	tests := []struct {
		name      string
		payload   Payload
		wantKind  MeasurementKind
		wantSecs  int64
		wantField string
	}{
		{name: "delta", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(30)}, wantKind: MeasurementDelta, wantSecs: 30},
		{name: "total", payload: Payload{SerialNumber: "SN-1", TotalTime: i64(120)}, wantKind: MeasurementTotal, wantSecs: 120},
		{name: "total wins over delta", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(5), TotalTime: i64(90)}, wantKind: MeasurementTotal, wantSecs: 90},
		{name: "zero delta is allowed", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(0)}, wantKind: MeasurementDelta, wantSecs: 0},
		{name: "missing serial", payload: Payload{ActiveTime: i64(1)}, wantField: "serial_number"},
		{name: "blank serial", payload: Payload{SerialNumber: "   ", ActiveTime: i64(1)}, wantField: "serial_number"},
		{name: "no measurement", payload: Payload{SerialNumber: "SN-1"}, wantField: "active_time"},
		{name: "negative delta", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(-10)}, wantField: "active_time"},
		{name: "negative total", payload: Payload{SerialNumber: "SN-1", TotalTime: i64(-1)}, wantField: "total_time"},
		{name: "latitude out of range", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(1), Latitude: dec("90.5")}, wantField: "latitude"},
		{name: "longitude out of range", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(1), Longitude: dec("-180.01")}, wantField: "longitude"},
		{name: "bad timestamp", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(1), Timestamp: "yesterday"}, wantField: "timestamp"},
		{name: "future timestamp", payload: Payload{SerialNumber: "SN-1", ActiveTime: i64(1), Timestamp: "2024-03-12T12:00:00Z"}, wantField: "timestamp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := tt.payload.Report(testNow, 24*time.Hour)
			if tt.wantField != "" {
				require.Error(t, err)
				require.True(t, errors.Is(err, ErrValidation))
				var verr *ValidationError
				require.True(t, errors.As(err, &verr))
				require.Equal(t, tt.wantField, verr.Field)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantKind, r.Measurement.Kind)
			require.Equal(t, tt.wantSecs, r.Measurement.Seconds)
		})
	}
}

func TestPayloadReportDefaultsAndNormalization(t *testing.T) {
	p := Payload{
		SerialNumber: " SN-1 ",
		ActiveTime:   i64(10),
		Latitude:     dec("12.97159876"),
		Longitude:    dec("77.594566"),
		LocationName: str("  Bengaluru  "),
	}
	r, err := p.Report(testNow, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "SN-1", r.SerialNumber)
	require.True(t, r.At.Equal(testNow), "missing timestamp defaults to receipt time")
	require.Equal(t, "12.971599", r.Latitude.String())
	require.Equal(t, "77.594566", r.Longitude.String())
	require.Equal(t, "Bengaluru", *r.LocationName)

	p = Payload{SerialNumber: "SN-1", ActiveTime: i64(1), LocationName: str("   ")}
	r, err = p.Report(testNow, time.Hour)
	require.NoError(t, err)
	require.Nil(t, r.LocationName)
}

func TestPayloadReportTimestampZone(t *testing.T) {
	p := Payload{SerialNumber: "SN-1", ActiveTime: i64(1), Timestamp: "2024-03-10T02:30:00+05:30"}
	r, err := p.Report(testNow, time.Hour)
	require.NoError(t, err)
	require.Equal(t, time.UTC, r.At.Location())
	require.Equal(t, "2024-03-09", r.Date().Format("2006-01-02"))
}

func TestDecodePayload(t *testing.T) {
	p, err := DecodePayload([]byte(`{"serial_number":"SN-1","active_time":10,"latitude":"18.5"}`))
	require.NoError(t, err)
	require.Equal(t, "SN-1", p.SerialNumber)
	require.Equal(t, int64(10), *p.ActiveTime)
	require.Equal(t, "18.5", p.Latitude.String())

	for raw, field := range map[string]string{
		`{"serial_number":"SN-1","active_time":"ten"}`: "active_time",
		`{"serial_number":"SN-1","total_time":12.5}`:   "total_time",
		`{"serial_number":7,"active_time":1}`:          "serial_number",
	} {
		_, err := DecodePayload([]byte(raw))
		require.ErrorIs(t, err, ErrValidation, raw)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		require.Equal(t, field, verr.Field, raw)
	}

	_, err = DecodePayload([]byte(`42`))
	require.ErrorIs(t, err, ErrValidation)
}
