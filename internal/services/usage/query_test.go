package usage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

func seedDays(t *testing.T, svc *Service, serial string, days ...string) {
	t.Helper()
	for _, d := range days {
		_, err := svc.SyncOne(context.Background(), Payload{SerialNumber: serial, ActiveTime: i64(60), Timestamp: d + "T10:00:00Z"})
		require.NoError(t, err)
	}
}

func TestDailyUsageNewestFirstAndSparse(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), defaultResolver())
	seedDays(t, svc, "SN-1", "2024-03-01", "2024-03-05", "2024-03-03")
	seedDays(t, svc, "SN-2", "2024-03-04")

	buckets, err := svc.DailyUsage(ctx, 1, timeutil.DateRange{})
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	got := []string{}
	for _, b := range buckets {
		got = append(got, timeutil.FormatDate(b.Date))
	}
	require.Equal(t, []string{"2024-03-05", "2024-03-03", "2024-03-01"}, got)
}

func TestDailyUsageRange(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), defaultResolver())
	seedDays(t, svc, "SN-1", "2024-03-01", "2024-03-05", "2024-03-03")

	r, err := timeutil.ParseDateRange("2024-03-02", "2024-03-05")
	require.NoError(t, err)
	buckets, err := svc.DailyUsage(ctx, 1, r)
	require.NoError(t, err)
	require.Len(t, buckets, 2)

	start := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.DailyUsage(ctx, 1, timeutil.DateRange{Start: &start, End: &end})
	require.ErrorIs(t, err, ErrValidation)
}

func TestDailyUsageUnknownDeviceIsEmpty(t *testing.T) {
	svc := newTestService(newMemStore(), defaultResolver())
	buckets, err := svc.DailyUsage(context.Background(), 404, timeutil.DateRange{})
	require.NoError(t, err)
	require.Empty(t, buckets)
}

func TestDailyUsageBySerial(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), defaultResolver())
	seedDays(t, svc, "SN-2", "2024-03-04")

	buckets, err := svc.DailyUsageBySerial(ctx, "SN-2", timeutil.DateRange{})
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	require.Equal(t, int32(2), buckets[0].DeviceID)

	buckets, err = svc.DailyUsageBySerial(ctx, "SN-OLD", timeutil.DateRange{})
	require.NoError(t, err)
	require.Empty(t, buckets)

	_, err = svc.DailyUsageBySerial(ctx, "SN-404", timeutil.DateRange{})
	require.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestAllDailyUsage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), defaultResolver())
	seedDays(t, svc, "SN-2", "2024-03-04")
	seedDays(t, svc, "SN-1", "2024-03-04", "2024-03-01")

	buckets, err := svc.AllDailyUsage(ctx, timeutil.DateRange{}, 0)
	require.NoError(t, err)
	require.Len(t, buckets, 3)
	require.Equal(t, int32(1), buckets[0].DeviceID)
	require.Equal(t, int32(2), buckets[1].DeviceID)
	require.Equal(t, "2024-03-01", timeutil.FormatDate(buckets[2].Date))

	limited, err := svc.AllDailyUsage(ctx, timeutil.DateRange{}, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}
