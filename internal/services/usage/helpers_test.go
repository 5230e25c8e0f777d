package usage

import (
	"time"

	"github.com/shopspring/decimal"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func i64(v int64) *int64 { return &v }

func str(v string) *string { return &v }

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func newTestService(store Store, resolver DeviceResolver) *Service {
	svc := NewService(store, resolver, Config{
		MaxBatchRecords: 10,
		MaxFutureSkew:   24 * time.Hour,
		RetryAttempts:   2,
		RetryBackoff:    time.Millisecond,
	})
	svc.now = func() time.Time { return testNow }
	return svc
}

func defaultResolver() staticResolver {
	return staticResolver{
		active: map[string]int32{
			"SN-1": 1,
			"SN-2": 2,
			"SN-3": 3,
		},
		inactive: map[string]int32{
			"SN-OLD": 9,
		},
	}
}
