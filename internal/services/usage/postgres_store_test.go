package usage

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/db"
)

func TestBucketFromRow(t *testing.T) {
	reported := time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)
	row := db.DailyUsage{
		ID:              42,
		DeviceID:        7,
		UsageDate:       pgtype.Date{Time: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Valid: true},
		TotalActiveTime: 900,
		Latitude:        decimal.NullDecimal{Decimal: decimal.RequireFromString("12.971599"), Valid: true},
		LocationName:    pgtype.Text{String: "Bengaluru", Valid: true},
		LastReportAt:    pgtype.Timestamptz{Time: reported, Valid: true},
	}

	b := bucketFromRow(row)
	require.Equal(t, int64(42), b.TrackingID)
	require.Equal(t, int32(7), b.DeviceID)
	require.Equal(t, "2024-03-10", b.Date.Format("2006-01-02"))
	require.Equal(t, "12.971599", b.Latitude.String())
	require.Nil(t, b.Longitude)
	require.Equal(t, "Bengaluru", *b.LocationName)
	require.True(t, b.LastReportAt.Equal(reported))
	require.True(t, b.CreatedAt.IsZero())
}

func TestNullableConversions(t *testing.T) {
	require.False(t, toNullDecimal(nil).Valid)
	require.False(t, toPgText(nil).Valid)
	require.False(t, toPgDatePtr(nil).Valid)

	d := decimal.RequireFromString("-45.5")
	nd := toNullDecimal(&d)
	require.True(t, nd.Valid)
	require.True(t, nd.Decimal.Equal(d))

	local := time.Date(2024, 3, 10, 1, 0, 0, 0, time.FixedZone("UTC+5", 5*3600))
	date := toPgDate(local)
	require.Equal(t, "2024-03-09", date.Time.Format("2006-01-02"))
}

func TestClassifyMarksTransientErrors(t *testing.T) {
	err := classify("upsert daily usage", &pgconn.PgError{Code: "40P01"})
	require.True(t, errors.Is(err, ErrTransientStorage))

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))

	err = classify("upsert daily usage", &pgconn.PgError{Code: "23514"})
	require.False(t, errors.Is(err, ErrTransientStorage))
}
