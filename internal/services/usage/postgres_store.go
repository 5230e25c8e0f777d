package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/navgurukul/windows-rms-server/internal/database"
	"github.com/navgurukul/windows-rms-server/internal/db"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

// PostgresStore keeps buckets in the daily_usage table. Writers of a key are
// serialized with a transaction-scoped advisory lock on (device_id, day number).
type PostgresStore struct {
	pool    *pgxpool.Pool
	queries *db.Queries
}

func NewPostgresStore(pool *pgxpool.Pool, queries *db.Queries) *PostgresStore {
	return &PostgresStore{pool: pool, queries: queries}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx StoreTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classify("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&postgresTx{queries: s.queries.WithTx(tx)}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

func (s *PostgresStore) ListByDevice(ctx context.Context, deviceID int32, r timeutil.DateRange) ([]Bucket, error) {
	rows, err := s.queries.ListDailyUsageByDevice(ctx, db.ListDailyUsageByDeviceParams{
		DeviceID:  deviceID,
		StartDate: toPgDatePtr(r.Start),
		EndDate:   toPgDatePtr(r.End),
	})
	if err != nil {
		return nil, classify("list daily usage", err)
	}
	return bucketsFromRows(rows), nil
}

func (s *PostgresStore) ListAll(ctx context.Context, r timeutil.DateRange, limit int32) ([]Bucket, error) {
	rows, err := s.queries.ListDailyUsage(ctx, db.ListDailyUsageParams{
		StartDate: toPgDatePtr(r.Start),
		EndDate:   toPgDatePtr(r.End),
		RowLimit:  limit,
	})
	if err != nil {
		return nil, classify("list daily usage", err)
	}
	return bucketsFromRows(rows), nil
}

type postgresTx struct {
	queries *db.Queries
}

func (t *postgresTx) Lock(ctx context.Context, key Key) error {
	err := t.queries.LockDailyUsageKey(ctx, db.LockDailyUsageKeyParams{
		DeviceID:  key.DeviceID,
		DayNumber: timeutil.DayNumber(key.Date),
	})
	if err != nil {
		return classify("lock daily usage", err)
	}
	return nil
}

func (t *postgresTx) Get(ctx context.Context, key Key) (*Bucket, error) {
	row, err := t.queries.GetDailyUsage(ctx, db.GetDailyUsageParams{
		DeviceID:  key.DeviceID,
		UsageDate: toPgDate(key.Date),
	})
	if err != nil {
		if database.IsNotFound(err) {
			return nil, nil
		}
		return nil, classify("get daily usage", err)
	}
	b := bucketFromRow(row)
	return &b, nil
}

func (t *postgresTx) Save(ctx context.Context, b Bucket) (Bucket, error) {
	row, err := t.queries.UpsertDailyUsage(ctx, db.UpsertDailyUsageParams{
		DeviceID:        b.DeviceID,
		UsageDate:       toPgDate(b.Date),
		TotalActiveTime: b.TotalActiveTime,
		Latitude:        toNullDecimal(b.Latitude),
		Longitude:       toNullDecimal(b.Longitude),
		LocationName:    toPgText(b.LocationName),
		LastReportAt:    pgtype.Timestamptz{Time: b.LastReportAt, Valid: true},
	})
	if err != nil {
		return Bucket{}, classify("upsert daily usage", err)
	}
	return bucketFromRow(row), nil
}

func classify(op string, err error) error {
	if database.IsTransient(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrTransientStorage, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func bucketsFromRows(rows []db.DailyUsage) []Bucket {
	out := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		out = append(out, bucketFromRow(row))
	}
	return out
}

func bucketFromRow(row db.DailyUsage) Bucket {
	return Bucket{
		TrackingID:      row.ID,
		DeviceID:        row.DeviceID,
		Date:            fromPgDate(row.UsageDate),
		TotalActiveTime: row.TotalActiveTime,
		Latitude:        fromNullDecimal(row.Latitude),
		Longitude:       fromNullDecimal(row.Longitude),
		LocationName:    fromPgText(row.LocationName),
		LastReportAt:    fromPgTimestamp(row.LastReportAt),
		CreatedAt:       fromPgTimestamp(row.CreatedAt),
		UpdatedAt:       fromPgTimestamp(row.UpdatedAt),
	}
}

func toPgDate(t time.Time) pgtype.Date {
	return pgtype.Date{Time: timeutil.UTCDate(t), Valid: true}
}

func toPgDatePtr(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return toPgDate(*t)
}

func fromPgDate(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return timeutil.UTCDate(d.Time)
}

func fromPgTimestamp(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time.UTC()
}

func toPgText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func fromPgText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	v := t.String
	return &v
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
