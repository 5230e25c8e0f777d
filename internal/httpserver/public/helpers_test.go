package public

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/cache"
	"github.com/navgurukul/windows-rms-server/internal/commands"
	"github.com/navgurukul/windows-rms-server/internal/config"
	"github.com/navgurukul/windows-rms-server/internal/db"
	"github.com/navgurukul/windows-rms-server/internal/limits"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
	"github.com/navgurukul/windows-rms-server/internal/services/logs"
	"github.com/navgurukul/windows-rms-server/internal/services/usage"
	"github.com/navgurukul/windows-rms-server/internal/storage/blob"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

type memStore struct {
	mu      sync.Mutex
	buckets map[usage.Key]usage.Bucket
	nextID  int64
	fail    error
}

func (m *memStore) InTx(_ context.Context, fn func(tx usage.StoreTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	tx := &memTx{state: maps.Clone(m.buckets), nextID: m.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	m.buckets, m.nextID = tx.state, tx.nextID
	return nil
}

func (m *memStore) ListByDevice(_ context.Context, deviceID int32, r timeutil.DateRange) ([]usage.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []usage.Bucket
	for _, b := range m.buckets {
		if b.DeviceID == deviceID && r.Contains(b.Date) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memStore) ListAll(ctx context.Context, r timeutil.DateRange, limit int32) ([]usage.Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []usage.Bucket
	for _, b := range m.buckets {
		if r.Contains(b.Date) {
			out = append(out, b)
		}
	}
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type memTx struct {
	state  map[usage.Key]usage.Bucket
	nextID int64
}

func (t *memTx) Lock(context.Context, usage.Key) error { return nil }

func (t *memTx) Get(_ context.Context, key usage.Key) (*usage.Bucket, error) {
	if b, ok := t.state[key]; ok {
		return &b, nil
	}
	return nil, nil
}

func (t *memTx) Save(_ context.Context, b usage.Bucket) (usage.Bucket, error) {
	if existing, ok := t.state[b.Key()]; ok {
		b.TrackingID = existing.TrackingID
	} else {
		t.nextID++
		b.TrackingID = t.nextID
	}
	b.UpdatedAt = time.Now().UTC()
	t.state[b.Key()] = b
	return b, nil
}

type serialResolver map[string]int32

func (r serialResolver) Resolve(_ context.Context, serial string) (int32, error) {
	if id, ok := r[serial]; ok {
		return id, nil
	}
	return 0, devices.ErrNotFound
}

func (r serialResolver) Lookup(ctx context.Context, serial string) (int32, error) {
	return r.Resolve(ctx, serial)
}

// memCommands stores queued commands in insertion order.
type memCommands struct {
	mu   sync.Mutex
	rows []db.Command
}

func (m *memCommands) CreateCommand(_ context.Context, arg db.CreateCommandParams) (db.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := db.Command{
		ID:          arg.ID,
		DeviceID:    arg.DeviceID,
		CommandType: arg.CommandType,
		CommandData: arg.CommandData,
		Status:      commands.StatusPending,
		CreatedAt:   pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true},
	}
	m.rows = append(m.rows, row)
	return row, nil
}

func (m *memCommands) ListPendingCommands(_ context.Context, deviceID int32) ([]db.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Command
	for _, row := range m.rows {
		if row.DeviceID == deviceID && row.Status == commands.StatusPending {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memCommands) MarkCommandExecuted(_ context.Context, id uuid.UUID) (db.Command, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, row := range m.rows {
		if row.ID != id {
			continue
		}
		if !row.ExecutedAt.Valid {
			row.Status = commands.StatusExecuted
			row.ExecutedAt = pgtype.Timestamptz{Time: time.Now().UTC(), Valid: true}
			m.rows[i] = row
		}
		return row, nil
	}
	return db.Command{}, pgx.ErrNoRows
}

type testEnv struct {
	app      *fiber.App
	store    *memStore
	redis    *miniredis.Miniredis
	commands *commands.Queue
}

func newTestEnv(t *testing.T, rl config.RateLimitConfig) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &memStore{buckets: map[usage.Key]usage.Bucket{}}
	resolver := serialResolver{"SN-1": 1, "SN-2": 2}
	usageSvc := usage.NewService(store, resolver, usage.Config{MaxBatchRecords: 5, RetryAttempts: 1, RetryBackoff: time.Millisecond})

	blobStore, err := blob.New(context.Background(), config.LogsConfig{
		Storage: "local",
		Local:   config.LogsLocalConfig{Directory: t.TempDir()},
	})
	require.NoError(t, err)

	queue := commands.NewQueue(&memCommands{})
	container := &app.Container{
		Config:        &config.Config{RateLimits: rl},
		Redis:         client,
		Usage:         usageSvc,
		Logs:          logs.NewService(blobStore, resolver, 1),
		Blob:          blobStore,
		RateLimiter:   limits.NewRateLimiter(client),
		DeviceLimit:   app.DeviceLimit(rl),
		BulkSyncLimit: app.BulkSyncLimit(rl),
		Idempotency:   cache.NewIdempotencyCache(client, time.Hour),
		CommandQueue:  queue,
	}
	fiberApp := fiber.New()
	Register(fiberApp, container)
	return &testEnv{app: fiberApp, store: store, redis: mr, commands: queue}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			raw, err := json.Marshal(v)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}
