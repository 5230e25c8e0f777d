package commands

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/db"
)

type fakeCommandQueries struct {
	rows  map[uuid.UUID]db.Command
	clock time.Time
}

func newFakeCommandQueries() *fakeCommandQueries {
	return &fakeCommandQueries{
		rows:  map[uuid.UUID]db.Command{},
		clock: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeCommandQueries) tick() pgtype.Timestamptz {
	f.clock = f.clock.Add(time.Second)
	return pgtype.Timestamptz{Time: f.clock, Valid: true}
}

func (f *fakeCommandQueries) CreateCommand(_ context.Context, arg db.CreateCommandParams) (db.Command, error) {
	row := db.Command{
		ID:          arg.ID,
		DeviceID:    arg.DeviceID,
		CommandType: arg.CommandType,
		CommandData: arg.CommandData,
		Status:      StatusPending,
		CreatedAt:   f.tick(),
	}
	f.rows[arg.ID] = row
	return row, nil
}

func (f *fakeCommandQueries) ListPendingCommands(_ context.Context, deviceID int32) ([]db.Command, error) {
	var out []db.Command
	for _, row := range f.rows {
		if row.DeviceID == deviceID && row.Status == StatusPending {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Time.Before(out[j].CreatedAt.Time) })
	return out, nil
}

func (f *fakeCommandQueries) MarkCommandExecuted(_ context.Context, id uuid.UUID) (db.Command, error) {
	row, ok := f.rows[id]
	if !ok {
		return db.Command{}, pgx.ErrNoRows
	}
	row.Status = StatusExecuted
	if !row.ExecutedAt.Valid {
		row.ExecutedAt = f.tick()
	}
	f.rows[id] = row
	return row, nil
}

func TestQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(newFakeCommandQueries())

	first, err := queue.Enqueue(ctx, 1, Command{Type: TypeSetWallpaper, Payload: map[string]any{"wallpaper_url": "https://cdn.example.org/a.png"}})
	require.NoError(t, err)
	require.Equal(t, StatusPending, first.Status)
	require.Nil(t, first.ExecutedAt)
	_, err = uuid.Parse(first.ID)
	require.NoError(t, err)

	id := uuid.NewString()
	second, err := queue.Enqueue(ctx, 1, Command{ID: id, Type: TypeSetWallpaper})
	require.NoError(t, err)
	require.Equal(t, id, second.ID)

	_, err = queue.Enqueue(ctx, 2, Command{Type: TypeSetWallpaper})
	require.NoError(t, err)

	pending, err := queue.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)
	require.Equal(t, "https://cdn.example.org/a.png", pending[0].Payload["wallpaper_url"])
	require.Equal(t, second.ID, pending[1].ID)

	done, err := queue.MarkExecuted(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, StatusExecuted, done.Status)
	require.NotNil(t, done.ExecutedAt)

	again, err := queue.MarkExecuted(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, *done.ExecutedAt, *again.ExecutedAt)

	pending, err = queue.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, second.ID, pending[0].ID)
}

func TestQueueEmptyPendingIsNotNil(t *testing.T) {
	pending, err := NewQueue(newFakeCommandQueries()).Pending(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.Empty(t, pending)
}

func TestQueueErrors(t *testing.T) {
	ctx := context.Background()
	queue := NewQueue(newFakeCommandQueries())

	_, err := queue.Enqueue(ctx, 0, Command{Type: TypeSetWallpaper})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = queue.Enqueue(ctx, 1, Command{Type: " "})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = queue.Enqueue(ctx, 1, Command{ID: "not-a-uuid", Type: TypeSetWallpaper})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = queue.Pending(ctx, -1)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = queue.MarkExecuted(ctx, "42")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = queue.MarkExecuted(ctx, uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)
}
