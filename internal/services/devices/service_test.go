package devices

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/db"
)

type fakeQueries struct {
	mu          sync.Mutex
	nextID      int32
	bySerial    map[string]db.Device
	serialLooks int
}

func newFakeQueries() *fakeQueries {
	return &fakeQueries{bySerial: map[string]db.Device{}}
}

func (f *fakeQueries) CreateDevice(_ context.Context, arg db.CreateDeviceParams) (db.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bySerial[arg.SerialNumber]; ok {
		return db.Device{}, &pgconn.PgError{Code: "23505"}
	}
	f.nextID++
	d := db.Device{
		ID:           f.nextID,
		Username:     arg.Username,
		SerialNumber: arg.SerialNumber,
		MacAddress:   arg.MacAddress,
		Location:     arg.Location,
		IsActive:     true,
		CreatedAt:    pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	f.bySerial[arg.SerialNumber] = d
	return d, nil
}

func (f *fakeQueries) GetDeviceByID(_ context.Context, id int32) (db.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.bySerial {
		if d.ID == id {
			return d, nil
		}
	}
	return db.Device{}, pgx.ErrNoRows
}

func (f *fakeQueries) GetDeviceBySerial(_ context.Context, serial string) (db.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serialLooks++
	d, ok := f.bySerial[serial]
	if !ok {
		return db.Device{}, pgx.ErrNoRows
	}
	return d, nil
}

func (f *fakeQueries) ListDevices(_ context.Context, arg db.ListDevicesParams) ([]db.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]db.Device, 0, len(f.bySerial))
	for id := int32(1); id <= f.nextID; id++ {
		for _, d := range f.bySerial {
			if d.ID == id {
				out = append(out, d)
			}
		}
	}
	start := min(int(arg.Offset), len(out))
	end := min(start+int(arg.Limit), len(out))
	return out[start:end], nil
}

func (f *fakeQueries) SetDeviceActive(_ context.Context, arg db.SetDeviceActiveParams) (db.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for serial, d := range f.bySerial {
		if d.ID == arg.ID {
			d.IsActive = arg.IsActive
			f.bySerial[serial] = d
			return d, nil
		}
	}
	return db.Device{}, pgx.ErrNoRows
}

func (f *fakeQueries) lookups() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.serialLooks
}

func TestResolveCachesActiveDevices(t *testing.T) {
	ctx := context.Background()
	q := newFakeQueries()
	svc := NewService(q, CacheConfig{Size: 10, TTL: time.Minute})

	dev, err := svc.Register(ctx, RegisterInput{SerialNumber: " SN-1 ", Username: "asha"})
	require.NoError(t, err)
	require.Equal(t, "SN-1", dev.SerialNumber)

	id, err := svc.Resolve(ctx, "SN-1")
	require.NoError(t, err)
	require.Equal(t, dev.ID, id)

	_, err = svc.Resolve(ctx, "SN-1")
	require.NoError(t, err)
	require.Equal(t, 1, q.lookups(), "second resolve should hit the cache")
}

func TestResolveUnknownIsNotCached(t *testing.T) {
	ctx := context.Background()
	q := newFakeQueries()
	svc := NewService(q, CacheConfig{})

	_, err := svc.Resolve(ctx, "SN-404")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Register(ctx, RegisterInput{SerialNumber: "SN-404"})
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, "SN-404")
	require.NoError(t, err)
}

func TestResolveInactiveDevice(t *testing.T) {
	ctx := context.Background()
	q := newFakeQueries()
	svc := NewService(q, CacheConfig{})

	dev, err := svc.Register(ctx, RegisterInput{SerialNumber: "SN-2"})
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, "SN-2")
	require.NoError(t, err)

	_, err = svc.SetActive(ctx, dev.ID, false)
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, "SN-2")
	require.ErrorIs(t, err, ErrNotFound, "deactivation must invalidate the cached resolution")

	id, err := svc.Lookup(ctx, "SN-2")
	require.NoError(t, err)
	require.Equal(t, dev.ID, id)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeQueries(), CacheConfig{})

	_, err := svc.Register(ctx, RegisterInput{SerialNumber: "  "})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Register(ctx, RegisterInput{SerialNumber: "SN-3"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{SerialNumber: "SN-3"})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeQueries(), CacheConfig{})

	for _, serial := range []string{"A", "B", "C"} {
		_, err := svc.Register(ctx, RegisterInput{SerialNumber: serial})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "B", list[0].SerialNumber)

	_, err = svc.Get(ctx, 99)
	require.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.SetActive(ctx, 99, true)
	require.ErrorIs(t, err, ErrNotFound)
}
