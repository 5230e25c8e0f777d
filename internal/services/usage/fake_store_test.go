package usage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/navgurukul/windows-rms-server/internal/services/devices"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

// memStore runs transactions concurrently against shared state. Writes are
// buffered per transaction and applied on commit with a GREATEST-style floor;
// only Lock serializes writers of a key, and it holds until the transaction ends.
type memStore struct {
	mu           sync.Mutex
	buckets      map[Key]Bucket
	keyLocks     map[Key]*sync.Mutex
	nextID       int64
	failAttempts int
	failErr      error
	attempts     int
	locks        [][]Key
	// readDelay widens the window between a read and the matching write.
	readDelay time.Duration
}

func newMemStore() *memStore {
	return &memStore{buckets: map[Key]Bucket{}, keyLocks: map[Key]*sync.Mutex{}}
}

func (m *memStore) InTx(ctx context.Context, fn func(tx StoreTx) error) error {
	m.mu.Lock()
	m.attempts++
	m.mu.Unlock()

	tx := &memTx{store: m, writes: map[Key]Bucket{}}
	defer tx.unlockAll()
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAttempts > 0 {
		m.failAttempts--
		return m.failErr
	}
	for key, b := range tx.writes {
		if existing, ok := m.buckets[key]; ok {
			b.TrackingID = existing.TrackingID
			b.CreatedAt = existing.CreatedAt
			b.TotalActiveTime = max(existing.TotalActiveTime, b.TotalActiveTime)
		}
		m.buckets[key] = b
	}
	m.locks = append(m.locks, tx.locked)
	return nil
}

func (m *memStore) keyLock(key Key) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		m.keyLocks[key] = l
	}
	return l
}

func (m *memStore) ListByDevice(_ context.Context, deviceID int32, r timeutil.DateRange) ([]Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Bucket
	for _, b := range m.buckets {
		if b.DeviceID == deviceID && r.Contains(b.Date) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (m *memStore) ListAll(_ context.Context, r timeutil.DateRange, limit int32) ([]Bucket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Bucket
	for _, b := range m.buckets {
		if r.Contains(b.Date) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	if int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) bucket(deviceID int32, date time.Time) (Bucket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[Key{DeviceID: deviceID, Date: timeutil.UTCDate(date)}]
	return b, ok
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buckets)
}

type memTx struct {
	store  *memStore
	writes map[Key]Bucket
	locked []Key
	held   []*sync.Mutex
}

func (t *memTx) Lock(_ context.Context, key Key) error {
	l := t.store.keyLock(key)
	l.Lock()
	t.held = append(t.held, l)
	t.locked = append(t.locked, key)
	return nil
}

func (t *memTx) unlockAll() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

func (t *memTx) Get(_ context.Context, key Key) (*Bucket, error) {
	if b, ok := t.writes[key]; ok {
		return &b, nil
	}
	t.store.mu.Lock()
	b, ok := t.store.buckets[key]
	delay := t.store.readDelay
	t.store.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (t *memTx) Save(_ context.Context, b Bucket) (Bucket, error) {
	key := b.Key()
	now := time.Now().UTC()
	if existing, ok := t.writes[key]; ok {
		b.TrackingID = existing.TrackingID
		b.CreatedAt = existing.CreatedAt
		b.TotalActiveTime = max(existing.TotalActiveTime, b.TotalActiveTime)
	} else {
		t.store.mu.Lock()
		if existing, ok := t.store.buckets[key]; ok {
			b.TrackingID = existing.TrackingID
			b.CreatedAt = existing.CreatedAt
			b.TotalActiveTime = max(existing.TotalActiveTime, b.TotalActiveTime)
		} else {
			t.store.nextID++
			b.TrackingID = t.store.nextID
			b.CreatedAt = now
		}
		t.store.mu.Unlock()
	}
	b.UpdatedAt = now
	t.writes[key] = b
	return b, nil
}

// staticResolver resolves a fixed serial map; inactive serials resolve only via Lookup.
type staticResolver struct {
	active   map[string]int32
	inactive map[string]int32
	err      error
}

func (r staticResolver) Resolve(_ context.Context, serial string) (int32, error) {
	if r.err != nil {
		return 0, r.err
	}
	if id, ok := r.active[serial]; ok {
		return id, nil
	}
	return 0, devices.ErrNotFound
}

func (r staticResolver) Lookup(ctx context.Context, serial string) (int32, error) {
	if id, ok := r.inactive[serial]; ok {
		return id, nil
	}
	return r.Resolve(ctx, serial)
}

// flakyResolver fails the first failures calls with err, then resolves SN-1.
type flakyResolver struct {
	mu       sync.Mutex
	failures int
	err      error
	calls    int
}

func (r *flakyResolver) Resolve(_ context.Context, serial string) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failures > 0 {
		r.failures--
		return 0, r.err
	}
	if serial == "SN-1" {
		return 1, nil
	}
	return 0, devices.ErrNotFound
}

func (r *flakyResolver) Lookup(ctx context.Context, serial string) (int32, error) {
	return r.Resolve(ctx, serial)
}
