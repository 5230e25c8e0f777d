package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/navgurukul/windows-rms-server/internal/config"
)

const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusDegraded = "degraded"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// Result is the outcome of the latest probe of a dependency.
type Result struct {
	Status    string        `json:"status"`
	Latency   time.Duration `json:"-"`
	LatencyMS int64         `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Monitor periodically probes dependencies and keeps the latest results so
// /healthz never blocks on a slow backend.
type Monitor struct {
	checks    map[string]Check
	interval  time.Duration
	timeout   time.Duration
	now       func() time.Time
	startOnce sync.Once

	mu      sync.RWMutex
	results map[string]Result
}

// NewMonitor constructs a monitor using the health configuration.
func NewMonitor(cfg config.HealthConfig) *Monitor {
	interval := cfg.CheckInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > interval {
		timeout = 2 * time.Second
	}

	return &Monitor{
		checks:   make(map[string]Check),
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		results:  make(map[string]Result),
	}
}

// Register adds a named check. Call before Start.
func (m *Monitor) Register(name string, check Check) {
	if check == nil {
		return
	}
	m.checks[name] = check
}

// Start begins the monitoring loop until ctx is canceled.
func (m *Monitor) Start(ctx context.Context) {
	if len(m.checks) == 0 {
		return
	}
	m.startOnce.Do(func() {
		m.CheckNow(ctx)
		go m.run(ctx)
	})
}

func (m *Monitor) run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckNow(ctx)
		}
	}
}

// CheckNow probes every dependency concurrently and records the results.
func (m *Monitor) CheckNow(ctx context.Context) {
	var wg sync.WaitGroup
	for name, check := range m.checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			timeoutCtx, cancel := context.WithTimeout(ctx, m.timeout)
			defer cancel()

			start := m.now()
			err := check(timeoutCtx)
			latency := m.now().Sub(start)
			res := Result{
				Status:    StatusOK,
				Latency:   latency,
				LatencyMS: latency.Milliseconds(),
				CheckedAt: start.UTC(),
			}
			if err != nil {
				res.Status = StatusError
				res.Error = err.Error()
			}

			m.mu.Lock()
			m.results[name] = res
			m.mu.Unlock()
		}(name, check)
	}
	wg.Wait()
}

// Snapshot returns the overall status and a copy of the latest results.
// Dependencies not yet probed are omitted.
func (m *Monitor) Snapshot() (string, map[string]Result) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := StatusOK
	out := make(map[string]Result, len(m.results))
	for name, res := range m.results {
		out[name] = res
		if res.Status != StatusOK {
			overall = StatusDegraded
		}
	}
	return overall, out
}

// Names lists registered checks in order.
func (m *Monitor) Names() []string {
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
