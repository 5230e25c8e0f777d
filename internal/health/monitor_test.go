package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/config"
)

func TestMonitorSnapshot(t *testing.T) {
	m := NewMonitor(config.HealthConfig{CheckInterval: time.Hour, Timeout: time.Second})
	m.Register("postgres", func(context.Context) error { return nil })
	m.Register("redis", func(context.Context) error { return errors.New("connection refused") })
	m.Register("ignored", nil)
	require.Equal(t, []string{"postgres", "redis"}, m.Names())

	status, results := m.Snapshot()
	require.Equal(t, StatusOK, status)
	require.Empty(t, results)

	m.CheckNow(context.Background())
	status, results = m.Snapshot()
	require.Equal(t, StatusDegraded, status)
	require.Equal(t, StatusOK, results["postgres"].Status)
	require.Equal(t, StatusError, results["redis"].Status)
	require.Equal(t, "connection refused", results["redis"].Error)
}

func TestMonitorCheckTimeout(t *testing.T) {
	m := NewMonitor(config.HealthConfig{CheckInterval: time.Hour, Timeout: 10 * time.Millisecond})
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	m.CheckNow(context.Background())
	_, results := m.Snapshot()
	require.Equal(t, StatusError, results["slow"].Status)
}

func TestMonitorStartRunsInitialSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewMonitor(config.HealthConfig{CheckInterval: time.Hour})
	m.Register("postgres", func(context.Context) error { return nil })
	m.Start(ctx)

	status, results := m.Snapshot()
	require.Equal(t, StatusOK, status)
	require.Contains(t, results, "postgres")
}
