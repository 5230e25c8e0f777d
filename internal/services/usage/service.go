package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/navgurukul/windows-rms-server/internal/services/devices"
)

const (
	defaultMaxBatchRecords = 1000
	defaultRetryBackoff    = 50 * time.Millisecond
	defaultListLimit       = 500
	maxListLimit           = 5000
)

// DeviceResolver maps serial numbers to device ids.
type DeviceResolver interface {
	// Resolve returns devices.ErrNotFound for unknown or inactive devices.
	Resolve(ctx context.Context, serial string) (int32, error)
	// Lookup resolves regardless of the active flag.
	Lookup(ctx context.Context, serial string) (int32, error)
}

// Metrics receives sync outcomes. *observability.Provider implements it.
type Metrics interface {
	RecordUsageSync(mode, outcome string, duration time.Duration)
	RecordUsageReports(mode, outcome string, count int)
	RecordDeltaSeconds(mode string, seconds int64)
}

type Config struct {
	MaxBatchRecords int
	MaxFutureSkew   time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
}

// Service ingests usage reports and answers daily usage queries.
type Service struct {
	store    Store
	resolver DeviceResolver
	cfg      Config
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store Store, resolver DeviceResolver, cfg Config) *Service {
	if cfg.MaxBatchRecords <= 0 {
		cfg.MaxBatchRecords = defaultMaxBatchRecords
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &Service{
		store:    store,
		resolver: resolver,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
}

// SetMetrics attaches a metrics sink.
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// MaxBatchRecords reports the configured /bulk-sync limit.
func (s *Service) MaxBatchRecords() int {
	return s.cfg.MaxBatchRecords
}

func (s *Service) resolve(ctx context.Context, serial string) (int32, error) {
	var id int32
	err := s.withRetry(ctx, func(ctx context.Context) error {
		v, err := s.resolver.Resolve(ctx, serial)
		switch {
		case err == nil:
			id = v
			return nil
		case errors.Is(err, devices.ErrNotFound):
			return fmt.Errorf("%w: %s", ErrDeviceNotFound, serial)
		default:
			return classify("resolve device", err)
		}
	})
	return id, err
}

// withRetry reruns fn while it fails with ErrTransientStorage. Each attempt is a
// fresh transaction, so a rolled back attempt has applied nothing.
func (s *Service) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(uint64(s.cfg.RetryAttempts), retry.NewExponential(s.cfg.RetryBackoff))
	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err != nil && errors.Is(err, ErrTransientStorage) {
			s.logger.Warn("usage storage attempt failed", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

func (s *Service) observe(mode string, started time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordUsageSync(mode, outcomeFor(err), s.now().Sub(started))
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrBatchTooLarge):
		return "invalid"
	case errors.Is(err, ErrDeviceNotFound):
		return "unknown_device"
	case errors.Is(err, ErrTransientStorage):
		return "transient"
	default:
		return "error"
	}
}
