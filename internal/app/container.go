package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/navgurukul/windows-rms-server/internal/auth"
	"github.com/navgurukul/windows-rms-server/internal/cache"
	"github.com/navgurukul/windows-rms-server/internal/commands"
	"github.com/navgurukul/windows-rms-server/internal/config"
	"github.com/navgurukul/windows-rms-server/internal/db"
	"github.com/navgurukul/windows-rms-server/internal/health"
	"github.com/navgurukul/windows-rms-server/internal/limits"
	"github.com/navgurukul/windows-rms-server/internal/observability"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
	"github.com/navgurukul/windows-rms-server/internal/services/logs"
	"github.com/navgurukul/windows-rms-server/internal/services/software"
	"github.com/navgurukul/windows-rms-server/internal/services/usage"
	"github.com/navgurukul/windows-rms-server/internal/services/wallpapers"
	"github.com/navgurukul/windows-rms-server/internal/storage/blob"
)

// Container aggregates runtime dependencies for handlers and services.
type Container struct {
	Config        *config.Config
	DBPool        *pgxpool.Pool
	Redis         *redis.Client
	Queries       *db.Queries
	Devices       *devices.Service
	Usage         *usage.Service
	Software      *software.Service
	Wallpapers    *wallpapers.Service
	Logs          *logs.Service
	Blob          blob.Store
	Commands      commands.Publisher
	CommandQueue  *commands.Queue
	AdminAuth     *auth.AdminAuthenticator
	RateLimiter   *limits.RateLimiter
	DeviceLimit   limits.LimitConfig
	BulkSyncLimit limits.LimitConfig
	Idempotency   *cache.IdempotencyCache
	Observability *observability.Provider
	Health        *health.Monitor
}

// NewContainer builds a dependency container from the provided primitives.
func NewContainer(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if pool == nil {
		return nil, fmt.Errorf("db pool is required")
	}
	if redisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	queries := db.New(pool)

	obsProvider, err := observability.Setup(ctx, cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("setup observability: %w", err)
	}

	deviceSvc := devices.NewService(queries, devices.CacheConfig{
		Size: cfg.Devices.CacheSize,
		TTL:  cfg.Devices.CacheTTL,
	})

	usageSvc := usage.NewService(usage.NewPostgresStore(pool, queries), deviceSvc, usage.Config{
		MaxBatchRecords: cfg.Sync.MaxBatchRecords,
		MaxFutureSkew:   cfg.Sync.MaxFutureSkew,
		RetryAttempts:   cfg.Sync.RetryAttempts,
		RetryBackoff:    cfg.Sync.RetryBackoff,
	})
	usageSvc.SetMetrics(obsProvider)

	softwareSvc := software.NewService(queries, deviceSvc)
	if len(cfg.Software.Seed) > 0 {
		n, err := softwareSvc.Seed(ctx, cfg.Software.Seed)
		if err != nil {
			return nil, fmt.Errorf("seed software catalog: %w", err)
		}
		slog.Info("software catalog seeded", "entries", n)
	}

	publisher, err := commands.New(cfg.Commands.MQTT)
	if err != nil {
		return nil, fmt.Errorf("init command publisher: %w", err)
	}
	commandQueue := commands.NewQueue(queries)
	wallpaperSvc := wallpapers.NewService(queries, deviceSvc, commandQueue, publisher)

	blobStore, err := blob.New(ctx, cfg.Logs)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("init blob store: %w", err)
	}
	logSvc := logs.NewService(blobStore, deviceSvc, cfg.Logs.MaxSizeMB)

	adminAuth, err := auth.NewAdminAuthenticator(cfg.Admin.TokenHash)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("init admin auth: %w", err)
	}
	if !adminAuth.Enabled() {
		slog.Warn("admin api disabled; set admin.token_hash to enable it")
	}

	monitor := health.NewMonitor(cfg.Health)
	monitor.Register("postgres", pool.Ping)
	monitor.Register("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	monitor.Start(ctx)

	return &Container{
		Config:        cfg,
		DBPool:        pool,
		Redis:         redisClient,
		Queries:       queries,
		Devices:       deviceSvc,
		Usage:         usageSvc,
		Software:      softwareSvc,
		Wallpapers:    wallpaperSvc,
		Logs:          logSvc,
		Blob:          blobStore,
		Commands:      publisher,
		CommandQueue:  commandQueue,
		AdminAuth:     adminAuth,
		RateLimiter:   limits.NewRateLimiter(redisClient),
		DeviceLimit:   DeviceLimit(cfg.RateLimits),
		BulkSyncLimit: BulkSyncLimit(cfg.RateLimits),
		Idempotency:   cache.NewIdempotencyCache(redisClient, cfg.Sync.IdempotencyTTL),
		Observability: obsProvider,
		Health:        monitor,
	}, nil
}

// Close releases resources the container owns. The pool and redis client
// belong to the caller.
func (c *Container) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.Commands != nil {
		c.Commands.Close()
	}
	if c.Observability != nil {
		if err := c.Observability.Shutdown(ctx); err != nil {
			slog.Warn("observability shutdown", "error", err)
		}
	}
}
