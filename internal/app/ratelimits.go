package app

import (
	"context"

	"github.com/navgurukul/windows-rms-server/internal/config"
	"github.com/navgurukul/windows-rms-server/internal/limits"
)

const bulkSyncSemaphoreKey = "bulk-sync"

// DeviceLimit is the per-client request budget for device-facing routes.
func DeviceLimit(cfg config.RateLimitConfig) limits.LimitConfig {
	return limits.LimitConfig{RequestsPerMinute: cfg.RequestsPerMinute}
}

// BulkSyncLimit caps concurrent bulk syncs across all replicas.
func BulkSyncLimit(cfg config.RateLimitConfig) limits.LimitConfig {
	return limits.LimitConfig{ParallelRequests: cfg.ParallelBulkSyncs}
}

// AcquireDeviceLimit counts one request from clientKey. No-op without a limiter.
func (c *Container) AcquireDeviceLimit(ctx context.Context, clientKey string) error {
	if c.RateLimiter == nil || c.DeviceLimit.RequestsPerMinute <= 0 {
		return nil
	}
	return c.RateLimiter.Allow(ctx, "client:"+clientKey, c.DeviceLimit)
}

// AcquireBulkSync takes a bulk-sync slot. The returned release func is always
// safe to call.
func (c *Container) AcquireBulkSync(ctx context.Context) (func(), error) {
	if c.RateLimiter == nil || c.BulkSyncLimit.ParallelRequests <= 0 {
		return func() {}, nil
	}
	if err := c.RateLimiter.Allow(ctx, bulkSyncSemaphoreKey, c.BulkSyncLimit); err != nil {
		return func() {}, err
	}
	return func() {
		c.RateLimiter.Release(context.WithoutCancel(ctx), bulkSyncSemaphoreKey, c.BulkSyncLimit)
	}, nil
}
