package limits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

const (
	window       = time.Minute
	semaphoreTTL = 5 * time.Minute
)

type LimitConfig struct {
	RequestsPerMinute int
	ParallelRequests  int
}

// RateLimiter enforces fixed-window request counts and parallel-request
// semaphores in Redis so limits hold across server replicas.
type RateLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client, now: time.Now}
}

// Allow counts one request against key. When cfg.ParallelRequests is set, a
// successful call holds a slot that must be returned with Release.
func (l *RateLimiter) Allow(ctx context.Context, key string, cfg LimitConfig) error {
	if l == nil || l.client == nil {
		return nil
	}
	if cfg.RequestsPerMinute > 0 {
		if err := l.countCheck(ctx, fmt.Sprintf("rpm:%s", key), cfg.RequestsPerMinute); err != nil {
			return err
		}
	}
	if cfg.ParallelRequests > 0 {
		if err := l.semaphoreAcquire(ctx, fmt.Sprintf("sem:%s", key), cfg.ParallelRequests); err != nil {
			return err
		}
	}
	return nil
}

func (l *RateLimiter) Release(ctx context.Context, key string, cfg LimitConfig) {
	if l == nil || l.client == nil {
		return
	}
	if cfg.ParallelRequests > 0 {
		l.client.Decr(ctx, fmt.Sprintf("sem:%s", key))
	}
}

// RetryAfter is the time until the current request window resets.
func (l *RateLimiter) RetryAfter() time.Duration {
	now := time.Now()
	if l != nil && l.now != nil {
		now = l.now()
	}
	next := now.Truncate(window).Add(window)
	return next.Sub(now)
}

func (l *RateLimiter) countCheck(ctx context.Context, key string, limit int) error {
	bucket := l.now().UTC().Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("%s:%d", key, bucket)

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return err
	}
	if cnt == 1 {
		l.client.Expire(ctx, redisKey, window)
	}
	if int(cnt) > limit {
		return ErrLimitExceeded
	}
	return nil
}

func (l *RateLimiter) semaphoreAcquire(ctx context.Context, key string, max int) error {
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, semaphoreTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if int(incr.Val()) > max {
		l.client.Decr(ctx, key)
		return ErrLimitExceeded
	}
	return nil
}
