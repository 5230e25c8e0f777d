package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	defaultLockTTL        = time.Minute
)

// CachedResponse is a replayable HTTP response.
type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// IdempotencyCache stores responses keyed by client-supplied idempotency keys.
// A short-lived lock marks keys whose first request is still in flight.
type IdempotencyCache struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
}

func NewIdempotencyCache(client *redis.Client, ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyCache{client: client, ttl: ttl, lockTTL: defaultLockTTL}
}

// Lookup returns the stored response, or nil when the key has not completed.
func (c *IdempotencyCache) Lookup(ctx context.Context, key string) (*CachedResponse, error) {
	if c == nil || c.client == nil || key == "" {
		return nil, nil
	}
	data, err := c.client.Get(ctx, responseKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var resp CachedResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reserve claims the key for the current request. It reports false when another
// request holds the claim.
func (c *IdempotencyCache) Reserve(ctx context.Context, key string) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return true, nil
	}
	return c.client.SetNX(ctx, lockKey(key), 1, c.lockTTL).Result()
}

// Store saves the response and drops the claim.
func (c *IdempotencyCache) Store(ctx context.Context, key string, resp CachedResponse) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, responseKey(key), data, c.ttl)
	pipe.Del(ctx, lockKey(key))
	_, err = pipe.Exec(ctx)
	return err
}

// Release drops the claim without storing a response so the client may retry.
func (c *IdempotencyCache) Release(ctx context.Context, key string) {
	if c == nil || c.client == nil || key == "" {
		return
	}
	c.client.Del(ctx, lockKey(key))
}

func responseKey(key string) string { return "idem:resp:" + key }

func lockKey(key string) string { return "idem:lock:" + key }
