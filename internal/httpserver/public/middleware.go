package public

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/cache"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
	"github.com/navgurukul/windows-rms-server/internal/limits"
)

const (
	idempotencyHeader       = "Idempotency-Key"
	idempotencyReplayHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLen    = 255
)

// clientRateLimit applies the per-IP request budget.
func clientRateLimit(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := container.AcquireDeviceLimit(userContext(c), c.IP())
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, limits.ErrLimitExceeded):
			retry := int(container.RateLimiter.RetryAfter().Seconds()) + 1
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retry))
			return httputil.WriteError(c, fiber.StatusTooManyRequests, err.Error())
		default:
			// fail open when redis is unavailable
			slog.Warn("rate limiter unavailable", "error", err)
			return c.Next()
		}
	}
}

// idempotent replays the stored response for a repeated Idempotency-Key so a
// client retrying after a lost response does not apply its deltas twice.
func idempotent(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(idempotencyHeader))
		if raw == "" || container.Idempotency == nil {
			return c.Next()
		}
		if len(raw) > maxIdempotencyKeyLen {
			return httputil.WriteError(c, fiber.StatusBadRequest, "Idempotency-Key too long")
		}
		key := c.Path() + ":" + raw
		ctx := userContext(c)

		cached, err := container.Idempotency.Lookup(ctx, key)
		if err != nil {
			slog.Warn("idempotency lookup failed", "error", err)
			return c.Next()
		}
		if cached != nil {
			return replay(c, cached)
		}

		ok, err := container.Idempotency.Reserve(ctx, key)
		if err != nil {
			slog.Warn("idempotency reserve failed", "error", err)
			return c.Next()
		}
		if !ok {
			return httputil.WriteError(c, fiber.StatusConflict, "a request with this Idempotency-Key is already in progress")
		}

		handlerErr := c.Next()
		storeCtx := context.WithoutCancel(ctx)
		status := c.Response().StatusCode()
		if handlerErr != nil || status >= fiber.StatusInternalServerError {
			container.Idempotency.Release(storeCtx, key)
			return handlerErr
		}
		resp := cache.CachedResponse{
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		}
		if err := container.Idempotency.Store(storeCtx, key, resp); err != nil {
			slog.Warn("idempotency store failed", "error", err)
			container.Idempotency.Release(storeCtx, key)
		}
		return nil
	}
}

func replay(c *fiber.Ctx, cached *cache.CachedResponse) error {
	c.Set(idempotencyReplayHeader, "true")
	if cached.ContentType != "" {
		c.Set(fiber.HeaderContentType, cached.ContentType)
	}
	return c.Status(cached.Status).Send(cached.Body)
}

func userContext(c *fiber.Ctx) context.Context {
	if c == nil {
		return context.Background()
	}
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}
