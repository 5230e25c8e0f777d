package public

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/config"
)

func TestIdempotencyKeyReplaysResponse(t *testing.T) {
	env := newTestEnv(t, config.RateLimitConfig{})
	headers := map[string]string{idempotencyHeader: "req-1"}
	body := map[string]any{"serial_number": "SN-1", "active_time": 60}

	resp, first := env.do(t, "POST", "/sync", body, headers)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Empty(t, resp.Header.Get(idempotencyReplayHeader))

	resp, second := env.do(t, "POST", "/sync", body, headers)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get(idempotencyReplayHeader))
	require.JSONEq(t, string(first), string(second))

	resp, raw := env.do(t, "GET", "/usage/1", nil, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), `"total_active_time":60`)
}

func TestIdempotencyKeyInFlightConflict(t *testing.T) {
	env := newTestEnv(t, config.RateLimitConfig{})
	require.NoError(t, env.redis.Set("idem:lock:/sync:req-2", "1"))

	resp, _ := env.do(t, "POST", "/sync", map[string]any{"serial_number": "SN-1", "active_time": 1}, map[string]string{idempotencyHeader: "req-2"})
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestIdempotencyKeyStoresResponseAndClearsLock(t *testing.T) {
	env := newTestEnv(t, config.RateLimitConfig{})
	headers := map[string]string{idempotencyHeader: "req-3"}

	resp, _ := env.do(t, "POST", "/sync", map[string]any{"serial_number": "SN-1", "active_time": 1}, headers)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.True(t, env.redis.Exists("idem:resp:/sync:req-3"))
	require.False(t, env.redis.Exists("idem:lock:/sync:req-3"))
}

func TestClientRateLimit(t *testing.T) {
	env := newTestEnv(t, config.RateLimitConfig{RequestsPerMinute: 2})

	for i := 0; i < 2; i++ {
		resp, _ := env.do(t, "GET", "/usage/1", nil, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
	resp, _ := env.do(t, "GET", "/usage/1", nil, nil)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}
