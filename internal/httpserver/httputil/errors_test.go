package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/navgurukul/windows-rms-server/internal/commands"
	"github.com/navgurukul/windows-rms-server/internal/limits"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
	"github.com/navgurukul/windows-rms-server/internal/services/logs"
	"github.com/navgurukul/windows-rms-server/internal/services/usage"
	"github.com/navgurukul/windows-rms-server/internal/services/wallpapers"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&usage.ValidationError{Field: "serial_number", Reason: "required"}, fiber.StatusBadRequest},
		{fmt.Errorf("start_date: %w", timeutil.ErrInvalidDate), fiber.StatusBadRequest},
		{usage.ErrDeviceNotFound, fiber.StatusNotFound},
		{devices.ErrNotFound, fiber.StatusNotFound},
		{wallpapers.ErrNotAssigned, fiber.StatusNotFound},
		{commands.ErrNotFound, fiber.StatusNotFound},
		{fmt.Errorf("%w: command_id must be a UUID", commands.ErrInvalidInput), fiber.StatusBadRequest},
		{devices.ErrAlreadyExists, fiber.StatusConflict},
		{usage.ErrBatchTooLarge, fiber.StatusRequestEntityTooLarge},
		{logs.ErrTooLarge, fiber.StatusRequestEntityTooLarge},
		{limits.ErrLimitExceeded, fiber.StatusTooManyRequests},
		{fmt.Errorf("upsert: %w", usage.ErrTransientStorage), fiber.StatusServiceUnavailable},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, StatusFor(tc.err), tc.err.Error())
	}
}

func TestWriteServiceErrorTransientSetsRetryAfter(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return WriteServiceError(c, fmt.Errorf("lock: %w", usage.ErrTransientStorage))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "2", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestWriteServiceErrorLimitSetsRetryAfter(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return WriteServiceError(c, limits.ErrLimitExceeded)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "1", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestWriteServiceErrorHidesInternalDetail(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return WriteServiceError(c, errors.New("pq: password authentication failed"))
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	require.Equal(t, "internal error", body["error"])
}
