package httputil

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/commands"
	"github.com/navgurukul/windows-rms-server/internal/limits"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
	"github.com/navgurukul/windows-rms-server/internal/services/logs"
	"github.com/navgurukul/windows-rms-server/internal/services/software"
	"github.com/navgurukul/windows-rms-server/internal/services/usage"
	"github.com/navgurukul/windows-rms-server/internal/services/wallpapers"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

const (
	// TransientRetryAfter is advertised to clients when storage is temporarily unavailable.
	TransientRetryAfter = 2
	// BusyRetryAfter is advertised when a concurrency limit is full.
	BusyRetryAfter = 1
)

// WriteError standardizes JSON error responses for both admin and public APIs.
func WriteError(c *fiber.Ctx, status int, msg string) error {
	if msg == "" {
		msg = http.StatusText(status)
		if msg == "" {
			msg = "unknown error"
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
	})
}

// WriteServiceError maps a service error onto its HTTP status. Unclassified
// errors are logged and reported as a generic 500.
func WriteServiceError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	switch status {
	case fiber.StatusTooManyRequests:
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(BusyRetryAfter))
	case fiber.StatusServiceUnavailable:
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(TransientRetryAfter))
		return WriteError(c, status, usage.ErrTransientStorage.Error())
	case fiber.StatusInternalServerError:
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
		return WriteError(c, status, "internal error")
	}
	return WriteError(c, status, err.Error())
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, usage.ErrValidation),
		errors.Is(err, timeutil.ErrInvalidDate),
		errors.Is(err, timeutil.ErrInvalidRange),
		errors.Is(err, devices.ErrInvalidInput),
		errors.Is(err, software.ErrInvalidInput),
		errors.Is(err, wallpapers.ErrInvalidInput),
		errors.Is(err, logs.ErrInvalidInput),
		errors.Is(err, commands.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, usage.ErrDeviceNotFound),
		errors.Is(err, devices.ErrNotFound),
		errors.Is(err, wallpapers.ErrNotAssigned),
		errors.Is(err, commands.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, devices.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, usage.ErrBatchTooLarge),
		errors.Is(err, logs.ErrTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, limits.ErrLimitExceeded):
		return fiber.StatusTooManyRequests
	case errors.Is(err, usage.ErrTransientStorage):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
