package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/auth"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
)

const adminAuthHeaderPrefix = "bearer "

func adminAuthMiddleware(container *app.Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		token := ""
		if raw != "" && strings.HasPrefix(strings.ToLower(raw), adminAuthHeaderPrefix) {
			token = strings.TrimSpace(raw[len(adminAuthHeaderPrefix):])
		}
		if token == "" {
			return httputil.WriteError(c, fiber.StatusUnauthorized, "admin authorization required")
		}

		err := container.AdminAuth.Authenticate(token)
		switch {
		case err == nil:
			return c.Next()
		case errors.Is(err, auth.ErrAdminDisabled):
			return httputil.WriteError(c, fiber.StatusServiceUnavailable, err.Error())
		case errors.Is(err, auth.ErrUnauthorized):
			return httputil.WriteError(c, fiber.StatusUnauthorized, "invalid admin token")
		default:
			return httputil.WriteError(c, fiber.StatusInternalServerError, "admin token verification failed")
		}
	}
}

func parseDeviceID(c *fiber.Ctx) (int32, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Params("id")), 10, 32)
	if err != nil || id <= 0 {
		return 0, false
	}
	return int32(id), true
}
