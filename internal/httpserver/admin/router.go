package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
)

// Register wires up all /admin routes behind the admin bearer token.
func Register(router fiber.Router, container *app.Container) {
	protected := router.Group("/admin", adminAuthMiddleware(container))
	registerAdminDeviceRoutes(protected, container)
	registerAdminSoftwareRoutes(protected, container)
	registerAdminWallpaperRoutes(protected, container)
	registerAdminUsageRoutes(protected, container)
	registerAdminLogRoutes(protected, container)
}
