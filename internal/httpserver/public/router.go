package public

import (
	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
)

// Register wires up the device-facing routes.
func Register(router fiber.Router, container *app.Container) {
	group := router.Group("", clientRateLimit(container))

	usageHandler := &usageHandler{container: container}
	group.Post("/sync", idempotent(container), usageHandler.sync)
	group.Post("/bulk-sync", idempotent(container), usageHandler.bulkSync)
	group.Get("/usage/serial/:serial", usageHandler.dailyBySerial)
	group.Get("/usage/:device_id", usageHandler.daily)

	softwareHandler := &softwareHandler{container: container}
	group.Get("/software/pending", softwareHandler.pending)
	group.Post("/software/history", softwareHandler.recordInstall)
	group.Get("/software/history/:serial_number", softwareHandler.history)

	deviceHandler := &deviceHandler{container: container}
	group.Post("/logs", deviceHandler.uploadLogs)
	group.Get("/wallpaper", deviceHandler.currentWallpaper)

	commandHandler := &commandHandler{container: container}
	group.Get("/commands/:device_id", commandHandler.pending)
	group.Put("/commands/:command_id/executed", commandHandler.markExecuted)
}
