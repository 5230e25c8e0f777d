package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/public"
	"github.com/navgurukul/windows-rms-server/internal/services/logs"
	"github.com/navgurukul/windows-rms-server/internal/services/usage"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

type usageHandler struct {
	service *usage.Service
}

func registerAdminUsageRoutes(router fiber.Router, container *app.Container) {
	handler := &usageHandler{service: container.Usage}
	router.Get("/usage", handler.all)
}

// all lists buckets across the fleet, newest date first.
func (h *usageHandler) all(c *fiber.Ctx) error {
	r, err := timeutil.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	buckets, err := h.service.AllDailyUsage(c.UserContext(), r, c.QueryInt("limit", 0))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(fiber.Map{"usage": public.ToUsageDays(buckets)})
}

type logHandler struct {
	service *logs.Service
}

func registerAdminLogRoutes(router fiber.Router, container *app.Container) {
	handler := &logHandler{service: container.Logs}
	router.Get("/logs", handler.list)
}

func (h *logHandler) list(c *fiber.Ctx) error {
	date := c.Query("date")
	if date == "" {
		date = timeutil.FormatDate(time.Now().UTC())
	}
	items, err := h.service.List(c.UserContext(), c.Query("serial_number"), date)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	out := make([]public.LogObject, 0, len(items))
	for _, item := range items {
		out = append(out, public.ToLogObject(item))
	}
	return c.JSON(fiber.Map{"logs": out})
}
