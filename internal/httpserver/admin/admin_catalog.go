package admin

import (
	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/public"
	"github.com/navgurukul/windows-rms-server/internal/services/software"
	"github.com/navgurukul/windows-rms-server/internal/services/wallpapers"
)

type softwareHandler struct {
	service *software.Service
}

type softwareRequest struct {
	SoftwareName string `json:"software_name"`
	WingetID     string `json:"winget_id"`
}

func registerAdminSoftwareRoutes(router fiber.Router, container *app.Container) {
	handler := &softwareHandler{service: container.Software}
	group := router.Group("/software")
	group.Get("/", handler.list)
	group.Post("/", handler.upsert)
}

func (h *softwareHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(fiber.Map{"software": public.ToSoftwareItems(items)})
}

func (h *softwareHandler) upsert(c *fiber.Ctx) error {
	var req softwareRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	item, err := h.service.Upsert(c.UserContext(), req.SoftwareName, req.WingetID)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(public.ToSoftwareItems([]software.Software{item})[0])
}

type wallpaperHandler struct {
	service *wallpapers.Service
}

type wallpaperRequest struct {
	DeviceID     int32  `json:"device_id"`
	SerialNumber string `json:"serial_number"`
	WallpaperURL string `json:"wallpaper_url"`
}

func registerAdminWallpaperRoutes(router fiber.Router, container *app.Container) {
	handler := &wallpaperHandler{service: container.Wallpapers}
	router.Post("/wallpapers", handler.assign)
}

func (h *wallpaperHandler) assign(c *fiber.Ctx) error {
	var req wallpaperRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	a, err := h.service.Assign(c.UserContext(), wallpapers.AssignInput{
		DeviceID:     req.DeviceID,
		SerialNumber: req.SerialNumber,
		URL:          req.WallpaperURL,
	})
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(public.ToWallpaperAssignment(a))
}
