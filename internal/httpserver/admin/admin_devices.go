package admin

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
)

type deviceHandler struct {
	service *devices.Service
}

type deviceRequest struct {
	Username     string `json:"username"`
	SerialNumber string `json:"serial_number"`
	MacAddress   string `json:"mac_address"`
	Location     string `json:"location"`
}

type deviceStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

type deviceResponse struct {
	ID           int32     `json:"id"`
	Username     string    `json:"username"`
	SerialNumber string    `json:"serial_number"`
	MacAddress   string    `json:"mac_address"`
	Location     string    `json:"location"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func registerAdminDeviceRoutes(router fiber.Router, container *app.Container) {
	handler := &deviceHandler{service: container.Devices}
	group := router.Group("/devices")
	group.Get("/", handler.list)
	group.Post("/", handler.register)
	group.Get("/serial/:serial", handler.getBySerial)
	group.Get("/:id", handler.get)
	group.Patch("/:id", handler.setActive)
}

func (h *deviceHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.QueryInt("limit", 0), c.QueryInt("offset", 0))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	out := make([]deviceResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toDeviceResponse(d))
	}
	return c.JSON(fiber.Map{"devices": out})
}

func (h *deviceHandler) register(c *fiber.Ctx) error {
	var req deviceRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	dev, err := h.service.Register(c.UserContext(), devices.RegisterInput{
		Username:     req.Username,
		SerialNumber: req.SerialNumber,
		MacAddress:   req.MacAddress,
		Location:     req.Location,
	})
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDeviceResponse(dev))
}

func (h *deviceHandler) get(c *fiber.Ctx) error {
	id, ok := parseDeviceID(c)
	if !ok {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid device id")
	}
	dev, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(toDeviceResponse(dev))
}

func (h *deviceHandler) getBySerial(c *fiber.Ctx) error {
	dev, err := h.service.GetBySerial(c.UserContext(), c.Params("serial"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(toDeviceResponse(dev))
}

func (h *deviceHandler) setActive(c *fiber.Ctx) error {
	id, ok := parseDeviceID(c)
	if !ok {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid device id")
	}
	var req deviceStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	if req.IsActive == nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "is_active is required")
	}
	dev, err := h.service.SetActive(c.UserContext(), id, *req.IsActive)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(toDeviceResponse(dev))
}

func toDeviceResponse(d devices.Device) deviceResponse {
	return deviceResponse{
		ID:           d.ID,
		Username:     d.Username,
		SerialNumber: d.SerialNumber,
		MacAddress:   d.MacAddress,
		Location:     d.Location,
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt,
	}
}
