package public

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
	"github.com/navgurukul/windows-rms-server/internal/services/software"
)

type softwareHandler struct {
	container *app.Container
}

// SoftwareItem is the JSON form of a catalog entry.
type SoftwareItem struct {
	ID        int32     `json:"id"`
	Name      string    `json:"software_name"`
	WingetID  string    `json:"winget_id"`
	CreatedAt time.Time `json:"created_at"`
}

type installRequest struct {
	SerialNumber string `json:"serial_number"`
	SoftwareName string `json:"software_name"`
	IsSuccessful *bool  `json:"is_successful"`
}

type installItem struct {
	ID           int32     `json:"id"`
	DeviceID     int32     `json:"device_id"`
	SoftwareName string    `json:"software_name"`
	IsSuccessful bool      `json:"is_successful"`
	CreatedAt    time.Time `json:"created_at"`
}

func (h *softwareHandler) pending(c *fiber.Ctx) error {
	items, err := h.container.Software.Pending(userContext(c), c.Query("serial_number"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(ToSoftwareItems(items))
}

func (h *softwareHandler) recordInstall(c *fiber.Ctx) error {
	var req installRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	if req.IsSuccessful == nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "is_successful is required")
	}
	install, err := h.container.Software.RecordInstall(userContext(c), req.SerialNumber, req.SoftwareName, *req.IsSuccessful)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toInstallItem(install))
}

func (h *softwareHandler) history(c *fiber.Ctx) error {
	installs, err := h.container.Software.History(userContext(c), c.Params("serial_number"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	out := make([]installItem, 0, len(installs))
	for _, in := range installs {
		out = append(out, toInstallItem(in))
	}
	return c.JSON(out)
}

// ToSoftwareItems converts catalog entries to their JSON form.
func ToSoftwareItems(items []software.Software) []SoftwareItem {
	out := make([]SoftwareItem, 0, len(items))
	for _, s := range items {
		out = append(out, SoftwareItem{ID: s.ID, Name: s.Name, WingetID: s.WingetID, CreatedAt: s.CreatedAt})
	}
	return out
}

func toInstallItem(in software.Install) installItem {
	return installItem{
		ID:           in.ID,
		DeviceID:     in.DeviceID,
		SoftwareName: in.SoftwareName,
		IsSuccessful: in.Successful,
		CreatedAt:    in.CreatedAt,
	}
}
