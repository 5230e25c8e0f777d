package public

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
	"github.com/navgurukul/windows-rms-server/internal/services/logs"
	"github.com/navgurukul/windows-rms-server/internal/services/wallpapers"
)

type deviceHandler struct {
	container *app.Container
}

type logUploadRequest struct {
	SerialNumber string            `json:"serial_number"`
	Timestamp    string            `json:"timestamp"`
	Logs         []json.RawMessage `json:"logs"`
}

// LogObject is the JSON form of a stored log upload.
type LogObject struct {
	Key       string    `json:"key"`
	Size      int64     `json:"size"`
	Encrypted bool      `json:"encrypted"`
	StoredAt  time.Time `json:"stored_at"`
}

// WallpaperAssignment is the JSON form of a device's wallpaper.
type WallpaperAssignment struct {
	DeviceID     int32     `json:"device_id"`
	SerialNumber string    `json:"serial_number"`
	WallpaperID  int32     `json:"wallpaper_id"`
	WallpaperURL string    `json:"wallpaper_url"`
	CommandID    string    `json:"command_id,omitempty"`
	Delivered    bool      `json:"delivered"`
	AssignedAt   time.Time `json:"assigned_at"`
}

func (h *deviceHandler) uploadLogs(c *fiber.Ctx) error {
	var req logUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	obj, err := h.container.Logs.Upload(userContext(c), logs.Upload{
		SerialNumber: req.SerialNumber,
		Timestamp:    req.Timestamp,
		Lines:        req.Logs,
	})
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ToLogObject(obj))
}

func (h *deviceHandler) currentWallpaper(c *fiber.Ctx) error {
	a, err := h.container.Wallpapers.Current(userContext(c), c.Query("serial_number"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(ToWallpaperAssignment(a))
}

func ToLogObject(obj logs.Object) LogObject {
	return LogObject{Key: obj.Key, Size: obj.Size, Encrypted: obj.Encrypted, StoredAt: obj.StoredAt}
}

func ToWallpaperAssignment(a wallpapers.Assignment) WallpaperAssignment {
	return WallpaperAssignment{
		DeviceID:     a.DeviceID,
		SerialNumber: a.SerialNumber,
		WallpaperID:  a.WallpaperID,
		WallpaperURL: a.URL,
		CommandID:    a.CommandID,
		Delivered:    a.Delivered,
		AssignedAt:   a.AssignedAt,
	}
}
