package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/commands"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
)

type commandHandler struct {
	container *app.Container
}

// DeviceCommand is the JSON form of a queued command.
type DeviceCommand struct {
	ID          string         `json:"id"`
	DeviceID    int32          `json:"device_id"`
	CommandType string         `json:"command_type"`
	CommandData map[string]any `json:"command_data"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ExecutedAt  *time.Time     `json:"executed_at"`
}

func (h *commandHandler) pending(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Params("device_id")), 10, 32)
	if err != nil || id <= 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid device_id")
	}
	records, err := h.container.CommandQueue.Pending(userContext(c), int32(id))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	out := make([]DeviceCommand, 0, len(records))
	for _, rec := range records {
		out = append(out, ToDeviceCommand(rec))
	}
	return c.JSON(out)
}

func (h *commandHandler) markExecuted(c *fiber.Ctx) error {
	rec, err := h.container.CommandQueue.MarkExecuted(userContext(c), c.Params("command_id"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(ToDeviceCommand(rec))
}

func ToDeviceCommand(rec commands.Record) DeviceCommand {
	data := rec.Payload
	if data == nil {
		data = map[string]any{}
	}
	return DeviceCommand{
		ID:          rec.ID,
		DeviceID:    rec.DeviceID,
		CommandType: rec.Type,
		CommandData: data,
		Status:      rec.Status,
		CreatedAt:   rec.IssuedAt,
		ExecutedAt:  rec.ExecutedAt,
	}
}
