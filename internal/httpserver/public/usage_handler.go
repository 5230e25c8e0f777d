package public

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/navgurukul/windows-rms-server/internal/app"
	"github.com/navgurukul/windows-rms-server/internal/httpserver/httputil"
	"github.com/navgurukul/windows-rms-server/internal/limits"
	"github.com/navgurukul/windows-rms-server/internal/services/usage"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

type usageHandler struct {
	container *app.Container
}

type syncResponse struct {
	TrackingID      int64  `json:"tracking_id"`
	TotalActiveTime int64  `json:"total_active_time"`
	DeviceID        int32  `json:"device_id"`
	Date            string `json:"date"`
}

type bulkSyncRequest struct {
	Records json.RawMessage `json:"records"`
}

type bulkSyncItem struct {
	Index           int    `json:"index"`
	Action          string `json:"action"`
	TrackingID      int64  `json:"tracking_id"`
	DeviceID        int32  `json:"device_id"`
	SerialNumber    string `json:"serial_number"`
	TotalActiveTime int64  `json:"total_active_time"`
	Date            string `json:"date"`
}

type bulkSyncSkip struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type bulkSyncResponse struct {
	Results   []bulkSyncItem `json:"results"`
	Skipped   []bulkSyncSkip `json:"skipped"`
	Processed int            `json:"processed"`
	Received  int            `json:"received"`
}

// UsageDay is the JSON form of one daily bucket.
type UsageDay struct {
	TrackingID      int64            `json:"tracking_id"`
	DeviceID        int32            `json:"device_id"`
	Date            string           `json:"date"`
	TotalActiveTime int64            `json:"total_active_time"`
	LastUpdated     time.Time        `json:"last_updated"`
	Latitude        *decimal.Decimal `json:"latitude"`
	Longitude       *decimal.Decimal `json:"longitude"`
	LocationName    *string          `json:"location_name"`
}

func (h *usageHandler) sync(c *fiber.Ctx) error {
	var payload usage.Payload
	if err := c.BodyParser(&payload); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}

	res, err := h.container.Usage.SyncOne(userContext(c), payload)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}

	status := fiber.StatusOK
	if res.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(syncResponse{
		TrackingID:      res.TrackingID,
		TotalActiveTime: res.TotalActiveTime,
		DeviceID:        res.DeviceID,
		Date:            timeutil.FormatDate(res.Date),
	})
}

func (h *usageHandler) bulkSync(c *fiber.Ctx) error {
	var req bulkSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid JSON payload")
	}
	raw := bytes.TrimSpace(req.Records)
	if len(raw) == 0 || raw[0] != '[' {
		return httputil.WriteError(c, fiber.StatusBadRequest, "records must be a non-empty list")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return httputil.WriteError(c, fiber.StatusBadRequest, "records must be a list of usage reports")
	}
	if len(elems) == 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "records must be a non-empty list")
	}
	if len(elems) > h.container.Usage.MaxBatchRecords() {
		return httputil.WriteServiceError(c, usage.ErrBatchTooLarge)
	}

	// a record that does not decode is skipped like any other invalid record
	records := make([]usage.Payload, len(elems))
	var rejected []usage.SkippedRecord
	for i, elem := range elems {
		p, err := usage.DecodePayload(elem)
		if err != nil {
			rejected = append(rejected, usage.SkippedRecord{Index: i, Reason: err.Error()})
			continue
		}
		records[i] = p
	}

	ctx := userContext(c)
	release, err := h.container.AcquireBulkSync(ctx)
	switch {
	case err == nil:
	case errors.Is(err, limits.ErrLimitExceeded):
		return httputil.WriteServiceError(c, err)
	default:
		slog.Warn("bulk sync limiter unavailable", "error", err)
	}
	defer release()

	res, err := h.container.Usage.SyncBatchWithRejects(ctx, records, rejected)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(toBulkSyncResponse(res))
}

func (h *usageHandler) daily(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Params("device_id")), 10, 32)
	if err != nil || id <= 0 {
		return httputil.WriteError(c, fiber.StatusBadRequest, "invalid device_id")
	}
	r, err := timeutil.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	buckets, err := h.container.Usage.DailyUsage(userContext(c), int32(id), r)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(ToUsageDays(buckets))
}

func (h *usageHandler) dailyBySerial(c *fiber.Ctx) error {
	r, err := timeutil.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	buckets, err := h.container.Usage.DailyUsageBySerial(userContext(c), c.Params("serial"), r)
	if err != nil {
		return httputil.WriteServiceError(c, err)
	}
	return c.JSON(ToUsageDays(buckets))
}

func toBulkSyncResponse(res usage.BatchResult) bulkSyncResponse {
	out := bulkSyncResponse{
		Results:   make([]bulkSyncItem, 0, len(res.Results)),
		Skipped:   make([]bulkSyncSkip, 0, len(res.Skipped)),
		Processed: res.Processed,
		Received:  res.Received,
	}
	for _, item := range res.Results {
		out.Results = append(out.Results, bulkSyncItem{
			Index:           item.Index,
			Action:          item.Action,
			TrackingID:      item.TrackingID,
			DeviceID:        item.DeviceID,
			SerialNumber:    item.SerialNumber,
			TotalActiveTime: item.TotalActiveTime,
			Date:            timeutil.FormatDate(item.Date),
		})
	}
	for _, skip := range res.Skipped {
		out.Skipped = append(out.Skipped, bulkSyncSkip{Index: skip.Index, Reason: skip.Reason})
	}
	return out
}

// ToUsageDays converts buckets to their JSON form. The result is never nil.
func ToUsageDays(buckets []usage.Bucket) []UsageDay {
	out := make([]UsageDay, 0, len(buckets))
	for _, b := range buckets {
		updated := b.UpdatedAt
		if updated.IsZero() {
			updated = b.LastReportAt
		}
		out = append(out, UsageDay{
			TrackingID:      b.TrackingID,
			DeviceID:        b.DeviceID,
			Date:            timeutil.FormatDate(b.Date),
			TotalActiveTime: b.TotalActiveTime,
			LastUpdated:     updated.UTC(),
			Latitude:        b.Latitude,
			Longitude:       b.Longitude,
			LocationName:    b.LocationName,
		})
	}
	return out
}
