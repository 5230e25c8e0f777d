package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/navgurukul/windows-rms-server/internal/database"
	"github.com/navgurukul/windows-rms-server/internal/db"
)

const (
	StatusPending  = "pending"
	StatusExecuted = "executed"
)

var (
	ErrNotFound     = errors.New("command not found")
	ErrInvalidInput = errors.New("invalid command request")
)

type Queries interface {
	CreateCommand(ctx context.Context, arg db.CreateCommandParams) (db.Command, error)
	ListPendingCommands(ctx context.Context, deviceID int32) ([]db.Command, error)
	MarkCommandExecuted(ctx context.Context, id uuid.UUID) (db.Command, error)
}

// Record is a queued command with its delivery state.
type Record struct {
	Command
	DeviceID   int32
	Status     string
	ExecutedAt *time.Time
}

// Queue keeps commands until the device confirms it executed them. Devices
// that miss an MQTT push pick the command up by polling.
type Queue struct {
	queries Queries
	logger  *slog.Logger
}

func NewQueue(queries Queries) *Queue {
	return &Queue{queries: queries, logger: slog.Default()}
}

// Enqueue stores cmd as pending for the device. A missing command id is generated.
func (q *Queue) Enqueue(ctx context.Context, deviceID int32, cmd Command) (Record, error) {
	if deviceID <= 0 {
		return Record{}, fmt.Errorf("%w: device_id is required", ErrInvalidInput)
	}
	cmdType := strings.TrimSpace(cmd.Type)
	if cmdType == "" {
		return Record{}, fmt.Errorf("%w: command type is required", ErrInvalidInput)
	}
	id := uuid.New()
	if cmd.ID != "" {
		parsed, err := uuid.Parse(cmd.ID)
		if err != nil {
			return Record{}, fmt.Errorf("%w: command id must be a UUID", ErrInvalidInput)
		}
		id = parsed
	}
	payload := cmd.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Record{}, fmt.Errorf("encoding command data: %w", err)
	}

	row, err := q.queries.CreateCommand(ctx, db.CreateCommandParams{
		ID:          id,
		DeviceID:    deviceID,
		CommandType: cmdType,
		CommandData: data,
	})
	if err != nil {
		return Record{}, fmt.Errorf("create command: %w", err)
	}
	q.logger.Info("command queued", "command_id", id.String(), "device_id", deviceID, "type", cmdType)
	return recordFromRow(row)
}

// Pending lists the device's unexecuted commands, oldest first.
func (q *Queue) Pending(ctx context.Context, deviceID int32) ([]Record, error) {
	if deviceID <= 0 {
		return nil, fmt.Errorf("%w: device_id must be positive", ErrInvalidInput)
	}
	rows, err := q.queries.ListPendingCommands(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("list pending commands: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// MarkExecuted confirms delivery. Repeating it keeps the first executed_at.
func (q *Queue) MarkExecuted(ctx context.Context, commandID string) (Record, error) {
	id, err := uuid.Parse(strings.TrimSpace(commandID))
	if err != nil {
		return Record{}, fmt.Errorf("%w: command_id must be a UUID", ErrInvalidInput)
	}
	row, err := q.queries.MarkCommandExecuted(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("mark command executed: %w", err)
	}
	return recordFromRow(row)
}

func recordFromRow(row db.Command) (Record, error) {
	var payload map[string]any
	if len(row.CommandData) > 0 {
		if err := json.Unmarshal(row.CommandData, &payload); err != nil {
			return Record{}, fmt.Errorf("decoding command %s data: %w", row.ID, err)
		}
	}
	rec := Record{
		Command: Command{
			ID:       row.ID.String(),
			Type:     row.CommandType,
			Payload:  payload,
			IssuedAt: row.CreatedAt.Time.UTC(),
		},
		DeviceID: row.DeviceID,
		Status:   row.Status,
	}
	if row.ExecutedAt.Valid {
		at := row.ExecutedAt.Time.UTC()
		rec.ExecutedAt = &at
	}
	return rec, nil
}
