package logs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/navgurukul/windows-rms-server/internal/services/devices"
	"github.com/navgurukul/windows-rms-server/internal/storage/blob"
	"github.com/navgurukul/windows-rms-server/internal/timeutil"
)

const (
	keyPrefix       = "logs"
	contentType     = "application/x-ndjson"
	defaultMaxBytes = 5 << 20
)

var (
	ErrInvalidInput = errors.New("invalid log upload")
	ErrTooLarge     = errors.New("log upload too large")
)

type DeviceLookup interface {
	Lookup(ctx context.Context, serial string) (int32, error)
}

type Upload struct {
	SerialNumber string
	Timestamp    string
	Lines        []json.RawMessage
}

type Object struct {
	Key       string
	Size      int64
	Encrypted bool
	StoredAt  time.Time
}

// Service stores device log uploads as JSONL objects keyed
// logs/{date}/{serial}/{uuid}.jsonl.
type Service struct {
	store    blob.Store
	devices  DeviceLookup
	maxBytes int64
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(store blob.Store, devices DeviceLookup, maxSizeMB int) *Service {
	maxBytes := int64(maxSizeMB) << 20
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &Service{store: store, devices: devices, maxBytes: maxBytes, logger: slog.Default(), now: time.Now}
}

func (s *Service) Upload(ctx context.Context, in Upload) (Object, error) {
	serial, err := cleanSerial(in.SerialNumber)
	if err != nil {
		return Object{}, err
	}
	if len(in.Lines) == 0 {
		return Object{}, fmt.Errorf("%w: logs must contain at least one entry", ErrInvalidInput)
	}
	at := s.now().UTC()
	if ts := strings.TrimSpace(in.Timestamp); ts != "" {
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return Object{}, fmt.Errorf("%w: timestamp must be RFC3339", ErrInvalidInput)
		}
		at = parsed.UTC()
	}
	if _, err := s.devices.Lookup(ctx, serial); err != nil {
		if errors.Is(err, devices.ErrNotFound) {
			return Object{}, devices.ErrNotFound
		}
		return Object{}, fmt.Errorf("lookup device: %w", err)
	}

	var buf bytes.Buffer
	for i, line := range in.Lines {
		if !json.Valid(line) {
			return Object{}, fmt.Errorf("%w: logs[%d] is not valid JSON", ErrInvalidInput, i)
		}
		if err := json.Compact(&buf, line); err != nil {
			return Object{}, fmt.Errorf("%w: logs[%d]: %v", ErrInvalidInput, i, err)
		}
		buf.WriteByte('\n')
		if int64(buf.Len()) > s.maxBytes {
			return Object{}, ErrTooLarge
		}
	}

	key := path.Join(keyPrefix, timeutil.FormatDate(at), serial, uuid.NewString()+".jsonl")
	info, err := s.store.Put(ctx, key, &buf, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"serial-number": serial, "entries": fmt.Sprint(len(in.Lines))},
	})
	if err != nil {
		return Object{}, fmt.Errorf("store logs: %w", err)
	}
	s.logger.Info("device logs stored", "serial_number", serial, "key", key, "entries", len(in.Lines))
	return Object{Key: key, Size: info.Size, Encrypted: info.Encrypted, StoredAt: s.now().UTC()}, nil
}

// List returns stored uploads for a device on one UTC date.
func (s *Service) List(ctx context.Context, serial, date string) ([]Object, error) {
	serial, err := cleanSerial(serial)
	if err != nil {
		return nil, err
	}
	day, err := timeutil.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	prefix := path.Join(keyPrefix, timeutil.FormatDate(day), serial) + "/"
	items, err := s.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	out := make([]Object, 0, len(items))
	for _, item := range items {
		out = append(out, Object{Key: item.Key, Size: item.Size, Encrypted: item.Encrypted, StoredAt: item.LastModified})
	}
	return out, nil
}

func cleanSerial(serial string) (string, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return "", fmt.Errorf("%w: serial_number is required", ErrInvalidInput)
	}
	if strings.ContainsAny(serial, `/\`) || serial == "." || serial == ".." {
		return "", fmt.Errorf("%w: serial_number contains invalid characters", ErrInvalidInput)
	}
	return serial, nil
}
