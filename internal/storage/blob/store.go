package blob

import (
	"context"
	"errors"
	"io"
	"maps"
	"strings"
	"time"

	"github.com/navgurukul/windows-rms-server/internal/config"
)

var ErrNotFound = errors.New("blob not found")

type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	Metadata     map[string]string
	Encrypted    bool
	LastModified time.Time
}

// Store is an object store addressed by slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (ObjectInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// List returns objects whose key starts with prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

type store struct {
	backend   Store
	encryptor *encryptor
}

// New builds the configured backend (local or s3), wrapped with at-rest
// encryption when logs.encryption_key is set.
func New(ctx context.Context, cfg config.LogsConfig) (Store, error) {
	backend, err := buildBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	enc, err := newEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return &store{backend: backend, encryptor: enc}, nil
}

func buildBackend(ctx context.Context, cfg config.LogsConfig) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Storage)) {
	case "s3":
		return newS3Store(ctx, cfg.S3)
	default:
		return newLocalStore(cfg.Local)
	}
}

func (s *store) Put(ctx context.Context, key string, body io.Reader, opts PutOptions) (ObjectInfo, error) {
	if s.encryptor == nil {
		return s.backend.Put(ctx, key, body, opts)
	}
	encReader, meta, err := s.encryptor.encrypt(key, body)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := s.backend.Put(ctx, key, encReader, PutOptions{
		ContentType: opts.ContentType,
		Metadata:    mergeMetadata(opts.Metadata, meta),
	})
	if err != nil {
		return ObjectInfo{}, err
	}
	info.Encrypted = true
	return info, nil
}

func (s *store) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	reader, info, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	if !isEncrypted(info.Metadata) {
		return reader, info, nil
	}
	if s.encryptor == nil {
		reader.Close()
		return nil, ObjectInfo{}, errors.New("blob is encrypted but no encryption key is configured")
	}
	defer reader.Close()
	decReader, size, err := s.encryptor.decrypt(key, reader)
	if err != nil {
		return nil, ObjectInfo{}, err
	}
	info.Size = size
	info.Encrypted = true
	return decReader, info, nil
}

func (s *store) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	items, err := s.backend.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Encrypted = isEncrypted(items[i].Metadata)
	}
	return items, nil
}

func (s *store) Delete(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, key)
}

func mergeMetadata(a, b map[string]string) map[string]string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	merged := make(map[string]string, len(a)+len(b))
	maps.Copy(merged, a)
	maps.Copy(merged, b)
	return merged
}

func isEncrypted(meta map[string]string) bool {
	_, ok := meta[encryptionMetadataKey]
	return ok
}
