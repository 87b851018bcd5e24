package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/motorpool/apiserver/config"
)

// Supported values of config.StorageConfig.Backend.
const (
	BackendNone  = "none"
	BackendMinio = "minio"
	BackendGCS   = "gcs"
)

var (
	// ErrObjectNotFound is returned by Get when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrDisabled is returned by every operation of a disabled Storage.
	ErrDisabled = errors.New("object storage is disabled")
)

// Object is an open stored object. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (Object, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}

// Storage wraps an ObjectStorage backend. A Storage without a backend is
// disabled and fails every operation with ErrDisabled.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// Open builds the backend selected by cfg.Backend and makes sure its bucket
// exists. Backend "none" yields a disabled Storage.
func Open(ctx context.Context, cfg config.StorageConfig) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendNone:
		return NewStorage(nil), nil
	case BackendMinio:
		backend, err = NewMinioClient(cfg.Minio)
	case BackendGCS:
		backend, err = NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewStorage(backend), nil
}

// Enabled reports whether a backend is configured.
func (s *Storage) Enabled() bool {
	return s != nil && s.backend != nil
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens a stored object.
func (s *Storage) Get(ctx context.Context, key string) (Object, error) {
	if !s.Enabled() {
		return Object{}, ErrDisabled
	}
	return s.backend.Get(ctx, key)
}

// Delete removes an object from the configured bucket.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	return s.backend.Delete(ctx, key)
}

// Bucket returns the configured bucket name, empty when disabled.
func (s *Storage) Bucket() string {
	if !s.Enabled() {
		return ""
	}
	return s.backend.Bucket()
}
