package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotOwned is returned when a URL does not point into the backend.
var ErrNotOwned = errors.New("url does not belong to this storage")

// Storage defines the minimal interface for file storage backends.
type Storage interface {
	// Put stores a file under key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes a file by key. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a key.
	GetURL(key string) string

	// KeyFromURL reverses GetURL, returning ErrNotOwned for foreign URLs.
	KeyFromURL(url string) (string, error)
}

// Config selects and configures the storage backend.
type Config struct {
	Driver string // s3 or local

	LocalPath string
	LocalURL  string

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

// New builds the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	if cfg.Driver == "s3" {
		return NewS3Storage(ctx, cfg)
	}
	return NewLocalStorage(cfg.LocalPath, cfg.LocalURL)
}
