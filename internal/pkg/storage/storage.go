package storage

import (
	"context"
	"errors"
	"io"
)

var ErrNotFound = errors.New("stored file not found")

// Storage defines the interface for file storage operations.
// Paths are relative and slash separated.
type Storage interface {
	Save(ctx context.Context, path string, content io.Reader) error
	// Get returns ErrNotFound when nothing is stored at path.
	Get(ctx context.Context, path string) (io.ReadCloser, error)
	// Delete is a no-op for missing paths.
	Delete(ctx context.Context, path string) error
}
