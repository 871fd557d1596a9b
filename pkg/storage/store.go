package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the capability interface for the remote blob store. All
// paths are bucket-relative. Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Put uploads the reader's contents to path, replacing any existing
	// object. Pass size -1 for a streaming body of unknown length.
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error

	// Get opens the object at path for chunked reading. The caller must close
	// the returned reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Deleting a missing object is not an
	// error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether an object is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// SignedURL returns a time-limited read URL for the object at path.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}
