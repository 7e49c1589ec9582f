// Package blob is the media attachment store. The chat core keeps only the
// returned references; the bytes live in an S3-compatible object store.
package blob

import "context"

// Store is the narrow blob interface the core consumes.
type Store interface {
	// Put uploads bytes and returns the stable URL to reference them by.
	Put(ctx context.Context, data []byte, contentType, filename string) (string, error)

	// Exists reports whether the blob behind a previously returned URL is
	// still there.
	Exists(ctx context.Context, url string) (bool, error)

	Delete(ctx context.Context, url string) error
}
