// Package storage defines the interface for object storage operations.
// The MinIO implementation works with any S3-compatible provider.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectExists is returned by Upload when overwrite is false and the key is taken.
var ErrObjectExists = errors.New("object already exists")

// Object describes one stored object as returned by List.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Storage is the interface for uploading, listing and removing objects.
type Storage interface {
	// Upload streams data to the store under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, overwrite bool) error
	// Delete removes the objects identified by keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
	// PublicURL constructs the browser-accessible URL for a given key.
	PublicURL(key string) string
}
