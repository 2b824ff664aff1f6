package storage

import (
	"context"
	"io"
)

// FileStorage is the object store used for uploaded files.
type FileStorage interface {
	// Upload stores the content under path and returns the stored key.
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Delete removes a stored object. Missing objects are not an error.
	Delete(ctx context.Context, path string) error

	// PublicURL returns the URL clients use to fetch a stored key.
	PublicURL(path string) string
}
