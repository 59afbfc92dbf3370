package storage

import (
	"context"
	"io"
)

// ImageStore defines the interface for product image storage.
type ImageStore interface {
	// Save writes data under fileName, replacing any existing file with the
	// same name, and returns the public URL of the stored file.
	Save(ctx context.Context, fileName string, data io.Reader) (string, error)

	// Delete removes the file stored under fileName. A missing file is not
	// an error.
	Delete(ctx context.Context, fileName string) error
}
