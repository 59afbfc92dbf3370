// Package disk stores product images as static files below a public
// directory.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/utafrali/catalog/internal/storage"
	"github.com/utafrali/catalog/pkg/atomicfile"
	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/tracing"
)

const (
	tracerName = "github.com/utafrali/catalog/internal/storage/disk"
	filePerm   = 0o644
	dirPerm    = 0o755
)

// Store implements storage.ImageStore on the local filesystem.
type Store struct {
	dir     string
	baseURL string
	logger  *slog.Logger
}

var _ storage.ImageStore = (*Store)(nil)

// New creates a store writing into dir whose files are reachable under
// baseURL.
func New(dir, baseURL string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Dir returns the directory images are written to.
func (s *Store) Dir() string { return s.dir }

// Init creates the image directory.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return apperrors.StorageWrite(s.dir, err)
	}
	return nil
}

// Save atomically writes data to <dir>/<fileName>.
func (s *Store) Save(ctx context.Context, fileName string, data io.Reader) (url string, err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "disk.save")
	span.SetAttributes(attribute.String("storage.file_name", fileName))
	defer func() { tracing.EndSpan(span, err) }()

	path, err := s.path(fileName)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, dirPerm); err != nil {
		return "", apperrors.StorageWrite(path, err)
	}

	n, err := atomicfile.WriteFile(path, data, filePerm)
	if err != nil {
		return "", apperrors.StorageWrite(path, err)
	}
	span.SetAttributes(attribute.Int64("storage.bytes", n))

	s.logger.DebugContext(ctx, "image stored",
		slog.String("file_name", fileName),
		slog.Int64("bytes", n),
	)
	return s.URL(fileName), nil
}

// Delete removes <dir>/<fileName>.
func (s *Store) Delete(ctx context.Context, fileName string) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "disk.delete")
	span.SetAttributes(attribute.String("storage.file_name", fileName))
	defer func() { tracing.EndSpan(span, err) }()

	path, err := s.path(fileName)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return apperrors.StorageWrite(path, err)
	}
	return nil
}

// URL returns the public URL of fileName.
func (s *Store) URL(fileName string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, fileName)
}

func (s *Store) path(fileName string) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) || strings.HasPrefix(fileName, ".") {
		return "", apperrors.InvalidInput(fmt.Sprintf("invalid image file name %q", fileName))
	}
	return filepath.Join(s.dir, fileName), nil
}
