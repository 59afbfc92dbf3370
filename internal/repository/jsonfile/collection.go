package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/utafrali/catalog/pkg/atomicfile"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// Options configures a Collection. All fields are optional.
type Options struct {
	Metrics       *Metrics
	Logger        *slog.Logger
	SlowThreshold time.Duration
}

// Collection is an ordered sequence of records persisted as one JSON array
// document. Every read takes the collection's read lock and every
// load-modify-save cycle holds its write lock, so writers never overwrite
// each other's changes.
type Collection[T any] struct {
	name string
	path string

	mu sync.RWMutex

	metrics       *Metrics
	logger        *slog.Logger
	slowThreshold time.Duration
}

// NewCollection creates a collection named name stored at path.
func NewCollection[T any](name, path string, opts Options) *Collection[T] {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Collection[T]{
		name:          name,
		path:          path,
		metrics:       opts.Metrics,
		logger:        l,
		slowThreshold: opts.SlowThreshold,
	}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Path returns the document path.
func (c *Collection[T]) Path() string { return c.path }

// Init creates the parent directory and an empty document when none exists.
// An existing document is left untouched.
func (c *Collection[T]) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(c.path), dirPerm); err != nil {
		return apperrors.StorageWrite(c.path, err)
	}

	_, err := os.Stat(c.path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		if err := c.save(ctx, nil); err != nil {
			return err
		}
		c.logger.InfoContext(ctx, "collection document created",
			slog.String("collection", c.name),
			slog.String("path", c.path),
		)
		return nil
	default:
		return apperrors.StorageRead(c.path, err)
	}
}

// Load reads and decodes the whole document. A missing or malformed
// document is an error matching apperrors.ErrStorageRead.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load(ctx)
}

// Save replaces the whole document with records.
func (c *Collection[T]) Save(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.save(ctx, records)
}

// View loads the document under the read lock and passes it to fn.
func (c *Collection[T]) View(ctx context.Context, fn func([]T) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	return fn(records)
}

// Update loads the document, lets fn compute the new sequence and saves it,
// all under the write lock. When fn fails nothing is written and its error
// is returned unchanged.
func (c *Collection[T]) Update(ctx context.Context, fn func([]T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	return c.save(ctx, next)
}

// Ping reports whether the document can be read and decoded.
func (c *Collection[T]) Ping(ctx context.Context) error {
	_, err := c.Load(ctx)
	return err
}

func (c *Collection[T]) load(ctx context.Context) (records []T, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, done := c.traceOp(ctx, "load")
	defer func() { done(len(records), err) }()

	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, apperrors.StorageRead(c.path, err)
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.StorageRead(c.path, fmt.Errorf("decode %s collection: %w", c.name, err))
	}
	if records == nil {
		records = []T{}
	}

	c.logger.DebugContext(ctx, "collection loaded",
		slog.String("collection", c.name),
		slog.Int("records", len(records)),
	)
	return records, nil
}

func (c *Collection[T]) save(ctx context.Context, records []T) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, done := c.traceOp(ctx, "save")
	defer func() { done(len(records), err) }()

	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.StorageWrite(c.path, fmt.Errorf("encode %s collection: %w", c.name, err))
	}
	if err := atomicfile.Write(c.path, data, filePerm); err != nil {
		return apperrors.StorageWrite(c.path, err)
	}
	return nil
}
