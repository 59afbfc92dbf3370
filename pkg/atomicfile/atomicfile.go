// Package atomicfile replaces files so that readers observe either the old
// or the new content, never a partial write.
package atomicfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile streams r into a temporary file next to path, fsyncs it and
// renames it over path. The temporary file is removed on any failure.
// It returns the number of bytes written.
func WriteFile(path string, r io.Reader, perm os.FileMode) (n int64, err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := f.Name()

	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if n, err = io.Copy(f, r); err != nil {
		return n, fmt.Errorf("write temp file: %w", err)
	}
	if err = f.Chmod(perm); err != nil {
		return n, fmt.Errorf("chmod temp file: %w", err)
	}
	if err = f.Sync(); err != nil {
		return n, fmt.Errorf("fsync temp file: %w", err)
	}
	if err = f.Close(); err != nil {
		return n, fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return n, fmt.Errorf("rename temp file: %w", err)
	}
	return n, nil
}

// Write is WriteFile for an in-memory payload.
func Write(path string, data []byte, perm os.FileMode) error {
	_, err := WriteFile(path, bytes.NewReader(data), perm)
	return err
}
