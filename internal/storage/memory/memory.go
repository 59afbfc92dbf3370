package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/utafrali/catalog/internal/storage"
)

// Store implements storage.ImageStore using an in-memory map.
// It is used by tests that do not need files on disk.
type Store struct {
	mu      sync.RWMutex
	files   map[string][]byte
	baseURL string
}

var _ storage.ImageStore = (*Store)(nil)

// New creates a new in-memory store.
func New(baseURL string) *Store {
	return &Store{
		files:   make(map[string][]byte),
		baseURL: baseURL,
	}
}

// Save keeps a copy of data under fileName and returns the generated URL.
func (s *Store) Save(ctx context.Context, fileName string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", fmt.Errorf("read image data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileName] = b

	return fmt.Sprintf("%s/%s", s.baseURL, fileName), nil
}

// Delete forgets fileName.
func (s *Store) Delete(_ context.Context, fileName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.files, fileName)
	return nil
}

// Get returns the bytes stored under fileName.
func (s *Store) Get(fileName string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.files[fileName]
	return b, ok
}

// Len returns the number of stored files.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
