package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"devlink/internal/domain"
)

// FileStore keeps each key in its own file under dir, written atomically.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir, creating it with 0700 if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// Get reads the value stored under key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return readFile(s.path(key))
}

// Set replaces the value stored under key.
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return writeFile(s.path(key), value, 0o600)
}

// Remove deletes key; removing an absent key succeeds.
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return removeFile(s.path(key))
}

// path maps a logical key such as "device/local" to "device_local.json".
func (s *FileStore) path(key string) string {
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(s.dir, name+".json")
}

// Compile-time assertion that FileStore implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*FileStore)(nil)
