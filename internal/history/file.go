package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"PriceSentinel/internal/model"
)

// FileStore keeps the history in a local JSON file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store for path. The file is created on first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Location() string { return s.path }

// Load reads the history file. A missing or empty file is an empty history.
func (s *FileStore) Load(_ context.Context) (model.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewHistory(), nil
		}
		return nil, fmt.Errorf("read history %s: %w", s.path, err)
	}
	h, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", s.path, err)
	}
	return h, nil
}

// Save writes to a temporary file in the same directory and renames it over
// the target, so readers see either the old or the new document.
func (s *FileStore) Save(_ context.Context, h model.History) error {
	data, err := Encode(h)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history %s: %w", s.path, err)
	}
	return nil
}
