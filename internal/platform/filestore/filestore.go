// Package filestore persists the task descriptor as a JSON document on local
// disk. Writes go to a temporary file in the same directory which is then
// renamed over the target, so a crash never leaves a half-written snapshot.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/phrazzld/taskwatch/internal/store"
	"github.com/phrazzld/taskwatch/internal/task"
)

const backendName = "file"

// Store implements store.DurableStore on top of a single JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

// New creates a Store writing to path. The parent directory is created on
// first save if needed.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, store.NewStoreError(backendName, "open", "path cannot be empty", nil)
	}
	return &Store{path: path}, nil
}

// Path returns the snapshot location.
func (s *Store) Path() string {
	return s.path
}

// Load implements store.DurableStore.
func (s *Store) Load(ctx context.Context) (task.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return task.Descriptor{}, store.ErrNotFound
		}
		return task.Descriptor{}, store.NewStoreError(backendName, "load", "failed to read snapshot", err)
	}

	var d task.Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return task.Descriptor{}, store.NewStoreError(backendName, "load", "failed to decode snapshot",
			fmt.Errorf("%w: %v", store.ErrCorruptSnapshot, err))
	}
	return d, nil
}

// Save implements store.DurableStore.
func (s *Store) Save(ctx context.Context, d task.Descriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return store.NewStoreError(backendName, "save", "failed to encode snapshot", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.NewStoreError(backendName, "save", "failed to create directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return store.NewStoreError(backendName, "save", "failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return store.NewStoreError(backendName, "save", "failed to write snapshot", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return store.NewStoreError(backendName, "save", "failed to sync snapshot", err)
	}
	if err := tmp.Close(); err != nil {
		return store.NewStoreError(backendName, "save", "failed to close snapshot", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return store.NewStoreError(backendName, "save", "failed to replace snapshot", err)
	}
	return nil
}

var _ store.DurableStore = (*Store)(nil)
