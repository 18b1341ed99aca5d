package store

import (
	"context"
	"sync"

	"github.com/phrazzld/taskwatch/internal/task"
)

// MemoryStore is an in-process DurableStore. It survives only as long as the
// value itself, which makes it useful for tests that simulate a restart by
// handing the same MemoryStore to a fresh tracker.
type MemoryStore struct {
	mu        sync.RWMutex
	desc      task.Descriptor
	saved     bool
	saveCount int

	// SaveErr, when set, is returned by Save instead of persisting.
	SaveErr error
	// LoadErr, when set, is returned by Load.
	LoadErr error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith creates a MemoryStore that already holds d.
func NewMemoryStoreWith(d task.Descriptor) *MemoryStore {
	return &MemoryStore{desc: d.Clone(), saved: true}
}

// Load implements DurableStore.
func (s *MemoryStore) Load(ctx context.Context) (task.Descriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.LoadErr != nil {
		return task.Descriptor{}, s.LoadErr
	}
	if !s.saved {
		return task.Descriptor{}, ErrNotFound
	}
	return s.desc.Clone(), nil
}

// Save implements DurableStore.
func (s *MemoryStore) Save(ctx context.Context, d task.Descriptor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.desc = d.Clone()
	s.saved = true
	s.saveCount++
	return nil
}

// SaveCount returns how many successful saves have happened.
func (s *MemoryStore) SaveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveCount
}

// Snapshot returns the persisted descriptor without the not-found check.
func (s *MemoryStore) Snapshot() task.Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.desc.Clone()
}

var _ DurableStore = (*MemoryStore)(nil)
