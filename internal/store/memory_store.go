package store

import (
	"sync"

	"github.com/preston-bernstein/league-sim-service/internal/snapshots"
)

// MemoryStore keeps a thread-safe copy of the current league dataset.
type MemoryStore struct {
	mu      sync.RWMutex
	dataset snapshots.Dataset
	loaded  bool
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Current returns the active dataset and whether one has been loaded.
// Callers must treat the returned table as read-only; clone it before mutating.
func (s *MemoryStore) Current() (snapshots.Dataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset, s.loaded
}

// Version returns the active dataset version, or "" before the first load.
func (s *MemoryStore) Version() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset.Version
}

// Replace swaps in a new dataset and reports whether its version differs from the previous one.
func (s *MemoryStore) Replace(ds snapshots.Dataset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := !s.loaded || s.dataset.Version != ds.Version
	s.dataset = ds
	s.loaded = true
	return changed
}
