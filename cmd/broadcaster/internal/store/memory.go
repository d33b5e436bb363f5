package store

import (
	"sync"

	"github.com/twoChar/Yebelo-Technologies-assignment-1/pkg/models"
)

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// MemoryStore is the default in-process backend. Entries persist for the
// process lifetime; size is bounded by the number of distinct tokens.
type MemoryStore struct {
	mu     sync.RWMutex
	latest map[string]models.Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{latest: make(map[string]models.Event)}
}

func (s *MemoryStore) Upsert(ev models.Event) error {
	s.mu.Lock()
	s.latest[ev.Token] = ev
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Snapshot() ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Event, 0, len(s.latest))
	for _, ev := range s.latest {
		out = append(out, ev)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
