package emergency

import (
	"context"
	"sync"
)

// Store persists the latch state. Implementations must be strongly
// consistent: a Save observed by one gateway instance is observed by all.
type Store interface {
	// Load returns the current state. A store that has never been written
	// returns the zero State and no error.
	Load(ctx context.Context) (State, error)

	// Save replaces the current state.
	Save(ctx context.Context, s State) error
}

// MemoryStore is an in-process Store for tests and single-instance
// deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	state State
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *MemoryStore) Save(ctx context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}
