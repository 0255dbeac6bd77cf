package jugledger

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory, thread-safe Store. Contents are lost when the
// process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryStore creates a MemoryStore seeded with events.
func NewMemoryStore(events ...Event) *MemoryStore {
	s := &MemoryStore{}
	s.events = append(s.events, events...)
	return s
}

// Init implements Store.
func (s *MemoryStore) Init(_ context.Context) error {
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out, nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, events []Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make([]Event, len(events))
	copy(s.events, events)
	return nil
}

// Raw implements Store.
func (s *MemoryStore) Raw(ctx context.Context) ([]byte, error) {
	events, _ := s.Load(ctx)
	return renderCSV(events)
}
