package store

import "sync"

// MemoryStore implements SeenStore without persistence. Marks vanish on
// restart, so previously handled entries would alert again.
type MemoryStore struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ids: make(map[string]struct{}),
	}
}

// Seen reports whether the id has been handled
func (s *MemoryStore) Seen(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.ids[id]
	return ok
}

// Mark records the id as handled
func (s *MemoryStore) Mark(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids[id] = struct{}{}
	return nil
}

// Len returns the number of recorded ids
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.ids)
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}
