package notify

import (
	"context"
	"sync"
)

// DefaultMemoryLimit is how many notifications a MemoryStore keeps.
const DefaultMemoryLimit = 200

// MemoryStore keeps the most recent notifications of a session in memory. It
// stands in for the sqlite store when database.history is off. Safe for
// concurrent use.
type MemoryStore struct {
	limit int

	mu     sync.Mutex
	items  []Notification // oldest first
	nextID int64
}

// NewMemoryStore returns a store holding at most limit notifications. A
// non-positive limit uses DefaultMemoryLimit.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = DefaultMemoryLimit
	}
	return &MemoryStore{limit: limit}
}

func (s *MemoryStore) Save(_ context.Context, n Notification) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	n.ID = s.nextID
	s.items = append(s.items, n)
	if over := len(s.items) - s.limit; over > 0 {
		s.items = s.items[over:]
	}
	return n.ID, nil
}

// List returns the notifications newest first.
func (s *MemoryStore) List(_ context.Context) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notification, len(s.items))
	for i, n := range s.items {
		out[len(s.items)-1-i] = n
	}
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.items)), nil
}
