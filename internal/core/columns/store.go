// Package columns tracks which dataset columns the grid renders.
package columns

import "sync"

// Spec is the visibility of a single column.
type Spec struct {
	Key     string
	Visible bool
}

// Store maps every known column key to a visible flag. Keys keep the order in
// which they were first seen. The store is session-scoped and never persisted.
type Store struct {
	mu      sync.RWMutex
	keys    []string
	visible map[string]bool
}

// NewStore creates a store with every key visible.
func NewStore(keys ...string) *Store {
	s := &Store{visible: make(map[string]bool, len(keys))}
	s.Sync(keys)
	return s
}

// Sync registers keys not seen before as visible. Existing entries are left
// untouched and keys are never removed.
func (s *Store) Sync(keys []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		if _, ok := s.visible[k]; ok {
			continue
		}
		s.keys = append(s.keys, k)
		s.visible[k] = true
	}
}

// Toggle flips the visibility of key. Unknown keys are ignored.
func (s *Store) Toggle(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.visible[key]; ok {
		s.visible[key] = !v
	}
}

// Reset makes every known column visible again.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		s.visible[k] = true
	}
}

// IsVisible reports whether key renders. Keys the store has not seen yet
// default to visible.
func (s *Store) IsVisible(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visible[key]
	return !ok || v
}

// Keys returns every known key in first-seen order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Visible returns the visible keys in first-seen order.
func (s *Store) Visible() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.keys))
	for _, k := range s.keys {
		if s.visible[k] {
			out = append(out, k)
		}
	}
	return out
}

// Specs returns a copy of every column spec.
func (s *Store) Specs() []Spec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Spec, len(s.keys))
	for i, k := range s.keys {
		out[i] = Spec{Key: k, Visible: s.visible[k]}
	}
	return out
}

// HiddenCount returns the number of hidden columns.
func (s *Store) HiddenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, v := range s.visible {
		if !v {
			n++
		}
	}
	return n
}
