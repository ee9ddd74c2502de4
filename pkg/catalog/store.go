package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotFound is returned when a component id is not in the store.
var ErrNotFound = errors.New("component not found")

// Store is the catalog boundary. Implementations persist components;
// the geometry engine never reaches one directly.
type Store interface {
	Get(id string) (Component, error)
	Put(c Component) error
	Delete(id string) error
	List() []Component
}

// MemStore is an in-memory Store safe for concurrent use. Values are
// copied in and out so callers never share memory with the store.
type MemStore struct {
	mu         sync.RWMutex
	components map[string]Component
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{components: make(map[string]Component)}
}

// Get returns a copy of the component with the given id.
func (s *MemStore) Get(id string) (Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.components[id]
	if !ok {
		return Component{}, fmt.Errorf("catalog: %q: %w", id, ErrNotFound)
	}
	return c.Clone(), nil
}

// Put inserts or replaces a component.
func (s *MemStore) Put(c Component) error {
	if c.ID == "" {
		return errors.New("catalog: component id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components[c.ID] = c.Clone()
	return nil
}

// Delete removes a component.
func (s *MemStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.components[id]; !ok {
		return fmt.Errorf("catalog: %q: %w", id, ErrNotFound)
	}
	delete(s.components, id)
	return nil
}

// List returns copies of all components ordered by id.
func (s *MemStore) List() []Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Component, 0, len(s.components))
	for _, c := range s.components {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Heal loads a component, sanitizes its points collection and, when
// entries were dropped, writes the cleaned component back. It returns
// the clean component and the number of dropped entries.
func Heal(s Store, id string) (Component, int, error) {
	c, err := s.Get(id)
	if err != nil {
		return Component{}, 0, err
	}
	clean, dropped := SanitizeComponent(c)
	if dropped == 0 {
		return clean, 0, nil
	}
	if err := s.Put(clean); err != nil {
		return Component{}, 0, fmt.Errorf("catalog: heal %q: %w", id, err)
	}
	return clean, dropped, nil
}
