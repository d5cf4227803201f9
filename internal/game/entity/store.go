package entity

import "slices"

// Removable is implemented by every attribute store so a Registry can
// remove an entity from all of them at once.
type Removable interface {
	Remove(id ID)
}

// Store is a typed map of attribute values keyed by ID.
type Store[T any] struct {
	data map[ID]T
}

// NewStore returns an empty Store.
func NewStore[T any]() *Store[T] {
	return &Store[T]{data: make(map[ID]T, 64)}
}

func (s *Store[T]) Set(id ID, v T) { s.data[id] = v }

// Get returns a copy of the value stored for id.
func (s *Store[T]) Get(id ID) (T, bool) {
	v, ok := s.data[id]
	return v, ok
}

func (s *Store[T]) Remove(id ID) { delete(s.data, id) }

func (s *Store[T]) Has(id ID) bool {
	_, ok := s.data[id]
	return ok
}

func (s *Store[T]) Len() int { return len(s.data) }

// IDs returns the stored IDs in ascending order.
func (s *Store[T]) IDs() []ID {
	ids := make([]ID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Registry tracks attribute stores for bulk removal on destroy.
type Registry struct {
	stores []Removable
}

// Register adds store to the registry.
func (r *Registry) Register(store Removable) {
	r.stores = append(r.stores, store)
}

// RemoveAll clears id from every registered store.
func (r *Registry) RemoveAll(id ID) {
	for _, s := range r.stores {
		s.Remove(id)
	}
}
