// Package store holds the canonical in-memory copy of each entity kind.
package store

import (
	"sync"

	"github.com/rezmoss/simpletracker/internal/model"
)

// Entity is a value type keyed by a string id that knows how to merge a
// partial update over a previous version of itself.
type Entity[T any] interface {
	Key() string
	Merge(prev T) T
}

// Store is an insertion-ordered keyed collection. It never calls the backend.
type Store[T Entity[T]] struct {
	mu      sync.RWMutex
	items   []T
	index   map[string]int
	version uint64
}

func New[T Entity[T]]() *Store[T] {
	return &Store[T]{index: make(map[string]int)}
}

// Put upserts v by id. An existing entity is shallow-merged: fields unset on v
// keep their stored value.
func (s *Store[T]) Put(v T) error {
	return s.upsert(v, true)
}

// Replace upserts v by id without merging.
func (s *Store[T]) Replace(v T) error {
	return s.upsert(v, false)
}

func (s *Store[T]) upsert(v T, merge bool) error {
	id := v.Key()
	if id == "" {
		return model.Invalid("entity id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[id]; ok {
		if merge {
			v = v.Merge(s.items[i])
		}
		s.items[i] = v
	} else {
		s.index[id] = len(s.items)
		s.items = append(s.items, v)
	}
	s.version++
	return nil
}

// PutAll puts every entity, stopping at the first invalid one.
func (s *Store[T]) PutAll(vs []T) error {
	for _, v := range vs {
		if err := s.Put(v); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the entity with the given id; ok is false when absent.
func (s *Store[T]) Get(id string) (v T, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return v, false
	}
	return s.items[i], true
}

// List returns a copy of every entity in insertion order.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Find returns the first entity matching fn.
func (s *Store[T]) Find(fn func(T) bool) (v T, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, it := range s.items {
		if fn(it) {
			return it, true
		}
	}
	return v, false
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version increases on every mutation. Derived views use it to detect staleness.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Delete removes the entity with the given id and returns it.
func (s *Store[T]) Delete(id string) (v T, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return v, false
	}
	v = s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].Key()] = j
	}
	s.version++
	return v, true
}

// Clear drops every entity.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[string]int)
	s.version++
}
