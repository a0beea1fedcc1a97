package scope

import (
	"sort"
	"sync"
)

// Store is the cache realizing a scope.
type Store interface {
	Get(name Name) (any, bool)
	Put(name Name, instance any)
}

// Remover is implemented by stores that support invalidation.
type Remover interface {
	Remove(name Name)
}

// MapStore keeps every instance put into it until removed. It realizes the
// singleton scope and is a ready-made store for custom scopes.
type MapStore struct {
	mu        sync.RWMutex
	instances map[Name]any
}

// NewMapStore creates an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{instances: make(map[Name]any)}
}

func (s *MapStore) Get(name Name) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.instances[name]
	return v, ok
}

// Put stores the instance. A later Put for the same name overwrites.
func (s *MapStore) Put(name Name, instance any) {
	s.mu.Lock()
	s.instances[name] = instance
	s.mu.Unlock()
}

func (s *MapStore) Remove(name Name) {
	s.mu.Lock()
	delete(s.instances, name)
	s.mu.Unlock()
}

// Clear drops every instance.
func (s *MapStore) Clear() {
	s.mu.Lock()
	clear(s.instances)
	s.mu.Unlock()
}

func (s *MapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

// Names returns the stored names in sorted order.
func (s *MapStore) Names() []Name {
	s.mu.RLock()
	out := make([]Name, 0, len(s.instances))
	for n := range s.instances {
		out = append(out, n)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// prototypeStore never retains.
type prototypeStore struct{}

func (prototypeStore) Get(Name) (any, bool) { return nil, false }
func (prototypeStore) Put(Name, any)        {}

// NoStore returns the store of the prototype scope: every Get misses.
func NoStore() Store { return prototypeStore{} }
