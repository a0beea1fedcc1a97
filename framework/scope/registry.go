package scope

import (
	"errors"
	"fmt"
	"sync"
)

// ErrReentrant is the cause of a RealizationError raised when realizing a
// scope requires the same scope to be realized first.
var ErrReentrant = errors.New("scope store depends on its own scope")

// Realizer produces the store for a custom scope, typically by resolving
// the scope's StoreRef as a bean.
type Realizer func(s Scope) (Store, error)

// Registry maps scope ids to policies and, once realized, to stores.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	scopes map[string]Scope
	stores map[string]Store
}

// NewRegistry creates a Registry holding the built-in singleton and
// prototype scopes, both already realized.
func NewRegistry() *Registry {
	r := &Registry{
		scopes: make(map[string]Scope),
		stores: make(map[string]Store),
	}
	r.add(SingletonScope, NewMapStore())
	r.add(PrototypeScope, NoStore())
	return r
}

func (r *Registry) add(s Scope, st Store) {
	r.order = append(r.order, s.ID)
	r.scopes[s.ID] = s
	if st != nil {
		r.stores[s.ID] = st
	}
}

// Register adds a scope. A custom scope whose StoreRef is already a Store
// is realized immediately.
func (r *Registry) Register(s Scope) error {
	if s.ID == "" {
		return fmt.Errorf("scope id cannot be empty")
	}
	if s.Policy != Custom {
		return fmt.Errorf("scope %q: only custom scopes can be registered, got %s", s.ID, s.Policy)
	}
	if s.StoreRef == nil {
		return fmt.Errorf("scope %q: custom scope needs a store reference", s.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scopes[s.ID]; ok {
		return &DuplicateScopeError{ID: s.ID}
	}
	st, _ := s.StoreRef.(Store)
	r.add(s, st)
	return nil
}

// Lookup returns the scope with the given id.
func (r *Registry) Lookup(id string) (Scope, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scopes[id]
	return s, ok
}

// Scopes returns every scope in registration order.
func (r *Registry) Scopes() []Scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scope, len(r.order))
	for i, id := range r.order {
		out[i] = r.scopes[id]
	}
	return out
}

// Store returns the store of a realized scope.
func (r *Registry) Store(id string) (Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.stores[id]
	return st, ok
}

// Realized reports whether the scope has a store.
func (r *Registry) Realized(id string) bool {
	_, ok := r.Store(id)
	return ok
}

// Realize returns the store of scope id, calling realize on first use.
//
// realize runs without the registry lock held, so it may resolve beans
// that themselves live in other scopes. Concurrent first uses may each
// call realize; the first store recorded wins and the others are dropped.
func (r *Registry) Realize(id string, realize Realizer) (Store, error) {
	r.mu.RLock()
	s, known := r.scopes[id]
	st, realized := r.stores[id]
	r.mu.RUnlock()

	if !known {
		return nil, &UnknownScopeError{ID: id}
	}
	if realized {
		return st, nil
	}
	if realize == nil {
		return nil, &RealizationError{ID: id, Cause: errors.New("no realizer")}
	}

	st, err := realize(s)
	if err != nil {
		var re *RealizationError
		if errors.As(err, &re) && re.ID == id {
			return nil, err
		}
		return nil, &RealizationError{ID: id, Cause: err}
	}
	if st == nil {
		return nil, &RealizationError{ID: id, Cause: errors.New("realizer returned a nil store")}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.stores[id]; ok {
		return existing, nil
	}
	r.stores[id] = st
	return st, nil
}
