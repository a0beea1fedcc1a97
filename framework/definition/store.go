package definition

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Option configures a declaration.
type Option func(*Definition) error

// WithID overrides the default identifier.
func WithID(id string) Option {
	return func(d *Definition) error {
		if id == "" {
			return fmt.Errorf("definition id cannot be empty")
		}
		d.id = id
		return nil
	}
}

// WithTag attaches a metadata tag.
func WithTag(name, value string) Option {
	return func(d *Definition) error {
		if name == "" {
			return fmt.Errorf("tag name cannot be empty")
		}
		d.tags[name] = value
		return nil
	}
}

// WithConstructor declares a constructor for the type.
//
//	store.Declare((*UserService)(nil),
//	    definition.WithConstructor(NewUserService, definition.Default(), definition.InjectAll()))
func WithConstructor(fn any, opts ...CtorOption) Option {
	return func(d *Definition) error {
		ctor, err := parseConstructor(fn)
		if err != nil {
			return &InvalidConstructorError{Type: d.typ, Reason: err.Error()}
		}
		if !ctor.returnType.AssignableTo(d.typ) {
			return &InvalidConstructorError{
				Type:   d.typ,
				Reason: fmt.Sprintf("returns %v, which is not assignable to %v", ctor.returnType, d.typ),
			}
		}
		for _, opt := range opts {
			if err := opt(ctor); err != nil {
				return &InvalidConstructorError{Type: d.typ, Reason: err.Error()}
			}
		}
		if ctor.isDefault {
			for _, existing := range d.ctors {
				if existing.isDefault {
					return &AmbiguousConstructorError{Type: d.typ, Count: 2}
				}
			}
		}
		d.ctors = append(d.ctors, ctor)
		return nil
	}
}

// Store is the definition lookup used by the container. It guarantees one
// *Definition per type for its whole lifetime.
type Store struct {
	mu     sync.RWMutex
	byType map[reflect.Type]*Definition
	byID   map[string]*Definition
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		byType: make(map[reflect.Type]*Definition),
		byID:   make(map[string]*Definition),
	}
}

// Declare records metadata for the type behind token. Options are applied
// to a draft, so a failing option leaves the store untouched.
func (s *Store) Declare(token any, opts ...Option) (*Definition, error) {
	t := TypeOf(token)
	if t == nil {
		return nil, fmt.Errorf("cannot declare nil type")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def := s.lookupOrCreate(t)
	def.mu.Lock()
	defer def.mu.Unlock()

	if def.declared {
		return nil, &DuplicateDeclarationError{Type: t}
	}

	draft := newDefinition(t)
	draft.id = def.id
	for _, opt := range opts {
		if err := opt(draft); err != nil {
			return nil, err
		}
	}

	if draft.id != def.id {
		if other, taken := s.byID[draft.id]; taken && other != def {
			return nil, &DuplicateIDError{ID: draft.id}
		}
		if s.byID[def.id] == def {
			delete(s.byID, def.id)
		}
		s.byID[draft.id] = def
	}

	def.id = draft.id
	def.tags = draft.tags
	def.ctors = draft.ctors
	def.declared = true
	return def, nil
}

// ForType returns the definition for t, creating a bare one on first use.
func (s *Store) ForType(t reflect.Type) *Definition {
	s.mu.RLock()
	def, ok := s.byType[t]
	s.mu.RUnlock()
	if ok {
		return def
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupOrCreate(t)
}

// ByID returns the definition with the given identifier.
func (s *Store) ByID(id string) (*Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.byID[id]
	return def, ok
}

// Definitions returns all known definitions ordered by identifier.
func (s *Store) Definitions() []*Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Definition, 0, len(s.byType))
	for _, def := range s.byType {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// lookupOrCreate must hold s.mu.Lock.
func (s *Store) lookupOrCreate(t reflect.Type) *Definition {
	if def, ok := s.byType[t]; ok {
		return def
	}
	def := newDefinition(t)
	s.byType[t] = def
	// A declared id may already occupy the default id of an undeclared type;
	// the declared one keeps it.
	if _, taken := s.byID[def.id]; !taken {
		s.byID[def.id] = def
	}
	return def
}
