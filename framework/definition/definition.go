package definition

import (
	"reflect"
	"sort"
	"sync"
)

// Definition describes a declared type: its identifier, metadata tags and
// constructors. A Store hands out exactly one *Definition per type, so
// pointer equality is a valid cache key.
type Definition struct {
	mu       sync.RWMutex
	id       string
	typ      reflect.Type
	tags     map[string]string
	ctors    []*Constructor
	declared bool
}

func newDefinition(t reflect.Type) *Definition {
	return &Definition{
		id:   DefaultID(t),
		typ:  t,
		tags: make(map[string]string),
	}
}

// ID returns the definition's identifier.
func (d *Definition) ID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.id
}

// Type returns the described type.
func (d *Definition) Type() reflect.Type { return d.typ }

// Name returns the bare type name, with pointer indirection stripped.
//
//	*app.FooBar → "FooBar"
func (d *Definition) Name() string {
	t := d.typ
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// PkgPath returns the import path of the package declaring the type.
func (d *Definition) PkgPath() string {
	t := d.typ
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath()
}

// Declared reports whether metadata was explicitly declared for the type,
// as opposed to a bare definition created on first lookup.
func (d *Definition) Declared() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.declared
}

// ── Metadata ──────────────────────────────────────────────────────────────────

// HasTag reports whether the metadata tag is present.
func (d *Definition) HasTag(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.tags[name]
	return ok
}

// Tag returns the value of a metadata tag.
func (d *Definition) Tag(name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.tags[name]
	return v, ok
}

// Tags returns a copy of all metadata tags.
func (d *Definition) Tags() map[string]string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]string, len(d.tags))
	for k, v := range d.tags {
		out[k] = v
	}
	return out
}

// TagNames returns the tag names in sorted order.
func (d *Definition) TagNames() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.tags))
	for k := range d.tags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ── Constructors ──────────────────────────────────────────────────────────────

// Constructors returns the declared constructors in declaration order.
func (d *Definition) Constructors() []*Constructor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Constructor, len(d.ctors))
	copy(out, d.ctors)
	return out
}

// DefaultConstructor selects the constructor used to build the type.
//
// The constructor marked Default wins. Without a marked one, the single
// zero-argument constructor is used. A pointer-to-struct type with no
// declared constructors gets a zero-value constructor.
func (d *Definition) DefaultConstructor() (*Constructor, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var marked, nullary []*Constructor
	for _, c := range d.ctors {
		if c.isDefault {
			marked = append(marked, c)
		}
		if len(c.params) == 0 {
			nullary = append(nullary, c)
		}
	}

	switch {
	case len(marked) == 1:
		return marked[0], nil
	case len(marked) > 1:
		return nil, &AmbiguousConstructorError{Type: d.typ, Count: len(marked)}
	case len(nullary) == 1:
		return nullary[0], nil
	case len(nullary) > 1:
		return nil, &AmbiguousConstructorError{Type: d.typ, Count: len(nullary)}
	}

	if len(d.ctors) == 0 && d.typ.Kind() == reflect.Ptr && d.typ.Elem().Kind() == reflect.Struct {
		return zeroValueConstructor(d.typ), nil
	}
	return nil, &NoDefaultConstructorError{Type: d.typ}
}

func (d *Definition) String() string { return d.ID() }

// DefaultID derives the identifier used for undeclared types.
//
//	*app.FooBar → "*github.com/acme/app.FooBar"
func DefaultID(t reflect.Type) string {
	prefix := ""
	for t.Kind() == reflect.Ptr {
		prefix += "*"
		t = t.Elem()
	}
	if t.Name() == "" {
		return prefix + t.String()
	}
	if t.PkgPath() == "" {
		return prefix + t.Name()
	}
	return prefix + t.PkgPath() + "." + t.Name()
}

// TypeOf extracts the type behind a type token. A nil pointer to an
// interface, (*Logger)(nil), yields the interface type; any other value
// yields its dynamic type. A reflect.Type is returned unchanged.
func TypeOf(token any) reflect.Type {
	if t, ok := token.(reflect.Type); ok {
		return t
	}
	t := reflect.TypeOf(token)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
		return t.Elem()
	}
	return t
}
