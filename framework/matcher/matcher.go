package matcher

import (
	"reflect"
	"strings"

	"github.com/km-arc/go-resolver/framework/definition"
)

// Matcher is a predicate over definitions. Matchers are compared by
// identity: two separately built matchers are two registry keys, even if
// they test the same thing.
type Matcher interface {
	Matches(def *definition.Definition) bool
	// Super returns the broader matcher this one narrows, or nil.
	Super() Matcher
	String() string
}

// Predicate is the basic Matcher built from a named function.
type Predicate struct {
	name  string
	fn    func(*definition.Definition) bool
	super Matcher
}

// New builds a matcher from a function.
func New(name string, fn func(*definition.Definition) bool) *Predicate {
	return &Predicate{name: name, fn: fn}
}

// Matches requires the predicate and, when present, the super matcher.
func (p *Predicate) Matches(def *definition.Definition) bool {
	if def == nil {
		return false
	}
	if p.super != nil && !p.super.Matches(def) {
		return false
	}
	return p.fn(def)
}

// Super returns the broader matcher, or nil.
func (p *Predicate) Super() Matcher { return p.super }

func (p *Predicate) String() string { return p.name }

// Under returns a copy of p narrowed below super. Interceptors bound to
// super run before interceptors bound to the returned matcher.
//
//	all := matcher.Any()
//	foo := matcher.TypeNamePrefix("Foo").Under(all)
func (p *Predicate) Under(super Matcher) *Predicate {
	return &Predicate{name: p.name, fn: p.fn, super: super}
}

// ── Built-ins ─────────────────────────────────────────────────────────────────

// Any matches every definition.
func Any() *Predicate {
	return New("any", func(*definition.Definition) bool { return true })
}

// TypeName matches definitions whose bare type name equals name.
func TypeName(name string) *Predicate {
	return New("name("+name+")", func(d *definition.Definition) bool { return d.Name() == name })
}

// TypeNamePrefix matches definitions whose bare type name starts with prefix.
func TypeNamePrefix(prefix string) *Predicate {
	return New("prefix("+prefix+")", func(d *definition.Definition) bool {
		return strings.HasPrefix(d.Name(), prefix)
	})
}

// InPackage matches definitions declared in the package with the given path.
func InPackage(path string) *Predicate {
	return New("package("+path+")", func(d *definition.Definition) bool { return d.PkgPath() == path })
}

// Tagged matches definitions carrying the metadata tag.
func Tagged(name string) *Predicate {
	return New("tagged("+name+")", func(d *definition.Definition) bool { return d.HasTag(name) })
}

// TagEquals matches definitions whose tag has the given value.
func TagEquals(name, value string) *Predicate {
	return New("tag("+name+"="+value+")", func(d *definition.Definition) bool {
		v, ok := d.Tag(name)
		return ok && v == value
	})
}

// AssignableTo matches definitions whose type is assignable to t, which is
// typically an interface.
func AssignableTo(t reflect.Type) *Predicate {
	return New("assignable("+t.String()+")", func(d *definition.Definition) bool {
		return d.Type().AssignableTo(t)
	})
}

// ── Composition ───────────────────────────────────────────────────────────────

type conjunction struct{ parts []Matcher }

// And matches when every matcher matches. Nested conjunctions are flattened.
func And(ms ...Matcher) Matcher {
	var parts []Matcher
	for _, m := range ms {
		if c, ok := m.(*conjunction); ok {
			parts = append(parts, c.parts...)
			continue
		}
		if m != nil {
			parts = append(parts, m)
		}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return &conjunction{parts: parts}
}

func (c *conjunction) Matches(def *definition.Definition) bool {
	for _, m := range c.parts {
		if !m.Matches(def) {
			return false
		}
	}
	return len(c.parts) > 0
}

func (c *conjunction) Super() Matcher { return nil }

func (c *conjunction) String() string { return join(c.parts, " && ") }

type disjunction struct{ parts []Matcher }

// Or matches when at least one matcher matches.
func Or(ms ...Matcher) Matcher {
	return &disjunction{parts: ms}
}

func (o *disjunction) Matches(def *definition.Definition) bool {
	for _, m := range o.parts {
		if m.Matches(def) {
			return true
		}
	}
	return false
}

func (o *disjunction) Super() Matcher { return nil }

func (o *disjunction) String() string { return join(o.parts, " || ") }

type negation struct{ m Matcher }

// Not inverts a matcher.
func Not(m Matcher) Matcher { return &negation{m: m} }

func (n *negation) Matches(def *definition.Definition) bool { return def != nil && !n.m.Matches(def) }
func (n *negation) Super() Matcher                          { return nil }
func (n *negation) String() string                          { return "!" + n.m.String() }

// combination is the AND of registered matchers produced by
// Registry.Combine. Unlike And, it never flattens its parts, since each part
// is a registry key.
type combination struct{ parts []Matcher }

func (c *combination) Matches(def *definition.Definition) bool {
	for _, m := range c.parts {
		if !m.Matches(def) {
			return false
		}
	}
	return true
}

func (c *combination) Super() Matcher { return nil }

func (c *combination) String() string { return join(c.parts, " && ") }

// Parts returns the registered matchers behind a combined matcher returned
// by Registry.Combine, or the matcher itself.
func Parts(m Matcher) []Matcher {
	if m == nil {
		return nil
	}
	if c, ok := m.(*combination); ok {
		out := make([]Matcher, len(c.parts))
		copy(out, c.parts)
		return out
	}
	return []Matcher{m}
}

// Lineage returns m's super chain from the broadest ancestor down to m.
func Lineage(m Matcher) []Matcher {
	var chain []Matcher
	for cur := m; cur != nil; cur = cur.Super() {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func join(ms []Matcher, sep string) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.String()
	}
	return "(" + strings.Join(names, sep) + ")"
}
