package container

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/definition"
)

// Locking selects how concurrent first resolutions of one cached bean are
// coordinated.
type Locking int

const (
	// LockPerName builds each singleton at most once: concurrent misses on
	// the same name wait for a single construction. Custom scopes are left
	// to their store.
	LockPerName Locking = iota
	// LockCoarse only serializes map access. Two callers missing the same
	// singleton concurrently both construct it and the later write wins.
	LockCoarse
)

func (l Locking) String() string {
	if l == LockCoarse {
		return "coarse"
	}
	return "per-name"
}

// ParseLocking reads a locking mode as written in configuration.
func ParseLocking(s string) (Locking, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-name", "pername", "per_name":
		return LockPerName, nil
	case "coarse":
		return LockCoarse, nil
	default:
		return LockPerName, fmt.Errorf("unknown locking mode %q", s)
	}
}

// ── Container options ─────────────────────────────────────────────────────────

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLocking sets the locking mode.
func WithLocking(l Locking) Option {
	return func(c *Container) { c.locking = l }
}

// WithDefaultScope sets the scope of bindings that name none, directly or
// through a "scope" tag on their definition. It defaults to singleton.
func WithDefaultScope(id string) Option {
	return func(c *Container) {
		if id != "" {
			c.defaultScope = id
		}
	}
}

// WithDefinitions shares an existing definition store.
func WithDefinitions(s *definition.Store) Option {
	return func(c *Container) {
		if s != nil {
			c.defs = s
		}
	}
}

// ── Binding options ───────────────────────────────────────────────────────────

// Factory builds a bean by hand instead of through its definition's
// constructor. Dependencies are resolved through r so that cycles are
// still detected.
//
//	c.Bind((*Clock)(nil), nil, container.UsingFactory(func(r container.Resolver) (any, error) {
//	    return systemClock{}, nil
//	}))
type Factory func(r Resolver) (any, error)

// Resolver is the view of the container handed to factories.
type Resolver interface {
	Get(ref Reference) (any, error)
}

type bindOptions struct {
	name    string
	scopeID string
	factory Factory
}

// BindOption configures a single binding.
type BindOption func(*bindOptions)

// Named registers the binding under a name. The name is also registered
// as an alias of the binding.
func Named(name string) BindOption {
	return func(o *bindOptions) { o.name = name }
}

// InScope places the binding in the scope with the given id, overriding
// any "scope" tag of the definition.
func InScope(id string) BindOption {
	return func(o *bindOptions) { o.scopeID = id }
}

// UsingFactory builds the binding with f.
func UsingFactory(f Factory) BindOption {
	return func(o *bindOptions) { o.factory = f }
}

// ScopeTag is the definition tag read for a binding's default scope.
const ScopeTag = "scope"
