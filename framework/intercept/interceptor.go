package intercept

import (
	"github.com/km-arc/go-resolver/framework/definition"
)

// Interceptor wraps method invocations on a proxied bean. It may inspect
// the call, replace its arguments, short-circuit it, or call inv.Proceed
// and rewrite the results.
type Interceptor interface {
	Intercept(inv *Invocation) ([]any, error)
}

// Named is implemented by interceptors that carry a display name.
type Named interface {
	Name() string
}

// funcInterceptor is a pointer type so that it stays comparable and can be
// used as a registry key.
type funcInterceptor struct {
	name string
	fn   func(inv *Invocation) ([]any, error)
}

// Func adapts a function into an Interceptor.
//
//	audit := intercept.Func("audit", func(inv *intercept.Invocation) ([]any, error) {
//	    log.Printf("→ %s", inv.Method())
//	    return inv.Proceed()
//	})
func Func(name string, fn func(inv *Invocation) ([]any, error)) Interceptor {
	return &funcInterceptor{name: name, fn: fn}
}

func (f *funcInterceptor) Intercept(inv *Invocation) ([]any, error) { return f.fn(inv) }
func (f *funcInterceptor) Name() string                             { return f.name }

// ── Handles ───────────────────────────────────────────────────────────────────

// Handle is an interceptor as registered: either a direct reference or the
// name of a bean that the container resolves into an Interceptor on use.
// Handles are comparable; the direct interceptor's dynamic type must be
// comparable too (pointer types are).
type Handle struct {
	direct Interceptor
	ref    string
}

// Direct wraps an interceptor instance.
func Direct(i Interceptor) Handle { return Handle{direct: i} }

// Ref refers to an interceptor bean by alias or identifier.
func Ref(name string) Handle { return Handle{ref: name} }

// IsRef reports whether the handle is a deferred bean reference.
func (h Handle) IsRef() bool { return h.direct == nil }

// RefName returns the bean reference of a deferred handle.
func (h Handle) RefName() string { return h.ref }

// Interceptor returns the direct interceptor, or nil for a reference.
func (h Handle) Interceptor() Interceptor { return h.direct }

// IsZero reports whether the handle holds neither an interceptor nor a reference.
func (h Handle) IsZero() bool { return h.direct == nil && h.ref == "" }

func (h Handle) String() string {
	if h.IsRef() {
		return "ref:" + h.ref
	}
	return NameOf(h.direct)
}

// NameOf returns the display name of an interceptor.
func NameOf(i Interceptor) string {
	if n, ok := i.(Named); ok {
		return n.Name()
	}
	return typeName(i)
}

// ── Chain links ───────────────────────────────────────────────────────────────

// Guard decides whether an interceptor still applies to a definition.
// matcher.Matcher satisfies it.
type Guard interface {
	Matches(def *definition.Definition) bool
}

// Link is one resolved element of an interceptor chain: the interceptor and
// the matcher it was bound under.
type Link struct {
	Interceptor Interceptor
	Guard       Guard
}

func (l Link) applies(def *definition.Definition) bool {
	return l.Guard == nil || l.Guard.Matches(def)
}
