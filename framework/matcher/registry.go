package matcher

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/km-arc/go-resolver/framework/definition"
	"github.com/km-arc/go-resolver/framework/intercept"
)

// Binding is a snapshot of one registry entry.
type Binding struct {
	Matcher Matcher
	Handles []intercept.Handle
}

// Bound is an interceptor handle together with the matcher it is bound
// under, in chain order.
type Bound struct {
	Handle  intercept.Handle
	Matcher Matcher
}

type binding struct {
	matcher Matcher
	handles []intercept.Handle
}

// Registry holds Matcher → interceptor bindings in registration order.
// All operations take one registry-wide lock.
type Registry struct {
	mu       sync.RWMutex
	bindings []*binding
	index    map[Matcher]*binding
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[Matcher]*binding)}
}

// Register binds the interceptor handle under every matcher. Either all
// bindings are added or, on a duplicate, none are.
func (r *Registry) Register(h intercept.Handle, ms ...Matcher) error {
	if h.IsZero() {
		return &InvalidRegistrationError{Reason: "interceptor handle is empty"}
	}
	if len(ms) == 0 {
		return &InvalidRegistrationError{Reason: "at least one matcher is required"}
	}
	if !isComparable(h.Interceptor()) {
		return &InvalidRegistrationError{Reason: fmt.Sprintf("interceptor %T is not comparable", h.Interceptor())}
	}
	for _, m := range ms {
		if m != nil && !isComparable(m) {
			return &InvalidRegistrationError{Reason: fmt.Sprintf("matcher %T is not comparable", m)}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[Matcher]bool, len(ms))
	for _, m := range ms {
		if m == nil {
			return &InvalidRegistrationError{Reason: "matcher cannot be nil"}
		}
		if seen[m] {
			return &DuplicateInterceptorError{Matcher: m, Handle: h}
		}
		seen[m] = true
		if b, ok := r.index[m]; ok && containsHandle(b.handles, h) {
			return &DuplicateInterceptorError{Matcher: m, Handle: h}
		}
	}

	for _, m := range ms {
		if b, ok := r.index[m]; ok {
			b.handles = append(b.handles, h)
			continue
		}
		b := &binding{matcher: m, handles: []intercept.Handle{h}}
		r.bindings = append(r.bindings, b)
		r.index[m] = b
	}
	return nil
}

// UnregisterMatcher drops a matcher and all of its interceptors.
func (r *Registry) UnregisterMatcher(m Matcher) bool {
	if !isComparable(m) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.index[m]; !ok {
		return false
	}
	delete(r.index, m)
	r.bindings = filterBindings(r.bindings, func(b *binding) bool { return b.matcher != m })
	return true
}

// UnregisterInterceptor removes the handle from every matcher it is bound
// to. Matchers left without interceptors are dropped.
func (r *Registry) UnregisterInterceptor(h intercept.Handle) bool {
	if !isComparable(h.Interceptor()) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := false
	for _, b := range r.bindings {
		kept := b.handles[:0]
		for _, existing := range b.handles {
			if existing == h {
				removed = true
				continue
			}
			kept = append(kept, existing)
		}
		b.handles = kept
	}
	if !removed {
		return false
	}

	r.bindings = filterBindings(r.bindings, func(b *binding) bool {
		if len(b.handles) == 0 {
			delete(r.index, b.matcher)
			return false
		}
		return true
	})
	return true
}

// IsRegistered reports whether the matcher has bindings.
func (r *Registry) IsRegistered(m Matcher) bool {
	if !isComparable(m) {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[m]
	return ok
}

// IsBound reports whether the handle is bound under the matcher.
func (r *Registry) IsBound(m Matcher, h intercept.Handle) bool {
	if !isComparable(m) || !isComparable(h.Interceptor()) {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.index[m]
	return ok && containsHandle(b.handles, h)
}

// Handles returns the handles bound under m in insertion order.
func (r *Registry) Handles(m Matcher) []intercept.Handle {
	if !isComparable(m) {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.index[m]
	if !ok {
		return nil
	}
	out := make([]intercept.Handle, len(b.handles))
	copy(out, b.handles)
	return out
}

// Bindings returns a snapshot of the registry in registration order.
func (r *Registry) Bindings() []Binding {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Binding, len(r.bindings))
	for i, b := range r.bindings {
		hs := make([]intercept.Handle, len(b.handles))
		copy(hs, b.handles)
		out[i] = Binding{Matcher: b.matcher, Handles: hs}
	}
	return out
}

// Matchers returns the registered matchers in registration order.
func (r *Registry) Matchers() []Matcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Matcher, len(r.bindings))
	for i, b := range r.bindings {
		out[i] = b.matcher
	}
	return out
}

// Len returns the number of registered matchers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bindings)
}

// Combine scans every registered matcher and ANDs together those matching
// def, in registration order. It returns nil when none match.
func (r *Registry) Combine(def *definition.Definition) Matcher {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Matcher
	for _, b := range r.bindings {
		if b.matcher.Matches(def) {
			matched = append(matched, b.matcher)
		}
	}
	switch len(matched) {
	case 0:
		return nil
	case 1:
		return matched[0]
	default:
		return &combination{parts: matched}
	}
}

// Expand flattens a combined matcher into its bound handles. Each part's
// super chain is walked broadest first, so a super matcher's interceptors
// precede its narrower matchers'; otherwise registration order holds.
func (r *Registry) Expand(combined Matcher) []Bound {
	if combined == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Bound
	emitted := make(map[Matcher]bool)
	for _, part := range Parts(combined) {
		for _, m := range Lineage(part) {
			if emitted[m] {
				continue
			}
			emitted[m] = true
			b, ok := r.index[m]
			if !ok {
				continue
			}
			for _, h := range b.handles {
				out = append(out, Bound{Handle: h, Matcher: m})
			}
		}
	}
	return out
}

// allRegistered reports whether every part of a combined matcher is still
// registered.
func (r *Registry) allRegistered(combined Matcher) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range Parts(combined) {
		if _, ok := r.index[m]; !ok {
			return false
		}
	}
	return true
}

func containsHandle(hs []intercept.Handle, h intercept.Handle) bool {
	for _, existing := range hs {
		if existing == h {
			return true
		}
	}
	return false
}

func filterBindings(bs []*binding, keep func(*binding) bool) []*binding {
	out := bs[:0]
	for _, b := range bs {
		if keep(b) {
			out = append(out, b)
		}
	}
	for i := len(out); i < len(bs); i++ {
		bs[i] = nil
	}
	return out
}

// isComparable reports whether v can be used as a map key or compared with
// ==. Registry keys matchers and handles by identity, so a matcher or
// interceptor whose dynamic type holds a slice, map or func cannot be
// registered. A nil value is comparable.
func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
