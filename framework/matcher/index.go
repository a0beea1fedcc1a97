package matcher

import (
	"sync"

	"github.com/km-arc/go-resolver/framework/definition"
	"github.com/km-arc/go-resolver/framework/intercept"
)

// Index pairs a Registry with its Cache. Every mutation goes through the
// Index so the cache is cleared whenever the registry changes.
//
// mu serializes mutations against the recompute in MatcherFor, so a combined
// matcher built before a Clear is never stored after it.
type Index struct {
	mu       sync.RWMutex
	registry *Registry
	cache    *Cache
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{registry: NewRegistry(), cache: NewCache()}
}

// Register binds h under every matcher and clears the cache.
func (x *Index) Register(h intercept.Handle, ms ...Matcher) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if err := x.registry.Register(h, ms...); err != nil {
		return err
	}
	x.cache.Clear()
	return nil
}

// UnregisterMatcher drops m and clears the cache.
func (x *Index) UnregisterMatcher(m Matcher) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	ok := x.registry.UnregisterMatcher(m)
	if ok {
		x.cache.Clear()
	}
	return ok
}

// UnregisterInterceptor drops h everywhere and clears the cache.
func (x *Index) UnregisterInterceptor(h intercept.Handle) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	ok := x.registry.UnregisterInterceptor(h)
	if ok {
		x.cache.Clear()
	}
	return ok
}

// MatcherFor returns the combined matcher for def and whether it came from
// the cache. A cached matcher is only trusted while it still matches def
// and all of its parts are still registered; otherwise the registry is
// rescanned and the cache refreshed.
func (x *Index) MatcherFor(def *definition.Definition) (Matcher, bool) {
	if def == nil {
		return nil, false
	}
	x.mu.RLock()
	defer x.mu.RUnlock()

	if m, ok := x.cache.Lookup(def); ok {
		if m.Matches(def) && x.registry.allRegistered(m) {
			return m, true
		}
		x.cache.Invalidate(def)
	}

	m := x.registry.Combine(def)
	x.cache.Store(def, m)
	return m, false
}

// HandlesFor returns the interceptors applying to def in chain order.
func (x *Index) HandlesFor(def *definition.Definition) []Bound {
	m, _ := x.MatcherFor(def)
	return x.registry.Expand(m)
}

func (x *Index) Registry() *Registry { return x.registry }

func (x *Index) Cache() *Cache { return x.cache }
