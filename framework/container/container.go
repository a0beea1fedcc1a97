package container

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/km-arc/go-resolver/framework/definition"
	"github.com/km-arc/go-resolver/framework/intercept"
	"github.com/km-arc/go-resolver/framework/matcher"
	"github.com/km-arc/go-resolver/framework/scope"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// bindingKey identifies a binding: the declared type plus an optional name.
type bindingKey struct {
	declared reflect.Type
	name     string
}

func (k bindingKey) String() string {
	if k.name == "" {
		return k.declared.String()
	}
	return k.declared.String() + "#" + k.name
}

// binding maps a declared type to what builds it.
type binding struct {
	key         bindingKey
	impl        reflect.Type
	scopeID     string
	factory     Factory
	instance    any
	hasInstance bool
}

// BindingInfo describes a binding for introspection.
type BindingInfo struct {
	Declared  reflect.Type
	Impl      reflect.Type
	Name      string
	Scope     string
	ScopeName scope.Name
	Instance  bool
	Aliases   []string
}

// ProxyFactory turns a generic proxy into a value implementing the
// declared type, usually a small forwarding struct embedding the proxy.
type ProxyFactory func(p *intercept.Proxy) any

// ── Container ─────────────────────────────────────────────────────────────────

// Container resolves references into beans. It owns the binding and alias
// tables, the interceptor index and the scope registry; nothing is global.
type Container struct {
	mu sync.RWMutex

	defs   *definition.Store
	index  *matcher.Index
	scopes *scope.Registry

	// declared type (+ name) → binding, and registration order
	bindings map[bindingKey]*binding
	order    []bindingKey

	// alias → binding key
	aliases map[string]bindingKey

	// declared or implementation type → typed proxy wrapper
	proxies map[reflect.Type]ProxyFactory

	// names constructed at least once
	resolved map[scope.Name]bool

	afterResolving []func(*Request, any)

	// consulted when an alias is unknown; deferred providers hook in here
	missing []func(alias string) (bool, error)

	flight       singleflight.Group
	locking      Locking
	defaultScope string
	logger       *zap.Logger
}

// New creates a container. The container is bound to itself under the
// alias "container".
func New(opts ...Option) *Container {
	c := &Container{
		defs:         definition.NewStore(),
		index:        matcher.NewIndex(),
		scopes:       scope.NewRegistry(),
		bindings:     make(map[bindingKey]*binding),
		aliases:      make(map[string]bindingKey),
		proxies:      make(map[reflect.Type]ProxyFactory),
		resolved:     make(map[scope.Name]bool),
		defaultScope: scope.SingletonID,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bindSelf()
	return c
}

func (c *Container) bindSelf() {
	err := c.Instance((*Container)(nil), c)
	if err == nil {
		err = c.Alias("container", (*Container)(nil))
	}
	if err != nil {
		panic(fmt.Sprintf("container: cannot bind itself: %v", err))
	}
}

// Definitions returns the definition store.
func (c *Container) Definitions() *definition.Store { return c.defs }

// Interceptors returns the interceptor index.
func (c *Container) Interceptors() *matcher.Index { return c.index }

// Scopes returns the scope registry.
func (c *Container) Scopes() *scope.Registry { return c.scopes }

func (c *Container) Logger() *zap.Logger { return c.logger }

func (c *Container) Locking() Locking { return c.locking }

// ── Registration ──────────────────────────────────────────────────────────────

// Declare records metadata for the type behind token.
//
//	c.Declare((*UserService)(nil),
//	    definition.WithTag("scope", "prototype"),
//	    definition.WithConstructor(NewUserService, definition.Default(), definition.InjectAll()))
func (c *Container) Declare(token any, opts ...definition.Option) (*definition.Definition, error) {
	return c.defs.Declare(token, opts...)
}

// Bind maps abstract to concrete. Both are type tokens: (*Iface)(nil) for
// interfaces, (*T)(nil) or a value for concrete types. A nil concrete binds
// the abstract type to itself, which suits UsingFactory.
//
//	c.Bind((*Greeter)(nil), (*englishGreeter)(nil))
//	c.Bind((*Greeter)(nil), (*frenchGreeter)(nil), container.Named("fr"))
func (c *Container) Bind(abstract, concrete any, opts ...BindOption) error {
	abs := definition.TypeOf(abstract)
	if abs == nil {
		return &InvalidBindingError{Reason: "abstract type is nil"}
	}

	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}

	impl := abs
	if concrete != nil {
		impl = definition.TypeOf(concrete)
	}
	if !impl.AssignableTo(abs) {
		return &InvalidBindingError{Abstract: abs, Reason: fmt.Sprintf("%v does not implement it", impl)}
	}
	if o.scopeID != "" {
		if _, ok := c.scopes.Lookup(o.scopeID); !ok {
			return &scope.UnknownScopeError{ID: o.scopeID}
		}
	}

	return c.bind(&binding{
		key:     bindingKey{declared: abs, name: o.name},
		impl:    impl,
		scopeID: o.scopeID,
		factory: o.factory,
	})
}

// Singleton binds abstract to concrete in the singleton scope.
func (c *Container) Singleton(abstract, concrete any, opts ...BindOption) error {
	return c.Bind(abstract, concrete, append(opts, InScope(scope.SingletonID))...)
}

// Prototype binds abstract to concrete in the prototype scope: every
// resolution builds a new instance.
func (c *Container) Prototype(abstract, concrete any, opts ...BindOption) error {
	return c.Bind(abstract, concrete, append(opts, InScope(scope.PrototypeID))...)
}

// Instance registers a pre-built value. It is returned as is: no scope
// store, no interceptors.
//
//	c.Instance((*config.Config)(nil), cfg, container.Named("config"))
func (c *Container) Instance(abstract, value any, opts ...BindOption) error {
	abs := definition.TypeOf(abstract)
	if abs == nil {
		return &InvalidBindingError{Reason: "abstract type is nil"}
	}
	if value == nil {
		return &InvalidBindingError{Abstract: abs, Reason: "instance is nil"}
	}
	if vt := reflect.TypeOf(value); !vt.AssignableTo(abs) {
		return &InvalidBindingError{Abstract: abs, Reason: fmt.Sprintf("instance of %v does not implement it", vt)}
	}

	var o bindOptions
	for _, opt := range opts {
		opt(&o)
	}
	return c.bind(&binding{
		key:         bindingKey{declared: abs, name: o.name},
		impl:        reflect.TypeOf(value),
		scopeID:     scope.SingletonID,
		instance:    value,
		hasInstance: true,
	})
}

// bind stores b, registering its name as an alias. A replaced binding's
// cached instance is evicted so it is rebuilt on next use.
func (c *Container) bind(b *binding) error {
	c.mu.Lock()
	if b.key.name != "" {
		if err := c.setAlias(b.key.name, b.key); err != nil {
			c.mu.Unlock()
			return err
		}
	}
	old, existed := c.bindings[b.key]
	c.bindings[b.key] = b
	if !existed {
		c.order = append(c.order, b.key)
	}
	if b.hasInstance {
		c.resolved[c.nameOf(b)] = true
	}
	c.mu.Unlock()

	if existed {
		c.evict(old)
	}
	return nil
}

// Alias registers an alternative name for the binding of abstract, or of
// its named binding when name is given. An alias points to one binding
// only; re-pointing it is an AmbiguousAliasError.
//
//	c.Alias("greeter", (*Greeter)(nil))
//	c.Alias("french", (*Greeter)(nil), "fr")
func (c *Container) Alias(alias string, abstract any, name ...string) error {
	abs := definition.TypeOf(abstract)
	if abs == nil {
		return &InvalidBindingError{Reason: "abstract type is nil"}
	}
	if alias == "" {
		return &InvalidBindingError{Abstract: abs, Reason: "alias is empty"}
	}
	key := bindingKey{declared: abs}
	if len(name) > 0 {
		key.name = name[0]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setAlias(alias, key)
}

// setAlias must hold c.mu.Lock.
func (c *Container) setAlias(alias string, key bindingKey) error {
	if existing, ok := c.aliases[alias]; ok && existing != key {
		return &AmbiguousAliasError{Alias: alias, Existing: existing.String(), Rejected: key.String()}
	}
	c.aliases[alias] = key
	return nil
}

// RegisterScope adds a custom scope whose store is the bean behind
// storeRef: a Reference, a reflect.Type, an alias or identifier string, or
// a scope.Store value used directly.
func (c *Container) RegisterScope(id string, storeRef any) error {
	return c.scopes.Register(scope.NewCustom(id, storeRef))
}

// RegisterProxy installs the typed wrapper used when a bean declared as
// token is intercepted. Without one, intercepted beans resolve to the
// *intercept.Proxy itself.
//
//	c.RegisterProxy((*Greeter)(nil), func(p *intercept.Proxy) any { return greeterProxy{p} })
func (c *Container) RegisterProxy(token any, wrap ProxyFactory) error {
	t := definition.TypeOf(token)
	if t == nil || wrap == nil {
		return &InvalidBindingError{Abstract: t, Reason: "proxy wrapper needs a type and a function"}
	}
	c.mu.Lock()
	c.proxies[t] = wrap
	c.mu.Unlock()
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound reports whether ref names an explicit binding.
func (c *Container) Bound(ref Reference) bool {
	key, err := c.keyFor(ref)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.bindings[key]
	return ok
}

// Resolved reports whether ref has been constructed at least once.
func (c *Container) Resolved(ref Reference) bool {
	t, err := c.target(ref)
	if err != nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved[t.name]
}

// Forget drops the binding behind ref, its aliases and its cached instance.
func (c *Container) Forget(ref Reference) {
	t, err := c.target(ref)
	if err != nil {
		return
	}

	c.mu.Lock()
	b := c.bindings[t.key]
	delete(c.bindings, t.key)
	c.order = removeKey(c.order, t.key)
	for alias, key := range c.aliases {
		if key == t.key {
			delete(c.aliases, alias)
		}
	}
	delete(c.resolved, t.name)
	c.mu.Unlock()

	if b != nil {
		c.evict(b)
		return
	}
	c.evictName(t, "")
}

// Flush forgets every binding, alias and cached instance. Declared
// definitions, scopes and interceptors are kept.
func (c *Container) Flush() {
	c.mu.Lock()
	c.bindings = make(map[bindingKey]*binding)
	c.order = nil
	c.aliases = make(map[string]bindingKey)
	c.resolved = make(map[scope.Name]bool)
	c.proxies = make(map[reflect.Type]ProxyFactory)
	c.mu.Unlock()

	for _, s := range c.scopes.Scopes() {
		st, ok := c.scopes.Store(s.ID)
		if !ok {
			continue
		}
		if cl, ok := st.(interface{ Clear() }); ok {
			cl.Clear()
		}
	}
	c.index.Cache().Clear()
	c.bindSelf()
}

// Bindings describes every binding in registration order.
func (c *Container) Bindings() []BindingInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	aliases := make(map[bindingKey][]string)
	for alias, key := range c.aliases {
		aliases[key] = append(aliases[key], alias)
	}

	out := make([]BindingInfo, 0, len(c.order))
	for _, key := range c.order {
		b := c.bindings[key]
		as := aliases[key]
		sort.Strings(as)
		out = append(out, BindingInfo{
			Declared:  key.declared,
			Impl:      b.impl,
			Name:      key.name,
			Scope:     c.scopeIDOf(b.scopeID, c.defs.ForType(b.impl), key.declared),
			ScopeName: c.nameOf(b),
			Instance:  b.hasInstance,
			Aliases:   as,
		})
	}
	return out
}

// nameOf is the canonical name of an explicit binding.
func (c *Container) nameOf(b *binding) scope.Name {
	return scopeName(b.key.declared, b.impl, c.defs.ForType(b.impl), b.key.name)
}

// evict removes a binding's cached instance from its realized store.
func (c *Container) evict(b *binding) {
	if b.hasInstance {
		return
	}
	def := c.defs.ForType(b.impl)
	t := &target{key: b.key, binding: b, impl: b.impl, def: def, name: c.nameOf(b)}
	c.evictName(t, b.scopeID)
}

func (c *Container) evictName(t *target, explicit string) {
	id := c.scopeIDOf(explicit, t.def, t.key.declared)
	st, ok := c.scopes.Store(id)
	if !ok {
		return
	}
	if r, ok := st.(scope.Remover); ok {
		r.Remove(t.name)
	}
}

func removeKey(keys []bindingKey, k bindingKey) []bindingKey {
	out := keys[:0]
	for _, existing := range keys {
		if existing != k {
			out = append(out, existing)
		}
	}
	return out
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after every construction, with
// the request that produced the instance.
func (c *Container) AfterResolving(cb func(req *Request, instance any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.afterResolving = append(c.afterResolving, cb)
}

func (c *Container) onMissingAlias(fn func(alias string) (bool, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.missing = append(c.missing, fn)
}

func (c *Container) fireAfterResolving(req *Request, instance any) {
	c.mu.RLock()
	cbs := c.afterResolving
	c.mu.RUnlock()
	for _, cb := range cbs {
		cb(req, instance)
	}
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve resolves the default binding of T.
//
//	greeter, err := container.Resolve[Greeter](c)
func Resolve[T any](c *Container) (T, error) {
	return ResolveRef[T](c, TypeOf[T]())
}

// ResolveNamed resolves the binding of T registered under name.
func ResolveNamed[T any](c *Container, name string) (T, error) {
	return ResolveRef[T](c, ByNamedType(reflect.TypeOf((*T)(nil)).Elem(), name))
}

// ResolveRef resolves ref and asserts the result is a T.
func ResolveRef[T any](c *Container, ref Reference) (T, error) {
	var zero T
	v, err := c.Get(ref)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Ref: ref, Want: reflect.TypeOf((*T)(nil)).Elem(), Got: reflect.TypeOf(v)}
	}
	return typed, nil
}

// MustResolve is like Resolve but panics on error. Use it in wiring code
// where a missing binding is a programming error.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(fmt.Sprintf("container: %v", err))
	}
	return v
}
