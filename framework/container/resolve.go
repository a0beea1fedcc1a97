package container

import (
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/definition"
	"github.com/km-arc/go-resolver/framework/intercept"
	"github.com/km-arc/go-resolver/framework/scope"
)

// target is a canonicalized reference.
type target struct {
	key     bindingKey
	binding *binding // nil for an implicit binding of a concrete type
	impl    reflect.Type
	def     *definition.Definition
	alias   string
	name    scope.Name
}

// scopeName builds the canonical name of a binding. It depends only on
// its arguments, so every request shape reaching the same binding yields
// the same name.
func scopeName(declared, impl reflect.Type, def *definition.Definition, name string) scope.Name {
	n := definition.DefaultID(declared) + "|" + definition.DefaultID(impl) + "|" + def.ID()
	if name != "" {
		n += "#" + name
	}
	return scope.Name(n)
}

// ── Reference resolution ──────────────────────────────────────────────────────

// Canonicalize returns the name every cache and scope lookup for ref uses.
func (c *Container) Canonicalize(ref Reference) (scope.Name, error) {
	t, err := c.target(ref)
	if err != nil {
		return "", err
	}
	return t.name, nil
}

// CanonicalizeRegistered is Canonicalize without side effects: an alias
// that only a deferred provider would register is reported unresolved
// instead of loading the provider.
func (c *Container) CanonicalizeRegistered(ref Reference) (scope.Name, error) {
	t, err := c.targetOf(ref, false)
	if err != nil {
		return "", err
	}
	return t.name, nil
}

func (c *Container) target(ref Reference) (*target, error) {
	return c.targetOf(ref, true)
}

func (c *Container) targetOf(ref Reference, load bool) (*target, error) {
	key, err := c.lookupKey(ref, load)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	b := c.bindings[key]
	c.mu.RUnlock()

	if b == nil && key.name != "" {
		return nil, &UnresolvedReferenceError{Ref: ref, Reason: "no binding named " + key.name}
	}

	impl := key.declared
	if b != nil {
		impl = b.impl
	}
	def := c.defs.ForType(impl)
	if b == nil && impl.Kind() == reflect.Interface && len(def.Constructors()) == 0 {
		return nil, &UnresolvedReferenceError{Ref: ref, Reason: "interface has no binding"}
	}

	t := &target{
		key:     key,
		binding: b,
		impl:    impl,
		def:     def,
		name:    scopeName(key.declared, impl, def, key.name),
	}
	if ref.kind == KindAlias {
		t.alias = ref.name
	}
	return t, nil
}

func (c *Container) keyFor(ref Reference) (bindingKey, error) {
	return c.lookupKey(ref, true)
}

// lookupKey maps ref to a binding key. With load set, an unknown alias
// gives deferred providers a chance to register it.
func (c *Container) lookupKey(ref Reference, load bool) (bindingKey, error) {
	switch ref.kind {
	case KindType:
		if ref.typ == nil {
			return bindingKey{}, &UnresolvedReferenceError{Ref: ref, Reason: "nil type"}
		}
		return bindingKey{declared: ref.typ, name: ref.name}, nil

	case KindDefinition:
		if ref.def == nil {
			return bindingKey{}, &UnresolvedReferenceError{Ref: ref, Reason: "nil definition"}
		}
		return c.bindingOf(ref, ref.def.Type())

	case KindID:
		if def, ok := c.defs.ByID(ref.name); ok {
			return c.bindingOf(ref, def.Type())
		}
		return bindingKey{}, &UnresolvedReferenceError{Ref: ref}

	case KindAlias:
		if key, ok := c.aliasKey(ref.name); ok {
			return key, nil
		}
		var loaded bool
		if load {
			var err error
			if loaded, err = c.loadDeferred(ref.name); err != nil {
				return bindingKey{}, err
			}
		}
		if loaded {
			if key, ok := c.aliasKey(ref.name); ok {
				return key, nil
			}
		}
		if ref.orID {
			if def, ok := c.defs.ByID(ref.name); ok {
				return c.bindingOf(ref, def.Type())
			}
		}
		return bindingKey{}, &UnresolvedReferenceError{Ref: ref}
	}
	return bindingKey{}, &UnresolvedReferenceError{Ref: ref, Reason: "unknown reference kind"}
}

// bindingOf finds the binding a definition stands for. A type bound as
// itself is its own binding. Otherwise a type that implements exactly one
// binding stands for that binding, so an identifier declared on an
// implementation reaches the same bean as its interface.
func (c *Container) bindingOf(ref Reference, t reflect.Type) (bindingKey, error) {
	own := bindingKey{declared: t}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.bindings[own]; ok {
		return own, nil
	}
	var found []bindingKey
	for _, key := range c.order {
		if c.bindings[key].impl == t {
			found = append(found, key)
		}
	}
	switch len(found) {
	case 0:
		return own, nil
	case 1:
		return found[0], nil
	}
	candidates := make([]string, len(found))
	for i, key := range found {
		candidates[i] = key.String()
	}
	return bindingKey{}, &AmbiguousReferenceError{Ref: ref, Candidates: candidates}
}

func (c *Container) aliasKey(alias string) (bindingKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	key, ok := c.aliases[alias]
	return key, ok
}

func (c *Container) loadDeferred(alias string) (bool, error) {
	c.mu.RLock()
	hooks := c.missing
	c.mu.RUnlock()
	for _, hook := range hooks {
		loaded, err := hook(alias)
		if err != nil || loaded {
			return loaded, err
		}
	}
	return false, nil
}

// scopeIDOf picks the scope of a binding: explicit option, then the
// "scope" tag of the implementation, then of the declared type, then the
// configured default.
func (c *Container) scopeIDOf(explicit string, def *definition.Definition, declared reflect.Type) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := def.Tag(ScopeTag); ok && v != "" {
		return v
	}
	if declared != def.Type() {
		if v, ok := c.defs.ForType(declared).Tag(ScopeTag); ok && v != "" {
			return v
		}
	}
	return c.defaultScope
}

// ── Request surface ───────────────────────────────────────────────────────────

// Get resolves ref into a bean.
//
//	v, err := c.Get(container.TypeOf[Greeter]())
//	v, err := c.Get(container.ByAlias("greeter"))
func (c *Container) Get(ref Reference) (any, error) {
	return c.resolve(ref, &resolution{})
}

// Make resolves an alias or, failing that, a definition identifier.
//
//	repo, err := c.Make("userRepository")
func (c *Container) Make(name string) (any, error) {
	return c.Get(ByName(name))
}

// ── Pipeline ──────────────────────────────────────────────────────────────────

func (c *Container) resolve(ref Reference, res *resolution) (any, error) {
	t, err := c.target(ref)
	if err != nil {
		return nil, err
	}
	if b := t.binding; b != nil && b.hasInstance {
		return b.instance, nil
	}

	var explicit string
	if t.binding != nil {
		explicit = t.binding.scopeID
	}
	id := c.scopeIDOf(explicit, t.def, t.key.declared)
	sc, ok := c.scopes.Lookup(id)
	if !ok {
		return nil, &scope.UnknownScopeError{ID: id}
	}
	store, err := c.storeFor(sc, res)
	if err != nil {
		return nil, err
	}

	if v, ok := store.Get(t.name); ok {
		return v, nil
	}
	if res.contains(t.name) {
		return nil, &CircularDependencyError{Chain: res.cycle(t.name)}
	}

	build := func() (any, error) {
		v, req, err := c.construct(t, sc, res)
		if err != nil {
			return nil, err
		}
		store.Put(t.name, v)
		c.finish(req, v)
		return v, nil
	}

	// Custom stores may be bound to a session or goroutine; only singletons
	// are deduplicated across callers.
	if sc.Policy != scope.Singleton || c.locking == LockCoarse {
		return build()
	}

	v, err, _ := c.flight.Do(string(t.name), func() (any, error) {
		if v, ok := store.Get(t.name); ok {
			return v, nil
		}
		return build()
	})
	return v, err
}

// storeFor realizes the scope's store. A custom store is resolved as a bean
// on the current stack; a store that needs its own scope to exist fails
// instead of deadlocking.
func (c *Container) storeFor(sc scope.Scope, res *resolution) (scope.Store, error) {
	return c.scopes.Realize(sc.ID, func(s scope.Scope) (scope.Store, error) {
		marker := scope.Name("scope:" + s.ID)
		if res.contains(marker) {
			return nil, &scope.RealizationError{ID: s.ID, Cause: scope.ErrReentrant}
		}
		res.push(marker)
		defer res.pop()

		ref, ok := refOf(s.StoreRef)
		if !ok {
			return nil, fmt.Errorf("unsupported store reference %T", s.StoreRef)
		}
		v, err := c.resolve(ref, res)
		if err != nil {
			return nil, err
		}
		st, ok := v.(scope.Store)
		if !ok {
			return nil, fmt.Errorf("%s resolved to %T, which is not a scope.Store", ref, v)
		}
		c.logger.Debug("scope realized", zap.String("scope", s.ID), zap.String("store", fmt.Sprintf("%T", st)))
		return st, nil
	})
}

// construct builds one bean: interceptors, arguments, instance, proxy.
func (c *Container) construct(t *target, sc scope.Scope, res *resolution) (any, *Request, error) {
	res.push(t.name)
	defer res.pop()

	req := &Request{
		Declared:   t.key.declared,
		Impl:       t.impl,
		Name:       t.name,
		Alias:      t.alias,
		Definition: t.def,
		Scope:      sc,
	}

	links, err := c.chainFor(t, res)
	if err != nil {
		return nil, nil, c.fail(t, err)
	}
	req.Interceptors = links

	instance, err := c.instantiate(t, req, res)
	if err != nil {
		return nil, nil, c.fail(t, err)
	}

	if len(links) == 0 {
		return instance, req, nil
	}
	wrapped, err := c.wrap(t, instance, links)
	if err != nil {
		return nil, nil, c.fail(t, err)
	}
	return wrapped, req, nil
}

// chainFor resolves the interceptors applying to t. A referenced
// interceptor that is itself on the current stack is skipped: an
// interceptor never intercepts its own construction.
func (c *Container) chainFor(t *target, res *resolution) ([]intercept.Link, error) {
	m, hit := c.index.MatcherFor(t.def)
	if m == nil {
		return nil, nil
	}
	if !hit {
		c.logger.Debug("matcher cache recomputed", zap.String("definition", t.def.ID()), zap.Stringer("matcher", m))
	}

	bound := c.index.Registry().Expand(m)
	links := make([]intercept.Link, 0, len(bound))
	for _, b := range bound {
		i := b.Handle.Interceptor()
		if b.Handle.IsRef() {
			ref := ByName(b.Handle.RefName())
			if n, err := c.Canonicalize(ref); err == nil && res.contains(n) {
				continue
			}
			v, err := c.resolve(ref, res)
			if err != nil {
				return nil, fmt.Errorf("interceptor %s: %w", b.Handle, err)
			}
			typed, ok := v.(intercept.Interceptor)
			if !ok {
				return nil, &NotAnInterceptorError{Ref: b.Handle.RefName(), Got: reflect.TypeOf(v)}
			}
			i = typed
		}
		links = append(links, intercept.Link{Interceptor: i, Guard: b.Matcher})
	}
	return links, nil
}

// instantiate calls the factory or the default constructor, resolving
// every injected parameter recursively.
func (c *Container) instantiate(t *target, req *Request, res *resolution) (any, error) {
	if b := t.binding; b != nil && b.factory != nil {
		v, err := recovered(func() (any, error) { return b.factory(&scopedResolver{c: c, res: res}) })
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, errors.New("factory returned nil")
		}
		if vt := reflect.TypeOf(v); !vt.AssignableTo(t.key.declared) {
			return nil, fmt.Errorf("factory returned %v, which is not a %v", vt, t.key.declared)
		}
		return v, nil
	}

	ctor, err := t.def.DefaultConstructor()
	if err != nil {
		return nil, err
	}
	params := ctor.Params()
	req.Constructor = ctor
	req.ParamTypes = ctor.ParamTypes()

	args := make([]any, len(params))
	for i, p := range params {
		if !p.Inject {
			continue
		}
		ref := ByType(p.Type)
		if p.Qualifier != "" {
			ref = ByName(p.Qualifier)
		}
		v, err := c.resolve(ref, res)
		if err != nil {
			return nil, fmt.Errorf("argument %d (%v): %w", p.Index, p.Type, err)
		}
		args[i] = v
	}
	req.Args = args

	v, err := recovered(func() (any, error) { return ctor.Call(args) })
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.New("constructor returned nil")
	}
	return v, nil
}

// recovered turns a panicking constructor or factory into an error.
func recovered(fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

// wrap puts the instance behind a proxy, converted to the declared type by
// a registered wrapper when there is one.
func (c *Container) wrap(t *target, instance any, links []intercept.Link) (any, error) {
	p := intercept.NewProxy(instance, t.def, links)

	c.mu.RLock()
	fn, ok := c.proxies[t.key.declared]
	if !ok {
		fn, ok = c.proxies[t.impl]
	}
	c.mu.RUnlock()
	if !ok {
		return p, nil
	}

	out := fn(p)
	if out == nil || !reflect.TypeOf(out).AssignableTo(t.key.declared) {
		return nil, fmt.Errorf("proxy wrapper for %v returned %T", t.key.declared, out)
	}
	return out, nil
}

// fail logs a construction failure once, at the level where it happened,
// and wraps it.
func (c *Container) fail(t *target, err error) error {
	var inner *ConstructionError
	if !errors.As(err, &inner) {
		c.logger.Error("bean construction failed",
			zap.String("severity", "fatal"),
			zap.String("scope_name", string(t.name)),
			zap.Stringer("type", t.impl),
			zap.Error(err),
		)
	}
	return &ConstructionError{Name: t.name, Type: t.impl, Cause: err}
}

func (c *Container) finish(req *Request, instance any) {
	c.mu.Lock()
	c.resolved[req.Name] = true
	c.mu.Unlock()

	c.logger.Debug("bean constructed",
		zap.String("scope_name", string(req.Name)),
		zap.String("scope", req.Scope.ID),
		zap.Int("interceptors", len(req.Interceptors)),
	)
	c.fireAfterResolving(req, instance)
}
