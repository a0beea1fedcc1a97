// Package container resolves references into live beans.
//
// # Overview
//
// A request names a bean in one of several shapes: a declared type, an
// alias, a definition identifier or a *definition.Definition. Every shape
// is canonicalized into one scope.Name, so a lookup by type and a lookup
// by alias for the same binding hit the same cache slot.
//
// On a miss the pipeline selects the interceptors whose matchers match the
// bean's definition, resolves the injected constructor parameters
// recursively, builds the instance and, when interceptors apply, wraps it
// in a proxy. The result is stored according to the binding's scope.
//
// # Container Lifecycle
//
//  1. Create: c := container.New(container.WithLogger(logger))
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot(), safe to resolve everything after this
//  4. Resolve
//
// # Bindings
//
//	// Interface to implementation, singleton by default
//	c.Bind((*Greeter)(nil), (*englishGreeter)(nil))
//
//	// Fresh instance per request
//	c.Prototype((*Clock)(nil), (*wallClock)(nil))
//
//	// Named binding; the name is also an alias
//	c.Bind((*Greeter)(nil), (*frenchGreeter)(nil), container.Named("fr"))
//
//	// Pre-built value
//	c.Instance((*config.Config)(nil), cfg)
//
//	// Alias
//	c.Alias("greeter", (*Greeter)(nil))
//
// # Constructors
//
// Constructors come from the definition store. The constructor marked
// Default is used, else the only zero-argument one. Parameters marked for
// injection are resolved by type, or by alias when qualified.
//
//	c.Declare((*UserService)(nil),
//	    definition.WithConstructor(NewUserService, definition.Default(), definition.InjectAll()))
//
// # Resolving
//
//	raw, err := c.Get(container.TypeOf[Greeter]())
//	raw, err = c.Make("greeter")
//	greeter, err := container.Resolve[Greeter](c)
//	french, err := container.ResolveNamed[Greeter](c, "fr")
//
// # Interception
//
//	all := matcher.Any()
//	c.Intercept(all).With(auditInterceptor)
//	c.Intercept(matcher.TypeNamePrefix("Repo").Under(all)).WithRef("txInterceptor")
//
//	// Typed wrapper so that intercepted Greeters still resolve as Greeter
//	c.RegisterProxy((*Greeter)(nil), func(p *intercept.Proxy) any { return greeterProxy{p} })
//
// A bean with no applicable interceptor is returned as built, never
// wrapped.
//
// # Scopes
//
//	c.RegisterScope("request", "requestStore")
//	c.Bind((*Session)(nil), nil, container.InScope("request"))
//
// The store of a custom scope is itself a bean, resolved the first time
// the scope is used.
//
// # Concurrency
//
// With LockPerName (the default) concurrent first resolutions of one
// singleton share a single construction. Beans in custom scopes are never
// shared between in-flight callers; their store decides what is kept. LockCoarse only serializes map
// access, so concurrent misses on the same singleton may each construct
// it and the later write wins.
//
// Cycles within one resolution are reported as CircularDependencyError.
// Under LockPerName, two goroutines that start from opposite ends of the
// same cycle can wait on each other forever.
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton((*Mailer)(nil), (*smtpMailer)(nil), container.Named("mailer"))
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//
// The provider registers only when c.Make("heavy") is first called.
package container
