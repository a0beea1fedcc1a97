package container

import (
	"fmt"
	"sort"
	"sync"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider performs the initial load of bindings, scopes and
// interceptors.
//
// Register is called first for every eager provider. Boot is called after
// all of them are registered, making it safe to resolve other bindings
// inside Boot.
//
//	type RepoProvider struct{ container.BaseProvider }
//
//	func (p *RepoProvider) Register(app *container.Container) error {
//	    return app.Singleton((*UserRepository)(nil), (*sqlUserRepository)(nil), container.Named("users"))
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here, use Boot for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides lists the aliases a deferred provider registers.
	Provides() []string

	// IsDeferred reports whether the provider is loaded lazily, the first
	// time one of its Provides aliases is looked up.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot, Provides and
// IsDeferred. Embed it and only override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

type deferredProvider struct {
	provider ServiceProvider
	once     sync.Once
	err      error
}

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred ones.
type ProviderRegistry struct {
	app *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	deferred   map[string]*deferredProvider // alias → provider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app. Unknown aliases
// looked up in app load the deferred provider that provides them.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	r := &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]*deferredProvider),
		registered: make(map[ServiceProvider]bool),
	}
	app.onMissingAlias(r.loadDeferred)
	return r
}

// Register adds a provider and calls its Register method, unless the
// provider is deferred. Registering the same provider twice is a no-op.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		d := &deferredProvider{provider: provider}
		for _, alias := range provider.Provides() {
			r.deferred[alias] = d
		}
		r.mu.Unlock()
		return nil
	}

	r.eager = append(r.eager, provider)
	booted := r.booted
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("register %T: %w", provider, err)
	}
	// Registered after Boot: boot it right away.
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// loadDeferred registers, and boots if needed, the deferred provider of
// alias. Concurrent lookups wait for one load.
func (r *ProviderRegistry) loadDeferred(alias string) (bool, error) {
	r.mu.Lock()
	d, ok := r.deferred[alias]
	r.mu.Unlock()
	if !ok {
		return false, nil
	}

	d.once.Do(func() {
		if err := d.provider.Register(r.app); err != nil {
			d.err = fmt.Errorf("register deferred %T: %w", d.provider, err)
			return
		}
		r.mu.Lock()
		for a, other := range r.deferred {
			if other == d {
				delete(r.deferred, a)
			}
		}
		booted := r.booted
		r.mu.Unlock()
		if booted {
			if err := d.provider.Boot(r.app); err != nil {
				d.err = fmt.Errorf("boot deferred %T: %w", d.provider, err)
			}
		}
	})
	return true, d.err
}

// Boot calls Boot on every eager provider. Later calls do nothing.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return fmt.Errorf("boot %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true if Boot has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the eager providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the aliases still waiting for their provider.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for alias := range r.deferred {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}
