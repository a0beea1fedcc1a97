package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/inspect"
	"github.com/km-arc/go-resolver/framework/logging"
	"github.com/km-arc/go-resolver/framework/providers"
)

// Application is the top-level application container.
// It embeds the Container and ProviderRegistry so user code can call
// app.Bind(), app.Singleton(), app.Register() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	config *config.Config
	logger *zap.Logger
}

// New loads configuration from envFiles, builds the logger and the
// container, and registers the core providers.
func New(envFiles ...string) (*Application, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	logger, err := logging.For(cfg)
	if err != nil {
		return nil, err
	}
	return NewWith(cfg, logger)
}

// NewWith builds the application from an already loaded configuration.
func NewWith(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	locking, err := container.ParseLocking(cfg.Resolver.Locking)
	if err != nil {
		return nil, err
	}

	c := container.New(
		container.WithLogger(logger.Named("container")),
		container.WithLocking(locking),
		container.WithDefaultScope(cfg.Resolver.DefaultScope),
	)
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
		config:    cfg,
		logger:    logger,
	}

	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LoggingServiceProvider{Logger: logger},
		&providers.InspectServiceProvider{},
	} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config is the configuration the application was built with.
func (a *Application) Config() *config.Config { return a.config }

// Log is the application logger.
func (a *Application) Log() *zap.Logger { return a.logger }

// Inspector resolves the introspection server.
func (a *Application) Inspector() (*inspect.Server, error) {
	return container.ResolveRef[*inspect.Server](a.Container, container.ByAlias("inspect"))
}

// Run boots the application if needed, then serves the inspect surface
// when it is enabled. It returns once ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return fmt.Errorf("boot: %w", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	if a.config.Inspect.Enabled {
		srv, err := a.Inspector()
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.ListenAndServe(ctx) })
	}
	g.Go(func() error {
		<-ctx.Done()
		return nil
	})

	a.logger.Info("application running",
		zap.String("app", a.config.App.Name),
		zap.String("env", a.config.App.Env),
		zap.Bool("inspect", a.config.Inspect.Enabled),
	)
	err := g.Wait()
	_ = a.logger.Sync()
	return err
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.config.IsLocal() }
func (a *Application) IsProduction() bool  { return a.config.IsProduction() }
func (a *Application) IsTesting() bool     { return a.config.IsTesting() }
func (a *Application) Version() string     { return "0.1.0" }
