package providers

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/km-arc/go-resolver/framework/config"
	"github.com/km-arc/go-resolver/framework/container"
	"github.com/km-arc/go-resolver/framework/inspect"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration.
//
// Bound abstracts:
//   - "config"  → *config.Config
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	if p.Config == nil {
		return fmt.Errorf("config provider: no configuration loaded")
	}
	if err := app.Instance((*config.Config)(nil), p.Config); err != nil {
		return err
	}
	return app.Alias("config", (*config.Config)(nil))
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger.
//
// Bound abstracts:
//   - "logger"  → *zap.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	logger := p.Logger
	if logger == nil {
		logger = app.Logger()
	}
	if err := app.Instance((*zap.Logger)(nil), logger); err != nil {
		return err
	}
	return app.Alias("logger", (*zap.Logger)(nil))
}

// Boot records the effective container settings once every provider has
// registered.
func (p *LoggingServiceProvider) Boot(app *container.Container) error {
	logger, err := container.Resolve[*zap.Logger](app)
	if err != nil {
		return err
	}
	logger.Info("container booted",
		zap.String("locking", app.Locking().String()),
		zap.Int("bindings", len(app.Bindings())),
		zap.Int("scopes", len(app.Scopes().Scopes())),
	)
	return nil
}

// ── InspectServiceProvider ────────────────────────────────────────────────────

// InspectServiceProvider registers the introspection server. It is
// deferred: nothing is built until "inspect" is first looked up.
//
// Bound abstracts:
//   - "inspect"  → *inspect.Server
//
// Configuration keys read from "config":
//   - Inspect.Addr
type InspectServiceProvider struct {
	container.BaseProvider
}

func (p *InspectServiceProvider) Register(app *container.Container) error {
	return app.Singleton((*inspect.Server)(nil), nil,
		container.Named("inspect"),
		container.UsingFactory(func(r container.Resolver) (any, error) {
			cfg, err := r.Get(container.TypeOf[*config.Config]())
			if err != nil {
				return nil, err
			}
			logger, err := r.Get(container.TypeOf[*zap.Logger]())
			if err != nil {
				return nil, err
			}
			c, err := r.Get(container.TypeOf[*container.Container]())
			if err != nil {
				return nil, err
			}
			return inspect.NewServer(c.(*container.Container), cfg.(*config.Config).Inspect.Addr,
				logger.(*zap.Logger).Named("inspect")), nil
		}))
}

func (p *InspectServiceProvider) IsDeferred() bool   { return true }
func (p *InspectServiceProvider) Provides() []string { return []string{"inspect"} }
