package app

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/km-arc/go-autowire/framework/builder"
	"github.com/km-arc/go-autowire/framework/cache"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/logging"
	"github.com/km-arc/go-autowire/framework/metrics"
	"github.com/km-arc/go-autowire/framework/providers"
	"github.com/km-arc/go-autowire/framework/reflection"
)

// Version of the autowire framework.
const Version = "0.1.0"

// Application embeds the legacy Registry, so classes can be registered and
// resolved on the application object itself:
//
//	a, err := app.Load()
//	a.Singleton(Config{})
//	a.Singleton(Cache{})
//	cache, err := container.Resolve[*Cache](a, "main.Cache")
//
// It also hands out builders preconfigured from the same configuration.
type Application struct {
	*container.Registry

	config  *config.Config
	logger  *slog.Logger
	metrics *metrics.Collector

	poolOnce sync.Once
	pool     cache.Pool
	poolErr  error
}

// Load reads the configuration from envFiles and creates the application with
// a logger writing to stderr.
func Load(envFiles ...string) (*Application, error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Handler, os.Stderr)
	if err != nil {
		return nil, err
	}
	return New(cfg, logger)
}

// New creates the application. The configuration and the logger are
// registered as instances.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	catalog := reflection.NewCatalog(reflection.WithSetterPrefix(cfg.Container.SetterPrefix))
	a := &Application{
		Registry: container.NewRegistry(catalog),
		config:   cfg,
		logger:   logger,
		metrics:  metrics.NewCollector(),
	}
	for _, instance := range []any{cfg, logger} {
		if _, err := a.RegisterInstance(instance); err != nil {
			return nil, err
		}
	}
	a.AfterResolving(func(className string, _ any) {
		a.logger.Debug("app: resolved", "class", className)
	})
	return a, nil
}

// Singleton registers v's type as a shared class.
func (a *Application) Singleton(v any) (*container.Entry, error) {
	return a.register(v, true)
}

// Bind registers v's type; every Get builds a new instance.
func (a *Application) Bind(v any) (*container.Entry, error) {
	return a.register(v, false)
}

func (a *Application) register(v any, persistent bool) (*container.Entry, error) {
	name, err := a.Catalog().Register(v)
	if err != nil {
		return nil, err
	}
	return a.Register(name, persistent)
}

// Builder returns a builder sharing the application's catalog, configured
// cache, logger and metrics, with the ambient providers added.
func (a *Application) Builder(ctx context.Context, opts ...builder.Option) (*builder.Builder, error) {
	pool, err := a.Pool(ctx)
	if err != nil {
		return nil, err
	}
	base := []builder.Option{
		builder.WithCatalog(a.Catalog()),
		builder.WithCache(pool),
		builder.WithCacheKey(a.config.Cache.Key),
		builder.WithLogger(a.logger),
		builder.WithObserver(a.metrics),
		builder.WithBuildObserver(a.metrics),
	}
	if a.config.Container.SetterInjection {
		base = append(base, builder.WithSetterInjection())
	}
	b := builder.New(append(base, opts...)...)

	for _, p := range []builder.Provider{
		&providers.ConfigProvider{Config: a.config},
		&providers.LoggingProvider{Logger: a.logger},
		&providers.MetricsProvider{Collector: a.metrics},
	} {
		if err := b.AddProvider(p); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Pool opens the configured cache on first use.
func (a *Application) Pool(ctx context.Context) (cache.Pool, error) {
	a.poolOnce.Do(func() {
		a.pool, a.poolErr = cache.Open(ctx, a.config.Cache.Options())
	})
	return a.pool, a.poolErr
}

// Close releases the cache connection, if one was opened.
func (a *Application) Close() error {
	if a.pool == nil {
		return nil
	}
	return cache.Close(a.pool)
}

func (a *Application) Config() *config.Config      { return a.config }
func (a *Application) Logger() *slog.Logger        { return a.logger }
func (a *Application) Metrics() *metrics.Collector { return a.metrics }

// Environment returns AUTOWIRE_ENV.
func (a *Application) Environment() string { return a.config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
