package providers

import (
	"log/slog"

	"github.com/km-arc/go-autowire/framework/builder"
	"github.com/km-arc/go-autowire/framework/config"
	"github.com/km-arc/go-autowire/framework/dependency"
	"github.com/km-arc/go-autowire/framework/metrics"
)

// Identifiers bound by the providers in this package.
const (
	ConfigID  = "config"
	LoggerID  = "logger"
	MetricsID = "metrics"
)

// ── ConfigProvider ────────────────────────────────────────────────────────────

// ConfigProvider binds the loaded configuration.
//
// Bound identifiers:
//   - "config"         → *config.Config
//   - "config.Config"  → *config.Config (class, injectable by field type)
type ConfigProvider struct {
	builder.BaseProvider
	Config *config.Config
}

func (p *ConfigProvider) Register(b *builder.Builder) error {
	if _, err := b.AddInstance(p.Config); err != nil {
		return err
	}
	b.AddDependency(ConfigID, dependency.NewValue(p.Config))
	return nil
}

func (p *ConfigProvider) Provides() []string { return []string{ConfigID} }

// ── LoggingProvider ───────────────────────────────────────────────────────────

// LoggingProvider binds the application logger so services can declare a
// *slog.Logger field.
//
// Bound identifiers:
//   - "logger"       → *slog.Logger
//   - "slog.Logger"  → *slog.Logger
type LoggingProvider struct {
	builder.BaseProvider
	Logger *slog.Logger
}

func (p *LoggingProvider) Register(b *builder.Builder) error {
	if _, err := b.AddInstance(p.Logger); err != nil {
		return err
	}
	b.AddDependency(LoggerID, dependency.NewValue(p.Logger))
	return nil
}

func (p *LoggingProvider) Provides() []string { return []string{LoggerID} }

// ── MetricsProvider ───────────────────────────────────────────────────────────

// MetricsProvider binds the collector. Observing resolutions still needs
// builder.WithObserver; this only makes the collector injectable.
//
// Bound identifiers:
//   - "metrics"            → *metrics.Collector
//   - "metrics.Collector"  → *metrics.Collector
type MetricsProvider struct {
	builder.BaseProvider
	Collector *metrics.Collector
}

func (p *MetricsProvider) Register(b *builder.Builder) error {
	if _, err := b.AddInstance(p.Collector); err != nil {
		return err
	}
	b.AddDependency(MetricsID, dependency.NewValue(p.Collector))
	return nil
}

func (p *MetricsProvider) Provides() []string { return []string{MetricsID} }
