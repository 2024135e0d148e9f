// Package metrics exposes container resolutions and builds as Prometheus
// metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-autowire/framework/errors"
)

const Namespace = "autowire"

// Collector implements container.Observer and builder.BuildObserver.
type Collector struct {
	registry *prometheus.Registry

	// ResolveTotal counts resolutions by identifier and status.
	ResolveTotal *prometheus.CounterVec `inject:"-"`
	// ResolveDuration measures resolution time.
	ResolveDuration *prometheus.HistogramVec `inject:"-"`
	// BuildTotal counts builds by status.
	BuildTotal *prometheus.CounterVec `inject:"-"`
	// BuildDuration measures build time.
	BuildDuration prometheus.Histogram `inject:"-"`
	// Services is the number of services in the last successful build.
	Services prometheus.Gauge `inject:"-"`
}

// NewCollector registers the metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ResolveTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "resolve_total",
				Help:      "Total number of container resolutions",
			},
			[]string{"id", "status"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "resolve_duration_seconds",
				Help:      "Duration of container resolutions in seconds",
				Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
			},
			[]string{"id"},
		),
		BuildTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "build_total",
				Help:      "Total number of container builds",
			},
			[]string{"status"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "build_duration_seconds",
				Help:      "Duration of container builds in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Services: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "services",
				Help:      "Number of services in the last successful build",
			},
		),
	}
	c.registry.MustRegister(c.ResolveTotal, c.ResolveDuration, c.BuildTotal, c.BuildDuration, c.Services)
	return c
}

// Resolved records one resolution.
func (c *Collector) Resolved(id string, elapsed time.Duration, err error) {
	c.ResolveTotal.WithLabelValues(id, status(err)).Inc()
	c.ResolveDuration.WithLabelValues(id).Observe(elapsed.Seconds())
}

// Built records one build.
func (c *Collector) Built(elapsed time.Duration, services int, err error) {
	c.BuildTotal.WithLabelValues(status(err)).Inc()
	c.BuildDuration.Observe(elapsed.Seconds())
	if err == nil {
		c.Services.Set(float64(services))
	}
}

// Gatherer returns the registry backing the collector.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errors.ErrNotFound):
		return "not_found"
	case errors.Is(err, errors.ErrCircularDependency):
		return "circular"
	case errors.Is(err, errors.ErrConfiguration):
		return "configuration"
	default:
		return "error"
	}
}
