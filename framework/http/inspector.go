package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"github.com/km-arc/go-autowire/framework/builder"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/dependency"
	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/routing"
	"github.com/km-arc/go-autowire/framework/snapshot"
	"github.com/km-arc/go-autowire/framework/types"
)

// Inspector serves a read-only JSON view of a builder and the container it
// built.
//
//	GET  /services          reflected services, parameters applied
//	GET  /services/{class}  one service
//	GET  /identifiers       container identifiers; ?check resolves each one
//	GET  /types?raw=...     normalized type descriptor
//	GET  /metrics           Prometheus metrics, when a handler is set
//	POST /cache/clear       drops the cached snapshot
type Inspector struct {
	builder   *builder.Builder
	container *container.Container
	metrics   http.Handler
	logger    *slog.Logger
}

// InspectorOption configures an Inspector.
type InspectorOption func(*Inspector)

// WithMetrics mounts h under /metrics.
func WithMetrics(h http.Handler) InspectorOption {
	return func(i *Inspector) { i.metrics = h }
}

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) InspectorOption {
	return func(i *Inspector) { i.logger = l }
}

// NewInspector creates an inspector for b and the container c built from it.
func NewInspector(b *builder.Builder, c *container.Container, opts ...InspectorOption) *Inspector {
	i := &Inspector{builder: b, container: c, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Routes registers the inspector endpoints on r.
func (i *Inspector) Routes(r *routing.Router) {
	r.Get("/services", i.services)
	r.Get("/services/{class}", i.service)
	r.Get("/identifiers", i.identifiers)
	r.Get("/types", i.types)
	r.Post("/cache/clear", i.clearCache)
	if i.metrics != nil {
		r.Handle("/metrics", i.metrics)
	}
}

// Handler returns a router serving the inspector endpoints.
func (i *Inspector) Handler() http.Handler {
	r := routing.New(i.logger)
	i.Routes(r)
	return r
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (i *Inspector) services(w http.ResponseWriter, r *http.Request) {
	doc, err := i.describe(r)
	if err != nil {
		i.fail(w, err)
		return
	}
	NewResponse(w).Success(doc)
}

func (i *Inspector) service(w http.ResponseWriter, r *http.Request) {
	class := NewRequest(r).RouteParam("class")
	doc, err := i.describe(r)
	if err != nil {
		i.fail(w, err)
		return
	}
	svc, ok := lo.Find(doc.Services, func(s snapshot.Service) bool { return s.Class == class })
	if !ok {
		NewResponse(w).NotFound(fmt.Sprintf("service %s is not registered", class))
		return
	}
	NewResponse(w).Success(svc)
}

type identifier struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

func (i *Inspector) identifiers(w http.ResponseWriter, r *http.Request) {
	check := NewRequest(r).QueryBool("check")
	ids := lo.Map(i.container.IDs(), func(id string, _ int) identifier {
		d, _ := i.container.Dependency(id)
		out := identifier{ID: id, Kind: dependency.KindOf(d)}
		if check {
			if _, err := i.container.Get(id); err != nil {
				out.Error = err.Error()
			}
		}
		return out
	})
	NewResponse(w).Success(map[string]any{
		"container":   i.container.ID().String(),
		"identifiers": ids,
	})
}

type descriptor struct {
	Name       string        `json:"name"`
	Kind       types.Kind    `json:"kind"`
	Nullable   bool          `json:"nullable"`
	Base       string        `json:"base,omitempty"`
	Args       []*descriptor `json:"args,omitempty"`
	ClassNames []string      `json:"classNames,omitempty"`
}

func (i *Inspector) types(w http.ResponseWriter, r *http.Request) {
	raw := NewRequest(r).Query("raw", "")
	if raw == "" {
		NewResponse(w).BadRequest("query parameter raw is required")
		return
	}
	NewResponse(w).Success(describeType(i.builder.Catalog().Types().Resolve(raw)))
}

func (i *Inspector) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := i.builder.ClearCache(r.Context()); err != nil {
		i.fail(w, err)
		return
	}
	NewResponse(w).NoContent()
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (i *Inspector) describe(r *http.Request) (*snapshot.Document, error) {
	list, err := i.builder.Describe(r.Context())
	if err != nil {
		return nil, err
	}
	doc := snapshot.FromServices(list)
	for s := range doc.Services {
		for p, param := range doc.Services[s].Parameters {
			if d, ok := param.Default.(dependency.Dependency); ok {
				doc.Services[s].Parameters[p].Default = dependency.KindOf(d)
			}
		}
	}
	return doc, nil
}

func (i *Inspector) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, errors.ErrConfiguration) || errors.Is(err, errors.ErrUnknownClass) {
		NewResponse(w).Error(http.StatusUnprocessableEntity, err.Error())
		return
	}
	i.logger.Error("inspector: request failed", "err", err)
	NewResponse(w).ServerError(err.Error())
}

func describeType(d *types.Descriptor) *descriptor {
	out := &descriptor{
		Name:       d.Name(),
		Kind:       d.Kind(),
		Nullable:   d.IsNullable(),
		ClassNames: d.ClassNames(),
	}
	if d.Base() != nil {
		out.Base = d.Base().Name()
	}
	for _, arg := range d.Args() {
		out.Args = append(out.Args, describeType(arg))
	}
	return out
}
