// Package builder assembles a container from classes, instances, locators and
// fixed parameters.
//
//	b := builder.New()
//	b.AddType(Config{})
//	b.AddType(Cache{})
//	b.SetParameter("name", "app", "main.Config")
//	b.AddLocator(locator.NewDirectory("./internal/importers"))
//	c, err := b.Build(ctx)
//
// Build reflects every candidate class, discovers the classes their fields
// need, wires parameters, tags and tag collections, and boots the registered
// providers. It never returns a partially built container.
package builder

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"

	"github.com/km-arc/go-autowire/framework/cache"
	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/dependency"
	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/locator"
	"github.com/km-arc/go-autowire/framework/reflection"
	"github.com/km-arc/go-autowire/framework/resolver"
	"github.com/km-arc/go-autowire/framework/snapshot"
	"github.com/km-arc/go-autowire/framework/types"
)

// DefaultCacheKey is the cache key reflected services are stored under.
const DefaultCacheKey = "autowire.services"

// GlobalScope applies a parameter to every class.
const GlobalScope = resolver.GlobalScope

// BuildObserver is told about every Build.
type BuildObserver interface {
	Built(elapsed time.Duration, services int, err error)
}

// Builder collects the build inputs. It is safe for concurrent use.
type Builder struct {
	mu sync.Mutex

	catalog         *reflection.Catalog
	pool            cache.Pool
	cacheKey        string
	logger          *slog.Logger
	setterInjection bool
	observer        container.Observer
	buildObserver   BuildObserver

	roots      []string
	parameters resolver.Parameters
	locators   []locator.Locator
	bindings   []resolver.Binding
	providers  []Provider
}

// Option configures a Builder.
type Option func(*Builder)

// WithCatalog uses an existing catalog instead of a fresh one.
func WithCatalog(c *reflection.Catalog) Option {
	return func(b *Builder) { b.catalog = c }
}

// WithTypeFactory sets the type factory of the builder's own catalog. It has no
// effect together with WithCatalog.
func WithTypeFactory(f *types.Factory) Option {
	return func(b *Builder) {
		if b.catalog == nil {
			b.catalog = reflection.NewCatalog(reflection.WithTypeFactory(f))
		}
	}
}

// WithCache stores reflected services in pool between builds.
func WithCache(pool cache.Pool) Option {
	return func(b *Builder) { b.pool = pool }
}

func WithCacheKey(key string) Option {
	return func(b *Builder) { b.cacheKey = key }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithSetterInjection calls each service's setters after construction.
func WithSetterInjection() Option {
	return func(b *Builder) { b.setterInjection = true }
}

// WithObserver is passed on to every built container.
func WithObserver(o container.Observer) Option {
	return func(b *Builder) { b.observer = o }
}

func WithBuildObserver(o BuildObserver) Option {
	return func(b *Builder) { b.buildObserver = o }
}

// New creates an empty builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		pool:       cache.Null{},
		cacheKey:   DefaultCacheKey,
		logger:     slog.New(slog.DiscardHandler),
		parameters: resolver.Parameters{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.catalog == nil {
		b.catalog = reflection.NewCatalog()
	}
	return b
}

// Catalog returns the catalog classes are registered in.
func (b *Builder) Catalog() *reflection.Catalog { return b.catalog }

// ── Classes ───────────────────────────────────────────────────────────────────

// Add adds a class the catalog already knows. Unknown names fail the build.
func (b *Builder) Add(className string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.roots {
		if r == className {
			return
		}
	}
	b.roots = append(b.roots, className)
}

// AddType registers v's type in the catalog and adds it. v is a struct value,
// a pointer to one, or a nil interface pointer such as (*View)(nil).
func (b *Builder) AddType(v any, opts ...reflection.ClassOption) (string, error) {
	name, err := b.catalog.Register(v, opts...)
	if err != nil {
		return "", err
	}
	if !b.catalog.IsInterface(name) {
		b.Add(name)
	}
	return name, nil
}

// AddInstance registers a pre-built instance under its class name.
func (b *Builder) AddInstance(instance any) (string, error) {
	name, err := b.catalog.ClassOf(instance)
	if err != nil {
		return "", err
	}
	b.AddDependency(name, dependency.NewValue(instance))
	return name, nil
}

// AddDependency binds id to d. Explicit dependencies win over the ones
// synthesized for classes.
func (b *Builder) AddDependency(id string, d dependency.Dependency) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bindings = append(b.bindings, resolver.Binding{ID: id, Dependency: d})
}

// AddLocator adds a source of class names.
func (b *Builder) AddLocator(l locator.Locator) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locators = append(b.locators, l)
}

// ── Parameters ────────────────────────────────────────────────────────────────

// SetParameter fixes the value of parameter name for scope, which is a class
// name, a tag or GlobalScope (the default). Class scopes beat tag scopes, which
// beat the global scope. A dependency.Dependency value is resolved from the
// container instead of used verbatim.
func (b *Builder) SetParameter(name string, value any, scope ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parameters.Set(scopeOf(scope), name, value)
}

// SetParameters calls SetParameter for every entry of params.
func (b *Builder) SetParameters(params map[string]any, scope ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := scopeOf(scope)
	for name, value := range params {
		b.parameters.Set(s, name, value)
	}
}

// SetParametersFrom sets parameters from the fields of a struct (or the keys
// of a map). Keys use the `inject` tag when present, else the field name with
// a lower-cased first letter.
func (b *Builder) SetParametersFrom(v any, scope ...string) error {
	raw := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: reflection.TagInject,
		Result:  &raw,
	})
	if err != nil {
		return errors.WithStack(err)
	}
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(err, "failed to decode parameters")
	}
	params := make(map[string]any, len(raw))
	for k, value := range raw {
		params[lowerFirst(k)] = value
	}
	b.SetParameters(params, scope...)
	return nil
}

// When starts a contextual parameter for className:
//
//	b.When("main.Mailer").Needs("host").Give("smtp.local")
func (b *Builder) When(className string) *ContextualBuilder {
	return &ContextualBuilder{builder: b, className: className}
}

func scopeOf(scope []string) string {
	if len(scope) == 0 || scope[0] == "" {
		return GlobalScope
	}
	return scope[0]
}

func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// ── Build ─────────────────────────────────────────────────────────────────────

// request snapshots the collected inputs.
func (b *Builder) request() (resolver.Request, []locator.Locator, []Provider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	params := make(resolver.Parameters, len(b.parameters))
	for scope, values := range b.parameters {
		for name, v := range values {
			params.Set(scope, name, v)
		}
	}
	req := resolver.Request{
		Roots:        append([]string(nil), b.roots...),
		Parameters:   params,
		Dependencies: append([]resolver.Binding(nil), b.bindings...),
	}
	return req, append([]locator.Locator(nil), b.locators...), append([]Provider(nil), b.providers...)
}

func (b *Builder) resolver() *resolver.Resolver {
	return resolver.New(b.catalog,
		resolver.WithLogger(b.logger),
		resolver.WithSetterInjection(b.setterInjection),
	)
}

// Build creates the container and boots the providers.
func (b *Builder) Build(ctx context.Context) (c *container.Container, err error) {
	start := time.Now()
	services := 0
	defer func() {
		if b.buildObserver != nil {
			b.buildObserver.Built(time.Since(start), services, err)
		}
	}()

	req, locators, providers := b.request()
	list, err := b.services(ctx, &req, locators)
	if err != nil {
		return nil, err
	}
	services = len(list)

	deps, err := b.resolver().Wire(list, req)
	if err != nil {
		return nil, err
	}

	var opts []container.Option
	if b.observer != nil {
		opts = append(opts, container.WithObserver(b.observer))
	}
	built := container.New(deps, opts...)

	for _, p := range providers {
		if err := p.Boot(ctx, built); err != nil {
			return nil, errors.Wrapf(err, "boot %T", p)
		}
	}
	b.logger.Debug("builder: built container", "id", built.ID(), "services", services, "identifiers", built.Len())
	return built, nil
}

// Describe returns the services Build would wire, fixed parameters applied.
func (b *Builder) Describe(ctx context.Context) ([]*reflection.Service, error) {
	req, locators, _ := b.request()
	list, err := b.services(ctx, &req, locators)
	if err != nil {
		return nil, err
	}
	out := make([]*reflection.Service, len(list))
	for i, svc := range list {
		out[i] = resolver.ApplyParameters(svc, req.Parameters)
	}
	return out, nil
}

// ClearCache drops the cached services.
func (b *Builder) ClearCache(ctx context.Context) error {
	return b.pool.Delete(ctx, b.cacheKey)
}

// services loads the reflected services from the cache, or locates and
// reflects them and fills the cache. Cache failures degrade to a cache miss.
func (b *Builder) services(ctx context.Context, req *resolver.Request, locators []locator.Locator) ([]*reflection.Service, error) {
	if raw, ok, err := b.pool.Get(ctx, b.cacheKey); err != nil {
		b.logger.Warn("builder: cache read failed", "key", b.cacheKey, "error", err)
	} else if ok {
		list, err := snapshot.Decode(raw, b.catalog.Types())
		if err == nil {
			b.logger.Debug("builder: cache hit", "key", b.cacheKey, "services", len(list))
			return list, nil
		}
		b.logger.Warn("builder: ignoring unreadable cache entry", "key", b.cacheKey, "error", err)
	}
	b.logger.Debug("builder: cache miss", "key", b.cacheKey)

	for _, l := range locators {
		names, err := l.Locate(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to locate classes")
		}
		req.Located = append(req.Located, names...)
	}
	if len(req.Located) > 0 {
		b.logger.Debug("builder: located classes", "count", len(req.Located), "classes", strings.Join(req.Located, ","))
	}

	list, err := b.resolver().Discover(ctx, *req)
	if err != nil {
		return nil, err
	}

	if raw, err := snapshot.Encode(list); err != nil {
		b.logger.Warn("builder: cannot encode services", "error", err)
	} else if err := b.pool.Store(ctx, b.cacheKey, raw); err != nil {
		b.logger.Warn("builder: cache write failed", "key", b.cacheKey, "error", err)
	}
	return list, nil
}
