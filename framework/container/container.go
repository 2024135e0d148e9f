package container

import (
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/km-arc/go-autowire/framework/dependency"
	"github.com/km-arc/go-autowire/framework/errors"
)

// ── Observer ──────────────────────────────────────────────────────────────────

// Observer is told about every top-level and nested resolution.
type Observer interface {
	Resolved(id string, elapsed time.Duration, err error)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(id string, elapsed time.Duration, err error)

func (f ObserverFunc) Resolved(id string, elapsed time.Duration, err error) { f(id, elapsed, err) }

// ── Container ─────────────────────────────────────────────────────────────────

// Container maps identifiers to dependencies. Its key set is fixed at
// construction; resolution is lazy and delegated to the dependencies.
//
//	c := container.New(map[string]dependency.Dependency{
//	    "config": dependency.NewValue(cfg),
//	    "cache":  dependency.NewPersistentCallback(newCache),
//	})
//	cache, err := container.Resolve[*Cache](c, "cache")
type Container struct {
	id       uuid.UUID
	entries  map[string]dependency.Dependency
	observer Observer
}

// Option configures a Container.
type Option func(*Container)

// WithObserver attaches an observer.
func WithObserver(o Observer) Option {
	return func(c *Container) { c.observer = o }
}

// New creates a container over a copy of entries.
func New(entries map[string]dependency.Dependency, opts ...Option) *Container {
	c := &Container{
		id:      uuid.New(),
		entries: make(map[string]dependency.Dependency, len(entries)),
	}
	for id, d := range entries {
		c.entries[id] = d
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID identifies this container instance in logs and inspector output.
func (c *Container) ID() uuid.UUID { return c.id }

// Get resolves id, failing with a NotFoundError when it is absent and with a
// CircularDependencyError when resolving it leads back to itself.
func (c *Container) Get(id string) (any, error) {
	return c.resolve(id, nil)
}

func (c *Container) Has(id string) bool {
	_, ok := c.entries[id]
	return ok
}

// IDs returns every identifier, sorted.
func (c *Container) IDs() []string {
	ids := lo.Keys(c.entries)
	sort.Strings(ids)
	return ids
}

// Dependency returns the dependency bound to id.
func (c *Container) Dependency(id string) (dependency.Dependency, bool) {
	d, ok := c.entries[id]
	return d, ok
}

// Len returns the number of identifiers.
func (c *Container) Len() int { return len(c.entries) }

func (c *Container) resolve(id string, chain []string) (any, error) {
	if lo.Contains(chain, id) {
		return nil, &errors.CircularDependencyError{Chain: append(append([]string(nil), chain...), id)}
	}
	d, ok := c.entries[id]
	if !ok {
		return nil, errors.NotFound(id)
	}

	start := time.Now()
	v, err := d.Get(&resolution{container: c, chain: append(chain[:len(chain):len(chain)], id)})
	if c.observer != nil {
		c.observer.Resolved(id, time.Since(start), err)
	}
	return v, err
}

// resolution is the view handed to dependencies; it carries the chain of
// identifiers being resolved so cycles surface as errors.
type resolution struct {
	container *Container
	chain     []string
}

func (r *resolution) Get(id string) (any, error) { return r.container.resolve(id, r.chain) }

func (r *resolution) Has(id string) bool { return r.container.Has(id) }

// Root returns the container without the chain, for values that resolve
// after the current resolution has finished.
func (r *resolution) Root() dependency.Container { return r.container }

// ── Generics helper ───────────────────────────────────────────────────────────

// Resolve fetches id and type-asserts the result.
//
//	renderer, err := container.Resolve[fixtures.View](c, "fixtures.View")
func Resolve[T any](c dependency.Container, id string) (T, error) {
	var zero T
	v, err := c.Get(id)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, errors.Errorf("container: %s resolved to %T, not %s", id, v, reflect.TypeFor[T]())
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error.
func MustResolve[T any](c dependency.Container, id string) T {
	v, err := Resolve[T](c, id)
	if err != nil {
		panic(err)
	}
	return v
}
