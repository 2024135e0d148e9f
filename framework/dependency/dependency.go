// Package dependency provides the lazily resolvable values stored in a
// container.
//
// Every variant resolves through Get, receiving the container so it can fetch
// its own sub-dependencies:
//
//	Value              fixed value, always resolved
//	Callback           calls its factory on every Get
//	PersistentCallback calls its factory once, then returns the cached value
//	Reference          resolves another identifier once
//	Parameter          like Reference, falling back to a default when optional
//
// Memoizing variants guard their cache cell with their own mutex and only
// cache successful results.
package dependency

import (
	"sync"

	"github.com/km-arc/go-autowire/framework/errors"
)

// Container is the view a dependency resolves against.
type Container interface {
	Get(id string) (any, error)
	Has(id string) bool
}

// Rooted is implemented by views that resolve on behalf of an outer
// container and can hand that container out.
type Rooted interface {
	Root() Container
}

// Root returns the container behind view c, or c itself.
func Root(c Container) Container {
	if r, ok := c.(Rooted); ok {
		return r.Root()
	}
	return c
}

// Dependency is a lazily resolvable value.
type Dependency interface {
	Get(c Container) (any, error)
}

// Func builds a value from the container.
type Func func(c Container) (any, error)

// ── Value ─────────────────────────────────────────────────────────────────────

type Value struct {
	value any
}

func NewValue(value any) *Value { return &Value{value: value} }

func (d *Value) Get(Container) (any, error) { return d.value, nil }

// Value returns the fixed value.
func (d *Value) Value() any { return d.value }

// ── Callback ──────────────────────────────────────────────────────────────────

// Callback never memoizes: every Get runs fn again.
type Callback struct {
	fn Func
}

func NewCallback(fn Func) *Callback { return &Callback{fn: fn} }

func (d *Callback) Get(c Container) (any, error) { return d.fn(c) }

// ── PersistentCallback ────────────────────────────────────────────────────────

// PersistentCallback runs fn on the first successful Get only.
type PersistentCallback struct {
	fn     Func
	mu     sync.Mutex
	loaded bool
	value  any
}

func NewPersistentCallback(fn Func) *PersistentCallback {
	return &PersistentCallback{fn: fn}
}

func (d *PersistentCallback) Get(c Container) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.value, nil
	}
	v, err := d.fn(c)
	if err != nil {
		return nil, err
	}
	d.value, d.loaded = v, true
	return v, nil
}

// ── Reference ─────────────────────────────────────────────────────────────────

// Reference resolves another identifier of the same container once.
type Reference struct {
	id     string
	mu     sync.Mutex
	loaded bool
	value  any
}

func NewReference(id string) *Reference { return &Reference{id: id} }

func (d *Reference) ID() string { return d.id }

func (d *Reference) Get(c Container) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.value, nil
	}
	v, err := c.Get(d.id)
	if err != nil {
		return nil, err
	}
	d.value, d.loaded = v, true
	return v, nil
}

// ── Parameter ─────────────────────────────────────────────────────────────────

// Parameter is a constructor parameter bound to an identifier. When optional,
// a NotFound for that identifier resolves to the default instead; a NotFound
// raised deeper in the graph still propagates.
type Parameter struct {
	id       string
	optional bool
	def      any

	mu     sync.Mutex
	loaded bool
	value  any
}

func NewParameter(id string, optional bool, def any) *Parameter {
	return &Parameter{id: id, optional: optional, def: def}
}

func (d *Parameter) ID() string     { return d.id }
func (d *Parameter) Optional() bool { return d.optional }
func (d *Parameter) Default() any   { return d.def }

func (d *Parameter) Get(c Container) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loaded {
		return d.value, nil
	}
	v, err := c.Get(d.id)
	if err != nil {
		if !d.optional || !errors.IsNotFoundOf(err, d.id) {
			return nil, err
		}
		v = d.def
	}
	d.value, d.loaded = v, true
	return v, nil
}

// KindOf names the variant of d, "custom" for foreign implementations.
func KindOf(d Dependency) string {
	switch d.(type) {
	case *Value:
		return "value"
	case *Callback:
		return "callback"
	case *PersistentCallback:
		return "persistent"
	case *Reference:
		return "reference"
	case *Parameter:
		return "parameter"
	}
	return "custom"
}
