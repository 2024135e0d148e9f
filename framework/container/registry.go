package container

import (
	"fmt"
	"sync"

	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/reflection"
)

// ── Entry ─────────────────────────────────────────────────────────────────────

// Arg is a class-typed constructor argument or setter of an Entry. Value is
// the entry it is wired to, nil while unwired.
type Arg struct {
	Name      string
	ClassName string
	Optional  bool
	Value     *Entry
}

// Entry is one class registered on a Registry.
type Entry struct {
	className  string
	persistent bool
	args       []*Arg
	setters    []*Arg
	defaults   map[string]any
	registry   *Registry

	mu       sync.Mutex
	instance any
}

func (e *Entry) ClassName() string { return e.className }
func (e *Entry) Persistent() bool  { return e.persistent }

// Args returns the class-typed constructor arguments in declaration order.
func (e *Entry) Args() []*Arg { return e.args }

// Setters returns the setters that take a class argument.
func (e *Entry) Setters() []*Arg { return e.setters }

// Set wires constructor argument name to value.
func (e *Entry) Set(name string, value *Entry) error {
	return e.assign(e.args, "constructor argument", name, value)
}

// Call wires setter name to value.
func (e *Entry) Call(name string, value *Entry) error {
	return e.assign(e.setters, "setter", name, value)
}

func (e *Entry) assign(list []*Arg, what, name string, value *Entry) error {
	for _, a := range list {
		if a.Name != name {
			continue
		}
		if value != nil && !e.registry.catalog.IsSubtypeOf(value.className, a.ClassName) {
			return &errors.ConfigurationError{
				Class:     e.className,
				Parameter: name,
				Reason:    fmt.Sprintf("%s is not a valid %s", value.className, a.ClassName),
			}
		}
		a.Value = value
		return nil
	}
	return &errors.ConfigurationError{
		Class:  e.className,
		Reason: fmt.Sprintf("has no %s called %s", what, name),
	}
}

// Instance returns the entry's instance, building it (and its wired
// arguments) when needed. Persistent entries build once.
func (e *Entry) Instance() (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.persistent && e.instance != nil {
		return e.instance, nil
	}

	args := make(map[string]any, len(e.args)+len(e.defaults))
	for name, v := range e.defaults {
		args[name] = v
	}
	for _, a := range e.args {
		if a.Value == nil {
			if !a.Optional {
				return nil, &errors.WiringError{
					ID:        e.className,
					Parameter: a.Name,
					Err:       errors.NotFound(a.ClassName),
				}
			}
			continue
		}
		v, err := a.Value.Instance()
		if err != nil {
			return nil, &errors.WiringError{ID: e.className, Parameter: a.Name, Err: err}
		}
		args[a.Name] = v
	}

	instance, err := e.registry.catalog.Instantiate(e.className, args)
	if err != nil {
		return nil, err
	}
	for _, s := range e.setters {
		if s.Value == nil {
			continue
		}
		v, err := s.Value.Instance()
		if err != nil {
			return nil, &errors.WiringError{ID: e.className, Parameter: s.Name, Err: err}
		}
		if err := e.registry.catalog.Invoke(instance, s.Name, v); err != nil {
			return nil, errors.Wrapf(err, "call %s on %s", s.Name, e.className)
		}
	}

	if e.persistent {
		e.instance = instance
	}
	return instance, nil
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry is the in-place container: classes are registered one by one and
// wired immediately against what was registered before them.
//
//	r := container.NewRegistry(catalog)
//	r.Register("fixtures.Config", true)
//	r.Register("fixtures.Cache", true)
//	r.Register("fixtures.AwesomeRenderer", true)
//	view, _ := r.Get("fixtures.Renderer") // *fixtures.AwesomeRenderer
//
// Lookups scan registrations newest first and take the first one that is the
// requested class or a subtype of it. Results are memoized until the next
// registration.
type Registry struct {
	mu sync.RWMutex

	catalog *reflection.Catalog

	// insertion order matters for subtype lookups
	entries []*Entry

	// requested class → entry (nil for misses)
	findCache map[string]*Entry

	afterResolving []func(className string, instance any)
}

// NewRegistry creates an empty registry backed by catalog.
func NewRegistry(catalog *reflection.Catalog) *Registry {
	return &Registry{
		catalog:   catalog,
		findCache: make(map[string]*Entry),
	}
}

// Catalog returns the backing catalog.
func (r *Registry) Catalog() *reflection.Catalog { return r.catalog }

// Register reflects className, appends it and wires its class-typed
// arguments and setters to already registered entries. Registering the same
// class twice fails; so does a required argument nothing can satisfy.
func (r *Registry) Register(className string, persistent bool) (*Entry, error) {
	svc, err := r.catalog.Reflect(className)
	if err != nil {
		return nil, errors.Wrapf(err, "register %s", className)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkDuplicate(className); err != nil {
		return nil, err
	}

	e := &Entry{className: className, persistent: persistent, registry: r}
	for _, p := range svc.Parameters {
		if !p.Type.IsClassName() {
			// scalars only take their declared default
			if p.Optional && p.Default != nil {
				if e.defaults == nil {
					e.defaults = make(map[string]any)
				}
				e.defaults[p.Name] = p.Default
			}
			continue
		}
		e.args = append(e.args, &Arg{Name: p.Name, ClassName: p.Type.Name(), Optional: p.Optional})
	}
	for _, s := range svc.Setters {
		e.setters = append(e.setters, &Arg{Name: s.Method, ClassName: s.Type.Name(), Optional: true})
	}

	if err := r.wire(e); err != nil {
		return nil, err
	}
	r.append(e)
	return e, nil
}

// RegisterInstance appends a pre-built, persistent instance. instance must be
// a non-nil pointer to a struct.
func (r *Registry) RegisterInstance(instance any) (*Entry, error) {
	className, err := r.catalog.ClassOf(instance)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkDuplicate(className); err != nil {
		return nil, err
	}
	e := &Entry{className: className, persistent: true, registry: r, instance: instance}
	r.append(e)
	return e, nil
}

// RegisterSelf registers the registry itself as an instance.
func (r *Registry) RegisterSelf() (*Entry, error) {
	return r.RegisterInstance(r)
}

func (r *Registry) checkDuplicate(className string) error {
	for _, e := range r.entries {
		if e.className == className {
			return &errors.ConfigurationError{
				Class:  className,
				Reason: "already registered, use a distinct type to avoid ambiguity",
			}
		}
	}
	return nil
}

func (r *Registry) append(e *Entry) {
	r.entries = append(r.entries, e)
	clear(r.findCache)
}

// wire must hold mu.
func (r *Registry) wire(e *Entry) error {
	for _, a := range e.args {
		dep := r.find(a.ClassName)
		if dep == nil {
			if !a.Optional {
				return &errors.WiringError{
					ID:        e.className,
					Parameter: a.Name,
					Err:       errors.NotFound(a.ClassName),
				}
			}
			continue
		}
		if err := e.Set(a.Name, dep); err != nil {
			return err
		}
	}
	for _, s := range e.setters {
		if dep := r.find(s.ClassName); dep != nil {
			if err := e.Call(s.Name, dep); err != nil {
				return err
			}
		}
	}
	return nil
}

// ── Lookup ────────────────────────────────────────────────────────────────────

// FindDependency returns the entry serving className, or nil.
func (r *Registry) FindDependency(className string) *Entry {
	r.mu.RLock()
	if e, ok := r.findCache[className]; ok {
		r.mu.RUnlock()
		return e
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(className)
}

// find must hold mu.
func (r *Registry) find(className string) *Entry {
	if e, ok := r.findCache[className]; ok {
		return e
	}

	// The latest registration serving className wins, its own class included.
	var result *Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.catalog.IsSubtypeOf(r.entries[i].className, className) {
			result = r.entries[i]
			break
		}
	}
	r.findCache[className] = result
	return result
}

func (r *Registry) Has(className string) bool {
	return r.FindDependency(className) != nil
}

// Get returns the instance serving className.
func (r *Registry) Get(className string) (any, error) {
	e := r.FindDependency(className)
	if e == nil {
		return nil, errors.NotFound(className)
	}
	instance, err := e.Instance()
	if err != nil {
		return nil, err
	}
	r.fireAfterResolving(className, instance)
	return instance, nil
}

// Dependencies returns the registered entries in registration order.
func (r *Registry) Dependencies() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Entry(nil), r.entries...)
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after every successful Get.
func (r *Registry) AfterResolving(cb func(className string, instance any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterResolving = append(r.afterResolving, cb)
}

func (r *Registry) fireAfterResolving(className string, instance any) {
	r.mu.RLock()
	cbs := r.afterResolving
	r.mu.RUnlock()
	for _, cb := range cbs {
		cb(className, instance)
	}
}
