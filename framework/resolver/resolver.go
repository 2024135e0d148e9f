// Package resolver is the auto-wiring engine. It reflects candidate classes
// into service descriptors, discovers the classes their parameters need and
// turns the result into the dependency map a container serves.
//
// Resolution happens in two phases so the reflected table can be cached:
//
//	services, err := r.Discover(ctx, req) // reflection only
//	deps, err := r.Wire(services, req)    // parameters, tags, collections
package resolver

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/samber/lo"

	"github.com/km-arc/go-autowire/framework/dependency"
	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/reflection"
	"github.com/km-arc/go-autowire/framework/types"
)

// GlobalScope is the parameter scope that applies to every class.
const GlobalScope = "*"

// Catalog is what the resolver needs from reflection.
type Catalog interface {
	reflection.Reflector
	reflection.Instantiator
}

// Parameters holds fixed parameter values by scope (GlobalScope, a tag or a
// class name), then by parameter name.
type Parameters map[string]map[string]any

// Set stores value for name in scope.
func (p Parameters) Set(scope, name string, value any) {
	if p[scope] == nil {
		p[scope] = make(map[string]any)
	}
	p[scope][name] = value
}

// Binding is a caller-supplied dependency for an identifier.
type Binding struct {
	ID         string
	Dependency dependency.Dependency
}

// Request gathers every resolver input.
type Request struct {
	// Roots are explicitly added class names, in order.
	Roots []string
	// Located are class names found by locators; unknown ones are skipped.
	Located    []string
	Parameters Parameters
	// Dependencies win over synthesized ones. Later bindings replace earlier
	// ones for the same ID.
	Dependencies []Binding
}

// Resolver turns a Request into dependencies.
type Resolver struct {
	catalog         Catalog
	logger          *slog.Logger
	setterInjection bool
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the debug logger; the default discards.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSetterInjection makes class dependencies call setters after
// construction with whatever the container holds for the setter's type.
func WithSetterInjection(enabled bool) Option {
	return func(r *Resolver) { r.setterInjection = enabled }
}

func New(catalog Catalog, opts ...Option) *Resolver {
	r := &Resolver{
		catalog: catalog,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs Discover and Wire.
func (r *Resolver) Resolve(ctx context.Context, req Request) (map[string]dependency.Dependency, error) {
	services, err := r.Discover(ctx, req)
	if err != nil {
		return nil, err
	}
	return r.Wire(services, req)
}

// ── Discovery ─────────────────────────────────────────────────────────────────

// Candidates returns the class names to reflect, last added first.
func (r *Resolver) Candidates(req Request) []string {
	located := lo.Filter(req.Located, func(name string, _ int) bool {
		if r.catalog.Has(name) {
			return true
		}
		r.logger.Debug("resolver: skipping unknown located class", "class", name)
		return false
	})
	bound := lo.FilterMap(req.Dependencies, func(b Binding, _ int) (string, bool) {
		return b.ID, r.catalog.Has(b.ID)
	})

	all := make([]string, 0, len(req.Roots)+len(located)+len(bound))
	all = append(all, req.Roots...)
	all = append(all, located...)
	all = append(all, bound...)
	return lo.Uniq(lo.Reverse(all))
}

// Discover reflects every candidate and, depth first, every class their
// parameter types name. Interfaces found that way are skipped; an interface
// given as a root is a configuration error.
func (r *Resolver) Discover(ctx context.Context, req Request) ([]*reflection.Service, error) {
	candidates := r.Candidates(req)
	roots := lo.Keyify(req.Roots)
	r.logger.Debug("resolver: candidates", "count", len(candidates), "classes", candidates)

	var services []*reflection.Service
	visited := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if visited[name] {
			return nil
		}
		visited[name] = true

		svc, err := r.catalog.Reflect(name)
		if err != nil {
			if !errors.Is(err, errors.ErrNotInstantiable) {
				return err
			}
			if _, ok := roots[name]; ok {
				return &errors.ConfigurationError{Class: name, Reason: "is not instantiable and cannot be added as a service"}
			}
			r.logger.Debug("resolver: skipping non-instantiable class", "class", name)
			return nil
		}
		services = append(services, svc)
		r.logger.Debug("resolver: reflected service", "class", name, "tags", svc.Tags, "parameters", len(svc.Parameters))

		for _, cls := range r.needs(svc) {
			if err := visit(cls); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return services, nil
}

// needs lists the class names a service's parameters (and setters, when
// injected) refer to.
func (r *Resolver) needs(svc *reflection.Service) []string {
	var out []string
	for _, p := range svc.Parameters {
		out = append(out, p.Type.ClassNames()...)
	}
	if r.setterInjection {
		for _, s := range svc.Setters {
			out = append(out, s.Type.ClassNames()...)
		}
	}
	return out
}

// ── Wiring ────────────────────────────────────────────────────────────────────

// ApplyParameters overrides svc's parameters with fixed values. Scopes apply
// from weakest to strongest: global, each tag in order, the class itself.
// Values for names the service does not declare are ignored.
func ApplyParameters(svc *reflection.Service, params Parameters) *reflection.Service {
	if len(params) == 0 {
		return svc
	}
	scopes := make([]string, 0, len(svc.Tags)+2)
	scopes = append(scopes, GlobalScope)
	scopes = append(scopes, svc.Tags...)
	scopes = append(scopes, svc.Class)

	out := append([]reflection.Parameter(nil), svc.Parameters...)
	changed := false
	for _, scope := range scopes {
		fixed, ok := params[scope]
		if !ok {
			continue
		}
		for i, p := range out {
			if v, ok := fixed[p.Name]; ok {
				out[i] = svc.Parameters[i].WithValue(v)
				changed = true
			}
		}
	}
	if !changed {
		return svc
	}
	return svc.WithParameters(out)
}

// Wire builds the dependency map for services, processed in order.
func (r *Resolver) Wire(services []*reflection.Service, req Request) (map[string]dependency.Dependency, error) {
	explicit := make(map[string]dependency.Dependency, len(req.Dependencies))
	for _, b := range req.Dependencies {
		explicit[b.ID] = b.Dependency
	}

	deps := make(map[string]dependency.Dependency)
	var tagOrder []string
	implementors := make(map[string][]string)

	for _, svc := range services {
		class := svc.Class
		if d, ok := explicit[class]; ok {
			deps[class] = d
		} else {
			d, err := r.classDependency(ApplyParameters(svc, req.Parameters))
			if err != nil {
				return nil, err
			}
			deps[class] = d
		}

		for _, tag := range svc.Tags {
			deps[tag] = aliasDependency(class)
			if _, seen := implementors[tag]; !seen {
				tagOrder = append(tagOrder, tag)
			}
			implementors[tag] = append(implementors[tag], class)
			r.logger.Debug("resolver: tagged", "tag", tag, "class", class)
		}
	}

	for _, tag := range tagOrder {
		iterableID := IterableID(tag)
		deps[iterableID] = iterableDependency(implementors[tag])
		if _, overridden := explicit[iterableID]; overridden {
			deps[ArrayID(tag)] = drainDependency(iterableID)
		} else {
			deps[ArrayID(tag)] = arrayDependency(implementors[tag])
		}
	}

	for id, d := range explicit {
		deps[id] = d
	}
	return deps, nil
}

// IterableID is the identifier of the lazy sequence of tag implementors.
func IterableID(tag string) string { return types.NameIterable + "<" + tag + ">" }

// ArrayID is the identifier of the materialized list of tag implementors.
func ArrayID(tag string) string { return types.NameArray + "<" + tag + ">" }

type boundParameter struct {
	name string
	dep  dependency.Dependency
}

func (r *Resolver) classDependency(svc *reflection.Service) (dependency.Dependency, error) {
	class := svc.Class
	var bound []boundParameter

	for _, p := range svc.Parameters {
		t := p.Type
		if t.IsBuiltIn() && !p.Optional {
			return nil, &errors.ConfigurationError{
				Class:     class,
				Parameter: p.Name,
				Reason: fmt.Sprintf("no value found, set one with SetParameter(%q, value, %q) before building",
					p.Name, class),
			}
		}
		if t.IsClassName() && p.Optional && !t.IsNullable() && p.Default == nil {
			// left at its zero value
			continue
		}
		if t.IsBuiltIn() || (p.Optional && p.Default != nil) {
			d, ok := p.Default.(dependency.Dependency)
			if !ok {
				d = dependency.NewValue(p.Default)
			}
			bound = append(bound, boundParameter{name: p.Name, dep: d})
			continue
		}
		var def any
		if p.Optional {
			def = p.Default
		}
		bound = append(bound, boundParameter{name: p.Name, dep: dependency.NewParameter(t.Name(), p.Optional, def)})
	}

	var setters []boundParameter
	if r.setterInjection {
		for _, s := range svc.Setters {
			setters = append(setters, boundParameter{
				name: s.Method,
				dep:  dependency.NewParameter(s.Type.Name(), true, nil),
			})
		}
	}

	return dependency.NewPersistentCallback(func(c dependency.Container) (any, error) {
		args := make(map[string]any, len(bound))
		for _, b := range bound {
			v, err := b.dep.Get(c)
			if err != nil {
				return nil, &errors.WiringError{ID: class, Parameter: b.name, Err: err}
			}
			args[b.name] = v
		}
		instance, err := r.catalog.Instantiate(class, args)
		if err != nil {
			return nil, err
		}
		for _, s := range setters {
			v, err := s.dep.Get(c)
			if err != nil {
				return nil, &errors.WiringError{ID: class, Parameter: s.name, Err: err}
			}
			if v == nil {
				continue
			}
			if err := r.catalog.Invoke(instance, s.name, v); err != nil {
				return nil, errors.Wrapf(err, "call %s on %s", s.name, class)
			}
		}
		return instance, nil
	}), nil
}

// aliasDependency resolves class through the container on every Get, so the
// alias shares the class's cell and takes part in cycle detection.
func aliasDependency(class string) dependency.Dependency {
	return dependency.NewCallback(func(c dependency.Container) (any, error) {
		return c.Get(class)
	})
}

// iterableDependency yields a fresh sequence over classes on every Get. The
// sequence resolves against the root container: it is usually ranged long
// after the resolution that produced it has returned.
func iterableDependency(classes []string) dependency.Dependency {
	classes = append([]string(nil), classes...)
	return dependency.NewCallback(func(c dependency.Container) (any, error) {
		root := dependency.Root(c)
		var seq iter.Seq2[any, error] = func(yield func(any, error) bool) {
			for _, class := range classes {
				v, err := root.Get(class)
				if !yield(v, err) || err != nil {
					return
				}
			}
		}
		return seq, nil
	})
}

// arrayDependency resolves every class once, inside the current resolution.
func arrayDependency(classes []string) dependency.Dependency {
	classes = append([]string(nil), classes...)
	return dependency.NewPersistentCallback(func(c dependency.Container) (any, error) {
		out := make([]any, 0, len(classes))
		for _, class := range classes {
			v, err := c.Get(class)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
}

// drainDependency drains the sequence bound to iterableID once.
func drainDependency(iterableID string) dependency.Dependency {
	return dependency.NewPersistentCallback(func(c dependency.Container) (any, error) {
		v, err := c.Get(iterableID)
		if err != nil {
			return nil, err
		}
		seq, ok := v.(iter.Seq2[any, error])
		if !ok {
			return nil, errors.Errorf("%s resolved to %T, not a sequence", iterableID, v)
		}
		out := []any{}
		for item, err := range seq {
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	})
}
