// Package reflection turns Go struct types into the declarative descriptors the
// resolver works with, and instantiates them again from resolved arguments.
//
// A class is a struct type registered in a Catalog. Its exported fields are its
// constructor parameters, its exported Set* methods with a single class-typed
// argument are its setters and the registered interfaces its pointer type
// implements are its tags.
package reflection

import (
	"github.com/km-arc/go-autowire/framework/types"
)

// Parameter describes one constructor parameter.
type Parameter struct {
	Name     string
	Type     *types.Descriptor
	Optional bool
	// Default is only meaningful when Optional is set.
	Default any
}

// WithValue returns a copy of p that carries value as its default and is
// optional. It is how fixed parameters override reflected ones.
func (p Parameter) WithValue(value any) Parameter {
	return Parameter{Name: p.Name, Type: p.Type, Optional: true, Default: value}
}

// Setter describes a single-argument setter method.
type Setter struct {
	Method string
	Type   *types.Descriptor
}

// Service is the reflected, wireable description of one class. Treat it as
// read-only; use WithParameters to derive a modified copy.
type Service struct {
	Class      string
	Tags       []string
	Parameters []Parameter
	Setters    []Setter
}

// Parameter looks a parameter up by name.
func (s *Service) Parameter(name string) (Parameter, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// WithParameters returns a copy of s using params as its parameter list.
func (s *Service) WithParameters(params []Parameter) *Service {
	return &Service{
		Class:      s.Class,
		Tags:       append([]string(nil), s.Tags...),
		Parameters: params,
		Setters:    append([]Setter(nil), s.Setters...),
	}
}

// Names returns every identifier the service answers to: its tags, then its
// class name.
func (s *Service) Names() []string {
	out := make([]string, 0, len(s.Tags)+1)
	out = append(out, s.Tags...)
	return append(out, s.Class)
}

// ── Capabilities ──────────────────────────────────────────────────────────────

// Reflector builds service descriptors from class names.
//
// Reflect returns an error matching errors.ErrNotInstantiable for interfaces
// and errors.ErrUnknownClass for names it has never seen.
type Reflector interface {
	Reflect(className string) (*Service, error)
	Has(className string) bool
}

// Instantiator creates instances of reflected classes.
type Instantiator interface {
	// Instantiate builds a new instance; parameters missing from args keep
	// their zero value.
	Instantiate(className string, args map[string]any) (any, error)
	// Invoke calls a setter on an instance.
	Invoke(instance any, method string, arg any) error
}

// Hierarchy answers subtype queries.
type Hierarchy interface {
	IsSubtypeOf(candidate, required string) bool
}
