// Package types describes type hints: built-in types, class or interface names
// and generic wrappers such as array<T> and iterable<T>.
//
// Descriptors are immutable. Build them through a Factory, which normalizes
// raw hint strings and memoizes the result by normalized name.
package types

import "strings"

// Kind classifies a Descriptor.
type Kind string

const (
	KindBuiltIn   Kind = "built_in"
	KindClassName Kind = "class_name"
	KindGeneric   Kind = "generic"
)

// Well-known names.
const (
	NameAny      = "any"
	NameNull     = "null"
	NameArray    = "array"
	NameIterable = "iterable"
)

// Descriptor is an immutable type description.
//
// For KindGeneric both Base and Args are set (Args non-empty); for the other
// kinds both are empty.
type Descriptor struct {
	name     string
	kind     Kind
	nullable bool
	base     *Descriptor
	args     []*Descriptor
}

// New builds a descriptor directly, bypassing normalization. It panics when the
// generic invariants are violated.
func New(name string, kind Kind, nullable bool, base *Descriptor, args ...*Descriptor) *Descriptor {
	if kind == KindGeneric && (base == nil || len(args) == 0) {
		panic("types: generic descriptor " + name + " needs a base and at least one argument")
	}
	if kind != KindGeneric && (base != nil || len(args) > 0) {
		panic("types: non-generic descriptor " + name + " cannot carry generic arguments")
	}
	var copied []*Descriptor
	if len(args) > 0 {
		copied = append(copied, args...)
	}
	return &Descriptor{name: name, kind: kind, nullable: nullable, base: base, args: copied}
}

// Name is the canonical name without the nullability marker.
func (d *Descriptor) Name() string { return d.name }

func (d *Descriptor) Kind() Kind { return d.kind }

func (d *Descriptor) IsBuiltIn() bool   { return d.kind == KindBuiltIn }
func (d *Descriptor) IsClassName() bool { return d.kind == KindClassName }
func (d *Descriptor) IsGeneric() bool   { return d.kind == KindGeneric }
func (d *Descriptor) IsNullable() bool  { return d.nullable }

// Base is the generic base type (array for array<T>), nil otherwise.
func (d *Descriptor) Base() *Descriptor { return d.base }

// Args returns a copy of the generic arguments.
func (d *Descriptor) Args() []*Descriptor {
	if len(d.args) == 0 {
		return nil
	}
	out := make([]*Descriptor, len(d.args))
	copy(out, d.args)
	return out
}

// String renders the descriptor as a type hint, "?" prefix included.
func (d *Descriptor) String() string {
	if d.nullable {
		return "?" + d.name
	}
	return d.name
}

// Equal reports value equality: same name, kind, nullability and arguments.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == o {
		return true
	}
	if d == nil || o == nil {
		return false
	}
	if d.name != o.name || d.kind != o.kind || d.nullable != o.nullable || len(d.args) != len(o.args) {
		return false
	}
	if (d.base == nil) != (o.base == nil) || (d.base != nil && !d.base.Equal(o.base)) {
		return false
	}
	for i := range d.args {
		if !d.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

// ClassNames returns every class name used by the descriptor: itself for a
// class, the class arguments (recursively) for a generic, nothing otherwise.
func (d *Descriptor) ClassNames() []string {
	switch d.kind {
	case KindClassName:
		return []string{d.name}
	case KindGeneric:
		var out []string
		for _, a := range d.args {
			out = append(out, a.ClassNames()...)
		}
		return out
	}
	return nil
}

func genericName(base string, args []*Descriptor) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return base + "<" + strings.Join(parts, ",") + ">"
}
