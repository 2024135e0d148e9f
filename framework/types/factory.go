package types

import (
	"strings"
	"sync"
	"unicode"
)

// builtIns are the names classified as KindBuiltIn. "any" is treated as
// built-in so untyped parameters resolve like scalars.
var builtIns = map[string]struct{}{
	NameAny: {}, NameNull: {}, "int": {}, "float": {}, "bool": {}, "string": {},
	NameArray: {}, "object": {}, "resource": {}, "callable": {}, NameIterable: {},
	"int8": {}, "int16": {}, "int32": {}, "int64": {},
	"uint": {}, "uint8": {}, "uint16": {}, "uint32": {}, "uint64": {}, "uintptr": {},
	"byte": {}, "rune": {}, "float32": {}, "float64": {},
	"complex64": {}, "complex128": {}, "error": {},
}

// IsBuiltInName reports whether name is one of the built-in type names.
func IsBuiltInName(name string) bool {
	_, ok := builtIns[name]
	return ok
}

// Factory turns raw type hints into descriptors. It is safe for concurrent use.
//
// Results are memoized: resolving two hints with the same normalized form
// returns the same *Descriptor.
type Factory struct {
	mu    sync.RWMutex
	cache map[string]*Descriptor
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{cache: make(map[string]*Descriptor)}
}

// Resolve parses a raw hint such as "?\Foo\Bar", "Foo[]" or
// "map<string,array<Foo>>". It never fails: anything that is neither built-in
// nor a well-formed generic is a class name.
func (f *Factory) Resolve(raw string) *Descriptor {
	normalized := normalize(raw)

	f.mu.RLock()
	d, ok := f.cache[normalized]
	f.mu.RUnlock()
	if ok {
		return d
	}

	d = f.parse(normalized)

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.cache[d.String()]; ok {
		d = existing
	} else {
		f.cache[d.String()] = d
	}
	f.cache[normalized] = d
	return d
}

// Any returns the universal "any" descriptor.
func (f *Factory) Any() *Descriptor { return f.Resolve(NameAny) }

// Nullable returns the nullable variant of d.
func (f *Factory) Nullable(d *Descriptor) *Descriptor {
	if d.IsNullable() {
		return d
	}
	return f.Resolve("?" + d.Name())
}

func (f *Factory) parse(s string) *Descriptor {
	nullable := false
	if strings.HasPrefix(s, "?") {
		nullable = true
		s = strings.TrimLeft(s[1:], `\`)
	}

	depth := 0
	for strings.HasSuffix(s, "[]") && len(s) > 2 {
		s = s[:len(s)-2]
		depth++
	}
	if depth > 0 {
		inner := f.Resolve(s)
		for i := 0; i < depth; i++ {
			d := inner
			if i == depth-1 && nullable {
				return f.generic(NameArray, []*Descriptor{d}, true)
			}
			inner = f.generic(NameArray, []*Descriptor{d}, false)
		}
		return inner
	}

	if base, args, ok := splitGeneric(s); ok {
		argDescs := make([]*Descriptor, len(args))
		for i, a := range args {
			argDescs[i] = f.Resolve(a)
		}
		return f.generic(base, argDescs, nullable)
	}

	kind := KindClassName
	if IsBuiltInName(s) {
		kind = KindBuiltIn
	}
	return New(s, kind, nullable, nil)
}

func (f *Factory) generic(base string, args []*Descriptor, nullable bool) *Descriptor {
	b := f.Resolve(base)
	d := New(genericName(b.Name(), args), KindGeneric, nullable, b, args...)

	f.mu.RLock()
	existing, ok := f.cache[d.String()]
	f.mu.RUnlock()
	if ok {
		return existing
	}
	f.mu.Lock()
	if existing, ok := f.cache[d.String()]; ok {
		d = existing
	} else {
		f.cache[d.String()] = d
	}
	f.mu.Unlock()
	return d
}

// splitGeneric parses "Base<A,B<C,D>>" into its base and top-level arguments.
func splitGeneric(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '<')
	if open <= 0 || !strings.HasSuffix(s, ">") {
		return "", nil, false
	}
	base := s[:open]
	if strings.ContainsAny(base, "<>,") {
		return "", nil, false
	}
	inner := s[open+1 : len(s)-1]

	var args []string
	depth, start := 0, 0
	for i, r := range inner {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return "", nil, false
			}
		case ',':
			if depth == 0 {
				args = append(args, inner[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return "", nil, false
	}
	args = append(args, inner[start:])
	for _, a := range args {
		if a == "" || a == "?" {
			return "", nil, false
		}
	}
	return base, args, true
}

func normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "NULL" {
		return NameNull
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimLeft(s, `\`)
	for _, p := range []string{`<\`, `,\`, `?\`} {
		for strings.Contains(s, p) {
			s = strings.ReplaceAll(s, p, p[:1])
		}
	}
	return s
}
