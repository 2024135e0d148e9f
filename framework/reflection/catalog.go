package reflection

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/types"
)

// DefaultSetterPrefix is the method name prefix that marks a setter.
const DefaultSetterPrefix = "Set"

var errorType = reflect.TypeFor[error]()

// field is a constructor parameter as found on the struct.
type field struct {
	name       string
	index      []int
	hint       string
	optional   bool
	nullable   bool
	hasDefault bool
	def        any
}

type setter struct {
	method string
	hint   string
}

type class struct {
	name    string
	typ     reflect.Type
	iface   bool
	fields  []field
	setters []setter
	// err is a malformed tag or default found while scanning; Reflect reports it.
	err error
}

// Catalog is the Go reflection adapter. Struct types and interfaces are
// registered under a class name; everything else (descriptors, tags,
// instantiation, subtype checks) is answered from what was registered.
//
// Field and setter types met while scanning a class are registered too, so
// registering the root of an object graph is enough for discovery.
type Catalog struct {
	mu      sync.RWMutex
	factory *types.Factory
	prefix  string
	classes map[string]*class
	byType  map[reflect.Type]*class
	order   []*class
	// supers is the supertype table, rebuilt after registrations.
	supers map[string][]string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithSetterPrefix changes the setter method prefix (default "Set").
func WithSetterPrefix(prefix string) Option {
	return func(c *Catalog) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithTypeFactory makes the catalog resolve hints through f.
func WithTypeFactory(f *types.Factory) Option {
	return func(c *Catalog) {
		if f != nil {
			c.factory = f
		}
	}
}

// NewCatalog creates an empty catalog.
func NewCatalog(opts ...Option) *Catalog {
	c := &Catalog{
		factory: types.NewFactory(),
		prefix:  DefaultSetterPrefix,
		classes: make(map[string]*class),
		byType:  make(map[reflect.Type]*class),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Types returns the type factory used for hints.
func (c *Catalog) Types() *types.Factory { return c.factory }

// SetterPrefix returns the configured setter prefix.
func (c *Catalog) SetterPrefix() string { return c.prefix }

// ClassOption customizes a single registration.
type ClassOption func(*classOptions)

type classOptions struct {
	name string
}

// Named registers the class under an explicit name instead of its Go type name.
func Named(name string) ClassOption {
	return func(o *classOptions) { o.name = name }
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds a struct type or a non-empty interface to the catalog and
// returns its class name. v may be a reflect.Type, a struct value, a pointer
// to a struct, or a nil pointer to an interface:
//
//	c.Register(fixtures.Config{})
//	c.Register((*fixtures.Service)(nil))
//	c.Register((*fixtures.Importer)(nil)) // interface
//	c.Register(reflect.TypeFor[fixtures.Importer]())
//
// Registering the same type again returns the existing name.
func (c *Catalog) Register(v any, opts ...ClassOption) (string, error) {
	t, err := typeOf(v)
	if err != nil {
		return "", err
	}
	return c.RegisterType(t, opts...)
}

// MustRegister is Register that panics on error.
func (c *Catalog) MustRegister(v any, opts ...ClassOption) string {
	name, err := c.Register(v, opts...)
	if err != nil {
		panic(err)
	}
	return name
}

// RegisterType registers t, which must be a struct, a pointer to a struct or
// a non-empty interface.
func (c *Catalog) RegisterType(t reflect.Type, opts ...ClassOption) (string, error) {
	var o classOptions
	for _, opt := range opts {
		opt(&o)
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch {
	case t.Kind() == reflect.Struct:
	case t.Kind() == reflect.Interface && t.NumMethod() > 0:
	default:
		return "", &errors.ConfigurationError{
			Reason: fmt.Sprintf("%s is neither a struct nor a non-empty interface", t),
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerLocked(t, o.name)
}

// ClassOf registers the dynamic type of instance, which must be a non-nil
// pointer to a struct, and returns its class name.
func (c *Catalog) ClassOf(instance any) (string, error) {
	t := reflect.TypeOf(instance)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return "", &errors.ConfigurationError{
			Reason: fmt.Sprintf("instance must be a pointer to a struct, got %T", instance),
		}
	}
	if reflect.ValueOf(instance).IsNil() {
		return "", &errors.ConfigurationError{
			Reason: fmt.Sprintf("instance of %s is nil", t),
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerLocked(t.Elem(), "")
}

func (c *Catalog) registerLocked(t reflect.Type, named string) (string, error) {
	if cl, ok := c.byType[t]; ok {
		if named != "" && named != cl.name {
			return "", &errors.ConfigurationError{
				Class:  cl.name,
				Reason: fmt.Sprintf("already registered, cannot register again as %s", named),
			}
		}
		return cl.name, nil
	}

	name := named
	if name == "" {
		if t.Name() == "" {
			return "", &errors.ConfigurationError{
				Reason: fmt.Sprintf("anonymous type %s needs an explicit name", t),
			}
		}
		name = t.String()
		if strings.ContainsAny(name, "[]") {
			return "", &errors.ConfigurationError{
				Class:  name,
				Reason: "instantiated generic types need an explicit name",
			}
		}
	}
	if other, ok := c.classes[name]; ok {
		return "", &errors.ConfigurationError{
			Class:  name,
			Reason: fmt.Sprintf("name already used by %s", qualifiedName(other.typ)),
		}
	}

	cl := &class{name: name, typ: t, iface: t.Kind() == reflect.Interface}
	c.classes[name] = cl
	c.byType[t] = cl
	c.order = append(c.order, cl)
	c.supers = nil

	if !cl.iface {
		c.scanLocked(cl)
	}
	return name, nil
}

// autoRegisterLocked registers a type met while scanning another class. Name
// collisions fall back to the package-qualified name.
func (c *Catalog) autoRegisterLocked(t reflect.Type) (string, bool) {
	if name, err := c.registerLocked(t, ""); err == nil {
		return name, true
	}
	qualified := qualifiedName(t)
	if t.Name() == "" || strings.ContainsAny(qualified, "[]") {
		return "", false
	}
	name, err := c.registerLocked(t, qualified)
	if err != nil {
		return "", false
	}
	return name, true
}

func (c *Catalog) scanLocked(cl *class) {
	seen := make(map[string]bool)

	for _, f := range reflect.VisibleFields(cl.typ) {
		if f.Anonymous {
			if et := deref(f.Type); et.Kind() == reflect.Struct && et.Name() != "" {
				c.autoRegisterLocked(et)
			}
			continue
		}
		if !f.IsExported() || !settablePath(cl.typ, f.Index) {
			continue
		}

		ft, err := parseFieldTag(f.Tag.Get(TagInject))
		if err != nil {
			cl.err = errors.Wrapf(err, "field %s", f.Name)
			return
		}
		if ft.skip {
			continue
		}

		p := field{
			name:     ft.name,
			index:    f.Index,
			hint:     ft.hint,
			optional: ft.optional,
			nullable: ft.nullable,
		}
		if p.name == "" {
			p.name = parameterName(f.Name)
		}
		if seen[p.name] {
			cl.err = errors.Errorf("duplicate parameter %q (field %s)", p.name, f.Name)
			return
		}
		seen[p.name] = true

		if ft.hint == "" {
			p.hint = c.hintLocked(f.Type)
		} else {
			// Annotation types still need their classes known for discovery.
			c.hintLocked(f.Type)
		}

		if literal, ok := f.Tag.Lookup(TagDefault); ok {
			def, err := parseDefault(literal, f.Type)
			if err != nil {
				cl.err = errors.Wrapf(err, "field %s", f.Name)
				return
			}
			p.def, p.hasDefault, p.optional = def, true, true
		}
		cl.fields = append(cl.fields, p)
	}

	pt := reflect.PointerTo(cl.typ)
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if !strings.HasPrefix(m.Name, c.prefix) || len(m.Name) <= len(c.prefix) {
			continue
		}
		if m.Type.NumIn() != 2 || m.Type.IsVariadic() {
			continue
		}
		hint := c.hintLocked(m.Type.In(1))
		if !isClassHint(hint) {
			continue
		}
		cl.setters = append(cl.setters, setter{method: m.Name, hint: hint})
	}
}

// hintLocked maps a Go type to a raw type hint, registering struct and
// interface types on the way.
func (c *Catalog) hintLocked(t reflect.Type) string {
	if t == errorType {
		return "error"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return "int"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Complex64, reflect.Complex128:
		return t.Kind().String()
	case reflect.String:
		return "string"
	case reflect.Map:
		return types.NameArray
	case reflect.Slice, reflect.Array:
		elem := c.hintLocked(t.Elem())
		if types.IsBuiltInName(elem) {
			return types.NameArray
		}
		return types.NameArray + "<" + elem + ">"
	case reflect.Chan, reflect.UnsafePointer:
		return "resource"
	case reflect.Func:
		if elem, ok := seqElem(t); ok {
			if eh := c.hintLocked(elem); !types.IsBuiltInName(eh) {
				return types.NameIterable + "<" + eh + ">"
			}
			return types.NameIterable
		}
		return "callable"
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return types.NameAny
		}
		if name, ok := c.autoRegisterLocked(t); ok {
			return name
		}
		return "object"
	case reflect.Pointer:
		return c.hintLocked(t.Elem())
	case reflect.Struct:
		if name, ok := c.autoRegisterLocked(t); ok {
			return name
		}
		return "object"
	}
	return types.NameAny
}

// ── Queries ───────────────────────────────────────────────────────────────────

// Has reports whether name is a registered class or interface.
func (c *Catalog) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.classes[name]
	return ok
}

// IsInterface reports whether name is a registered interface.
func (c *Catalog) IsInterface(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.classes[name]
	return ok && cl.iface
}

// Type returns the Go type registered under name.
func (c *Catalog) Type(name string) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.classes[name]
	if !ok {
		return nil, false
	}
	return cl.typ, true
}

// NameOf returns the class name of a registered value or type.
func (c *Catalog) NameOf(v any) (string, bool) {
	t, err := typeOf(v)
	if err != nil {
		return "", false
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	cl, ok := c.byType[t]
	if !ok {
		return "", false
	}
	return cl.name, true
}

// Names lists every registered name in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.order, func(cl *class, _ int) string { return cl.name })
}

// Reflect builds the service descriptor of an instantiable class.
func (c *Catalog) Reflect(name string) (*Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cl, ok := c.classes[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownClass, "reflect %s", name)
	}
	if cl.iface {
		return nil, errors.Wrapf(errors.ErrNotInstantiable, "%s is an interface", name)
	}
	if cl.err != nil {
		return nil, errors.Wrapf(cl.err, "reflect %s", name)
	}

	svc := &Service{Class: cl.name, Tags: c.tagsLocked(cl)}
	for _, f := range cl.fields {
		d := c.factory.Resolve(f.hint)
		if f.nullable {
			d = c.factory.Nullable(d)
		}
		svc.Parameters = append(svc.Parameters, Parameter{
			Name:     f.name,
			Type:     d,
			Optional: f.optional,
			Default:  f.def,
		})
	}
	for _, s := range cl.setters {
		svc.Setters = append(svc.Setters, Setter{Method: s.method, Type: c.factory.Resolve(s.hint)})
	}
	return svc, nil
}

// tagsLocked lists the registered interfaces *T implements, in registration order.
func (c *Catalog) tagsLocked(cl *class) []string {
	pt := reflect.PointerTo(cl.typ)
	var tags []string
	for _, o := range c.order {
		if o.iface && pt.Implements(o.typ) {
			tags = append(tags, o.name)
		}
	}
	return tags
}

// Supertypes returns every name candidate is a subtype of: embedded structs
// (transitively) followed by implemented interfaces.
func (c *Catalog) Supertypes(name string) []string {
	c.mu.RLock()
	if c.supers != nil {
		out := c.supers[name]
		c.mu.RUnlock()
		return out
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.supers == nil {
		c.supers = make(map[string][]string, len(c.order))
		for _, cl := range c.order {
			c.supers[cl.name] = c.supertypesLocked(cl)
		}
	}
	return c.supers[name]
}

func (c *Catalog) supertypesLocked(cl *class) []string {
	if cl.iface {
		var out []string
		for _, o := range c.order {
			if o != cl && o.iface && cl.typ.Implements(o.typ) {
				out = append(out, o.name)
			}
		}
		return out
	}
	return lo.Uniq(append(c.embeddedLocked(cl.typ), c.tagsLocked(cl)...))
}

func (c *Catalog) embeddedLocked(t reflect.Type) []string {
	var out []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		et := deref(f.Type)
		if et.Kind() != reflect.Struct {
			continue
		}
		if cl, ok := c.byType[et]; ok {
			out = append(out, cl.name)
		}
		out = append(out, c.embeddedLocked(et)...)
	}
	return out
}

// IsSubtypeOf reports whether candidate equals required, embeds it or
// implements it.
func (c *Catalog) IsSubtypeOf(candidate, required string) bool {
	if candidate == required {
		return true
	}
	return lo.Contains(c.Supertypes(candidate), required)
}

// ── Instantiation ─────────────────────────────────────────────────────────────

// Instantiate allocates a new *T and assigns args to the matching fields.
func (c *Catalog) Instantiate(name string, args map[string]any) (any, error) {
	c.mu.RLock()
	cl, ok := c.classes[name]
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(errors.ErrUnknownClass, "instantiate %s", name)
	}
	if cl.iface {
		return nil, errors.Wrapf(errors.ErrNotInstantiable, "instantiate %s", name)
	}

	byName := lo.KeyBy(cl.fields, func(f field) string { return f.name })
	ptr := reflect.New(cl.typ)
	for key, arg := range args {
		f, ok := byName[key]
		if !ok {
			return nil, errors.Errorf("instantiate %s: unknown parameter %q", name, key)
		}
		fv, err := fieldByIndex(ptr.Elem(), f.index)
		if err != nil {
			return nil, errors.Wrapf(err, "instantiate %s: parameter %q", name, key)
		}
		v, err := convert(arg, fv.Type())
		if err != nil {
			return nil, errors.Wrapf(err, "instantiate %s: parameter %q", name, key)
		}
		fv.Set(v)
	}
	return ptr.Interface(), nil
}

// Invoke calls method on instance with arg. A non-nil trailing error result
// is returned.
func (c *Catalog) Invoke(instance any, method string, arg any) error {
	m := reflect.ValueOf(instance).MethodByName(method)
	if !m.IsValid() {
		return errors.Errorf("%T has no method %s", instance, method)
	}
	mt := m.Type()
	if mt.NumIn() != 1 {
		return errors.Errorf("%T.%s does not take exactly one argument", instance, method)
	}
	v, err := convert(arg, mt.In(0))
	if err != nil {
		return errors.Wrapf(err, "invoke %T.%s", instance, method)
	}
	out := m.Call([]reflect.Value{v})
	if n := len(out); n > 0 && mt.Out(n-1) == errorType && !out[n-1].IsNil() {
		return out[n-1].Interface().(error)
	}
	return nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func typeOf(v any) (reflect.Type, error) {
	if t, ok := v.(reflect.Type); ok {
		return t, nil
	}
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, &errors.ConfigurationError{Reason: "cannot register a nil value"}
	}
	return t, nil
}

func deref(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func qualifiedName(t reflect.Type) string {
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// settablePath reports whether a promoted field can be reached without going
// through an unexported embedded pointer.
func settablePath(t reflect.Type, index []int) bool {
	cur := t
	for _, x := range index[:len(index)-1] {
		sf := cur.Field(x)
		ft := sf.Type
		if ft.Kind() == reflect.Pointer {
			if !sf.IsExported() {
				return false
			}
			ft = ft.Elem()
		}
		cur = ft
	}
	return true
}

func fieldByIndex(v reflect.Value, index []int) (reflect.Value, error) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, errors.Errorf("cannot allocate embedded %s", v.Type())
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, nil
}

func isClassHint(hint string) bool {
	return !types.IsBuiltInName(hint) && !strings.ContainsAny(hint, "<>")
}
