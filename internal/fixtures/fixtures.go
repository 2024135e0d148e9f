// Package fixtures holds the struct types the container tests wire together.
package fixtures

import "iter"

// View is implemented by every renderer.
type View interface {
	Render() string
}

type Config struct {
	Name string `default:"app"`
}

type Service struct {
	Config *Config
}

func (s *Service) GetConfig() *Config { return s.Config }

type Cache struct {
	Service
}

type Renderer struct {
	Service
	cache *Cache
}

func (r *Renderer) SetCache(c *Cache) { r.cache = c }

func (r *Renderer) GetCache() *Cache { return r.cache }

func (r *Renderer) Render() string { return "fixtures.Renderer" }

type AwesomeRenderer struct {
	Renderer
}

func (r *AwesomeRenderer) Render() string { return "fixtures.AwesomeRenderer" }

type ParameterTest struct {
	StringValue string
}

type MultiParameterTest struct {
	StringValue string
	IntValue    int
	FloatValue  float64
	ArrayValue  []int
}

// AnnotatedTest mixes plain, annotated and defaulted parameters.
type AnnotatedTest struct {
	SomeView   View
	SomeString string                 `default:"test"`
	SomeViews  iter.Seq2[View, error] `inject:",optional,nullable"`
	Views      []any                  `inject:"views,type=array<fixtures.View>"`
	Retries    int                    `inject:"retries" default:"3"`
	Internal   string                 `inject:"-"`
	hidden     string
}

func (a *AnnotatedTest) Hidden() string { return a.hidden }

type Chicken struct {
	Egg *Egg
}

type Egg struct {
	Chicken *Chicken
}

// Cacheable has an optional, non-nullable class parameter.
type Cacheable struct {
	Cache *Cache `inject:",optional"`
}

// NullableCacheable is Cacheable with a nullable parameter.
type NullableCacheable struct {
	Cache *Cache `inject:",optional,nullable"`
}

// Speaker is implemented by Parrot, whose Perch asks for a Speaker again.
type Speaker interface {
	Speak() string
}

type Parrot struct {
	Perch *Perch
}

func (*Parrot) Speak() string { return "parrot" }

type Perch struct {
	Speaker Speaker
}

// Plugin implementors refer back to the Hub that lists them.
type Plugin interface {
	Name() string
}

type Hub struct {
	Plugins iter.Seq2[Plugin, error]
}

type AuditPlugin struct {
	Hub *Hub
}

func (*AuditPlugin) Name() string { return "audit" }

// Widget implementors need the Panel that materializes them, a real cycle.
type Widget interface {
	Draw() string
}

type Panel struct {
	Widgets []Widget
}

type Clock struct {
	Panel *Panel
}

func (*Clock) Draw() string { return "clock" }
