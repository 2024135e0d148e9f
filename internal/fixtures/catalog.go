package fixtures

import (
	"github.com/km-arc/go-autowire/framework/reflection"
	"github.com/km-arc/go-autowire/internal/fixtures/service"
	"github.com/km-arc/go-autowire/internal/fixtures/service/importer"
)

// Class names of the fixture types.
const (
	ConfigClass          = "fixtures.Config"
	ServiceClass         = "fixtures.Service"
	CacheClass           = "fixtures.Cache"
	RendererClass        = "fixtures.Renderer"
	AwesomeRendererClass = "fixtures.AwesomeRenderer"
	ViewClass            = "fixtures.View"
	ParameterTestClass   = "fixtures.ParameterTest"
	MultiParameterClass  = "fixtures.MultiParameterTest"
	ImporterClass        = "service.Importer"
	ImportManagerClass   = "service.ImportManager"
	UserImporterClass    = "importer.UserImporter"
)

// NewCatalog returns a catalog that knows every fixture type, playing the
// part of an autoloader for located class names.
func NewCatalog(opts ...reflection.Option) *reflection.Catalog {
	c := reflection.NewCatalog(opts...)
	for _, v := range []any{
		(*View)(nil),
		(*service.Importer)(nil),
		(*Speaker)(nil),
		(*Plugin)(nil),
		(*Widget)(nil),
		Config{},
		Service{},
		Cache{},
		Renderer{},
		AwesomeRenderer{},
		ParameterTest{},
		MultiParameterTest{},
		AnnotatedTest{},
		Chicken{},
		Cacheable{},
		NullableCacheable{},
		Parrot{},
		Perch{},
		Hub{},
		AuditPlugin{},
		Panel{},
		Clock{},
		service.ImportManager{},
		importer.AttributeImporter{},
		importer.CommodityImporter{},
		importer.ProductImporter{},
		importer.UserImporter{},
	} {
		c.MustRegister(v)
	}
	return c
}
