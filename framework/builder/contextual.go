package builder

import "github.com/km-arc/go-autowire/framework/dependency"

// ContextualBuilder implements the fluent contextual parameter API.
//
//	b.When("main.PhotoController").Needs("storage").GiveReference("main.S3Storage")
//	b.When("main.PhotoController").Needs("root").Give("/tmp/photos")
type ContextualBuilder struct {
	builder   *Builder
	className string
	needs     string
}

// Needs names the parameter of the class being configured.
func (c *ContextualBuilder) Needs(parameter string) *ContextualBuilder {
	c.needs = parameter
	return c
}

// Give fixes the parameter to value. A dependency.Dependency is resolved
// from the container.
func (c *ContextualBuilder) Give(value any) {
	c.builder.SetParameter(c.needs, value, c.className)
}

// GiveFunc computes the parameter once, from the built container.
func (c *ContextualBuilder) GiveFunc(fn dependency.Func) {
	c.Give(dependency.NewPersistentCallback(fn))
}

// GiveReference resolves the parameter from another identifier.
func (c *ContextualBuilder) GiveReference(id string) {
	c.Give(dependency.NewReference(id))
}
