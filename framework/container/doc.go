// Package container holds the containers that serve wired object graphs.
//
// # Built containers
//
// A Container is produced by the builder: a fixed identifier → dependency
// map. Identifiers are class names, tag (interface) names and the synthetic
// collection identifiers "array<Tag>" and "iterable<Tag>".
//
//	b := builder.New()
//	b.Add("app.Mailer")
//	c, err := b.Build(ctx)
//	mailer, err := container.Resolve[*app.Mailer](c, "app.Mailer")
//
// Resolution passes the in-flight chain of identifiers down to nested
// lookups, so a dependency cycle fails with a CircularDependencyError
// instead of recursing forever.
//
// # Plain containers
//
// Array serves fixed values and Null serves nothing; both satisfy
// dependency.Container and are handy in tests:
//
//	v, err := container.Array{"config": cfg}.Get("config")
//
// # Registry
//
// Registry is the in-place variant: classes are registered one at a time and
// wired right away against previously registered classes.
//
//	r := container.NewRegistry(catalog)
//	r.Register("app.Config", true)
//	r.Register("app.Cache", true)   // Config is injected
//	r.RegisterInstance(&app.Clock{})
//	cache, err := r.Get("app.Cache")
//
// A lookup returns the most recently registered class that is the requested
// class or one of its subtypes (embedding or interface implementation).
package container
