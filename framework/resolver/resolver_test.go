package resolver_test

import (
	"context"
	"iter"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/dependency"
	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/framework/reflection"
	"github.com/km-arc/go-autowire/framework/resolver"
	"github.com/km-arc/go-autowire/internal/fixtures"
	"github.com/km-arc/go-autowire/internal/fixtures/service"
	"github.com/km-arc/go-autowire/internal/fixtures/service/importer"
)

// located mirrors what a directory locator reports for the service fixtures.
var located = []string{
	"importer.AttributeImporter",
	"importer.CommodityImporter",
	"importer.ProductImporter",
	fixtures.UserImporterClass,
	fixtures.ImporterClass,
	fixtures.ImportManagerClass,
}

func build(t *testing.T, req resolver.Request, opts ...resolver.Option) *container.Container {
	t.Helper()
	deps, err := resolver.New(fixtures.NewCatalog(), opts...).Resolve(context.Background(), req)
	require.NoError(t, err)
	return container.New(deps)
}

// ── Discovery ─────────────────────────────────────────────────────────────────

func TestResolver_Candidates_LastAddedFirst(t *testing.T) {
	r := resolver.New(fixtures.NewCatalog())

	got := r.Candidates(resolver.Request{
		Roots:   []string{fixtures.ConfigClass, fixtures.CacheClass},
		Located: []string{fixtures.ConfigClass, "unknown.Thing", fixtures.UserImporterClass},
		Dependencies: []resolver.Binding{
			{ID: "greeting", Dependency: dependency.NewValue("hi")},
			{ID: fixtures.RendererClass, Dependency: dependency.NewValue(nil)},
		},
	})

	assert.Equal(t, []string{
		fixtures.RendererClass,
		fixtures.UserImporterClass,
		fixtures.ConfigClass,
		fixtures.CacheClass,
	}, got)
}

func TestResolver_Discover_FollowsParameterTypes(t *testing.T) {
	r := resolver.New(fixtures.NewCatalog())

	services, err := r.Discover(context.Background(), resolver.Request{Roots: []string{fixtures.CacheClass}})
	require.NoError(t, err)

	classes := lo.Map(services, func(s *reflection.Service, _ int) string { return s.Class })
	assert.Equal(t, []string{fixtures.CacheClass, fixtures.ConfigClass}, classes)
}

func TestResolver_Discover_InterfaceRoot(t *testing.T) {
	r := resolver.New(fixtures.NewCatalog())

	_, err := r.Discover(context.Background(), resolver.Request{Roots: []string{fixtures.ViewClass}})
	require.ErrorIs(t, err, errors.ErrConfiguration)
	assert.ErrorContains(t, err, "is not instantiable")
}

func TestResolver_Discover_UnknownRoot(t *testing.T) {
	r := resolver.New(fixtures.NewCatalog())

	_, err := r.Discover(context.Background(), resolver.Request{Roots: []string{"nope.Missing"}})
	assert.ErrorIs(t, err, errors.ErrUnknownClass)
}

func TestResolver_Discover_Cancelled(t *testing.T) {
	r := resolver.New(fixtures.NewCatalog())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Discover(ctx, resolver.Request{Roots: []string{fixtures.ConfigClass}})
	assert.ErrorIs(t, err, context.Canceled)
}

// ── Tags ──────────────────────────────────────────────────────────────────────

func TestResolver_TagFanOut(t *testing.T) {
	c := build(t, resolver.Request{Located: located})

	user, err := c.Get(fixtures.UserImporterClass)
	require.NoError(t, err)
	assert.IsType(t, &importer.UserImporter{}, user)

	anyImporter, err := container.Resolve[service.Importer](c, fixtures.ImporterClass)
	require.NoError(t, err)
	assert.NotEmpty(t, anyImporter.Import())

	all, err := c.Get(resolver.ArrayID(fixtures.ImporterClass))
	require.NoError(t, err)
	names := lo.Map(all.([]any), func(v any, _ int) string { return v.(service.Importer).Import() })
	assert.Equal(t, []string{"user", "product", "commodity", "attribute"}, names)

	manager, err := container.Resolve[*service.ImportManager](c, fixtures.ImportManagerClass)
	require.NoError(t, err)
	assert.Len(t, manager.GetImporterArray(), 4)

	count := 0
	for imp, err := range manager.GetImporterIterable() {
		require.NoError(t, err)
		assert.NotNil(t, imp)
		count++
	}
	assert.Equal(t, 4, count)
}

func TestResolver_TagFanOut_SharesInstances(t *testing.T) {
	c := build(t, resolver.Request{Located: located})

	user, err := c.Get(fixtures.UserImporterClass)
	require.NoError(t, err)
	all, err := c.Get(resolver.ArrayID(fixtures.ImporterClass))
	require.NoError(t, err)

	assert.Same(t, user, all.([]any)[0])
}

func TestResolver_Iterable_IsLazyAndStoppable(t *testing.T) {
	c := build(t, resolver.Request{Located: located})

	v, err := c.Get(resolver.IterableID(fixtures.ImporterClass))
	require.NoError(t, err)
	seq, ok := v.(iter.Seq2[any, error])
	require.True(t, ok, "got %T", v)

	var first any
	for item, err := range seq {
		require.NoError(t, err)
		first = item
		break
	}
	assert.IsType(t, &importer.UserImporter{}, first)
}

// ── Parameters ────────────────────────────────────────────────────────────────

func TestResolver_SetParameter(t *testing.T) {
	params := resolver.Parameters{}
	params.Set(resolver.GlobalScope, "stringValue", "some value")
	c := build(t, resolver.Request{Roots: []string{fixtures.ParameterTestClass}, Parameters: params})

	v, err := container.Resolve[*fixtures.ParameterTest](c, fixtures.ParameterTestClass)
	require.NoError(t, err)
	assert.Equal(t, "some value", v.StringValue)
}

func TestResolver_SetParameter_OtherClassScopeIgnored(t *testing.T) {
	params := resolver.Parameters{}
	params.Set(resolver.GlobalScope, "stringValue", "some value")
	params.Set(fixtures.ConfigClass, "stringValue", "some other value")
	c := build(t, resolver.Request{Roots: []string{fixtures.ParameterTestClass}, Parameters: params})

	v, err := container.Resolve[*fixtures.ParameterTest](c, fixtures.ParameterTestClass)
	require.NoError(t, err)
	assert.Equal(t, "some value", v.StringValue)
}

func TestResolver_SetParameter_ClassScopeWins(t *testing.T) {
	params := resolver.Parameters{}
	params.Set(fixtures.ParameterTestClass, "stringValue", "some other value")
	params.Set(resolver.GlobalScope, "stringValue", "some value")
	c := build(t, resolver.Request{Roots: []string{fixtures.ParameterTestClass}, Parameters: params})

	v, err := container.Resolve[*fixtures.ParameterTest](c, fixtures.ParameterTestClass)
	require.NoError(t, err)
	assert.Equal(t, "some other value", v.StringValue)
}

func TestResolver_SetParameters(t *testing.T) {
	params := resolver.Parameters{}
	for name, value := range map[string]any{
		"stringValue": "some value",
		"intValue":    14,
		"floatValue":  12.2,
		"arrayValue":  []int{1, 2, 3},
	} {
		params.Set(resolver.GlobalScope, name, value)
	}
	c := build(t, resolver.Request{Roots: []string{fixtures.MultiParameterClass}, Parameters: params})

	v, err := container.Resolve[*fixtures.MultiParameterTest](c, fixtures.MultiParameterClass)
	require.NoError(t, err)
	assert.Equal(t, "some value", v.StringValue)
	assert.Equal(t, 14, v.IntValue)
	assert.Equal(t, 12.2, v.FloatValue)
	assert.Equal(t, []int{1, 2, 3}, v.ArrayValue)
}

func TestResolver_SetParameter_DependencyValue(t *testing.T) {
	params := resolver.Parameters{}
	params.Set(fixtures.ParameterTestClass, "stringValue", dependency.NewReference("name"))
	c := build(t, resolver.Request{
		Roots:        []string{fixtures.ParameterTestClass},
		Parameters:   params,
		Dependencies: []resolver.Binding{{ID: "name", Dependency: dependency.NewValue("from container")}},
	})

	v, err := container.Resolve[*fixtures.ParameterTest](c, fixtures.ParameterTestClass)
	require.NoError(t, err)
	assert.Equal(t, "from container", v.StringValue)
}

func TestApplyParameters_UnknownNamesIgnored(t *testing.T) {
	svc, err := fixtures.NewCatalog().Reflect(fixtures.ParameterTestClass)
	require.NoError(t, err)

	params := resolver.Parameters{}
	params.Set(resolver.GlobalScope, "nothing", 1)

	assert.Same(t, svc, resolver.ApplyParameters(svc, params))
}

func TestResolver_MissingScalarParameter(t *testing.T) {
	_, err := resolver.New(fixtures.NewCatalog()).Resolve(context.Background(), resolver.Request{
		Roots: []string{fixtures.ParameterTestClass},
	})
	require.ErrorIs(t, err, errors.ErrConfiguration)

	var cfgErr *errors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, fixtures.ParameterTestClass, cfgErr.Class)
	assert.Equal(t, "stringValue", cfgErr.Parameter)
	assert.ErrorContains(t, err, `SetParameter("stringValue"`)
}

// ── Class parameters ──────────────────────────────────────────────────────────

func TestResolver_DefaultsAndSharedInstances(t *testing.T) {
	c := build(t, resolver.Request{Roots: []string{fixtures.AwesomeRendererClass, fixtures.CacheClass}})

	renderer, err := container.Resolve[fixtures.View](c, fixtures.ViewClass)
	require.NoError(t, err)
	assert.Equal(t, "fixtures.AwesomeRenderer", renderer.Render())

	cfg, err := container.Resolve[*fixtures.Config](c, fixtures.ConfigClass)
	require.NoError(t, err)
	assert.Equal(t, "app", cfg.Name)
	assert.Same(t, cfg, renderer.(*fixtures.AwesomeRenderer).GetConfig())

	// setters are left alone unless enabled
	assert.Nil(t, renderer.(*fixtures.AwesomeRenderer).GetCache())
}

func TestResolver_SetterInjection(t *testing.T) {
	c := build(t,
		resolver.Request{Roots: []string{fixtures.ConfigClass, fixtures.CacheClass, fixtures.AwesomeRendererClass}},
		resolver.WithSetterInjection(true),
	)

	renderer, err := container.Resolve[*fixtures.AwesomeRenderer](c, fixtures.ViewClass)
	require.NoError(t, err)
	cache, err := container.Resolve[*fixtures.Cache](c, fixtures.CacheClass)
	require.NoError(t, err)

	assert.Same(t, cache, renderer.GetCache())
	assert.Same(t, cache.GetConfig(), renderer.GetConfig())
}

func TestResolver_OptionalClassParameters(t *testing.T) {
	c := build(t, resolver.Request{Roots: []string{"fixtures.Cacheable", "fixtures.NullableCacheable"}})

	plain, err := container.Resolve[*fixtures.Cacheable](c, "fixtures.Cacheable")
	require.NoError(t, err)
	assert.Nil(t, plain.Cache)

	// nullable parameters are wired when the class is available
	nullable, err := container.Resolve[*fixtures.NullableCacheable](c, "fixtures.NullableCacheable")
	require.NoError(t, err)
	require.NotNil(t, nullable.Cache)
	assert.Equal(t, "app", nullable.Cache.GetConfig().Name)
}

func TestResolver_ExplicitDependencyWins(t *testing.T) {
	cfg := &fixtures.Config{Name: "explicit"}
	c := build(t, resolver.Request{
		Roots: []string{fixtures.CacheClass},
		Dependencies: []resolver.Binding{
			{ID: fixtures.ConfigClass, Dependency: dependency.NewValue(cfg)},
			{ID: "greeting", Dependency: dependency.NewValue("hi")},
		},
	})

	cache, err := container.Resolve[*fixtures.Cache](c, fixtures.CacheClass)
	require.NoError(t, err)
	assert.Same(t, cfg, cache.GetConfig())

	v, err := c.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
}

func TestResolver_CircularDependency(t *testing.T) {
	c := build(t, resolver.Request{Roots: []string{"fixtures.Chicken"}})

	_, err := c.Get("fixtures.Chicken")
	require.ErrorIs(t, err, errors.ErrCircularDependency)
	assert.ErrorIs(t, err, errors.ErrWiring)

	var cycle *errors.CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"fixtures.Chicken", "fixtures.Egg", "fixtures.Chicken"}, cycle.Chain)
}

func TestResolver_CircularDependency_ThroughTag(t *testing.T) {
	c := build(t, resolver.Request{Roots: []string{"fixtures.Parrot"}})

	done := make(chan error, 1)
	go func() {
		_, err := c.Get("fixtures.Parrot")
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("resolving fixtures.Parrot blocked instead of reporting the cycle")
	}
	require.ErrorIs(t, err, errors.ErrCircularDependency)

	var cycle *errors.CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"fixtures.Parrot", "fixtures.Perch", "fixtures.Speaker", "fixtures.Parrot"}, cycle.Chain)
}

func TestResolver_Tag_SharesClassInstance(t *testing.T) {
	c := build(t, resolver.Request{Roots: []string{fixtures.CacheClass, fixtures.AwesomeRendererClass}})

	byTag, err := c.Get(fixtures.ViewClass)
	require.NoError(t, err)
	byClass, err := c.Get(fixtures.AwesomeRendererClass)
	require.NoError(t, err)
	assert.Same(t, byClass, byTag)
}

func TestResolver_Iterable_RangedAfterOwnerIsBuilt(t *testing.T) {
	c := build(t, resolver.Request{Roots: []string{"fixtures.AuditPlugin", "fixtures.Hub"}})

	hub, err := container.Resolve[*fixtures.Hub](c, "fixtures.Hub")
	require.NoError(t, err)

	var names []string
	for plugin, err := range hub.Plugins {
		require.NoError(t, err)
		names = append(names, plugin.Name())
		assert.Same(t, hub, plugin.(*fixtures.AuditPlugin).Hub)
	}
	assert.Equal(t, []string{"audit"}, names)

	// a second pass sees the same memoized implementor
	for plugin, err := range hub.Plugins {
		require.NoError(t, err)
		assert.Same(t, hub, plugin.(*fixtures.AuditPlugin).Hub)
	}
}

func TestResolver_Array_CycleIsReported(t *testing.T) {
	c := build(t, resolver.Request{Roots: []string{"fixtures.Clock", "fixtures.Panel"}})

	done := make(chan error, 1)
	go func() {
		_, err := c.Get("fixtures.Panel")
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, errors.ErrCircularDependency)
	case <-time.After(2 * time.Second):
		t.Fatal("resolving fixtures.Panel blocked instead of reporting the cycle")
	}
}

func TestResolver_MissingClassParameter(t *testing.T) {
	cat := fixtures.NewCatalog()
	svc, err := cat.Reflect(fixtures.CacheClass)
	require.NoError(t, err)

	// wire Cache without ever discovering Config
	deps, err := resolver.New(cat).Wire([]*reflection.Service{svc}, resolver.Request{})
	require.NoError(t, err)

	_, err = container.New(deps).Get(fixtures.CacheClass)
	require.ErrorIs(t, err, errors.ErrWiring)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.ErrorContains(t, err, fixtures.ConfigClass+" was not found in container")
}
