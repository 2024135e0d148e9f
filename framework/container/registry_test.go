package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/errors"
	"github.com/km-arc/go-autowire/internal/fixtures"
	"github.com/km-arc/go-autowire/internal/fixtures/service/importer"
)

func newRegistry(t *testing.T, classes ...string) *container.Registry {
	t.Helper()
	r := container.NewRegistry(fixtures.NewCatalog())
	for _, class := range classes {
		_, err := r.Register(class, true)
		require.NoError(t, err, class)
	}
	return r
}

// ── Round trip ────────────────────────────────────────────────────────────────

func TestRegistry_RoundTrip(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass, fixtures.CacheClass, fixtures.AwesomeRendererClass)

	v, err := r.Get(fixtures.RendererClass)
	require.NoError(t, err)

	renderer, ok := v.(*fixtures.AwesomeRenderer)
	require.True(t, ok, "got %T", v)
	assert.Equal(t, "fixtures.AwesomeRenderer", renderer.Render())

	cfg, err := container.Resolve[*fixtures.Config](r, fixtures.ConfigClass)
	require.NoError(t, err)
	cache, err := container.Resolve[*fixtures.Cache](r, fixtures.CacheClass)
	require.NoError(t, err)

	assert.Same(t, cfg, renderer.GetConfig())
	assert.Same(t, cache, renderer.GetCache())
	assert.Same(t, cfg, cache.GetConfig())
	assert.Equal(t, "app", cfg.Name)
}

// ── Registration ──────────────────────────────────────────────────────────────

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass)

	_, err := r.Register(fixtures.ConfigClass, false)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	assert.Len(t, r.Dependencies(), 1)
}

func TestRegistry_Register_MissingRequiredArgument(t *testing.T) {
	r := container.NewRegistry(fixtures.NewCatalog())

	_, err := r.Register(fixtures.CacheClass, true)
	require.ErrorIs(t, err, errors.ErrWiring)

	var wiring *errors.WiringError
	require.ErrorAs(t, err, &wiring)
	assert.Equal(t, fixtures.CacheClass, wiring.ID)
	assert.Equal(t, "config", wiring.Parameter)
	assert.Empty(t, r.Dependencies())
}

func TestRegistry_Register_Interface(t *testing.T) {
	r := container.NewRegistry(fixtures.NewCatalog())

	_, err := r.Register(fixtures.ViewClass, true)
	assert.ErrorIs(t, err, errors.ErrNotInstantiable)
}

func TestRegistry_Register_OptionalArgumentLeftUnwired(t *testing.T) {
	r := newRegistry(t, "fixtures.Cacheable")

	v, err := r.Get("fixtures.Cacheable")
	require.NoError(t, err)
	assert.Nil(t, v.(*fixtures.Cacheable).Cache)
}

func TestRegistry_Transient(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass)
	_, err := r.Register(fixtures.CacheClass, false)
	require.NoError(t, err)

	a, err := r.Get(fixtures.CacheClass)
	require.NoError(t, err)
	b, err := r.Get(fixtures.CacheClass)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Same(t, a.(*fixtures.Cache).GetConfig(), b.(*fixtures.Cache).GetConfig())
}

func TestRegistry_RegisterInstance(t *testing.T) {
	r := container.NewRegistry(fixtures.NewCatalog())
	cfg := &fixtures.Config{Name: "prebuilt"}

	_, err := r.RegisterInstance(cfg)
	require.NoError(t, err)
	_, err = r.Register(fixtures.CacheClass, true)
	require.NoError(t, err)

	cache, err := container.Resolve[*fixtures.Cache](r, fixtures.CacheClass)
	require.NoError(t, err)
	assert.Same(t, cfg, cache.GetConfig())

	_, err = r.RegisterInstance(fixtures.Config{})
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	_, err = r.RegisterInstance(&fixtures.Config{})
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestRegistry_RegisterSelf(t *testing.T) {
	r := container.NewRegistry(fixtures.NewCatalog())

	e, err := r.RegisterSelf()
	require.NoError(t, err)

	v, err := r.Get(e.ClassName())
	require.NoError(t, err)
	assert.Same(t, r, v)
}

// ── Lookup ────────────────────────────────────────────────────────────────────

func TestRegistry_FindDependency_LatestSubtypeWins(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass, fixtures.RendererClass, fixtures.AwesomeRendererClass)

	assert.Equal(t, fixtures.AwesomeRendererClass, r.FindDependency(fixtures.RendererClass).ClassName())
	assert.Equal(t, fixtures.AwesomeRendererClass, r.FindDependency(fixtures.AwesomeRendererClass).ClassName())
	assert.Equal(t, fixtures.ConfigClass, r.FindDependency(fixtures.ConfigClass).ClassName())
	assert.Equal(t, fixtures.AwesomeRendererClass, r.FindDependency(fixtures.ViewClass).ClassName())
	assert.Equal(t, fixtures.AwesomeRendererClass, r.FindDependency(fixtures.ServiceClass).ClassName())

	v, err := r.Get(fixtures.RendererClass)
	require.NoError(t, err)
	assert.IsType(t, &fixtures.AwesomeRenderer{}, v)
}

func TestRegistry_FindDependency_SubtypeBeforeParent(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass, fixtures.AwesomeRendererClass, fixtures.RendererClass)

	assert.Equal(t, fixtures.RendererClass, r.FindDependency(fixtures.RendererClass).ClassName())
	assert.Equal(t, fixtures.AwesomeRendererClass, r.FindDependency(fixtures.AwesomeRendererClass).ClassName())
}

func TestRegistry_FindDependency_LaterRegistrationInvalidatesMemo(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass)

	assert.Nil(t, r.FindDependency(fixtures.ServiceClass))
	assert.False(t, r.Has(fixtures.ServiceClass))

	_, err := r.Register(fixtures.CacheClass, true)
	require.NoError(t, err)

	require.NotNil(t, r.FindDependency(fixtures.ServiceClass))
	assert.Equal(t, fixtures.CacheClass, r.FindDependency(fixtures.ServiceClass).ClassName())

	_, err = r.Register(fixtures.AwesomeRendererClass, true)
	require.NoError(t, err)
	assert.Equal(t, fixtures.AwesomeRendererClass, r.FindDependency(fixtures.ServiceClass).ClassName())
}

func TestRegistry_Get_NotFound(t *testing.T) {
	r := container.NewRegistry(fixtures.NewCatalog())

	_, err := r.Get(fixtures.ConfigClass)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

// ── Entries ───────────────────────────────────────────────────────────────────

func TestEntry_SetRejectsIncompatibleValue(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass, fixtures.CacheClass)
	cache := r.FindDependency(fixtures.CacheClass)
	imp, err := r.RegisterInstance(&importer.UserImporter{})
	require.NoError(t, err)

	err = cache.Set("config", imp)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	assert.ErrorContains(t, err, "is not a valid fixtures.Config")

	err = cache.Set("missing", imp)
	assert.ErrorContains(t, err, "has no constructor argument called missing")

	err = cache.Call("SetMissing", imp)
	assert.ErrorContains(t, err, "has no setter called SetMissing")
}

func TestEntry_ArgsAndSetters(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass, fixtures.CacheClass, fixtures.AwesomeRendererClass)
	e := r.FindDependency(fixtures.AwesomeRendererClass)

	require.Len(t, e.Args(), 1)
	assert.Equal(t, "config", e.Args()[0].Name)
	assert.Equal(t, fixtures.ConfigClass, e.Args()[0].Value.ClassName())

	require.Len(t, e.Setters(), 1)
	assert.Equal(t, "SetCache", e.Setters()[0].Name)
	assert.Equal(t, fixtures.CacheClass, e.Setters()[0].Value.ClassName())
	assert.True(t, e.Persistent())
}

func TestRegistry_AfterResolving(t *testing.T) {
	r := newRegistry(t, fixtures.ConfigClass)
	var resolved []string
	r.AfterResolving(func(className string, _ any) { resolved = append(resolved, className) })

	_, err := r.Get(fixtures.ConfigClass)
	require.NoError(t, err)

	assert.Equal(t, []string{fixtures.ConfigClass}, resolved)
}
