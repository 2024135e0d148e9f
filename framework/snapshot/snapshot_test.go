package snapshot_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/reflection"
	"github.com/km-arc/go-autowire/framework/snapshot"
	"github.com/km-arc/go-autowire/framework/types"
	"github.com/km-arc/go-autowire/internal/fixtures"
)

func reflectAll(t *testing.T, classes ...string) []*reflection.Service {
	t.Helper()
	cat := fixtures.NewCatalog()
	out := make([]*reflection.Service, 0, len(classes))
	for _, class := range classes {
		svc, err := cat.Reflect(class)
		require.NoError(t, err)
		out = append(out, svc)
	}
	return out
}

func TestEncodeDecode(t *testing.T) {
	services := reflectAll(t, fixtures.ConfigClass, fixtures.AwesomeRendererClass, "fixtures.AnnotatedTest")

	b, err := snapshot.Encode(services)
	require.NoError(t, err)

	decoded, err := snapshot.Decode(b, types.NewFactory())
	require.NoError(t, err)
	require.Len(t, decoded, len(services))

	for i, want := range services {
		got := decoded[i]
		assert.Equal(t, want.Class, got.Class)
		assert.Equal(t, want.Tags, got.Tags)
		require.Len(t, got.Parameters, len(want.Parameters), want.Class)
		for j, p := range want.Parameters {
			assert.Equal(t, p.Name, got.Parameters[j].Name)
			assert.True(t, p.Type.Equal(got.Parameters[j].Type), "%s: %s != %s", p.Name, p.Type, got.Parameters[j].Type)
			assert.Equal(t, p.Optional, got.Parameters[j].Optional)
			assert.EqualValues(t, p.Default, got.Parameters[j].Default)
		}
		require.Len(t, got.Setters, len(want.Setters))
		for j, s := range want.Setters {
			assert.Equal(t, s.Method, got.Setters[j].Method)
			assert.Equal(t, s.Type.String(), got.Setters[j].Type.String())
		}
	}
}

func TestEncode_Format(t *testing.T) {
	b, err := snapshot.Encode(reflectAll(t, fixtures.CacheClass))
	require.NoError(t, err)

	assert.Contains(t, string(b), "version: 1")
	assert.Contains(t, string(b), "class: fixtures.Cache")
	assert.Contains(t, string(b), "type: fixtures.Config")
}

func TestDecode_KeepsNullability(t *testing.T) {
	services, err := snapshot.Decode([]byte(`
version: 1
services:
  - class: fixtures.NullableCacheable
    parameters:
      - name: cache
        type: "?fixtures.Cache"
        optional: true
`), types.NewFactory())
	require.NoError(t, err)

	p := services[0].Parameters[0]
	assert.True(t, p.Type.IsNullable())
	assert.True(t, p.Type.IsClassName())
	assert.Equal(t, fixtures.CacheClass, p.Type.Name())
}

func TestDecode_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		err  string
	}{
		{"version", "version: 2\nservices: []\n", "unsupported snapshot version 2"},
		{"missing version", "services: []\n", "unsupported snapshot version 0"},
		{"no class", "version: 1\nservices:\n  - tags: [a]\n", "snapshot service 0 has no class"},
		{"syntax", "version: [\n", "failed to decode snapshot"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snapshot.Decode([]byte(tt.doc), types.NewFactory())
			assert.ErrorContains(t, err, tt.err)
		})
	}
}

func TestSchema(t *testing.T) {
	b, err := snapshot.Schema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(b, &schema))
	assert.Equal(t, "autowire service snapshot", schema["title"])
	assert.Contains(t, string(b), `"services"`)
	assert.Contains(t, string(b), `"class"`)
}
