// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package lua_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxstudio/fluxstudio/internal/plugin"
	"github.com/fluxstudio/fluxstudio/internal/plugin/capability"
	pluginlua "github.com/fluxstudio/fluxstudio/internal/plugin/lua"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

var allCaps = []string{"register.*"}

func writePlugin(t *testing.T, code string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte(code), 0o600))
	return dir
}

func manifest(name string, caps ...string) *plugin.Manifest {
	return &plugin.Manifest{
		Name:         name,
		Version:      "1.0.0",
		Type:         plugin.TypeLua,
		Capabilities: caps,
		LuaPlugin:    &plugin.LuaConfig{Entry: "main.lua"},
	}
}

func newHost(t *testing.T, opts ...pluginlua.Option) *pluginlua.Host {
	t.Helper()
	h := pluginlua.NewHost(opts...)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h
}

func TestHost_LoadDeclaresBundle(t *testing.T) {
	dir := writePlugin(t, `
fluxstudio.register_category{ id = "furniture", name = "Furniture", icon = "chair" }
fluxstudio.register_object{
  type = "furniture.crate",
  name = "Crate",
  category = "furniture",
  tags = {"wood"},
  defaults = { position = {0, 1, 0}, state = { label = "fragile" } },
  physics = { kind = "dynamic", mass = 4, shape = { kind = "box", halfExtents = {0.5, 0.5, 0.5} } },
}
`)
	h := newHost(t)
	p, err := h.Load(context.Background(), manifest("crates", allCaps...), dir)
	require.NoError(t, err)

	assert.Equal(t, "crates", p.Name)
	assert.Equal(t, "1.0.0", p.Version)
	require.Equal(t, []registry.Category{{ID: "furniture", Name: "Furniture", Icon: "chair"}}, p.Categories)
	require.Len(t, p.Objects, 1)

	def := p.Objects[0]
	assert.Equal(t, "furniture.crate", def.Key())
	assert.Equal(t, "Crate", def.Metadata.Name)
	assert.Equal(t, []string{"wood"}, def.Metadata.Tags)
	require.NotNil(t, def.Config.Defaults.Position)
	assert.Equal(t, geom.Vector3{X: 0, Y: 1, Z: 0}, *def.Config.Defaults.Position)
	assert.Equal(t, "fragile", def.Config.Defaults.State["label"])

	phys := def.Config.Interaction.Physics
	require.NotNil(t, phys)
	assert.Equal(t, registry.BodyDynamic, phys.Kind)
	assert.InDelta(t, 4.0, phys.Mass, 1e-9)
	require.NotNil(t, phys.Shape)
	assert.Equal(t, geom.ShapeBox, phys.Shape.Kind)

	assert.Equal(t, []string{"crates"}, h.Plugins())
}

func TestHost_RegisterSchema(t *testing.T) {
	dir := writePlugin(t, `
fluxstudio.register_object{ type = "lighting.lamp" }
fluxstudio.register_schema("lighting.lamp", {
  properties = {
    { key = "intensity", type = "number", default = 1, min = 0, max = 10 },
    { key = "mode", type = "select", options = { { label = "Warm", value = "warm" } } },
  },
})
`)
	h := newHost(t)
	p, err := h.Load(context.Background(), manifest("lamps", allCaps...), dir)
	require.NoError(t, err)

	schema, ok := p.Schemas["lighting.lamp"]
	require.True(t, ok)
	assert.Equal(t, "lighting.lamp", schema.Name())
	assert.Equal(t, "1.0.0", schema.Version())

	intensity, ok := schema.Definition("intensity")
	require.True(t, ok)
	require.NotNil(t, intensity.Max)
	assert.InDelta(t, 10.0, *intensity.Max, 1e-9)
	assert.Equal(t, "intensity", intensity.Label)

	mode, ok := schema.Definition("mode")
	require.True(t, ok)
	require.Len(t, mode.Options, 1)
	assert.Equal(t, "warm", mode.Options[0].Value)
}

func TestHost_InitializeAddsObjects(t *testing.T) {
	dir := writePlugin(t, `
calls = 0
function initialize()
  calls = calls + 1
  fluxstudio.register_object{ type = "late.sphere" }
end
`)
	h := newHost(t)
	p, err := h.Load(context.Background(), manifest("late", allCaps...), dir)
	require.NoError(t, err)
	assert.Empty(t, p.Objects)

	require.NotNil(t, p.Initialize)
	require.NoError(t, p.Initialize(context.Background()))
	require.Len(t, p.Objects, 1)
	assert.Equal(t, "late.sphere", p.Objects[0].Key())
}

func TestHost_InitializeIsOptional(t *testing.T) {
	h := newHost(t)
	p, err := h.Load(context.Background(), manifest("quiet"), writePlugin(t, `x = 1`))
	require.NoError(t, err)
	assert.NoError(t, p.Initialize(context.Background()))
}

func TestHost_InitializeError(t *testing.T) {
	h := newHost(t)
	p, err := h.Load(context.Background(), manifest("broken"), writePlugin(t, `
function initialize() error("boom") end
`))
	require.NoError(t, err)
	err = p.Initialize(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestHost_CapabilityDenied(t *testing.T) {
	tests := []struct {
		name string
		caps []string
		code string
	}{
		{"no grants", nil, `fluxstudio.register_object{ type = "a.b" }`},
		{"category only", []string{capability.RegisterCategory}, `fluxstudio.register_object{ type = "a.b" }`},
		{"schema denied", []string{capability.RegisterObject}, `fluxstudio.register_schema("a.b", { properties = {} })`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost(t)
			_, err := h.Load(context.Background(), manifest("denied", tt.caps...), writePlugin(t, tt.code))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "capability denied")
			assert.Empty(t, h.Plugins())
			assert.Nil(t, h.Enforcer().Grants("denied"))
		})
	}
}

func TestHost_LoadErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"syntax error", `this is not lua`},
		{"runtime error", `error("nope")`},
		{"missing type", `fluxstudio.register_object{ name = "x" }`},
		{"bad shape", `fluxstudio.register_object{ type = "a.b", physics = { shape = { kind = "teapot" } } }`},
		{"bad property type", `fluxstudio.register_schema("a.b", { properties = { { key = "k", type = "nope" } } })`},
		{"blocked library", `os.remove("x")`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHost(t)
			_, err := h.Load(context.Background(), manifest("bad", allCaps...), writePlugin(t, tt.code))
			assert.Error(t, err)
			assert.Empty(t, h.Plugins())
		})
	}
}

func TestHost_MissingEntryFile(t *testing.T) {
	h := newHost(t)
	_, err := h.Load(context.Background(), manifest("ghost"), t.TempDir())
	assert.Error(t, err)
}

func TestHost_CallTimeout(t *testing.T) {
	h := newHost(t, pluginlua.WithCallTimeout(50*time.Millisecond))
	start := time.Now()
	_, err := h.Load(context.Background(), manifest("spin"), writePlugin(t, `while true do end`))
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHost_LogGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := newHost(t, pluginlua.WithLogger(logger))

	_, err := h.Load(context.Background(), manifest("chatty"), writePlugin(t, `fluxstudio.log("warn", "hello from lua")`))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello from lua")
	assert.Contains(t, buf.String(), "plugin=chatty")
}

func TestHost_UnloadAndClose(t *testing.T) {
	h := newHost(t)
	ctx := context.Background()
	p, err := h.Load(ctx, manifest("temp", allCaps...), writePlugin(t, `function initialize() end`))
	require.NoError(t, err)
	assert.NotEmpty(t, h.Enforcer().Grants("temp"))

	require.NoError(t, h.Unload(ctx, "temp"))
	assert.Empty(t, h.Plugins())
	assert.Nil(t, h.Enforcer().Grants("temp"))
	assert.Error(t, p.Initialize(ctx))
	assert.Error(t, h.Unload(ctx, "temp"))

	require.NoError(t, h.Close(ctx))
	_, err = h.Load(ctx, manifest("after"), writePlugin(t, `x = 1`))
	assert.Error(t, err)
}

func TestHost_ReloadReplacesState(t *testing.T) {
	h := newHost(t)
	ctx := context.Background()
	m := manifest("twice", allCaps...)

	first, err := h.Load(ctx, m, writePlugin(t, `fluxstudio.register_object{ type = "v.one" }`))
	require.NoError(t, err)
	second, err := h.Load(ctx, m, writePlugin(t, `fluxstudio.register_object{ type = "v.two" }`))
	require.NoError(t, err)

	assert.Equal(t, "v.one", first.Objects[0].Key())
	assert.Equal(t, "v.two", second.Objects[0].Key())
	assert.Equal(t, []string{"twice"}, h.Plugins())
	assert.Error(t, first.Initialize(ctx))
	assert.NoError(t, second.Initialize(ctx))
}
