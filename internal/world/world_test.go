// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package world_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxstudio/fluxstudio/internal/object"
	"github.com/fluxstudio/fluxstudio/internal/plugin"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/internal/world"
	"github.com/fluxstudio/fluxstudio/pkg/errutil"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

func ptr[T any](v T) *T { return &v }

func crate() registry.TypeDefinition {
	return registry.TypeDefinition{
		Metadata: registry.Metadata{Type: "furniture.crate", Name: "Crate", Category: "furniture"},
		Config: registry.Config{
			Defaults: registry.Defaults{Position: ptr(geom.Vec3(0, 5, 0))},
			Interaction: registry.Interaction{Physics: &registry.PhysicsDescriptor{
				Enabled: true,
				Kind:    registry.BodyDynamic,
				Mass:    2,
				Shape:   ptr(geom.Box(geom.Vec3(0.5, 0.5, 0.5))),
			}},
		},
	}
}

func ground() registry.TypeDefinition {
	return registry.TypeDefinition{
		Metadata: registry.Metadata{Type: "basic.ground", Name: "Ground", Category: "basic"},
		Config: registry.Config{
			Interaction: registry.Interaction{Physics: &registry.PhysicsDescriptor{
				Enabled: true,
				Kind:    registry.BodyStatic,
				Shape:   ptr(geom.Box(geom.Vec3(20, 0.5, 20))),
			}},
		},
	}
}

func label() registry.TypeDefinition {
	return registry.TypeDefinition{Metadata: registry.Metadata{Type: "ui.label", Name: "Label", Category: "custom"}}
}

func newWorld(t *testing.T, opts ...world.Option) *world.World {
	t.Helper()
	w, err := world.New(opts...)
	require.NoError(t, err)
	for _, def := range []registry.TypeDefinition{crate(), ground(), label()} {
		require.NoError(t, w.Registry().Register(def))
	}
	t.Cleanup(func() { _ = w.Close(context.Background()) })
	return w
}

func TestWorld_SpawnBuildsRenderableAndBody(t *testing.T) {
	w := newWorld(t)

	obj, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)
	require.NotNil(t, obj.Renderable)
	require.NotNil(t, obj.Body)
	assert.Equal(t, geom.Vec3(0, 5, 0), obj.Renderable.Transform().Position)

	_, ok := w.Engine().Body(obj.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, w.Physics().Len())
	assert.Equal(t, 1, w.Len())

	got, ok := w.Object(obj.ID)
	require.True(t, ok)
	assert.Same(t, obj, got)
}

func TestWorld_SpawnWithoutPhysics(t *testing.T) {
	w := newWorld(t)
	mesh := object.NewMesh(object.PlaneGeometry(1, 1), registry.Material{})

	obj, err := w.Spawn("ui.label", map[string]any{"position": []any{1, 2, 3}}, mesh)
	require.NoError(t, err)
	assert.Same(t, mesh, obj.Renderable)
	assert.Nil(t, obj.Body)
	assert.Equal(t, geom.Vec3(1, 2, 3), mesh.Transform().Position)
	assert.Zero(t, w.Physics().Len())
}

func TestWorld_SpawnUnknownType(t *testing.T) {
	w := newWorld(t)
	obj, err := w.Spawn("nope.nothing", nil, nil)
	assert.Nil(t, obj)
	assert.ErrorIs(t, err, world.ErrUnknownType)
	errutil.AssertErrorCode(t, err, "UNKNOWN_TYPE")
	assert.Zero(t, w.Len())
}

func TestWorld_SpawnPhysicsFailureKeepsNothing(t *testing.T) {
	w := newWorld(t)
	bad := crate()
	bad.Metadata.Type = "broken.crate"
	bad.Config.Interaction.Physics.Shape = ptr(geom.Box(geom.Vec3(0, 0, 0)))
	require.NoError(t, w.Registry().Register(bad))

	mesh := object.NewMesh(object.BoxGeometry(1, 1, 1), registry.Material{})
	_, err := w.Spawn("broken.crate", nil, mesh)
	require.Error(t, err)
	assert.ErrorIs(t, err, world.ErrPhysicsAttach)
	assert.True(t, mesh.Disposed())
	assert.Zero(t, w.Len())
	assert.Empty(t, w.Engine().Bodies())
}

func TestWorld_TickMovesDynamicBodies(t *testing.T) {
	w := newWorld(t)
	floor, err := w.Spawn("basic.ground", nil, nil)
	require.NoError(t, err)
	box, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)

	last := box.Properties.Position.Y
	for range 20 {
		w.Tick(0)
		y := box.Properties.Position.Y
		assert.Less(t, y, last)
		last = y
	}
	assert.Equal(t, box.Properties.Position, box.Renderable.Transform().Position)
	assert.Equal(t, geom.Zero(), floor.Properties.Position)
	assert.Equal(t, geom.Zero(), floor.Renderable.Transform().Position)
}

func TestWorld_Destroy(t *testing.T) {
	w := newWorld(t)
	obj, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)
	mesh, ok := obj.Renderable.(*object.Mesh)
	require.True(t, ok)

	assert.True(t, w.Destroy(obj.ID))
	assert.True(t, mesh.Disposed())
	assert.True(t, mesh.Geometry().Disposed())
	_, ok = w.Engine().Body(obj.ID)
	assert.False(t, ok)
	_, ok = w.Physics().Object(obj.ID)
	assert.False(t, ok)
	assert.Zero(t, w.Len())

	assert.False(t, w.Destroy(obj.ID))
}

func TestWorld_Clone(t *testing.T) {
	w := newWorld(t)
	src, err := w.Spawn("furniture.crate", map[string]any{"state": map[string]any{"label": "fragile"}}, nil)
	require.NoError(t, err)

	cp, err := w.Clone(src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.Equal(t, src.Properties, cp.Properties)
	assert.Equal(t, src.State, cp.State)
	assert.NotSame(t, src.Renderable, cp.Renderable)
	require.NotNil(t, cp.Body)
	assert.NotEqual(t, src.Body.Handle(), cp.Body.Handle())
	assert.Equal(t, 2, w.Physics().Len())

	_, err = w.Clone("missing")
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestWorld_Update(t *testing.T) {
	w := newWorld(t)
	obj, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)

	require.True(t, w.Update(obj.ID, registry.PropertyPatch{"position": map[string]any{"x": 3.0}}))
	assert.Equal(t, geom.Vec3(3, 5, 0), obj.Properties.Position)
	assert.Equal(t, geom.Vec3(3, 5, 0), obj.Renderable.Transform().Position)
	tf, ok := w.Engine().BodyTransform(obj.ID)
	require.True(t, ok)
	assert.InDelta(t, 3.0, tf.Position.X, 1e-9)

	assert.False(t, w.Update("missing", registry.PropertyPatch{"visible": false}))
}

func TestWorld_SnapshotRestore(t *testing.T) {
	w := newWorld(t)
	a, err := w.Spawn("furniture.crate", map[string]any{"position": []any{1, 5, 1}}, nil)
	require.NoError(t, err)
	b, err := w.Spawn("ui.label", map[string]any{"userData": map[string]any{"text": "hi"}}, nil)
	require.NoError(t, err)

	docs, err := w.Snapshot()
	require.NoError(t, err)
	require.Len(t, docs, 2)

	other := newWorld(t)
	restored := other.Restore(append(docs, []byte(`{"id": ""}`)))
	require.Len(t, restored, 2)

	ra, ok := other.Object(a.ID)
	require.True(t, ok)
	assert.Equal(t, a.Properties.Position, ra.Properties.Position)
	assert.NotNil(t, ra.Body)
	rb, ok := other.Object(b.ID)
	require.True(t, ok)
	assert.Equal(t, "hi", rb.Properties.UserData["text"])

	again := other.Restore(docs[:1])
	require.Len(t, again, 1)
	assert.Equal(t, 2, other.Len())
	assert.Equal(t, 1, other.Physics().Len())
}

type recordingBinding struct {
	builds  int
	updates int
	ctx     registry.RenderContext
	fail    bool
}

func (b *recordingBinding) BuildVisual(ctx registry.RenderContext) (registry.Visual, error) {
	if b.fail {
		return nil, errors.New("no gpu")
	}
	b.builds++
	b.ctx = ctx
	return "visual:" + ctx.Instance.ObjectID(), nil
}

func (b *recordingBinding) UpdateVisual(registry.RenderContext, registry.Visual) error {
	b.updates++
	return nil
}

func TestWorld_Bindings(t *testing.T) {
	w := newWorld(t)
	binding := &recordingBinding{}
	w.Bindings().Bind("furniture.crate", binding)

	obj, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, binding.builds)
	v, ok := w.Visual(obj.ID)
	require.True(t, ok)
	assert.Equal(t, "visual:"+obj.ID, v)
	require.NotNil(t, binding.ctx.Instance)
	assert.Equal(t, "furniture.crate", binding.ctx.Instance.Type())
	assert.Equal(t, obj.Properties.Position, binding.ctx.Instance.Transform().Position)

	w.Tick(0)
	assert.Equal(t, 1, binding.updates)

	binding.ctx.OnUpdate(registry.PropertyPatch{"visible": false})
	assert.False(t, obj.Properties.Visible)
	assert.Equal(t, 2, binding.updates)

	w.Destroy(obj.ID)
	_, ok = w.Visual(obj.ID)
	assert.False(t, ok)
}

func TestWorld_BindingFailureIsLogged(t *testing.T) {
	var logs bytes.Buffer
	w := newWorld(t, world.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	w.Bindings().Bind("ui.label", &recordingBinding{fail: true})

	obj, err := w.Spawn("ui.label", nil, nil)
	require.NoError(t, err)
	_, ok := w.Visual(obj.ID)
	assert.False(t, ok)
	assert.Contains(t, logs.String(), "binding failed to build visual")
}

func TestWorld_Close(t *testing.T) {
	w := newWorld(t)
	obj, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)

	require.NoError(t, w.Close(context.Background()))
	assert.Zero(t, w.Len())
	assert.True(t, obj.Renderable == nil)
	assert.False(t, w.Engine().Initialized())
	assert.True(t, w.Registry().Has("furniture.crate"))

	_, err = w.Spawn("furniture.crate", nil, nil)
	assert.ErrorIs(t, err, world.ErrClosed)
	assert.NoError(t, w.Close(context.Background()))
}

func TestWorld_LoadPlugins(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "shelves")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(`
name: shelves
version: 1.0.0
type: static
objects:
  - type: furniture.shelf
    physics:
      kind: static
      shape: { kind: box, size: [2, 1, 0.5] }
`), 0o600))

	w := newWorld(t, world.WithPluginOptions(plugin.WithPluginsDir(root)))
	require.NoError(t, w.LoadPlugins(context.Background()))
	require.True(t, w.Registry().Has("furniture.shelf"))

	obj, err := w.Spawn("furniture.shelf", nil, nil)
	require.NoError(t, err)
	assert.True(t, obj.Body.IsStatic())
}

func TestWorld_CheckBuildersReportsAmbiguity(t *testing.T) {
	w := newWorld(t)
	build := func(*registry.TypeDefinition) (*object.Geometry, error) { return object.BoxGeometry(1, 1, 1), nil }
	require.NoError(t, w.Factory().Builders().RegisterPattern("furniture.*", 5, build))
	require.NoError(t, w.Factory().Builders().RegisterPattern("*.crate", 5, build))

	assert.ErrorIs(t, w.CheckBuilders(), object.ErrAmbiguousBuilder)
}

func TestWorld_WithoutPhysics(t *testing.T) {
	w := newWorld(t, world.WithoutPhysics())

	obj, err := w.Spawn("furniture.crate", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, obj.Body)
	assert.Zero(t, w.Physics().Len())

	w.Tick(0.1)
	assert.Equal(t, geom.Vec3(0, 5, 0), obj.Properties.Position)
}
