// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package world ties the object tables, the plugin manager, and the physics
// layer into one explicit context. A World owns every instance it spawns:
// destroying an instance removes its body and releases its renderable in
// the same step.
package world

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/bridge"
	"github.com/fluxstudio/fluxstudio/internal/object"
	"github.com/fluxstudio/fluxstudio/internal/physics"
	"github.com/fluxstudio/fluxstudio/internal/plugin"
	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/errutil"
)

// Errors returned by Spawn and Clone.
var (
	ErrUnknownType   = errors.New("unknown object type")
	ErrPhysicsAttach = errors.New("physics body could not be created")
	ErrClosed        = errors.New("world is closed")
	ErrNotFound      = errors.New("object not found")
)

// World is the explicit context. It is single-threaded like the tables it
// owns; callers serialize access.
type World struct {
	registry *registry.Registry
	schemas  *registry.SchemaTable
	bindings *registry.BindingTable
	factory  *object.Factory
	plugins  *plugin.Manager
	engine   *physics.Engine
	physics  *bridge.Manager
	logger   *slog.Logger
	// noBodies skips body creation for physics-enabled types.
	noBodies bool

	objects map[string]*object.WorldObject
	visuals map[string]registry.Visual
	order   []string
	closed  bool
}

type settings struct {
	logger         *slog.Logger
	physics        physics.Config
	library        *property.Library
	pluginOptions  []plugin.ManagerOption
	factoryOptions []object.Option
	noBodies       bool
}

// Option configures New.
type Option func(*settings)

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithPhysics sets the physics configuration.
func WithPhysics(cfg physics.Config) Option {
	return func(s *settings) { s.physics = cfg }
}

// WithoutPhysics keeps the engine idle: instances of physics-enabled types
// spawn without bodies.
func WithoutPhysics() Option {
	return func(s *settings) { s.noBodies = true }
}

// WithLibrary sets the mixin and schema library behind the schema table.
func WithLibrary(l *property.Library) Option {
	return func(s *settings) { s.library = l }
}

// WithPluginOptions passes options to the plugin manager.
func WithPluginOptions(opts ...plugin.ManagerOption) Option {
	return func(s *settings) { s.pluginOptions = append(s.pluginOptions, opts...) }
}

// WithFactoryOptions passes options to the object factory.
func WithFactoryOptions(opts ...object.Option) Option {
	return func(s *settings) { s.factoryOptions = append(s.factoryOptions, opts...) }
}

// New creates a world with empty tables and an initialized physics engine.
func New(opts ...Option) (*World, error) {
	s := settings{
		logger:  slog.Default(),
		physics: physics.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.library == nil {
		s.library = property.DefaultLibrary()
	}

	reg := registry.New(registry.WithLogger(s.logger))
	schemas := registry.NewSchemaTable(s.library)

	engine := physics.NewEngine(s.physics, physics.WithLogger(s.logger))
	if err := engine.Initialize(); err != nil {
		return nil, oops.In("world").Wrapf(err, "initialize physics")
	}

	factoryOpts := append([]object.Option{
		object.WithSchemas(schemas),
		object.WithLogger(s.logger),
	}, s.factoryOptions...)
	pluginOpts := append([]plugin.ManagerOption{
		plugin.WithSchemas(schemas),
		plugin.WithLogger(s.logger),
	}, s.pluginOptions...)

	return &World{
		registry: reg,
		schemas:  schemas,
		bindings: registry.NewBindingTable(),
		factory:  object.NewFactory(reg, factoryOpts...),
		plugins:  plugin.NewManager(reg, pluginOpts...),
		engine:   engine,
		physics:  bridge.NewManager(engine, bridge.WithLogger(s.logger)),
		logger:   s.logger,
		noBodies: s.noBodies,
		objects:  make(map[string]*object.WorldObject),
		visuals:  make(map[string]registry.Visual),
	}, nil
}

// Registry returns the type registry.
func (w *World) Registry() *registry.Registry { return w.registry }

// Schemas returns the property schema table.
func (w *World) Schemas() *registry.SchemaTable { return w.schemas }

// Bindings returns the render binding table.
func (w *World) Bindings() *registry.BindingTable { return w.bindings }

// Factory returns the object factory.
func (w *World) Factory() *object.Factory { return w.factory }

// Plugins returns the plugin manager.
func (w *World) Plugins() *plugin.Manager { return w.plugins }

// Engine returns the physics engine.
func (w *World) Engine() *physics.Engine { return w.engine }

// Physics returns the physics object manager.
func (w *World) Physics() *bridge.Manager { return w.physics }

// LoadPlugins loads every plugin in the configured plugins directory and
// then checks that no registered type has an ambiguous geometry builder.
func (w *World) LoadPlugins(ctx context.Context) error {
	if err := w.plugins.LoadAll(ctx); err != nil {
		return err
	}
	return w.CheckBuilders()
}

// CheckBuilders reports an ambiguous geometry builder for any registered type.
func (w *World) CheckBuilders() error {
	keys := make([]string, 0, w.registry.Len())
	for _, def := range w.registry.All() {
		keys = append(keys, def.Key())
	}
	return w.factory.Builders().Check(keys)
}

// Spawn creates an instance of typeKey, gives it r as its renderable (or a
// mesh from the geometry builders when r is nil), and adds a rigid body when
// the type enables physics. If any step fails nothing is kept and the
// renderable is released.
func (w *World) Spawn(typeKey string, overrides map[string]any, r object.Renderable) (*object.WorldObject, error) {
	if w.closed {
		return nil, oops.In("world").Wrap(ErrClosed)
	}
	obj, ok := w.factory.Create(typeKey, overrides)
	if !ok {
		return nil, oops.In("world").Code("UNKNOWN_TYPE").With("type", typeKey).Wrap(ErrUnknownType)
	}
	if err := w.attach(obj, r); err != nil {
		return nil, err
	}
	return obj, nil
}

// Clone copies the instance id, including a duplicated renderable and a
// fresh rigid body.
func (w *World) Clone(id string) (*object.WorldObject, error) {
	if w.closed {
		return nil, oops.In("world").Wrap(ErrClosed)
	}
	src, ok := w.objects[id]
	if !ok {
		return nil, oops.In("world").Code("OBJECT_NOT_FOUND").With("id", id).Wrap(ErrNotFound)
	}
	obj, ok := w.factory.Clone(src)
	if !ok {
		return nil, oops.In("world").Code("CLONE_FAILED").With("id", id).Errorf("clone failed")
	}
	r := obj.Renderable
	obj.Renderable = nil
	if err := w.attach(obj, r); err != nil {
		return nil, err
	}
	return obj, nil
}

func (w *World) attach(obj *object.WorldObject, r object.Renderable) error {
	errb := oops.In("world").With("id", obj.ID).With("type", obj.Type())

	if r == nil {
		built, err := w.factory.BuildRenderable(obj)
		if err != nil {
			return errb.Wrapf(err, "build renderable")
		}
		r = built
	}
	obj.Renderable = r
	obj.ApplyToRenderable()

	if !w.noBodies && obj.PhysicsEnabled() && !w.physics.AddPhysicsObject(obj) {
		obj.Dispose()
		return errb.Code("PHYSICS_ATTACH_FAILED").Wrap(ErrPhysicsAttach)
	}

	w.objects[obj.ID] = obj
	w.order = append(w.order, obj.ID)
	w.buildVisual(obj)
	worldObjects.Set(float64(len(w.objects)))
	return nil
}

// Object returns the instance with id.
func (w *World) Object(id string) (*object.WorldObject, bool) {
	obj, ok := w.objects[id]
	return obj, ok
}

// Objects returns every instance in spawn order.
func (w *World) Objects() []*object.WorldObject {
	out := make([]*object.WorldObject, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.objects[id])
	}
	return out
}

// Len returns the number of live instances.
func (w *World) Len() int { return len(w.objects) }

// Visual returns what the type's binding built for id.
func (w *World) Visual(id string) (registry.Visual, bool) {
	v, ok := w.visuals[id]
	return v, ok
}

// Update merges patch into the instance and pushes the new transform to the
// renderable and the body.
func (w *World) Update(id string, patch registry.PropertyPatch) bool {
	obj, ok := w.objects[id]
	if !ok {
		w.logger.Debug("update of unknown object", "id", id)
		return false
	}
	w.factory.Apply(obj, patch)
	obj.ApplyToRenderable()
	if obj.Body != nil {
		w.engine.SetBodyTransform(id, obj.Properties.Transform())
	}
	w.updateVisual(obj)
	return true
}

// Destroy removes the body, releases the renderable, and forgets the
// instance. A second call returns false.
func (w *World) Destroy(id string) bool {
	obj, ok := w.objects[id]
	if !ok {
		return false
	}
	w.physics.RemovePhysicsObject(id)
	obj.Dispose()
	delete(w.objects, id)
	delete(w.visuals, id)
	w.order = slices.DeleteFunc(w.order, func(x string) bool { return x == id })
	worldObjects.Set(float64(len(w.objects)))
	return true
}

// Tick advances the simulation by dt and copies body transforms back to
// the instances. A non-positive dt uses the configured time step.
func (w *World) Tick(dt float64) {
	if w.closed {
		return
	}
	w.engine.Step(dt)
	w.physics.SyncAll()
	for _, id := range w.order {
		if obj := w.objects[id]; obj.Body != nil && !obj.Body.IsStatic() {
			w.updateVisual(obj)
		}
	}
}

// Snapshot serializes every instance in spawn order.
func (w *World) Snapshot() ([][]byte, error) {
	out := make([][]byte, 0, len(w.order))
	for _, id := range w.order {
		data, err := w.factory.Serialize(w.objects[id])
		if err != nil {
			return nil, oops.In("world").With("id", id).Wrap(err)
		}
		out = append(out, data)
	}
	return out, nil
}

// Restore deserializes docs and spawns them with fresh renderables and
// bodies. An instance whose id is already live is replaced. Documents that
// cannot be restored are logged and skipped; the restored instances are
// returned.
func (w *World) Restore(docs [][]byte) []*object.WorldObject {
	var out []*object.WorldObject
	for i, data := range docs {
		if w.closed {
			break
		}
		obj, ok := w.factory.Deserialize(data)
		if !ok {
			w.logger.Warn("skipping unreadable object document", "index", i)
			continue
		}
		if _, exists := w.objects[obj.ID]; exists {
			w.Destroy(obj.ID)
		}
		if err := w.attach(obj, nil); err != nil {
			errutil.LogWarn(w.logger, "skipping object document", err, "index", i)
			continue
		}
		out = append(out, obj)
	}
	return out
}

// Close destroys every instance, disposes the physics engine, and closes
// the plugin manager. Registered types stay readable.
func (w *World) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}
	for _, id := range slices.Clone(w.order) {
		w.Destroy(id)
	}
	w.engine.Dispose()
	w.closed = true
	if err := w.plugins.Close(ctx); err != nil {
		return oops.In("world").Wrap(err)
	}
	return nil
}

func (w *World) renderContext(obj *object.WorldObject) registry.RenderContext {
	id := obj.ID
	return registry.RenderContext{
		Instance: obj,
		OnUpdate: func(p registry.PropertyPatch) { w.Update(id, p) },
	}
}

func (w *World) buildVisual(obj *object.WorldObject) {
	b, ok := w.bindings.Lookup(obj.Type())
	if !ok {
		return
	}
	v, err := b.BuildVisual(w.renderContext(obj))
	if err != nil {
		errutil.LogWarn(w.logger, "binding failed to build visual", err, "id", obj.ID, "type", obj.Type())
		return
	}
	w.visuals[obj.ID] = v
}

func (w *World) updateVisual(obj *object.WorldObject) {
	v, ok := w.visuals[obj.ID]
	if !ok {
		return
	}
	b, ok := w.bindings.Lookup(obj.Type())
	if !ok {
		return
	}
	if err := b.UpdateVisual(w.renderContext(obj), v); err != nil {
		errutil.LogWarn(w.logger, "binding failed to update visual", err, "id", obj.ID, "type", obj.Type())
	}
}
