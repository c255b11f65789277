// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import (
	"encoding/json"
	"log/slog"
	"maps"
	"slices"

	"github.com/jinzhu/copier"
	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Override keys understood by Create.
const (
	KeyPosition = "position"
	KeyRotation = "rotation"
	KeyScale    = "scale"
	KeyVisible  = "visible"
	KeyUserData = "userData"
	KeyState    = "state"
)

// Request is one entry of a CreateMany batch.
type Request struct {
	Type      string
	Overrides map[string]any
}

// Factory produces instances of registered types. It does not keep the
// instances it creates.
type Factory struct {
	registry *registry.Registry
	schemas  *registry.SchemaTable
	builders *GeometryBuilders
	logger   *slog.Logger
	newID    func() string
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger sets the factory logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		f.logger = l
	}
}

// WithSchemas sets the schema table used for state defaults and validation.
func WithSchemas(t *registry.SchemaTable) Option {
	return func(f *Factory) {
		f.schemas = t
	}
}

// WithBuilders sets the geometry builders used by BuildRenderable.
func WithBuilders(b *GeometryBuilders) Option {
	return func(f *Factory) {
		f.builders = b
	}
}

// WithIDGenerator replaces the id source. Tests use it for stable ids.
func WithIDGenerator(gen func() string) Option {
	return func(f *Factory) {
		f.newID = gen
	}
}

// NewFactory creates a factory over reg.
func NewFactory(reg *registry.Registry, opts ...Option) *Factory {
	f := &Factory{
		registry: reg,
		logger:   slog.Default(),
		newID:    NewID,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.builders == nil {
		f.builders = PrimitiveBuilders()
	}
	return f
}

// Create builds an instance of typeKey. Unknown keys are logged and yield
// false. Properties start from the structural defaults, then the type's
// defaults, then overrides; vector-like overrides may be plain records.
func (f *Factory) Create(typeKey string, overrides map[string]any) (*WorldObject, bool) {
	def, ok := f.registry.Get(typeKey)
	if !ok {
		f.logger.Error("unknown object type", "type", typeKey)
		createdObjects.WithLabelValues("create", "unknown_type").Inc()
		return nil, false
	}

	props := DefaultProperties()
	applyTypeDefaults(&props, def.Config.Defaults)
	f.applyOverrides(typeKey, &props, overrides)

	obj := &WorldObject{
		ID:         f.newID(),
		Metadata:   cloneMetadata(def.Metadata),
		Properties: props,
		Config:     &def.Config,
		State:      f.initialState(def, overrides),
	}
	createdObjects.WithLabelValues("create", "ok").Inc()
	return obj, true
}

// CreateMany creates every request and returns the successes in order.
func (f *Factory) CreateMany(reqs []Request) []*WorldObject {
	out := make([]*WorldObject, 0, len(reqs))
	for _, req := range reqs {
		if obj, ok := f.Create(req.Type, req.Overrides); ok {
			out = append(out, obj)
		}
	}
	return out
}

// Clone copies obj under a new id. Properties and state are deep-copied,
// the renderable is duplicated, and the physics body is not copied.
func (f *Factory) Clone(obj *WorldObject) (*WorldObject, bool) {
	if obj == nil {
		return nil, false
	}
	var snap struct {
		Properties Properties
		State      map[string]any
	}
	src := struct {
		Properties Properties
		State      map[string]any
	}{obj.Properties, obj.State}
	if err := copier.CopyWithOption(&snap, &src, copier.Option{DeepCopy: true}); err != nil {
		f.logger.Error("failed to clone object", "id", obj.ID, "type", obj.Type(), "error", err)
		createdObjects.WithLabelValues("clone", "error").Inc()
		return nil, false
	}
	if snap.State == nil {
		snap.State = map[string]any{}
	}
	if snap.Properties.UserData == nil {
		snap.Properties.UserData = map[string]any{}
	}

	out := &WorldObject{
		ID:         f.newID(),
		Metadata:   cloneMetadata(obj.Metadata),
		Properties: snap.Properties,
		Config:     obj.Config,
		State:      snap.State,
	}
	if obj.Renderable != nil {
		out.Renderable = obj.Renderable.Duplicate()
	}
	createdObjects.WithLabelValues("clone", "ok").Inc()
	return out, true
}

// Serialize encodes obj as a JSON document with plain numeric leaves.
func (f *Factory) Serialize(obj *WorldObject) ([]byte, error) {
	if obj == nil {
		return nil, oops.Code("INVALID_OBJECT").Errorf("object is nil")
	}
	data, err := json.Marshal(toDocument(obj))
	if err != nil {
		return nil, oops.Code("SERIALIZE_FAILED").With("id", obj.ID).With("type", obj.Type()).Wrap(err)
	}
	return data, nil
}

// Deserialize rebuilds an instance from a document produced by Serialize.
// Malformed documents and unregistered types are logged and yield false.
// The id is kept; the renderable and physics body are not restored.
func (f *Factory) Deserialize(data []byte) (*WorldObject, bool) {
	if err := ValidateDocument(data); err != nil {
		f.logger.Error("invalid object document", "error", err)
		createdObjects.WithLabelValues("deserialize", "invalid").Inc()
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		f.logger.Error("invalid object document", "error", err)
		createdObjects.WithLabelValues("deserialize", "invalid").Inc()
		return nil, false
	}
	def, ok := f.registry.Get(doc.Metadata.Type)
	if !ok {
		f.logger.Error("unknown object type", "type", doc.Metadata.Type, "id", doc.ID)
		createdObjects.WithLabelValues("deserialize", "unknown_type").Inc()
		return nil, false
	}

	state := doc.State
	if state == nil {
		state = map[string]any{}
	}
	obj := &WorldObject{
		ID:         doc.ID,
		Metadata:   doc.metadata(),
		Properties: doc.properties(),
		Config:     &def.Config,
		State:      state,
	}
	createdObjects.WithLabelValues("deserialize", "ok").Inc()
	return obj, true
}

// BuildRenderable creates an in-memory mesh for obj from the geometry
// builders and places it at the instance transform.
func (f *Factory) BuildRenderable(obj *WorldObject) (Renderable, error) {
	def, ok := f.registry.Get(obj.Type())
	if !ok {
		return nil, oops.Code("UNKNOWN_TYPE").With("type", obj.Type()).Errorf("unknown object type")
	}
	g, err := f.builders.Build(def)
	if err != nil {
		return nil, err
	}
	m := NewMesh(g, def.Config.Material)
	m.SetTransform(obj.Properties.Transform())
	return m, nil
}

// Apply merges patch into obj using the Create override keys. A state
// entry is merged into the existing state rather than replacing it.
func (f *Factory) Apply(obj *WorldObject, patch map[string]any) {
	if obj == nil || len(patch) == 0 {
		return
	}
	if obj.Properties.UserData == nil {
		obj.Properties.UserData = map[string]any{}
	}
	f.applyOverrides(obj.Type(), &obj.Properties, patch)

	v, ok := patch[KeyState]
	if !ok {
		return
	}
	m, ok := v.(map[string]any)
	if !ok {
		f.logger.Warn("ignoring malformed override", "type", obj.Type(), "key", KeyState)
		return
	}
	if obj.State == nil {
		obj.State = map[string]any{}
	}
	maps.Copy(obj.State, property.CloneValues(m))
}

// Builders returns the geometry builder table.
func (f *Factory) Builders() *GeometryBuilders { return f.builders }

func applyTypeDefaults(p *Properties, d registry.Defaults) {
	if d.Position != nil {
		p.Position = *d.Position
	}
	if d.Rotation != nil {
		p.Rotation = *d.Rotation
	}
	if d.Scale != nil {
		p.Scale = *d.Scale
	}
	if d.Visible != nil {
		p.Visible = *d.Visible
	}
	maps.Copy(p.UserData, property.CloneValues(d.UserData))
}

func (f *Factory) applyOverrides(typeKey string, p *Properties, overrides map[string]any) {
	for key, v := range overrides {
		ok := true
		switch key {
		case KeyPosition:
			p.Position, ok = geom.CoerceVector3(v, p.Position)
		case KeyRotation:
			p.Rotation, ok = geom.CoerceEuler(v, p.Rotation)
		case KeyScale:
			p.Scale, ok = geom.CoerceVector3(v, p.Scale)
		case KeyVisible:
			var b bool
			if b, ok = v.(bool); ok {
				p.Visible = b
			}
		case KeyUserData:
			var m map[string]any
			if m, ok = v.(map[string]any); ok {
				maps.Copy(p.UserData, property.CloneValues(m))
			}
		}
		if !ok {
			f.logger.Warn("ignoring malformed override", "type", typeKey, "key", key)
		}
	}
}

// initialState merges schema defaults, type state defaults, and the state
// override, then validates the result against the type's schema.
func (f *Factory) initialState(def *registry.TypeDefinition, overrides map[string]any) map[string]any {
	state := map[string]any{}
	schema, hasSchema := f.schema(def.Key())
	if hasSchema {
		maps.Copy(state, schema.Defaults())
	}
	maps.Copy(state, property.CloneValues(def.Config.Defaults.State))
	if v, ok := overrides[KeyState]; ok {
		if m, ok := v.(map[string]any); ok {
			maps.Copy(state, property.CloneValues(m))
		} else {
			f.logger.Warn("ignoring malformed override", "type", def.Key(), "key", KeyState)
		}
	}
	if hasSchema {
		if err := schema.Validate(state); err != nil {
			f.logger.Warn("object state does not match schema", "type", def.Key(), "error", err)
		}
	}
	return state
}

func (f *Factory) schema(typeKey string) (*property.Schema, bool) {
	if f.schemas == nil {
		return nil, false
	}
	return f.schemas.Get(typeKey)
}

func cloneMetadata(m registry.Metadata) registry.Metadata {
	m.Tags = slices.Clone(m.Tags)
	return m
}
