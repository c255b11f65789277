// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package object creates, copies, and serializes world object instances.
package object

import (
	"github.com/fluxstudio/fluxstudio/internal/physics"
	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Properties are the spatial and visibility attributes of an instance.
type Properties struct {
	Position geom.Vector3
	Rotation geom.Euler
	Scale    geom.Vector3
	Visible  bool
	UserData map[string]any
}

// DefaultProperties returns the structural defaults: origin, no rotation,
// unit scale, visible.
func DefaultProperties() Properties {
	return Properties{
		Scale:    geom.One(),
		Visible:  true,
		UserData: map[string]any{},
	}
}

// Transform converts the properties to a transform.
func (p Properties) Transform() geom.Transform {
	return geom.Transform{
		Position: p.Position,
		Rotation: p.Rotation.Quat(),
		Scale:    p.Scale,
	}
}

// SetTransform copies a transform into the properties.
func (p *Properties) SetTransform(tf geom.Transform) {
	p.Position = tf.Position
	p.Rotation = tf.Euler()
	p.Scale = tf.Scale
}

// WorldObject is one placed instance of a registered type.
type WorldObject struct {
	ID         string
	Metadata   registry.Metadata
	Properties Properties
	// Config is shared with the type definition and must not be mutated.
	Config *registry.Config
	State  map[string]any

	Renderable Renderable
	Body       *physics.Body
}

var _ registry.Instance = (*WorldObject)(nil)

// ObjectID returns the instance id.
func (o *WorldObject) ObjectID() string { return o.ID }

// Type returns the instance's type key.
func (o *WorldObject) Type() string { return o.Metadata.Type }

// Transform returns the instance transform built from its properties.
func (o *WorldObject) Transform() geom.Transform { return o.Properties.Transform() }

// StateValue returns a copy of one state entry.
func (o *WorldObject) StateValue(key string) (any, bool) {
	v, ok := o.State[key]
	if !ok {
		return nil, false
	}
	return property.CloneValue(v), true
}

// Physics returns the type's physics descriptor, or nil.
func (o *WorldObject) Physics() *registry.PhysicsDescriptor {
	if o.Config == nil {
		return nil
	}
	return o.Config.Interaction.Physics
}

// PhysicsEnabled reports whether the type wants a rigid body.
func (o *WorldObject) PhysicsEnabled() bool {
	p := o.Physics()
	return p != nil && p.Enabled
}

// ApplyToRenderable writes the instance transform to its renderable.
func (o *WorldObject) ApplyToRenderable() {
	if o.Renderable != nil {
		o.Renderable.SetTransform(o.Properties.Transform())
	}
}

// Dispose releases the renderable. The physics body must be removed
// through the physics manager first.
func (o *WorldObject) Dispose() {
	if o.Renderable != nil {
		o.Renderable.Dispose()
		o.Renderable = nil
	}
	o.Body = nil
}
