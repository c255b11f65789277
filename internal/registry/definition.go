// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package registry holds the catalog of object type definitions, the category
// side table, property schemas per type, and render bindings per type.
package registry

import (
	"slices"

	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Metadata identifies and describes an object type.
type Metadata struct {
	Type        string   `json:"type" yaml:"type"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Category    string   `json:"category,omitempty" yaml:"category"`
	Icon        string   `json:"icon,omitempty" yaml:"icon"`
	Tags        []string `json:"tags,omitempty" yaml:"tags"`
}

// BodyKind selects how the physics engine moves a body.
type BodyKind string

// Body kinds.
const (
	BodyStatic    BodyKind = "static"
	BodyDynamic   BodyKind = "dynamic"
	BodyKinematic BodyKind = "kinematic"
)

// Instance is a read-only view of a placed object handed to handlers and
// bindings.
type Instance interface {
	ObjectID() string
	Type() string
	Transform() geom.Transform
	// StateValue returns a state entry. Mutating a returned map or slice is
	// not reflected in the instance.
	StateValue(key string) (any, bool)
}

// CollisionHandler is invoked with the other party and the contact impulse
// magnitude.
type CollisionHandler func(other Instance, impulse float64)

// ContactHandler is invoked with the other party.
type ContactHandler func(other Instance)

// PhysicsDescriptor is the optional physics configuration of a type.
// Shape, when nil, is inferred from the renderable's geometry.
type PhysicsDescriptor struct {
	Enabled     bool
	Kind        BodyKind
	Shape       *geom.Shape
	Mass        float64
	Friction    float64
	Restitution float64
	Density     float64
	Sensor      bool

	OnCollisionStart CollisionHandler
	OnCollisionEnd   ContactHandler
	OnTriggerEnter   ContactHandler
	OnTriggerExit    ContactHandler
}

// Clone returns a copy that does not share the shape.
func (p *PhysicsDescriptor) Clone() *PhysicsDescriptor {
	if p == nil {
		return nil
	}
	out := *p
	if p.Shape != nil {
		s := *p.Shape
		s.Vertices = slices.Clone(p.Shape.Vertices)
		s.Indices = slices.Clone(p.Shape.Indices)
		out.Shape = &s
	}
	return &out
}

// Defaults are the instance attributes a type starts with. Nil fields fall
// back to the structural defaults.
type Defaults struct {
	Position *geom.Vector3
	Rotation *geom.Euler
	Scale    *geom.Vector3
	Visible  *bool
	UserData map[string]any
	State    map[string]any
}

// Placement constrains how editors may place an instance.
type Placement struct {
	SnapToGrid    float64
	GroundOnly    bool
	AllowStacking bool
	MinScale      float64
	MaxScale      float64
}

// Interaction holds editor interaction flags and the physics descriptor.
type Interaction struct {
	Selectable bool
	Draggable  bool
	Rotatable  bool
	Scalable   bool
	Physics    *PhysicsDescriptor
}

// Material holds appearance defaults.
type Material struct {
	Color     string
	Opacity   float64
	Metalness float64
	Roughness float64
	Texture   string
}

// Animation describes a named animation track.
type Animation struct {
	Name     string
	Duration float64
	Loop     bool
	Autoplay bool
}

// Config is the instance configuration shared by every instance of a type.
type Config struct {
	Defaults    Defaults
	Placement   Placement
	Interaction Interaction
	Material    Material
	Animations  []Animation
}

// TypeDefinition is the immutable template for one kind of world object.
type TypeDefinition struct {
	Metadata Metadata
	Config   Config
}

// Key returns the type key.
func (d *TypeDefinition) Key() string { return d.Metadata.Type }

// Physics returns the physics descriptor, or nil when the type has none.
func (d *TypeDefinition) Physics() *PhysicsDescriptor { return d.Config.Interaction.Physics }

func (d *TypeDefinition) clone() *TypeDefinition {
	out := *d
	out.Metadata.Tags = slices.Clone(d.Metadata.Tags)
	out.Config.Defaults.UserData = property.CloneValues(d.Config.Defaults.UserData)
	out.Config.Defaults.State = property.CloneValues(d.Config.Defaults.State)
	out.Config.Animations = slices.Clone(d.Config.Animations)
	out.Config.Interaction.Physics = d.Config.Interaction.Physics.Clone()
	return &out
}
