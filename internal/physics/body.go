// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package physics

import (
	"strings"

	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/physics/sim"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Kind selects how a body moves.
type Kind string

// Body kinds.
const (
	KindFixed     Kind = "fixed"
	KindDynamic   Kind = "dynamic"
	KindKinematic Kind = "kinematic_position_based"
)

// ParseKind maps editor body types to kinds. "static" is an alias of fixed
// and "kinematic" an alias of kinematic_position_based.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed", "static":
		return KindFixed, nil
	case "dynamic", "":
		return KindDynamic, nil
	case "kinematic", "kinematic_position_based", "kinematicpositionbased":
		return KindKinematic, nil
	}
	return "", oops.Code("INVALID_BODY_KIND").With("kind", s).Errorf("unknown body kind %q", s)
}

func (k Kind) simType() sim.BodyType {
	switch k {
	case KindFixed:
		return sim.Fixed
	case KindKinematic:
		return sim.KinematicPositionBased
	}
	return sim.Dynamic
}

// Target is anything the engine reads an initial transform from and writes
// simulated transforms back to. The engine never owns its targets.
type Target interface {
	Transform() geom.Transform
	SetTransform(geom.Transform)
}

// Body is a tracked rigid body and its single collider.
type Body struct {
	ID          string
	Kind        Kind
	Shape       geom.Shape
	Mass        float64
	Friction    float64
	Restitution float64
	Sensor      bool

	handle   sim.BodyHandle
	collider sim.ColliderHandle
	target   Target
}

// Handle returns the simulation body handle.
func (b *Body) Handle() sim.BodyHandle { return b.handle }

// Collider returns the simulation collider handle.
func (b *Body) Collider() sim.ColliderHandle { return b.collider }

// Target returns the transform target the body syncs to.
func (b *Body) Target() Target { return b.target }

// IsStatic reports whether the body is fixed.
func (b *Body) IsStatic() bool { return b.Kind == KindFixed }

type bodyOptions struct {
	friction    float64
	restitution float64
	density     float64
	mass        float64
	sensor      bool
	ccd         bool
}

func defaultBodyOptions() bodyOptions {
	return bodyOptions{friction: 0.5, density: 1}
}

// BodyOption configures CreateRigidBody.
type BodyOption func(*bodyOptions)

// WithFriction sets the friction coefficient.
func WithFriction(f float64) BodyOption {
	return func(o *bodyOptions) { o.friction = f }
}

// WithRestitution sets the restitution coefficient.
func WithRestitution(r float64) BodyOption {
	return func(o *bodyOptions) { o.restitution = r }
}

// WithDensity sets the density used to derive mass.
func WithDensity(d float64) BodyOption {
	return func(o *bodyOptions) { o.density = d }
}

// WithMass sets an explicit mass, overriding density.
func WithMass(m float64) BodyOption {
	return func(o *bodyOptions) { o.mass = m }
}

// WithSensor makes the collider a sensor that reports trigger events.
func WithSensor(sensor bool) BodyOption {
	return func(o *bodyOptions) { o.sensor = sensor }
}

// WithCCD enables continuous collision detection for the body.
func WithCCD(on bool) BodyOption {
	return func(o *bodyOptions) { o.ccd = on }
}

// colliderDesc maps a shape descriptor to its native collider.
func colliderDesc(s geom.Shape) (sim.ColliderDesc, error) {
	if err := s.Validate(); err != nil {
		return sim.ColliderDesc{}, err
	}
	switch s.Kind {
	case geom.ShapeBox:
		h := s.HalfExtents
		return sim.Cuboid(h.X, h.Y, h.Z), nil
	case geom.ShapeSphere:
		return sim.Ball(s.Radius), nil
	case geom.ShapeCylinder:
		return sim.Cylinder(s.Height/2, s.Radius), nil
	case geom.ShapeCone:
		return sim.Cone(s.Height/2, s.Radius), nil
	case geom.ShapeCapsule:
		return sim.Capsule(max(s.Height/2-s.Radius, 0), s.Radius), nil
	case geom.ShapeTrimesh:
		tris := make([][3]uint32, 0, len(s.Indices)/3)
		for i := 0; i+2 < len(s.Indices); i += 3 {
			tris = append(tris, [3]uint32{s.Indices[i], s.Indices[i+1], s.Indices[i+2]})
		}
		return sim.TriMesh(points(s.Vertices), tris), nil
	case geom.ShapeConvex:
		return sim.ConvexHull(points(s.Vertices))
	}
	return sim.ColliderDesc{}, geom.ErrInvalidShape
}
