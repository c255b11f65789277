// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package sim

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType selects how a body moves.
type BodyType int

// Body types.
const (
	// Fixed bodies never move.
	Fixed BodyType = iota
	// Dynamic bodies are moved by gravity, forces, and contacts.
	Dynamic
	// KinematicPositionBased bodies follow positions set by the caller and
	// push dynamic bodies without being pushed back.
	KinematicPositionBased
)

func (t BodyType) String() string {
	switch t {
	case Fixed:
		return "fixed"
	case Dynamic:
		return "dynamic"
	case KinematicPositionBased:
		return "kinematic_position_based"
	}
	return "unknown"
}

// RigidBodyDesc describes a body before it is inserted into a world.
type RigidBodyDesc struct {
	Type           BodyType
	Translation    mgl64.Vec3
	Rotation       mgl64.Quat
	LinearVelocity mgl64.Vec3
	// Mass overrides the density-derived mass when positive.
	Mass           float64
	GravityScale   float64
	LinearDamping  float64
	AngularDamping float64
	CanSleep       bool
	CCD            bool
}

// NewRigidBodyDesc returns a description of a body of type t at the origin.
func NewRigidBodyDesc(t BodyType) RigidBodyDesc {
	return RigidBodyDesc{Type: t, Rotation: mgl64.QuatIdent(), GravityScale: 1, CanSleep: true}
}

// WithTranslation sets the initial position.
func (d RigidBodyDesc) WithTranslation(p mgl64.Vec3) RigidBodyDesc { d.Translation = p; return d }

// WithRotation sets the initial orientation.
func (d RigidBodyDesc) WithRotation(q mgl64.Quat) RigidBodyDesc { d.Rotation = q; return d }

// WithMass sets an explicit mass.
func (d RigidBodyDesc) WithMass(m float64) RigidBodyDesc { d.Mass = m; return d }

// WithCCD enables swept motion against fast tunneling.
func (d RigidBodyDesc) WithCCD(on bool) RigidBodyDesc { d.CCD = on; return d }

// RigidBody is a body living in a World.
type RigidBody struct {
	handle    BodyHandle
	bodyType  BodyType
	pos       mgl64.Vec3
	rot       mgl64.Quat
	linvel    mgl64.Vec3
	angvel    mgl64.Vec3
	force     mgl64.Vec3
	mass      float64
	fixedMass bool
	invMass   float64

	gravityScale   float64
	linearDamping  float64
	angularDamping float64
	canSleep       bool
	ccd            bool
	sleeping       bool
	idle           float64

	nextPos *mgl64.Vec3
	nextRot *mgl64.Quat

	colliders []ColliderHandle
}

// Handle returns the body handle.
func (b *RigidBody) Handle() BodyHandle { return b.handle }

// Type returns the body type.
func (b *RigidBody) Type() BodyType { return b.bodyType }

// IsFixed reports whether the body never moves.
func (b *RigidBody) IsFixed() bool { return b.bodyType == Fixed }

// IsDynamic reports whether the body responds to forces.
func (b *RigidBody) IsDynamic() bool { return b.bodyType == Dynamic }

// Translation returns the body position.
func (b *RigidBody) Translation() mgl64.Vec3 { return b.pos }

// Rotation returns the body orientation.
func (b *RigidBody) Rotation() mgl64.Quat { return b.rot }

// LinearVelocity returns the linear velocity.
func (b *RigidBody) LinearVelocity() mgl64.Vec3 { return b.linvel }

// AngularVelocity returns the angular velocity in radians per second.
func (b *RigidBody) AngularVelocity() mgl64.Vec3 { return b.angvel }

// Mass returns the body mass. Non-dynamic bodies report zero.
func (b *RigidBody) Mass() float64 {
	if b.bodyType != Dynamic {
		return 0
	}
	return b.mass
}

// IsSleeping reports whether the body is asleep.
func (b *RigidBody) IsSleeping() bool { return b.sleeping }

// Colliders returns the handles of attached colliders.
func (b *RigidBody) Colliders() []ColliderHandle {
	out := make([]ColliderHandle, len(b.colliders))
	copy(out, b.colliders)
	return out
}

// WakeUp wakes a sleeping body.
func (b *RigidBody) WakeUp() {
	b.sleeping = false
	b.idle = 0
}

// SetTranslation teleports the body.
func (b *RigidBody) SetTranslation(p mgl64.Vec3, wake bool) {
	b.pos = p
	b.nextPos = nil
	if wake {
		b.WakeUp()
	}
}

// SetRotation sets the orientation directly.
func (b *RigidBody) SetRotation(q mgl64.Quat, wake bool) {
	b.rot = q.Normalize()
	b.nextRot = nil
	if wake {
		b.WakeUp()
	}
}

// SetNextKinematicTranslation schedules the position a kinematic body
// reaches at the end of the next step.
func (b *RigidBody) SetNextKinematicTranslation(p mgl64.Vec3) {
	b.nextPos = &p
}

// SetNextKinematicRotation schedules the orientation a kinematic body
// reaches at the end of the next step.
func (b *RigidBody) SetNextKinematicRotation(q mgl64.Quat) {
	q = q.Normalize()
	b.nextRot = &q
}

// SetLinearVelocity sets the linear velocity of a dynamic body.
func (b *RigidBody) SetLinearVelocity(v mgl64.Vec3, wake bool) {
	if b.bodyType != Dynamic {
		return
	}
	b.linvel = v
	if wake {
		b.WakeUp()
	}
}

// SetAngularVelocity sets the angular velocity of a dynamic body.
func (b *RigidBody) SetAngularVelocity(w mgl64.Vec3, wake bool) {
	if b.bodyType != Dynamic {
		return
	}
	b.angvel = w
	if wake {
		b.WakeUp()
	}
}

// AddForce accumulates a force applied during the next step.
func (b *RigidBody) AddForce(f mgl64.Vec3, wake bool) {
	if b.bodyType != Dynamic {
		return
	}
	b.force = b.force.Add(f)
	if wake {
		b.WakeUp()
	}
}

// ApplyImpulse changes the velocity immediately.
func (b *RigidBody) ApplyImpulse(j mgl64.Vec3, wake bool) {
	if b.bodyType != Dynamic {
		return
	}
	b.linvel = b.linvel.Add(j.Mul(b.invMass))
	if wake {
		b.WakeUp()
	}
}

// ResetForces clears accumulated forces.
func (b *RigidBody) ResetForces() {
	b.force = mgl64.Vec3{}
}

func (b *RigidBody) inverseMass() float64 {
	if b.bodyType != Dynamic {
		return 0
	}
	return b.invMass
}

func (b *RigidBody) recomputeMass(colliders []*Collider) {
	if b.fixedMass {
		return
	}
	m := 0.0
	for _, c := range colliders {
		if c.desc.Sensor {
			continue
		}
		m += c.desc.Density * c.desc.volume()
	}
	if m <= 0 {
		m = 1
	}
	b.setMass(m)
}

func (b *RigidBody) setMass(m float64) {
	b.mass = m
	b.invMass = 1 / m
}
