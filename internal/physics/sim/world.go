// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package sim is a small handle-based rigid-body simulation. A World owns a
// body set and a collider set addressed by handles that are never reused.
// Stepping integrates velocities, resolves contacts with speculative
// constraints, and reports collision and contact-force events into an
// EventQueue supplied by the caller.
//
// Contact geometry is approximate: balls are exact, every other shape
// collides as its oriented bounding box. Ray casts are exact for balls,
// boxes, and triangle meshes.
package sim

import (
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyHandle addresses a rigid body in a World.
type BodyHandle uint64

// ColliderHandle addresses a collider in a World.
type ColliderHandle uint64

// ErrUnknownBody is returned for handles that do not name a live body.
var ErrUnknownBody = errors.New("unknown rigid body")

// IntegrationParams tune the solver.
type IntegrationParams struct {
	Timestep         float64
	SolverIterations int
	// SleepThreshold is the speed under which a body starts counting idle time.
	SleepThreshold float64
	// SleepTime is the idle time after which a body falls asleep.
	SleepTime float64
	// AllowedPenetration is the overlap left uncorrected to keep contacts stable.
	AllowedPenetration float64
	// PredictionDistance is the gap under which contacts become speculative constraints.
	PredictionDistance float64
}

// DefaultIntegrationParams returns parameters for a 60 Hz simulation.
func DefaultIntegrationParams() IntegrationParams {
	return IntegrationParams{
		Timestep:           1.0 / 60.0,
		SolverIterations:   4,
		SleepThreshold:     0.05,
		SleepTime:          1,
		AllowedPenetration: 0.001,
		PredictionDistance: 0.02,
	}
}

// World is a rigid-body simulation. It is not safe for concurrent use.
type World struct {
	Gravity     mgl64.Vec3
	Params      IntegrationParams
	Sleeping    bool
	CCD         bool
	nextBody    BodyHandle
	nextCol     ColliderHandle
	bodies      map[BodyHandle]*RigidBody
	bodyOrder   []BodyHandle
	colliders   map[ColliderHandle]*Collider
	colOrder    []ColliderHandle
	touching    map[pairKey]bool
	freed       bool
	stepCounter uint64
}

// NewWorld creates an empty world.
func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		Gravity:   gravity,
		Params:    DefaultIntegrationParams(),
		Sleeping:  true,
		bodies:    make(map[BodyHandle]*RigidBody),
		colliders: make(map[ColliderHandle]*Collider),
		touching:  make(map[pairKey]bool),
	}
}

// CreateRigidBody inserts a body and returns it.
func (w *World) CreateRigidBody(desc RigidBodyDesc) *RigidBody {
	w.nextBody++
	rot := desc.Rotation
	if rot == (mgl64.Quat{}) {
		rot = mgl64.QuatIdent()
	}
	b := &RigidBody{
		handle:         w.nextBody,
		bodyType:       desc.Type,
		pos:            desc.Translation,
		rot:            rot.Normalize(),
		gravityScale:   desc.GravityScale,
		linearDamping:  desc.LinearDamping,
		angularDamping: desc.AngularDamping,
		canSleep:       desc.CanSleep,
		ccd:            desc.CCD,
	}
	if desc.Type == Dynamic {
		b.linvel = desc.LinearVelocity
	}
	if desc.Mass > 0 {
		b.fixedMass = true
		b.setMass(desc.Mass)
	} else {
		b.setMass(1)
	}
	w.bodies[b.handle] = b
	w.bodyOrder = append(w.bodyOrder, b.handle)
	return b
}

// CreateCollider attaches a collider to parent.
func (w *World) CreateCollider(desc ColliderDesc, parent BodyHandle) (*Collider, error) {
	body, ok := w.bodies[parent]
	if !ok {
		return nil, ErrUnknownBody
	}
	if err := desc.validate(); err != nil {
		return nil, err
	}
	w.nextCol++
	c := &Collider{handle: w.nextCol, parent: parent, desc: desc}
	c.center, c.half = desc.localBounds()
	w.colliders[c.handle] = c
	w.colOrder = append(w.colOrder, c.handle)
	body.colliders = append(body.colliders, c.handle)
	body.recomputeMass(w.collidersOf(body))
	return c, nil
}

// RemoveRigidBody removes a body and its colliders. It reports whether the
// body existed.
func (w *World) RemoveRigidBody(h BodyHandle) bool {
	body, ok := w.bodies[h]
	if !ok {
		return false
	}
	for _, ch := range body.colliders {
		w.dropCollider(ch)
	}
	delete(w.bodies, h)
	w.bodyOrder = slices.DeleteFunc(w.bodyOrder, func(x BodyHandle) bool { return x == h })
	return true
}

// RemoveCollider detaches and removes a collider.
func (w *World) RemoveCollider(h ColliderHandle) bool {
	c, ok := w.colliders[h]
	if !ok {
		return false
	}
	w.dropCollider(h)
	if body, ok := w.bodies[c.parent]; ok {
		body.colliders = slices.DeleteFunc(body.colliders, func(x ColliderHandle) bool { return x == h })
		body.recomputeMass(w.collidersOf(body))
	}
	return true
}

func (w *World) dropCollider(h ColliderHandle) {
	delete(w.colliders, h)
	w.colOrder = slices.DeleteFunc(w.colOrder, func(x ColliderHandle) bool { return x == h })
	for k := range w.touching {
		if k.a == h || k.b == h {
			delete(w.touching, k)
		}
	}
}

// Body returns the body for h.
func (w *World) Body(h BodyHandle) (*RigidBody, bool) {
	b, ok := w.bodies[h]
	return b, ok
}

// Collider returns the collider for h.
func (w *World) Collider(h ColliderHandle) (*Collider, bool) {
	c, ok := w.colliders[h]
	return c, ok
}

// NumBodies returns the number of live bodies.
func (w *World) NumBodies() int { return len(w.bodies) }

// NumColliders returns the number of live colliders.
func (w *World) NumColliders() int { return len(w.colliders) }

// StepCount returns how many steps the world has taken.
func (w *World) StepCount() uint64 { return w.stepCounter }

// Free releases every body and collider. The world must not be used after.
func (w *World) Free() {
	w.bodies = nil
	w.colliders = nil
	w.bodyOrder = nil
	w.colOrder = nil
	w.touching = nil
	w.freed = true
}

// Freed reports whether Free has been called.
func (w *World) Freed() bool { return w.freed }

func (w *World) collidersOf(b *RigidBody) []*Collider {
	out := make([]*Collider, 0, len(b.colliders))
	for _, h := range b.colliders {
		if c, ok := w.colliders[h]; ok {
			out = append(out, c)
		}
	}
	return out
}
