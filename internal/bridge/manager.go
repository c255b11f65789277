// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package bridge connects world object instances to the physics engine.
// It creates one rigid body per physics-enabled instance, keeps instance
// properties and simulated transforms in step, and routes collision events
// to the handlers declared by each type.
package bridge

import (
	"log/slog"
	"slices"

	"github.com/fluxstudio/fluxstudio/internal/object"
	"github.com/fluxstudio/fluxstudio/internal/physics"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Manager tracks the instances that own a physics body. It does not own
// the instances.
type Manager struct {
	engine  *physics.Engine
	logger  *slog.Logger
	objects map[string]*object.WorldObject
	order   []string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a manager and subscribes it to engine events.
func NewManager(engine *physics.Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:  engine,
		logger:  slog.Default(),
		objects: make(map[string]*object.WorldObject),
	}
	for _, opt := range opts {
		opt(m)
	}
	engine.AddListener(m.route)
	return m
}

// AddPhysicsObject creates the rigid body for obj. The type must enable
// physics and obj must have a renderable. The collider comes from the
// declared shape, or is inferred from the renderable's geometry. On engine
// failure nothing is tracked and false is returned.
func (m *Manager) AddPhysicsObject(obj *object.WorldObject) bool {
	if obj == nil || !obj.PhysicsEnabled() {
		return false
	}
	if obj.Renderable == nil {
		m.logger.Warn("physics object has no renderable", "id", obj.ID, "type", obj.Type())
		return false
	}
	if _, ok := m.objects[obj.ID]; ok {
		m.logger.Warn("physics object already tracked", "id", obj.ID)
		return true
	}

	desc := obj.Physics()
	kind, err := physics.ParseKind(string(desc.Kind))
	if err != nil {
		m.logger.Error("invalid physics body kind", "id", obj.ID, "type", obj.Type(), "error", err)
		return false
	}

	var shape geom.Shape
	if desc.Shape != nil {
		shape = *desc.Shape
	} else {
		shape = InferShape(obj.Renderable.Geometry(), obj.Properties.Scale)
	}

	var opts []physics.BodyOption
	if desc.Friction > 0 {
		opts = append(opts, physics.WithFriction(desc.Friction))
	}
	if desc.Restitution > 0 {
		opts = append(opts, physics.WithRestitution(desc.Restitution))
	}
	if desc.Density > 0 {
		opts = append(opts, physics.WithDensity(desc.Density))
	}
	if desc.Mass > 0 {
		opts = append(opts, physics.WithMass(desc.Mass))
	}
	if desc.Sensor {
		opts = append(opts, physics.WithSensor(true))
	}

	obj.ApplyToRenderable()
	body, err := m.engine.CreateRigidBody(obj.ID, obj.Renderable, shape, kind, opts...)
	if err != nil {
		m.logger.Error("failed to add physics object", "id", obj.ID, "type", obj.Type(), "shape", shape.Kind, "error", err)
		return false
	}

	obj.Body = body
	m.objects[obj.ID] = obj
	m.order = append(m.order, obj.ID)
	return true
}

// RemovePhysicsObject removes the body of id and stops tracking it.
func (m *Manager) RemovePhysicsObject(id string) bool {
	obj, ok := m.objects[id]
	if !ok {
		return false
	}
	m.engine.RemoveRigidBody(id)
	obj.Body = nil
	delete(m.objects, id)
	m.order = slices.DeleteFunc(m.order, func(x string) bool { return x == id })
	return true
}

// UpdatePhysicsObject reconciles obj with its body. Moving bodies are
// authoritative: their simulated transform is copied to the instance and the
// renderable. For static bodies the renderable is authoritative and the body
// is moved to it.
func (m *Manager) UpdatePhysicsObject(obj *object.WorldObject) {
	if obj == nil || obj.Body == nil || obj.Renderable == nil {
		return
	}
	if obj.Body.IsStatic() {
		m.engine.SetBodyTransform(obj.ID, obj.Renderable.Transform())
		return
	}
	tf, ok := m.engine.BodyTransform(obj.ID)
	if !ok {
		return
	}
	obj.Properties.Position = tf.Position
	obj.Properties.Rotation = tf.Euler()
	obj.Renderable.SetTransform(tf)
}

// SyncAll updates every tracked instance.
func (m *Manager) SyncAll() {
	for _, id := range m.order {
		m.UpdatePhysicsObject(m.objects[id])
	}
}

// Object returns the tracked instance for id.
func (m *Manager) Object(id string) (*object.WorldObject, bool) {
	obj, ok := m.objects[id]
	return obj, ok
}

// Len returns the number of tracked instances.
func (m *Manager) Len() int { return len(m.objects) }

// ApplyForce delegates to the engine.
func (m *Manager) ApplyForce(id string, f geom.Vector3) bool {
	if _, ok := m.objects[id]; !ok {
		return false
	}
	return m.engine.ApplyForce(id, f)
}

// ApplyImpulse delegates to the engine.
func (m *Manager) ApplyImpulse(id string, j geom.Vector3) bool {
	if _, ok := m.objects[id]; !ok {
		return false
	}
	return m.engine.ApplyImpulse(id, j)
}

// SetVelocity delegates to the engine.
func (m *Manager) SetVelocity(id string, v geom.Vector3) bool {
	if _, ok := m.objects[id]; !ok {
		return false
	}
	return m.engine.SetVelocity(id, v)
}

func (m *Manager) route(ev physics.Event) {
	if ev.Kind == physics.EventContact {
		return
	}
	m.notify(ev.BodyA, ev.BodyB, ev)
	m.notify(ev.BodyB, ev.BodyA, ev)
}

func (m *Manager) notify(self, otherID string, ev physics.Event) {
	obj, ok := m.objects[self]
	if !ok {
		return
	}
	desc := obj.Physics()
	if desc == nil {
		return
	}
	other, ok := m.objects[otherID]
	if !ok {
		return
	}
	switch {
	case ev.Kind == physics.EventCollision && ev.Started:
		if desc.OnCollisionStart != nil {
			desc.OnCollisionStart(other, ev.Impulse)
		}
	case ev.Kind == physics.EventCollision:
		if desc.OnCollisionEnd != nil {
			desc.OnCollisionEnd(other)
		}
	case ev.Kind == physics.EventTrigger && ev.Started:
		if desc.OnTriggerEnter != nil {
			desc.OnTriggerEnter(other)
		}
	case ev.Kind == physics.EventTrigger:
		if desc.OnTriggerExit != nil {
			desc.OnTriggerExit(other)
		}
	}
}
