// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package physics wraps the rigid-body simulation: it owns the simulation
// world and its event queue, tracks one body per id, translates shape
// descriptors to native colliders, copies simulated transforms back to
// their targets, and forwards collision events to listeners.
package physics

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/physics/sim"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// ErrNotInitialized is returned when the engine is used before Initialize.
var ErrNotInitialized = oops.Code("PHYSICS_NOT_INITIALIZED").Errorf("physics engine not initialized")

// Config holds simulation settings.
type Config struct {
	Gravity          geom.Vector3 `koanf:"gravity"`
	Timestep         float64      `koanf:"timestep"`
	Sleeping         bool         `koanf:"sleeping"`
	CCD              bool         `koanf:"ccd"`
	SolverIterations int          `koanf:"solver_iterations"`
}

// DefaultConfig returns earth gravity at 60 Hz.
func DefaultConfig() Config {
	return Config{
		Gravity:          geom.Vec3(0, -9.81, 0),
		Timestep:         1.0 / 60.0,
		Sleeping:         true,
		SolverIterations: 4,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Timestep <= 0 {
		return oops.Code("INVALID_PHYSICS_CONFIG").With("timestep", c.Timestep).Errorf("timestep must be positive")
	}
	if c.SolverIterations < 1 {
		return oops.Code("INVALID_PHYSICS_CONFIG").With("solver_iterations", c.SolverIterations).Errorf("solver iterations must be at least 1")
	}
	return nil
}

// Listener receives physics events.
type Listener func(Event)

// Engine owns the simulation world. It is not safe for concurrent use;
// call Step once per frame from the host loop.
type Engine struct {
	cfg        Config
	logger     *slog.Logger
	world      *sim.World
	queue      *sim.EventQueue
	bodies     map[string]*Body
	order      []string
	byCollider map[sim.ColliderHandle]*Body
	listeners  []Listener
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine. Call Initialize before use.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize creates the simulation world. Calling it again is a no-op.
func (e *Engine) Initialize() error {
	if e.world != nil {
		return nil
	}
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	w := sim.NewWorld(e.cfg.Gravity.Mgl())
	w.Params.Timestep = e.cfg.Timestep
	w.Params.SolverIterations = e.cfg.SolverIterations
	w.Sleeping = e.cfg.Sleeping
	w.CCD = e.cfg.CCD

	e.world = w
	e.queue = sim.NewEventQueue()
	e.bodies = make(map[string]*Body)
	e.byCollider = make(map[sim.ColliderHandle]*Body)
	e.order = nil
	TrackedBodies.Set(0)

	e.logger.Debug("physics engine initialized",
		"gravity", e.cfg.Gravity,
		"timestep", e.cfg.Timestep)
	return nil
}

// Initialized reports whether the world exists.
func (e *Engine) Initialized() bool { return e.world != nil }

// Dispose frees the world and the event queue and forgets every body.
// The engine can be initialized again afterwards.
func (e *Engine) Dispose() {
	if e.world == nil {
		return
	}
	e.queue.Clear()
	e.world.Free()
	e.world = nil
	e.queue = nil
	e.bodies = nil
	e.byCollider = nil
	e.order = nil
	TrackedBodies.Set(0)
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// CreateRigidBody builds a body of kind for id, placed at target's current
// transform, with one collider built from shape. If id is already tracked the
// existing body is returned unchanged. On failure nothing is registered.
func (e *Engine) CreateRigidBody(id string, target Target, shape geom.Shape, kind Kind, opts ...BodyOption) (body *Body, err error) {
	if e.world == nil {
		return nil, ErrNotInitialized
	}
	if existing, ok := e.bodies[id]; ok {
		e.logger.Warn("rigid body already exists", "id", id)
		return existing, nil
	}
	if target == nil {
		return nil, oops.Code("PHYSICS_BODY_FAILED").With("id", id).Errorf("target is required")
	}

	o := defaultBodyOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var handle sim.BodyHandle
	created := false
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("PHYSICS_BODY_FAILED").With("id", id).With("shape", shape.Kind).Errorf("engine panic: %v", r)
		}
		if err != nil {
			if created {
				e.world.RemoveRigidBody(handle)
			}
			body = nil
			e.logger.Error("failed to create rigid body", "id", id, "shape", shape.Kind, "error", err)
		}
	}()

	desc, err := colliderDesc(shape)
	if err != nil {
		return nil, oops.Code("PHYSICS_BODY_FAILED").With("id", id).With("shape", shape.Kind).Wrapf(err, "build collider")
	}
	desc = desc.WithFriction(o.friction).WithRestitution(o.restitution).WithDensity(o.density).WithSensor(o.sensor)

	tf := target.Transform()
	bodyDesc := sim.NewRigidBodyDesc(kind.simType()).
		WithTranslation(tf.Position.Mgl()).
		WithRotation(normalizeQuat(tf.Rotation)).
		WithCCD(o.ccd)
	if o.mass > 0 {
		bodyDesc = bodyDesc.WithMass(o.mass)
	}

	rb := e.world.CreateRigidBody(bodyDesc)
	handle, created = rb.Handle(), true
	col, err := e.world.CreateCollider(desc, handle)
	if err != nil {
		return nil, oops.Code("PHYSICS_BODY_FAILED").With("id", id).With("shape", shape.Kind).Wrapf(err, "create collider")
	}

	body = &Body{
		ID:          id,
		Kind:        kind,
		Shape:       shape,
		Mass:        rb.Mass(),
		Friction:    o.friction,
		Restitution: o.restitution,
		Sensor:      o.sensor,
		handle:      handle,
		collider:    col.Handle(),
		target:      target,
	}
	e.bodies[id] = body
	e.byCollider[body.collider] = body
	e.order = append(e.order, id)
	TrackedBodies.Set(float64(len(e.bodies)))
	return body, nil
}

// RemoveRigidBody removes the body for id and reports whether it existed.
func (e *Engine) RemoveRigidBody(id string) bool {
	if e.world == nil {
		return false
	}
	body, ok := e.bodies[id]
	if !ok {
		return false
	}
	e.world.RemoveRigidBody(body.handle)
	delete(e.bodies, id)
	delete(e.byCollider, body.collider)
	e.order = slices.DeleteFunc(e.order, func(x string) bool { return x == id })
	TrackedBodies.Set(float64(len(e.bodies)))
	return true
}

// Body returns the body tracked under id.
func (e *Engine) Body(id string) (*Body, bool) {
	body, ok := e.bodies[id]
	return body, ok
}

// Bodies returns every tracked body in creation order.
func (e *Engine) Bodies() []*Body {
	out := make([]*Body, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.bodies[id])
	}
	return out
}

// AddListener registers l to receive events. Listeners run in registration
// order.
func (e *Engine) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Step advances the simulation by dt seconds, or by the configured timestep
// when dt is not positive. Non-static bodies then write their transforms to
// their targets, and buffered events are delivered to listeners.
func (e *Engine) Step(dt float64) {
	if e.world == nil {
		return
	}
	if dt <= 0 {
		dt = e.cfg.Timestep
	}
	start := time.Now()

	e.world.Params.Timestep = dt
	e.world.Step(e.queue)

	for _, id := range e.order {
		body := e.bodies[id]
		if body.IsStatic() {
			continue
		}
		rb, ok := e.world.Body(body.handle)
		if !ok {
			continue
		}
		tf := body.target.Transform()
		tf.Position = geom.FromMgl(rb.Translation())
		tf.Rotation = rb.Rotation()
		body.target.SetTransform(tf)
	}

	e.drainEvents()
	StepDuration.Observe(time.Since(start).Seconds())
}

// SetGravity changes the world gravity.
func (e *Engine) SetGravity(g geom.Vector3) {
	e.cfg.Gravity = g
	if e.world != nil {
		e.world.Gravity = g.Mgl()
	}
}

// Gravity returns the world gravity.
func (e *Engine) Gravity() geom.Vector3 { return e.cfg.Gravity }

// movable returns the simulation body for a tracked, non-static id.
func (e *Engine) movable(id string) (*sim.RigidBody, bool) {
	if e.world == nil {
		return nil, false
	}
	body, ok := e.bodies[id]
	if !ok || body.IsStatic() {
		return nil, false
	}
	return e.world.Body(body.handle)
}

// ApplyForce adds a force for the next step. It returns false for unknown
// ids and static bodies.
func (e *Engine) ApplyForce(id string, f geom.Vector3) bool {
	rb, ok := e.movable(id)
	if !ok {
		return false
	}
	rb.AddForce(f.Mgl(), true)
	return true
}

// ApplyImpulse changes a body's velocity immediately.
func (e *Engine) ApplyImpulse(id string, j geom.Vector3) bool {
	rb, ok := e.movable(id)
	if !ok {
		return false
	}
	rb.ApplyImpulse(j.Mgl(), true)
	return true
}

// SetVelocity sets a body's linear velocity.
func (e *Engine) SetVelocity(id string, v geom.Vector3) bool {
	rb, ok := e.movable(id)
	if !ok {
		return false
	}
	rb.SetLinearVelocity(v.Mgl(), true)
	return true
}

// SetAngularVelocity sets a body's angular velocity in radians per second.
func (e *Engine) SetAngularVelocity(id string, w geom.Vector3) bool {
	rb, ok := e.movable(id)
	if !ok {
		return false
	}
	rb.SetAngularVelocity(w.Mgl(), true)
	return true
}

// Velocity returns a body's linear velocity.
func (e *Engine) Velocity(id string) (geom.Vector3, bool) {
	if e.world == nil {
		return geom.Vector3{}, false
	}
	body, ok := e.bodies[id]
	if !ok {
		return geom.Vector3{}, false
	}
	rb, ok := e.world.Body(body.handle)
	if !ok {
		return geom.Vector3{}, false
	}
	return geom.FromMgl(rb.LinearVelocity()), true
}

// BodyTransform returns the simulated position and orientation of id. The
// scale is taken from the body's target.
func (e *Engine) BodyTransform(id string) (geom.Transform, bool) {
	if e.world == nil {
		return geom.Transform{}, false
	}
	body, ok := e.bodies[id]
	if !ok {
		return geom.Transform{}, false
	}
	rb, ok := e.world.Body(body.handle)
	if !ok {
		return geom.Transform{}, false
	}
	tf := body.target.Transform()
	tf.Position = geom.FromMgl(rb.Translation())
	tf.Rotation = rb.Rotation()
	return tf, true
}

// SetBodyTransform moves a body. Kinematic bodies reach the transform at the
// end of the next step; other bodies are teleported.
func (e *Engine) SetBodyTransform(id string, tf geom.Transform) bool {
	if e.world == nil {
		return false
	}
	body, ok := e.bodies[id]
	if !ok {
		return false
	}
	rb, ok := e.world.Body(body.handle)
	if !ok {
		return false
	}
	rot := normalizeQuat(tf.Rotation)
	if body.Kind == KindKinematic {
		rb.SetNextKinematicTranslation(tf.Position.Mgl())
		rb.SetNextKinematicRotation(rot)
		return true
	}
	rb.SetTranslation(tf.Position.Mgl(), true)
	rb.SetRotation(rot, true)
	return true
}

// DebugInfo summarizes engine state.
type DebugInfo struct {
	Initialized bool
	Bodies      int
	Colliders   int
	Sleeping    int
	Steps       uint64
	Gravity     geom.Vector3
	Timestep    float64
}

func (d DebugInfo) String() string {
	return fmt.Sprintf("bodies=%d colliders=%d sleeping=%d steps=%d", d.Bodies, d.Colliders, d.Sleeping, d.Steps)
}

// DebugInfo returns a snapshot of engine state.
func (e *Engine) DebugInfo() DebugInfo {
	info := DebugInfo{
		Initialized: e.world != nil,
		Gravity:     e.cfg.Gravity,
		Timestep:    e.cfg.Timestep,
	}
	if e.world == nil {
		return info
	}
	info.Bodies = len(e.bodies)
	info.Colliders = e.world.NumColliders()
	info.Steps = e.world.StepCount()
	for _, body := range e.bodies {
		if rb, ok := e.world.Body(body.handle); ok && rb.IsSleeping() {
			info.Sleeping++
		}
	}
	return info
}

func normalizeQuat(q mgl64.Quat) mgl64.Quat {
	if q.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

func points(vs []geom.Vector3) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(vs))
	for i, v := range vs {
		out[i] = v.Mgl()
	}
	return out
}
