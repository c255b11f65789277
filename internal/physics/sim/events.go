// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package sim

import "github.com/go-gl/mathgl/mgl64"

// CollisionEvent reports two colliders starting or stopping to touch.
type CollisionEvent struct {
	Collider1 ColliderHandle
	Collider2 ColliderHandle
	Started   bool
	// Sensor is set when either collider is a sensor.
	Sensor bool
}

// ContactForceEvent reports the force exchanged by two touching colliders
// during one step.
type ContactForceEvent struct {
	Collider1           ColliderHandle
	Collider2           ColliderHandle
	TotalForceMagnitude float64
	// MaxForceDirection points from Collider1 toward Collider2.
	MaxForceDirection mgl64.Vec3
}

// EventQueue buffers events produced by World.Step until drained.
type EventQueue struct {
	collisions []CollisionEvent
	forces     []ContactForceEvent
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// DrainCollisionEvents passes every buffered collision event to fn in the
// order produced and empties the buffer.
func (q *EventQueue) DrainCollisionEvents(fn func(CollisionEvent)) {
	events := q.collisions
	q.collisions = nil
	for _, e := range events {
		fn(e)
	}
}

// DrainContactForceEvents passes every buffered contact-force event to fn and
// empties the buffer.
func (q *EventQueue) DrainContactForceEvents(fn func(ContactForceEvent)) {
	events := q.forces
	q.forces = nil
	for _, e := range events {
		fn(e)
	}
}

// Len returns the number of buffered events of both kinds.
func (q *EventQueue) Len() int { return len(q.collisions) + len(q.forces) }

// Clear drops buffered events.
func (q *EventQueue) Clear() {
	q.collisions = nil
	q.forces = nil
}

func (q *EventQueue) pushCollision(e CollisionEvent) {
	if q != nil {
		q.collisions = append(q.collisions, e)
	}
}

func (q *EventQueue) pushForce(e ContactForceEvent) {
	if q != nil {
		q.forces = append(q.forces, e)
	}
}
