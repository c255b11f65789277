// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package physics

import (
	"github.com/fluxstudio/fluxstudio/internal/physics/sim"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// EventKind classifies physics events.
type EventKind string

// Event kinds.
const (
	// EventCollision is a solid contact starting or ending.
	EventCollision EventKind = "collision"
	// EventTrigger is a sensor overlap starting or ending.
	EventTrigger EventKind = "trigger"
	// EventContact reports the force of an ongoing solid contact.
	EventContact EventKind = "contact"
)

// Event is delivered to listeners after each step.
type Event struct {
	Kind  EventKind
	BodyA string
	BodyB string
	// Started distinguishes enter from exit for collision and trigger events.
	Started bool
	// Impulse is the contact force magnitude observed for the pair this step.
	Impulse float64
	// Normal points from BodyA toward BodyB. Only set on contact events.
	Normal geom.Vector3
}

type pairForce struct {
	magnitude float64
	normal    geom.Vector3
}

func (e *Engine) drainEvents() {
	forces := make(map[[2]string]pairForce)
	var contacts []Event
	e.queue.DrainContactForceEvents(func(ev sim.ContactForceEvent) {
		a, aok := e.byCollider[ev.Collider1]
		b, bok := e.byCollider[ev.Collider2]
		if !aok || !bok {
			return
		}
		n := geom.FromMgl(ev.MaxForceDirection)
		forces[[2]string{a.ID, b.ID}] = pairForce{ev.TotalForceMagnitude, n}
		forces[[2]string{b.ID, a.ID}] = pairForce{ev.TotalForceMagnitude, n.Scale(-1)}
		contacts = append(contacts, Event{
			Kind:    EventContact,
			BodyA:   a.ID,
			BodyB:   b.ID,
			Started: true,
			Impulse: ev.TotalForceMagnitude,
			Normal:  n,
		})
	})

	var events []Event
	e.queue.DrainCollisionEvents(func(ev sim.CollisionEvent) {
		a, aok := e.byCollider[ev.Collider1]
		b, bok := e.byCollider[ev.Collider2]
		if !aok || !bok {
			return
		}
		kind := EventCollision
		if ev.Sensor {
			kind = EventTrigger
		}
		out := Event{Kind: kind, BodyA: a.ID, BodyB: b.ID, Started: ev.Started}
		if f, ok := forces[[2]string{a.ID, b.ID}]; ok && kind == EventCollision {
			out.Impulse = f.magnitude
			out.Normal = f.normal
		}
		events = append(events, out)
	})

	if len(e.listeners) == 0 {
		return
	}
	for _, ev := range append(events, contacts...) {
		for _, l := range e.listeners {
			l(ev)
		}
	}
}
