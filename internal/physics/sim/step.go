// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package sim

import (
	"cmp"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// contactTolerance is the gap under which solid colliders count as touching.
	contactTolerance = 0.005
	// bounceThreshold is the approach speed under which restitution is ignored.
	bounceThreshold = 1.0
	// correctionFactor is the share of excess penetration removed per step.
	correctionFactor = 0.8
)

type pairKey struct {
	a, b ColliderHandle
}

func makePair(a, b ColliderHandle) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

type contact struct {
	a, b     placed
	normal   mgl64.Vec3
	depth    float64
	target   float64
	impulse  float64
	friction float64
}

// Step advances the world by Params.Timestep and pushes the events it
// produces into events, which may be nil.
func (w *World) Step(events *EventQueue) {
	if w.freed {
		return
	}
	dt := w.Params.Timestep
	if dt <= 0 {
		return
	}
	w.stepCounter++

	w.integrateVelocities(dt)

	contacts := w.detect(dt, true)
	w.wakeTouched(contacts)
	w.solve(contacts, dt)

	w.integratePositions(dt)

	after := w.detect(dt, false)
	w.correctPositions(after)
	w.emitEvents(after, contacts, events, dt)
	w.updateSleep(dt)
}

func (w *World) integrateVelocities(dt float64) {
	for _, h := range w.bodyOrder {
		b := w.bodies[h]
		switch b.bodyType {
		case KinematicPositionBased:
			b.linvel = mgl64.Vec3{}
			if b.nextPos != nil {
				b.linvel = b.nextPos.Sub(b.pos).Mul(1 / dt)
			}
		case Dynamic:
			if b.sleeping {
				continue
			}
			acc := w.Gravity.Mul(b.gravityScale).Add(b.force.Mul(b.invMass))
			b.linvel = b.linvel.Add(acc.Mul(dt))
			b.linvel = b.linvel.Mul(1 / (1 + dt*b.linearDamping))
			b.angvel = b.angvel.Mul(1 / (1 + dt*b.angularDamping))
		}
	}
}

// detect finds collider pairs that touch or may touch within one step.
// When predictive, the search margin grows with the pair's closing speed so
// fast bodies are caught before they pass through.
func (w *World) detect(dt float64, predictive bool) []contact {
	placedCols := make([]placed, 0, len(w.colOrder))
	for _, h := range w.colOrder {
		if p, ok := w.place(w.colliders[h]); ok {
			placedCols = append(placedCols, p)
		}
	}

	var out []contact
	for i := 0; i < len(placedCols); i++ {
		for j := i + 1; j < len(placedCols); j++ {
			a, b := placedCols[i], placedCols[j]
			if a.body == b.body || (a.body.bodyType != Dynamic && b.body.bodyType != Dynamic) {
				continue
			}
			margin := w.Params.PredictionDistance
			// Without CCD, pairs closing faster than their size per step are
			// left to tunnel.
			if predictive {
				speed := a.body.linvel.Sub(b.body.linvel).Len()
				if w.CCD || a.body.ccd || b.body.ccd || speed*dt < a.boundingRadius()+b.boundingRadius() {
					margin += speed * dt
				}
			}
			if a.center.Sub(b.center).Len() > a.boundingRadius()+b.boundingRadius()+margin {
				continue
			}
			n, depth := collide(a, b)
			if depth < -margin {
				continue
			}
			out = append(out, contact{
				a: a, b: b, normal: n, depth: depth,
				friction: (a.col.desc.Friction + b.col.desc.Friction) / 2,
			})
		}
	}
	return out
}

func (w *World) wakeTouched(contacts []contact) {
	for _, c := range contacts {
		if c.a.col.desc.Sensor || c.b.col.desc.Sensor {
			continue
		}
		aActive := c.a.body.bodyType != Fixed && !c.a.body.sleeping
		bActive := c.b.body.bodyType != Fixed && !c.b.body.sleeping
		if aActive && c.b.body.sleeping && c.a.body.linvel.Len() > w.Params.SleepThreshold {
			c.b.body.WakeUp()
		}
		if bActive && c.a.body.sleeping && c.b.body.linvel.Len() > w.Params.SleepThreshold {
			c.a.body.WakeUp()
		}
	}
}

func solverInvMass(b *RigidBody) float64 {
	if b.sleeping {
		return 0
	}
	return b.inverseMass()
}

// solve applies sequential impulses. Each contact keeps the closing speed
// along its normal above a target: the remaining gap divided by dt for
// separated pairs, zero for resting pairs, or a bounce for fast impacts.
func (w *World) solve(contacts []contact, dt float64) {
	for i := range contacts {
		c := &contacts[i]
		if c.a.col.desc.Sensor || c.b.col.desc.Sensor {
			continue
		}
		vn := c.b.body.linvel.Sub(c.a.body.linvel).Dot(c.normal)
		if c.depth < 0 {
			c.target = c.depth / dt
		}
		e := (c.a.col.desc.Restitution + c.b.col.desc.Restitution) / 2
		if e > 0 && vn < -bounceThreshold && vn*dt <= c.depth {
			c.target = -e * vn
		}
	}

	iterations := max(w.Params.SolverIterations, 1)
	for it := 0; it < iterations; it++ {
		for i := range contacts {
			c := &contacts[i]
			if c.a.col.desc.Sensor || c.b.col.desc.Sensor {
				continue
			}
			invA, invB := solverInvMass(c.a.body), solverInvMass(c.b.body)
			if invA+invB == 0 {
				continue
			}
			vn := c.b.body.linvel.Sub(c.a.body.linvel).Dot(c.normal)
			dj := (c.target - vn) / (invA + invB)
			acc := math.Max(c.impulse+dj, 0)
			dj = acc - c.impulse
			c.impulse = acc
			c.a.body.linvel = c.a.body.linvel.Sub(c.normal.Mul(dj * invA))
			c.b.body.linvel = c.b.body.linvel.Add(c.normal.Mul(dj * invB))
		}
	}

	for i := range contacts {
		c := &contacts[i]
		if c.impulse <= 0 || c.depth < -contactTolerance {
			continue
		}
		invA, invB := solverInvMass(c.a.body), solverInvMass(c.b.body)
		if invA+invB == 0 {
			continue
		}
		rel := c.b.body.linvel.Sub(c.a.body.linvel)
		tangent := rel.Sub(c.normal.Mul(rel.Dot(c.normal)))
		speed := tangent.Len()
		if speed < epsilon {
			continue
		}
		jt := math.Min(speed/(invA+invB), c.friction*c.impulse)
		dir := tangent.Mul(1 / speed)
		c.a.body.linvel = c.a.body.linvel.Add(dir.Mul(jt * invA))
		c.b.body.linvel = c.b.body.linvel.Sub(dir.Mul(jt * invB))
	}
}

func (w *World) integratePositions(dt float64) {
	for _, h := range w.bodyOrder {
		b := w.bodies[h]
		switch b.bodyType {
		case KinematicPositionBased:
			if b.nextPos != nil {
				b.pos = *b.nextPos
				b.nextPos = nil
			}
			if b.nextRot != nil {
				b.rot = *b.nextRot
				b.nextRot = nil
			}
		case Dynamic:
			if b.sleeping {
				continue
			}
			b.pos = b.pos.Add(b.linvel.Mul(dt))
			if b.angvel.LenSqr() > 0 {
				spin := mgl64.Quat{W: 0, V: b.angvel}.Mul(b.rot).Scale(0.5 * dt)
				b.rot = b.rot.Add(spin).Normalize()
			}
		}
		b.ResetForces()
	}
}

// correctPositions pushes overlapping solid pairs apart.
func (w *World) correctPositions(contacts []contact) {
	for _, c := range contacts {
		if c.a.col.desc.Sensor || c.b.col.desc.Sensor {
			continue
		}
		excess := c.depth - w.Params.AllowedPenetration
		if excess <= 0 {
			continue
		}
		invA, invB := solverInvMass(c.a.body), solverInvMass(c.b.body)
		if invA+invB == 0 {
			continue
		}
		shift := excess * correctionFactor / (invA + invB)
		c.a.body.pos = c.a.body.pos.Sub(c.normal.Mul(shift * invA))
		c.b.body.pos = c.b.body.pos.Add(c.normal.Mul(shift * invB))
	}
}

func (w *World) emitEvents(after, solved []contact, events *EventQueue, dt float64) {
	now := make(map[pairKey]bool, len(after))
	sensor := make(map[pairKey]bool, len(after))
	for _, c := range after {
		isSensor := c.a.col.desc.Sensor || c.b.col.desc.Sensor
		touching := c.depth > -contactTolerance
		if isSensor {
			touching = c.depth > 0
		}
		if !touching {
			continue
		}
		k := makePair(c.a.col.handle, c.b.col.handle)
		now[k] = true
		sensor[k] = isSensor
		if !w.touching[k] {
			events.pushCollision(CollisionEvent{Collider1: k.a, Collider2: k.b, Started: true, Sensor: isSensor})
		}
	}
	for _, k := range w.sortedPairs() {
		if !now[k] {
			a, aok := w.colliders[k.a]
			b, bok := w.colliders[k.b]
			isSensor := aok && bok && (a.desc.Sensor || b.desc.Sensor)
			events.pushCollision(CollisionEvent{Collider1: k.a, Collider2: k.b, Started: false, Sensor: isSensor})
		}
	}
	w.touching = now

	for _, c := range solved {
		if c.impulse <= 0 || c.a.col.desc.Sensor || c.b.col.desc.Sensor {
			continue
		}
		events.pushForce(ContactForceEvent{
			Collider1:           c.a.col.handle,
			Collider2:           c.b.col.handle,
			TotalForceMagnitude: c.impulse / dt,
			MaxForceDirection:   c.normal,
		})
	}
}

func (w *World) sortedPairs() []pairKey {
	out := make([]pairKey, 0, len(w.touching))
	for k := range w.touching {
		out = append(out, k)
	}
	slices.SortFunc(out, func(x, y pairKey) int {
		if c := cmp.Compare(x.a, y.a); c != 0 {
			return c
		}
		return cmp.Compare(x.b, y.b)
	})
	return out
}

func (w *World) updateSleep(dt float64) {
	if !w.Sleeping {
		return
	}
	for _, h := range w.bodyOrder {
		b := w.bodies[h]
		if b.bodyType != Dynamic || !b.canSleep || b.sleeping {
			continue
		}
		if b.linvel.Len() < w.Params.SleepThreshold && b.angvel.Len() < w.Params.SleepThreshold {
			b.idle += dt
			if b.idle >= w.Params.SleepTime {
				b.sleeping = true
				b.linvel = mgl64.Vec3{}
				b.angvel = mgl64.Vec3{}
			}
			continue
		}
		b.idle = 0
	}
}
