// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const epsilon = 1e-9

var unitAxes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// placed is a collider positioned in world space.
type placed struct {
	col    *Collider
	body   *RigidBody
	center mgl64.Vec3
	axes   [3]mgl64.Vec3
	half   mgl64.Vec3
	ball   bool
	radius float64
}

func (w *World) place(c *Collider) (placed, bool) {
	body, ok := w.bodies[c.parent]
	if !ok {
		return placed{}, false
	}
	p := placed{
		col:    c,
		body:   body,
		center: body.pos.Add(body.rot.Rotate(c.center)),
		half:   c.half,
		ball:   c.desc.Shape == ShapeBall,
		radius: c.desc.Radius,
	}
	for i, a := range unitAxes {
		p.axes[i] = body.rot.Rotate(a)
	}
	return p, true
}

// boundingRadius is the radius of a sphere enclosing the shape.
func (p placed) boundingRadius() float64 {
	if p.ball {
		return p.radius
	}
	return p.half.Len()
}

// collide returns the contact normal pointing from a to b and the signed
// depth: positive for overlap, negative for the gap between the shapes.
func collide(a, b placed) (normal mgl64.Vec3, depth float64) {
	switch {
	case a.ball && b.ball:
		return ballBall(a, b)
	case a.ball:
		return ballBox(a, b)
	case b.ball:
		n, d := ballBox(b, a)
		return n.Mul(-1), d
	default:
		return boxBox(a, b)
	}
}

func ballBall(a, b placed) (mgl64.Vec3, float64) {
	d := b.center.Sub(a.center)
	dist := d.Len()
	n := mgl64.Vec3{0, 1, 0}
	if dist > epsilon {
		n = d.Mul(1 / dist)
	}
	return n, a.radius + b.radius - dist
}

// ballBox treats a as the ball and b as the box.
func ballBox(a, b placed) (mgl64.Vec3, float64) {
	rel := a.center.Sub(b.center)
	var local, clamped mgl64.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		local[i] = rel.Dot(b.axes[i])
		clamped[i] = math.Max(-b.half[i], math.Min(b.half[i], local[i]))
		if clamped[i] != local[i] {
			inside = false
		}
	}

	if !inside {
		closest := b.center
		for i := 0; i < 3; i++ {
			closest = closest.Add(b.axes[i].Mul(clamped[i]))
		}
		v := a.center.Sub(closest)
		dist := v.Len()
		return v.Mul(-1 / dist), a.radius - dist
	}

	axis, best := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if gap := b.half[i] - math.Abs(local[i]); gap < best {
			axis, best = i, gap
		}
	}
	outward := b.axes[axis]
	if local[axis] < 0 {
		outward = outward.Mul(-1)
	}
	return outward.Mul(-1), a.radius + best
}

// boxBox runs a separating-axis test over face and edge axes and returns the
// axis of least overlap.
func boxBox(a, b placed) (mgl64.Vec3, float64) {
	l := b.center.Sub(a.center)
	axes := make([]mgl64.Vec3, 0, 15)
	axes = append(axes, a.axes[:]...)
	axes = append(axes, b.axes[:]...)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c := a.axes[i].Cross(b.axes[j])
			if c.LenSqr() > 1e-8 {
				axes = append(axes, c.Normalize())
			}
		}
	}

	best := math.Inf(1)
	var normal mgl64.Vec3
	for _, axis := range axes {
		overlap := project(a, axis) + project(b, axis) - math.Abs(l.Dot(axis))
		if overlap < best {
			best, normal = overlap, axis
		}
	}
	if l.Dot(normal) < 0 {
		normal = normal.Mul(-1)
	}
	return normal, best
}

func project(p placed, axis mgl64.Vec3) float64 {
	r := 0.0
	for i := 0; i < 3; i++ {
		r += math.Abs(p.axes[i].Dot(axis)) * p.half[i]
	}
	return r
}
