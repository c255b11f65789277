// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayHit is the closest intersection found by CastRay.
type RayHit struct {
	Collider ColliderHandle
	Toi      float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
}

// CastRay returns the first collider hit by the ray from origin along dir
// within maxToi. With solid set, a ray starting inside a shape hits it at
// toi zero; otherwise it hits the boundary on the way out. filter, when
// non-nil, skips colliders for which it returns false.
func (w *World) CastRay(origin, dir mgl64.Vec3, maxToi float64, solid bool, filter func(*Collider) bool) (RayHit, bool) {
	if w.freed || dir.LenSqr() < epsilon {
		return RayHit{}, false
	}
	dir = dir.Normalize()

	best := RayHit{Toi: math.Inf(1)}
	found := false
	for _, h := range w.colOrder {
		c := w.colliders[h]
		if filter != nil && !filter(c) {
			continue
		}
		p, ok := w.place(c)
		if !ok {
			continue
		}
		var toi float64
		var normal mgl64.Vec3
		switch c.desc.Shape {
		case ShapeBall:
			toi, normal, ok = rayBall(origin, dir, p, solid)
		case ShapeTriMesh:
			toi, normal, ok = rayMesh(origin, dir, p)
		default:
			toi, normal, ok = rayBox(origin, dir, p, solid)
		}
		if ok && toi <= maxToi && toi < best.Toi {
			best = RayHit{Collider: h, Toi: toi, Normal: normal}
			found = true
		}
	}
	if !found {
		return RayHit{}, false
	}
	best.Point = origin.Add(dir.Mul(best.Toi))
	return best, true
}

func rayBall(o, d mgl64.Vec3, p placed, solid bool) (float64, mgl64.Vec3, bool) {
	oc := o.Sub(p.center)
	b := oc.Dot(d)
	c := oc.Dot(oc) - p.radius*p.radius
	disc := b*b - c
	if disc < 0 {
		return 0, mgl64.Vec3{}, false
	}
	sq := math.Sqrt(disc)
	if c <= 0 {
		if solid {
			return 0, mgl64.Vec3{}, true
		}
		t := -b + sq
		return t, o.Add(d.Mul(t)).Sub(p.center).Mul(1 / p.radius), true
	}
	t := -b - sq
	if t < 0 {
		return 0, mgl64.Vec3{}, false
	}
	return t, o.Add(d.Mul(t)).Sub(p.center).Mul(1 / p.radius), true
}

// rayBox intersects the ray with the oriented box using the slab method.
func rayBox(o, d mgl64.Vec3, p placed, solid bool) (float64, mgl64.Vec3, bool) {
	rel := o.Sub(p.center)
	tmin, tmax := math.Inf(-1), math.Inf(1)
	enterAxis, exitAxis := -1, -1
	enterSign, exitSign := 0.0, 0.0

	for i := 0; i < 3; i++ {
		lo := rel.Dot(p.axes[i])
		ld := d.Dot(p.axes[i])
		h := p.half[i]
		if math.Abs(ld) < epsilon {
			if math.Abs(lo) > h {
				return 0, mgl64.Vec3{}, false
			}
			continue
		}
		t1 := (-h - lo) / ld
		t2 := (h - lo) / ld
		s1, s2 := -1.0, 1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s1, s2 = s2, s1
		}
		if t1 > tmin {
			tmin, enterAxis, enterSign = t1, i, s1
		}
		if t2 < tmax {
			tmax, exitAxis, exitSign = t2, i, s2
		}
		if tmin > tmax {
			return 0, mgl64.Vec3{}, false
		}
	}
	if tmax < 0 {
		return 0, mgl64.Vec3{}, false
	}
	if tmin < 0 {
		if solid {
			return 0, mgl64.Vec3{}, true
		}
		if exitAxis < 0 {
			return 0, mgl64.Vec3{}, false
		}
		return tmax, p.axes[exitAxis].Mul(exitSign), true
	}
	if enterAxis < 0 {
		return 0, mgl64.Vec3{}, false
	}
	return tmin, p.axes[enterAxis].Mul(enterSign), true
}

// rayMesh tests every triangle with the Möller-Trumbore algorithm.
func rayMesh(o, d mgl64.Vec3, p placed) (float64, mgl64.Vec3, bool) {
	body := p.body
	world := func(i uint32) mgl64.Vec3 {
		return body.pos.Add(body.rot.Rotate(p.col.desc.Points[i]))
	}

	best := math.Inf(1)
	var normal mgl64.Vec3
	for _, tri := range p.col.desc.Indices {
		v0, v1, v2 := world(tri[0]), world(tri[1]), world(tri[2])
		e1, e2 := v1.Sub(v0), v2.Sub(v0)
		pv := d.Cross(e2)
		det := e1.Dot(pv)
		if math.Abs(det) < epsilon {
			continue
		}
		inv := 1 / det
		tv := o.Sub(v0)
		u := tv.Dot(pv) * inv
		if u < 0 || u > 1 {
			continue
		}
		qv := tv.Cross(e1)
		v := d.Dot(qv) * inv
		if v < 0 || u+v > 1 {
			continue
		}
		t := e2.Dot(qv) * inv
		if t >= 0 && t < best {
			best = t
			normal = e1.Cross(e2).Normalize()
			if normal.Dot(d) > 0 {
				normal = normal.Mul(-1)
			}
		}
	}
	if math.IsInf(best, 1) {
		return 0, mgl64.Vec3{}, false
	}
	return best, normal, true
}
