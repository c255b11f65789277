// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import (
	"math"
	"slices"

	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// GeometryKind names the primitive a geometry was generated from. Meshes
// loaded from assets use GeometryMesh.
type GeometryKind string

// Geometry kinds.
const (
	GeometryBox      GeometryKind = "box"
	GeometrySphere   GeometryKind = "sphere"
	GeometryCylinder GeometryKind = "cylinder"
	GeometryCone     GeometryKind = "cone"
	GeometryPlane    GeometryKind = "plane"
	GeometryMesh     GeometryKind = "mesh"
)

// Geometry is the vertex data of a renderable in local space.
type Geometry struct {
	Kind     GeometryKind
	Vertices []geom.Vector3
	Indices  []uint32

	bounds   geom.Box3
	disposed bool
}

// NewGeometry builds a geometry and computes its bounding box.
func NewGeometry(kind GeometryKind, vertices []geom.Vector3, indices []uint32) *Geometry {
	return &Geometry{
		Kind:     kind,
		Vertices: vertices,
		Indices:  indices,
		bounds:   geom.BoundsOf(vertices),
	}
}

// BoundingBox returns the local-space bounds.
func (g *Geometry) BoundingBox() geom.Box3 { return g.bounds }

// Clone returns an independent copy.
func (g *Geometry) Clone() *Geometry {
	out := *g
	out.Vertices = slices.Clone(g.Vertices)
	out.Indices = slices.Clone(g.Indices)
	out.disposed = false
	return &out
}

// Dispose releases the vertex buffers.
func (g *Geometry) Dispose() {
	g.Vertices = nil
	g.Indices = nil
	g.disposed = true
}

// Disposed reports whether Dispose was called.
func (g *Geometry) Disposed() bool { return g.disposed }

// BoxGeometry is an axis-aligned box centered on the origin.
func BoxGeometry(width, height, depth float64) *Geometry {
	hx, hy, hz := width/2, height/2, depth/2
	vs := make([]geom.Vector3, 0, 8)
	for _, x := range []float64{-hx, hx} {
		for _, y := range []float64{-hy, hy} {
			for _, z := range []float64{-hz, hz} {
				vs = append(vs, geom.Vec3(x, y, z))
			}
		}
	}
	idx := []uint32{
		0, 1, 3, 0, 3, 2, // -x
		4, 6, 7, 4, 7, 5, // +x
		0, 4, 5, 0, 5, 1, // -y
		2, 3, 7, 2, 7, 6, // +y
		0, 2, 6, 0, 6, 4, // -z
		1, 5, 7, 1, 7, 3, // +z
	}
	return NewGeometry(GeometryBox, vs, idx)
}

// PlaneGeometry is a flat quad in the XZ plane.
func PlaneGeometry(width, depth float64) *Geometry {
	hx, hz := width/2, depth/2
	vs := []geom.Vector3{
		geom.Vec3(-hx, 0, -hz), geom.Vec3(hx, 0, -hz),
		geom.Vec3(hx, 0, hz), geom.Vec3(-hx, 0, hz),
	}
	return NewGeometry(GeometryPlane, vs, []uint32{0, 2, 1, 0, 3, 2})
}

// SphereGeometry is a UV sphere.
func SphereGeometry(radius float64, segments, rings int) *Geometry {
	segments, rings = max(segments, 3), max(rings, 2)
	var vs []geom.Vector3
	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			vs = append(vs, geom.Vec3(
				radius*math.Sin(phi)*math.Cos(theta),
				radius*math.Cos(phi),
				radius*math.Sin(phi)*math.Sin(theta),
			))
		}
	}
	var idx []uint32
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r*segments + s)
			b := uint32(r*segments + (s+1)%segments)
			c := a + uint32(segments)
			d := b + uint32(segments)
			idx = append(idx, a, c, b, b, c, d)
		}
	}
	return NewGeometry(GeometrySphere, vs, idx)
}

// CylinderGeometry is a capped cylinder along Y. A zero top radius makes a
// cone.
func CylinderGeometry(radiusTop, radiusBottom, height float64, segments int) *Geometry {
	segments = max(segments, 3)
	hy := height / 2
	vs := make([]geom.Vector3, 0, 2*segments+2)
	for s := 0; s < segments; s++ {
		theta := 2 * math.Pi * float64(s) / float64(segments)
		c, sn := math.Cos(theta), math.Sin(theta)
		vs = append(vs,
			geom.Vec3(radiusBottom*c, -hy, radiusBottom*sn),
			geom.Vec3(radiusTop*c, hy, radiusTop*sn),
		)
	}
	bottom := uint32(len(vs))
	vs = append(vs, geom.Vec3(0, -hy, 0), geom.Vec3(0, hy, 0))
	top := bottom + 1

	var idx []uint32
	n := uint32(segments)
	for s := uint32(0); s < n; s++ {
		b0, t0 := 2*s, 2*s+1
		b1, t1 := 2*((s+1)%n), 2*((s+1)%n)+1
		idx = append(idx, b0, t0, b1, b1, t0, t1, bottom, b0, b1, top, t1, t0)
	}
	kind := GeometryCylinder
	if radiusTop == 0 {
		kind = GeometryCone
	}
	return NewGeometry(kind, vs, idx)
}

// ConeGeometry is a cylinder with a point at the top.
func ConeGeometry(radius, height float64, segments int) *Geometry {
	return CylinderGeometry(0, radius, height, segments)
}

// MeshGeometry wraps arbitrary vertex data.
func MeshGeometry(vertices []geom.Vector3, indices []uint32) *Geometry {
	return NewGeometry(GeometryMesh, vertices, indices)
}
