// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package geom provides the canonical vector and angle-set types used for
// object transforms, plus coercion from the loosely typed numeric records
// that arrive from plugins, overrides, and serialized documents.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is a 3-component vector. JSON emission uses plain numbers.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Euler is a rotation expressed as XYZ-ordered Euler angles in radians.
type Euler struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec3 is shorthand for constructing a Vector3.
func Vec3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// Zero returns the zero vector.
func Zero() Vector3 { return Vector3{} }

// One returns the unit-scale vector.
func One() Vector3 { return Vector3{X: 1, Y: 1, Z: 1} }

// Add returns v + o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Sub returns v - o.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Scale returns v * s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Mul returns the component-wise product.
func (v Vector3) Mul(o Vector3) Vector3 {
	return Vector3{X: v.X * o.X, Y: v.Y * o.Y, Z: v.Z * o.Z}
}

// Len returns the Euclidean length.
func (v Vector3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// ApproxEqual reports whether every component differs by at most eps.
func (v Vector3) ApproxEqual(o Vector3, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps && math.Abs(v.Z-o.Z) <= eps
}

// Mgl converts to an mgl64 vector.
func (v Vector3) Mgl() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromMgl converts an mgl64 vector.
func FromMgl(v mgl64.Vec3) Vector3 {
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// Record emits the vector as a plain numeric record.
func (v Vector3) Record() map[string]any {
	return map[string]any{"x": v.X, "y": v.Y, "z": v.Z}
}

// Record emits the angle set as a plain numeric record.
func (e Euler) Record() map[string]any {
	return map[string]any{"x": e.X, "y": e.Y, "z": e.Z}
}

// ApproxEqual reports whether every angle differs by at most eps.
func (e Euler) ApproxEqual(o Euler, eps float64) bool {
	return math.Abs(e.X-o.X) <= eps && math.Abs(e.Y-o.Y) <= eps && math.Abs(e.Z-o.Z) <= eps
}

// Quat returns the rotation as a quaternion.
func (e Euler) Quat() mgl64.Quat {
	return mgl64.AnglesToQuat(e.X, e.Y, e.Z, mgl64.XYZ)
}

// EulerFromQuat extracts XYZ-ordered Euler angles from a unit quaternion.
func EulerFromQuat(q mgl64.Quat) Euler {
	q = q.Normalize()
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W

	m11 := 1 - 2*(y*y+z*z)
	m12 := 2 * (x*y - w*z)
	m13 := 2 * (x*z + w*y)
	m22 := 1 - 2*(x*x+z*z)
	m23 := 2 * (y*z - w*x)
	m32 := 2 * (y*z + w*x)
	m33 := 1 - 2*(x*x+y*y)

	var e Euler
	e.Y = math.Asin(clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		e.X = math.Atan2(m32, m22)
		e.Z = 0
	}
	return e
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min Vector3 `json:"min"`
	Max Vector3 `json:"max"`
}

// Size returns the box extents.
func (b Box3) Size() Vector3 {
	return b.Max.Sub(b.Min)
}

// HalfExtents returns half the box extents.
func (b Box3) HalfExtents() Vector3 {
	return b.Size().Scale(0.5)
}

// Center returns the box midpoint.
func (b Box3) Center() Vector3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// BoundsOf computes the bounding box of a point set. Empty input yields a zero box.
func BoundsOf(points []Vector3) Box3 {
	if len(points) == 0 {
		return Box3{}
	}
	b := Box3{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = Vector3{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)}
		b.Max = Vector3{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)}
	}
	return b
}

// Transform is a position, orientation, and scale.
type Transform struct {
	Position Vector3
	Rotation mgl64.Quat
	Scale    Vector3
}

// IdentityTransform is the transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{Rotation: mgl64.QuatIdent(), Scale: One()}
}

// Euler returns the orientation as XYZ Euler angles.
func (t Transform) Euler() Euler { return EulerFromQuat(t.Rotation) }
