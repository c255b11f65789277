// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package geom

import (
	"errors"
	"math"

	"github.com/samber/oops"
)

// ShapeKind tags a collider shape descriptor.
type ShapeKind string

// Collider shape kinds.
const (
	ShapeBox      ShapeKind = "box"
	ShapeSphere   ShapeKind = "sphere"
	ShapeCylinder ShapeKind = "cylinder"
	ShapeCone     ShapeKind = "cone"
	ShapeCapsule  ShapeKind = "capsule"
	ShapeTrimesh  ShapeKind = "trimesh"
	ShapeConvex   ShapeKind = "convex"
)

// Shape is an abstract collider description. Which fields apply depends on
// Kind: box uses HalfExtents; sphere uses Radius; cylinder, cone, and capsule
// use Radius and Height (full height along Y); trimesh uses Vertices and
// Indices; convex uses Vertices.
type Shape struct {
	Kind        ShapeKind `json:"kind"`
	HalfExtents Vector3   `json:"halfExtents,omitzero"`
	Radius      float64   `json:"radius,omitempty"`
	Height      float64   `json:"height,omitempty"`
	Vertices    []Vector3 `json:"vertices,omitempty"`
	Indices     []uint32  `json:"indices,omitempty"`
}

// Box describes a box by its half extents.
func Box(half Vector3) Shape { return Shape{Kind: ShapeBox, HalfExtents: half} }

// Sphere describes a sphere.
func Sphere(radius float64) Shape { return Shape{Kind: ShapeSphere, Radius: radius} }

// Cylinder describes a Y-aligned cylinder.
func Cylinder(radius, height float64) Shape {
	return Shape{Kind: ShapeCylinder, Radius: radius, Height: height}
}

// Cone describes a Y-aligned cone with its base at -height/2.
func Cone(radius, height float64) Shape {
	return Shape{Kind: ShapeCone, Radius: radius, Height: height}
}

// Capsule describes a Y-aligned capsule; height covers the whole capsule.
func Capsule(radius, height float64) Shape {
	return Shape{Kind: ShapeCapsule, Radius: radius, Height: height}
}

// Trimesh describes a triangle mesh.
func Trimesh(vertices []Vector3, indices []uint32) Shape {
	return Shape{Kind: ShapeTrimesh, Vertices: vertices, Indices: indices}
}

// Convex describes the convex hull of a point cloud.
func Convex(vertices []Vector3) Shape {
	return Shape{Kind: ShapeConvex, Vertices: vertices}
}

// ErrInvalidShape reports a shape descriptor with missing or bad dimensions.
var ErrInvalidShape = errors.New("invalid shape")

// Validate checks that the dimensions required by Kind are present.
func (s Shape) Validate() error {
	bad := func(format string, args ...any) error {
		return shapeError(s.Kind).Wrapf(ErrInvalidShape, format, args...)
	}
	switch s.Kind {
	case ShapeBox:
		if s.HalfExtents.X <= 0 || s.HalfExtents.Y <= 0 || s.HalfExtents.Z <= 0 {
			return bad("half extents must be positive")
		}
	case ShapeSphere:
		if s.Radius <= 0 {
			return bad("radius must be positive")
		}
	case ShapeCylinder, ShapeCone, ShapeCapsule:
		if s.Radius <= 0 || s.Height <= 0 {
			return bad("radius and height must be positive")
		}
	case ShapeTrimesh:
		if len(s.Vertices) < 3 || len(s.Indices) < 3 || len(s.Indices)%3 != 0 {
			return bad("needs at least one triangle")
		}
		for _, i := range s.Indices {
			if int(i) >= len(s.Vertices) {
				return bad("index %d out of range", i)
			}
		}
	case ShapeConvex:
		if len(s.Vertices) == 0 {
			return bad("needs vertices")
		}
	default:
		return bad("unknown kind %q", s.Kind)
	}
	return nil
}

// ShapeFromRecord reads a descriptor from a plain record such as
// {"kind": "box", "halfExtents": {"x": 1, "y": 1, "z": 1}}. A box may also
// give "size" (full extents).
func ShapeFromRecord(rec map[string]any) (Shape, error) {
	kind, _ := rec["kind"].(string)
	s := Shape{Kind: ShapeKind(kind)}
	if r, ok := ToFloat(rec["radius"]); ok {
		s.Radius = r
	}
	if h, ok := ToFloat(rec["height"]); ok {
		s.Height = h
	}
	if he, ok := CoerceVector3(rec["halfExtents"], Vector3{}); ok {
		s.HalfExtents = he
	} else if size, ok := CoerceVector3(rec["size"], Vector3{}); ok {
		s.HalfExtents = size.Scale(0.5)
	}
	if verts, ok := rec["vertices"].([]any); ok {
		for _, v := range verts {
			p, ok := CoerceVector3(v, Vector3{})
			if !ok {
				return Shape{}, shapeError(s.Kind).Wrapf(ErrInvalidShape, "bad vertex %v", v)
			}
			s.Vertices = append(s.Vertices, p)
		}
	}
	if idx, ok := rec["indices"].([]any); ok {
		for _, v := range idx {
			n, ok := ToFloat(v)
			if !ok || n < 0 || n > math.MaxUint32 || n != math.Trunc(n) {
				return Shape{}, shapeError(s.Kind).Wrapf(ErrInvalidShape, "bad index %v", v)
			}
			s.Indices = append(s.Indices, uint32(n))
		}
	}
	return s, s.Validate()
}

func shapeError(kind ShapeKind) oops.OopsErrorBuilder {
	return oops.Code("INVALID_SHAPE").In("geom").With("kind", kind)
}
