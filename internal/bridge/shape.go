// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package bridge

import (
	"math"

	"github.com/fluxstudio/fluxstudio/internal/object"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// minHalfExtent keeps flat geometry such as planes a valid box.
const minHalfExtent = 0.005

// InferShape derives a collider shape from renderable geometry scaled by
// scale. Primitive geometry maps to the matching primitive shape sized from
// its bounding box; anything else becomes a convex hull of its vertices.
// Geometry without vertices yields a unit box.
func InferShape(g *object.Geometry, scale geom.Vector3) geom.Shape {
	if g == nil || len(g.Vertices) == 0 {
		return geom.Box(geom.Vec3(0.5, 0.5, 0.5))
	}
	s := geom.Vec3(math.Abs(scale.X), math.Abs(scale.Y), math.Abs(scale.Z))
	half := g.BoundingBox().HalfExtents().Mul(s)
	half = geom.Vec3(max(half.X, minHalfExtent), max(half.Y, minHalfExtent), max(half.Z, minHalfExtent))

	switch g.Kind {
	case object.GeometryBox, object.GeometryPlane:
		return geom.Box(half)
	case object.GeometrySphere:
		return geom.Sphere(max(half.X, half.Y, half.Z))
	case object.GeometryCylinder:
		return geom.Cylinder(max(half.X, half.Z), 2*half.Y)
	case object.GeometryCone:
		return geom.Cone(max(half.X, half.Z), 2*half.Y)
	}

	if len(g.Vertices) < 4 {
		return geom.Box(half)
	}
	vs := make([]geom.Vector3, len(g.Vertices))
	for i, v := range g.Vertices {
		vs[i] = v.Mul(s)
	}
	return geom.Convex(vs)
}
