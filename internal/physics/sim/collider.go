// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package sim

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType identifies a native collider shape.
type ShapeType int

// Native collider shapes.
const (
	ShapeBall ShapeType = iota
	ShapeCuboid
	ShapeCylinder
	ShapeCone
	ShapeCapsule
	ShapeTriMesh
	ShapeConvexHull
)

func (s ShapeType) String() string {
	switch s {
	case ShapeBall:
		return "ball"
	case ShapeCuboid:
		return "cuboid"
	case ShapeCylinder:
		return "cylinder"
	case ShapeCone:
		return "cone"
	case ShapeCapsule:
		return "capsule"
	case ShapeTriMesh:
		return "trimesh"
	case ShapeConvexHull:
		return "convex_hull"
	}
	return "unknown"
}

// ErrDegenerateShape is returned when a collider cannot be built from the
// given dimensions or points.
var ErrDegenerateShape = errors.New("degenerate collider shape")

// ColliderDesc describes a collider before it is inserted into a world.
type ColliderDesc struct {
	Shape       ShapeType
	Radius      float64
	HalfHeight  float64
	HalfExtents mgl64.Vec3
	Points      []mgl64.Vec3
	Indices     [][3]uint32

	Friction    float64
	Restitution float64
	Density     float64
	Sensor      bool
}

func baseDesc(shape ShapeType) ColliderDesc {
	return ColliderDesc{Shape: shape, Friction: 0.5, Density: 1}
}

// Ball describes a sphere.
func Ball(radius float64) ColliderDesc {
	d := baseDesc(ShapeBall)
	d.Radius = radius
	return d
}

// Cuboid describes a box by its half extents.
func Cuboid(hx, hy, hz float64) ColliderDesc {
	d := baseDesc(ShapeCuboid)
	d.HalfExtents = mgl64.Vec3{hx, hy, hz}
	return d
}

// Cylinder describes a Y-aligned cylinder.
func Cylinder(halfHeight, radius float64) ColliderDesc {
	d := baseDesc(ShapeCylinder)
	d.HalfHeight, d.Radius = halfHeight, radius
	return d
}

// Cone describes a Y-aligned cone.
func Cone(halfHeight, radius float64) ColliderDesc {
	d := baseDesc(ShapeCone)
	d.HalfHeight, d.Radius = halfHeight, radius
	return d
}

// Capsule describes a Y-aligned capsule; halfHeight excludes the caps.
func Capsule(halfHeight, radius float64) ColliderDesc {
	d := baseDesc(ShapeCapsule)
	d.HalfHeight, d.Radius = halfHeight, radius
	return d
}

// TriMesh describes a triangle mesh.
func TriMesh(points []mgl64.Vec3, indices [][3]uint32) ColliderDesc {
	d := baseDesc(ShapeTriMesh)
	d.Points, d.Indices = points, indices
	return d
}

// ConvexHull describes the convex hull of points. It fails when the points
// do not span a volume.
func ConvexHull(points []mgl64.Vec3) (ColliderDesc, error) {
	if len(points) < 4 {
		return ColliderDesc{}, ErrDegenerateShape
	}
	lo, hi := aabbOf(points)
	size := hi.Sub(lo)
	if size.X() <= epsilon || size.Y() <= epsilon || size.Z() <= epsilon {
		return ColliderDesc{}, ErrDegenerateShape
	}
	d := baseDesc(ShapeConvexHull)
	d.Points = points
	return d, nil
}

// WithFriction sets the friction coefficient.
func (d ColliderDesc) WithFriction(f float64) ColliderDesc { d.Friction = f; return d }

// WithRestitution sets the restitution coefficient.
func (d ColliderDesc) WithRestitution(r float64) ColliderDesc { d.Restitution = r; return d }

// WithDensity sets the density used to derive mass.
func (d ColliderDesc) WithDensity(rho float64) ColliderDesc { d.Density = rho; return d }

// WithSensor marks the collider as a sensor: it reports intersections but
// produces no contact response.
func (d ColliderDesc) WithSensor(sensor bool) ColliderDesc { d.Sensor = sensor; return d }

func (d ColliderDesc) validate() error {
	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	switch d.Shape {
	case ShapeBall:
		if d.Radius <= 0 || !finite(d.Radius) {
			return ErrDegenerateShape
		}
	case ShapeCuboid:
		h := d.HalfExtents
		if h.X() < 0 || h.Y() < 0 || h.Z() < 0 || !finite(h[:]...) || h.Len() == 0 {
			return ErrDegenerateShape
		}
	case ShapeCylinder, ShapeCone, ShapeCapsule:
		if d.Radius <= 0 || d.HalfHeight < 0 || !finite(d.Radius, d.HalfHeight) {
			return ErrDegenerateShape
		}
	case ShapeTriMesh:
		if len(d.Points) < 3 || len(d.Indices) == 0 {
			return ErrDegenerateShape
		}
		for _, tri := range d.Indices {
			for _, i := range tri {
				if int(i) >= len(d.Points) {
					return ErrDegenerateShape
				}
			}
		}
	case ShapeConvexHull:
		if len(d.Points) < 4 {
			return ErrDegenerateShape
		}
	default:
		return ErrDegenerateShape
	}
	if d.Density < 0 || d.Friction < 0 || d.Restitution < 0 {
		return ErrDegenerateShape
	}
	return nil
}

// localBounds returns the shape's bounding box center and half extents in
// the body frame. Collision tests use this box for every shape except balls.
func (d ColliderDesc) localBounds() (center, half mgl64.Vec3) {
	switch d.Shape {
	case ShapeBall:
		return mgl64.Vec3{}, mgl64.Vec3{d.Radius, d.Radius, d.Radius}
	case ShapeCuboid:
		return mgl64.Vec3{}, d.HalfExtents
	case ShapeCylinder, ShapeCone:
		return mgl64.Vec3{}, mgl64.Vec3{d.Radius, d.HalfHeight, d.Radius}
	case ShapeCapsule:
		return mgl64.Vec3{}, mgl64.Vec3{d.Radius, d.HalfHeight + d.Radius, d.Radius}
	default:
		lo, hi := aabbOf(d.Points)
		return lo.Add(hi).Mul(0.5), hi.Sub(lo).Mul(0.5)
	}
}

// volume approximates the shape volume for mass computation.
func (d ColliderDesc) volume() float64 {
	r := d.Radius
	switch d.Shape {
	case ShapeBall:
		return 4.0 / 3.0 * math.Pi * r * r * r
	case ShapeCylinder:
		return math.Pi * r * r * 2 * d.HalfHeight
	case ShapeCone:
		return math.Pi * r * r * 2 * d.HalfHeight / 3
	case ShapeCapsule:
		return math.Pi*r*r*2*d.HalfHeight + 4.0/3.0*math.Pi*r*r*r
	default:
		_, h := d.localBounds()
		return 8 * h.X() * h.Y() * h.Z()
	}
}

// Collider is a shape attached to a rigid body.
type Collider struct {
	handle ColliderHandle
	parent BodyHandle
	desc   ColliderDesc
	center mgl64.Vec3
	half   mgl64.Vec3
}

// Handle returns the collider handle.
func (c *Collider) Handle() ColliderHandle { return c.handle }

// Parent returns the handle of the owning body.
func (c *Collider) Parent() BodyHandle { return c.parent }

// Shape returns the native shape type.
func (c *Collider) Shape() ShapeType { return c.desc.Shape }

// IsSensor reports whether the collider is a sensor.
func (c *Collider) IsSensor() bool { return c.desc.Sensor }

// Friction returns the friction coefficient.
func (c *Collider) Friction() float64 { return c.desc.Friction }

// Restitution returns the restitution coefficient.
func (c *Collider) Restitution() float64 { return c.desc.Restitution }

// HalfExtents returns the half extents of the collider's local bounding box.
func (c *Collider) HalfExtents() mgl64.Vec3 { return c.half }

// Radius returns the radius of round shapes.
func (c *Collider) Radius() float64 { return c.desc.Radius }

func aabbOf(points []mgl64.Vec3) (lo, hi mgl64.Vec3) {
	if len(points) == 0 {
		return
	}
	lo, hi = points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = math.Min(lo[i], p[i])
			hi[i] = math.Max(hi[i], p[i])
		}
	}
	return lo, hi
}
