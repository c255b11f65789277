// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package physics

import (
	"math"

	"github.com/fluxstudio/fluxstudio/internal/physics/sim"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// RaycastHit is the result of Raycast. Body is empty on a miss.
type RaycastHit struct {
	Hit      bool
	Body     string
	Point    geom.Vector3
	Normal   geom.Vector3
	Distance float64
}

// Raycast returns the nearest body hit by the ray from origin along
// direction within maxDistance. A non-positive maxDistance is unbounded.
// Sensors are ignored. With solid set, a ray starting inside a shape hits it
// at distance 0; otherwise it hits the shape's boundary on the way out.
func (e *Engine) Raycast(origin, direction geom.Vector3, maxDistance float64, solid bool) RaycastHit {
	if e.world == nil {
		return RaycastHit{}
	}
	if maxDistance <= 0 {
		maxDistance = math.Inf(1)
	}
	hit, ok := e.world.CastRay(origin.Mgl(), direction.Mgl(), maxDistance, solid, func(c *sim.Collider) bool {
		return !c.IsSensor()
	})
	if !ok {
		return RaycastHit{}
	}
	body, ok := e.byCollider[hit.Collider]
	if !ok {
		return RaycastHit{}
	}
	return RaycastHit{
		Hit:      true,
		Body:     body.ID,
		Point:    geom.FromMgl(hit.Point),
		Normal:   geom.FromMgl(hit.Normal),
		Distance: hit.Toi,
	}
}
