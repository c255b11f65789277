// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import (
	"github.com/fluxstudio/fluxstudio/internal/physics"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Renderable is the handle to whatever draws an instance. The instance owns
// it; Dispose releases its geometry, material, and textures.
type Renderable interface {
	physics.Target
	Geometry() *Geometry
	// Duplicate returns an independent copy with its own resources.
	Duplicate() Renderable
	Dispose()
}

// Mesh is an in-memory Renderable used by headless hosts and tests.
type Mesh struct {
	transform geom.Transform
	geometry  *Geometry
	material  registry.Material
	disposed  bool
}

// NewMesh creates a mesh at the identity transform.
func NewMesh(g *Geometry, m registry.Material) *Mesh {
	return &Mesh{
		transform: geom.IdentityTransform(),
		geometry:  g,
		material:  m,
	}
}

// Transform implements Renderable.
func (m *Mesh) Transform() geom.Transform { return m.transform }

// SetTransform implements Renderable.
func (m *Mesh) SetTransform(tf geom.Transform) { m.transform = tf }

// Geometry implements Renderable.
func (m *Mesh) Geometry() *Geometry { return m.geometry }

// Material returns the mesh material.
func (m *Mesh) Material() registry.Material { return m.material }

// Duplicate implements Renderable.
func (m *Mesh) Duplicate() Renderable {
	out := &Mesh{transform: m.transform, material: m.material}
	if m.geometry != nil {
		out.geometry = m.geometry.Clone()
	}
	return out
}

// Dispose implements Renderable. It is safe to call more than once.
func (m *Mesh) Dispose() {
	if m.disposed {
		return
	}
	if m.geometry != nil {
		m.geometry.Dispose()
	}
	m.disposed = true
}

// Disposed reports whether Dispose was called.
func (m *Mesh) Disposed() bool { return m.disposed }
