// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import (
	"errors"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Geometry builder errors.
var (
	// ErrAmbiguousBuilder means two pattern rules of equal priority match the
	// same type key. It is a configuration error.
	ErrAmbiguousBuilder = errors.New("ambiguous geometry builder")
	ErrNoBuilder        = errors.New("no geometry builder")
	ErrDuplicateBuilder = errors.New("duplicate geometry builder")
)

// GeometryBuilder produces the geometry for a type.
type GeometryBuilder func(def *registry.TypeDefinition) (*Geometry, error)

type builderRule struct {
	pattern  string
	glob     glob.Glob
	priority int
	build    GeometryBuilder
}

// GeometryBuilders picks a builder for a type key. Exact keys win; otherwise
// the matching pattern rule with the highest priority is used. Patterns are
// globs with '.' as the segment separator, so "furniture.*" matches
// "furniture.chair" but not "furniture.office.desk".
type GeometryBuilders struct {
	exact map[string]GeometryBuilder
	rules []builderRule
}

// NewGeometryBuilders creates an empty table.
func NewGeometryBuilders() *GeometryBuilders {
	return &GeometryBuilders{exact: make(map[string]GeometryBuilder)}
}

// Register binds a builder to one type key.
func (b *GeometryBuilders) Register(typeKey string, build GeometryBuilder) error {
	if typeKey == "" || build == nil {
		return oops.Code("INVALID_BUILDER").With("type", typeKey).Errorf("type key and builder are required")
	}
	if _, ok := b.exact[typeKey]; ok {
		return oops.Code("DUPLICATE_BUILDER").With("type", typeKey).Wrap(ErrDuplicateBuilder)
	}
	b.exact[typeKey] = build
	return nil
}

// RegisterPattern binds a builder to every key matching pattern. The same
// pattern cannot be registered twice.
func (b *GeometryBuilders) RegisterPattern(pattern string, priority int, build GeometryBuilder) error {
	if pattern == "" || build == nil {
		return oops.Code("INVALID_BUILDER").With("pattern", pattern).Errorf("pattern and builder are required")
	}
	for _, r := range b.rules {
		if r.pattern == pattern {
			return oops.Code("DUPLICATE_BUILDER").With("pattern", pattern).Wrap(ErrDuplicateBuilder)
		}
	}
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return oops.Code("INVALID_BUILDER").With("pattern", pattern).Wrapf(err, "compile pattern")
	}
	b.rules = append(b.rules, builderRule{pattern: pattern, glob: g, priority: priority, build: build})
	return nil
}

// Resolve returns the builder for typeKey.
func (b *GeometryBuilders) Resolve(typeKey string) (GeometryBuilder, error) {
	if build, ok := b.exact[typeKey]; ok {
		return build, nil
	}

	var best *builderRule
	tied := false
	for i := range b.rules {
		r := &b.rules[i]
		if !r.glob.Match(typeKey) {
			continue
		}
		switch {
		case best == nil || r.priority > best.priority:
			best, tied = r, false
		case r.priority == best.priority:
			tied = true
		}
	}
	if best == nil {
		return nil, oops.Code("NO_BUILDER").With("type", typeKey).Wrap(ErrNoBuilder)
	}
	if tied {
		return nil, oops.Code("AMBIGUOUS_BUILDER").
			With("type", typeKey).
			With("priority", best.priority).
			Wrap(ErrAmbiguousBuilder)
	}
	return best.build, nil
}

// Build resolves and runs the builder for def.
func (b *GeometryBuilders) Build(def *registry.TypeDefinition) (*Geometry, error) {
	build, err := b.Resolve(def.Key())
	if err != nil {
		return nil, err
	}
	g, err := build(def)
	if err != nil {
		return nil, oops.Code("BUILD_GEOMETRY_FAILED").With("type", def.Key()).Wrap(err)
	}
	return g, nil
}

// Check reports the first ambiguity among keys, so hosts can reject a bad
// configuration at startup instead of on first use.
func (b *GeometryBuilders) Check(keys []string) error {
	for _, k := range keys {
		if _, err := b.Resolve(k); errors.Is(err, ErrAmbiguousBuilder) {
			return err
		}
	}
	return nil
}

// PrimitiveBuilders returns a table with a fallback builder for every key
// that derives geometry from the physics shape when one is declared, and a
// unit box otherwise.
func PrimitiveBuilders() *GeometryBuilders {
	b := NewGeometryBuilders()
	_ = b.RegisterPattern("**", 0, ShapeGeometry)
	return b
}

// ShapeGeometry builds geometry matching a type's declared collider shape.
func ShapeGeometry(def *registry.TypeDefinition) (*Geometry, error) {
	p := def.Physics()
	if p == nil || p.Shape == nil {
		return BoxGeometry(1, 1, 1), nil
	}
	s := p.Shape
	switch s.Kind {
	case geom.ShapeBox:
		size := s.HalfExtents.Scale(2)
		return BoxGeometry(size.X, size.Y, size.Z), nil
	case geom.ShapeSphere:
		return SphereGeometry(s.Radius, 16, 12), nil
	case geom.ShapeCylinder, geom.ShapeCapsule:
		return CylinderGeometry(s.Radius, s.Radius, s.Height, 16), nil
	case geom.ShapeCone:
		return ConeGeometry(s.Radius, s.Height, 16), nil
	case geom.ShapeTrimesh, geom.ShapeConvex:
		return MeshGeometry(s.Vertices, s.Indices), nil
	}
	return nil, oops.Code("BUILD_GEOMETRY_FAILED").With("shape", s.Kind).Errorf("unsupported shape %q", s.Kind)
}
