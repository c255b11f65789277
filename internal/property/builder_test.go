// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_DefaultGroup(t *testing.T) {
	s := NewBuilder("thing", "0.1.0").
		Describe("a thing").
		Property(Definition{Key: "a", Type: TypeText}).
		Build()

	assert.Equal(t, "thing", s.Name())
	assert.Equal(t, "0.1.0", s.Version())
	assert.Equal(t, "a thing", s.Description())
	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, DefaultGroup, groups[0].Name)
}

func TestBuilder_BuiltSchemaIsImmutable(t *testing.T) {
	b := NewBuilder("thing", "1").
		Group("main", "Main").
		Property(Definition{Key: "a", Type: TypeText}).
		Mixin(MixinTransform)
	first := b.Build()

	b.Property(Definition{Key: "b", Type: TypeText}).Mixin(MixinPhysics)
	second := b.Build()

	assert.Equal(t, []string{"a"}, keys(first))
	assert.Equal(t, []string{MixinTransform}, first.Mixins())
	assert.Equal(t, []string{"a", "b"}, keys(second))

	groups := first.Groups()
	groups[0].Definitions[0].Key = "mutated"
	_, ok := first.Definition("a")
	assert.True(t, ok)
}

func TestBuilder_MixinAndInheritDedupe(t *testing.T) {
	s := NewBuilder("thing", "1").
		Mixin(MixinTransform, MixinTransform).
		Inherit("base", "base").
		Build()

	assert.Equal(t, []string{MixinTransform}, s.Mixins())
	assert.Equal(t, []string{"base"}, s.Inherits())
}

func TestBuilder_When(t *testing.T) {
	s := NewBuilder("light", "1").
		Property(Definition{Key: "kind", Type: TypeText}).
		CollapsibleGroup("spot", "Spot", true).
		When(MustParseCondition(`show when kind == "spot"`)).
		Property(Definition{Key: "angle", Type: TypeNumber}).
		Build()

	groups := s.Groups()
	require.Len(t, groups, 2)
	assert.True(t, groups[1].Collapsed)
	visible, _ := groups[1].State(map[string]any{"kind": "point"})
	assert.False(t, visible)
}
