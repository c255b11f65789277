// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import "slices"

// Builder assembles a Schema through chained calls.
//
//	schema := property.NewBuilder("lamp", "1.0.0").
//		Inherit("base-object").
//		Mixin(property.MixinAppearance).
//		Group("light", "Light").
//		Property(property.Definition{Key: "intensity", Type: property.TypeNumber}).
//		Build()
//
// Property appends to the most recently added group, creating a "general"
// group when none exists yet.
type Builder struct {
	name        string
	version     string
	description string
	groups      []Group
	mixins      []string
	inherits    []string
}

// DefaultGroup is the group Property falls back to.
const DefaultGroup = "general"

// NewBuilder starts a schema with the given name and version.
func NewBuilder(name, version string) *Builder {
	return &Builder{name: name, version: version}
}

// Describe sets the schema description.
func (b *Builder) Describe(description string) *Builder {
	b.description = description
	return b
}

// Group starts a new group.
func (b *Builder) Group(name, label string) *Builder {
	b.groups = append(b.groups, Group{Name: name, Label: label})
	return b
}

// CollapsibleGroup starts a new group that editors may fold.
func (b *Builder) CollapsibleGroup(name, label string, collapsed bool) *Builder {
	b.groups = append(b.groups, Group{Name: name, Label: label, Collapsible: true, Collapsed: collapsed})
	return b
}

// When attaches a condition to the current group.
func (b *Builder) When(c Condition) *Builder {
	g := b.current()
	g.Condition = &c
	return b
}

// Property adds definitions to the current group.
func (b *Builder) Property(defs ...Definition) *Builder {
	g := b.current()
	g.Definitions = append(g.Definitions, defs...)
	return b
}

// Mixin pulls in named mixins, expanded when the schema is resolved.
func (b *Builder) Mixin(names ...string) *Builder {
	for _, n := range names {
		if !slices.Contains(b.mixins, n) {
			b.mixins = append(b.mixins, n)
		}
	}
	return b
}

// Inherit declares parent schemas, expanded when the schema is resolved.
func (b *Builder) Inherit(names ...string) *Builder {
	for _, n := range names {
		if !slices.Contains(b.inherits, n) {
			b.inherits = append(b.inherits, n)
		}
	}
	return b
}

// Build returns the immutable schema. The builder may keep being used;
// later calls do not affect schemas already built.
func (b *Builder) Build() *Schema {
	groups := make([]Group, len(b.groups))
	for i, g := range b.groups {
		groups[i] = g.clone()
	}
	return &Schema{
		name:        b.name,
		version:     b.version,
		description: b.description,
		groups:      groups,
		mixins:      slices.Clone(b.mixins),
		inherits:    slices.Clone(b.inherits),
	}
}

func (b *Builder) current() *Group {
	if len(b.groups) == 0 {
		b.groups = append(b.groups, Group{Name: DefaultGroup, Label: "General"})
	}
	return &b.groups[len(b.groups)-1]
}
