// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"slices"
	"sync"

	jschema "github.com/santhosh-tekuri/jsonschema/v6"
)

// Group is a named cluster of definitions.
type Group struct {
	Name        string
	Label       string
	Collapsible bool
	Collapsed   bool
	Definitions []Definition
	// Condition, when set, gates the group's visibility or enablement.
	Condition *Condition
}

// State reports whether the group is visible and enabled for values.
func (g Group) State(values map[string]any) (visible, enabled bool) {
	if g.Condition == nil {
		return true, true
	}
	return g.Condition.Evaluate(values)
}

func (g Group) clone() Group {
	out := g
	out.Definitions = slices.Clone(g.Definitions)
	if g.Condition != nil {
		c := *g.Condition
		out.Condition = &c
	}
	return out
}

// Mixin is a reusable bundle of definitions.
type Mixin struct {
	Name        string
	Label       string
	Definitions []Definition
}

// Schema is an immutable property schema. Build one with NewBuilder.
type Schema struct {
	name        string
	version     string
	description string
	groups      []Group
	mixins      []string
	inherits    []string
	resolved    bool

	compileOnce sync.Once
	compiled    *jschema.Schema
	compileErr  error
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Version returns the schema version.
func (s *Schema) Version() string { return s.version }

// Description returns the schema description.
func (s *Schema) Description() string { return s.description }

// Mixins returns the names of mixins the schema pulls in.
func (s *Schema) Mixins() []string { return slices.Clone(s.mixins) }

// Inherits returns the names of schemas this schema inherits from.
func (s *Schema) Inherits() []string { return slices.Clone(s.inherits) }

// Resolved reports whether mixins and inheritance have been expanded.
func (s *Schema) Resolved() bool { return s.resolved }

// Groups returns a copy of the schema's groups.
func (s *Schema) Groups() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = g.clone()
	}
	return out
}

// Definitions returns every definition in group order.
func (s *Schema) Definitions() []Definition {
	var out []Definition
	for _, g := range s.groups {
		out = append(out, g.Definitions...)
	}
	return out
}

// Definition looks up a definition by key.
func (s *Schema) Definition(key string) (Definition, bool) {
	for _, g := range s.groups {
		for _, d := range g.Definitions {
			if d.Key == key {
				return d, true
			}
		}
	}
	return Definition{}, false
}

// Defaults returns a fresh copy of the default value of every definition
// that declares one.
func (s *Schema) Defaults() map[string]any {
	out := make(map[string]any)
	for _, d := range s.Definitions() {
		if d.Default != nil {
			out[d.Key] = CloneValue(d.Default)
		}
	}
	return out
}

// Validate checks values against the schema. Structural checks run through the
// compiled JSON Schema; definition validators (patterns, custom functions) run
// afterwards. Keys not declared by the schema are ignored.
func (s *Schema) Validate(values map[string]any) error {
	if err := s.validateStructure(values); err != nil {
		return err
	}
	for _, d := range s.Definitions() {
		if err := d.Validate(values[d.Key]); err != nil {
			return err
		}
	}
	return nil
}
