// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"errors"
	"sort"
	"strings"

	"github.com/samber/oops"
)

// ErrInvalidName indicates an empty mixin or schema name.
var ErrInvalidName = errors.New("name cannot be empty")

// ErrDuplicateMixin indicates a mixin with the same name already exists.
var ErrDuplicateMixin = errors.New("mixin already registered")

// ErrUnknownMixin indicates a schema references a mixin that is not registered.
var ErrUnknownMixin = errors.New("unknown mixin")

// ErrUnknownSchema indicates a schema inherits from a schema that is not registered.
var ErrUnknownSchema = errors.New("unknown schema")

// ErrInheritanceCycle indicates schemas inherit from each other in a loop.
var ErrInheritanceCycle = errors.New("schema inheritance cycle")

// Library holds named mixins and schemas that other schemas can reference.
// It is not safe for concurrent mutation.
type Library struct {
	mixins  map[string]Mixin
	schemas map[string]*Schema
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		mixins:  make(map[string]Mixin),
		schemas: make(map[string]*Schema),
	}
}

// DefaultLibrary returns a library with the built-in mixins registered.
func DefaultLibrary() *Library {
	l := NewLibrary()
	for _, m := range BuiltinMixins() {
		l.MustRegisterMixin(m)
	}
	return l
}

// RegisterMixin adds a mixin.
// Returns ErrInvalidName for empty names and ErrDuplicateMixin on duplicates.
func (l *Library) RegisterMixin(m Mixin) error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrInvalidName
	}
	if _, exists := l.mixins[m.Name]; exists {
		return oops.With("mixin", m.Name).Wrap(ErrDuplicateMixin)
	}
	l.mixins[m.Name] = m
	return nil
}

// MustRegisterMixin adds a mixin, panicking on error.
// This is intended for static initialization only.
func (l *Library) MustRegisterMixin(m Mixin) {
	if err := l.RegisterMixin(m); err != nil {
		panic(err)
	}
}

// Mixin looks up a mixin by name.
func (l *Library) Mixin(name string) (Mixin, bool) {
	m, ok := l.mixins[name]
	return m, ok
}

// MixinNames returns the registered mixin names, sorted.
func (l *Library) MixinNames() []string {
	names := make([]string, 0, len(l.mixins))
	for name := range l.mixins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterSchema makes a schema available for inheritance under its name.
// Registering a name again replaces the previous schema.
func (l *Library) RegisterSchema(s *Schema) error {
	if s == nil || strings.TrimSpace(s.Name()) == "" {
		return ErrInvalidName
	}
	l.schemas[s.Name()] = s
	return nil
}

// Schema looks up a schema by name.
func (l *Library) Schema(name string) (*Schema, bool) {
	s, ok := l.schemas[name]
	return s, ok
}

// Resolve expands a schema's inheritance and mixins into a flat schema.
//
// Parents are expanded depth-first in declaration order, then mixins, then the
// schema's own groups. A key declared more than once keeps only its last
// declaration, so local definitions override inherited and mixed-in ones.
// Resolving an already resolved schema returns it unchanged.
func (l *Library) Resolve(s *Schema) (*Schema, error) {
	if s == nil {
		return nil, ErrInvalidName
	}
	if s.resolved {
		return s, nil
	}
	groups, err := l.expand(s, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return &Schema{
		name:        s.name,
		version:     s.version,
		description: s.description,
		groups:      dedupe(groups),
		resolved:    true,
	}, nil
}

func (l *Library) expand(s *Schema, visiting map[string]bool) ([]Group, error) {
	if visiting[s.name] {
		return nil, oops.With("schema", s.name).Wrap(ErrInheritanceCycle)
	}
	visiting[s.name] = true
	defer delete(visiting, s.name)

	var groups []Group
	for _, parentName := range s.inherits {
		parent, ok := l.schemas[parentName]
		if !ok {
			return nil, oops.With("schema", s.name).With("parent", parentName).Wrap(ErrUnknownSchema)
		}
		parentGroups, err := l.expand(parent, visiting)
		if err != nil {
			return nil, err
		}
		groups = append(groups, parentGroups...)
	}

	for _, mixinName := range s.mixins {
		m, ok := l.mixins[mixinName]
		if !ok {
			return nil, oops.With("schema", s.name).With("mixin", mixinName).Wrap(ErrUnknownMixin)
		}
		groups = append(groups, Group{
			Name:        m.Name,
			Label:       m.Label,
			Collapsible: true,
			Definitions: append([]Definition(nil), m.Definitions...),
		})
	}

	for _, g := range s.groups {
		groups = append(groups, g.clone())
	}
	return groups, nil
}

// dedupe drops every definition whose key is declared again later, then
// merges groups sharing a name and drops groups left empty.
func dedupe(groups []Group) []Group {
	last := make(map[string]int)
	pos := 0
	for _, g := range groups {
		for _, d := range g.Definitions {
			last[d.Key] = pos
			pos++
		}
	}

	var out []Group
	index := make(map[string]int)
	pos = 0
	for _, g := range groups {
		var kept []Definition
		for _, d := range g.Definitions {
			if last[d.Key] == pos {
				kept = append(kept, d)
			}
			pos++
		}
		if i, ok := index[g.Name]; ok {
			out[i].Definitions = append(out[i].Definitions, kept...)
			continue
		}
		if len(kept) == 0 {
			continue
		}
		g.Definitions = kept
		index[g.Name] = len(out)
		out = append(out, g)
	}
	return out
}

// ResolveNamed resolves the registered schema called name.
func (l *Library) ResolveNamed(name string) (*Schema, error) {
	s, ok := l.schemas[name]
	if !ok {
		return nil, oops.With("schema", name).Wrap(ErrUnknownSchema)
	}
	return l.Resolve(s)
}
