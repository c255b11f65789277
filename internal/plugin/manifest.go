// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package plugin loads bundles of object types into the registry, from Go
// code or from plugin directories on disk.
package plugin

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Type identifies how a plugin directory is loaded.
type Type string

// Plugin types.
const (
	// TypeLua runs an entry script that registers types through host functions.
	TypeLua Type = "lua"
	// TypeStatic declares its types in the manifest itself.
	TypeStatic Type = "static"
)

// CoreVersion is the version plugins' core constraints are checked against.
const CoreVersion = "1.0.0"

// Manifest represents a plugin.yaml file.
type Manifest struct {
	Name         string         `yaml:"name" jsonschema:"pattern=^[a-z]([a-z0-9-]*[a-z0-9])?$,maxLength=64"`
	Version      string         `yaml:"version" jsonschema:"minLength=1"`
	Type         Type           `yaml:"type" jsonschema:"enum=lua,enum=static"`
	Description  string         `yaml:"description,omitempty"`
	Core         string         `yaml:"core,omitempty" jsonschema:"description=semver constraint on the core version"`
	Capabilities []string       `yaml:"capabilities,omitempty"`
	LuaPlugin    *LuaConfig     `yaml:"lua-plugin,omitempty"`
	Objects      []ObjectSpec   `yaml:"objects,omitempty"`
	Categories   []CategorySpec `yaml:"categories,omitempty"`
}

// LuaConfig holds Lua-specific configuration.
type LuaConfig struct {
	Entry string `yaml:"entry" jsonschema:"minLength=1"`
}

// CategorySpec declares a category.
type CategorySpec struct {
	ID   string `yaml:"id" jsonschema:"minLength=1"`
	Name string `yaml:"name"`
	Icon string `yaml:"icon,omitempty"`
}

// ObjectSpec declares an object type in YAML or from a Lua table.
type ObjectSpec struct {
	Type        string        `yaml:"type" jsonschema:"minLength=1"`
	Name        string        `yaml:"name,omitempty"`
	Description string        `yaml:"description,omitempty"`
	Category    string        `yaml:"category,omitempty"`
	Icon        string        `yaml:"icon,omitempty"`
	Tags        []string      `yaml:"tags,omitempty"`
	Defaults    *DefaultsSpec `yaml:"defaults,omitempty"`
	Material    *MaterialSpec `yaml:"material,omitempty"`
	Physics     *PhysicsSpec  `yaml:"physics,omitempty"`
	Schema      *SchemaSpec   `yaml:"schema,omitempty"`
}

// DefaultsSpec declares instance defaults. Vectors may be lists or records.
type DefaultsSpec struct {
	Position any            `yaml:"position,omitempty"`
	Rotation any            `yaml:"rotation,omitempty"`
	Scale    any            `yaml:"scale,omitempty"`
	Visible  *bool          `yaml:"visible,omitempty"`
	State    map[string]any `yaml:"state,omitempty"`
}

// MaterialSpec declares appearance defaults.
type MaterialSpec struct {
	Color     string  `yaml:"color,omitempty"`
	Opacity   float64 `yaml:"opacity,omitempty"`
	Metalness float64 `yaml:"metalness,omitempty"`
	Roughness float64 `yaml:"roughness,omitempty"`
	Texture   string  `yaml:"texture,omitempty"`
}

// PhysicsSpec declares a physics descriptor. Shape uses the record form
// accepted by geom.ShapeFromRecord.
type PhysicsSpec struct {
	Kind        string         `yaml:"kind,omitempty" jsonschema:"enum=static,enum=dynamic,enum=kinematic"`
	Shape       map[string]any `yaml:"shape,omitempty"`
	Mass        float64        `yaml:"mass,omitempty"`
	Friction    float64        `yaml:"friction,omitempty"`
	Restitution float64        `yaml:"restitution,omitempty"`
	Density     float64        `yaml:"density,omitempty"`
	Sensor      bool           `yaml:"sensor,omitempty"`
}

// SchemaSpec declares the property schema of an object type.
type SchemaSpec struct {
	Name        string         `yaml:"name,omitempty"`
	Version     string         `yaml:"version,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Mixins      []string       `yaml:"mixins,omitempty"`
	Properties  []PropertySpec `yaml:"properties"`
}

// PropertySpec declares one property of a SchemaSpec.
type PropertySpec struct {
	Key         string            `yaml:"key" jsonschema:"minLength=1"`
	Type        string            `yaml:"type" jsonschema:"minLength=1"`
	Label       string            `yaml:"label,omitempty"`
	Description string            `yaml:"description,omitempty"`
	Category    string            `yaml:"category,omitempty"`
	Default     any               `yaml:"default,omitempty"`
	Required    bool              `yaml:"required,omitempty"`
	Min         *float64          `yaml:"min,omitempty"`
	Max         *float64          `yaml:"max,omitempty"`
	Step        float64           `yaml:"step,omitempty"`
	Options     []property.Option `yaml:"options,omitempty"`
	Accept      []string          `yaml:"accept,omitempty"`
}

// Build turns a manifest schema block into a schema. Name defaults to
// typeKey and version to 1.0.0.
func (s SchemaSpec) Build(typeKey string) (*property.Schema, error) {
	name, version := s.Name, s.Version
	if name == "" {
		name = typeKey
	}
	if version == "" {
		version = "1.0.0"
	}
	defs := make([]property.Definition, 0, len(s.Properties))
	for i, p := range s.Properties {
		t := property.Type(p.Type)
		if p.Key == "" || !t.Valid() {
			return nil, oops.Code("INVALID_SCHEMA_SPEC").
				With("type", typeKey).
				With("index", i).
				Errorf("property %d needs a key and a known type, got %q", i, p.Type)
		}
		label := p.Label
		if label == "" {
			label = p.Key
		}
		defs = append(defs, property.Definition{
			Key:         p.Key,
			Label:       label,
			Description: p.Description,
			Type:        t,
			Category:    p.Category,
			Default:     p.Default,
			Required:    p.Required,
			Min:         p.Min,
			Max:         p.Max,
			Step:        p.Step,
			Options:     p.Options,
			Accept:      p.Accept,
		})
	}
	return property.NewBuilder(name, version).
		Describe(s.Description).
		Mixin(s.Mixins...).
		Property(defs...).
		Build(), nil
}

// maxNameLength is the maximum allowed length for plugin names.
const maxNameLength = 64

// namePattern: lowercase letter first, then lowercase letters, digits, or
// hyphens, not ending with a hyphen.
var namePattern = regexp.MustCompile(`^[a-z]([a-z0-9-]*[a-z0-9])?$`)

// ParseManifest parses and validates a plugin.yaml file.
func ParseManifest(data []byte) (*Manifest, error) {
	if len(data) == 0 {
		return nil, oops.Code("INVALID_MANIFEST").Errorf("manifest data is empty")
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, oops.Code("INVALID_MANIFEST").Wrapf(err, "invalid YAML")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks manifest constraints.
func (m *Manifest) Validate() error {
	bad := oops.Code("INVALID_MANIFEST").With("plugin", m.Name)
	if m.Name == "" || !namePattern.MatchString(m.Name) {
		return bad.Errorf("name %q must start with a-z, contain only a-z, 0-9, hyphens, and not end with a hyphen", m.Name)
	}
	if len(m.Name) > maxNameLength {
		return bad.Errorf("name must be %d characters or less, got %d", maxNameLength, len(m.Name))
	}

	if m.Version == "" {
		return bad.Errorf("version is required")
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return bad.With("version", m.Version).Wrapf(err, "version must be semver")
	}
	if m.Core != "" {
		c, err := semver.NewConstraint(m.Core)
		if err != nil {
			return bad.With("core", m.Core).Wrapf(err, "invalid core constraint")
		}
		if !c.Check(semver.MustParse(CoreVersion)) {
			return bad.With("core", m.Core).Errorf("plugin requires core %s, running %s", m.Core, CoreVersion)
		}
	}

	switch m.Type {
	case TypeLua:
		if m.LuaPlugin == nil || m.LuaPlugin.Entry == "" {
			return bad.Errorf("lua-plugin.entry is required when type is lua")
		}
	case TypeStatic:
		if len(m.Objects) == 0 && len(m.Categories) == 0 {
			return bad.Errorf("static plugins must declare objects or categories")
		}
	default:
		return bad.Errorf("type must be 'lua' or 'static', got %q", m.Type)
	}

	for i, o := range m.Objects {
		if o.Type == "" {
			return bad.With("index", i).Errorf("objects[%d].type is required", i)
		}
	}
	return nil
}

// Definition converts a manifest object entry to a type definition.
func (s ObjectSpec) Definition() (registry.TypeDefinition, error) {
	def := registry.TypeDefinition{
		Metadata: registry.Metadata{
			Type:        s.Type,
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			Icon:        s.Icon,
			Tags:        s.Tags,
		},
		Config: registry.Config{
			Interaction: registry.Interaction{Selectable: true, Draggable: true, Rotatable: true, Scalable: true},
		},
	}
	if def.Metadata.Name == "" {
		def.Metadata.Name = s.Type
	}
	if def.Metadata.Category == "" {
		def.Metadata.Category = "custom"
	}

	if d := s.Defaults; d != nil {
		if d.Position != nil {
			v, ok := geom.CoerceVector3(d.Position, geom.Zero())
			if !ok {
				return def, oops.Code("INVALID_OBJECT_SPEC").With("type", s.Type).Errorf("defaults.position is not a vector")
			}
			def.Config.Defaults.Position = &v
		}
		if d.Rotation != nil {
			e, ok := geom.CoerceEuler(d.Rotation, geom.Euler{})
			if !ok {
				return def, oops.Code("INVALID_OBJECT_SPEC").With("type", s.Type).Errorf("defaults.rotation is not a vector")
			}
			def.Config.Defaults.Rotation = &e
		}
		if d.Scale != nil {
			v, ok := geom.CoerceVector3(d.Scale, geom.One())
			if !ok {
				return def, oops.Code("INVALID_OBJECT_SPEC").With("type", s.Type).Errorf("defaults.scale is not a vector")
			}
			def.Config.Defaults.Scale = &v
		}
		def.Config.Defaults.Visible = d.Visible
		def.Config.Defaults.State = d.State
	}

	if m := s.Material; m != nil {
		def.Config.Material = registry.Material(*m)
	}

	if p := s.Physics; p != nil {
		desc := &registry.PhysicsDescriptor{
			Enabled:     true,
			Kind:        registry.BodyKind(p.Kind),
			Mass:        p.Mass,
			Friction:    p.Friction,
			Restitution: p.Restitution,
			Density:     p.Density,
			Sensor:      p.Sensor,
		}
		if desc.Kind == "" {
			desc.Kind = registry.BodyDynamic
		}
		if p.Shape != nil {
			shape, err := geom.ShapeFromRecord(p.Shape)
			if err != nil {
				return def, oops.Code("INVALID_OBJECT_SPEC").With("type", s.Type).Wrapf(err, "physics.shape")
			}
			desc.Shape = &shape
		}
		def.Config.Interaction.Physics = desc
	}
	return def, nil
}

// Bundle builds the plugin bundle declared by a static manifest.
func (m *Manifest) Bundle() (*Plugin, error) {
	p := &Plugin{Name: m.Name, Version: m.Version}
	for _, c := range m.Categories {
		p.Categories = append(p.Categories, registry.Category(c))
	}
	for _, o := range m.Objects {
		def, err := o.Definition()
		if err != nil {
			return nil, oops.With("plugin", m.Name).Wrap(err)
		}
		p.Objects = append(p.Objects, def)
		if o.Schema == nil {
			continue
		}
		schema, err := o.Schema.Build(o.Type)
		if err != nil {
			return nil, oops.With("plugin", m.Name).Wrap(err)
		}
		if p.Schemas == nil {
			p.Schemas = make(map[string]*property.Schema)
		}
		p.Schemas[o.Type] = schema
	}
	return p, nil
}
