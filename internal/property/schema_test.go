// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

func lampSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := DefaultLibrary().Resolve(NewBuilder("lamp", "1.0.0").
		Mixin(MixinTransform, MixinAppearance, MixinPhysics).
		Group("light", "Light").
		Property(
			Definition{Key: "intensity", Type: TypeNumber, Default: 1.0, Min: Float(0), Max: Float(10)},
			Definition{Key: "label", Type: TypeText, Required: true, Validators: []Validator{{Kind: ValidatePattern, Value: `^[a-z]+$`}}},
		).
		Build())
	require.NoError(t, err)
	return s
}

func TestSchema_Validate(t *testing.T) {
	s := lampSchema(t)

	valid := s.Defaults()
	valid["label"] = "desk"
	valid["position"] = geom.Vec3(1, 2, 3)
	require.NoError(t, s.Validate(valid))

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"intensity out of range", "intensity", 11},
		{"color not hex", "color", "blue"},
		{"body type not an option", "physics.type", "floating"},
		{"pattern mismatch", "label", "Desk"},
		{"opacity wrong type", "opacity", "half"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := s.Defaults()
			values["label"] = "desk"
			values[tt.key] = tt.value
			assert.Error(t, s.Validate(values))
		})
	}

	t.Run("missing required", func(t *testing.T) {
		assert.Error(t, s.Validate(s.Defaults()))
	})

	t.Run("undeclared keys ignored", func(t *testing.T) {
		values := s.Defaults()
		values["label"] = "desk"
		values["extra"] = []int{1, 2}
		assert.NoError(t, s.Validate(values))
	})
}

func TestSchema_JSONSchema(t *testing.T) {
	data, err := lampSchema(t).JSONSchema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "lamp", doc["title"])
	assert.Equal(t, []any{"label"}, doc["required"])

	props := doc["properties"].(map[string]any)
	intensity := props["intensity"].(map[string]any)
	assert.Equal(t, "number", intensity["type"])
	assert.InDelta(t, 10.0, intensity["maximum"], 1e-9)

	bodyType := props["physics.type"].(map[string]any)
	assert.Equal(t, []any{"static", "dynamic", "kinematic"}, bodyType["enum"])
}

func TestSchema_Defaults(t *testing.T) {
	d := lampSchema(t).Defaults()
	assert.Equal(t, "#ffffff", d["color"])
	assert.Equal(t, "dynamic", d["physics.type"])
	_, hasLabel := d["label"]
	assert.False(t, hasLabel)
}
