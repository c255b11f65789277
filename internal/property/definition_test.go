// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

func TestDefinition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     Definition
		value   any
		wantErr string
	}{
		{"nil optional", Definition{Key: "size", Type: TypeNumber}, nil, ""},
		{"nil required", Definition{Key: "size", Type: TypeNumber, Required: true}, nil, "size: is required"},
		{"number ok", Definition{Key: "size", Type: TypeNumber}, 3, ""},
		{"number wrong type", Definition{Key: "size", Type: TypeNumber}, "big", "must be a number"},
		{"number below min", Definition{Key: "size", Type: TypeNumber, Min: Float(1)}, 0.5, "at least 1"},
		{"range above max", Definition{Key: "opacity", Type: TypeRange, Min: Float(0), Max: Float(1)}, 2, "at most 1"},
		{"text ok", Definition{Key: "label", Type: TypeText}, "hi", ""},
		{"boolean wrong", Definition{Key: "on", Type: TypeBoolean}, "yes", "must be a boolean"},
		{"color short", Definition{Key: "color", Type: TypeColor}, "#fff", ""},
		{"color invalid", Definition{Key: "color", Type: TypeColor}, "red", "hex color"},
		{"vector3 record", Definition{Key: "pos", Type: TypeVector3}, map[string]any{"x": 1, "y": 2, "z": 3}, ""},
		{"vector3 typed", Definition{Key: "pos", Type: TypeVector3}, geom.Vec3(1, 2, 3), ""},
		{"vector3 invalid", Definition{Key: "pos", Type: TypeVector3}, "up", "3D vector"},
		{"vector2 ok", Definition{Key: "uv", Type: TypeVector2}, []any{0.5, 1}, ""},
		{"vector2 wrong length", Definition{Key: "uv", Type: TypeVector2}, []any{0.5}, "2D vector"},
		{
			"select ok",
			Definition{Key: "mode", Type: TypeSelect, Options: []Option{{Label: "A", Value: "a"}, {Label: "B", Value: "b"}}},
			"b", "",
		},
		{
			"select numeric kinds",
			Definition{Key: "level", Type: TypeSelect, Options: []Option{{Label: "One", Value: 1}}},
			1.0, "",
		},
		{
			"select unknown",
			Definition{Key: "mode", Type: TypeSelect, Options: []Option{{Label: "A", Value: "a"}}},
			"c", "declared options",
		},
		{"file accepted", Definition{Key: "model", Type: TypeFile, Accept: []string{".glb", ".gltf"}}, "chair.GLB", ""},
		{"file rejected", Definition{Key: "model", Type: TypeFile, Accept: []string{".glb"}}, "chair.obj", "extensions"},
		{"array items", Definition{Key: "tags", Type: TypeArray, ItemType: TypeText}, []any{"a", "b"}, ""},
		{"array bad item", Definition{Key: "tags", Type: TypeArray, ItemType: TypeText}, []any{"a", 2}, "item 1"},
		{"array not slice", Definition{Key: "tags", Type: TypeArray}, "a", "must be an array"},
		{
			"object field required",
			Definition{Key: "light", Type: TypeObject, Fields: []Definition{{Key: "intensity", Type: TypeNumber, Required: true}}},
			map[string]any{}, "intensity: is required",
		},
		{"custom accepts anything", Definition{Key: "curve", Type: TypeCustom}, struct{}{}, ""},
		{"unknown type", Definition{Key: "odd", Type: "matrix"}, 1, "unknown type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate(tt.value)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefinition_Validators(t *testing.T) {
	t.Run("min length on text", func(t *testing.T) {
		def := Definition{Key: "name", Type: TypeText, Validators: []Validator{{Kind: ValidateMin, Value: 3}}}
		assert.Error(t, def.Validate("ab"))
		assert.NoError(t, def.Validate("abc"))
	})

	t.Run("pattern with custom message", func(t *testing.T) {
		def := Definition{Key: "sku", Type: TypeText, Validators: []Validator{
			{Kind: ValidatePattern, Value: `^[A-Z]{3}-\d+$`, Message: "bad sku"},
		}}
		err := def.Validate("abc-1")
		require.Error(t, err)
		assert.Equal(t, "sku: bad sku", err.Error())
		assert.NoError(t, def.Validate("ABC-12"))
	})

	t.Run("required rejects blank text", func(t *testing.T) {
		def := Definition{Key: "title", Type: TypeText, Validators: []Validator{{Kind: ValidateRequired}}}
		assert.Error(t, def.Validate("  "))
		assert.Error(t, def.Validate(nil))
	})

	t.Run("custom func", func(t *testing.T) {
		even := func(v any) bool {
			n, _ := geom.ToFloat(v)
			return int(n)%2 == 0
		}
		def := Definition{Key: "count", Type: TypeNumber, Validators: []Validator{{Kind: ValidateCustom, Func: even}}}
		assert.NoError(t, def.Validate(4))
		assert.Error(t, def.Validate(3))
	})

	t.Run("error is a ValidationError", func(t *testing.T) {
		def := Definition{Key: "count", Type: TypeNumber, Max: Float(2)}
		err := def.Validate(5)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "count", verr.Field)
	})
}

func TestType_Valid(t *testing.T) {
	assert.True(t, TypeVector3.Valid())
	assert.True(t, TypeCustom.Valid())
	assert.False(t, Type("matrix").Valid())
}
