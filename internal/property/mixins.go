// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

// Names of the built-in mixins.
const (
	MixinTransform  = "transform"
	MixinAppearance = "appearance"
	MixinPhysics    = "physics"
)

// BuiltinMixins returns the mixins every DefaultLibrary carries.
func BuiltinMixins() []Mixin {
	return []Mixin{
		{
			Name:  MixinTransform,
			Label: "Transform",
			Definitions: []Definition{
				{Key: "position", Label: "Position", Type: TypeVector3, Category: "transform", Default: map[string]any{"x": 0.0, "y": 0.0, "z": 0.0}},
				{Key: "rotation", Label: "Rotation", Type: TypeVector3, Category: "transform", Default: map[string]any{"x": 0.0, "y": 0.0, "z": 0.0}},
				{Key: "scale", Label: "Scale", Type: TypeVector3, Category: "transform", Default: map[string]any{"x": 1.0, "y": 1.0, "z": 1.0}},
			},
		},
		{
			Name:  MixinAppearance,
			Label: "Appearance",
			Definitions: []Definition{
				{Key: "color", Label: "Color", Type: TypeColor, Category: "appearance", Default: "#ffffff"},
				{Key: "opacity", Label: "Opacity", Type: TypeRange, Category: "appearance", Default: 1.0, Min: Float(0), Max: Float(1), Step: 0.01},
				{Key: "visible", Label: "Visible", Type: TypeBoolean, Category: "appearance", Default: true},
			},
		},
		{
			Name:  MixinPhysics,
			Label: "Physics",
			Definitions: []Definition{
				{Key: "physics.enabled", Label: "Enable physics", Type: TypeBoolean, Category: "physics", Default: false},
				{
					Key: "physics.type", Label: "Body type", Type: TypeSelect, Category: "physics", Default: "dynamic",
					Options: []Option{
						{Label: "Static", Value: "static"},
						{Label: "Dynamic", Value: "dynamic"},
						{Label: "Kinematic", Value: "kinematic"},
					},
				},
				{Key: "physics.mass", Label: "Mass", Type: TypeNumber, Category: "physics", Default: 1.0, Min: Float(0)},
				{Key: "physics.friction", Label: "Friction", Type: TypeRange, Category: "physics", Default: 0.5, Min: Float(0), Max: Float(1), Step: 0.05},
				{Key: "physics.restitution", Label: "Restitution", Type: TypeRange, Category: "physics", Default: 0.3, Min: Float(0), Max: Float(1), Step: 0.05},
			},
		},
	}
}
