// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package property implements the declarative schema language that describes
// the editable attributes of an object type. Schemas are built from groups of
// definitions, reusable mixins, and inheritance; they describe data shapes and
// never hold instance values.
package property

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Type tags the kind of value a definition describes.
type Type string

// Property types understood by editors and validators.
const (
	TypeNumber  Type = "number"
	TypeText    Type = "text"
	TypeBoolean Type = "boolean"
	TypeColor   Type = "color"
	TypeVector2 Type = "vector2"
	TypeVector3 Type = "vector3"
	TypeSelect  Type = "select"
	TypeRange   Type = "range"
	TypeFile    Type = "file"
	TypeArray   Type = "array"
	TypeObject  Type = "object"
	TypeCustom  Type = "custom"
)

// Valid reports whether t is a known property type.
func (t Type) Valid() bool {
	switch t {
	case TypeNumber, TypeText, TypeBoolean, TypeColor, TypeVector2, TypeVector3,
		TypeSelect, TypeRange, TypeFile, TypeArray, TypeObject, TypeCustom:
		return true
	}
	return false
}

// Option is one choice of a select property.
type Option struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// ValidatorKind identifies a validation rule.
type ValidatorKind string

// Validator kinds.
const (
	ValidateRequired ValidatorKind = "required"
	ValidateMin      ValidatorKind = "min"
	ValidateMax      ValidatorKind = "max"
	ValidatePattern  ValidatorKind = "pattern"
	ValidateCustom   ValidatorKind = "custom"
)

// Validator is a single rule attached to a definition.
// Value holds the bound for min/max and the expression for pattern.
// Func is consulted only for custom validators.
type Validator struct {
	Kind    ValidatorKind
	Value   any
	Message string
	Func    func(value any) bool
}

// Definition describes one editable attribute.
type Definition struct {
	Key         string
	Label       string
	Description string
	Type        Type
	Category    string
	Default     any
	Required    bool
	ReadOnly    bool
	Hidden      bool

	// Options lists the choices of a select property.
	Options []Option
	// Min and Max bound number and range properties.
	Min  *float64
	Max  *float64
	Step float64
	// Accept lists allowed file extensions, e.g. ".glb".
	Accept []string
	// ItemType is the element type of an array property.
	ItemType Type
	// Fields describes the members of an object property.
	Fields []Definition
	// Component names a custom editor for custom properties.
	Component string

	Validators []Validator
}

// ValidationError reports an invalid property value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Float returns a pointer to v, for Min and Max.
func Float(v float64) *float64 {
	return &v
}

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate checks value against the definition's type and validators.
// A nil value is accepted unless the definition is required.
func (d Definition) Validate(value any) error {
	if value == nil {
		if d.Required || d.hasValidator(ValidateRequired) {
			return d.fail("is required")
		}
		return nil
	}

	if err := d.checkType(value); err != nil {
		return err
	}

	for _, v := range d.Validators {
		if err := d.apply(v, value); err != nil {
			return err
		}
	}
	return nil
}

func (d Definition) hasValidator(kind ValidatorKind) bool {
	for _, v := range d.Validators {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

func (d Definition) fail(format string, args ...any) error {
	return &ValidationError{Field: d.Key, Message: fmt.Sprintf(format, args...)}
}

func (d Definition) checkType(value any) error {
	switch d.Type {
	case TypeNumber, TypeRange:
		n, ok := geom.ToFloat(value)
		if !ok {
			return d.fail("must be a number")
		}
		if d.Min != nil && n < *d.Min {
			return d.fail("must be at least %g", *d.Min)
		}
		if d.Max != nil && n > *d.Max {
			return d.fail("must be at most %g", *d.Max)
		}
	case TypeText:
		if _, ok := value.(string); !ok {
			return d.fail("must be text")
		}
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return d.fail("must be a boolean")
		}
	case TypeColor:
		s, ok := value.(string)
		if !ok || !colorPattern.MatchString(s) {
			return d.fail("must be a hex color")
		}
	case TypeVector2:
		if !isVector2(value) {
			return d.fail("must be a 2D vector")
		}
	case TypeVector3:
		if _, ok := geom.CoerceVector3(value, geom.Vector3{}); !ok {
			return d.fail("must be a 3D vector")
		}
	case TypeSelect:
		if !d.hasOption(value) {
			return d.fail("must be one of the declared options")
		}
	case TypeFile:
		s, ok := value.(string)
		if !ok {
			return d.fail("must be a file reference")
		}
		if len(d.Accept) > 0 && !acceptsExt(d.Accept, s) {
			return d.fail("must have one of the extensions %s", strings.Join(d.Accept, ", "))
		}
	case TypeArray:
		return d.checkArray(value)
	case TypeObject:
		return d.checkObject(value)
	case TypeCustom, "":
	default:
		return d.fail("has unknown type %q", d.Type)
	}
	return nil
}

func (d Definition) checkArray(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return d.fail("must be an array")
	}
	if d.ItemType == "" {
		return nil
	}
	item := Definition{Key: d.Key, Type: d.ItemType}
	for i := 0; i < rv.Len(); i++ {
		if err := item.Validate(rv.Index(i).Interface()); err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				return d.fail("item %d: %s", i, verr.Message)
			}
			return err
		}
	}
	return nil
}

func (d Definition) checkObject(value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return d.fail("must be an object")
	}
	for _, field := range d.Fields {
		if err := field.Validate(m[field.Key]); err != nil {
			return d.fail("%s", err.Error())
		}
	}
	return nil
}

func (d Definition) hasOption(value any) bool {
	for _, opt := range d.Options {
		if valuesEqual(opt.Value, value) {
			return true
		}
	}
	return false
}

func (d Definition) apply(v Validator, value any) error {
	message := func(fallback string, args ...any) error {
		if v.Message != "" {
			return d.fail("%s", v.Message)
		}
		return d.fail(fallback, args...)
	}

	switch v.Kind {
	case ValidateRequired:
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return message("is required")
		}
	case ValidateMin, ValidateMax:
		bound, ok := geom.ToFloat(v.Value)
		if !ok {
			return nil
		}
		n, ok := measure(value)
		if !ok {
			return nil
		}
		if v.Kind == ValidateMin && n < bound {
			return message("must be at least %g", bound)
		}
		if v.Kind == ValidateMax && n > bound {
			return message("must be at most %g", bound)
		}
	case ValidatePattern:
		expr, _ := v.Value.(string)
		s, ok := value.(string)
		if !ok || expr == "" {
			return nil
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return d.fail("has invalid pattern %q", expr)
		}
		if !re.MatchString(s) {
			return message("must match %s", expr)
		}
	case ValidateCustom:
		if v.Func != nil && !v.Func(value) {
			return message("is invalid")
		}
	}
	return nil
}

// measure returns the quantity min/max validators compare: numbers by value,
// strings and slices by length.
func measure(value any) (float64, bool) {
	if n, ok := geom.ToFloat(value); ok {
		return n, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return float64(rv.Len()), true
	}
	return 0, false
}

func isVector2(value any) bool {
	switch v := value.(type) {
	case []any:
		if len(v) != 2 {
			return false
		}
		_, okX := geom.ToFloat(v[0])
		_, okY := geom.ToFloat(v[1])
		return okX && okY
	case []float64:
		return len(v) == 2
	case [2]float64:
		return true
	case map[string]any:
		_, okX := geom.ToFloat(v["x"])
		_, okY := geom.ToFloat(v["y"])
		return okX && okY
	}
	return false
}

func acceptsExt(accept []string, name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, a := range accept {
		if strings.ToLower(a) == ext {
			return true
		}
	}
	return false
}

// valuesEqual compares loosely typed values, treating all numeric kinds alike.
func valuesEqual(a, b any) bool {
	if an, ok := geom.ToFloat(a); ok {
		bn, ok := geom.ToFloat(b)
		return ok && an == bn
	}
	return reflect.DeepEqual(a, b)
}
