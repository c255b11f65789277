// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"encoding/json"
	"fmt"

	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"
)

const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema renders the schema's definitions as a JSON Schema document
// describing a flat value map keyed by definition key. Unresolved mixins and
// parents are not included; resolve the schema first to cover them.
func (s *Schema) JSONSchema() ([]byte, error) {
	props := make(map[string]any)
	var required []string
	for _, d := range s.Definitions() {
		props[d.Key] = definitionSchema(d)
		if d.Required {
			required = append(required, d.Key)
		}
	}

	doc := map[string]any{
		"$schema":    draft2020,
		"title":      s.name,
		"type":       "object",
		"properties": props,
	}
	if s.description != "" {
		doc["description"] = s.description
	}
	if s.version != "" {
		doc["$comment"] = "version " + s.version
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, oops.With("schema", s.name).Wrapf(err, "marshal json schema")
	}
	return data, nil
}

func definitionSchema(d Definition) map[string]any {
	out := map[string]any{}
	if d.Label != "" {
		out["title"] = d.Label
	}
	if d.Description != "" {
		out["description"] = d.Description
	}
	if d.ReadOnly {
		out["readOnly"] = true
	}

	switch d.Type {
	case TypeNumber, TypeRange:
		out["type"] = "number"
		if d.Min != nil {
			out["minimum"] = *d.Min
		}
		if d.Max != nil {
			out["maximum"] = *d.Max
		}
	case TypeText, TypeFile:
		out["type"] = "string"
	case TypeColor:
		out["type"] = "string"
		out["pattern"] = colorPattern.String()
	case TypeBoolean:
		out["type"] = "boolean"
	case TypeVector2:
		out["type"] = []string{"object", "array"}
	case TypeVector3:
		out["type"] = []string{"object", "array"}
		out["properties"] = map[string]any{
			"x": map[string]any{"type": "number"},
			"y": map[string]any{"type": "number"},
			"z": map[string]any{"type": "number"},
		}
	case TypeSelect:
		values := make([]any, 0, len(d.Options))
		for _, o := range d.Options {
			values = append(values, o.Value)
		}
		out["enum"] = values
	case TypeArray:
		out["type"] = "array"
		if d.ItemType != "" {
			out["items"] = definitionSchema(Definition{Type: d.ItemType})
		}
	case TypeObject:
		out["type"] = "object"
		fields := make(map[string]any, len(d.Fields))
		for _, f := range d.Fields {
			fields[f.Key] = definitionSchema(f)
		}
		out["properties"] = fields
	}
	return out
}

// Compile builds the JSON Schema validator for the schema. The result is cached.
func (s *Schema) Compile() (*jschema.Schema, error) {
	s.compileOnce.Do(func() {
		data, err := s.JSONSchema()
		if err != nil {
			s.compileErr = err
			return
		}

		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			s.compileErr = oops.With("schema", s.name).Wrapf(err, "parse json schema")
			return
		}

		c := jschema.NewCompiler()
		url := fmt.Sprintf("mem://property/%s.json", s.name)
		if err := c.AddResource(url, doc); err != nil {
			s.compileErr = oops.With("schema", s.name).Wrapf(err, "add schema resource")
			return
		}
		s.compiled, s.compileErr = c.Compile(url)
		if s.compileErr != nil {
			s.compileErr = oops.With("schema", s.name).Wrapf(s.compileErr, "compile schema")
		}
	})
	return s.compiled, s.compileErr
}

// validateStructure normalizes values through JSON so that typed Go values
// such as vectors are checked in their plain form. Nil entries count as unset.
func (s *Schema) validateStructure(values map[string]any) error {
	sch, err := s.Compile()
	if err != nil {
		return err
	}

	present := make(map[string]any, len(values))
	for k, v := range values {
		if v != nil {
			present[k] = v
		}
	}

	data, err := json.Marshal(present)
	if err != nil {
		return oops.Code("INVALID_PROPERTY_VALUES").With("schema", s.name).Wrapf(err, "marshal values")
	}
	var plain any
	if err := json.Unmarshal(data, &plain); err != nil {
		return oops.Code("INVALID_PROPERTY_VALUES").With("schema", s.name).Wrapf(err, "normalize values")
	}

	if err := sch.Validate(plain); err != nil {
		return oops.Code("INVALID_PROPERTY_VALUES").With("schema", s.name).Wrapf(err, "schema validation failed")
	}
	return nil
}
