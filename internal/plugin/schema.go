// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package plugin

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the manifest schema $id for use in plugin.yaml files.
const SchemaID = "https://fluxstudio.dev/schemas/plugin.schema.json"

// GenerateSchema generates a JSON Schema from the Manifest struct.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
		FieldNameTag:   "yaml",
	}
	schema := r.Reflect(&Manifest{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "FluxStudio Plugin Manifest"
	schema.Description = "Schema for plugin.yaml manifest files"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "marshal manifest schema")
	}
	return data, nil
}

var (
	compiledMu     sync.Mutex
	compiledSchema *jschema.Schema
)

// ValidateSchema validates YAML data against the plugin manifest JSON Schema.
func ValidateSchema(data []byte) error {
	if len(data) == 0 {
		return oops.Code("INVALID_MANIFEST").Errorf("manifest data is empty")
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return oops.Code("INVALID_MANIFEST").Wrapf(err, "invalid YAML")
	}

	sch, err := manifestSchema()
	if err != nil {
		return err
	}
	if err := sch.Validate(jsonTypes(doc)); err != nil {
		return oops.Code("INVALID_MANIFEST").Wrapf(err, "schema validation failed")
	}
	return nil
}

func manifestSchema() (*jschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()
	if compiledSchema != nil {
		return compiledSchema, nil
	}

	data, err := GenerateSchema()
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "parse manifest schema")
	}

	c := jschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "add manifest schema")
	}
	sch, err := c.Compile("schema.json")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "compile manifest schema")
	}
	compiledSchema = sch
	return sch, nil
}

// jsonTypes rewrites YAML-decoded values into the types JSON decoding
// produces. Maps with non-string keys and YAML timestamps go through a JSON
// round trip.
func jsonTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = jsonTypes(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = jsonTypes(v)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case string, float64, bool, nil:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return val
		}
		var out any
		if err := json.Unmarshal(b, &out); err != nil {
			return val
		}
		return out
	}
}

// FormatSchemaError strips wrapping from a validation error for display.
func FormatSchemaError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, "schema validation failed: "); i >= 0 {
		msg = msg[i+len("schema validation failed: "):]
	}
	return msg
}
