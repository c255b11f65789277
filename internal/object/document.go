// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// DocumentSchemaID is the $id of the serialized instance schema.
const DocumentSchemaID = "https://fluxstudio.dev/schemas/object.schema.json"

// Document is the serialized form of a WorldObject.
type Document struct {
	ID         string             `json:"id" jsonschema:"minLength=1"`
	Metadata   DocumentMetadata   `json:"metadata"`
	Properties DocumentProperties `json:"properties"`
	State      map[string]any     `json:"state,omitempty"`
}

// DocumentMetadata is the serialized type metadata.
type DocumentMetadata struct {
	Type        string   `json:"type" jsonschema:"minLength=1"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Icon        string   `json:"icon,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// DocumentProperties are the serialized spatial attributes.
type DocumentProperties struct {
	Position geom.Vector3   `json:"position"`
	Rotation geom.Euler     `json:"rotation"`
	Scale    geom.Vector3   `json:"scale"`
	Visible  bool           `json:"visible"`
	UserData map[string]any `json:"userData,omitempty"`
}

// GenerateDocumentSchema returns the JSON Schema of Document.
func GenerateDocumentSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Document{})
	schema.ID = jsonschema.ID(DocumentSchemaID)
	schema.Title = "FluxStudio Object"
	schema.Description = "Serialized world object instance"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "marshal document schema")
	}
	return data, nil
}

var documentSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	data, err := GenerateDocumentSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "parse document schema")
	}
	c := jschema.NewCompiler()
	if err := c.AddResource("object.schema.json", doc); err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "add document schema")
	}
	sch, err := c.Compile("object.schema.json")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATION_FAILED").Wrapf(err, "compile document schema")
	}
	return sch, nil
})

// ValidateDocument checks raw JSON against the document schema.
func ValidateDocument(data []byte) error {
	sch, err := documentSchema()
	if err != nil {
		return err
	}
	inst, err := jschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return oops.Code("INVALID_DOCUMENT").Wrapf(err, "parse document")
	}
	if err := sch.Validate(inst); err != nil {
		return oops.Code("INVALID_DOCUMENT").Wrapf(err, "validate document")
	}
	return nil
}

func toDocument(obj *WorldObject) Document {
	m := obj.Metadata
	return Document{
		ID: obj.ID,
		Metadata: DocumentMetadata{
			Type:        m.Type,
			Name:        m.Name,
			Description: m.Description,
			Category:    m.Category,
			Icon:        m.Icon,
			Tags:        slices.Clone(m.Tags),
		},
		Properties: DocumentProperties{
			Position: obj.Properties.Position,
			Rotation: obj.Properties.Rotation,
			Scale:    obj.Properties.Scale,
			Visible:  obj.Properties.Visible,
			UserData: obj.Properties.UserData,
		},
		State: obj.State,
	}
}

func (d Document) metadata() registry.Metadata {
	return registry.Metadata{
		Type:        d.Metadata.Type,
		Name:        d.Metadata.Name,
		Description: d.Metadata.Description,
		Category:    d.Metadata.Category,
		Icon:        d.Metadata.Icon,
		Tags:        d.Metadata.Tags,
	}
}

func (d Document) properties() Properties {
	p := Properties{
		Position: d.Properties.Position,
		Rotation: d.Properties.Rotation,
		Scale:    d.Properties.Scale,
		Visible:  d.Properties.Visible,
		UserData: maps.Clone(d.Properties.UserData),
	}
	if p.UserData == nil {
		p.UserData = map[string]any{}
	}
	return p
}
