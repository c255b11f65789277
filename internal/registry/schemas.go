// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package registry

import (
	"sort"
	"strings"

	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/property"
)

// SchemaTable associates property schemas with type keys. Schemas are resolved
// against the table's library when set, so lookups return flat schemas.
type SchemaTable struct {
	library *property.Library
	schemas map[string]*property.Schema
}

// NewSchemaTable creates a schema table that resolves mixins and inheritance
// through lib. A nil lib uses property.DefaultLibrary.
func NewSchemaTable(lib *property.Library) *SchemaTable {
	if lib == nil {
		lib = property.DefaultLibrary()
	}
	return &SchemaTable{
		library: lib,
		schemas: make(map[string]*property.Schema),
	}
}

// Library returns the library used for resolution.
func (t *SchemaTable) Library() *property.Library { return t.library }

// Set resolves s and associates it with typeKey, replacing any previous
// schema. The unresolved schema is also registered in the library under its
// own name so other schemas can inherit from it.
func (t *SchemaTable) Set(typeKey string, s *property.Schema) error {
	if strings.TrimSpace(typeKey) == "" {
		return oops.Code("INVALID_TYPE_KEY").Errorf("type key cannot be empty")
	}
	resolved, err := t.library.Resolve(s)
	if err != nil {
		return oops.Code("SCHEMA_RESOLVE_FAILED").With("type", typeKey).Wrap(err)
	}
	if !s.Resolved() {
		if err := t.library.RegisterSchema(s); err != nil {
			return oops.Code("SCHEMA_RESOLVE_FAILED").With("type", typeKey).Wrap(err)
		}
	}
	t.schemas[typeKey] = resolved
	return nil
}

// Get returns the resolved schema for typeKey.
func (t *SchemaTable) Get(typeKey string) (*property.Schema, bool) {
	s, ok := t.schemas[typeKey]
	return s, ok
}

// Delete removes the schema for typeKey and reports whether one existed.
func (t *SchemaTable) Delete(typeKey string) bool {
	if _, ok := t.schemas[typeKey]; !ok {
		return false
	}
	delete(t.schemas, typeKey)
	return true
}

// Keys returns the type keys that have schemas, sorted.
func (t *SchemaTable) Keys() []string {
	keys := make([]string, 0, len(t.schemas))
	for k := range t.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
