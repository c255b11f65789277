// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_PrintsValidJSON(t *testing.T) {
	for _, name := range []string{"manifest", "document"} {
		t.Run(name, func(t *testing.T) {
			out, err := execute(t, nil, "schema", name)
			require.NoError(t, err)
			assert.True(t, json.Valid([]byte(out)), "schema %s is not JSON", name)
		})
	}
}

func TestSchema_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plugin.schema.json")
	_, err := execute(t, nil, "schema", "manifest", "--out", path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestSchema_RejectsUnknownName(t *testing.T) {
	_, err := execute(t, nil, "schema", "everything")
	assert.Error(t, err)
}
