// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

func TestWorldObject_InstanceView(t *testing.T) {
	obj := &WorldObject{
		ID:         "obj-1",
		Metadata:   registry.Metadata{Type: "deco.sign"},
		Properties: DefaultProperties(),
		State:      map[string]any{"label": map[string]any{"text": "hello"}},
	}
	obj.Properties.Position = geom.Vec3(1, 2, 3)

	var view registry.Instance = obj
	assert.Equal(t, "obj-1", view.ObjectID())
	assert.Equal(t, "deco.sign", view.Type())
	assert.Equal(t, geom.Vec3(1, 2, 3), view.Transform().Position)

	v, ok := view.StateValue("label")
	require.True(t, ok)
	v.(map[string]any)["text"] = "changed"
	assert.Equal(t, "hello", obj.State["label"].(map[string]any)["text"])

	_, ok = view.StateValue("missing")
	assert.False(t, ok)
}
