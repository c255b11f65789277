// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package registry

// PropertyPatch is a partial property change reported by a visual.
type PropertyPatch map[string]any

// Visual is whatever a binding produces for the presentation layer.
// The core stores and forwards it without inspecting it.
type Visual any

// RenderContext is handed to a binding when it builds or updates a visual.
type RenderContext struct {
	Instance Instance
	Selected bool
	Preview  bool
	// OnUpdate reports edits made through the visual back to the instance.
	OnUpdate func(PropertyPatch)
}

// Binding builds and updates the visual representation of one object type.
type Binding interface {
	BuildVisual(ctx RenderContext) (Visual, error)
	UpdateVisual(ctx RenderContext, v Visual) error
}

// BindingTable maps type keys to render bindings.
type BindingTable struct {
	bindings map[string]Binding
}

// NewBindingTable creates an empty binding table.
func NewBindingTable() *BindingTable {
	return &BindingTable{bindings: make(map[string]Binding)}
}

// Bind associates b with typeKey, replacing any previous binding.
func (t *BindingTable) Bind(typeKey string, b Binding) {
	t.bindings[typeKey] = b
}

// Unbind removes the binding for typeKey and reports whether one existed.
func (t *BindingTable) Unbind(typeKey string) bool {
	if _, ok := t.bindings[typeKey]; !ok {
		return false
	}
	delete(t.bindings, typeKey)
	return true
}

// Lookup returns the binding for typeKey.
func (t *BindingTable) Lookup(typeKey string) (Binding, bool) {
	b, ok := t.bindings[typeKey]
	return b, ok
}
