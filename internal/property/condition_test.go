// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		expr string
		want Condition
	}{
		{`show when material == "metal"`, Condition{Property: "material", Operator: OpEquals, Value: "metal", Action: ActionShow}},
		{`hide when physics.enabled == false`, Condition{Property: "physics.enabled", Operator: OpEquals, Value: false, Action: ActionHide}},
		{`enable when intensity > 0.5`, Condition{Property: "intensity", Operator: OpGreater, Value: 0.5, Action: ActionEnable}},
		{`disable when count < -2`, Condition{Property: "count", Operator: OpLess, Value: -2.0, Action: ActionDisable}},
		{`show when kind != "none"`, Condition{Property: "kind", Operator: OpNotEquals, Value: "none", Action: ActionShow}},
		{`show when shape in ["box", "sphere"]`, Condition{Property: "shape", Operator: OpIn, Value: []any{"box", "sphere"}, Action: ActionShow}},
		{`show when tags contains "glass"`, Condition{Property: "tags", Operator: OpContains, Value: "glass", Action: ActionShow}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseCondition(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCondition_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"show material == 1",
		`flash when a == 1`,
		`show when a ~ 1`,
		`show when a ==`,
	} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseCondition(expr)
			require.Error(t, err)
			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, "INVALID_CONDITION", oopsErr.Code())
		})
	}
}

func TestMustParseCondition_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParseCondition("nonsense") })
}

func TestCondition_Matches(t *testing.T) {
	values := map[string]any{
		"material": "metal",
		"count":    3,
		"tags":     []any{"glass", "red"},
		"label":    "glass door",
	}

	assert.True(t, MustParseCondition(`show when material == "metal"`).Matches(values))
	assert.False(t, MustParseCondition(`show when material == "wood"`).Matches(values))
	assert.True(t, MustParseCondition(`show when count == 3`).Matches(values))
	assert.True(t, MustParseCondition(`show when count > 2`).Matches(values))
	assert.False(t, MustParseCondition(`show when count < 2`).Matches(values))
	assert.True(t, MustParseCondition(`show when material in ["metal", "stone"]`).Matches(values))
	assert.True(t, MustParseCondition(`show when tags contains "red"`).Matches(values))
	assert.True(t, MustParseCondition(`show when label contains "door"`).Matches(values))
	assert.False(t, MustParseCondition(`show when missing == 1`).Matches(values))
	assert.True(t, MustParseCondition(`show when missing != 1`).Matches(values))
	assert.False(t, MustParseCondition(`show when material > 1`).Matches(values))
}

func TestCondition_Evaluate(t *testing.T) {
	values := map[string]any{"on": true}

	tests := []struct {
		expr          string
		visible, enab bool
	}{
		{`show when on == true`, true, true},
		{`show when on == false`, false, true},
		{`hide when on == true`, false, true},
		{`enable when on == false`, true, false},
		{`disable when on == true`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			visible, enabled := MustParseCondition(tt.expr).Evaluate(values)
			assert.Equal(t, tt.visible, visible)
			assert.Equal(t, tt.enab, enabled)
		})
	}
}

func TestGroup_State(t *testing.T) {
	g := Group{Name: "light"}
	visible, enabled := g.State(nil)
	assert.True(t, visible)
	assert.True(t, enabled)

	c := MustParseCondition(`show when kind == "lamp"`)
	g.Condition = &c
	visible, _ = g.State(map[string]any{"kind": "chair"})
	assert.False(t, visible)
}
