// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package property

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Operator compares a property value with a condition value.
type Operator string

// Condition operators.
const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not_equals"
	OpGreater   Operator = "greater"
	OpLess      Operator = "less"
	OpIn        Operator = "in"
	OpContains  Operator = "contains"
)

// Action is what a matching condition does to its group.
type Action string

// Condition actions.
const (
	ActionShow    Action = "show"
	ActionHide    Action = "hide"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// Condition gates a group on another property's value.
type Condition struct {
	Property string
	Operator Operator
	Value    any
	Action   Action
}

// Matches evaluates the comparison against values.
// A missing property never matches, except under not_equals.
func (c Condition) Matches(values map[string]any) bool {
	actual, ok := values[c.Property]
	if !ok {
		return c.Operator == OpNotEquals
	}

	switch c.Operator {
	case OpEquals:
		return valuesEqual(actual, c.Value)
	case OpNotEquals:
		return !valuesEqual(actual, c.Value)
	case OpGreater, OpLess:
		a, okA := geom.ToFloat(actual)
		b, okB := geom.ToFloat(c.Value)
		if !okA || !okB {
			return false
		}
		if c.Operator == OpGreater {
			return a > b
		}
		return a < b
	case OpIn:
		return sliceContains(c.Value, actual)
	case OpContains:
		if s, ok := actual.(string); ok {
			sub, ok := c.Value.(string)
			return ok && strings.Contains(s, sub)
		}
		return sliceContains(actual, c.Value)
	}
	return false
}

// Evaluate returns the visibility and enablement a condition produces.
func (c Condition) Evaluate(values map[string]any) (visible, enabled bool) {
	matched := c.Matches(values)
	visible, enabled = true, true
	switch c.Action {
	case ActionShow:
		visible = matched
	case ActionHide:
		visible = !matched
	case ActionEnable:
		enabled = matched
	case ActionDisable:
		enabled = !matched
	}
	return visible, enabled
}

func sliceContains(list, value any) bool {
	rv := reflect.ValueOf(list)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < rv.Len(); i++ {
		if valuesEqual(rv.Index(i).Interface(), value) {
			return true
		}
	}
	return false
}

// conditionLexer tokenizes condition expressions such as
// `show when material == "metal"`.
var conditionLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "OpEq", Pattern: `==`},
	{Name: "OpNe", Pattern: `!=`},
	{Name: "OpCmp", Pattern: `[<>]`},
	{Name: "Ident", Pattern: `[a-zA-Z_][\w.]*`},
	{Name: "Punct", Pattern: `[\[\],]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// conditionExpr is the grammar root:
// action "when" property operator value
type conditionExpr struct {
	Action   string     `parser:"@('show' | 'hide' | 'enable' | 'disable')"`
	Property string     `parser:"'when' @Ident"`
	Operator string     `parser:"@('==' | '!=' | '>' | '<' | 'in' | 'contains')"`
	Value    *valueExpr `parser:"@@"`
}

type valueExpr struct {
	String *string    `parser:"  @String"`
	Number *float64   `parser:"| @Number"`
	Bool   *string    `parser:"| @('true' | 'false')"`
	List   *listValue `parser:"| @@"`
}

type listValue struct {
	Items []*valueExpr `parser:"'[' ( @@ ( ',' @@ )* )? ']'"`
}

var conditionParser = participle.MustBuild[conditionExpr](
	participle.Lexer(conditionLexer),
	participle.Unquote("String"),
)

var operatorTokens = map[string]Operator{
	"==":       OpEquals,
	"!=":       OpNotEquals,
	">":        OpGreater,
	"<":        OpLess,
	"in":       OpIn,
	"contains": OpContains,
}

// ParseCondition parses an expression of the form
// `<show|hide|enable|disable> when <property> <op> <value>`, where op is one of
// ==, !=, >, <, in, contains and value is a string, number, boolean, or list.
func ParseCondition(expr string) (Condition, error) {
	parsed, err := conditionParser.ParseString("", expr)
	if err != nil {
		return Condition{}, oops.Code("INVALID_CONDITION").With("expression", expr).Wrapf(err, "parsing condition")
	}

	op, ok := operatorTokens[parsed.Operator]
	if !ok {
		return Condition{}, oops.Code("INVALID_CONDITION").With("expression", expr).Errorf("unknown operator %q", parsed.Operator)
	}

	return Condition{
		Property: parsed.Property,
		Operator: op,
		Value:    parsed.Value.value(),
		Action:   Action(parsed.Action),
	}, nil
}

// MustParseCondition is ParseCondition for static schema declarations.
func MustParseCondition(expr string) Condition {
	c, err := ParseCondition(expr)
	if err != nil {
		panic(fmt.Sprintf("invalid condition %q: %v", expr, err))
	}
	return c
}

func (v *valueExpr) value() any {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return *v.Number
	case v.Bool != nil:
		return *v.Bool == "true"
	case v.List != nil:
		items := make([]any, 0, len(v.List.Items))
		for _, item := range v.List.Items {
			items = append(items, item.value())
		}
		return items
	}
	return nil
}
