// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package lua

import (
	"math"
	"sort"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"gopkg.in/yaml.v3"
)

// maxDepth stops conversion of self-referencing tables.
const maxDepth = 32

// toGo converts a Lua value to plain Go data. Tables whose keys are exactly
// 1..n become []any, other tables become map[string]any. Whole numbers
// become int so they survive YAML decoding into integer fields.
func toGo(v lua.LValue, depth int) (any, error) {
	if depth > maxDepth {
		return nil, oops.Code("LUA_CONVERT").Errorf("table nesting deeper than %d", maxDepth)
	}
	switch v := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LString:
		return string(v), nil
	case lua.LNumber:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int(f), nil
		}
		return f, nil
	case *lua.LTable:
		return tableToGo(v, depth)
	default:
		return nil, oops.Code("LUA_CONVERT").Errorf("cannot convert %s", v.Type())
	}
}

func tableToGo(t *lua.LTable, depth int) (any, error) {
	n := t.MaxN()
	count := 0
	t.ForEach(func(_, _ lua.LValue) { count++ })

	if n > 0 && n == count {
		out := make([]any, n)
		for i := 1; i <= n; i++ {
			v, err := toGo(t.RawGetInt(i), depth+1)
			if err != nil {
				return nil, err
			}
			out[i-1] = v
		}
		return out, nil
	}

	out := make(map[string]any, count)
	var err error
	t.ForEach(func(k, v lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = oops.Code("LUA_CONVERT").Errorf("table key %s is not a string", k.String())
			return
		}
		var gv any
		gv, err = toGo(v, depth+1)
		out[string(key)] = gv
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// toLua converts plain Go data to a Lua value. Map keys are visited in
// sorted order so the resulting table is built deterministically.
func toLua(L *lua.LState, v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case string:
		return lua.LString(v)
	case int:
		return lua.LNumber(v)
	case int64:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case []any:
		t := L.NewTable()
		for _, item := range v {
			t.Append(toLua(L, item))
		}
		return t
	case []string:
		t := L.NewTable()
		for _, item := range v {
			t.Append(lua.LString(item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			t.RawSetString(k, toLua(L, v[k]))
		}
		return t
	default:
		return lua.LNil
	}
}

// decodeTable decodes a Lua table into out through its YAML tags.
func decodeTable(t *lua.LTable, out any) error {
	v, err := toGo(t, 0)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return oops.Code("LUA_CONVERT").Wrap(err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return oops.Code("LUA_CONVERT").Wrap(err)
	}
	return nil
}
