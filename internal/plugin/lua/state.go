// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package lua runs plugin.yaml plugins of type lua in a sandboxed
// gopher-lua state.
package lua

import (
	"context"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

type library struct {
	name string
	fn   lua.LGFunction
}

// Only base, table, string and math are opened. os, io, debug and package
// stay unavailable.
func safeLibraries() []library {
	return []library{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// Base functions that reach the filesystem or compile arbitrary chunks.
var blockedGlobals = []string{"dofile", "loadfile", "loadstring", "load", "require"}

// StateFactory creates sandboxed Lua states.
type StateFactory struct {
	libraries []library
	callStack int
	registry  int
}

// StateOption configures a StateFactory.
type StateOption func(*StateFactory)

// WithCallStackSize bounds Lua recursion depth.
func WithCallStackSize(n int) StateOption {
	return func(f *StateFactory) { f.callStack = n }
}

// WithRegistrySize bounds the Lua value stack.
func WithRegistrySize(n int) StateOption {
	return func(f *StateFactory) { f.registry = n }
}

// NewStateFactory creates a state factory.
func NewStateFactory(opts ...StateOption) *StateFactory {
	f := &StateFactory{
		libraries: safeLibraries(),
		callStack: 256,
		registry:  1024 * 16,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewState creates a fresh state with only the safe libraries loaded.
// ctx bounds library initialization only; callers set their own context
// around each call into the state.
func (f *StateFactory) NewState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:    true,
		CallStackSize:   f.callStack,
		RegistrySize:    f.registry,
		RegistryMaxSize: f.registry * 4,
	})
	L.SetContext(ctx)
	defer L.RemoveContext()

	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.Code("LUA_STATE_FAILED").With("library", lib.name).Wrap(err)
		}
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L, nil
}
