// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package lua

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/fluxstudio/fluxstudio/internal/plugin"
	"github.com/fluxstudio/fluxstudio/internal/plugin/capability"
	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
)

var _ plugin.Host = (*Host)(nil)

// ModuleName is the global table host functions are exposed under.
const ModuleName = "fluxstudio"

// DefaultCallTimeout bounds each call into plugin code.
const DefaultCallTimeout = 5 * time.Second

// state is one loaded plugin. Lua states are not goroutine safe, so every
// call into L holds mu.
type state struct {
	mu     sync.Mutex
	L      *lua.LState
	bundle *plugin.Plugin
}

// Host loads Lua plugins. A plugin's entry file runs once at load time and
// declares its bundle through the fluxstudio module; an optional global
// initialize() runs when the manager initializes the plugin.
type Host struct {
	factory  *StateFactory
	enforcer *capability.Enforcer
	logger   *slog.Logger
	timeout  time.Duration

	mu     sync.Mutex
	states map[string]*state
	closed bool
}

// Option configures a Host.
type Option func(*Host)

// WithEnforcer sets the capability enforcer. Manifest capabilities are
// granted on it at load time.
func WithEnforcer(e *capability.Enforcer) Option {
	return func(h *Host) { h.enforcer = e }
}

// WithStateFactory replaces the default sandbox factory.
func WithStateFactory(f *StateFactory) Option {
	return func(h *Host) { h.factory = f }
}

// WithCallTimeout bounds each call into plugin code.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Host) { h.timeout = d }
}

// WithLogger sets the logger used by the host and by plugins' log calls.
func WithLogger(l *slog.Logger) Option {
	return func(h *Host) { h.logger = l }
}

// NewHost creates a Lua plugin host.
func NewHost(opts ...Option) *Host {
	h := &Host{
		factory:  NewStateFactory(),
		enforcer: capability.NewEnforcer(),
		logger:   slog.Default(),
		timeout:  DefaultCallTimeout,
		states:   make(map[string]*state),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Enforcer returns the capability enforcer.
func (h *Host) Enforcer() *capability.Enforcer { return h.enforcer }

// Load runs the plugin's entry file and returns the bundle it declared.
// Loading a name that is already loaded replaces the previous state.
func (h *Host) Load(ctx context.Context, m *plugin.Manifest, dir string) (*plugin.Plugin, error) {
	errb := oops.In("lua").With("plugin", m.Name).With("operation", "load")

	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, errb.New("host is closed")
	}
	if m.LuaPlugin == nil || m.LuaPlugin.Entry == "" {
		return nil, errb.New("manifest has no lua entry")
	}

	entry := filepath.Join(dir, m.LuaPlugin.Entry)
	code, err := os.ReadFile(filepath.Clean(entry))
	if err != nil {
		return nil, errb.With("path", entry).Hint("failed to read entry file").Wrap(err)
	}

	if err := h.enforcer.SetGrants(m.Name, m.Capabilities); err != nil {
		return nil, errb.Wrap(err)
	}

	L, err := h.factory.NewState(ctx)
	if err != nil {
		h.enforcer.RemoveGrants(m.Name)
		return nil, errb.Wrap(err)
	}

	st := &state{L: L, bundle: &plugin.Plugin{Name: m.Name, Version: m.Version}}
	h.register(st, m.Name)

	err = h.call(ctx, st, func() error { return L.DoString(string(code)) })
	if err != nil {
		L.Close()
		h.enforcer.RemoveGrants(m.Name)
		return nil, errb.With("entry", m.LuaPlugin.Entry).Wrap(err)
	}

	st.bundle.Initialize = func(ctx context.Context) error {
		return h.initialize(ctx, st, m.Name)
	}

	h.mu.Lock()
	if prev, ok := h.states[m.Name]; ok {
		prev.close()
	}
	h.states[m.Name] = st
	h.mu.Unlock()

	h.logger.Debug("lua plugin loaded",
		"plugin", m.Name,
		"objects", len(st.bundle.Objects),
		"categories", len(st.bundle.Categories))
	return st.bundle, nil
}

func (h *Host) initialize(ctx context.Context, st *state, name string) error {
	return h.call(ctx, st, func() error {
		fn := st.L.GetGlobal("initialize")
		if fn.Type() == lua.LTNil {
			return nil
		}
		if err := st.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}); err != nil {
			return oops.In("lua").With("plugin", name).With("operation", "initialize").Wrap(err)
		}
		return nil
	})
}

// call runs fn with st locked and the call timeout applied to the state.
func (h *Host) call(ctx context.Context, st *state, fn func() error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.L == nil {
		return oops.In("lua").New("plugin state is closed")
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	st.L.SetContext(ctx)
	defer st.L.RemoveContext()
	return fn()
}

// Unload closes the plugin's state and revokes its grants.
func (h *Host) Unload(_ context.Context, name string) error {
	h.mu.Lock()
	st, ok := h.states[name]
	delete(h.states, name)
	h.mu.Unlock()

	if !ok {
		return oops.In("lua").With("plugin", name).With("operation", "unload").New("plugin not loaded")
	}
	st.close()
	h.enforcer.RemoveGrants(name)
	return nil
}

// Plugins returns the sorted names of loaded plugins.
func (h *Host) Plugins() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.states))
	for name := range h.states {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close unloads every plugin. Later loads fail.
func (h *Host) Close(_ context.Context) error {
	h.mu.Lock()
	states := h.states
	h.states = make(map[string]*state)
	h.closed = true
	h.mu.Unlock()

	for name, st := range states {
		st.close()
		h.enforcer.RemoveGrants(name)
	}
	return nil
}

func (s *state) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.L != nil {
		s.L.Close()
		s.L = nil
	}
}

// register installs the fluxstudio module into st.
func (h *Host) register(st *state, name string) {
	L := st.L
	mod := L.NewTable()
	L.SetField(mod, "version", lua.LString(plugin.CoreVersion))
	L.SetField(mod, "log", L.NewFunction(h.logFn(name)))
	L.SetField(mod, "register_object",
		L.NewFunction(h.guard(name, capability.RegisterObject, registerObjectFn(st))))
	L.SetField(mod, "register_category",
		L.NewFunction(h.guard(name, capability.RegisterCategory, registerCategoryFn(st))))
	L.SetField(mod, "register_schema",
		L.NewFunction(h.guard(name, capability.RegisterSchema, registerSchemaFn(st))))
	L.SetGlobal(ModuleName, mod)
}

func (h *Host) guard(plugin, capName string, fn lua.LGFunction) lua.LGFunction {
	return func(L *lua.LState) int {
		if !h.enforcer.Check(plugin, capName) {
			L.RaiseError("capability denied: %s requires %s", plugin, capName)
			return 0
		}
		return fn(L)
	}
}

func (h *Host) logFn(name string) lua.LGFunction {
	return func(L *lua.LState) int {
		level := L.CheckString(1)
		message := L.CheckString(2)

		logger := h.logger.With("plugin", name)
		switch level {
		case "debug":
			logger.Debug(message)
		case "warn":
			logger.Warn(message)
		case "error":
			logger.Error(message)
		default:
			logger.Info(message)
		}
		return 0
	}
}

// register_object{ type = "...", physics = {...}, ... } declares an object
// type using the same fields as a static manifest entry.
func registerObjectFn(st *state) lua.LGFunction {
	return func(L *lua.LState) int {
		var spec plugin.ObjectSpec
		if err := decodeTable(L.CheckTable(1), &spec); err != nil {
			L.RaiseError("register_object: %s", err.Error())
			return 0
		}
		if spec.Type == "" {
			L.RaiseError("register_object: type is required")
			return 0
		}
		def, err := spec.Definition()
		if err != nil {
			L.RaiseError("register_object: %s", err.Error())
			return 0
		}
		st.bundle.Objects = append(st.bundle.Objects, def)

		if spec.Schema != nil {
			schema, err := spec.Schema.Build(spec.Type)
			if err != nil {
				L.RaiseError("register_object: %s", err.Error())
				return 0
			}
			addSchema(st.bundle, spec.Type, schema)
		}
		L.Push(lua.LString(def.Metadata.Type))
		return 1
	}
}

func registerCategoryFn(st *state) lua.LGFunction {
	return func(L *lua.LState) int {
		var spec plugin.CategorySpec
		if err := decodeTable(L.CheckTable(1), &spec); err != nil {
			L.RaiseError("register_category: %s", err.Error())
			return 0
		}
		if spec.ID == "" {
			L.RaiseError("register_category: id is required")
			return 0
		}
		if spec.Name == "" {
			spec.Name = spec.ID
		}
		st.bundle.Categories = append(st.bundle.Categories, registry.Category(spec))
		return 0
	}
}

// register_schema("type.key", { properties = {...} })
func registerSchemaFn(st *state) lua.LGFunction {
	return func(L *lua.LState) int {
		key := L.CheckString(1)
		var spec plugin.SchemaSpec
		if err := decodeTable(L.CheckTable(2), &spec); err != nil {
			L.RaiseError("register_schema: %s", err.Error())
			return 0
		}
		schema, err := spec.Build(key)
		if err != nil {
			L.RaiseError("register_schema: %s", err.Error())
			return 0
		}
		addSchema(st.bundle, key, schema)
		return 0
	}
}

func addSchema(p *plugin.Plugin, key string, s *property.Schema) {
	if p.Schemas == nil {
		p.Schemas = make(map[string]*property.Schema)
	}
	p.Schemas[key] = s
}
