// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package plugin

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/samber/oops"

	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
)

// ManifestFile is the manifest name inside a plugin directory.
const ManifestFile = "plugin.yaml"

// ErrNoSource is returned by Reload for plugins not loaded from disk.
var ErrNoSource = errors.New("plugin has no source directory")

// Manager loads plugin bundles into a registry and tracks their records.
// It is not safe for concurrent use; LoadPlugin calls must be serialized.
type Manager struct {
	registry   *registry.Registry
	schemas    *registry.SchemaTable
	pluginsDir string
	luaHost    Host
	logger     *slog.Logger
	records    map[string]*Record
	order      []string
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLuaHost sets the Lua host for the manager.
func WithLuaHost(h Host) ManagerOption {
	return func(m *Manager) {
		m.luaHost = h
	}
}

// WithSchemas sets the table plugin schemas are registered in.
func WithSchemas(t *registry.SchemaTable) ManagerOption {
	return func(m *Manager) {
		m.schemas = t
	}
}

// WithPluginsDir sets the directory Discover and LoadAll scan.
func WithPluginsDir(dir string) ManagerOption {
	return func(m *Manager) {
		m.pluginsDir = dir
	}
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = l
	}
}

// NewManager creates a plugin manager that registers into reg.
func NewManager(reg *registry.Registry, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: reg,
		logger:   slog.Default(),
		records:  make(map[string]*Record),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadPlugin initializes p and registers its categories, types, and schemas.
// Loading a name that is already loaded is a no-op. On failure, including a
// panic, everything this call touched in the registry and schema table is
// restored to its prior state. The record keeps the error, which is returned.
func (m *Manager) LoadPlugin(ctx context.Context, p *Plugin) error {
	return m.load(ctx, p, "")
}

func (m *Manager) load(ctx context.Context, p *Plugin, source string) error {
	if p == nil || p.Name == "" {
		return oops.Code("INVALID_PLUGIN").Errorf("plugin name is required")
	}
	if rec, ok := m.records[p.Name]; ok && rec.Loaded {
		m.logger.Warn("plugin already loaded", "plugin", p.Name, "version", rec.Plugin.Version)
		pluginLoads.WithLabelValues(resultSkipped).Inc()
		return nil
	}

	rec := &Record{Plugin: p, Source: source}
	if _, ok := m.records[p.Name]; !ok {
		m.order = append(m.order, p.Name)
	}
	m.records[p.Name] = rec

	if err := m.register(ctx, p); err != nil {
		rec.Err = err
		pluginLoads.WithLabelValues(resultFailed).Inc()
		m.logger.Error("failed to load plugin", "plugin", p.Name, "version", p.Version, "error", err)
		return err
	}

	rec.Loaded = true
	rec.LoadedAt = time.Now()
	pluginLoads.WithLabelValues(resultLoaded).Inc()
	m.logger.Info("loaded plugin",
		"plugin", p.Name,
		"version", p.Version,
		"objects", len(p.Objects))
	return nil
}

// register runs the bundle against the tables. Everything it changes is
// restored when it fails.
func (m *Manager) register(ctx context.Context, p *Plugin) (err error) {
	var (
		added       []string
		replaced    = map[string]*registry.TypeDefinition{}
		schemas     []string
		prevSchemas = map[string]*property.Schema{}
		categories  []string
		prevCats    = map[string]registry.Category{}
	)
	defer func() {
		if r := recover(); r != nil {
			err = oops.Code("PLUGIN_PANIC").With("plugin", p.Name).Errorf("plugin panicked: %v", r)
		}
		if err == nil {
			return
		}
		for _, key := range schemas {
			if prev, ok := prevSchemas[key]; ok {
				_ = m.schemas.Set(key, prev)
				continue
			}
			m.schemas.Delete(key)
		}
		for _, key := range added {
			if prev := replaced[key]; prev != nil {
				_ = m.registry.Register(*prev)
				continue
			}
			m.registry.Unregister(key)
		}
		for _, id := range categories {
			if prev, ok := prevCats[id]; ok {
				m.registry.AddCategory(prev)
				continue
			}
			m.registry.RemoveCategory(id)
		}
	}()

	if p.Initialize != nil {
		if err := p.Initialize(ctx); err != nil {
			return oops.Code("PLUGIN_INIT_FAILED").With("plugin", p.Name).Wrap(err)
		}
	}

	for _, c := range p.Categories {
		if !slices.Contains(categories, c.ID) {
			if prev, ok := m.registry.Category(c.ID); ok {
				prevCats[c.ID] = prev
			}
			categories = append(categories, c.ID)
		}
		m.registry.AddCategory(c)
	}
	for _, def := range p.Objects {
		key := def.Key()
		if _, seen := replaced[key]; !seen {
			// The first sighting holds the definition from before this load.
			prev, _ := m.registry.Get(key)
			replaced[key] = prev
			added = append(added, key)
		}
		if err := m.registry.Register(def); err != nil {
			return oops.With("plugin", p.Name).Wrap(err)
		}
	}
	if len(p.Schemas) > 0 && m.schemas == nil {
		return oops.Code("PLUGIN_SCHEMAS_UNSUPPORTED").With("plugin", p.Name).Errorf("no schema table configured")
	}
	for _, key := range sortedKeys(p.Schemas) {
		if prev, ok := m.schemas.Get(key); ok {
			prevSchemas[key] = prev
		}
		schemas = append(schemas, key)
		if err := m.schemas.Set(key, p.Schemas[key]); err != nil {
			return oops.With("plugin", p.Name).Wrap(err)
		}
	}
	return nil
}

// UnloadPlugin unregisters every type and schema the plugin declared and
// forgets it.
func (m *Manager) UnloadPlugin(name string) bool {
	rec, ok := m.records[name]
	if !ok {
		return false
	}
	if rec.Loaded {
		for _, def := range rec.Plugin.Objects {
			m.registry.Unregister(def.Key())
			if m.schemas != nil {
				m.schemas.Delete(def.Key())
			}
		}
		if m.schemas != nil {
			for key := range rec.Plugin.Schemas {
				m.schemas.Delete(key)
			}
		}
	}
	if rec.Source != "" && m.luaHost != nil {
		if err := m.luaHost.Unload(context.Background(), name); err != nil {
			m.logger.Debug("host unload", "plugin", name, "error", err)
		}
	}
	delete(m.records, name)
	m.order = slices.DeleteFunc(m.order, func(n string) bool { return n == name })
	m.logger.Info("unloaded plugin", "plugin", name)
	return true
}

// Plugin returns the record for name.
func (m *Manager) Plugin(name string) (*Record, bool) {
	rec, ok := m.records[name]
	return rec, ok
}

// Plugins returns every record, loaded or failed, in first-load order.
func (m *Manager) Plugins() []*Record {
	out := make([]*Record, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.records[name])
	}
	return out
}

// LoadedPlugins returns the records of loaded plugins.
func (m *Manager) LoadedPlugins() []*Record {
	var out []*Record
	for _, rec := range m.Plugins() {
		if rec.Loaded {
			out = append(out, rec)
		}
	}
	return out
}

// DiscoveredPlugin contains a manifest and its directory.
type DiscoveredPlugin struct {
	Manifest *Manifest
	Dir      string
}

// Discover finds all valid plugins in the plugins directory.
// Invalid plugins are logged and skipped.
func (m *Manager) Discover(_ context.Context) ([]*DiscoveredPlugin, error) {
	if m.pluginsDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(m.pluginsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, oops.With("dir", m.pluginsDir).Wrapf(err, "read plugins directory")
	}

	var plugins []*DiscoveredPlugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.pluginsDir, entry.Name())
		manifest, err := ReadManifest(dir)
		if err != nil {
			m.logger.Warn("skipping plugin with invalid manifest",
				"dir", entry.Name(),
				"error", err)
			continue
		}
		plugins = append(plugins, &DiscoveredPlugin{Manifest: manifest, Dir: filepath.Clean(dir)})
	}
	return plugins, nil
}

// ReadManifest reads, schema-checks, and parses dir/plugin.yaml.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, oops.Code("INVALID_MANIFEST").With("path", path).Wrapf(err, "read manifest")
	}
	if err := ValidateSchema(data); err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	manifest, err := ParseManifest(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return manifest, nil
}

// LoadAll discovers and loads every plugin in the plugins directory.
// Individual failures are logged and recorded; they do not stop the others.
func (m *Manager) LoadAll(ctx context.Context) error {
	discovered, err := m.Discover(ctx)
	if err != nil {
		return err
	}
	for _, dp := range discovered {
		if err := m.loadDiscovered(ctx, dp); err != nil {
			m.logger.Error("failed to load plugin",
				"plugin", dp.Manifest.Name,
				"error", err)
		}
	}
	return nil
}

// LoadDir loads the plugin in dir.
func (m *Manager) LoadDir(ctx context.Context, dir string) error {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return err
	}
	return m.loadDiscovered(ctx, &DiscoveredPlugin{Manifest: manifest, Dir: filepath.Clean(dir)})
}

// Reload unloads a plugin loaded from disk and loads its directory again.
func (m *Manager) Reload(ctx context.Context, name string) error {
	rec, ok := m.records[name]
	if !ok || rec.Source == "" {
		return oops.Code("PLUGIN_NOT_RELOADABLE").With("plugin", name).Wrap(ErrNoSource)
	}
	source := rec.Source
	m.UnloadPlugin(name)
	return m.LoadDir(ctx, source)
}

// ReloadDir unloads whatever was loaded from dir and loads it again. A
// directory without a manifest is only unloaded.
func (m *Manager) ReloadDir(ctx context.Context, dir string) error {
	dir = filepath.Clean(dir)
	for _, rec := range m.Plugins() {
		if rec.Source == dir {
			m.UnloadPlugin(rec.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return m.LoadDir(ctx, dir)
}

// PluginsDir returns the directory Discover scans.
func (m *Manager) PluginsDir() string { return m.pluginsDir }

func (m *Manager) loadDiscovered(ctx context.Context, dp *DiscoveredPlugin) error {
	var (
		p   *Plugin
		err error
	)
	if rec, ok := m.records[dp.Manifest.Name]; ok && rec.Loaded {
		m.logger.Warn("plugin already loaded", "plugin", dp.Manifest.Name, "dir", dp.Dir)
		pluginLoads.WithLabelValues(resultSkipped).Inc()
		return nil
	}
	switch dp.Manifest.Type {
	case TypeStatic:
		p, err = dp.Manifest.Bundle()
	case TypeLua:
		if m.luaHost == nil {
			m.logger.Warn("no Lua host configured, skipping Lua plugin",
				"plugin", dp.Manifest.Name)
			pluginLoads.WithLabelValues(resultSkipped).Inc()
			return nil
		}
		p, err = m.luaHost.Load(ctx, dp.Manifest, dp.Dir)
	default:
		err = oops.Code("INVALID_MANIFEST").With("plugin", dp.Manifest.Name).Errorf("unknown plugin type %q", dp.Manifest.Type)
	}
	if err != nil {
		return oops.With("plugin", dp.Manifest.Name).With("dir", dp.Dir).Wrap(err)
	}
	if err := m.load(ctx, p, dp.Dir); err != nil {
		if dp.Manifest.Type == TypeLua {
			_ = m.luaHost.Unload(ctx, dp.Manifest.Name)
		}
		return err
	}
	return nil
}

// Close forgets every record and shuts down the Lua host. Registered types
// stay in the registry.
func (m *Manager) Close(ctx context.Context) error {
	m.records = make(map[string]*Record)
	m.order = nil
	if m.luaHost != nil {
		if err := m.luaHost.Close(ctx); err != nil {
			return oops.Wrapf(err, "close lua host")
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
