// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package plugin

import (
	"context"
	"time"

	"github.com/fluxstudio/fluxstudio/internal/property"
	"github.com/fluxstudio/fluxstudio/internal/registry"
)

// Plugin is a bundle of object types, categories, and property schemas.
// Initialize, when set, runs before anything is registered and may still
// add to the bundle.
type Plugin struct {
	Name       string
	Version    string
	Initialize func(ctx context.Context) error
	Objects    []registry.TypeDefinition
	Categories []registry.Category
	// Schemas maps type keys to their property schemas.
	Schemas map[string]*property.Schema
}

// Record is the load state of one plugin.
type Record struct {
	Plugin   *Plugin
	Loaded   bool
	Err      error
	LoadedAt time.Time
	// Source is the plugin directory for plugins loaded from disk.
	Source string
}

// Name returns the plugin name.
func (r *Record) Name() string { return r.Plugin.Name }
