// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package plugin

import "context"

// Host runs plugins of one runtime type and turns them into bundles.
type Host interface {
	// Load runs the plugin in dir and returns the bundle it declares.
	Load(ctx context.Context, manifest *Manifest, dir string) (*Plugin, error)

	// Unload releases whatever the host keeps for the plugin.
	Unload(ctx context.Context, name string) error

	// Close shuts down the host and all plugins.
	Close(ctx context.Context) error
}
