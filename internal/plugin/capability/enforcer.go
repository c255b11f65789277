// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package capability decides which host functions a plugin may call.
//
// Grants are gobwas/glob patterns with '.' as the segment separator:
//   - '*' matches one segment: "register.*" matches "register.object"
//   - '**' matches any number of segments: "**" matches everything
package capability

import (
	"errors"
	"sync"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Capabilities checked by the plugin host functions.
const (
	RegisterObject   = "register.object"
	RegisterCategory = "register.category"
	RegisterSchema   = "register.schema"
)

// ErrDenied is wrapped by Require when a plugin lacks a capability.
var ErrDenied = errors.New("capability denied")

type grant struct {
	pattern string
	glob    glob.Glob
}

// Enforcer maps plugin names to their granted patterns. It is safe for
// concurrent use.
type Enforcer struct {
	mu     sync.RWMutex
	grants map[string][]grant
}

// NewEnforcer creates an enforcer with no grants.
func NewEnforcer() *Enforcer {
	return &Enforcer{grants: make(map[string][]grant)}
}

// SetGrants replaces the grants of plugin. Every pattern is compiled before
// anything changes, so an invalid pattern leaves the previous grants intact.
func (e *Enforcer) SetGrants(plugin string, patterns []string) error {
	if plugin == "" {
		return oops.Code("INVALID_GRANT").Errorf("plugin name cannot be empty")
	}
	compiled := make([]grant, 0, len(patterns))
	for i, p := range patterns {
		if p == "" {
			return oops.Code("INVALID_GRANT").With("plugin", plugin).With("index", i).Errorf("empty capability pattern")
		}
		g, err := glob.Compile(p, '.')
		if err != nil {
			return oops.Code("INVALID_GRANT").With("plugin", plugin).With("pattern", p).Wrap(err)
		}
		compiled = append(compiled, grant{pattern: p, glob: g})
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.grants[plugin] = compiled
	return nil
}

// RemoveGrants forgets plugin.
func (e *Enforcer) RemoveGrants(plugin string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.grants, plugin)
}

// Grants returns a copy of the patterns granted to plugin.
func (e *Enforcer) Grants(plugin string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	gs, ok := e.grants[plugin]
	if !ok {
		return nil
	}
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.pattern
	}
	return out
}

// Check reports whether plugin holds capability. Unknown plugins and empty
// capabilities are denied.
func (e *Enforcer) Check(plugin, capability string) bool {
	if capability == "" {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, g := range e.grants[plugin] {
		if g.glob.Match(capability) {
			return true
		}
	}
	return false
}

// Require is Check as an error.
func (e *Enforcer) Require(plugin, capability string) error {
	if e.Check(plugin, capability) {
		return nil
	}
	return oops.Code("CAPABILITY_DENIED").
		With("plugin", plugin).
		With("capability", capability).
		Wrap(ErrDenied)
}
