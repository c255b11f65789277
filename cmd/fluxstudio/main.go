// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Command fluxstudio runs and inspects FluxStudio worlds.
package main

import (
	"fmt"
	"os"
)

// Set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
