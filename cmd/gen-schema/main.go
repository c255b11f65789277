// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Command gen-schema writes the plugin manifest and object document JSON
// Schemas under schemas/.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluxstudio/fluxstudio/internal/object"
	"github.com/fluxstudio/fluxstudio/internal/plugin"
)

var outputs = []struct {
	file     string
	generate func() ([]byte, error)
}{
	{"plugin.schema.json", plugin.GenerateSchema},
	{"object.schema.json", object.GenerateDocumentSchema},
}

func main() {
	dir := flag.String("dir", "schemas", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*dir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}
	for _, o := range outputs {
		data, err := o.generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s: %v\n", o.file, err)
			os.Exit(1)
		}
		path := filepath.Join(*dir, o.file)
		if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", path)
	}
}
