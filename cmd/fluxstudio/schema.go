// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fluxstudio/fluxstudio/internal/object"
	"github.com/fluxstudio/fluxstudio/internal/plugin"
)

// schemaGenerators maps schema names to their generators.
var schemaGenerators = map[string]func() ([]byte, error){
	"manifest": plugin.GenerateSchema,
	"document": object.GenerateDocumentSchema,
}

func newSchemaCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:       "schema manifest|document",
		Short:     "Print the JSON Schema for plugin manifests or object documents",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"manifest", "document"},
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := schemaGenerators[args[0]]()
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
				return oops.With("path", outPath).Wrapf(err, "create schema directory")
			}
			if err := os.WriteFile(outPath, append(data, '\n'), 0o600); err != nil {
				return oops.With("path", outPath).Wrapf(err, "write schema")
			}
			cmd.Printf("wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to a file instead of stdout")
	return cmd
}
