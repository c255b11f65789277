// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fluxstudio/fluxstudio/internal/plugin"
	"github.com/fluxstudio/fluxstudio/internal/plugin/lua"
	"github.com/fluxstudio/fluxstudio/internal/registry"
)

func newPluginsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect and validate plugins",
	}
	cmd.AddCommand(newPluginsListCmd(a))
	cmd.AddCommand(newPluginsTypesCmd(a))
	cmd.AddCommand(newPluginsValidateCmd(a))
	return cmd
}

func newPluginsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Load the plugin directory and show each plugin's state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := a.newWorld(false)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close(context.Background()) }()

			if err := w.Plugins().LoadAll(cmd.Context()); err != nil {
				return err
			}
			return printPlugins(cmd.OutOrStdout(), w.Plugins().Plugins())
		},
	}
}

func printPlugins(out io.Writer, records []*plugin.Record) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVERSION\tSTATUS\tTYPES\tSOURCE")
	for _, rec := range records {
		status := "loaded"
		if !rec.Loaded {
			status = "failed"
			if rec.Err != nil {
				status = "failed: " + rec.Err.Error()
			}
		}
		source := rec.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			rec.Name(), rec.Plugin.Version, status, len(rec.Plugin.Objects), source)
	}
	if err := tw.Flush(); err != nil {
		return oops.Wrapf(err, "write plugin table")
	}
	return nil
}

func newPluginsTypesCmd(a *app) *cobra.Command {
	var (
		limit    int
		category string
	)
	cmd := &cobra.Command{
		Use:   "types [query]",
		Short: "List registered object types, optionally ranked by a search query",
		Long: `List the object types the plugins register. A query is matched
fuzzily against type keys, names, and tags; a query containing * or ? is
matched as a glob against type keys.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.newWorld(false)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close(context.Background()) }()

			if err := w.LoadPlugins(cmd.Context()); err != nil {
				return err
			}

			reg := w.Registry()
			var defs []*registry.TypeDefinition
			switch {
			case len(args) == 0 && category != "":
				defs = reg.ByCategory(category)
			case len(args) == 0:
				defs = reg.All()
			case strings.ContainsAny(args[0], "*?"):
				defs, err = reg.SearchGlob(args[0])
				if err != nil {
					return err
				}
			default:
				defs = reg.SearchRanked(args[0], limit)
			}
			return printTypes(cmd.OutOrStdout(), defs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum ranked results")
	cmd.Flags().StringVar(&category, "category", "", "only types in this category")
	return cmd
}

func printTypes(out io.Writer, defs []*registry.TypeDefinition) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tCATEGORY\tPHYSICS")
	for _, def := range defs {
		phys := "-"
		if p := def.Config.Interaction.Physics; p != nil && p.Enabled {
			phys = string(p.Kind)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", def.Metadata.Type, def.Metadata.Name, def.Metadata.Category, phys)
	}
	if err := tw.Flush(); err != nil {
		return oops.Wrapf(err, "write type table")
	}
	return nil
}

func newPluginsValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate DIR...",
		Short: "Check plugin manifests and run Lua entry scripts in a sandbox",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, dir := range args {
				name, err := validatePlugin(cmd.Context(), a, dir)
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL %s: %s\n", dir, plugin.FormatSchemaError(err))
					continue
				}
				fmt.Fprintf(out, "ok   %s (%s)\n", dir, name)
			}
			if failed > 0 {
				return oops.Code("PLUGIN_INVALID").With("failed", failed).Errorf("%d of %d plugins failed validation", failed, len(args))
			}
			return nil
		},
	}
}

// validatePlugin returns the plugin's name and version when dir holds a
// plugin that would load.
func validatePlugin(ctx context.Context, a *app, dir string) (string, error) {
	m, err := plugin.ReadManifest(dir)
	if err != nil {
		return "", err
	}

	var p *plugin.Plugin
	switch m.Type {
	case plugin.TypeLua:
		host := lua.NewHost(lua.WithCallTimeout(a.cfg.Plugins.CallTimeout), lua.WithLogger(a.logger))
		defer func() { _ = host.Close(ctx) }()
		p, err = host.Load(ctx, m, dir)
	default:
		p, err = m.Bundle()
	}
	if err != nil {
		return "", err
	}
	if p.Initialize != nil {
		if err := p.Initialize(ctx); err != nil {
			return "", oops.Code("PLUGIN_INIT_FAILED").With("plugin", p.Name).Wrap(err)
		}
	}
	scratch := registry.New(registry.WithLogger(a.logger))
	for i := range p.Objects {
		def := &p.Objects[i]
		if err := scratch.Register(*def); err != nil {
			return "", oops.With("plugin", p.Name).Wrap(err)
		}
		if phys := def.Physics(); phys != nil && phys.Shape != nil {
			if err := phys.Shape.Validate(); err != nil {
				return "", oops.Code("INVALID_SHAPE").With("plugin", p.Name).With("type", def.Key()).Wrap(err)
			}
		}
	}
	return fmt.Sprintf("%s %s, %d types", p.Name, p.Version, len(p.Objects)), nil
}
