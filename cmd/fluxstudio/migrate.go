// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fluxstudio/fluxstudio/internal/store"
)

func newMigrateCmd(a *app, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the scene store schema",
		Long:  `Apply, roll back, or inspect the embedded scene store migrations.`,
	}

	run := func(fn func(out io.Writer, m Migrator) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			url := a.cfg.Database.URL
			if url == "" {
				return oops.Code("CONFIG_INVALID").Errorf("database.url or DATABASE_URL is required")
			}
			m, err := deps.withDefaults().MigratorFactory(url)
			if err != nil {
				return err
			}
			defer func() { _ = m.Close() }()
			return fn(cmd.OutOrStdout(), m)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: run(func(out io.Writer, m Migrator) error {
			pending, err := m.Pending()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				fmt.Fprintln(out, "schema is up to date")
				return nil
			}
			if err := m.Up(); err != nil {
				return err
			}
			fmt.Fprintf(out, "applied %d migrations\n", len(pending))
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration, dropping all scenes",
		Args:  cobra.NoArgs,
		RunE: run(func(out io.Writer, m Migrator) error {
			if err := m.Down(); err != nil {
				return err
			}
			fmt.Fprintln(out, "rolled back all migrations")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "steps N",
		Short: "Apply N migrations, or roll back when N is negative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return oops.Code("INVALID_ARGUMENT").With("steps", args[0]).Errorf("steps must be a non-zero integer")
			}
			return run(func(out io.Writer, m Migrator) error {
				if err := m.Steps(n); err != nil {
					return err
				}
				fmt.Fprintf(out, "migrated %+d steps\n", n)
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "force VERSION",
		Short: "Mark VERSION as applied without running it, clearing a dirty state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return oops.Code("INVALID_VERSION").With("version", args[0]).Wrap(err)
			}
			return run(func(out io.Writer, m Migrator) error {
				if err := m.Force(v); err != nil {
					return err
				}
				fmt.Fprintf(out, "forced version %d\n", v)
				return nil
			})(cmd, args)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied version and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(printMigrationStatus),
	})

	return cmd
}

func printMigrationStatus(out io.Writer, m Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	name, err := store.MigrationName(version)
	if err != nil {
		return err
	}
	if name == "" {
		name = "none"
	}
	fmt.Fprintf(out, "version: %d (%s)\n", version, name)
	if dirty {
		fmt.Fprintln(out, "dirty: true (fix the database, then run migrate force)")
	}
	pending, err := m.Pending()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "pending: %d\n", len(pending))
	for _, v := range pending {
		n, err := store.MigrationName(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %s\n", n)
	}
	return nil
}
