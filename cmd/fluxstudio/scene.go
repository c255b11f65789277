// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newSceneCmd(a *app, deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Inspect persisted scenes",
	}

	withStore := func(fn func(ctx context.Context, cmd *cobra.Command, s SceneStore, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			s, err := openSceneStore(cmd.Context(), a, deps.withDefaults())
			if err != nil {
				return err
			}
			defer s.Close()
			return fn(cmd.Context(), cmd, s, args)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List scenes and their object counts",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, cmd *cobra.Command, s SceneStore, _ []string) error {
			scenes, err := s.ListScenes(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tOBJECTS\tUPDATED")
			for _, sc := range scenes {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", sc.ID, sc.Name, sc.Objects, sc.UpdatedAt.UTC().Format(time.RFC3339))
			}
			if err := tw.Flush(); err != nil {
				return oops.Wrapf(err, "write scene table")
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create ID [NAME]",
		Short: "Create an empty scene or rename an existing one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withStore(func(ctx context.Context, cmd *cobra.Command, s SceneStore, args []string) error {
			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			if err := s.CreateScene(ctx, args[0], name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scene %s ready\n", args[0])
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete a scene and all of its objects",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(ctx context.Context, cmd *cobra.Command, s SceneStore, args []string) error {
			if err := s.DeleteScene(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted scene %s\n", args[0])
			return nil
		}),
	})

	return cmd
}
