// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fluxstudio/fluxstudio/internal/config"
	"github.com/fluxstudio/fluxstudio/internal/logging"
	"github.com/fluxstudio/fluxstudio/internal/plugin"
	"github.com/fluxstudio/fluxstudio/internal/plugin/lua"
	"github.com/fluxstudio/fluxstudio/internal/world"
	"github.com/fluxstudio/fluxstudio/internal/xdg"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configFile string
	cfg        config.Config
	logger     *slog.Logger
}

// NewRootCmd creates the fluxstudio command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	a := &app{logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "fluxstudio",
		Short: "FluxStudio object core",
		Long: `FluxStudio loads object plugins, spawns world objects, and steps
their rigid bodies. Scenes can be persisted to PostgreSQL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newSimulateCmd(a, deps))
	cmd.AddCommand(newPluginsCmd(a))
	cmd.AddCommand(newMigrateCmd(a, deps))
	cmd.AddCommand(newSceneCmd(a, deps))
	cmd.AddCommand(newSchemaCmd())

	return cmd
}

// setup loads configuration and installs the logger. Without --config the
// user's XDG config file is used when present.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configFile == "" {
		path, err := xdg.DefaultConfigFile()
		if err != nil {
			return err
		}
		a.configFile = path
	}
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := logging.Setup(logging.Options{
		Service: "fluxstudio",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
	}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	a.cfg = cfg
	a.logger = logger
	return nil
}

// newWorld builds a world from the loaded configuration. physics=false
// forces bodies off regardless of the config.
func (a *app) newWorld(physics bool) (*world.World, error) {
	host := lua.NewHost(
		lua.WithCallTimeout(a.cfg.Plugins.CallTimeout),
		lua.WithLogger(a.logger),
	)
	opts := []world.Option{
		world.WithLogger(a.logger),
		world.WithPluginOptions(
			plugin.WithPluginsDir(a.cfg.Plugins.Dir),
			plugin.WithLuaHost(host),
		),
	}
	if physics && a.cfg.Physics.Enabled {
		opts = append(opts, world.WithPhysics(a.cfg.Physics.Config))
	} else {
		opts = append(opts, world.WithoutPhysics())
	}
	return world.New(opts...)
}
