// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fluxstudio/fluxstudio/internal/object"
	"github.com/fluxstudio/fluxstudio/internal/observability"
	"github.com/fluxstudio/fluxstudio/internal/physics"
	"github.com/fluxstudio/fluxstudio/internal/plugin"
	"github.com/fluxstudio/fluxstudio/internal/registry"
	"github.com/fluxstudio/fluxstudio/internal/store"
	"github.com/fluxstudio/fluxstudio/internal/world"
	"github.com/fluxstudio/fluxstudio/pkg/errutil"
)

type simulateOptions struct {
	steps  int
	spawns []string
	scene  string
	save   bool
	events bool
}

func newSimulateCmd(a *app, deps *Deps) *cobra.Command {
	opts := &simulateOptions{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Load plugins, spawn objects, and step the world",
		Long: `Load every plugin in the plugin directory, optionally restore a scene,
spawn the requested objects, and step the physics world. With --steps 0 the
world runs in real time until interrupted, reloading plugins on change when
plugins.watch is set.`,
		Example: `  fluxstudio simulate --spawn basic.ground --spawn basic.cube@0,4,0 --steps 240
  fluxstudio simulate --scene lobby --save --steps 60`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSimulate(cmd.Context(), cmd.OutOrStdout(), a, opts, deps.withDefaults())
		},
	}

	cmd.Flags().IntVar(&opts.steps, "steps", 120, "fixed steps to run (0 runs until interrupted)")
	cmd.Flags().StringArrayVar(&opts.spawns, "spawn", nil, "object to spawn as type or type@x,y,z (repeatable)")
	cmd.Flags().StringVar(&opts.scene, "scene", "", "scene to restore from the scene store")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the world to --scene when done")
	cmd.Flags().BoolVar(&opts.events, "events", false, "print collision and trigger events")

	return cmd
}

func runSimulate(ctx context.Context, out io.Writer, a *app, opts *simulateOptions, deps *Deps) error {
	if opts.steps < 0 {
		return oops.Code("INVALID_ARGUMENT").With("steps", opts.steps).Errorf("steps must not be negative")
	}
	if opts.save && opts.scene == "" {
		return oops.Code("INVALID_ARGUMENT").Errorf("--save needs --scene")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := a.newWorld(true)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(context.Background()); err != nil {
			errutil.LogWarn(a.logger, "closing world", err)
		}
	}()

	var ready atomic.Bool
	if addr := a.cfg.Metrics.Addr; addr != "" {
		srv := deps.ObservabilityServerFactory(addr, ready.Load,
			observability.WithLogger(a.logger),
			observability.WithRegistrars(
				registry.RegisterMetrics,
				object.RegisterMetrics,
				plugin.RegisterMetrics,
				physics.RegisterMetrics,
				world.RegisterMetrics,
			))
		errCh, err := srv.Start()
		if err != nil {
			return oops.Code("METRICS_START_FAILED").With("addr", addr).Wrap(err)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := srv.Stop(stopCtx); err != nil {
				errutil.LogWarn(a.logger, "stopping observability server", err)
			}
		}()
		go monitorServerErrors(ctx, cancel, errCh, "observability", a.logger)
	}

	if err := w.LoadPlugins(ctx); err != nil {
		return err
	}
	a.logger.Info("plugins loaded",
		"plugins", len(w.Plugins().LoadedPlugins()),
		"types", w.Registry().Len())

	var scenes SceneStore
	if opts.scene != "" {
		scenes, err = openSceneStore(ctx, a, deps)
		if err != nil {
			return err
		}
		defer scenes.Close()

		restored, err := w.Load(ctx, scenes, opts.scene)
		switch {
		case errors.Is(err, store.ErrSceneNotFound):
			a.logger.Info("starting a new scene", "scene_id", opts.scene)
		case err != nil:
			return err
		default:
			fmt.Fprintf(out, "restored %d objects from scene %s\n", len(restored), opts.scene)
		}
	}

	for _, s := range opts.spawns {
		typeKey, overrides, err := parseSpawn(s)
		if err != nil {
			return err
		}
		if _, err := w.Spawn(typeKey, overrides, nil); err != nil {
			return err
		}
	}

	if opts.events {
		w.Engine().AddListener(func(ev physics.Event) {
			if ev.Kind == physics.EventContact {
				return
			}
			phase := "end"
			if ev.Started {
				phase = "start"
			}
			fmt.Fprintf(out, "%s %s %s %s\n", ev.Kind, phase, ev.BodyA, ev.BodyB)
		})
	}

	ready.Store(true)
	if opts.steps > 0 {
		for range opts.steps {
			w.Tick(0)
		}
	} else if err := runRealtime(ctx, a, w); err != nil {
		return err
	}

	if err := printWorld(out, w); err != nil {
		return err
	}

	if opts.save {
		if err := scenes.CreateScene(ctx, opts.scene, ""); err != nil {
			return err
		}
		n, err := w.Save(ctx, scenes, opts.scene)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %d objects to scene %s\n", n, opts.scene)
	}
	return nil
}

// runRealtime ticks at the physics time step until ctx ends or the process
// is interrupted. Plugin reloads happen on this goroutine between ticks.
func runRealtime(ctx context.Context, a *app, w *world.World) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var changes <-chan string
	if a.cfg.Plugins.Watch {
		watcher, err := plugin.NewWatcher(a.cfg.Plugins.Dir,
			plugin.WithDebounce(a.cfg.Plugins.Debounce),
			plugin.WithWatcherLogger(a.logger))
		if err != nil {
			return err
		}
		defer func() { _ = watcher.Close() }()
		go watcher.Run(ctx)
		changes = watcher.Changes()
	}

	interval := time.Duration(w.Engine().Config().Timestep * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("running in real time", "interval", interval, "watch", a.cfg.Plugins.Watch)
	for {
		select {
		case <-ctx.Done():
			a.logger.Info("stopping simulation")
			return nil
		case <-ticker.C:
			w.Tick(0)
		case name, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			dir := filepath.Join(a.cfg.Plugins.Dir, name)
			if err := w.Plugins().ReloadDir(ctx, dir); err != nil {
				errutil.LogError(a.logger, "plugin reload failed", err, "dir", dir)
				continue
			}
			a.logger.Info("plugin reloaded", "dir", dir)
		}
	}
}

// openSceneStore connects to the configured database, migrating first when
// database.auto_migrate is set.
func openSceneStore(ctx context.Context, a *app, deps *Deps) (SceneStore, error) {
	url := a.cfg.Database.URL
	if url == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("scenes need database.url or DATABASE_URL")
	}
	if a.cfg.Database.AutoMigrate {
		m, err := deps.MigratorFactory(url)
		if err != nil {
			return nil, err
		}
		upErr := m.Up()
		if err := m.Close(); err != nil {
			errutil.LogWarn(a.logger, "closing migrator", err)
		}
		if upErr != nil {
			return nil, upErr
		}
	}
	return deps.StoreFactory(ctx, a.cfg.Database)
}

// parseSpawn reads "type" or "type@x,y,z".
func parseSpawn(s string) (string, map[string]any, error) {
	typeKey, at, hasPos := strings.Cut(s, "@")
	if typeKey == "" {
		return "", nil, oops.Code("INVALID_ARGUMENT").With("spawn", s).Errorf("spawn needs a type key")
	}
	if !hasPos {
		return typeKey, nil, nil
	}
	parts := strings.Split(at, ",")
	if len(parts) != 3 {
		return "", nil, oops.Code("INVALID_ARGUMENT").With("spawn", s).Errorf("position must be x,y,z")
	}
	pos := make([]any, 3)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return "", nil, oops.Code("INVALID_ARGUMENT").With("spawn", s).Wrapf(err, "position component %d", i)
		}
		pos[i] = f
	}
	return typeKey, map[string]any{"position": pos}, nil
}

func printWorld(out io.Writer, w *world.World) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tPOSITION\tBODY")
	for _, obj := range w.Objects() {
		p := obj.Properties.Position
		body := "-"
		if obj.Body != nil {
			body = string(obj.Body.Kind)
		}
		fmt.Fprintf(tw, "%s\t%s\t%.3f,%.3f,%.3f\t%s\n", obj.ID, obj.Type(), p.X, p.Y, p.Z, body)
	}
	if err := tw.Flush(); err != nil {
		return oops.Wrapf(err, "write world table")
	}
	info := w.Engine().DebugInfo()
	fmt.Fprintf(out, "objects=%d bodies=%d sleeping=%d steps=%d\n", w.Len(), info.Bodies, info.Sleeping, info.Steps)
	return nil
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, server string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			logger.Error("server error, shutting down", "server", server, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
