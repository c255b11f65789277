// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package main

import (
	"context"

	"github.com/fluxstudio/fluxstudio/internal/config"
	"github.com/fluxstudio/fluxstudio/internal/observability"
	"github.com/fluxstudio/fluxstudio/internal/store"
	"github.com/fluxstudio/fluxstudio/internal/world"
)

// SceneStore is the part of store.PostgresSceneStore the CLI uses.
type SceneStore interface {
	world.SceneReader
	world.SceneWriter
	CreateScene(ctx context.Context, id, name string) error
	DeleteScene(ctx context.Context, id string) error
	ListScenes(ctx context.Context) ([]store.Scene, error)
	Close()
}

// Migrator is the part of store.Migrator the CLI uses.
type Migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Pending() ([]uint, error)
	Applied() ([]uint, error)
	Close() error
}

// ObservabilityServer is the part of observability.Server the CLI uses.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

var (
	_ SceneStore          = (*store.PostgresSceneStore)(nil)
	_ Migrator            = (*store.Migrator)(nil)
	_ ObservabilityServer = (*observability.Server)(nil)
)

// Deps holds injectable constructors. Nil fields use the real ones.
type Deps struct {
	StoreFactory               func(ctx context.Context, cfg config.DatabaseConfig) (SceneStore, error)
	MigratorFactory            func(url string) (Migrator, error)
	ObservabilityServerFactory func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer
}

func (d *Deps) withDefaults() *Deps {
	out := Deps{}
	if d != nil {
		out = *d
	}
	if out.StoreFactory == nil {
		out.StoreFactory = func(ctx context.Context, cfg config.DatabaseConfig) (SceneStore, error) {
			s, err := store.Connect(ctx, cfg.URL, store.ConnectConfig{
				MaxRetries: cfg.MaxRetries,
				BaseDelay:  cfg.RetryDelay,
			})
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	if out.MigratorFactory == nil {
		out.MigratorFactory = func(url string) (Migrator, error) {
			m, err := store.NewMigrator(url)
			if err != nil {
				return nil, err
			}
			return m, nil
		}
	}
	if out.ObservabilityServerFactory == nil {
		out.ObservabilityServerFactory = func(addr string, ready observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer {
			return observability.NewServer(addr, ready, opts...)
		}
	}
	return &out
}
