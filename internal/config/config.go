// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

// Package config loads layered configuration: built-in defaults, then an
// optional YAML file, then DATABASE_URL, then explicitly set flags.
package config

import (
	"errors"
	"os"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/fluxstudio/fluxstudio/internal/logging"
	"github.com/fluxstudio/fluxstudio/internal/physics"
	"github.com/fluxstudio/fluxstudio/pkg/geom"
)

// Config is the full process configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Plugins  PluginsConfig  `koanf:"plugins"`
	Physics  PhysicsConfig  `koanf:"physics"`
	Database DatabaseConfig `koanf:"database"`
	Metrics  MetricsConfig  `koanf:"metrics"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// PluginsConfig locates and supervises plugins.
type PluginsConfig struct {
	Dir         string        `koanf:"dir"`
	Watch       bool          `koanf:"watch"`
	Debounce    time.Duration `koanf:"debounce"`
	CallTimeout time.Duration `koanf:"call_timeout"`
}

// PhysicsConfig is the engine configuration plus an on/off switch.
type PhysicsConfig struct {
	Enabled        bool `koanf:"enabled"`
	physics.Config `koanf:",squash"`
}

// DatabaseConfig points at the scene store. An empty URL disables it.
type DatabaseConfig struct {
	URL         string        `koanf:"url"`
	AutoMigrate bool          `koanf:"auto_migrate"`
	MaxRetries  uint64        `koanf:"max_retries"`
	RetryDelay  time.Duration `koanf:"retry_delay"`
}

// MetricsConfig controls the observability server. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log:     LogConfig{Format: "json", Level: "info"},
		Plugins: PluginsConfig{Dir: "plugins", Debounce: 250 * time.Millisecond, CallTimeout: 5 * time.Second},
		Physics: PhysicsConfig{Enabled: true, Config: physics.DefaultConfig()},
		Database: DatabaseConfig{
			AutoMigrate: true,
			MaxRetries:  5,
			RetryDelay:  200 * time.Millisecond,
		},
	}
}

// flagKeys maps the flags RegisterFlags defines to config keys.
var flagKeys = map[string]string{
	"log-format":       "log.format",
	"log-level":        "log.level",
	"plugins-dir":      "plugins.dir",
	"plugins-watch":    "plugins.watch",
	"physics":          "physics.enabled",
	"physics-timestep": "physics.timestep",
	"physics-gravity":  "physics.gravity",
	"database-url":     "database.url",
	"metrics-addr":     "metrics.addr",
}

// RegisterFlags defines the configuration flags on fs. Their defaults are
// informational; only flags the user sets override file values.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("plugins-dir", d.Plugins.Dir, "plugin directory")
	fs.Bool("plugins-watch", d.Plugins.Watch, "reload plugins when their files change")
	fs.Bool("physics", d.Physics.Enabled, "enable the physics engine")
	fs.Float64("physics-timestep", d.Physics.Timestep, "fixed physics time step in seconds")
	g := d.Physics.Gravity
	fs.Float64Slice("physics-gravity", []float64{g.X, g.Y, g.Z}, "gravity vector x,y,z")
	fs.String("database-url", "", "PostgreSQL URL for the scene store (also DATABASE_URL)")
	fs.String("metrics-addr", "", "metrics and health listen address (empty disables)")
}

// Load builds the configuration. path may be empty; fs may be nil.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		if err := k.Set("database.url", url); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("key", "database.url").Wrap(err)
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			if f.Value.Type() == "float64Slice" {
				v, err := fs.GetFloat64Slice(f.Name)
				if err != nil {
					return "", nil
				}
				return key, v
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	cfg := Default()
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				vectorHook,
			),
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		return Config{}, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var vector3Type = reflect.TypeOf(geom.Vector3{})

// vectorHook accepts [x, y, z] lists and {x, y, z} maps for Vector3 fields.
func vectorHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != vector3Type {
		return data, nil
	}
	v, ok := geom.CoerceVector3(data, geom.Vector3{})
	if !ok {
		return nil, errors.New("expected a vector as [x, y, z] or {x, y, z}")
	}
	return v, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").With("log.format", c.Log.Format).
			Errorf("log format must be json or text, got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if c.Plugins.Debounce < 0 {
		return oops.Code("CONFIG_INVALID").With("plugins.debounce", c.Plugins.Debounce).Errorf("debounce must not be negative")
	}
	if c.Plugins.CallTimeout <= 0 {
		return oops.Code("CONFIG_INVALID").With("plugins.call_timeout", c.Plugins.CallTimeout).Errorf("call timeout must be positive")
	}
	if c.Physics.Enabled {
		if err := c.Physics.Config.Validate(); err != nil {
			return oops.Code("CONFIG_INVALID").Wrap(err)
		}
	}
	return nil
}
