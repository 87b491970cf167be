// Package config loads csvimport settings.
//
// Precedence (highest to lowest): flags > CSVIMPORT_* environment > YAML file
// > defaults. Keys are flat snake_case; a flag named batch-size sets
// batch_size and so does CSVIMPORT_BATCH_SIZE.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "CSVIMPORT_"

const (
	DefaultBackend        = "sqlite"
	DefaultBatchSize      = 1000
	DefaultMetricsBackend = "none"
	DefaultFlushEvery     = 60 * time.Second
)

// Backends and MetricsBackends list the accepted values.
var (
	Backends        = []string{"sqlite", "postgres", "mssql"}
	MetricsBackends = []string{"none", "datadog"}
)

// Config is the resolved configuration of one run.
type Config struct {
	Backend   string `koanf:"backend"`
	BatchSize int    `koanf:"batch_size"`
	Verbose   bool   `koanf:"verbose"`
	DryRun    bool   `koanf:"dry_run"`

	MetricsBackend    string        `koanf:"metrics_backend"`
	MetricsTags       string        `koanf:"metrics_tags"` // comma-separated key:value
	MetricsFlushEvery time.Duration `koanf:"metrics_flush_every"`
}

// Load resolves the configuration. cfgFile may be empty. flags may be nil;
// only flags the user actually set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"backend":             DefaultBackend,
		"batch_size":          DefaultBatchSize,
		"verbose":             false,
		"dry_run":             false,
		"metrics_backend":     DefaultMetricsBackend,
		"metrics_tags":        "",
		"metrics_flush_every": DefaultFlushEvery.String(),
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	// CSVIMPORT_BATCH_SIZE -> batch_size
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			if f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.MetricsBackend = strings.ToLower(strings.TrimSpace(cfg.MetricsBackend))

	return cfg, nil
}

// Validate rejects values no run can use.
func (c Config) Validate() error {
	if !slices.Contains(Backends, c.Backend) {
		return fmt.Errorf("config: unknown backend %q (want one of %s)", c.Backend, strings.Join(Backends, ", "))
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be > 0, got %d", c.BatchSize)
	}
	if !slices.Contains(MetricsBackends, c.MetricsBackend) {
		return fmt.Errorf("config: unknown metrics_backend %q (want one of %s)", c.MetricsBackend, strings.Join(MetricsBackends, ", "))
	}
	if c.MetricsBackend == "datadog" && c.MetricsFlushEvery <= 0 {
		return fmt.Errorf("config: metrics_flush_every must be > 0, got %s", c.MetricsFlushEvery)
	}
	return nil
}
