// Package config loads vetcore's process-wide settings: the store path,
// the lock-timeout budget, and the Disambiguator's scoring weights. These
// are the values Design Notes §9 calls out as needing to be read before
// any Store handle exists, so they come from a YAML file plus environment
// overrides rather than the Store's own config table (§4.8).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/clinistack/vetcore/internal/types"
)

// FileName is the conventional config file name vetcore looks for,
// mirroring the teacher's per-project config.yaml convention.
const FileName = "vetcore.yaml"

// Config is vetcore's startup configuration.
type Config struct {
	StorePath   string
	LockTimeout time.Duration
	Weights     types.ScoringWeights
}

// Default returns vetcore's built-in defaults: an on-disk store at
// ./vetcore.db, a 30s lock timeout, and the spec's 40/25/20/15 weight
// split.
func Default() Config {
	return Config{
		StorePath:   "vetcore.db",
		LockTimeout: 30 * time.Second,
		Weights:     types.DefaultScoringWeights(),
	}
}

// Load reads path (a vetcore.yaml file) if it exists, then layers
// environment overrides on top, the same precedence order the teacher's
// LoadLocalConfigWithEnv applies over config.yaml. A missing file is not
// an error — Load falls back to Default() and env-only overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v := viper.New()
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", path, err)
			}

			if s := v.GetString("store_path"); s != "" {
				cfg.StorePath = s
			}
			if s := v.GetString("lock_timeout"); s != "" {
				if d, err := time.ParseDuration(s); err == nil {
					cfg.LockTimeout = d
				}
			}
			cfg.Weights = weightsFromViper(v, cfg.Weights)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func weightsFromViper(v *viper.Viper, base types.ScoringWeights) types.ScoringWeights {
	w := base
	if v.IsSet("scoring.name_weight") {
		w.Name = v.GetFloat64("scoring.name_weight")
	}
	if v.IsSet("scoring.species_weight") {
		w.Species = v.GetFloat64("scoring.species_weight")
	}
	if v.IsSet("scoring.route_weight") {
		w.Route = v.GetFloat64("scoring.route_weight")
	}
	if v.IsSet("scoring.dose_weight") {
		w.Dose = v.GetFloat64("scoring.dose_weight")
	}
	return w
}

// envPrefix namespaces every vetcore environment override, mirroring the
// teacher's BEADS_ prefix convention.
const envPrefix = "VETCORE_"

// applyEnvOverrides layers VETCORE_* environment variables over cfg,
// taking precedence over both the YAML file and the built-in defaults.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envPrefix + "STORE_PATH")); v != "" {
		cfg.StorePath = v
	}
	if v := strings.TrimSpace(os.Getenv(envPrefix + "LOCK_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LockTimeout = d
		}
	}
	if f, ok := envFloat(envPrefix + "NAME_WEIGHT"); ok {
		cfg.Weights.Name = f
	}
	if f, ok := envFloat(envPrefix + "SPECIES_WEIGHT"); ok {
		cfg.Weights.Species = f
	}
	if f, ok := envFloat(envPrefix + "ROUTE_WEIGHT"); ok {
		cfg.Weights.Route = f
	}
	if f, ok := envFloat(envPrefix + "DOSE_WEIGHT"); ok {
		cfg.Weights.Dose = f
	}
}

func envFloat(key string) (float64, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
