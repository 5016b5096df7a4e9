// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"math"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level sketch configuration.
type Config struct {
	Solver     SolverConfig     `mapstructure:"solver"`
	Networking NetworkingConfig `mapstructure:"networking"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// SolverConfig controls the relaxation loop.
type SolverConfig struct {
	StepSize       float64 `mapstructure:"step_size"`
	MaxIterations  int     `mapstructure:"max_iterations"`
	Tolerance      float64 `mapstructure:"tolerance"`
	Seed           uint64  `mapstructure:"seed"`
	TickIterations int     `mapstructure:"tick_iterations"` // Steps per document tick.
}

// NetworkingConfig controls how the API server listens for connections.
type NetworkingConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// StorageConfig selects the storage backend and where it keeps its files.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("solver.step_size", 0.01)
	v.SetDefault("solver.max_iterations", 20000)
	v.SetDefault("solver.tolerance", 1e-9)
	v.SetDefault("solver.seed", 1)
	v.SetDefault("solver.tick_iterations", 1)
	v.SetDefault("networking.listen", "127.0.0.1:18790")
	v.SetDefault("networking.cors_origins", []string{})
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", "~/.local/share/sketch")
}

// SetupEnv enables SKETCH_ environment overrides, e.g. SKETCH_SOLVER_SEED.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("SKETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix SKETCH_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, sketcherr.Errorf(sketcherr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, sketcherr.Errorf(sketcherr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	dir, err := ExpandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dir

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", sketcherr.Errorf(sketcherr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateSolver()...)
	errs = append(errs, c.validateNetworking()...)
	errs = append(errs, c.validateStorage()...)

	return errs
}

func (c *Config) validateSolver() []error {
	var errs []error

	if !(c.Solver.StepSize > 0 && c.Solver.StepSize <= 1) {
		errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
			"config: solver.step_size must be in (0, 1], got %g",
			c.Solver.StepSize,
		))
	}

	if c.Solver.MaxIterations <= 0 {
		errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
			"config: solver.max_iterations must be greater than 0, got %d",
			c.Solver.MaxIterations,
		))
	}

	if !(c.Solver.Tolerance >= 0) || math.IsInf(c.Solver.Tolerance, 0) {
		errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
			"config: solver.tolerance must be a finite value >= 0, got %g",
			c.Solver.Tolerance,
		))
	}

	if c.Solver.TickIterations <= 0 {
		errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
			"config: solver.tick_iterations must be greater than 0, got %d",
			c.Solver.TickIterations,
		))
	}

	return errs
}

func (c *Config) validateNetworking() []error {
	var errs []error

	if c.Networking.Listen == "" {
		errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue, "config: networking.listen must not be empty"))
	} else {
		_, portStr, err := net.SplitHostPort(c.Networking.Listen)
		if err != nil {
			errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
				"config: networking.listen must be a valid host:port address, got %q: %w",
				c.Networking.Listen, err,
			))
		} else {
			// host can be empty (e.g., ":8080"), which is valid
			port, err := strconv.Atoi(portStr)
			if err != nil {
				errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
					"config: networking.listen port must be a number, got %q",
					portStr,
				))
			} else if port < 1 || port > 65535 {
				errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
					"config: networking.listen port must be between 1 and 65535, got %d",
					port,
				))
			}
		}
	}

	for i, origin := range c.Networking.CORSOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
				"config: networking.cors_origins[%d] must be \"*\" or an http(s) origin, got %q",
				i, origin,
			))
		}
	}

	return errs
}

// Backends lists the storage backends the binary ships with.
var Backends = []string{"memory", "sqlite"}

func (c *Config) validateStorage() []error {
	var errs []error

	if !slices.Contains(Backends, c.Storage.Backend) {
		errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [%s], got %q",
			strings.Join(Backends, ", "), c.Storage.Backend,
		))
	}

	if c.Storage.Backend == "sqlite" && c.Storage.DataDir == "" {
		errs = append(errs, sketcherr.Errorf(sketcherr.CodeConfigValidateInvalidValue,
			"config: storage.data_dir must not be empty for the sqlite backend"))
	}

	return errs
}
