// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigil-dev/sketch/internal/config"
	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// addSolverFlags registers the solver overrides shared by solve and watch.
func addSolverFlags(cmd *cobra.Command) {
	cmd.Flags().Int("iterations", 0, "maximum number of relaxation steps")
	cmd.Flags().Float64("tolerance", 0, "stop once the total error is at or below this")
	cmd.Flags().Float64("step-size", 0, "gradient-descent step size, overriding the file")
	cmd.Flags().Uint64("seed", 0, "seed for the solver's coin flips")
}

var solverFlagKeys = map[string]string{
	"iterations": "solver.max_iterations",
	"tolerance":  "solver.tolerance",
	"step-size":  "solver.step_size",
	"seed":       "solver.seed",
}

// bindSolverFlags maps the solver flags of cmd onto their viper keys. It runs
// per invocation because solve and watch share the keys.
func bindSolverFlags(cmd *cobra.Command) error {
	for name, key := range solverFlagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return sketcherr.Errorf(sketcherr.CodeCLISetupFailure, "binding %s flag: %w", name, err)
		}
	}
	return nil
}

// loadSketchFile decodes the sketch at path, picking the format from its
// extension. An explicit --step-size beats the step size stored in the file.
func loadSketchFile(cmd *cobra.Command, path string, solver config.SolverConfig) (*sketch.Sketch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, sketcherr.Errorf(sketcherr.CodeCLIInputInvalid, "reading %s: %w", path, err)
	}

	s, err := sketch.Decode(data, sketch.FormatFromPath(path),
		sketch.WithStepSize(solver.StepSize),
		sketch.WithSeed(solver.Seed),
		sketch.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, sketcherr.With(err, sketcherr.Field("path", path))
	}

	if f := cmd.Flags().Lookup("step-size"); f != nil && f.Changed {
		if err := s.SetStepSize(solver.StepSize); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// writeSketchFile encodes s in the format implied by path.
func writeSketchFile(path string, s *sketch.Sketch) error {
	data, err := sketch.Encode(s, sketch.FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return sketcherr.Errorf(sketcherr.CodeCLIRequestFailure, "writing %s: %w", path, err)
	}
	return nil
}
