// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Relax a sketch file until its constraints hold",
		Long: "Load a JSON or YAML sketch, run the solver until the total error is within tolerance " +
			"or the iteration cap is reached, and write the result.",
		Args: cobra.ExactArgs(1),
		RunE: runSolve,
	}
	cmd.Flags().StringP("output", "o", "", "write the solved sketch here instead of stdout")
	addSolverFlags(cmd)
	return cmd
}

func runSolve(cmd *cobra.Command, args []string) error {
	if err := bindSolverFlags(cmd); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := args[0]
	s, err := loadSketchFile(cmd, in, cfg.Solver)
	if err != nil {
		return err
	}

	res, err := s.Solve(cmd.Context(), sketch.SolveOptions{
		MaxIterations: cfg.Solver.MaxIterations,
		Tolerance:     cfg.Solver.Tolerance,
	})
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	if out != "" {
		if err := writeSketchFile(out, s); err != nil {
			return err
		}
	} else {
		data, err := sketch.Encode(s, sketch.FormatFromPath(in))
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
	}

	status := "converged"
	if !res.Converged {
		status = "not converged"
	}
	if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "%s after %d iterations, error %.3g\n", status, res.Iterations, res.Error); err != nil {
		return err
	}

	if !res.Converged {
		return sketcherr.New(sketcherr.CodeCLIRequestFailure,
			fmt.Sprintf("error %.3g above tolerance %g after %d iterations", res.Error, cfg.Solver.Tolerance, res.Iterations))
	}
	return nil
}
