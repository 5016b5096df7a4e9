// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigil-dev/sketch/internal/render"
	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Draw a sketch file as a PNG preview",
		Long:  "Draw points, lines, circles, segments and arcs of a sketch. Entities in a violated constraint are drawn in red.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	cmd.Flags().StringP("output", "o", "", "PNG path (default: FILE with a .png extension)")
	cmd.Flags().Int("width", render.DefaultWidth, "image width in pixels")
	cmd.Flags().Int("height", render.DefaultHeight, "image height in pixels")
	cmd.Flags().Bool("solve", false, "relax the sketch before drawing")
	addSolverFlags(cmd)
	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
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

	if solve, _ := cmd.Flags().GetBool("solve"); solve {
		res, err := s.Solve(cmd.Context(), sketch.SolveOptions{
			MaxIterations: cfg.Solver.MaxIterations,
			Tolerance:     cfg.Solver.Tolerance,
		})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(cmd.ErrOrStderr(), "relaxed for %d iterations, error %.3g\n", res.Iterations, res.Error); err != nil {
			return err
		}
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + ".png"
	}
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	f, err := os.Create(out)
	if err != nil {
		return sketcherr.Wrap(err, sketcherr.CodeCLIInputInvalid, "creating "+out)
	}
	err = render.PNG(f, s, render.Options{Width: width, Height: height, Tolerance: cfg.Solver.Tolerance})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), "wrote "+out)
	return err
}
