// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Report the total and per-constraint error of a sketch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runCheck,
	}
	cmd.Flags().Bool("strict", false, "exit non-zero when the total error is above solver.tolerance")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := loadSketchFile(cmd, args[0], cfg.Solver)
	if err != nil {
		return err
	}

	tol := cfg.Solver.Tolerance
	errs := s.ConstraintErrors()
	rows := make([][]string, 0, len(errs))
	for i, bc := range s.Constraints() {
		state := "ok"
		if errs[i] > tol {
			state = "violated"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			strconv.FormatInt(int64(bc.E1), 10),
			strconv.FormatInt(int64(bc.E2), 10),
			bc.C.String(),
			strconv.FormatFloat(errs[i], 'g', 6, 64),
			state,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "E1", "E2", "CONSTRAINT", "ERROR", "STATE").
		Rows(rows...)

	total := s.Error()
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%d entities, %d constraints\n", s.EntityCount(), len(errs)); err != nil {
		return err
	}
	if len(rows) > 0 {
		if _, err := fmt.Fprintln(out, t.String()); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(out, "total error: %g\n", total); err != nil {
		return err
	}

	if strict, _ := cmd.Flags().GetBool("strict"); strict && total > tol {
		return sketcherr.New(sketcherr.CodeCLIRequestFailure,
			fmt.Sprintf("total error %g above tolerance %g", total, tol))
	}
	return nil
}
