// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sigil-dev/sketch/internal/document"
	"github.com/sigil-dev/sketch/internal/sketch"
	"github.com/sigil-dev/sketch/internal/store"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func newDocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Manage stored documents",
	}
	cmd.AddCommand(
		newDocListCmd(),
		newDocShowCmd(),
		newDocImportCmd(),
		newDocExportCmd(),
		newDocDeleteCmd(),
	)
	return cmd
}

// withDocuments opens the configured store for the duration of fn. Documents
// fn opens are not saved back, so reads leave updated_at alone.
func withDocuments(fn func(*document.Manager) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	m, ds, err := openDocuments(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	return fn(m)
}

func newDocListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withDocuments(func(m *document.Manager) error {
				docs, err := m.List(cmd.Context(), store.ListOpts{Limit: limit})
				if err != nil {
					return err
				}
				if len(docs) == 0 {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), "no documents")
					return err
				}

				t := table.New().
					Border(lipgloss.NormalBorder()).
					Headers("ID", "NAME", "UPDATED")
				for _, d := range docs {
					t.Row(d.ID, d.Name, d.UpdatedAt.Local().Format(time.DateTime))
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), t.String())
				return err
			})
		},
	}
	cmd.Flags().Int("limit", store.DefaultListLimit, "maximum number of documents")
	return cmd
}

func newDocShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			return withDocuments(func(m *document.Manager) error {
				return m.With(cmd.Context(), args[0], func(s *sketch.Sketch) error {
					data, err := sketch.Encode(s, format)
					if err != nil {
						return err
					}
					if _, err := cmd.OutOrStdout().Write(data); err != nil {
						return err
					}
					_, err = fmt.Fprintf(cmd.ErrOrStderr(), "%d entities, %d constraints, error %g\n",
						s.EntityCount(), len(s.Constraints()), s.Error())
					return err
				})
			})
		},
	}
	cmd.Flags().String("format", "json", "output format (json or yaml)")
	return cmd
}

func newDocImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Store a sketch file as a new document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			s, err := loadSketchFile(cmd, args[0], cfg.Solver)
			if err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("name")
			if name == "" {
				base := filepath.Base(args[0])
				name = strings.TrimSuffix(base, filepath.Ext(base))
			}

			return withDocuments(func(m *document.Manager) error {
				info, err := m.Import(cmd.Context(), name, s)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), info.ID)
				return err
			})
		},
	}
	cmd.Flags().String("name", "", "document name (defaults to the file name)")
	return cmd
}

func newDocExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Write a stored document to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			if out == "" {
				return sketcherr.New(sketcherr.CodeCLIInputInvalid, "--output is required")
			}
			return withDocuments(func(m *document.Manager) error {
				return m.With(cmd.Context(), args[0], func(s *sketch.Sketch) error {
					return writeSketchFile(out, s)
				})
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "destination file; .yaml or .yml selects YAML")
	return cmd
}

func newDocDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDocuments(func(m *document.Manager) error {
				if err := m.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return err
			})
		},
	}
}

func formatFlag(cmd *cobra.Command) (sketch.Format, error) {
	v, _ := cmd.Flags().GetString("format")
	switch f := sketch.Format(strings.ToLower(v)); f {
	case sketch.FormatJSON, sketch.FormatYAML:
		return f, nil
	default:
		return "", sketcherr.Errorf(sketcherr.CodeCLIInputInvalid, "unknown format %q", v)
	}
}
