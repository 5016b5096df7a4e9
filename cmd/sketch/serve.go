// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored documents over HTTP",
		Long:  "Load configuration, open the document store, and start the HTTP API for collaborating clients.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "override listen address (host:port)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	if f := cmd.Flags().Lookup("listen"); f.Changed {
		if err := viper.BindPFlag("networking.listen", f); err != nil {
			return sketcherr.Errorf(sketcherr.CodeCLISetupFailure, "binding listen flag: %w", err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := WireApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("closing app", "error", err)
		}
	}()

	slog.Info("serving sketch API", "listen", cfg.Networking.Listen, "backend", cfg.Storage.Backend)
	return app.Start(cmd.Context())
}
