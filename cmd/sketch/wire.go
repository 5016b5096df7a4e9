// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/sigil-dev/sketch/internal/config"
	"github.com/sigil-dev/sketch/internal/document"
	"github.com/sigil-dev/sketch/internal/server"
	"github.com/sigil-dev/sketch/internal/store"
	_ "github.com/sigil-dev/sketch/internal/store/sqlite" // register sqlite backend
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// App holds all wired subsystems and manages their lifecycle.
type App struct {
	Server    *server.Server
	Documents *document.Manager
	Store     store.DocumentStore
}

// openDocuments creates the configured document store and a manager over it.
func openDocuments(cfg *config.Config) (*document.Manager, store.DocumentStore, error) {
	if cfg.Storage.Backend != "memory" {
		if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
			return nil, nil, sketcherr.Errorf(sketcherr.CodeCLISetupFailure, "creating data directory: %w", err)
		}
	}

	ds, err := store.NewDocumentStore(&store.StorageConfig{Backend: cfg.Storage.Backend}, cfg.Storage.DataDir)
	if err != nil {
		return nil, nil, sketcherr.Wrap(err, sketcherr.CodeCLISetupFailure, "creating document store")
	}

	m := document.NewManager(ds, document.Config{
		StepSize:       cfg.Solver.StepSize,
		Seed:           cfg.Solver.Seed,
		TickIterations: cfg.Solver.TickIterations,
	})
	return m, ds, nil
}

// WireApp creates the store, document manager and HTTP server and wires them
// together.
func WireApp(cfg *config.Config) (*App, error) {
	m, ds, err := openDocuments(cfg)
	if err != nil {
		return nil, err
	}

	srv, err := server.New(server.Config{
		ListenAddr:         cfg.Networking.Listen,
		CORSOrigins:        cfg.Networking.CORSOrigins,
		SolveMaxIterations: cfg.Solver.MaxIterations,
		SolveTolerance:     cfg.Solver.Tolerance,
	})
	if err != nil {
		_ = ds.Close()
		return nil, err
	}

	svc, err := server.NewServices(m)
	if err != nil {
		_ = ds.Close()
		return nil, err
	}
	srv.RegisterServices(svc)

	slog.Debug("app wired", "backend", cfg.Storage.Backend, "data_dir", cfg.Storage.DataDir)
	return &App{Server: srv, Documents: m, Store: ds}, nil
}

// Start runs the HTTP server and blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	return a.Server.Start(ctx)
}

// Close saves every open document and releases the store.
func (a *App) Close() error {
	var errs []error
	if err := a.Documents.CloseAll(context.Background()); err != nil {
		errs = append(errs, err)
	}
	if err := a.Store.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
