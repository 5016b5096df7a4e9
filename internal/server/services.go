// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"context"

	"github.com/sigil-dev/sketch/internal/document"
	"github.com/sigil-dev/sketch/internal/sketch"
	"github.com/sigil-dev/sketch/internal/store"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"github.com/sigil-dev/sketch/pkg/health"
)

// Services holds dependencies injected into route handlers.
// Each field is an interface so subsystems can be mocked in tests.
// Use NewServices constructor to ensure all required services are provided.
type Services struct {
	documents DocumentService
}

// NewServices creates a Services instance with validation.
// Returns an error if any required service is nil.
func NewServices(docs DocumentService) (*Services, error) {
	if docs == nil {
		return nil, sketcherr.New(sketcherr.CodeServerConfigInvalid, "document service is required")
	}
	return &Services{documents: docs}, nil
}

// Documents returns the document service.
func (s *Services) Documents() DocumentService {
	return s.documents
}

// DocumentService provides document operations for REST handlers.
// document.Manager is the production implementation.
type DocumentService interface {
	Create(ctx context.Context, name string) (document.Info, error)
	Open(ctx context.Context, id string) (document.Info, error)
	List(ctx context.Context, opts store.ListOpts) ([]document.Info, error)
	Save(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	With(ctx context.Context, id string, fn func(*sketch.Sketch) error) error
	SetSolving(ctx context.Context, id string, solving bool) (document.Info, error)
	Tick(ctx context.Context, id string) (document.TickResult, error)
	Solve(ctx context.Context, id string, opts sketch.SolveOptions) (sketch.SolveResult, error)
	Health() health.Metrics
}

var _ DocumentService = (*document.Manager)(nil)
