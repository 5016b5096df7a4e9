// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sigil-dev/sketch/internal/document"
	"github.com/sigil-dev/sketch/internal/sketch"
	"github.com/sigil-dev/sketch/internal/store"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// RegisterServices sets the service dependencies and registers REST routes.
func (s *Server) RegisterServices(svc *Services) {
	s.services = svc
	s.registerRoutes()
	s.registerSketchRoutes()
	s.registerSolveRoute()
}

func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents",
		Summary:     "List documents",
		Tags:        []string{"documents"},
	}, s.handleListDocuments)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create-document",
		Method:        http.MethodPost,
		Path:          "/api/v1/documents",
		Summary:       "Create an empty document",
		Tags:          []string{"documents"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}",
		Summary:     "Get a document with its sketch and errors",
		Tags:        []string{"documents"},
	}, s.handleGetDocument)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-document",
		Method:        http.MethodDelete,
		Path:          "/api/v1/documents/{id}",
		Summary:       "Delete a document",
		Tags:          []string{"documents"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteDocument)

	huma.Register(s.api, huma.Operation{
		OperationID:   "save-document",
		Method:        http.MethodPost,
		Path:          "/api/v1/documents/{id}/save",
		Summary:       "Persist in-memory edits",
		Tags:          []string{"documents"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleSaveDocument)

	huma.Register(s.api, huma.Operation{
		OperationID: "set-solving",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents/{id}/solving",
		Summary:     "Enable or disable relaxation on tick",
		Tags:        []string{"solving"},
	}, s.handleSetSolving)

	huma.Register(s.api, huma.Operation{
		OperationID: "tick-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents/{id}/tick",
		Summary:     "Advance the solver by one tick",
		Tags:        []string{"solving"},
	}, s.handleTick)
}

// --- Request/Response types for huma ---

type documentIDInput struct {
	ID string `path:"id" doc:"Document identifier"`
}

type listDocumentsInput struct {
	Limit  int `query:"limit" minimum:"0" doc:"Maximum number of documents (0 = server default)"`
	Offset int `query:"offset" minimum:"0" doc:"Number of documents to skip"`
}
type listDocumentsOutput struct {
	Body struct {
		Documents []document.Info `json:"documents"`
	}
}

type createDocumentInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" doc:"Display name"`
	}
}
type documentInfoOutput struct {
	Body document.Info
}

// DocumentDetail is the full REST representation of an open document.
type DocumentDetail struct {
	document.Info
	Sketch           sketch.Document `json:"sketch" doc:"Serialized sketch"`
	Error            float64         `json:"error" doc:"Total constraint error"`
	ConstraintErrors []float64       `json:"constraint_errors" doc:"Per-constraint error, index-aligned with sketch.constraints"`
}
type getDocumentOutput struct {
	Body DocumentDetail
}

type setSolvingInput struct {
	ID   string `path:"id"`
	Body struct {
		Enabled bool `json:"enabled" doc:"Whether ticks relax the sketch"`
	}
}

type tickOutput struct {
	Body document.TickResult
}

// --- Handlers ---

// apiError maps a coded error to the matching HTTP status. Internal
// failures are logged and reported without detail.
func apiError(err error, msg string) error {
	status := sketcherr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error(msg, "error", err, "code", sketcherr.CodeOf(err))
		return huma.Error500InternalServerError(msg)
	}
	return huma.NewError(status, msg+": "+err.Error())
}

func (s *Server) handleListDocuments(ctx context.Context, input *listDocumentsInput) (*listDocumentsOutput, error) {
	docs, err := s.services.Documents().List(ctx, store.ListOpts{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		return nil, apiError(err, "listing documents")
	}
	out := &listDocumentsOutput{}
	out.Body.Documents = docs
	if out.Body.Documents == nil {
		out.Body.Documents = []document.Info{}
	}
	return out, nil
}

func (s *Server) handleCreateDocument(ctx context.Context, input *createDocumentInput) (*documentInfoOutput, error) {
	info, err := s.services.Documents().Create(ctx, input.Body.Name)
	if err != nil {
		return nil, apiError(err, "creating document")
	}
	return &documentInfoOutput{Body: info}, nil
}

func (s *Server) handleGetDocument(ctx context.Context, input *documentIDInput) (*getDocumentOutput, error) {
	info, err := s.services.Documents().Open(ctx, input.ID)
	if err != nil {
		return nil, apiError(err, "opening document")
	}

	out := &getDocumentOutput{}
	out.Body.Info = info
	err = s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		doc, err := sk.Document()
		if err != nil {
			return err
		}
		out.Body.Sketch = doc
		out.Body.Error = sk.Error()
		out.Body.ConstraintErrors = sk.ConstraintErrors()
		return nil
	})
	if err != nil {
		return nil, apiError(err, "reading document")
	}
	return out, nil
}

func (s *Server) handleDeleteDocument(ctx context.Context, input *documentIDInput) (*struct{}, error) {
	if err := s.services.Documents().Delete(ctx, input.ID); err != nil {
		return nil, apiError(err, "deleting document")
	}
	return nil, nil
}

func (s *Server) handleSaveDocument(ctx context.Context, input *documentIDInput) (*struct{}, error) {
	// Save only applies to open documents; opening first makes it idempotent.
	if _, err := s.services.Documents().Open(ctx, input.ID); err != nil {
		return nil, apiError(err, "opening document")
	}
	if err := s.services.Documents().Save(ctx, input.ID); err != nil {
		return nil, apiError(err, "saving document")
	}
	return nil, nil
}

func (s *Server) handleSetSolving(ctx context.Context, input *setSolvingInput) (*documentInfoOutput, error) {
	info, err := s.services.Documents().SetSolving(ctx, input.ID, input.Body.Enabled)
	if err != nil {
		return nil, apiError(err, "setting solving")
	}
	return &documentInfoOutput{Body: info}, nil
}

func (s *Server) handleTick(ctx context.Context, input *documentIDInput) (*tickOutput, error) {
	res, err := s.services.Documents().Tick(ctx, input.ID)
	if err != nil {
		return nil, apiError(err, "ticking document")
	}
	return &tickOutput{Body: res}, nil
}
