// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// SSEEventType names a server-sent event.
type SSEEventType string

const (
	EventProgress SSEEventType = "progress"
	EventResult   SSEEventType = "result"
	EventError    SSEEventType = "error"
)

// SolveResponse is the JSON body returned by the solve endpoint when the
// client does not ask for an event stream.
type SolveResponse struct {
	Result   sketch.SolveResult   `json:"result"`
	Progress []sketch.SolveResult `json:"progress"`
}

// ErrorBody is written for failures on the raw solve route.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// validateEventType rejects names that would break SSE framing.
func validateEventType(t SSEEventType) bool {
	return !strings.ContainsAny(string(t), "\r\n")
}

func (s *Server) registerSolveRoute() {
	s.router.Post("/api/v1/documents/{id}/solve", s.handleSolve)

	// The streaming handler needs the raw ResponseWriter, so the chi route
	// above serves requests and this entry only documents them.
	minZero := 0.0
	s.api.OpenAPI().AddOperation(&huma.Operation{
		OperationID: "solve-document",
		Method:      http.MethodPost,
		Path:        "/api/v1/documents/{id}/solve",
		Summary:     "Relax a document until it converges",
		Description: "Runs the solver to completion. Set Accept: text/event-stream to receive progress events, otherwise the final result and collected progress are returned as JSON.",
		Tags:        []string{"solving"},
		Parameters: []*huma.Param{
			{Name: "id", In: "path", Required: true, Schema: &huma.Schema{Type: "string"}},
			{Name: "max_iterations", In: "query", Schema: &huma.Schema{Type: "integer", Minimum: &minZero}},
			{Name: "tolerance", In: "query", Schema: &huma.Schema{Type: "number", Minimum: &minZero}},
			{Name: "progress_every", In: "query", Schema: &huma.Schema{Type: "integer", Minimum: &minZero}},
		},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "Solve progress (SSE or JSON depending on Accept header)",
				Content: map[string]*huma.MediaType{
					"text/event-stream": {
						Schema: &huma.Schema{
							Type:        "string",
							Description: "progress events followed by a result or error event",
						},
					},
					"application/json": {
						Schema: &huma.Schema{
							Type: "object",
							Properties: map[string]*huma.Schema{
								"result":   {Type: "object", Description: "Final solve result"},
								"progress": {Type: "array", Items: &huma.Schema{Type: "object"}},
							},
						},
					},
				},
			},
			"400": {Description: "Invalid query parameter"},
			"404": {Description: "Document not found"},
			"504": {Description: "Solve cancelled before converging"},
		},
	})
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	opts, err := s.solveOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	// Resolve the document before any stream headers go out.
	if _, err := s.services.Documents().Open(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.streamSolve(w, r, id, opts)
		return
	}

	resp := SolveResponse{Progress: []sketch.SolveResult{}}
	opts.Progress = func(p sketch.SolveResult) {
		resp.Progress = append(resp.Progress, p)
	}
	resp.Result, err = s.services.Documents().Solve(r.Context(), id, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Warn("writing solve response", "error", err, "document_id", id)
	}
}

func (s *Server) streamSolve(w http.ResponseWriter, r *http.Request, id string, opts sketch.SolveOptions) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// httptest.ResponseRecorder is a Flusher; some wrapped writers are not.
	flusher, _ := w.(http.Flusher)
	send := func(event SSEEventType, v any) {
		if !validateEventType(event) {
			return
		}
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	opts.Progress = func(p sketch.SolveResult) { send(EventProgress, p) }
	res, err := s.services.Documents().Solve(r.Context(), id, opts)
	if err != nil {
		send(EventError, ErrorBody{Error: err.Error(), Code: string(sketcherr.CodeOf(err))})
		return
	}
	send(EventResult, res)
}

func (s *Server) solveOptions(r *http.Request) (sketch.SolveOptions, error) {
	q := r.URL.Query()
	opts := sketch.SolveOptions{
		MaxIterations: s.cfg.SolveMaxIterations,
		Tolerance:     s.cfg.SolveTolerance,
	}

	if v := q.Get("max_iterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, invalidQuery("max_iterations", v)
		}
		if n > 0 {
			opts.MaxIterations = n
		}
	}
	if v := q.Get("tolerance"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || !(f >= 0) || math.IsInf(f, 1) {
			return opts, invalidQuery("tolerance", v)
		}
		opts.Tolerance = f
	}
	if v := q.Get("progress_every"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, invalidQuery("progress_every", v)
		}
		opts.ProgressEvery = n
	}
	return opts, nil
}

func invalidQuery(name, value string) error {
	return sketcherr.New(sketcherr.CodeServerRequestInvalid,
		fmt.Sprintf("invalid %s %q", name, value), sketcherr.Field("param", name))
}

func writeError(w http.ResponseWriter, err error) {
	status := sketcherr.HTTPStatus(err)
	body := ErrorBody{Error: err.Error(), Code: string(sketcherr.CodeOf(err))}
	if status == http.StatusInternalServerError {
		slog.Error("solve failed", "error", err, "code", body.Code)
		body.Error = "internal error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
