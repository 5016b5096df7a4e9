// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package server

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sigil-dev/sketch/internal/geom"
	"github.com/sigil-dev/sketch/internal/render"
	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

func (s *Server) registerSketchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "add-entity",
		Method:        http.MethodPost,
		Path:          "/api/v1/documents/{id}/entities",
		Summary:       "Insert an entity with its guided wrapper",
		Tags:          []string{"entities"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddEntity)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-entity",
		Method:      http.MethodPut,
		Path:        "/api/v1/documents/{id}/entities/{entityId}",
		Summary:     "Replace the geometry of an entity",
		Tags:        []string{"entities"},
	}, s.handleUpdateEntity)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-entity",
		Method:        http.MethodDelete,
		Path:          "/api/v1/documents/{id}/entities/{entityId}",
		Summary:       "Remove an entity and everything referring to it",
		Tags:          []string{"entities"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteEntity)

	huma.Register(s.api, huma.Operation{
		OperationID:   "add-constraint",
		Method:        http.MethodPost,
		Path:          "/api/v1/documents/{id}/constraints",
		Summary:       "Add a constraint between two entities",
		Tags:          []string{"constraints"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddConstraint)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete-constraint",
		Method:        http.MethodDelete,
		Path:          "/api/v1/documents/{id}/constraints/{index}",
		Summary:       "Remove the constraint at an index",
		Tags:          []string{"constraints"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteConstraint)

	huma.Register(s.api, huma.Operation{
		OperationID:   "add-guided",
		Method:        http.MethodPost,
		Path:          "/api/v1/documents/{id}/guided",
		Summary:       "Draw a capped line or three-point arc",
		Tags:          []string{"entities"},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddGuided)

	huma.Register(s.api, huma.Operation{
		OperationID: "select-entity",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}/select",
		Summary:     "Find the entity under a position",
		Tags:        []string{"entities"},
	}, s.handleSelect)

	huma.Register(s.api, huma.Operation{
		OperationID: "render-document",
		Method:      http.MethodGet,
		Path:        "/api/v1/documents/{id}/preview.png",
		Summary:     "Draw the document as a PNG",
		Tags:        []string{"documents"},
		Responses: map[string]*huma.Response{
			"200": {
				Description: "PNG preview",
				Content:     map[string]*huma.MediaType{"image/png": {}},
			},
		},
	}, s.handleRender)

	huma.Register(s.api, huma.Operation{
		OperationID: "constraint-possible",
		Method:      http.MethodGet,
		Path:        "/api/v1/possible",
		Summary:     "Report whether a constraint kind applies to two entity kinds",
		Tags:        []string{"constraints"},
	}, s.handlePossible)
}

// EntityBody describes the geometry of one entity. Which fields are required
// depends on Type.
type EntityBody struct {
	Type      string     `json:"type" enum:"point,line,circle" doc:"Entity kind"`
	Pos       *geom.Vec2 `json:"pos,omitempty" doc:"Point position or circle center"`
	Offset    *geom.Vec2 `json:"offset,omitempty" doc:"A point on the line"`
	Direction *geom.Vec2 `json:"direction,omitempty" doc:"Line direction"`
	Radius    *float64   `json:"radius,omitempty" doc:"Circle radius"`
}

func (b EntityBody) entity() (sketch.Entity, error) {
	return sketch.DecodeEntity(sketch.EntityDoc{
		Type:      b.Type,
		Pos:       b.Pos,
		Offset:    b.Offset,
		Direction: b.Direction,
		Radius:    b.Radius,
	})
}

type addEntityInput struct {
	ID   string `path:"id"`
	Body EntityBody
}

type entityInput struct {
	ID       string `path:"id"`
	EntityID int64  `path:"entityId" minimum:"0"`
}

type updateEntityInput struct {
	ID       string `path:"id"`
	EntityID int64  `path:"entityId" minimum:"0"`
	Body     EntityBody
}

type entityOutput struct {
	Body sketch.EntityDoc
}

type addConstraintInput struct {
	ID   string `path:"id"`
	Body struct {
		E1     int64    `json:"e1" minimum:"0" doc:"First entity"`
		E2     int64    `json:"e2" minimum:"0" doc:"Second entity"`
		Type   string   `json:"type" enum:"coincident,horizontal,vertical,tangent,parallel,perpendicular,colinear,distance,angle"`
		Target *float64 `json:"target,omitempty" doc:"Target for distance and angle"`
	}
}
type addConstraintOutput struct {
	Body struct {
		Index int     `json:"index" doc:"Position in the constraint list"`
		Error float64 `json:"error" doc:"Current error of the new constraint"`
	}
}

type constraintIndexInput struct {
	ID    string `path:"id"`
	Index int    `path:"index" minimum:"0"`
}

type addGuidedInput struct {
	ID   string `path:"id"`
	Body struct {
		Type         string     `json:"type" enum:"capped_line,arc_three_point"`
		Start        geom.Vec2  `json:"start"`
		End          geom.Vec2  `json:"end"`
		Middle       *geom.Vec2 `json:"middle,omitempty" doc:"Required for arc_three_point"`
		SelectRadius float64    `json:"select_radius,omitempty" minimum:"0" doc:"Snap endpoints to existing points within this radius"`
	}
}
type addGuidedOutput struct {
	Body struct {
		ID     int64            `json:"id" doc:"Guided entity identifier"`
		Guided sketch.GuidedDoc `json:"guided"`
	}
}

type selectInput struct {
	ID     string  `path:"id"`
	X      float64 `query:"x"`
	Y      float64 `query:"y"`
	Radius float64 `query:"radius" minimum:"0"`
}
type selectOutput struct {
	Body struct {
		Found    bool  `json:"found"`
		EntityID int64 `json:"entity_id" doc:"-1 when nothing was found"`
	}
}

type possibleInput struct {
	E1 string `query:"e1" required:"true" enum:"point,line,circle"`
	E2 string `query:"e2" required:"true" enum:"point,line,circle"`
	C  string `query:"c" required:"true" enum:"coincident,horizontal,vertical,tangent,parallel,perpendicular,colinear,distance,angle"`
}
type possibleOutput struct {
	Body struct {
		Possible bool `json:"possible"`
	}
}

func (s *Server) handleAddEntity(ctx context.Context, input *addEntityInput) (*entityOutput, error) {
	e, err := input.Body.entity()
	if err != nil {
		return nil, apiError(err, "decoding entity")
	}

	out := &entityOutput{}
	err = s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		var id sketch.EntityID
		switch v := e.(type) {
		case sketch.Point:
			id, _ = sk.AddPoint(v.Pos)
		case sketch.Circle:
			id, _ = sk.AddCircle(v.Pos, v.Radius)
		case sketch.Line:
			var err error
			if id, _, err = sk.AddLine(v.Offset, v.Direction); err != nil {
				return err
			}
		}
		out.Body = sketch.EncodeEntity(id, e)
		return nil
	})
	if err != nil {
		return nil, apiError(err, "adding entity")
	}
	return out, nil
}

func (s *Server) handleUpdateEntity(ctx context.Context, input *updateEntityInput) (*entityOutput, error) {
	e, err := input.Body.entity()
	if err != nil {
		return nil, apiError(err, "decoding entity")
	}

	id := sketch.EntityID(input.EntityID)
	err = s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		return sk.SetEntity(id, e)
	})
	if err != nil {
		return nil, apiError(err, "updating entity")
	}
	return &entityOutput{Body: sketch.EncodeEntity(id, e)}, nil
}

func (s *Server) handleDeleteEntity(ctx context.Context, input *entityInput) (*struct{}, error) {
	err := s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		return sk.RemoveEntity(sketch.EntityID(input.EntityID))
	})
	if err != nil {
		return nil, apiError(err, "removing entity")
	}
	return nil, nil
}

func (s *Server) handleAddConstraint(ctx context.Context, input *addConstraintInput) (*addConstraintOutput, error) {
	c, err := sketch.DecodeConstraint(sketch.ConstraintDoc{
		Type:   input.Body.Type,
		Target: input.Body.Target,
	})
	if err != nil {
		return nil, apiError(err, "decoding constraint")
	}

	out := &addConstraintOutput{}
	err = s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		idx, err := sk.AddConstraint(sketch.EntityID(input.Body.E1), sketch.EntityID(input.Body.E2), c)
		if err != nil {
			return err
		}
		out.Body.Index = idx
		out.Body.Error = sk.ConstraintErrors()[idx]
		return nil
	})
	if err != nil {
		return nil, apiError(err, "adding constraint")
	}
	return out, nil
}

func (s *Server) handleDeleteConstraint(ctx context.Context, input *constraintIndexInput) (*struct{}, error) {
	err := s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		return sk.RemoveConstraint(input.Index)
	})
	if err != nil {
		return nil, apiError(err, "removing constraint")
	}
	return nil, nil
}

func (s *Server) handleAddGuided(ctx context.Context, input *addGuidedInput) (*addGuidedOutput, error) {
	body := input.Body
	if body.Type == "arc_three_point" && body.Middle == nil {
		return nil, huma.Error400BadRequest("arc_three_point requires middle")
	}

	out := &addGuidedOutput{}
	err := s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		var (
			gid sketch.GuidedID
			err error
		)
		if body.Type == "arc_three_point" {
			gid, err = sk.AddArcThreePoint(body.Start, body.End, *body.Middle, body.SelectRadius)
		} else {
			gid, err = sk.AddCappedLine(body.Start, body.End, body.SelectRadius)
		}
		if err != nil {
			return err
		}
		g, err := sk.GuidedEntity(gid)
		if err != nil {
			return err
		}
		out.Body.ID = int64(gid)
		out.Body.Guided = sketch.EncodeGuided(gid, g)
		return nil
	})
	if err != nil {
		return nil, apiError(err, "adding guided entity")
	}
	return out, nil
}

func (s *Server) handleSelect(ctx context.Context, input *selectInput) (*selectOutput, error) {
	out := &selectOutput{}
	out.Body.EntityID = int64(sketch.NoEntity)
	err := s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		id, ok := sk.SelectAt(geom.V2(input.X, input.Y), input.Radius)
		if ok {
			out.Body.Found = true
			out.Body.EntityID = int64(id)
		}
		return nil
	})
	if err != nil {
		return nil, apiError(err, "selecting entity")
	}
	return out, nil
}

func (s *Server) handlePossible(_ context.Context, input *possibleInput) (*possibleOutput, error) {
	k1, err := sketch.ParseKind(input.E1)
	if err != nil {
		return nil, apiError(err, "parsing e1")
	}
	k2, err := sketch.ParseKind(input.E2)
	if err != nil {
		return nil, apiError(err, "parsing e2")
	}
	c, err := sketch.ParseConstraintKind(input.C)
	if err != nil {
		return nil, apiError(sketcherr.With(err, sketcherr.FieldConstraint(input.C)), "parsing c")
	}

	out := &possibleOutput{}
	out.Body.Possible = sketch.Possible(k1, k2, c)
	return out, nil
}

type renderInput struct {
	ID     string `path:"id"`
	Width  int    `query:"width" default:"800" minimum:"16" maximum:"4096" doc:"Image width in pixels"`
	Height int    `query:"height" default:"600" minimum:"16" maximum:"4096" doc:"Image height in pixels"`
}

type renderOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func (s *Server) handleRender(ctx context.Context, input *renderInput) (*renderOutput, error) {
	var buf bytes.Buffer
	err := s.services.Documents().With(ctx, input.ID, func(sk *sketch.Sketch) error {
		return render.PNG(&buf, sk, render.Options{
			Width:     input.Width,
			Height:    input.Height,
			Tolerance: s.cfg.SolveTolerance,
		})
	})
	if err != nil {
		return nil, apiError(err, "rendering document")
	}
	return &renderOutput{ContentType: "image/png", Body: buf.Bytes()}, nil
}
