// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch_test

import (
	"testing"

	"github.com/sigil-dev/sketch/internal/geom"
	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCappedLine(t *testing.T) {
	s := sketch.New()
	gid, err := s.AddCappedLine(geom.V2(0, 0), geom.V2(3, 4), 0.1)
	require.NoError(t, err)

	g, err := s.GuidedEntity(gid)
	require.NoError(t, err)
	cl, ok := g.(sketch.CappedLine)
	require.True(t, ok)
	assert.Equal(t, "capped_line", cl.GuidedKind())

	line, err := s.Entity(cl.Line)
	require.NoError(t, err)
	assert.Equal(t, ln(0, 0, 3, 4), line)
	assert.Equal(t, geom.V2(0, 0), pointAt(t, s, cl.Start))
	assert.Equal(t, geom.V2(3, 4), pointAt(t, s, cl.End))

	cons := s.Constraints()
	require.Len(t, cons, 2)
	assert.Equal(t, sketch.BiConstraint{E1: cl.Start, E2: cl.Line, C: sketch.Of(sketch.Coincident)}, cons[0])
	assert.Equal(t, sketch.BiConstraint{E1: cl.End, E2: cl.Line, C: sketch.Of(sketch.Coincident)}, cons[1])
	assert.InDelta(t, 0, s.Error(), 1e-12)
}

func TestAddCappedLineSnapsToExistingPoints(t *testing.T) {
	s := sketch.New()
	first, err := s.AddCappedLine(geom.V2(0, 0), geom.V2(1, 0), 0.2)
	require.NoError(t, err)
	second, err := s.AddCappedLine(geom.V2(1.05, 0.05), geom.V2(1, 2), 0.2)
	require.NoError(t, err)

	g1, _ := s.GuidedEntity(first)
	g2, _ := s.GuidedEntity(second)
	assert.Equal(t, g1.(sketch.CappedLine).End, g2.(sketch.CappedLine).Start)

	line, err := s.Entity(g2.(sketch.CappedLine).Line)
	require.NoError(t, err)
	assert.Equal(t, ln(1, 0, 0, 2), line, "line starts at the snapped point")
	assert.Equal(t, 5, s.EntityCount())
}

func TestAddCappedLineRejectsZeroLength(t *testing.T) {
	s := sketch.New()
	s.Insert(pt(0, 0))

	_, err := s.AddCappedLine(geom.V2(0.01, 0), geom.V2(-0.01, 0), 0.1)
	require.Error(t, err)
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeSketchGuidedInvalid))
	assert.Equal(t, 1, s.EntityCount())
	assert.Empty(t, s.Constraints())
}

func TestAddArcThreePoint(t *testing.T) {
	s := sketch.New()
	gid, err := s.AddArcThreePoint(geom.V2(1, 0), geom.V2(-1, 0), geom.V2(0, 1), 0.1)
	require.NoError(t, err)

	g, err := s.GuidedEntity(gid)
	require.NoError(t, err)
	arc, ok := g.(sketch.ArcThreePoint)
	require.True(t, ok)

	e, err := s.Entity(arc.Circle)
	require.NoError(t, err)
	c := e.(sketch.Circle)
	assert.True(t, c.Pos.Approx(geom.V2(0, 0), 1e-12))
	assert.InDelta(t, 1, c.Radius, 1e-12)

	assert.Equal(t, geom.V2(0, 1), pointAt(t, s, arc.Middle))
	require.Len(t, s.Constraints(), 3)
	for _, bc := range s.Constraints() {
		assert.Equal(t, arc.Circle, bc.E2)
		assert.Equal(t, sketch.Coincident, bc.C.Kind)
	}
	assert.InDelta(t, 0, s.Error(), 1e-12)
}

func TestAddArcThreePointRejectsCollinear(t *testing.T) {
	s := sketch.New()
	_, err := s.AddArcThreePoint(geom.V2(0, 0), geom.V2(2, 2), geom.V2(1, 1), 0.1)
	require.Error(t, err)
	assert.True(t, sketcherr.IsInvalidInput(err))
	assert.Equal(t, 0, s.EntityCount())
}

func TestGuidedRefersTo(t *testing.T) {
	tests := []struct {
		name string
		g    sketch.Guided
		in   []sketch.EntityID
		out  []sketch.EntityID
	}{
		{"point", sketch.GuidedPoint{ID: 2}, []sketch.EntityID{2}, []sketch.EntityID{0, 3}},
		{"capped line", sketch.CappedLine{Start: 0, End: 1, Line: 2}, []sketch.EntityID{0, 1, 2}, []sketch.EntityID{3}},
		{"arc", sketch.ArcThreePoint{Start: 4, Middle: 5, End: 6, Circle: 7}, []sketch.EntityID{4, 5, 6, 7}, []sketch.EntityID{0, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, id := range tt.in {
				assert.True(t, tt.g.RefersTo(id), "id %d", id)
			}
			for _, id := range tt.out {
				assert.False(t, tt.g.RefersTo(id), "id %d", id)
			}
		})
	}
}

func TestAddSimpleGuided(t *testing.T) {
	s := sketch.New()
	pid, pg := s.AddPoint(geom.V2(1, 2))
	cid, cg := s.AddCircle(geom.V2(0, 0), 3)
	lid, lg, err := s.AddLine(geom.V2(0, 0), geom.V2(1, 0))
	require.NoError(t, err)

	_, _, err = s.AddLine(geom.V2(0, 0), geom.V2(0, 0))
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeSketchEntityInvalid))

	want := map[sketch.GuidedID]sketch.Guided{
		pg: sketch.GuidedPoint{ID: pid},
		cg: sketch.GuidedCircle{ID: cid},
		lg: sketch.GuidedLine{ID: lid},
	}
	got := map[sketch.GuidedID]sketch.Guided{}
	for id, g := range s.Guided() {
		got[id] = g
	}
	assert.Equal(t, want, got)

	require.NoError(t, s.RemoveGuided(pg))
	_, err = s.GuidedEntity(pg)
	assert.True(t, sketcherr.IsNotFound(err))
	_, err = s.Entity(pid)
	assert.NoError(t, err, "removing the guided wrapper keeps the point")
}

func TestQueryOrInsertPoint(t *testing.T) {
	s := sketch.New()
	near := s.Insert(pt(0, 0))
	s.Insert(pt(0.3, 0))
	s.Insert(circ(0, 0, 0.01))

	assert.Equal(t, near, s.QueryOrInsertPoint(geom.V2(0.1, 0), 0.5))

	fresh := s.QueryOrInsertPoint(geom.V2(5, 5), 0.5)
	assert.Equal(t, sketch.EntityID(3), fresh)
	assert.Equal(t, geom.V2(5, 5), pointAt(t, s, fresh))
}
