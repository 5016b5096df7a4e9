// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/sigil-dev/sketch/internal/geom"
	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSketch(t *testing.T) *sketch.Sketch {
	t.Helper()
	s := sketch.New(sketch.WithStepSize(0.05))
	a := s.Insert(pt(0, 0))
	gone := s.Insert(pt(9, 9))
	l := s.Insert(ln(0, 1, 1, 0))
	c := s.Insert(circ(2, 2, 1))
	require.NoError(t, s.RemoveEntity(gone))

	mustAdd(t, s, a, l, sketch.DistanceOf(1))
	mustAdd(t, s, c, l, sketch.Of(sketch.Tangent))
	_, err := s.AddArcThreePoint(geom.V2(5, 0), geom.V2(7, 0), geom.V2(6, 1), 0.01)
	require.NoError(t, err)
	return s
}

func TestCodecRoundTrip(t *testing.T) {
	for _, format := range []sketch.Format{sketch.FormatJSON, sketch.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			orig := sampleSketch(t)
			data, err := sketch.Encode(orig, format)
			require.NoError(t, err)

			back, err := sketch.Decode(data, format)
			require.NoError(t, err)

			want, err := orig.Document()
			require.NoError(t, err)
			got, err := back.Document()
			require.NoError(t, err)
			assert.Equal(t, want, got)

			assert.Equal(t, 0.05, back.StepSize())
			assert.Equal(t, orig.NextEntityID(), back.NextEntityID())
			assert.Equal(t, orig.Constraints(), back.Constraints())
			assert.InDelta(t, orig.Error(), back.Error(), 1e-12)

			_, err = back.Entity(1)
			assert.True(t, sketcherr.IsNotFound(err), "removed id stays removed")
			assert.Equal(t, orig.NextEntityID(), back.Insert(pt(0, 0)), "ids are not reused")
		})
	}
}

func TestCodecJSONShape(t *testing.T) {
	s := sketch.New()
	a := s.Insert(pt(1, 2))
	b := s.Insert(pt(4, 6))
	mustAdd(t, s, a, b, sketch.DistanceOf(3))

	data, err := sketch.Encode(s, sketch.FormatJSON)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(2), raw["next_entity_id"])
	assert.Equal(t, 0.01, raw["step_size"])

	entities := raw["entities"].([]any)
	require.Len(t, entities, 2)
	first := entities[0].(map[string]any)
	assert.Equal(t, "point", first["type"])
	assert.Equal(t, map[string]any{"x": 1.0, "y": 2.0}, first["pos"])

	cons := raw["constraints"].([]any)
	require.Len(t, cons, 1)
	assert.Equal(t, map[string]any{"e1": 0.0, "e2": 1.0, "type": "distance", "target": 3.0}, cons[0])
}

func TestCodecRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown entity type", `{"entities":[{"id":0,"type":"spline"}],"constraints":[]}`},
		{"unknown constraint type", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}},{"id":1,"type":"point","pos":{"x":1,"y":0}}],"constraints":[{"e1":0,"e2":1,"type":"symmetric"}]}`},
		{"duplicate id", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}},{"id":0,"type":"point","pos":{"x":1,"y":0}}],"constraints":[]}`},
		{"aliased constraint", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}}],"constraints":[{"e1":0,"e2":0,"type":"coincident"}]}`},
		{"missing entity", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}}],"constraints":[{"e1":0,"e2":4,"type":"coincident"}]}`},
		{"impossible constraint", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}},{"id":1,"type":"point","pos":{"x":1,"y":0}}],"constraints":[{"e1":0,"e2":1,"type":"tangent"}]}`},
		{"missing target", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}},{"id":1,"type":"point","pos":{"x":1,"y":0}}],"constraints":[{"e1":0,"e2":1,"type":"distance"}]}`},
		{"unexpected target", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}},{"id":1,"type":"point","pos":{"x":1,"y":0}}],"constraints":[{"e1":0,"e2":1,"type":"vertical","target":1}]}`},
		{"missing geometry", `{"entities":[{"id":0,"type":"circle","pos":{"x":0,"y":0}}],"constraints":[]}`},
		{"unknown field", `{"entities":[],"constraints":[],"colour":"red"}`},
		{"stale next id", `{"entities":[{"id":3,"type":"point","pos":{"x":0,"y":0}}],"constraints":[],"next_entity_id":2}`},
		{"guided with wrong kind", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}}],"constraints":[],"guided":[{"id":0,"type":"circle","entity":0}]}`},
		{"unknown guided type", `{"entities":[],"constraints":[],"guided":[{"id":0,"type":"bezier"}]}`},
		{"zero direction line", `{"entities":[{"id":0,"type":"line","offset":{"x":0,"y":0},"direction":{"x":0,"y":0}}],"constraints":[]}`},
		{"entity id far past the count", `{"entities":[{"id":4000000000,"type":"point","pos":{"x":0,"y":0}}],"constraints":[]}`},
		{"next entity id far past the count", `{"entities":[],"constraints":[],"next_entity_id":4000000000}`},
		{"guided id far past the count", `{"entities":[{"id":0,"type":"point","pos":{"x":0,"y":0}}],"constraints":[],"guided":[{"id":4000000000,"type":"point","entity":0}]}`},
		{"next guided id far past the count", `{"entities":[],"constraints":[],"next_guided_id":4000000000}`},
		{"not json", `{"entities":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sketch.Decode([]byte(tt.doc), sketch.FormatJSON)
			require.Error(t, err)
			assert.True(t, sketcherr.HasCode(err, sketcherr.CodeSketchCodecInvalidFormat), "code %s", sketcherr.CodeOf(err))
			assert.True(t, sketcherr.IsInvalidInput(err))
		})
	}
}

func TestCodecKeepsIDGapsWithinBound(t *testing.T) {
	doc := `{"entities":[{"id":5000,"type":"point","pos":{"x":0,"y":0}}],"constraints":[],"next_entity_id":90000}`
	s, err := sketch.Decode([]byte(doc), sketch.FormatJSON)
	require.NoError(t, err)

	_, err = s.Entity(5000)
	require.NoError(t, err)
	assert.Equal(t, sketch.EntityID(90000), s.Insert(pt(1, 1)))
}

func TestCodecYAMLRejectsUnknownFields(t *testing.T) {
	doc := "entities: []\nconstraints: []\nlayers: 3\n"
	_, err := sketch.Decode([]byte(doc), sketch.FormatYAML)
	require.Error(t, err)
	assert.True(t, sketcherr.IsInvalidInput(err))
}

func TestCodecYAMLDocument(t *testing.T) {
	doc := `
entities:
  - {id: 0, type: point, pos: {x: 0, y: 0}}
  - {id: 1, type: point, pos: {x: 1, y: 0.1}}
constraints:
  - {e1: 0, e2: 1, type: horizontal}
step_size: 0.02
`
	s, err := sketch.Decode([]byte(doc), sketch.FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, 2, s.EntityCount())
	assert.Equal(t, sketch.EntityID(2), s.NextEntityID())
	assert.Equal(t, 0.02, s.StepSize())
	assert.InDelta(t, 0.01, s.Error(), 1e-12)
}

func TestCodecEncodeRejectsNonFiniteGeometry(t *testing.T) {
	s := sketch.New()
	s.Insert(pt(math.NaN(), 0))

	_, err := sketch.Encode(s, sketch.FormatJSON)
	require.Error(t, err)
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeSketchCodecInvalidFormat))
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, sketch.FormatYAML, sketch.FormatFromPath("a/b.yaml"))
	assert.Equal(t, sketch.FormatYAML, sketch.FormatFromPath("B.YML"))
	assert.Equal(t, sketch.FormatJSON, sketch.FormatFromPath("sketch.json"))
	assert.Equal(t, sketch.FormatJSON, sketch.FormatFromPath("noext"))
}

func TestEncodeDecodeEntity(t *testing.T) {
	for _, e := range []sketch.Entity{pt(1, 2), ln(0, 1, 1, 0), circ(3, 4, 5)} {
		t.Run(e.Kind().String(), func(t *testing.T) {
			ed := sketch.EncodeEntity(7, e)
			assert.Equal(t, int64(7), ed.ID)
			assert.Equal(t, e.Kind().String(), ed.Type)

			back, err := sketch.DecodeEntity(ed)
			require.NoError(t, err)
			assert.Equal(t, e, back)
		})
	}

	_, err := sketch.DecodeEntity(sketch.EntityDoc{Type: "circle", Pos: &geom.Vec2{}})
	require.Error(t, err)
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeSketchCodecInvalidFormat))

	_, err = sketch.DecodeEntity(sketch.EntityDoc{Type: "line", Offset: &geom.Vec2{}, Direction: &geom.Vec2{}})
	require.Error(t, err)
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeSketchCodecInvalidFormat))
}

func TestDecodeConstraint(t *testing.T) {
	three := 3.0
	tests := []struct {
		name    string
		doc     sketch.ConstraintDoc
		want    sketch.Constraint
		wantErr bool
	}{
		{name: "distance", doc: sketch.ConstraintDoc{Type: "distance", Target: &three}, want: sketch.DistanceOf(3)},
		{name: "parallel", doc: sketch.ConstraintDoc{Type: "parallel"}, want: sketch.Of(sketch.Parallel)},
		{name: "missing target", doc: sketch.ConstraintDoc{Type: "angle"}, wantErr: true},
		{name: "stray target", doc: sketch.ConstraintDoc{Type: "vertical", Target: &three}, wantErr: true},
		{name: "unknown kind", doc: sketch.ConstraintDoc{Type: "symmetric"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sketch.DecodeConstraint(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, sketcherr.IsInvalidInput(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeGuidedCappedLine(t *testing.T) {
	s := sketch.New()
	gid, err := s.AddCappedLine(geom.V2(0, 0), geom.V2(2, 0), 0)
	require.NoError(t, err)

	g, err := s.GuidedEntity(gid)
	require.NoError(t, err)

	gd := sketch.EncodeGuided(gid, g)
	assert.Equal(t, int64(gid), gd.ID)
	assert.Equal(t, "capped_line", gd.Type)
	require.NotNil(t, gd.Start)
	require.NotNil(t, gd.End)
	require.NotNil(t, gd.Line)
	assert.Nil(t, gd.Entity)
	assert.Nil(t, gd.Circle)
}
