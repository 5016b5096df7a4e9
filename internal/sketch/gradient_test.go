// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch_test

import (
	"testing"

	"github.com/sigil-dev/sketch/internal/sketch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGradientShapes(t *testing.T) {
	tests := []struct {
		name    string
		movable sketch.Entity
		fixed   sketch.Entity
		c       sketch.Constraint
		size    int
	}{
		{"point", pt(0, 0), pt(1, 2), sketch.Of(sketch.Horizontal), 2},
		{"line", ln(0, 0, 1, 0.2), ln(0, 3, 1, 0), sketch.Of(sketch.Parallel), 4},
		{"circle", circ(0, 0, 1), circ(4, 0, 1), sketch.Of(sketch.Tangent), 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, sketch.Gradient(tt.movable, tt.fixed, tt.c, sketch.DefaultH), tt.size)
		})
	}
}

func TestGradientMatchesAnalyticDerivative(t *testing.T) {
	// (y1 - y2)^2 has derivative 2(y1 - y2) in y1 and nothing in x1.
	g := sketch.Gradient(pt(0, 0), pt(1, 2), sketch.Of(sketch.Horizontal), sketch.DefaultH)
	require.Len(t, g, 2)
	assert.InDelta(t, 0, g[0], 1e-6)
	assert.InDelta(t, -4, g[1], 1e-6)

	// (|c1 - c2| - (r1 + r2))^2 with a gap of 2: d/dr1 = -4, d/dx1 = -4.
	g = sketch.Gradient(circ(0, 0, 1), circ(5, 0, 2), sketch.Of(sketch.Tangent), sketch.DefaultH)
	require.Len(t, g, 3)
	assert.InDelta(t, -4, g[0], 1e-5)
	assert.InDelta(t, 0, g[1], 1e-5)
	assert.InDelta(t, -4, g[2], 1e-5)
}

func TestApplyGradientIsPure(t *testing.T) {
	movable := pt(0, 0)
	fixed := pt(1, 2)

	moved := sketch.ApplyGradient(movable, fixed, sketch.Of(sketch.Horizontal), sketch.DefaultH, 0.1)

	p, ok := moved.(sketch.Point)
	require.True(t, ok)
	assert.InDelta(t, 0, p.Pos.X, 1e-6)
	assert.InDelta(t, 0.4, p.Pos.Y, 1e-6)

	assert.Equal(t, pt(0, 0), movable, "input left untouched")
	assert.Equal(t, pt(1, 2), fixed, "fixed entity left untouched")
}

func TestApplyGradientReducesError(t *testing.T) {
	tests := []struct {
		name    string
		movable sketch.Entity
		fixed   sketch.Entity
		c       sketch.Constraint
	}{
		{"point on line", pt(1, 3), ln(0, 0, 1, 1), sketch.Of(sketch.Coincident)},
		{"line angle", ln(0, 0, 1, 0.5), ln(0, 0, 1, 0), sketch.AngleOf(1)},
		{"circle through point", circ(0, 0, 1), pt(3, 0), sketch.Of(sketch.Coincident)},
		{"circle tangent to line", circ(0, -1, 1), ln(1, 1, 1, -1), sketch.Of(sketch.Tangent)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := sketch.Error(tt.movable, tt.fixed, tt.c)
			moved := sketch.ApplyGradient(tt.movable, tt.fixed, tt.c, sketch.DefaultH, 0.01)
			after := sketch.Error(moved, tt.fixed, tt.c)
			assert.Less(t, after, before)
			assert.Equal(t, tt.movable.Kind(), moved.Kind())
		})
	}
}
