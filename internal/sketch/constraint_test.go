// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch_test

import (
	"testing"

	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []sketch.Kind{sketch.KindPoint, sketch.KindLine, sketch.KindCircle}

func TestPossibleMatrix(t *testing.T) {
	allowed := map[[2]sketch.Kind][]sketch.ConstraintKind{
		{sketch.KindPoint, sketch.KindPoint}:   {sketch.Coincident, sketch.Distance, sketch.Vertical, sketch.Horizontal},
		{sketch.KindPoint, sketch.KindLine}:    {sketch.Coincident, sketch.Distance},
		{sketch.KindPoint, sketch.KindCircle}:  {sketch.Coincident, sketch.Distance, sketch.Vertical, sketch.Horizontal},
		{sketch.KindLine, sketch.KindLine}:     {sketch.Parallel, sketch.Perpendicular, sketch.Colinear, sketch.Distance, sketch.Angle},
		{sketch.KindCircle, sketch.KindLine}:   {sketch.Coincident, sketch.Tangent, sketch.Distance},
		{sketch.KindCircle, sketch.KindCircle}: {sketch.Coincident, sketch.Distance, sketch.Tangent, sketch.Vertical, sketch.Horizontal},
	}

	for pair, kinds := range allowed {
		want := map[sketch.ConstraintKind]bool{}
		for _, k := range kinds {
			want[k] = true
		}
		for _, c := range sketch.ConstraintKinds {
			assert.Equal(t, want[c], sketch.Possible(pair[0], pair[1], c),
				"%s-%s %s", pair[0], pair[1], c)
		}
	}
}

func TestPossibleIsSymmetric(t *testing.T) {
	for _, a := range allKinds {
		for _, b := range allKinds {
			for _, c := range sketch.ConstraintKinds {
				assert.Equal(t, sketch.Possible(a, b, c), sketch.Possible(b, a, c),
					"%s-%s %s", a, b, c)
			}
		}
	}
}

func TestParseConstraintKind(t *testing.T) {
	for _, k := range sketch.ConstraintKinds {
		got, err := sketch.ParseConstraintKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := sketch.ParseConstraintKind("symmetric")
	require.Error(t, err)
	assert.True(t, sketcherr.HasCode(err, sketcherr.CodeSketchCodecInvalidFormat))
}

func TestParseKind(t *testing.T) {
	for _, k := range allKinds {
		got, err := sketch.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := sketch.ParseKind("spline")
	assert.True(t, sketcherr.IsInvalidInput(err))
}

func TestConstraintString(t *testing.T) {
	assert.Equal(t, "distance(3)", sketch.DistanceOf(3).String())
	assert.Equal(t, "angle(1.5)", sketch.AngleOf(1.5).String())
	assert.Equal(t, "tangent", sketch.Of(sketch.Tangent).String())
	assert.True(t, sketch.Distance.HasTarget())
	assert.False(t, sketch.Colinear.HasTarget())
}
