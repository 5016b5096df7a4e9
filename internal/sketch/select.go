// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

import (
	"math"

	"github.com/sigil-dev/sketch/internal/geom"
)

// SelectAt picks the entity under pos within radius. The nearest candidate
// wins, except that a point always displaces a line or circle and a line or
// circle never displaces a point. The line of a capped segment only counts
// when pos falls alongside the segment itself.
func (s *Sketch) SelectAt(pos geom.Vec2, radius float64) (EntityID, bool) {
	closest := NoEntity
	var closestKind Kind
	closestDist := math.Inf(1)

	for id, e := range s.entities.All() {
		dist := DistanceToPosition(e, pos)
		if dist > radius {
			continue
		}
		if !(dist < closestDist && canOverrideSelection(e.Kind(), closestKind)) &&
			!shouldOverrideSelection(e.Kind(), closestKind) {
			continue
		}
		if !s.withinGuided(id, pos, radius) {
			continue
		}
		closest, closestKind, closestDist = id, e.Kind(), dist
	}
	return closest, closest != NoEntity
}

// canOverrideSelection reports whether a nearer candidate of kind k may
// replace the current selection. The zero Kind means nothing is selected.
func canOverrideSelection(k, selected Kind) bool {
	if selected == 0 {
		return true
	}
	return k == KindPoint || selected != KindPoint
}

// shouldOverrideSelection reports whether k replaces the selection regardless
// of distance.
func shouldOverrideSelection(k, selected Kind) bool {
	if selected == 0 {
		return true
	}
	return k == KindPoint && selected != KindPoint
}

func (s *Sketch) withinGuided(id EntityID, pos geom.Vec2, radius float64) bool {
	for _, g := range s.guided.All() {
		if !g.RefersTo(id) {
			continue
		}
		cl, ok := g.(CappedLine)
		if !ok || cl.Line != id {
			return true
		}
		start, errA := s.entities.Get(cl.Start)
		end, errB := s.entities.Get(cl.End)
		if errA != nil || errB != nil {
			return true
		}
		return alongSegment(start.(Point).Pos, end.(Point).Pos, pos, radius)
	}
	return true
}

// alongSegment reports whether the projection of pos onto the segment a-b
// lands between the endpoints, allowing slack of radius past either end.
func alongSegment(a, b, pos geom.Vec2, radius float64) bool {
	ab := b.Sub(a)
	length := ab.Norm()
	if length == 0 {
		return pos.Sub(a).Norm() <= radius
	}
	t := pos.Sub(a).Dot(ab) / length
	return t >= -radius && t <= length+radius
}
