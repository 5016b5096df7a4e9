// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

import (
	"iter"
	"slices"

	"github.com/sigil-dev/sketch/internal/geom"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// GuidedID identifies a guided entity. Same monotonic rules as EntityID.
type GuidedID int64

// Guided is a user-level shape assembled from fundamental entities and the
// constraints that hold them together.
type Guided interface {
	// GuidedKind is the wire name of the shape.
	GuidedKind() string
	// Refs lists the fundamental entities the shape is built from.
	Refs() []EntityID
	RefersTo(id EntityID) bool
}

type GuidedPoint struct{ ID EntityID }
type GuidedLine struct{ ID EntityID }
type GuidedCircle struct{ ID EntityID }

// CappedLine is a segment: a line bounded by two points lying on it.
type CappedLine struct {
	Start EntityID
	End   EntityID
	Line  EntityID
}

// ArcThreePoint is the arc of Circle from Start through Middle to End.
type ArcThreePoint struct {
	Start  EntityID
	Middle EntityID
	End    EntityID
	Circle EntityID
}

func (GuidedPoint) GuidedKind() string   { return "point" }
func (GuidedLine) GuidedKind() string    { return "line" }
func (GuidedCircle) GuidedKind() string  { return "circle" }
func (CappedLine) GuidedKind() string    { return "capped_line" }
func (ArcThreePoint) GuidedKind() string { return "arc_three_point" }

func (g GuidedPoint) Refs() []EntityID  { return []EntityID{g.ID} }
func (g GuidedLine) Refs() []EntityID   { return []EntityID{g.ID} }
func (g GuidedCircle) Refs() []EntityID { return []EntityID{g.ID} }
func (g CappedLine) Refs() []EntityID   { return []EntityID{g.Start, g.End, g.Line} }
func (g ArcThreePoint) Refs() []EntityID {
	return []EntityID{g.Start, g.Middle, g.End, g.Circle}
}

func (g GuidedPoint) RefersTo(id EntityID) bool   { return slices.Contains(g.Refs(), id) }
func (g GuidedLine) RefersTo(id EntityID) bool    { return slices.Contains(g.Refs(), id) }
func (g GuidedCircle) RefersTo(id EntityID) bool  { return slices.Contains(g.Refs(), id) }
func (g CappedLine) RefersTo(id EntityID) bool    { return slices.Contains(g.Refs(), id) }
func (g ArcThreePoint) RefersTo(id EntityID) bool { return slices.Contains(g.Refs(), id) }

// Guided yields every live guided entity in id order.
func (s *Sketch) Guided() iter.Seq2[GuidedID, Guided] {
	return s.guided.All()
}

// GuidedEntity returns the guided entity stored under id.
func (s *Sketch) GuidedEntity(id GuidedID) (Guided, error) {
	return s.guided.Get(id)
}

// RemoveGuided forgets a guided entity. Its fundamental entities and
// constraints stay in the sketch.
func (s *Sketch) RemoveGuided(id GuidedID) error {
	if !s.guided.Remove(id) {
		return sketcherr.Errorf(sketcherr.CodeSketchEntityNotFound, "no guided entity %d", int64(id))
	}
	return nil
}

// AddPoint inserts a point and its guided wrapper.
func (s *Sketch) AddPoint(pos geom.Vec2) (EntityID, GuidedID) {
	id := s.Insert(Point{Pos: pos})
	return id, s.guided.Insert(GuidedPoint{ID: id})
}

// AddLine inserts an infinite line and its guided wrapper.
func (s *Sketch) AddLine(offset, direction geom.Vec2) (EntityID, GuidedID, error) {
	l := Line{Offset: offset, Direction: direction}
	if err := ValidateEntity(l); err != nil {
		return NoEntity, -1, err
	}
	id := s.Insert(l)
	return id, s.guided.Insert(GuidedLine{ID: id}), nil
}

// AddCircle inserts a circle and its guided wrapper.
func (s *Sketch) AddCircle(center geom.Vec2, radius float64) (EntityID, GuidedID) {
	id := s.Insert(Circle{Pos: center, Radius: radius})
	return id, s.guided.Insert(GuidedCircle{ID: id})
}

// QueryOrInsertPoint returns the nearest existing point within radius of pos,
// or inserts a new point at pos.
func (s *Sketch) QueryOrInsertPoint(pos geom.Vec2, radius float64) EntityID {
	if id, _, ok := s.nearestPoint(pos, radius); ok {
		return id
	}
	return s.Insert(Point{Pos: pos})
}

func (s *Sketch) nearestPoint(pos geom.Vec2, radius float64) (EntityID, geom.Vec2, bool) {
	best := NoEntity
	var bestPos geom.Vec2
	bestDist := radius
	for id, e := range s.entities.All() {
		p, ok := e.(Point)
		if !ok {
			continue
		}
		if d := p.Pos.Sub(pos).Norm(); d <= bestDist {
			best, bestPos, bestDist = id, p.Pos, d
		}
	}
	return best, bestPos, best != NoEntity
}

// anchor is a position resolved against the points present before a guided
// entity is drawn: either an existing point or a point still to be inserted.
type anchor struct {
	id  EntityID
	pos geom.Vec2
}

func (s *Sketch) resolve(pos geom.Vec2, radius float64) anchor {
	if id, p, ok := s.nearestPoint(pos, radius); ok {
		return anchor{id: id, pos: p}
	}
	return anchor{id: NoEntity, pos: pos}
}

func (s *Sketch) materialize(a anchor) EntityID {
	if a.id != NoEntity {
		return a.id
	}
	return s.Insert(Point{Pos: a.pos})
}

// AddCappedLine draws a segment between two positions, snapping each end to a
// point within selectRadius that existed before the call. The line starts at
// the first point and points towards the second; both ends are held on it by
// Coincident constraints.
func (s *Sketch) AddCappedLine(p1, p2 geom.Vec2, selectRadius float64) (GuidedID, error) {
	a, b := s.resolve(p1, selectRadius), s.resolve(p2, selectRadius)
	if a.pos == b.pos {
		return -1, sketcherr.New(sketcherr.CodeSketchGuidedInvalid, "segment has zero length")
	}

	start := s.materialize(a)
	end := s.materialize(b)
	line := s.Insert(Line{Offset: a.pos, Direction: b.pos.Sub(a.pos)})
	gid := s.guided.Insert(CappedLine{Start: start, End: end, Line: line})

	s.constraints = append(s.constraints,
		BiConstraint{E1: start, E2: line, C: Of(Coincident)},
		BiConstraint{E1: end, E2: line, C: Of(Coincident)},
	)
	return gid, nil
}

// AddArcThreePoint draws an arc from start through middle to end, snapping
// like AddCappedLine. The supporting circle is the circumcircle of the three
// points, which are then held on it by Coincident constraints. Collinear
// points are rejected before anything is inserted.
func (s *Sketch) AddArcThreePoint(start, end, middle geom.Vec2, selectRadius float64) (GuidedID, error) {
	a := s.resolve(start, selectRadius)
	b := s.resolve(end, selectRadius)
	m := s.resolve(middle, selectRadius)
	circle, ok := CircleFromThreeCoords(a.pos, m.pos, b.pos)
	if !ok {
		return -1, sketcherr.New(sketcherr.CodeSketchGuidedInvalid, "arc points are collinear")
	}

	startID := s.materialize(a)
	endID := s.materialize(b)
	middleID := s.materialize(m)
	circleID := s.Insert(circle)
	gid := s.guided.Insert(ArcThreePoint{Start: startID, Middle: middleID, End: endID, Circle: circleID})

	s.constraints = append(s.constraints,
		BiConstraint{E1: startID, E2: circleID, C: Of(Coincident)},
		BiConstraint{E1: middleID, E2: circleID, C: Of(Coincident)},
		BiConstraint{E1: endID, E2: circleID, C: Of(Coincident)},
	)
	return gid, nil
}
