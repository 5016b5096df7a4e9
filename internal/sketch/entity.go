// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

import (
	"fmt"
	"math"

	"github.com/sigil-dev/sketch/internal/geom"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// EntityID identifies a fundamental entity within one sketch. IDs are handed
// out in increasing order starting at 0 and are never reused.
type EntityID int64

// NoEntity is the sentinel EntityID; it never names a stored entity.
const NoEntity EntityID = -1

// Kind is the tag of a fundamental entity.
type Kind uint8

const (
	KindPoint Kind = iota + 1
	KindLine
	KindCircle
)

var kindNames = map[Kind]string{
	KindPoint:  "point",
	KindLine:   "line",
	KindCircle: "circle",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind maps a wire name ("point", "line", "circle") to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, sketcherr.Errorf(sketcherr.CodeSketchEntityKindInvalid, "unknown entity type %q", s)
}

// Entity is one of Point, Line or Circle. The set is closed.
type Entity interface {
	Kind() Kind
	// params returns the free scalar parameters the solver moves.
	params() []float64
	// withParams rebuilds the entity from a parameter vector of the same shape.
	withParams(p []float64) Entity
}

// Point is a position in the sketch plane.
type Point struct {
	Pos geom.Vec2
}

// Line is an infinite line through Offset along Direction. Direction need not
// be unit length.
type Line struct {
	Offset    geom.Vec2
	Direction geom.Vec2
}

// Circle is a circle centred on Pos.
type Circle struct {
	Pos    geom.Vec2
	Radius float64
}

func (Point) Kind() Kind  { return KindPoint }
func (Line) Kind() Kind   { return KindLine }
func (Circle) Kind() Kind { return KindCircle }

func (p Point) params() []float64 { return []float64{p.Pos.X, p.Pos.Y} }
func (l Line) params() []float64 {
	return []float64{l.Offset.X, l.Offset.Y, l.Direction.X, l.Direction.Y}
}
func (c Circle) params() []float64 { return []float64{c.Pos.X, c.Pos.Y, c.Radius} }

func (Point) withParams(p []float64) Entity {
	return Point{Pos: geom.V2(p[0], p[1])}
}

func (Line) withParams(p []float64) Entity {
	return Line{Offset: geom.V2(p[0], p[1]), Direction: geom.V2(p[2], p[3])}
}

func (Circle) withParams(p []float64) Entity {
	return Circle{Pos: geom.V2(p[0], p[1]), Radius: p[2]}
}

// DistanceToPosition is the distance from pos to the nearest part of e. For a
// line this is the perpendicular distance, for a circle the distance to its
// rim.
func DistanceToPosition(e Entity, pos geom.Vec2) float64 {
	switch v := e.(type) {
	case Point:
		return v.Pos.Sub(pos).Norm()
	case Line:
		orthoA := pos.Reject(v.Direction)
		orthoR := v.Offset.Reject(v.Direction)
		return orthoR.Sub(orthoA).Norm()
	case Circle:
		return math.Abs(pos.Sub(v.Pos).Norm() - v.Radius)
	default:
		return math.Inf(1)
	}
}

// CircleFromThreeCoords returns the circle through a, b and c. It reports
// false when the three coordinates are collinear (or coincide).
func CircleFromThreeCoords(a, b, c geom.Vec2) (Circle, bool) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	d := 2 * ab.Cross(ac)
	if math.Abs(d) < 1e-12 {
		return Circle{}, false
	}

	abSq := ab.NormSquared()
	acSq := ac.NormSquared()
	u := geom.V2(
		(ac.Y*abSq-ab.Y*acSq)/d,
		(ab.X*acSq-ac.X*abSq)/d,
	)
	return Circle{Pos: a.Add(u), Radius: u.Norm()}, true
}

// ValidateEntity rejects geometry the error model cannot evaluate:
// non-finite parameters and lines without a direction. Circle radii may be
// negative.
func ValidateEntity(e Entity) error {
	if !isFinite(e) {
		return sketcherr.New(sketcherr.CodeSketchEntityInvalid, e.Kind().String()+" geometry is not finite")
	}
	if l, ok := e.(Line); ok && l.Direction.NormSquared() == 0 {
		return sketcherr.New(sketcherr.CodeSketchEntityInvalid, "line direction must not be zero")
	}
	return nil
}

func isFinite(e Entity) bool {
	for _, p := range e.params() {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return false
		}
	}
	return true
}
