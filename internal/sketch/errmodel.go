// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

import "math"

// Error is the non-negative penalty of constraint c between e1 and e2. It is
// zero when the constraint is satisfied and also for any combination Possible
// rejects, so an impossible constraint is inert rather than fatal.
func Error(e1, e2 Entity, c Constraint) float64 {
	if !Possible(e1.Kind(), e2.Kind(), c.Kind) {
		return 0
	}
	if v, ok := errorDirect(e1, e2, c); ok {
		return v
	}
	// Pairs are implemented for one argument order only.
	v, _ := errorDirect(e2, e1, c)
	return v
}

func errorDirect(e1, e2 Entity, c Constraint) (float64, bool) {
	switch a := e1.(type) {
	case Point:
		switch b := e2.(type) {
		case Point:
			return errorPP(a, b, c), true
		case Line:
			return errorPL(a, b, c), true
		case Circle:
			return errorPC(a, b, c), true
		}
	case Line:
		switch b := e2.(type) {
		case Line:
			return errorLL(a, b, c), true
		case Circle:
			return errorLC(a, b, c), true
		}
	case Circle:
		if b, ok := e2.(Circle); ok {
			return errorCC(a, b, c), true
		}
	}
	return 0, false
}

func sq(x float64) float64 { return x * x }

func errorPP(p1, p2 Point, c Constraint) float64 {
	switch c.Kind {
	case Coincident:
		return p1.Pos.Sub(p2.Pos).NormSquared()
	case Horizontal:
		return sq(p1.Pos.Y - p2.Pos.Y)
	case Vertical:
		return sq(p1.Pos.X - p2.Pos.X)
	case Distance:
		return sq(p1.Pos.Sub(p2.Pos).Norm() - c.Target)
	default:
		return 0
	}
}

func errorPL(p Point, l Line, c Constraint) float64 {
	orthoA := p.Pos.Reject(l.Direction)
	orthoR := l.Offset.Reject(l.Direction)
	switch c.Kind {
	case Coincident:
		return orthoR.Sub(orthoA).NormSquared()
	case Distance:
		return sq(orthoR.Sub(orthoA).Norm() - c.Target)
	default:
		return 0
	}
}

func errorPC(p Point, ci Circle, c Constraint) float64 {
	switch c.Kind {
	case Coincident:
		return sq(p.Pos.Sub(ci.Pos).Norm() - ci.Radius)
	case Horizontal:
		return sq(p.Pos.Y - ci.Pos.Y)
	case Vertical:
		return sq(p.Pos.X - ci.Pos.X)
	case Distance:
		return sq(p.Pos.Sub(ci.Pos).Norm() - c.Target)
	default:
		return 0
	}
}

// lineOffsetGap is the distance between the perpendicular offsets of two lines.
func lineOffsetGap(l1, l2 Line) float64 {
	return l1.Offset.Reject(l1.Direction).Sub(l2.Offset.Reject(l2.Direction)).Norm()
}

// errorLL compares the raw angle between directions, in [0, π]. Parallel is
// satisfied at 0 only and Perpendicular at π only; anti-parallel lines satisfy
// neither Parallel nor a π/2 reading of Perpendicular.
func errorLL(l1, l2 Line, c Constraint) float64 {
	switch c.Kind {
	case Parallel:
		return sq(l1.Direction.AngleBetween(l2.Direction))
	case Perpendicular:
		return sq(l1.Direction.AngleBetween(l2.Direction) - math.Pi)
	case Colinear:
		return lineOffsetGap(l1, l2)
	case Distance:
		return sq(lineOffsetGap(l1, l2) - c.Target)
	case Angle:
		return sq(l1.Direction.AngleBetween(l2.Direction) - c.Target)
	default:
		return 0
	}
}

func lineCircleSpan(l Line, ci Circle) float64 {
	orthoA := ci.Pos.Reject(l.Direction)
	orthoR := l.Offset.Reject(l.Direction)
	return orthoR.Add(orthoA).Norm()
}

// errorLC treats Coincident and Tangent alike: both ask the circle to touch
// the line.
func errorLC(l Line, ci Circle, c Constraint) float64 {
	switch c.Kind {
	case Coincident, Tangent:
		return sq(lineCircleSpan(l, ci) - ci.Radius)
	case Distance:
		return sq(lineCircleSpan(l, ci) - c.Target)
	default:
		return 0
	}
}

func errorCC(c1, c2 Circle, c Constraint) float64 {
	switch c.Kind {
	case Coincident:
		return c1.Pos.Sub(c2.Pos).NormSquared()
	case Horizontal:
		return sq(c1.Pos.Y - c2.Pos.Y)
	case Vertical:
		return sq(c1.Pos.X - c2.Pos.X)
	case Tangent:
		return sq(c1.Pos.Sub(c2.Pos).Norm() - (c1.Radius + c2.Radius))
	case Distance:
		return sq(c1.Pos.Sub(c2.Pos).Norm() - c.Target)
	default:
		return 0
	}
}
