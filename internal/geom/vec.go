// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package geom provides the small amount of planar vector math the sketch
// solver is built on.
package geom

import (
	"fmt"
	"math"
)

// Vec2 is a 2D real vector. It is used both for positions and for
// displacements; the sketch model does not distinguish the two.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// V2 is a convenience function to create a Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Scale returns the vector multiplied by a scalar.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Dot returns the dot product of two vectors.
func (v Vec2) Dot(w Vec2) float64 {
	return v.X*w.X + v.Y*w.Y
}

// Cross returns the z-component of the 3D cross product with z=0.
func (v Vec2) Cross(w Vec2) float64 {
	return v.X*w.Y - v.Y*w.X
}

// Norm returns the Euclidean length of the vector.
func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// NormSquared returns the squared length of the vector.
func (v Vec2) NormSquared() float64 {
	return v.X*v.X + v.Y*v.Y
}

// Project returns the projection of v onto d: (v·d / d·d) d.
// The result is NaN when d is the zero vector.
func (v Vec2) Project(d Vec2) Vec2 {
	return d.Scale(v.Dot(d) / d.Dot(d))
}

// Reject returns the component of v perpendicular to d, v - Project(v, d).
// It does not depend on the magnitude of d.
func (v Vec2) Reject(d Vec2) Vec2 {
	return v.Sub(v.Project(d))
}

// AngleBetween returns the unsigned angle between v and w in [0, π].
// Zero-length inputs yield 0.
func (v Vec2) AngleBetween(w Vec2) float64 {
	return math.Abs(math.Atan2(v.Cross(w), v.Dot(w)))
}

// IsFinite reports whether both components are finite numbers.
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// Approx returns true if two vectors are equal within epsilon per component.
func (v Vec2) Approx(w Vec2, epsilon float64) bool {
	return math.Abs(v.X-w.X) < epsilon && math.Abs(v.Y-w.Y) < epsilon
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%g, %g)", v.X, v.Y)
}
