// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

// DefaultH is the central-difference step used by the solver.
const DefaultH = 1e-6

// Gradient estimates the partial derivatives of Error(movable, fixed, c) with
// respect to each free parameter of movable, in the order x, y for points,
// offset x, offset y, direction x, direction y for lines and x, y, radius for
// circles. Each parameter is perturbed by ±h/2 independently.
func Gradient(movable, fixed Entity, c Constraint, h float64) []float64 {
	base := movable.params()
	grad := make([]float64, len(base))
	probe := make([]float64, len(base))
	for i := range base {
		copy(probe, base)
		probe[i] = base[i] - h/2
		lo := Error(movable.withParams(probe), fixed, c)
		probe[i] = base[i] + h/2
		hi := Error(movable.withParams(probe), fixed, c)
		grad[i] = (hi - lo) / h
	}
	return grad
}

// ApplyGradient returns movable after one gradient-descent step against fixed:
// every parameter moves by -gradient*stepSize. Neither argument is modified.
func ApplyGradient(movable, fixed Entity, c Constraint, h, stepSize float64) Entity {
	grad := Gradient(movable, fixed, c, h)
	p := movable.params()
	for i := range p {
		p[i] -= grad[i] * stepSize
	}
	return movable.withParams(p)
}
