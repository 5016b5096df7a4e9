// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

import (
	"fmt"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// ConstraintKind is the tag of a constraint.
type ConstraintKind uint8

const (
	Coincident ConstraintKind = iota + 1
	Horizontal
	Vertical
	Tangent
	Parallel
	Perpendicular
	Colinear
	Distance
	Angle
)

// ConstraintKinds lists every kind in declaration order.
var ConstraintKinds = []ConstraintKind{
	Coincident, Horizontal, Vertical, Tangent, Parallel, Perpendicular, Colinear, Distance, Angle,
}

var constraintNames = map[ConstraintKind]string{
	Coincident:    "coincident",
	Horizontal:    "horizontal",
	Vertical:      "vertical",
	Tangent:       "tangent",
	Parallel:      "parallel",
	Perpendicular: "perpendicular",
	Colinear:      "colinear",
	Distance:      "distance",
	Angle:         "angle",
}

func (k ConstraintKind) String() string {
	if name, ok := constraintNames[k]; ok {
		return name
	}
	return fmt.Sprintf("constraint(%d)", uint8(k))
}

// HasTarget reports whether constraints of this kind carry a scalar target.
func (k ConstraintKind) HasTarget() bool {
	return k == Distance || k == Angle
}

// ParseConstraintKind maps a wire name to a ConstraintKind. Unknown names are
// an error so that documents from newer versions fail closed.
func ParseConstraintKind(s string) (ConstraintKind, error) {
	for k, name := range constraintNames {
		if name == s {
			return k, nil
		}
	}
	return 0, sketcherr.New(sketcherr.CodeSketchCodecInvalidFormat, "unknown constraint type",
		sketcherr.FieldConstraint(s))
}

// Constraint is a constraint kind plus its target. Target is only meaningful
// for Distance (length) and Angle (radians).
type Constraint struct {
	Kind   ConstraintKind
	Target float64
}

// DistanceOf is a Distance constraint with the given target length.
func DistanceOf(target float64) Constraint {
	return Constraint{Kind: Distance, Target: target}
}

// AngleOf is an Angle constraint with the given target in radians.
func AngleOf(target float64) Constraint {
	return Constraint{Kind: Angle, Target: target}
}

// Of is a constraint of a target-less kind.
func Of(kind ConstraintKind) Constraint {
	return Constraint{Kind: kind}
}

func (c Constraint) String() string {
	if c.Kind.HasTarget() {
		return fmt.Sprintf("%s(%g)", c.Kind, c.Target)
	}
	return c.Kind.String()
}

// BiConstraint binds two entities with a constraint.
type BiConstraint struct {
	E1 EntityID
	E2 EntityID
	C  Constraint
}

// Possible reports whether kind c is defined between entities of kinds k1 and
// k2. Pairs without a table entry in the given order are looked up swapped.
func Possible(k1, k2 Kind, c ConstraintKind) bool {
	if allowed, ok := possibleDirect(k1, k2); ok {
		return allowed[c]
	}
	if allowed, ok := possibleDirect(k2, k1); ok {
		return allowed[c]
	}
	return false
}

func kindSet(kinds ...ConstraintKind) map[ConstraintKind]bool {
	m := make(map[ConstraintKind]bool, len(kinds))
	for _, k := range kinds {
		m[k] = true
	}
	return m
}

type kindPair struct{ a, b Kind }

var possibility = map[kindPair]map[ConstraintKind]bool{
	{KindPoint, KindPoint}:   kindSet(Coincident, Distance, Vertical, Horizontal),
	{KindPoint, KindLine}:    kindSet(Coincident, Distance),
	{KindPoint, KindCircle}:  kindSet(Coincident, Distance, Vertical, Horizontal),
	{KindLine, KindLine}:     kindSet(Parallel, Perpendicular, Colinear, Distance, Angle),
	{KindCircle, KindLine}:   kindSet(Coincident, Tangent, Distance),
	{KindCircle, KindCircle}: kindSet(Coincident, Distance, Tangent, Vertical, Horizontal),
}

func possibleDirect(k1, k2 Kind) (map[ConstraintKind]bool, bool) {
	allowed, ok := possibility[kindPair{k1, k2}]
	return allowed, ok
}
