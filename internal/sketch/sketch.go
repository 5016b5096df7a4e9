// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package sketch implements the geometric constraint solver: fundamental
// entities, binary constraints between them, their penalty functions and the
// stochastic gradient-descent relaxation that drives total penalty to zero.
//
// A Sketch is not safe for concurrent use. Callers that share one across
// goroutines guard the whole value with a single lock.
package sketch

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"math"
	"math/rand/v2"

	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// DefaultStepSize is the gradient-descent step used when none is configured.
const DefaultStepSize = 0.01

// Sketch owns the entities of one document, the ordered constraint list and
// the guided entities built on top of them.
type Sketch struct {
	entities    *Registry[EntityID, Entity]
	guided      *Registry[GuidedID, Guided]
	constraints []BiConstraint
	stepSize    float64
	seed        uint64
	rng         *rand.Rand
	logger      *slog.Logger
}

// Option configures a Sketch.
type Option func(*Sketch)

// WithStepSize sets the gradient-descent step size. Non-positive values are
// ignored.
func WithStepSize(step float64) Option {
	return func(s *Sketch) {
		if step > 0 {
			s.stepSize = step
		}
	}
}

// WithSeed seeds the coin flips of Step so that runs are reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Sketch) {
		s.seed = seed
	}
}

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sketch) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty sketch.
func New(opts ...Option) *Sketch {
	s := &Sketch{
		entities: NewRegistry[EntityID, Entity](),
		guided:   NewRegistry[GuidedID, Guided](),
		stepSize: DefaultStepSize,
		seed:     1,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	s.rng = rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	return s
}

// StepSize returns the gradient-descent step size.
func (s *Sketch) StepSize() float64 { return s.stepSize }

// SetStepSize changes the step size. Non-positive and non-finite values are
// rejected.
func (s *Sketch) SetStepSize(step float64) error {
	if !(step > 0) || math.IsInf(step, 0) {
		return sketcherr.Errorf(sketcherr.CodeSketchConstraintInvalid, "step size must be positive, got %g", step)
	}
	s.stepSize = step
	return nil
}

// Insert stores e and returns its new id.
func (s *Sketch) Insert(e Entity) EntityID {
	return s.entities.Insert(e)
}

// Entity returns the entity stored under id.
func (s *Sketch) Entity(id EntityID) (Entity, error) {
	return s.entities.Get(id)
}

// SetEntity replaces the geometry of an existing entity. The kind of an
// entity is fixed at insertion, and the new geometry must pass
// ValidateEntity.
func (s *Sketch) SetEntity(id EntityID, e Entity) error {
	cur, err := s.entities.Get(id)
	if err != nil {
		return err
	}
	if cur.Kind() != e.Kind() {
		return sketcherr.New(sketcherr.CodeSketchEntityKindInvalid,
			"cannot change entity "+cur.Kind().String()+" to "+e.Kind().String(),
			sketcherr.FieldEntityID(int64(id)))
	}
	if err := ValidateEntity(e); err != nil {
		return sketcherr.With(err, sketcherr.FieldEntityID(int64(id)))
	}
	return s.entities.Set(id, e)
}

// RemoveEntity deletes an entity together with every constraint and guided
// entity that refers to it. The id is not reused.
func (s *Sketch) RemoveEntity(id EntityID) error {
	if !s.entities.Remove(id) {
		return sketcherr.New(sketcherr.CodeSketchEntityNotFound, "no entity with this id",
			sketcherr.FieldEntityID(int64(id)))
	}

	kept := s.constraints[:0]
	for _, bc := range s.constraints {
		if bc.E1 != id && bc.E2 != id {
			kept = append(kept, bc)
		}
	}
	dropped := len(s.constraints) - len(kept)
	s.constraints = kept

	var orphans []GuidedID
	for gid, g := range s.guided.All() {
		if g.RefersTo(id) {
			orphans = append(orphans, gid)
		}
	}
	for _, gid := range orphans {
		s.guided.Remove(gid)
	}

	s.logger.Debug("entity removed", "entity_id", int64(id),
		"constraints_dropped", dropped, "guided_dropped", len(orphans))
	return nil
}

// Entities yields every live entity in id order.
func (s *Sketch) Entities() iter.Seq2[EntityID, Entity] {
	return s.entities.All()
}

// EntityCount is the number of live entities.
func (s *Sketch) EntityCount() int { return s.entities.Len() }

// NextEntityID is the id the next Insert will return.
func (s *Sketch) NextEntityID() EntityID { return s.entities.NextID() }

// AddConstraint validates and appends a constraint between two distinct,
// existing entities, returning its index in the constraint list.
func (s *Sketch) AddConstraint(e1, e2 EntityID, c Constraint) (int, error) {
	a, b, err := s.entities.GetTwo(e1, e2)
	if err != nil {
		return -1, err
	}
	if err := validateConstraint(a.Kind(), b.Kind(), c); err != nil {
		s.logger.Debug("constraint rejected", "e1", int64(e1), "e2", int64(e2),
			"constraint", c.String(), "error", err)
		return -1, sketcherr.With(err, sketcherr.FieldEntityID(int64(e1)))
	}
	s.constraints = append(s.constraints, BiConstraint{E1: e1, E2: e2, C: c})
	return len(s.constraints) - 1, nil
}

func validateConstraint(k1, k2 Kind, c Constraint) error {
	if _, ok := constraintNames[c.Kind]; !ok {
		return sketcherr.New(sketcherr.CodeSketchConstraintInvalid, "unknown constraint kind",
			sketcherr.FieldConstraint(c.Kind.String()))
	}
	if !Possible(k1, k2, c.Kind) {
		return sketcherr.New(sketcherr.CodeSketchConstraintInvalid,
			c.Kind.String()+" is not defined between "+k1.String()+" and "+k2.String(),
			sketcherr.FieldConstraint(c.Kind.String()))
	}
	if math.IsNaN(c.Target) || math.IsInf(c.Target, 0) {
		return sketcherr.New(sketcherr.CodeSketchConstraintInvalid, "target must be finite",
			sketcherr.FieldConstraint(c.Kind.String()))
	}
	switch c.Kind {
	case Distance:
		if c.Target < 0 {
			return sketcherr.New(sketcherr.CodeSketchConstraintInvalid, "distance target must not be negative",
				sketcherr.FieldConstraint(c.Kind.String()))
		}
	case Angle:
		if c.Target < 0 || c.Target > math.Pi {
			return sketcherr.New(sketcherr.CodeSketchConstraintInvalid, "angle target must lie in [0, π]",
				sketcherr.FieldConstraint(c.Kind.String()))
		}
	}
	return nil
}

// RemoveConstraint deletes the constraint at index i, shifting later ones down.
func (s *Sketch) RemoveConstraint(i int) error {
	if i < 0 || i >= len(s.constraints) {
		return sketcherr.Errorf(sketcherr.CodeSketchConstraintNotFound, "no constraint at index %d", i)
	}
	s.constraints = append(s.constraints[:i], s.constraints[i+1:]...)
	return nil
}

// Constraints returns a copy of the constraint list in insertion order.
func (s *Sketch) Constraints() []BiConstraint {
	out := make([]BiConstraint, len(s.constraints))
	copy(out, s.constraints)
	return out
}

// ConstraintErrors returns the penalty of each constraint, index-aligned with
// Constraints.
func (s *Sketch) ConstraintErrors() []float64 {
	out := make([]float64, len(s.constraints))
	for i, bc := range s.constraints {
		out[i] = Error(s.entities.MustGet(bc.E1), s.entities.MustGet(bc.E2), bc.C)
	}
	return out
}

// Error is the total penalty of the sketch, summed in constraint order.
func (s *Sketch) Error() float64 {
	total := 0.0
	for _, bc := range s.constraints {
		total += Error(s.entities.MustGet(bc.E1), s.entities.MustGet(bc.E2), bc.C)
	}
	return total
}

// Step performs one relaxation pass. For each constraint in order a fair coin
// picks which of its two entities moves one gradient step against the other.
func (s *Sketch) Step() error {
	for i, bc := range s.constraints {
		a, b, err := s.entities.GetTwo(bc.E1, bc.E2)
		if err != nil {
			return sketcherr.With(err, sketcherr.Field("constraint_index", i))
		}
		if s.rng.IntN(2) == 0 {
			err = s.entities.Set(bc.E1, ApplyGradient(a, b, bc.C, DefaultH, s.stepSize))
		} else {
			err = s.entities.Set(bc.E2, ApplyGradient(b, a, bc.C, DefaultH, s.stepSize))
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// SolveOptions bounds a Solve run.
type SolveOptions struct {
	// MaxIterations caps the number of Step calls. Zero means 20000.
	MaxIterations int
	// Tolerance stops the run once Error drops to or below it.
	Tolerance float64
	// ProgressEvery is the number of steps between Progress calls. Zero means 100.
	ProgressEvery int
	// Progress, if set, is called with the running result.
	Progress func(SolveResult)
}

// SolveResult summarises a Solve run.
type SolveResult struct {
	Iterations int     `json:"iterations"`
	Error      float64 `json:"error"`
	Converged  bool    `json:"converged"`
}

// Solve repeats Step until the total error is within tolerance, the iteration
// cap is reached or ctx is done. On cancellation the partial result is
// returned alongside the error.
func (s *Sketch) Solve(ctx context.Context, opts SolveOptions) (SolveResult, error) {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 20000
	}
	every := opts.ProgressEvery
	if every <= 0 {
		every = 100
	}

	res := SolveResult{Error: s.Error()}
	for res.Iterations < maxIter {
		if res.Error <= opts.Tolerance {
			res.Converged = true
			break
		}
		if err := ctx.Err(); err != nil {
			return res, sketcherr.Wrap(err, sketcherr.CodeSketchSolveCancelled, "solve interrupted",
				sketcherr.Field("iterations", res.Iterations))
		}
		if err := s.Step(); err != nil {
			return res, err
		}
		res.Iterations++
		res.Error = s.Error()
		if opts.Progress != nil && res.Iterations%every == 0 {
			opts.Progress(res)
		}
	}
	if !res.Converged && res.Error <= opts.Tolerance {
		res.Converged = true
	}

	s.logger.Debug("solve finished", "iterations", res.Iterations,
		"error", res.Error, "converged", res.Converged)
	return res, nil
}
