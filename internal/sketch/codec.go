// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sketch

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/sigil-dev/sketch/internal/geom"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format for whole sketches.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is the serialized form of a sketch. Entity ids are carried
// explicitly so that they round-trip, including gaps left by removals.
type Document struct {
	Entities     []EntityDoc     `json:"entities" yaml:"entities"`
	Constraints  []ConstraintDoc `json:"constraints" yaml:"constraints"`
	Guided       []GuidedDoc     `json:"guided,omitempty" yaml:"guided,omitempty"`
	StepSize     float64         `json:"step_size" yaml:"step_size"`
	NextEntityID int64           `json:"next_entity_id" yaml:"next_entity_id"`
	NextGuidedID int64           `json:"next_guided_id,omitempty" yaml:"next_guided_id,omitempty"`
}

// EntityDoc is one fundamental entity. Which geometry fields are required
// depends on Type.
type EntityDoc struct {
	ID        int64      `json:"id" yaml:"id"`
	Type      string     `json:"type" yaml:"type" enum:"point,line,circle"`
	Pos       *geom.Vec2 `json:"pos,omitempty" yaml:"pos,omitempty"`
	Offset    *geom.Vec2 `json:"offset,omitempty" yaml:"offset,omitempty"`
	Direction *geom.Vec2 `json:"direction,omitempty" yaml:"direction,omitempty"`
	Radius    *float64   `json:"radius,omitempty" yaml:"radius,omitempty"`
}

// ConstraintDoc is one constraint. Target is required for distance and angle
// and rejected otherwise.
type ConstraintDoc struct {
	E1     int64    `json:"e1" yaml:"e1"`
	E2     int64    `json:"e2" yaml:"e2"`
	Type   string   `json:"type" yaml:"type"`
	Target *float64 `json:"target,omitempty" yaml:"target,omitempty"`
}

// GuidedDoc is one guided entity. Entity is used by the point, line and
// circle types; the composite types name their parts.
type GuidedDoc struct {
	ID     int64  `json:"id" yaml:"id"`
	Type   string `json:"type" yaml:"type"`
	Entity *int64 `json:"entity,omitempty" yaml:"entity,omitempty"`
	Start  *int64 `json:"start,omitempty" yaml:"start,omitempty"`
	Middle *int64 `json:"middle,omitempty" yaml:"middle,omitempty"`
	End    *int64 `json:"end,omitempty" yaml:"end,omitempty"`
	Line   *int64 `json:"line,omitempty" yaml:"line,omitempty"`
	Circle *int64 `json:"circle,omitempty" yaml:"circle,omitempty"`
}

func vecPtr(v geom.Vec2) *geom.Vec2 { return &v }
func f64Ptr(v float64) *float64     { return &v }

func idPtr(id EntityID) *int64 {
	v := int64(id)
	return &v
}

// EncodeEntity returns the serialized form of one entity.
func EncodeEntity(id EntityID, e Entity) EntityDoc {
	ed := EntityDoc{ID: int64(id), Type: e.Kind().String()}
	switch v := e.(type) {
	case Point:
		ed.Pos = vecPtr(v.Pos)
	case Line:
		ed.Offset = vecPtr(v.Offset)
		ed.Direction = vecPtr(v.Direction)
	case Circle:
		ed.Pos = vecPtr(v.Pos)
		ed.Radius = f64Ptr(v.Radius)
	}
	return ed
}

// Document snapshots the sketch. It fails if any entity has diverged to a
// non-finite value, since such geometry cannot be written out.
func (s *Sketch) Document() (Document, error) {
	doc := Document{
		Entities:     []EntityDoc{},
		Constraints:  []ConstraintDoc{},
		StepSize:     s.stepSize,
		NextEntityID: int64(s.entities.NextID()),
		NextGuidedID: int64(s.guided.NextID()),
	}

	for id, e := range s.entities.All() {
		if !isFinite(e) {
			return Document{}, sketcherr.New(sketcherr.CodeSketchCodecInvalidFormat,
				"entity geometry is not finite", sketcherr.FieldEntityID(int64(id)))
		}
		doc.Entities = append(doc.Entities, EncodeEntity(id, e))
	}

	for _, bc := range s.constraints {
		cd := ConstraintDoc{E1: int64(bc.E1), E2: int64(bc.E2), Type: bc.C.Kind.String()}
		if bc.C.Kind.HasTarget() {
			cd.Target = f64Ptr(bc.C.Target)
		}
		doc.Constraints = append(doc.Constraints, cd)
	}

	for gid, g := range s.guided.All() {
		doc.Guided = append(doc.Guided, EncodeGuided(gid, g))
	}
	return doc, nil
}

// EncodeGuided returns the serialized form of one guided entity.
func EncodeGuided(gid GuidedID, g Guided) GuidedDoc {
	gd := GuidedDoc{ID: int64(gid), Type: g.GuidedKind()}
	switch v := g.(type) {
	case GuidedPoint:
		gd.Entity = idPtr(v.ID)
	case GuidedLine:
		gd.Entity = idPtr(v.ID)
	case GuidedCircle:
		gd.Entity = idPtr(v.ID)
	case CappedLine:
		gd.Start, gd.End, gd.Line = idPtr(v.Start), idPtr(v.End), idPtr(v.Line)
	case ArcThreePoint:
		gd.Start, gd.Middle, gd.End, gd.Circle = idPtr(v.Start), idPtr(v.Middle), idPtr(v.End), idPtr(v.Circle)
	}
	return gd
}

// maxIDGap bounds how far ids in a document may run past the number of
// entries it holds. Registries are dense, so every id below the highest one
// costs a slot.
const maxIDGap = 1 << 20

// checkIDBound rejects an id or next-id counter that is beyond count entries
// plus maxIDGap.
func checkIDBound(field string, id int64, count int) error {
	if limit := int64(count) + maxIDGap; id > limit {
		return invalidDoc("%s %d exceeds the limit of %d for %d entries", field, id, limit, count)
	}
	return nil
}

func invalidDoc(format string, args ...any) error {
	return sketcherr.Errorf(sketcherr.CodeSketchCodecInvalidFormat, format, args...)
}

// FromDocument rebuilds a sketch. Unknown types, missing geometry, duplicate
// ids, dangling references and constraints that could not have been created
// through AddConstraint are all rejected. A positive StepSize in the document
// overrides any WithStepSize option.
func FromDocument(doc Document, opts ...Option) (*Sketch, error) {
	s := New(opts...)
	if doc.StepSize > 0 {
		s.stepSize = doc.StepSize
	} else if doc.StepSize < 0 {
		return nil, invalidDoc("step_size must be positive, got %g", doc.StepSize)
	}

	for i, ed := range doc.Entities {
		e, err := DecodeEntity(ed)
		if err != nil {
			return nil, sketcherr.With(err, sketcherr.Field("entity_index", i))
		}
		if err := checkIDBound("entity id", ed.ID, len(doc.Entities)); err != nil {
			return nil, sketcherr.With(err, sketcherr.Field("entity_index", i))
		}
		if err := s.entities.place(EntityID(ed.ID), e); err != nil {
			return nil, err
		}
	}
	if err := checkIDBound("next_entity_id", doc.NextEntityID, len(doc.Entities)); err != nil {
		return nil, err
	}
	// A zero next_entity_id means the field was omitted.
	if doc.NextEntityID != 0 && doc.NextEntityID < int64(s.entities.NextID()) {
		return nil, invalidDoc("next_entity_id %d is not above every entity id", doc.NextEntityID)
	}
	s.entities.reserve(EntityID(doc.NextEntityID))

	for i, cd := range doc.Constraints {
		bc, err := s.decodeConstraint(cd)
		if err != nil {
			return nil, sketcherr.With(err, sketcherr.Field("constraint_index", i))
		}
		s.constraints = append(s.constraints, bc)
	}

	for i, gd := range doc.Guided {
		g, err := s.decodeGuided(gd)
		if err != nil {
			return nil, sketcherr.With(err, sketcherr.Field("guided_index", i))
		}
		if err := checkIDBound("guided id", gd.ID, len(doc.Guided)); err != nil {
			return nil, sketcherr.With(err, sketcherr.Field("guided_index", i))
		}
		if err := s.guided.place(GuidedID(gd.ID), g); err != nil {
			return nil, err
		}
	}
	if err := checkIDBound("next_guided_id", doc.NextGuidedID, len(doc.Guided)); err != nil {
		return nil, err
	}
	if doc.NextGuidedID != 0 && doc.NextGuidedID < int64(s.guided.NextID()) {
		return nil, invalidDoc("next_guided_id %d is not above every guided id", doc.NextGuidedID)
	}
	s.guided.reserve(GuidedID(doc.NextGuidedID))
	return s, nil
}

// DecodeEntity builds the entity described by ed and checks it with
// ValidateEntity. The id is not consulted.
func DecodeEntity(ed EntityDoc) (Entity, error) {
	e, err := decodeGeometry(ed)
	if err != nil {
		return nil, err
	}
	if err := ValidateEntity(e); err != nil {
		return nil, invalidDoc("entity %d: %v", ed.ID, err)
	}
	return e, nil
}

func decodeGeometry(ed EntityDoc) (Entity, error) {
	kind, err := ParseKind(ed.Type)
	if err != nil {
		return nil, invalidDoc("entity %d has unknown type %q", ed.ID, ed.Type)
	}
	switch kind {
	case KindPoint:
		if ed.Pos == nil {
			return nil, invalidDoc("point %d has no pos", ed.ID)
		}
		return Point{Pos: *ed.Pos}, nil
	case KindLine:
		if ed.Offset == nil || ed.Direction == nil {
			return nil, invalidDoc("line %d needs offset and direction", ed.ID)
		}
		return Line{Offset: *ed.Offset, Direction: *ed.Direction}, nil
	default:
		if ed.Pos == nil || ed.Radius == nil {
			return nil, invalidDoc("circle %d needs pos and radius", ed.ID)
		}
		return Circle{Pos: *ed.Pos, Radius: *ed.Radius}, nil
	}
}

// DecodeConstraint parses the kind and target of cd. The entity ids are not
// consulted.
func DecodeConstraint(cd ConstraintDoc) (Constraint, error) {
	kind, err := ParseConstraintKind(cd.Type)
	if err != nil {
		return Constraint{}, err
	}
	c := Constraint{Kind: kind}
	switch {
	case kind.HasTarget() && cd.Target == nil:
		return Constraint{}, invalidDoc("%s constraint needs a target", kind)
	case !kind.HasTarget() && cd.Target != nil:
		return Constraint{}, invalidDoc("%s constraint takes no target", kind)
	case cd.Target != nil:
		c.Target = *cd.Target
	}
	return c, nil
}

func (s *Sketch) decodeConstraint(cd ConstraintDoc) (BiConstraint, error) {
	c, err := DecodeConstraint(cd)
	if err != nil {
		return BiConstraint{}, err
	}

	e1, e2 := EntityID(cd.E1), EntityID(cd.E2)
	// Lookup failures are reported as malformed input, not as not-found.
	a, b, err := s.entities.GetTwo(e1, e2)
	if err != nil {
		return BiConstraint{}, invalidDoc("constraint %d-%d: %v", cd.E1, cd.E2, err)
	}
	if err := validateConstraint(a.Kind(), b.Kind(), c); err != nil {
		return BiConstraint{}, invalidDoc("constraint %d-%d: %v", cd.E1, cd.E2, err)
	}
	return BiConstraint{E1: e1, E2: e2, C: c}, nil
}

func (s *Sketch) decodeGuided(gd GuidedDoc) (Guided, error) {
	ref := func(name string, p *int64, want Kind) (EntityID, error) {
		if p == nil {
			return NoEntity, invalidDoc("guided %s %d has no %s", gd.Type, gd.ID, name)
		}
		e, err := s.entities.Get(EntityID(*p))
		if err != nil {
			return NoEntity, invalidDoc("guided %s %d: %s %d does not exist", gd.Type, gd.ID, name, *p)
		}
		if e.Kind() != want {
			return NoEntity, invalidDoc("guided %s %d: %s must be a %s, not a %s", gd.Type, gd.ID, name, want, e.Kind())
		}
		return EntityID(*p), nil
	}

	var errs []error
	must := func(id EntityID, err error) EntityID {
		if err != nil {
			errs = append(errs, err)
		}
		return id
	}

	var g Guided
	switch gd.Type {
	case "point":
		g = GuidedPoint{ID: must(ref("entity", gd.Entity, KindPoint))}
	case "line":
		g = GuidedLine{ID: must(ref("entity", gd.Entity, KindLine))}
	case "circle":
		g = GuidedCircle{ID: must(ref("entity", gd.Entity, KindCircle))}
	case "capped_line":
		g = CappedLine{
			Start: must(ref("start", gd.Start, KindPoint)),
			End:   must(ref("end", gd.End, KindPoint)),
			Line:  must(ref("line", gd.Line, KindLine)),
		}
	case "arc_three_point":
		g = ArcThreePoint{
			Start:  must(ref("start", gd.Start, KindPoint)),
			Middle: must(ref("middle", gd.Middle, KindPoint)),
			End:    must(ref("end", gd.End, KindPoint)),
			Circle: must(ref("circle", gd.Circle, KindCircle)),
		}
	default:
		return nil, invalidDoc("unknown guided entity type %q", gd.Type)
	}
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return g, nil
}

// Encode serializes s in the given format.
func Encode(s *Sketch, format Format) ([]byte, error) {
	doc, err := s.Document()
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, sketcherr.Wrap(err, sketcherr.CodeSketchCodecInvalidFormat, "encoding yaml")
		}
		if err := enc.Close(); err != nil {
			return nil, sketcherr.Wrap(err, sketcherr.CodeSketchCodecInvalidFormat, "encoding yaml")
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, sketcherr.Wrap(err, sketcherr.CodeSketchCodecInvalidFormat, "encoding json")
		}
		return append(data, '\n'), nil
	default:
		return nil, invalidDoc("unsupported format %q", format)
	}
}

// Decode parses data in the given format. Unknown fields are rejected.
func Decode(data []byte, format Format, opts ...Option) (*Sketch, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return nil, sketcherr.Wrap(err, sketcherr.CodeSketchCodecInvalidFormat, "decoding yaml")
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, sketcherr.Wrap(err, sketcherr.CodeSketchCodecInvalidFormat, "decoding json")
		}
	default:
		return nil, invalidDoc("unsupported format %q", format)
	}
	return FromDocument(doc, opts...)
}
