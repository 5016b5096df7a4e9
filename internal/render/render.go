// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package render draws a sketch as a raster preview. Points are dots, lines
// are clipped to the view, capped lines are segments between their end
// points and three-point arcs are drawn from start through middle to end.
// Entities touched by a violated constraint are drawn in red.
package render

import (
	"image"
	"io"
	"math"

	"github.com/gogpu/gg"

	"github.com/sigil-dev/sketch/internal/geom"
	"github.com/sigil-dev/sketch/internal/sketch"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600

	defaultMargin = 24.0
	pointRadius   = 3.0
	strokeWidth   = 2.0

	// minExtent keeps a single point or a tiny sketch from filling the image.
	minExtent = 1.0
)

var (
	backgroundColor = gg.White
	inkColor        = gg.Hex("#3c3c46")
	violatedColor   = gg.Hex("#d63a3a")
)

// Options controls the size of the preview and which constraints count as
// violated.
type Options struct {
	Width  int     // pixels; 0 means DefaultWidth
	Height int     // pixels; 0 means DefaultHeight
	Margin float64 // pixels around the content; 0 means 24

	// Tolerance is the per-constraint error above which both entities of
	// the constraint are drawn as violated.
	Tolerance float64
}

func (o Options) withDefaults() (Options, error) {
	if o.Width < 0 || o.Height < 0 || o.Margin < 0 {
		return o, sketcherr.New(sketcherr.CodeRenderOptionsInvalid, "width, height and margin must not be negative")
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Margin == 0 {
		o.Margin = defaultMargin
	}
	if 2*o.Margin >= float64(min(o.Width, o.Height)) {
		return o, sketcherr.New(sketcherr.CodeRenderOptionsInvalid, "margin leaves no room to draw",
			sketcherr.Field("margin", o.Margin))
	}
	return o, nil
}

// PNG renders s and writes it to w.
func PNG(w io.Writer, s *sketch.Sketch, opts Options) error {
	dc, err := draw(s, opts)
	if err != nil {
		return err
	}
	defer dc.Close()

	if err := dc.EncodePNG(w); err != nil {
		return sketcherr.Wrap(err, sketcherr.CodeRenderDrawFailure, "encoding png")
	}
	return nil
}

// Image renders s into a new image.
func Image(s *sketch.Sketch, opts Options) (image.Image, error) {
	dc, err := draw(s, opts)
	if err != nil {
		return nil, err
	}
	defer dc.Close()
	return dc.Image(), nil
}

func draw(s *sketch.Sketch, opts Options) (*gg.Context, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	r := &renderer{
		sketch:   s,
		view:     fit(sketchBounds(s), opts.Width, opts.Height, opts.Margin),
		violated: violatedEntities(s, opts.Tolerance),
		segments: make(map[sketch.EntityID]sketch.CappedLine),
		arcs:     make(map[sketch.EntityID]sketch.ArcThreePoint),
	}
	for _, g := range s.Guided() {
		switch g := g.(type) {
		case sketch.CappedLine:
			r.segments[g.Line] = g
		case sketch.ArcThreePoint:
			r.arcs[g.Circle] = g
		}
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.ClearWithColor(backgroundColor)
	dc.SetLineWidth(strokeWidth)
	r.dc = dc

	if err := r.drawAll(); err != nil {
		_ = dc.Close()
		return nil, sketcherr.Wrap(err, sketcherr.CodeRenderDrawFailure, "drawing sketch")
	}
	return dc, nil
}

type renderer struct {
	dc       *gg.Context
	sketch   *sketch.Sketch
	view     viewport
	violated map[sketch.EntityID]bool
	segments map[sketch.EntityID]sketch.CappedLine    // keyed by line id
	arcs     map[sketch.EntityID]sketch.ArcThreePoint // keyed by circle id
}

// drawAll strokes lines and circles first so points sit on top.
func (r *renderer) drawAll() error {
	var points []sketch.EntityID
	for id, e := range r.sketch.Entities() {
		var err error
		switch e := e.(type) {
		case sketch.Point:
			points = append(points, id)
		case sketch.Line:
			err = r.line(id, e)
		case sketch.Circle:
			err = r.circle(id, e)
		}
		if err != nil {
			return err
		}
	}

	for _, id := range points {
		e, err := r.sketch.Entity(id)
		if err != nil {
			return err
		}
		x, y := r.view.toPixel(e.(sketch.Point).Pos)
		r.dc.SetFillBrush(gg.Solid(r.color(id)))
		r.dc.DrawPoint(x, y, pointRadius)
		if err := r.dc.Fill(); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) line(id sketch.EntityID, l sketch.Line) error {
	var a, b geom.Vec2
	if seg, ok := r.segments[id]; ok {
		var okA, okB bool
		a, okA = r.pointPos(seg.Start)
		b, okB = r.pointPos(seg.End)
		if !okA || !okB {
			return nil
		}
	} else {
		n := l.Direction.Norm()
		if n == 0 {
			return nil
		}
		d := l.Direction.Scale(1 / n)
		t := r.view.center().Sub(l.Offset).Dot(d)
		reach := r.view.diagonal()
		a = l.Offset.Add(d.Scale(t - reach))
		b = l.Offset.Add(d.Scale(t + reach))
	}

	x1, y1 := r.view.toPixel(a)
	x2, y2 := r.view.toPixel(b)
	r.dc.SetStrokeBrush(gg.Solid(r.color(id)))
	r.dc.DrawLine(x1, y1, x2, y2)
	return r.dc.Stroke()
}

func (r *renderer) circle(id sketch.EntityID, c sketch.Circle) error {
	cx, cy := r.view.toPixel(c.Pos)
	radius := c.Radius * r.view.scale
	r.dc.SetStrokeBrush(gg.Solid(r.color(id)))

	arc, ok := r.arcs[id]
	if !ok {
		r.dc.DrawCircle(cx, cy, radius)
		return r.dc.Stroke()
	}

	start, okS := r.pointPos(arc.Start)
	middle, okM := r.pointPos(arc.Middle)
	end, okE := r.pointPos(arc.End)
	if !okS || !okM || !okE {
		return nil
	}
	angle := func(p geom.Vec2) float64 {
		x, y := r.view.toPixel(p)
		return math.Atan2(y-cy, x-cx)
	}
	a1, a2, am := angle(start), angle(end), angle(middle)
	// DrawArc sweeps with increasing angle; go the other way round when the
	// middle point is not on that sweep.
	if wrapAngle(am-a1) > wrapAngle(a2-a1) {
		a1, a2 = a2, a1
	}
	r.dc.DrawArc(cx, cy, radius, a1, a2)
	return r.dc.Stroke()
}

func (r *renderer) pointPos(id sketch.EntityID) (geom.Vec2, bool) {
	e, err := r.sketch.Entity(id)
	if err != nil {
		return geom.Vec2{}, false
	}
	p, ok := e.(sketch.Point)
	return p.Pos, ok
}

func (r *renderer) color(id sketch.EntityID) gg.RGBA {
	if r.violated[id] {
		return violatedColor
	}
	return inkColor
}

func violatedEntities(s *sketch.Sketch, tolerance float64) map[sketch.EntityID]bool {
	errs := s.ConstraintErrors()
	out := make(map[sketch.EntityID]bool)
	for i, c := range s.Constraints() {
		if errs[i] > tolerance {
			out[c.E1] = true
			out[c.E2] = true
		}
	}
	return out
}

func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

type bounds struct {
	min, max geom.Vec2
	empty    bool
}

func (b *bounds) include(p geom.Vec2) {
	if !p.IsFinite() {
		return
	}
	if b.empty {
		b.min, b.max, b.empty = p, p, false
		return
	}
	b.min = geom.V2(math.Min(b.min.X, p.X), math.Min(b.min.Y, p.Y))
	b.max = geom.V2(math.Max(b.max.X, p.X), math.Max(b.max.Y, p.Y))
}

// sketchBounds covers every point, every circle and one point of every line.
func sketchBounds(s *sketch.Sketch) bounds {
	b := bounds{empty: true}
	for _, e := range s.Entities() {
		switch e := e.(type) {
		case sketch.Point:
			b.include(e.Pos)
		case sketch.Line:
			b.include(e.Offset)
		case sketch.Circle:
			r := math.Abs(e.Radius)
			b.include(e.Pos.Sub(geom.V2(r, r)))
			b.include(e.Pos.Add(geom.V2(r, r)))
		}
	}
	for _, axis := range []struct{ lo, hi *float64 }{
		{&b.min.X, &b.max.X},
		{&b.min.Y, &b.max.Y},
	} {
		if span := *axis.hi - *axis.lo; span < minExtent {
			pad := (minExtent - span) / 2
			*axis.lo -= pad
			*axis.hi += pad
		}
	}
	return b
}

// viewport maps sketch coordinates to pixels with y pointing up.
type viewport struct {
	origin  geom.Vec2 // sketch point drawn at (offsetX, height - offsetY)
	scale   float64   // pixels per sketch unit
	offsetX float64
	offsetY float64
	width   float64
	height  float64
}

func fit(b bounds, width, height int, margin float64) viewport {
	w, h := float64(width), float64(height)
	span := b.max.Sub(b.min)
	scale := math.Min((w-2*margin)/span.X, (h-2*margin)/span.Y)
	return viewport{
		origin:  b.min,
		scale:   scale,
		offsetX: (w - span.X*scale) / 2,
		offsetY: (h - span.Y*scale) / 2,
		width:   w,
		height:  h,
	}
}

func (v viewport) toPixel(p geom.Vec2) (float64, float64) {
	d := p.Sub(v.origin)
	return v.offsetX + d.X*v.scale, v.height - (v.offsetY + d.Y*v.scale)
}

// center is the sketch point drawn at the middle of the image.
func (v viewport) center() geom.Vec2 {
	return v.origin.Add(geom.V2(v.width/2-v.offsetX, v.height/2-v.offsetY).Scale(1 / v.scale))
}

// diagonal is the image diagonal in sketch units.
func (v viewport) diagonal() float64 {
	return math.Hypot(v.width, v.height) / v.scale
}
