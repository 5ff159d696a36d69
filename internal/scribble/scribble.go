// Package scribble holds the annotation objects drawn over slides, the
// geometry used to hit-test them and the undoable model that owns them.
package scribble

import (
	"image"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// Kind discriminates the scribble variants.
type Kind int

const (
	KindSegment Kind = iota
	KindBox
	KindEllipse
	KindText
	KindLatex
	KindImage
)

var kindNames = [...]string{"segment", "box", "ellipse", "text", "latex", "image"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, bool) {
	for i, n := range kindNames {
		if n == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Base carries the fields shared by every scribble. Coordinates are
// fractions of the page width and height.
type Base struct {
	Color  RGBA
	Width  float64
	Points []vec.Vec2
	Box    rect.Rect
}

// Attrs returns b itself so that embedding types satisfy Scribble.
func (b *Base) Attrs() *Base { return b }

func (b *Base) clonePoints() []vec.Vec2 {
	if b.Points == nil {
		return nil
	}
	return append([]vec.Vec2(nil), b.Points...)
}

// Scribble is one annotation object. Values are always pointers so that
// identity comparisons (==) track a single object through the undo stack.
type Scribble interface {
	Kind() Kind
	Attrs() *Base
	Clone() Scribble
}

// Segment is a polyline: a freehand stroke, a straight line or an arrow.
type Segment struct {
	Base
}

func (s *Segment) Kind() Kind { return KindSegment }

func (s *Segment) Clone() Scribble {
	c := *s
	c.Points = s.clonePoints()
	return &c
}

// Append adds p to the polyline and grows the bounding box.
func (s *Segment) Append(p vec.Vec2) {
	s.Points = append(s.Points, p)
	if len(s.Points) == 1 {
		s.Box = rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X, URy: p.Y}
		return
	}
	s.Box = extend(s.Box, p)
}

// Shape is a box or an ellipse inscribed in the rectangle spanned by its
// two corner points.
type Shape struct {
	Base
	Ellipse bool
	Fill    RGBA
}

func (s *Shape) Kind() Kind {
	if s.Ellipse {
		return KindEllipse
	}
	return KindBox
}

func (s *Shape) Clone() Scribble {
	c := *s
	c.Points = s.clonePoints()
	return &c
}

// SetCorner moves the second corner and refreshes the bounding box.
func (s *Shape) SetCorner(p vec.Vec2) {
	if len(s.Points) < 2 {
		s.Points = append(s.Points[:0], p, p)
	}
	s.Points[1] = p
	s.Box = pointsBox(s.Points)
}

// Align is the horizontal alignment of a text block around its anchor.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return "left"
}

// ParseAlign maps a name to an Align, defaulting to AlignLeft.
func ParseAlign(s string) Align {
	switch s {
	case "center", "centre":
		return AlignCenter
	case "right":
		return AlignRight
	}
	return AlignLeft
}

// Font describes the face used for text scribbles. Size is expressed in
// the same page-width units as stroke widths.
type Font struct {
	Family string
	Size   float64
}

// Measurer reports the extent of a text block as fractions of the page.
type Measurer interface {
	MeasureText(text string, f Font) (w, h float64)
}

// Text is an editable block of text anchored at Points[0].
type Text struct {
	Base
	Text  string
	Font  Font
	Align Align
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) Clone() Scribble {
	c := *t
	c.Points = t.clonePoints()
	return &c
}

// Anchor returns the point the text is positioned from.
func (t *Text) Anchor() vec.Vec2 { return anchor(&t.Base) }

// Layout recomputes the bounding box from the current text.
func (t *Text) Layout(m Measurer) {
	if m == nil {
		return
	}
	w, h := m.MeasureText(t.Text, t.Font)
	t.Box = alignedBox(t.Anchor(), w, h, t.Align)
}

// Latex is a LaTeX source rendered to a raster on demand. Raster is valid
// only while RenderedFrom equals Text.
type Latex struct {
	Base
	Text         string
	Font         Font
	Raster       image.Image
	RenderedFrom string
}

func (l *Latex) Kind() Kind { return KindLatex }

func (l *Latex) Clone() Scribble {
	c := *l
	c.Points = l.clonePoints()
	return &c
}

// Anchor returns the top-left corner of the rendered formula.
func (l *Latex) Anchor() vec.Vec2 { return anchor(&l.Base) }

// Stale reports whether the cached raster no longer matches the source.
func (l *Latex) Stale() bool {
	return l.Raster == nil || l.RenderedFrom != l.Text
}

// SetRaster stores a rendering of the current source with its size as
// page fractions.
func (l *Latex) SetRaster(img image.Image, w, h float64) {
	l.Raster = img
	l.RenderedFrom = l.Text
	l.Box = alignedBox(l.Anchor(), w, h, AlignLeft)
}

// Layout sizes the box from the measured source while no rendering of the
// current text exists, so that the formula can still be hit and reopened.
func (l *Latex) Layout(m Measurer) {
	if m == nil || !l.Stale() {
		return
	}
	w, h := m.MeasureText(l.Text, l.Font)
	l.Box = alignedBox(l.Anchor(), w, h, AlignLeft)
}

// Invalidate drops the cached rendering.
func (l *Latex) Invalidate() {
	l.Raster = nil
	l.RenderedFrom = ""
}

// Image is a raster placed on the page. Box holds its placement.
type Image struct {
	Base
	Raster *image.NRGBA
}

func (i *Image) Kind() Kind { return KindImage }

func (i *Image) Clone() Scribble {
	c := *i
	c.Points = i.clonePoints()
	return &c
}

// Anchor returns the top-left corner of the image.
func (i *Image) Anchor() vec.Vec2 { return anchor(&i.Base) }

// Place positions the image at p with the given size in page fractions.
func (i *Image) Place(p vec.Vec2, w, h float64) {
	i.Points = []vec.Vec2{p}
	i.Box = rect.Rect{LLx: p.X, LLy: p.Y, URx: p.X + w, URy: p.Y + h}
}

func anchor(b *Base) vec.Vec2 {
	if len(b.Points) == 0 {
		return vec.Vec2{X: b.Box.LLx, Y: b.Box.LLy}
	}
	return b.Points[0]
}

func alignedBox(p vec.Vec2, w, h float64, a Align) rect.Rect {
	x := p.X
	switch a {
	case AlignCenter:
		x -= w / 2
	case AlignRight:
		x -= w
	}
	return rect.Rect{LLx: x, LLy: p.Y, URx: x + w, URy: p.Y + h}
}

// Translate moves every point of s, and its bounding box, by d.
func Translate(s Scribble, d vec.Vec2) {
	b := s.Attrs()
	for i := range b.Points {
		b.Points[i] = b.Points[i].Add(d)
	}
	b.Box = rect.Rect{LLx: b.Box.LLx + d.X, LLy: b.Box.LLy + d.Y, URx: b.Box.URx + d.X, URy: b.Box.URy + d.Y}
}

// Finalize normalizes the bounding box of s so that its lower corner is
// componentwise smaller than its upper corner. Segments and shapes
// recompute it from their points.
func Finalize(s Scribble) {
	b := s.Attrs()
	switch s.(type) {
	case *Segment, *Shape:
		if len(b.Points) > 0 {
			b.Box = pointsBox(b.Points)
			return
		}
	}
	b.Box = normalize(b.Box)
}

// Bounds returns the bounding box of s, computing it from the points when
// it has never been set.
func Bounds(s Scribble) rect.Rect {
	b := s.Attrs()
	if b.Box == (rect.Rect{}) && len(b.Points) > 0 {
		Finalize(s)
	}
	return b.Box
}

// Clean drops degenerate objects: strokes with fewer than two points and
// text with no content. The returned slice shares the backing array.
func Clean(list []Scribble) []Scribble {
	out := list[:0]
	for _, s := range list {
		switch v := s.(type) {
		case *Segment:
			if len(v.Points) < 2 {
				continue
			}
		case *Text:
			if v.Text == "" {
				continue
			}
		case *Latex:
			if v.Text == "" {
				continue
			}
		}
		out = append(out, s)
	}
	for i := len(out); i < len(list); i++ {
		list[i] = nil
	}
	return out
}
