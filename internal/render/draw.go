package render

import (
	"image"
	"log"
	"strings"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"seehuhn.de/go/geom/rect"

	"github.com/example/lectern/internal/scribble"
)

// Caret marks the insertion point of the text being edited. Pos is a byte
// offset into the target's text.
type Caret struct {
	Target scribble.Scribble
	Pos    int
}

// LatexFunc renders a stale LaTeX scribble and stores the raster on it.
type LatexFunc func(l *scribble.Latex) error

// Options control DrawScribbles.
type Options struct {
	// PageWidth is the page width in the units of stroke widths and font
	// sizes. Zero draws them in pixels.
	PageWidth float64
	// Selected reports whether an item is selected. With IncludeSelected
	// unset, selected items are skipped.
	Selected        func(scribble.Scribble) bool
	IncludeSelected bool
	Caret           *Caret
	Latex           LatexFunc
	Fonts           *Fonts
}

func (o Options) scale(widthPx int) float64 {
	if o.PageWidth <= 0 {
		return 1
	}
	return float64(widthPx) / o.PageWidth
}

// DrawScribbles draws items, in order, over the whole of dc.
func DrawScribbles(dc *gg.Context, items []scribble.Scribble, opts Options) error {
	if opts.Fonts == nil {
		opts.Fonts = NewFonts()
	}
	w, h := float64(dc.Width()), float64(dc.Height())
	scale := opts.scale(dc.Width())
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	for _, s := range items {
		if !opts.IncludeSelected && opts.Selected != nil && opts.Selected(s) {
			continue
		}
		if err := drawOne(dc, s, w, h, scale, opts); err != nil {
			return err
		}
	}
	return nil
}

func setColor(dc *gg.Context, c scribble.RGBA) {
	dc.SetRGBA(c.R, c.G, c.B, c.A)
}

func drawOne(dc *gg.Context, s scribble.Scribble, w, h, scale float64, opts Options) error {
	b := s.Attrs()
	switch v := s.(type) {
	case *scribble.Segment:
		if len(v.Points) < 2 {
			return nil
		}
		setColor(dc, b.Color)
		dc.SetLineWidth(b.Width * scale)
		dc.MoveTo(v.Points[0].X*w, v.Points[0].Y*h)
		for _, p := range v.Points[1:] {
			dc.LineTo(p.X*w, p.Y*h)
		}
		return dc.Stroke()
	case *scribble.Shape:
		if len(v.Points) < 2 {
			return nil
		}
		x0, y0 := v.Points[0].X*w, v.Points[0].Y*h
		x1, y1 := v.Points[1].X*w, v.Points[1].Y*h
		if v.Ellipse {
			dc.DrawEllipse((x0+x1)/2, (y0+y1)/2, abs(x1-x0)/2, abs(y1-y0)/2)
		} else {
			dc.MoveTo(x0, y0)
			dc.LineTo(x0, y1)
			dc.LineTo(x1, y1)
			dc.LineTo(x1, y0)
			dc.ClosePath()
		}
		if v.Fill.A > 0 {
			setColor(dc, v.Fill)
			if err := dc.FillPreserve(); err != nil {
				return err
			}
		}
		setColor(dc, b.Color)
		dc.SetLineWidth(b.Width * scale)
		return dc.Stroke()
	case *scribble.Text:
		caret := -1
		if opts.Caret != nil && opts.Caret.Target == s {
			caret = opts.Caret.Pos
		}
		return drawText(dc, v, w, h, scale, caret, opts.Fonts)
	case *scribble.Image:
		if v.Raster == nil {
			return nil
		}
		blit(dc, v.Raster, scribble.Bounds(v), w, h)
	case *scribble.Latex:
		if v.RenderedFrom != v.Text && v.Text != "" && opts.Latex != nil {
			if err := opts.Latex(v); err != nil {
				log.Printf("latex: %v", err)
			}
		}
		if v.Raster == nil || v.Stale() {
			return nil
		}
		blit(dc, v.Raster, v.Box, w, h)
	}
	return nil
}

func blit(dc *gg.Context, img image.Image, box rect.Rect, w, h float64) {
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		X:         box.LLx * w,
		Y:         box.LLy * h,
		DstWidth:  (box.URx - box.LLx) * w,
		DstHeight: (box.URy - box.LLy) * h,
		Opacity:   1,
	})
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func alignX(x, width float64, a scribble.Align) float64 {
	switch a {
	case scribble.AlignCenter:
		return x - width/2
	case scribble.AlignRight:
		return x - width
	}
	return x
}

// drawText lays the text out line by line from its anchor. caret is a byte
// offset, or negative when the text is not being edited.
func drawText(dc *gg.Context, t *scribble.Text, w, h, scale float64, caret int, fonts *Fonts) error {
	if t.Text == "" && caret < 0 {
		return nil
	}
	face, err := fonts.Face(t.Font.Family, t.Font.Size*scale)
	if err != nil {
		return err
	}
	dc.SetFont(face)
	setColor(dc, t.Color)
	m := face.Metrics()
	lh := m.Ascent + m.Descent + m.LineGap
	a := t.Anchor()
	x0, y0 := a.X*w, a.Y*h

	offset := 0
	for i, line := range strings.Split(t.Text, "\n") {
		x := alignX(x0, face.Advance(line), t.Align)
		base := y0 + m.Ascent + float64(i)*lh
		dc.DrawString(line, x, base)
		if caret >= offset && caret <= offset+len(line) {
			if err := drawCaret(dc, face, line[:caret-offset], x, base); err != nil {
				return err
			}
			caret = -1
		}
		offset += len(line) + 1
	}
	return nil
}

func drawCaret(dc *gg.Context, face text.Face, before string, x, base float64) error {
	m := face.Metrics()
	cx := x + face.Advance(before)
	dc.SetLineWidth(max(1, m.Ascent/12))
	dc.MoveTo(cx, base-m.Ascent)
	dc.LineTo(cx, base+m.Descent)
	return dc.Stroke()
}

// DrawSelection outlines every selected item with a dashed rectangle.
func DrawSelection(dc *gg.Context, items []scribble.Scribble, selected func(scribble.Scribble) bool, c scribble.RGBA) error {
	w, h := float64(dc.Width()), float64(dc.Height())
	dc.SetDash(6, 4)
	defer dc.SetDash()
	setColor(dc, c)
	dc.SetLineWidth(1.5)
	for _, s := range items {
		if !selected(s) {
			continue
		}
		b := scribble.Bounds(s)
		pad := s.Attrs().Width / 2
		dc.DrawRectangle(b.LLx*w-pad, b.LLy*h-pad, (b.URx-b.LLx)*w+2*pad, (b.URy-b.LLy)*h+2*pad)
		if err := dc.Stroke(); err != nil {
			return err
		}
	}
	return nil
}
