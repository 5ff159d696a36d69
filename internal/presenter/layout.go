package presenter

import (
	"image"
	"image/color"
	"math"

	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/input"
	"github.com/example/lectern/internal/theme"
)

const (
	margin       = 12
	borderWidth  = 3
	labelHeight  = 22
	statusHeight = 36
	// consoleSplit is the share of the console width given to the main pane.
	consoleSplit = 0.6
)

// pane is one page drawn in a window.
type pane struct {
	rect image.Rectangle
	page int
	part document.Part
	// live panes show the session's scribbles and take pointer input.
	live   bool
	border color.RGBA
	label  string
}

// viewport maps window pixels inside the pane to whole-page fractions.
func (p pane) viewport() input.Viewport {
	v := input.Viewport{Rect: p.rect}
	if p.part != document.PartNone && p.part != document.PartFull {
		v.FromScreen = p.part.FromScreen
	}
	return v
}

// screenPoint maps a whole-page fraction to window pixels. It reports
// false when the point lies outside the part shown.
func (p pane) screenPoint(x, y float64) (image.Point, bool) {
	x, y = p.part.ToScreen(x, y)
	if x < 0 || x > 1 || y < 0 || y > 1 {
		return image.Point{}, false
	}
	return image.Pt(
		p.rect.Min.X+int(math.Round(x*float64(p.rect.Dx()))),
		p.rect.Min.Y+int(math.Round(y*float64(p.rect.Dy()))),
	), true
}

type layout struct {
	panes []pane
	// status holds the page counter and the clock. Empty in the content
	// window.
	status image.Rectangle
	// annotations lists the PDF annotations of the current page.
	annotations image.Rectangle
}

// liveAt returns the live pane under pt.
func (l layout) liveAt(pt image.Point) (pane, bool) {
	for _, p := range l.panes {
		if p.live && pt.In(p.rect) {
			return p, true
		}
	}
	return pane{}, false
}

// fit returns the largest rectangle of the given aspect ratio centred in
// area.
func fit(area image.Rectangle, aspect float64) image.Rectangle {
	if area.Empty() || aspect <= 0 {
		return image.Rectangle{}
	}
	w := area.Dx()
	h := int(math.Round(float64(w) / aspect))
	if h > area.Dy() {
		h = area.Dy()
		w = int(math.Round(float64(h) * aspect))
	}
	x := area.Min.X + (area.Dx()-w)/2
	y := area.Min.Y + (area.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// fullSize returns the size of the whole page image whose part fills r.
func fullSize(r image.Rectangle, part document.Part) image.Point {
	w, h := r.Dx(), r.Dy()
	switch part {
	case document.PartRight, document.PartLeft:
		w *= 2
	case document.PartBottom, document.PartTop:
		h *= 2
	}
	return image.Pt(w, h)
}

// partOffset returns where part starts in a whole page image of size full.
func partOffset(full image.Point, part document.Part) image.Point {
	fx, fy := part.FromScreen(0, 0)
	return image.Pt(int(math.Round(fx*float64(full.X))), int(math.Round(fy*float64(full.Y))))
}

// contentPart is the half of the page the audience sees.
func contentPart(notes document.Part) document.Part {
	if notes == document.PartNone || notes == document.PartFull {
		return document.PartFull
	}
	return notes.Complement()
}

// contentLayout fills the window with the slide part of page cur.
func contentLayout(size image.Point, doc *document.Document, cur int, notes document.Part) layout {
	page := doc.Page(cur)
	if page == nil {
		return layout{}
	}
	part := contentPart(notes)
	r := fit(image.Rectangle{Max: size}, page.AspectRatio(part))
	return layout{panes: []pane{{rect: r, page: cur, part: part, live: true}}}
}

// consoleLayout places the main pane on the left and the smaller views on
// the right above the status bar. The main pane shows the notes when the
// deck has them, the current slide otherwise.
func consoleLayout(size image.Point, doc *document.Document, cur int, notes document.Part, th *theme.Theme) layout {
	page := doc.Page(cur)
	if page == nil {
		return layout{}
	}
	var l layout
	l.status = image.Rect(0, size.Y-statusHeight, size.X, size.Y)
	body := image.Rect(margin, margin, size.X-margin, size.Y-statusHeight-margin)
	if body.Empty() {
		return l
	}
	split := body.Min.X + int(float64(body.Dx())*consoleSplit)
	left := image.Rect(body.Min.X, body.Min.Y, split-margin/2, body.Max.Y)
	right := image.Rect(split+margin/2, body.Min.Y, body.Max.X, body.Max.Y)
	mid := right.Min.Y + right.Dy()/2
	top := image.Rect(right.Min.X, right.Min.Y, right.Max.X, mid-margin/2-labelHeight)
	bottom := image.Rect(right.Min.X, mid+margin/2, right.Max.X, right.Max.Y-labelHeight)

	slide := contentPart(notes)
	next := cur + 1
	hasNext := next < doc.NumPages()
	preview := func(area image.Rectangle, i int, border color.RGBA, live bool) pane {
		pg := doc.Page(i)
		return pane{
			rect:   fit(area, pg.AspectRatio(slide)),
			page:   i,
			part:   slide,
			live:   live,
			border: border,
			label:  pg.Label,
		}
	}

	if slide != document.PartFull {
		l.panes = append(l.panes,
			pane{rect: fit(left, page.AspectRatio(notes)), page: cur, part: notes, live: true},
			preview(top, cur, th.CurrentBorder, true),
		)
		if hasNext {
			l.panes = append(l.panes, preview(bottom, next, th.NextBorder, false))
		}
		return l
	}

	main := pane{rect: fit(left, page.AspectRatio(slide)), page: cur, part: slide, live: true, border: th.CurrentBorder}
	l.panes = append(l.panes, main)
	if hasNext {
		l.panes = append(l.panes, preview(top, next, th.NextBorder, false))
	}
	if len(page.Annotations) > 0 {
		l.annotations = image.Rect(right.Min.X, mid+margin/2, right.Max.X, right.Max.Y)
	}
	return l
}
