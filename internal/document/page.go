package document

// Default size of pages that have nothing to derive a size from.
const (
	DefaultPageWidth  = 1.3
	DefaultPageHeight = 1.0
)

// Page is one logical page of a Document.
type Page struct {
	// Index is the logical index; it changes when pages are inserted
	// before this one.
	Index int
	// Physical is the page in the source file, or -1 for an inserted blank.
	Physical    int
	Label       string
	Width       float64
	Height      float64
	Links       []Link
	Media       []Media
	Annotations []string

	placeholder bool
}

func blankPage(index int, label string) *Page {
	return &Page{
		Index:    index,
		Physical: -1,
		Label:    label,
		Width:    DefaultPageWidth,
		Height:   DefaultPageHeight,
	}
}

// EmptyPage is shown when no document is open. It never renders.
func EmptyPage() *Page {
	p := blankPage(-1, "-")
	p.placeholder = true
	return p
}

// CanRender reports whether the page has source content to draw.
func (p *Page) CanRender() bool {
	return p != nil && !p.placeholder && p.Physical >= 0
}

// IsPlaceholder reports whether p stands in for a missing document.
func (p *Page) IsPlaceholder() bool { return p.placeholder }

// Size returns the page size for the given part of a notes page.
func (p *Page) Size(part Part) (float64, float64) {
	return part.Scale().FromScreen(p.Width, p.Height)
}

// AspectRatio returns width over height for the given part.
func (p *Page) AspectRatio(part Part) float64 {
	w, h := p.Size(part)
	if h == 0 {
		return DefaultPageWidth / DefaultPageHeight
	}
	return w / h
}

// LinkAt returns the link under (x, y), given as fractions of the visible
// part with y growing downwards.
func (p *Page) LinkAt(x, y float64, part Part) (Link, bool) {
	x, y = part.FromScreen(x, y)
	xx := p.Width * x
	yy := p.Height * (1 - y)
	for _, l := range p.Links {
		if l.IsOver(xx, yy) {
			return l, true
		}
	}
	return Link{}, false
}
