package document

import "math"

// Part selects which portion of a PDF page is shown when slides carry
// their notes on one half of the page.
type Part int

const (
	// PartNone means the document has no notes. It is the only falsy value.
	PartNone Part = iota
	PartFull
	PartBottom
	PartTop
	PartRight
	PartLeft
)

var partNames = [...]string{"none", "full", "bottom", "top", "right", "left"}

func (p Part) String() string {
	if p < 0 || int(p) >= len(partNames) {
		return "unknown"
	}
	return partNames[p]
}

// ParsePart returns the part named s.
func ParsePart(s string) (Part, bool) {
	for i, n := range partNames {
		if n == s {
			return Part(i), true
		}
	}
	return PartNone, false
}

// Complement returns the other half of the page.
func (p Part) Complement() Part { return p ^ 1 }

// Scale returns the part that only scales and never shifts.
func (p Part) Scale() Part { return p | 1 }

// Horizontal reports whether the page is split left/right.
func (p Part) Horizontal() bool { return p >= PartRight }

// Direction names the config key for the split direction.
func (p Part) Direction() string {
	if p.Horizontal() {
		return "horizontal"
	}
	return "vertical"
}

// FromScreen maps coordinates on the visible part, in [0,1], to
// coordinates on the whole page.
func (p Part) FromScreen(x, y float64) (float64, float64) {
	switch p {
	case PartRight:
		return (1 + x) / 2, y
	case PartLeft:
		return x / 2, y
	case PartBottom:
		return x, (1 + y) / 2
	case PartTop:
		return x, y / 2
	}
	return x, y
}

// ToScreen is the inverse of FromScreen.
func (p Part) ToScreen(x, y float64) (float64, float64) {
	switch p {
	case PartRight:
		return x*2 - 1, y
	case PartLeft:
		return x * 2, y
	case PartBottom:
		return x, y*2 - 1
	case PartTop:
		return x, y * 2
	}
	return x, y
}

const (
	letterRatio = 8.5 / 11
	isoRatio    = 1 / math.Sqrt2
)

// GuessNotes guesses the notes layout of a page from its aspect ratio.
// Very wide pages hold notes beside the slide, tall non-paper pages hold
// them below.
func GuessNotes(width, height float64, horizontal, vertical Part) Part {
	if height == 0 {
		return PartNone
	}
	ar := width / height
	switch {
	case ar >= 2:
		if horizontal != PartNone {
			return horizontal
		}
		return PartRight
	case math.Abs(ar-letterRatio) < 1e-3 || math.Abs(ar-isoRatio) < 1e-3:
		return PartNone
	case ar < 1:
		if vertical != PartNone {
			return vertical
		}
		return PartBottom
	}
	return PartNone
}
