package document

import "fmt"

// HighlightMode decides how scribbles survive page changes and restarts.
type HighlightMode int

const (
	// ModeClear drops the scribbles whenever the page changes.
	ModeClear HighlightMode = iota
	// ModeSingle keeps one list for the whole deck.
	ModeSingle
	// ModePage keeps one list per page in memory.
	ModePage
	// ModeAutoPage keeps one list per page and saves them beside the file.
	ModeAutoPage
)

var modeNames = [...]string{"clear", "single", "page", "autopage"}

func (m HighlightMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return "unknown"
	}
	return modeNames[m]
}

// ParseHighlightMode parses one of clear, single, page or autopage.
func ParseHighlightMode(s string) (HighlightMode, error) {
	for i, n := range modeNames {
		if n == s {
			return HighlightMode(i), nil
		}
	}
	return ModeAutoPage, fmt.Errorf("unknown highlight mode %q", s)
}

// PerPage reports whether each page keeps its own list.
func (m HighlightMode) PerPage() bool { return m == ModePage || m == ModeAutoPage }

// ClearsOnChange reports whether the live list is emptied on page change.
func (m HighlightMode) ClearsOnChange() bool { return m != ModeSingle }
