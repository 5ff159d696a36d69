package document

import (
	"image"

	"seehuhn.de/go/geom/rect"
)

// ActionKind tells what following a link does.
type ActionKind int

const (
	ActionNone ActionKind = iota
	// ActionGoto jumps to Page, a physical page index.
	ActionGoto
	// ActionGotoDest jumps to the named destination Dest.
	ActionGotoDest
	// ActionNamed runs one of the standard named actions in Name.
	ActionNamed
	// ActionLaunch opens File with the desktop handler.
	ActionLaunch
	// ActionURI opens URI in a browser.
	ActionURI
	// ActionMedia plays the Media attached to the action.
	ActionMedia
	// ActionUnsupported is logged and otherwise ignored.
	ActionUnsupported
)

// Action is what a link or annotation does when followed.
type Action struct {
	Kind   ActionKind
	Page   int
	Dest   string
	Name   string
	File   string
	URI    string
	Media  *Media
	Reason string
}

// Link is a clickable area in PDF user space, origin at the bottom left
// of the page box.
type Link struct {
	Area   rect.Rect
	Action Action
}

// IsOver reports whether the point lies inside the link area.
func (l Link) IsOver(x, y float64) bool {
	return l.Area.LLx <= x && x <= l.Area.URx && l.Area.LLy <= y && y <= l.Area.URy
}

// Margins are distances from the page edges as fractions of the page size.
type Margins struct {
	Left, Right, Bottom, Top float64
}

// Media is a video or sound clip placed on a page.
type Media struct {
	ID           int
	Margins      Margins
	Path         string
	ShowControls bool
}

// AnnotKind classifies PDF annotations by how they are handled.
type AnnotKind int

const (
	AnnotOther AnnotKind = iota
	AnnotLink
	AnnotText
	AnnotPopup
	AnnotFreeText
	AnnotMovie
	AnnotScreen
	AnnotFileAttachment
	// AnnotRendered covers markup the PDF engine draws on its own.
	AnnotRendered
)

// Annotation is a raw annotation as read from the source.
type Annotation struct {
	Kind     AnnotKind
	Subtype  string
	Area     rect.Rect
	Contents string
	// Action is set for screen annotations.
	Action *Action
	// File names the movie file or the attachment.
	File         string
	ShowControls bool
	// Data holds the bytes of an embedded attachment or rendition.
	Data []byte
}

// PageInfo is everything the source knows about one physical page.
type PageInfo struct {
	Width, Height float64
	Label         string
	Links         []Link
	Annotations   []Annotation
}

// OutlineItem is one entry of the document outline. Page is a physical
// page index or -1 when the destination cannot be resolved.
type OutlineItem struct {
	Title    string
	Page     int
	Children []OutlineItem
}

// Source is the PDF engine a Document reads pages from.
type Source interface {
	NumPages() int
	// Label returns the printed label of a physical page.
	Label(physical int) string
	PageInfo(physical int) (PageInfo, error)
	// FindDest resolves a named destination to a physical page index.
	FindDest(name string) (int, bool)
	Outline() ([]OutlineItem, error)
	Close() error
}

// Rasterizer renders a physical page, scaled to fill dst.
type Rasterizer interface {
	Rasterize(physical int, dst *image.RGBA) error
}

// Opener opens a source file.
type Opener func(path string) (Source, error)
