// Package document maps the logical pages of a presentation onto the
// physical pages of its source file, caches page objects and keeps the
// navigation history.
package document

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/example/lectern/internal/persist"
	"github.com/example/lectern/internal/scribble"
)

// Change describes a page change. Prev is the page that was left, or -1.
type Change struct {
	Prev, Cur     int
	KeepScribbles bool
	Reloading     bool
}

// Options configure Create.
type Options struct {
	// Open opens the source file. It defaults to OpenPDF.
	Open         Opener
	Mode         HighlightMode
	OnPageChange func(Change)
}

// Document is an opened presentation. It is not safe for concurrent use.
type Document struct {
	path    string
	src     Source
	mode    HighlightMode
	pageMap []int
	labels  []string
	cache   map[int]*Page

	history []int
	histPos int
	cur     int

	// Scribbles holds the stored list of every logical page that has one.
	Scribbles map[int][]scribble.Scribble

	tempFiles map[string]struct{}
	mediaSeq  int
	empty     bool
	emptyPage *Page

	OnPageChange     func(Change)
	OnLaunch         func(path string)
	OnURI            func(uri string)
	OnPlayMedia      func(m Media)
	OnEditPageNumber func()
}

// Empty returns the document shown when nothing is open. It has no pages
// and every page lookup yields a placeholder that never renders.
func Empty() *Document {
	return &Document{
		cache:     map[int]*Page{},
		Scribbles: map[int][]scribble.Scribble{},
		tempFiles: map[string]struct{}{},
		history:   []int{0},
		empty:     true,
		emptyPage: EmptyPage(),
	}
}

// Create opens the file at path and positions the document on page start.
// When prev is the previous incarnation of the same file, its page map,
// scribbles and highlight mode carry over. Otherwise the sidecar file is
// read if present. On failure the returned document is Empty and the error
// is an *OpenError.
func Create(path string, start int, prev *Document, opts Options) (*Document, error) {
	open := opts.Open
	if open == nil {
		open = OpenPDF
	}
	src, err := open(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return Empty(), &OpenError{Path: path, Err: err}
	}
	n := src.NumPages()
	d := &Document{
		path:         strings.TrimPrefix(path, "file://"),
		src:          src,
		mode:         opts.Mode,
		cache:        map[int]*Page{},
		tempFiles:    map[string]struct{}{},
		OnPageChange: opts.OnPageChange,
	}

	var saved map[int]int
	var scribbles map[int][]scribble.Scribble
	if prev != nil && !prev.empty {
		saved = make(map[int]int, len(prev.pageMap))
		for i, p := range prev.pageMap {
			saved[i] = p
		}
		scribbles = prev.Scribbles
		d.mode = prev.mode
	} else {
		st, err := persist.Load(persist.SidecarPath(d.path))
		if err != nil {
			log.Printf("load %s: %v", persist.SidecarPath(d.path), err)
		} else {
			saved = st.PageMap
			if d.mode == ModeAutoPage {
				scribbles = st.Scribbles
			}
		}
	}
	d.pageMap, d.Scribbles = buildPageMap(saved, scribbles, n)

	d.labels = make([]string, len(d.pageMap))
	for i, p := range d.pageMap {
		if p >= 0 {
			d.labels[i] = src.Label(p)
		}
	}

	d.cur = clamp(start, len(d.pageMap))
	d.history = []int{d.cur}
	return d, nil
}

// buildPageMap turns the saved mapping into a contiguous slice. Entries
// pointing past the end of the source are dropped, as are repeated
// physical pages; the scribbles follow their pages to the new indices.
// Physical pages missing from the map are appended in order.
func buildPageMap(saved map[int]int, scribbles map[int][]scribble.Scribble, n int) ([]int, map[int][]scribble.Scribble) {
	pm := make([]int, 0, n)
	out := map[int][]scribble.Scribble{}
	mapped := map[int]bool{}
	for _, k := range persist.SortedPages(saved) {
		v := saved[k]
		if v >= n || v < -1 || (v >= 0 && mapped[v]) {
			continue
		}
		if list, ok := scribbles[k]; ok {
			out[len(pm)] = list
		}
		if v >= 0 {
			mapped[v] = true
		}
		pm = append(pm, v)
	}
	if len(pm) == 0 {
		out = map[int][]scribble.Scribble{}
		for k, list := range scribbles {
			if k >= 0 && k < n {
				out[k] = list
			}
		}
		for p := 0; p < n; p++ {
			pm = append(pm, p)
		}
		return pm, out
	}
	for p := 0; p < n; p++ {
		if !mapped[p] {
			pm = append(pm, p)
		}
	}
	return pm, out
}

func clamp(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Path returns the path of the source file.
func (d *Document) Path() string { return d.path }

// Mode returns the highlight mode the document was opened with.
func (d *Document) Mode() HighlightMode { return d.mode }

// IsEmpty reports whether d is the placeholder for no document.
func (d *Document) IsEmpty() bool { return d.empty }

// NumPages returns the number of logical pages.
func (d *Document) NumPages() int { return len(d.pageMap) }

// Current returns the logical index of the current page.
func (d *Document) Current() int { return d.cur }

// Labels returns a copy of the page labels, indexed by logical page.
func (d *Document) Labels() []string { return append([]string(nil), d.labels...) }

// PageMap returns a copy of the logical to physical page map.
func (d *Document) PageMap() []int { return append([]int(nil), d.pageMap...) }

// History returns a copy of the navigation history and the cursor in it.
func (d *Document) History() ([]int, int) {
	return append([]int(nil), d.history...), d.histPos
}

// Rasterizer returns the source's renderer, if it has one.
func (d *Document) Rasterizer() (Rasterizer, bool) {
	if d.src == nil {
		return nil, false
	}
	r, ok := d.src.(Rasterizer)
	return r, ok
}

// Page returns logical page i, building and caching it on first use.
// It returns nil when i is out of range.
func (d *Document) Page(i int) *Page {
	if d.empty {
		return d.emptyPage
	}
	if i < 0 || i >= len(d.pageMap) {
		return nil
	}
	if p, ok := d.cache[i]; ok {
		return p
	}
	var p *Page
	if phys := d.pageMap[i]; phys < 0 {
		p = blankPage(i, d.labels[i])
		p.Width, p.Height = d.blankSize()
	} else {
		info, err := d.src.PageInfo(phys)
		if err != nil {
			log.Printf("page %d of %s: %v", phys+1, d.path, err)
			p = blankPage(i, d.labels[i])
			p.Physical = phys
		} else {
			p = d.buildPage(i, phys, info)
		}
	}
	d.cache[i] = p
	return p
}

// blankSize takes the size of the first physical page, so that inserted
// pages match the deck.
func (d *Document) blankSize() (float64, float64) {
	for i, p := range d.pageMap {
		if p == 0 {
			pg := d.Page(i)
			return pg.Width, pg.Height
		}
	}
	if d.src != nil && d.src.NumPages() > 0 {
		if info, err := d.src.PageInfo(0); err == nil {
			return info.Width, info.Height
		}
	}
	return DefaultPageWidth, DefaultPageHeight
}

// CurrentPage returns the page being shown.
func (d *Document) CurrentPage() *Page { return d.Page(d.cur) }

// NextPage returns the page after the current one, or nil at the end.
func (d *Document) NextPage() *Page {
	if d.empty {
		return nil
	}
	return d.Page(d.cur + 1)
}

// InsertPage inserts a blank page before logical page before. Cached
// pages, stored scribbles and history entries at or after it move up by
// one.
func (d *Document) InsertPage(before int) error {
	if d.empty {
		return ErrNoDocument
	}
	if before < 0 || before > len(d.pageMap) {
		return fmt.Errorf("insert before %d: %w", before, ErrPageRange)
	}
	d.pageMap = append(d.pageMap, 0)
	copy(d.pageMap[before+1:], d.pageMap[before:])
	d.pageMap[before] = -1

	d.labels = append(d.labels, "")
	copy(d.labels[before+1:], d.labels[before:])
	d.labels[before] = ""

	cache := make(map[int]*Page, len(d.cache))
	for i, p := range d.cache {
		if i >= before {
			i++
			p.Index = i
		}
		cache[i] = p
	}
	d.cache = cache

	scribbles := make(map[int][]scribble.Scribble, len(d.Scribbles))
	for i, list := range d.Scribbles {
		if i >= before {
			i++
		}
		scribbles[i] = list
	}
	d.Scribbles = scribbles

	for k, h := range d.history {
		if h >= before {
			d.history[k] = h + 1
		}
	}
	if d.cur >= before {
		d.cur++
	}
	return nil
}

// Goto switches to logical page i, clamped to the document. Forward
// history is dropped.
func (d *Document) Goto(i int, keepScribbles, reloading bool) {
	if d.empty || len(d.pageMap) == 0 {
		return
	}
	i = clamp(i, len(d.pageMap))
	if i == d.cur {
		return
	}
	d.histPos++
	d.history = append(d.history[:d.histPos], i)
	d.change(i, keepScribbles, reloading)
}

func (d *Document) change(i int, keepScribbles, reloading bool) {
	prev := d.cur
	d.cur = i
	if d.OnPageChange != nil {
		d.OnPageChange(Change{Prev: prev, Cur: i, KeepScribbles: keepScribbles, Reloading: reloading})
	}
}

// GotoNext switches to the following page.
func (d *Document) GotoNext(keepScribbles bool) { d.Goto(d.cur+1, keepScribbles, false) }

// GotoPrev switches to the preceding page.
func (d *Document) GotoPrev() { d.Goto(d.cur-1, false, false) }

// GotoHome switches to the first page.
func (d *Document) GotoHome() { d.Goto(0, false, false) }

// GotoEnd switches to the last page.
func (d *Document) GotoEnd() { d.Goto(len(d.pageMap)-1, false, false) }

// HistNext moves forward in the history.
func (d *Document) HistNext() {
	if d.histPos+1 >= len(d.history) {
		return
	}
	d.histPos++
	d.change(d.history[d.histPos], false, false)
}

// HistPrev moves back in the history.
func (d *Document) HistPrev() {
	if d.histPos == 0 {
		return
	}
	d.histPos--
	d.change(d.history[d.histPos], false, false)
}

// LabelAfter returns the last page of the label group that holds page+1.
// From inside a group that is the end of the group itself. At the last
// page it returns page.
func (d *Document) LabelAfter(page int) int {
	n := len(d.labels)
	if page >= n-1 {
		return page
	}
	q := page + 1
	for q+1 < n && d.labels[q+1] == d.labels[q] {
		q++
	}
	return q
}

// LabelBefore returns the closest page before page with a different
// label, or 0.
func (d *Document) LabelBefore(page int) int {
	if page <= 0 || page >= len(d.labels) {
		return 0
	}
	for q := page - 1; q >= 0; q-- {
		if d.labels[q] != d.labels[page] {
			return q
		}
	}
	return 0
}

// LabelNext switches to LabelAfter of the current page.
func (d *Document) LabelNext() { d.Goto(d.LabelAfter(d.cur), false, false) }

// LabelPrev switches to LabelBefore of the current page.
func (d *Document) LabelPrev() { d.Goto(d.LabelBefore(d.cur), false, false) }

// HasLabels reports whether the labels carry more than the page numbers.
func (d *Document) HasLabels() bool {
	for i, l := range d.labels {
		if l != strconv.Itoa(i+1) {
			return true
		}
	}
	return false
}

// LookupLabel finds the page whose label best matches text. Labels that
// repeat resolve to their last page. When prefixUnique is set an
// ambiguous prefix matches nothing, which suits lookups while the user is
// still typing.
func (d *Document) LookupLabel(text string, prefixUnique bool) (int, bool) {
	fold := cases.Fold()
	want := fold.String(text)

	var order []string
	last := map[string]int{}
	for i, l := range d.labels {
		if !strings.HasPrefix(fold.String(l), want) {
			continue
		}
		if _, ok := last[l]; !ok {
			order = append(order, l)
		}
		last[l] = i
	}
	if len(order) == 1 {
		return last[order[0]], true
	}
	if i, ok := last[text]; ok {
		return i, true
	}
	filters := []func(string) bool{
		func(l string) bool { return len(l) == len(text) },
		func(l string) bool { return strings.HasPrefix(l, text) },
		func(string) bool { return !prefixUnique },
	}
	for _, keep := range filters {
		for _, l := range order {
			if keep(l) {
				return last[l], true
			}
		}
	}
	return 0, false
}

// GuessNotes guesses the notes layout from the current page, or the first
// one.
func (d *Document) GuessNotes(horizontal, vertical Part) Part {
	p := d.CurrentPage()
	if p == nil {
		p = d.Page(0)
	}
	if p == nil || p.IsPlaceholder() {
		return PartNone
	}
	return GuessNotes(p.Width, p.Height, horizontal, vertical)
}

// logicalOf returns the first logical page showing physical page phys.
func (d *Document) logicalOf(phys int) (int, bool) {
	if phys < 0 {
		return 0, false
	}
	for i, p := range d.pageMap {
		if p == phys {
			return i, true
		}
	}
	return 0, false
}

// Follow performs the action of a link.
func (d *Document) Follow(a Action) {
	switch a.Kind {
	case ActionNone:
	case ActionGoto:
		i, ok := d.logicalOf(a.Page)
		if !ok {
			log.Printf("link to page %d: not in the presentation", a.Page+1)
			return
		}
		d.Goto(i, false, false)
	case ActionGotoDest:
		phys, ok := d.src.FindDest(a.Dest)
		if !ok {
			log.Printf("link to %q: unknown destination", a.Dest)
			return
		}
		d.Follow(Action{Kind: ActionGoto, Page: phys})
	case ActionNamed:
		d.named(a.Name)
	case ActionLaunch:
		if d.OnLaunch != nil {
			d.OnLaunch(a.File)
		}
	case ActionURI:
		if d.OnURI != nil {
			d.OnURI(a.URI)
		}
	case ActionMedia:
		if d.OnPlayMedia != nil && a.Media != nil {
			d.OnPlayMedia(*a.Media)
		}
	default:
		log.Printf("unsupported link action: %s", a.Reason)
	}
}

var namedActions = map[string]func(d *Document){
	"GoBack":    (*Document).HistPrev,
	"GoForward": (*Document).HistNext,
	"FirstPage": (*Document).GotoHome,
	"PrevPage":  (*Document).GotoPrev,
	"NextPage":  func(d *Document) { d.GotoNext(false) },
	"LastPage":  (*Document).GotoEnd,
	"GoToPage": func(d *Document) {
		if d.OnEditPageNumber != nil {
			d.OnEditPageNumber()
		}
	},
}

func (d *Document) named(name string) {
	if fn, ok := namedActions[name]; ok {
		fn(d)
		return
	}
	log.Printf("unsupported named action %q", name)
}

// FullPath resolves name against the document directory and then the
// working directory. It returns "" when no such file exists.
func (d *Document) FullPath(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		if exists(name) {
			return filepath.Clean(name)
		}
		return ""
	}
	dirs := []string{filepath.Dir(d.path)}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	for _, dir := range dirs {
		p := filepath.Clean(filepath.Join(dir, name))
		if exists(p) {
			return p
		}
	}
	return ""
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// RemoveOnExit registers a temporary file for Cleanup.
func (d *Document) RemoveOnExit(path string) {
	d.tempFiles[path] = struct{}{}
}

// Cleanup deletes the files extracted from the document.
func (d *Document) Cleanup() {
	for f := range d.tempFiles {
		if err := os.Remove(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("cleanup: %v", err)
		}
	}
	clear(d.tempFiles)
}

// Close deletes extracted files and releases the source.
func (d *Document) Close() error {
	d.Cleanup()
	if d.src == nil {
		return nil
	}
	return d.src.Close()
}

// Save writes the page map to the sidecar file, and the scribbles too in
// autopage mode.
func (d *Document) Save() error {
	if d.empty {
		return nil
	}
	st := persist.State{PageMap: make(map[int]int, len(d.pageMap)), Scribbles: d.Scribbles}
	for i, p := range d.pageMap {
		st.PageMap[i] = p
	}
	return persist.Save(persist.SidecarPath(d.path), st, d.mode == ModeAutoPage)
}

// ExportPages lists every logical page with its stored scribbles, sized in
// PDF units.
func (d *Document) ExportPages() []persist.ExportPage {
	out := make([]persist.ExportPage, 0, len(d.pageMap))
	for i, phys := range d.pageMap {
		p := d.Page(i)
		out = append(out, persist.ExportPage{
			Width:     p.Width,
			Height:    p.Height,
			Physical:  phys,
			Scribbles: d.Scribbles[i],
		})
	}
	return out
}

// ExportXopp writes the annotated deck as a xournal++ document.
func (d *Document) ExportXopp(w io.Writer, latex persist.LatexPNG) error {
	if d.empty {
		return ErrNoDocument
	}
	abs, err := filepath.Abs(d.path)
	if err != nil {
		abs = d.path
	}
	return persist.Export(w, abs, d.ExportPages(), latex)
}

// Section is one entry of the document structure, positioned on a logical
// page.
type Section struct {
	Title    string
	Page     int
	Children []Section
}

// Structure returns the outline with destinations mapped to logical pages.
// Entries that point nowhere, or to a page already claimed by a sibling,
// are moved to the most plausible page after the previous section.
func (d *Document) Structure() ([]Section, error) {
	if d.empty {
		return nil, nil
	}
	items, err := d.src.Outline()
	if err != nil {
		return nil, err
	}
	return d.structure(items), nil
}

func (d *Document) structure(items []OutlineItem) []Section {
	var out []Section
	used := map[int]bool{}
	for _, it := range items {
		s := Section{Title: it.Title, Children: d.structure(it.Children)}
		page, ok := d.logicalOf(it.Page)
		if !ok || used[page] {
			if len(s.Children) > 0 {
				page = minPage(s.Children)
			} else {
				page = d.guessSection(out, page, ok)
			}
		}
		used[page] = true
		s.Page = page
		out = append(out, s)
	}
	return out
}

func minPage(secs []Section) int {
	m := secs[0].Page
	for _, s := range secs[1:] {
		m = min(m, s.Page)
	}
	return m
}

func maxSection(secs []Section) Section {
	best := secs[0]
	for _, s := range secs[1:] {
		if s.Page > best.Page {
			best = s
		}
	}
	return best
}

// guessSection picks the first page after the deepest last section that
// shares the label of page, or the page right after it.
func (d *Document) guessSection(prev []Section, page int, resolved bool) int {
	lower := -1
	if len(prev) > 0 {
		s := maxSection(prev)
		lower = s.Page
		for len(s.Children) > 0 {
			s = maxSection(s.Children)
			lower = s.Page
		}
	}
	if resolved {
		for i := lower + 1; i < len(d.labels); i++ {
			if d.labels[i] == d.labels[page] {
				return i
			}
		}
	}
	return lower + 1
}
