// Package session ties an open document, the scribble model and the tool
// machine together on the UI goroutine.
package session

import (
	"fmt"
	"image"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/mobile/event/key"
	"seehuhn.de/go/geom/vec"

	"github.com/example/lectern/internal/clipboard"
	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/input"
	"github.com/example/lectern/internal/persist"
	"github.com/example/lectern/internal/render"
	"github.com/example/lectern/internal/scribble"
	"github.com/example/lectern/internal/tool"
)

// SurfaceCache is the window layer's cache of rendered pages.
type SurfaceCache interface {
	// Invalidate drops every cached surface.
	Invalidate()
	// Prerender renders logical page i ahead of time.
	Prerender(i int)
	// Surface returns the raster of logical page i at w×h, or nil.
	Surface(i, w, h int) image.Image
	// Put keeps a raster of logical page i rendered on demand.
	Put(i int, img *image.RGBA)
}

// Notifier announces completed actions to the user.
type Notifier interface {
	Save(path string)
	Export(path string)
	Copy(detail string, img image.Image)
	Reload(path string)
}

// Options configure New.
type Options struct {
	Mode     document.HighlightMode
	Settings tool.Settings
	// Open overrides the PDF engine.
	Open  document.Opener
	Cache SurfaceCache
	// Notify may be nil.
	Notify Notifier
	Latex  *render.Latex
	// Xournalpp is the command used to turn an export into a PDF.
	Xournalpp string
	// CoalesceWindow bounds attribute undo merging; zero keeps the default.
	CoalesceWindow time.Duration
}

// Prerender window around the current page.
const (
	prerenderAhead  = 5
	prerenderBehind = 2
)

// Session is the controller for one presentation. Every method must be
// called from the UI goroutine; other goroutines only use RequestReload.
type Session struct {
	Doc   *document.Document
	Model *scribble.Model
	Tool  *tool.Machine
	Fonts *render.Fonts

	// Pointer is the last pen position in page fractions, or nil.
	Pointer *vec.Vec2
	// OnRedraw asks the window to repaint.
	OnRedraw func()
	// OnQuit is called once the session has been shut down.
	OnQuit func()

	opts    Options
	reloads chan struct{}
	quit    bool
}

// New opens path on page start. An open failure still yields a usable
// session over the empty document, alongside the *document.OpenError.
func New(path string, start int, opts Options) (*Session, error) {
	if opts.Cache == nil {
		opts.Cache = noCache{}
	}
	if opts.Xournalpp == "" {
		opts.Xournalpp = "xournalpp"
	}
	m := scribble.NewModel()
	if opts.CoalesceWindow > 0 {
		m.CoalesceWindow = opts.CoalesceWindow
	}
	s := &Session{
		Model:   m,
		Tool:    tool.New(m, opts.Settings),
		Fonts:   render.NewFonts(),
		opts:    opts,
		reloads: make(chan struct{}, 1),
	}
	m.OnRedraw = s.redraw
	s.Tool.OnRedraw = s.redraw

	doc, err := document.Create(path, start, nil, s.docOptions())
	s.attach(doc)
	if page := doc.CurrentPage(); page != nil {
		s.Tool.Measurer = render.Measurer{PageWidth: page.Width, PageHeight: page.Height}
	}
	if doc.Mode().PerPage() {
		s.Model.Reset(doc.Scribbles[doc.Current()])
	}
	s.prerender(doc.Current())
	return s, err
}

func (s *Session) docOptions() document.Options {
	return document.Options{Open: s.opts.Open, Mode: s.opts.Mode, OnPageChange: s.pageChanged}
}

func (s *Session) attach(doc *document.Document) {
	s.Doc = doc
	doc.OnPageChange = s.pageChanged
	doc.OnURI = func(uri string) { openExternal(uri) }
	doc.OnLaunch = func(path string) { openExternal(path) }
	doc.OnPlayMedia = func(m document.Media) { openExternal(m.Path) }
}

func (s *Session) redraw() {
	if s.OnRedraw != nil {
		s.OnRedraw()
	}
}

// store saves the live list as the stored list of page i. Only the
// per-page modes keep lists by page.
func (s *Session) store(i int) {
	s.Model.Clean()
	if !s.Doc.Mode().PerPage() {
		return
	}
	if items := s.Model.Snapshot(); len(items) > 0 {
		s.Doc.Scribbles[i] = items
	} else {
		delete(s.Doc.Scribbles, i)
	}
}

// pageChanged applies the highlight mode when the document moves to a new
// page. The page being left is stored unless the document is reloading,
// and the live list is replaced unless the caller asked to keep it.
func (s *Session) pageChanged(c document.Change) {
	s.Tool.Commit()
	s.Model.Clean()
	mode := s.Doc.Mode()
	if !c.Reloading && c.Prev >= 0 {
		s.store(c.Prev)
	}
	if !c.KeepScribbles {
		if mode.PerPage() {
			s.Model.Reset(s.Doc.Scribbles[c.Cur])
		} else if mode.ClearsOnChange() {
			s.Model.Reset(nil)
		}
	}
	if page := s.Doc.Page(c.Cur); page != nil {
		s.Tool.Measurer = render.Measurer{PageWidth: page.Width, PageHeight: page.Height}
	}
	s.prerender(c.Cur)
	s.redraw()
}

// prerender warms the cache for the pages after and just before cur.
func (s *Session) prerender(cur int) {
	n := s.Doc.NumPages()
	for i := cur + 1; i < min(n, cur+prerenderAhead); i++ {
		s.opts.Cache.Prerender(i)
	}
	for i := cur; i > max(0, cur-prerenderBehind); i-- {
		s.opts.Cache.Prerender(i)
	}
}

// InsertPage adds a blank page before logical page before.
func (s *Session) InsertPage(before int) error {
	s.Tool.Commit()
	perPage := s.Doc.Mode().PerPage()
	if !s.Doc.IsEmpty() {
		s.store(s.Doc.Current())
	}
	if err := s.Doc.InsertPage(before); err != nil {
		return err
	}
	s.opts.Cache.Invalidate()
	if perPage {
		s.Model.Reset(s.Doc.Scribbles[s.Doc.Current()])
	}
	s.prerender(s.Doc.Current())
	s.redraw()
	return nil
}

// RequestReload schedules a reload of the document. It is safe to call
// from any goroutine.
func (s *Session) RequestReload() {
	select {
	case s.reloads <- struct{}{}:
	default:
	}
}

// Reloads delivers the pending reload requests to the UI loop.
func (s *Session) Reloads() <-chan struct{} { return s.reloads }

// Reload reopens the file, keeping the page map, the scribbles and the
// current page.
func (s *Session) Reload() error {
	prev := s.Doc
	if prev.IsEmpty() {
		return document.ErrNoDocument
	}
	s.Tool.Commit()
	s.store(prev.Current())
	doc, err := document.Create(prev.Path(), prev.Current(), prev, s.docOptions())
	if err != nil {
		return err
	}
	s.attach(doc)
	if err := prev.Close(); err != nil {
		log.Printf("close %s: %v", prev.Path(), err)
	}
	s.opts.Cache.Invalidate()
	s.pageChanged(document.Change{Prev: -1, Cur: doc.Current(), Reloading: true})
	if s.opts.Notify != nil {
		s.opts.Notify.Reload(doc.Path())
	}
	return nil
}

// Handle routes a pointer event to the active tool and tracks the pen.
// A primary press the tool ignores follows the link under it.
func (s *Session) Handle(e input.Event) bool {
	switch e.Type {
	case input.Motion:
		p := e.Point
		s.Pointer = &p
		s.redraw()
		return false
	case input.Leave:
		s.Pointer = nil
		s.redraw()
		return false
	}
	if s.Tool.Handle(e) {
		return true
	}
	if e.Type != input.Press || e.Button != input.ButtonPrimary {
		return false
	}
	page := s.Doc.CurrentPage()
	if page == nil {
		return false
	}
	l, ok := page.LinkAt(e.Point.X, e.Point.Y, document.PartFull)
	if !ok {
		return false
	}
	s.Doc.Follow(l.Action)
	return true
}

// Save writes the sidecar file.
func (s *Session) Save() error {
	if s.Doc.IsEmpty() {
		return document.ErrNoDocument
	}
	s.Tool.Commit()
	s.store(s.Doc.Current())
	if err := s.Doc.Save(); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if s.opts.Notify != nil {
		s.opts.Notify.Save(persist.SidecarPath(s.Doc.Path()))
	}
	return nil
}

// ExportXopp writes the annotated deck to path as a xournal++ file.
func (s *Session) ExportXopp(path string) error {
	if s.Doc.IsEmpty() {
		return document.ErrNoDocument
	}
	s.Tool.Commit()
	s.store(s.Doc.Current())
	if err := s.writeXopp(path); err != nil {
		return err
	}
	if s.opts.Notify != nil {
		s.opts.Notify.Export(path)
	}
	return nil
}

func (s *Session) writeXopp(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	var latex persist.LatexPNG
	if s.opts.Latex != nil {
		latex = s.opts.Latex.PNG
	}
	if err := s.Doc.ExportXopp(f, latex); err != nil {
		_ = f.Close()
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}

// ExportPDF exports through xournal++ into a PDF at path.
func (s *Session) ExportPDF(path string) error {
	if s.Doc.IsEmpty() {
		return document.ErrNoDocument
	}
	s.Tool.Commit()
	s.store(s.Doc.Current())
	dir, err := os.MkdirTemp("", "lectern-export-*")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.RemoveAll(dir)
	xopp := filepath.Join(dir, filepath.Base(s.Doc.Path())+".xopp")
	if err := s.writeXopp(xopp); err != nil {
		return err
	}
	if err := runXournalpp(s.opts.Xournalpp, xopp, path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if s.opts.Notify != nil {
		s.opts.Notify.Export(path)
	}
	return nil
}

// Compose renders the current page with its scribbles at w pixels wide.
// A zero h keeps the page aspect ratio.
func (s *Session) Compose(w, h int) (*image.RGBA, error) {
	page := s.Doc.CurrentPage()
	if page == nil {
		return nil, document.ErrNoDocument
	}
	w, h = pageSize(page, w, h)
	opts := s.pageOptions(page)
	if ed := s.Tool.Editing(); ed != nil {
		opts.Caret = &render.Caret{Target: ed.Target(), Pos: ed.Cursor()}
	}
	if s.Model.HasSelection() {
		glow := render.DefaultGlow()
		opts.Glow = &glow
	}
	return render.ComposePage(w, h, s.background(page, w, h), s.Model.Items(), opts)
}

// Preview renders logical page i with its stored scribbles, as shown in
// the next-slide view.
func (s *Session) Preview(i, w, h int) (*image.RGBA, error) {
	page := s.Doc.Page(i)
	if page == nil {
		return nil, document.ErrNoDocument
	}
	w, h = pageSize(page, w, h)
	var items []scribble.Scribble
	if s.Doc.Mode().PerPage() {
		items = s.Doc.Scribbles[i]
	}
	return render.ComposePage(w, h, s.background(page, w, h), items, s.pageOptions(page))
}

func pageSize(page *document.Page, w, h int) (int, int) {
	if h <= 0 {
		h = int(math.Round(float64(w) * page.Height / page.Width))
	}
	return w, h
}

func (s *Session) pageOptions(page *document.Page) render.PageOptions {
	opts := render.PageOptions{
		Options: render.Options{
			PageWidth: page.Width,
			Selected:  s.Model.IsSelected,
			Fonts:     s.Fonts,
		},
	}
	if s.opts.Latex != nil {
		opts.Latex = s.opts.Latex.Render
	}
	return opts
}

// background returns the page raster, from the cache when it holds one
// of the right size.
func (s *Session) background(page *document.Page, w, h int) image.Image {
	if img := s.opts.Cache.Surface(page.Index, w, h); img != nil {
		return img
	}
	r, ok := s.Doc.Rasterizer()
	if !ok || !page.CanRender() {
		return nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := r.Rasterize(page.Physical, dst); err != nil {
		log.Printf("render page %d: %v", page.Physical+1, err)
		return nil
	}
	s.opts.Cache.Put(page.Index, dst)
	return dst
}

// CopySlide puts the current page with its scribbles on the clipboard,
// offering the page label to applications that only paste text.
func (s *Session) CopySlide(w int) error {
	img, err := s.Compose(w, 0)
	if err != nil {
		return err
	}
	label := s.Doc.CurrentPage().Label
	if err := clipboard.Write(clipboard.Content{Image: img, Text: label}); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	if s.opts.Notify != nil {
		s.opts.Notify.Copy("slide "+label, img)
	}
	return nil
}

// Quit saves, releases the document and reports the session closed.
func (s *Session) Quit() {
	if s.quit {
		return
	}
	s.quit = true
	if !s.Doc.IsEmpty() {
		if err := s.Save(); err != nil {
			log.Printf("quit: %v", err)
		}
	}
	if err := s.Doc.Close(); err != nil {
		log.Printf("close %s: %v", s.Doc.Path(), err)
	}
	if s.OnQuit != nil {
		s.OnQuit()
	}
}

// Key handles a key press: the tool machine first, then navigation.
func (s *Session) Key(e key.Event) bool {
	if s.Tool.Key(e) {
		return true
	}
	if e.Direction == key.DirRelease {
		return false
	}
	a, ok := navKeys[navKey{Code: e.Code, Modifiers: e.Modifiers}]
	if !ok {
		return false
	}
	if err := a(s); err != nil {
		log.Printf("key %v: %v", e.Code, err)
	}
	return true
}

type noCache struct{}

func (noCache) Invalidate()                       {}
func (noCache) Prerender(int)                     {}
func (noCache) Surface(int, int, int) image.Image { return nil }
func (noCache) Put(int, *image.RGBA)              {}
