// Package presenter shows a session in shiny windows: the content window
// the audience sees and, optionally, the presenter console with notes, the
// next slide and a clock.
package presenter

import (
	"context"
	"image"
	"image/draw"
	"log"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/input"
	"github.com/example/lectern/internal/session"
	"github.com/example/lectern/internal/theme"
)

// Default window sizes.
var (
	DefaultContentSize = image.Pt(1280, 720)
	DefaultConsoleSize = image.Pt(1280, 800)
)

// Options configure a Presenter.
type Options struct {
	Title string
	Theme *theme.Theme
	// Notes is the half of each page holding speaker notes, or PartNone.
	Notes document.Part
	// Console opens the presenter window next to the content window.
	Console     bool
	ContentSize image.Point
	ConsoleSize image.Point
	// Pump delivers pen tablet events. It may be nil.
	Pump  *input.Pump
	Cache *Cache
}

type role int

const (
	roleContent role = iota
	roleConsole
)

type window struct {
	role   role
	w      screen.Window
	size   image.Point
	mouse  input.Mouse
	grab   *pane
	inside bool
	// queued is set while a paint event is on its way.
	queued bool
	frames chan *image.RGBA
}

type windowEvent struct {
	win *window
	e   interface{}
}

// Presenter drives a session from its windows. All session calls happen
// on the goroutine running Run.
type Presenter struct {
	sess    *session.Session
	opts    Options
	clock   *Clock
	windows []*window
	events  chan windowEvent
	dirty   bool
	done    bool
}

// New prepares a presenter for sess and binds the cache to its layouts.
func New(sess *session.Session, opts Options) *Presenter {
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.Title == "" {
		opts.Title = "Lectern"
	}
	if opts.ContentSize.X <= 0 || opts.ContentSize.Y <= 0 {
		opts.ContentSize = DefaultContentSize
	}
	if opts.ConsoleSize.X <= 0 || opts.ConsoleSize.Y <= 0 {
		opts.ConsoleSize = DefaultConsoleSize
	}
	p := &Presenter{
		sess:   sess,
		opts:   opts,
		clock:  NewClock(),
		events: make(chan windowEvent, 64),
	}
	p.windows = append(p.windows, &window{role: roleContent, size: opts.ContentSize})
	if opts.Console {
		p.windows = append(p.windows, &window{role: roleConsole, size: opts.ConsoleSize})
	}
	if c := opts.Cache; c != nil {
		c.Doc = func() *document.Document { return sess.Doc }
		c.Sizes = p.sizes
	}
	return p
}

func (p *Presenter) layout(win *window, cur int) layout {
	doc := p.sess.Doc
	if win.role == roleConsole {
		return consoleLayout(win.size, doc, cur, p.opts.Notes, p.opts.Theme)
	}
	return contentLayout(win.size, doc, cur, p.opts.Notes)
}

// sizes lists the pixel sizes page i is drawn at, both as the current
// page and as the next page preview.
func (p *Presenter) sizes(i int) []image.Point {
	var out []image.Point
	seen := map[image.Point]bool{}
	add := func(l layout) {
		for _, pn := range l.panes {
			if pn.page != i || pn.rect.Empty() {
				continue
			}
			sz := fullSize(pn.rect, pn.part)
			if !seen[sz] {
				seen[sz] = true
				out = append(out, sz)
			}
		}
	}
	for _, win := range p.windows {
		add(p.layout(win, i))
		if i > 0 {
			add(p.layout(win, i-1))
		}
	}
	return out
}

// Run opens the windows and handles events until the session quits or ctx
// is done. It must be called from the main goroutine.
func (p *Presenter) Run(ctx context.Context) error {
	var runErr error
	driver.Main(func(s screen.Screen) {
		runErr = p.run(ctx, s)
	})
	return runErr
}

func (p *Presenter) run(ctx context.Context, s screen.Screen) error {
	for _, win := range p.windows {
		title := p.opts.Title
		if win.role == roleConsole {
			title += " presenter"
		}
		w, err := s.NewWindow(&screen.NewWindowOptions{Width: win.size.X, Height: win.size.Y, Title: title})
		if err != nil {
			return err
		}
		defer w.Release()
		win.w = w
		win.frames = make(chan *image.RGBA, 1)
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, win := range p.windows {
		wg.Add(1)
		go func(win *window) {
			defer wg.Done()
			for img := range win.frames {
				drawFrame(s, win.w, img)
			}
		}(win)
		go p.forward(done, win)
	}
	defer func() {
		close(done)
		for _, win := range p.windows {
			close(win.frames)
		}
		wg.Wait()
	}()

	p.sess.OnRedraw = func() { p.dirty = true }
	p.sess.OnQuit = func() { p.done = true }

	var pen <-chan input.Event
	if p.opts.Pump != nil {
		pen = p.opts.Pump.Events()
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	p.dirty = true
	for !p.done {
		select {
		case ev := <-p.events:
			p.handle(ev)
		case <-p.sess.Reloads():
			if err := p.sess.Reload(); err != nil {
				log.Printf("reload: %v", err)
			}
		case e := <-pen:
			p.sess.Handle(e)
		case <-ticker.C:
			for _, win := range p.windows {
				if win.role == roleConsole && p.clock.Running() {
					win.requestPaint()
				}
			}
		case <-ctx.Done():
			p.sess.Quit()
		}
		if p.dirty {
			p.dirty = false
			for _, win := range p.windows {
				win.requestPaint()
			}
		}
	}
	return nil
}

// forward moves a window's events onto the UI loop.
func (p *Presenter) forward(done <-chan struct{}, win *window) {
	for {
		e := win.w.NextEvent()
		select {
		case p.events <- windowEvent{win: win, e: e}:
		case <-done:
			return
		}
		if l, ok := e.(lifecycle.Event); ok && l.To == lifecycle.StageDead {
			return
		}
	}
}

func (p *Presenter) handle(ev windowEvent) {
	win := ev.win
	switch e := ev.e.(type) {
	case lifecycle.Event:
		if e.To == lifecycle.StageDead {
			p.sess.Quit()
		}
	case size.Event:
		win.size = e.Size()
		p.prerender()
		win.requestPaint()
	case paint.Event:
		win.queued = false
		if win.size.X <= 0 || win.size.Y <= 0 {
			return
		}
		win.submit(p.compose(win))
	case mouse.Event:
		p.mouseEvent(win, e)
	case key.Event:
		p.keyEvent(e)
	case error:
		log.Printf("window: %v", e)
	}
}

// prerender warms the cache at the current window sizes.
func (p *Presenter) prerender() {
	if p.opts.Cache == nil {
		return
	}
	cur := p.sess.Doc.Current()
	for i := cur; i < min(p.sess.Doc.NumPages(), cur+3); i++ {
		p.opts.Cache.Prerender(i)
	}
}

func (p *Presenter) mouseEvent(win *window, e mouse.Event) {
	if e.Button.IsWheel() {
		if e.Direction != mouse.DirPress && e.Direction != mouse.DirStep {
			return
		}
		switch e.Button {
		case mouse.ButtonWheelDown, mouse.ButtonWheelRight:
			p.sess.Doc.GotoNext(false)
		case mouse.ButtonWheelUp, mouse.ButtonWheelLeft:
			p.sess.Doc.GotoPrev()
		}
		return
	}
	pn, over := p.layout(win, p.sess.Doc.Current()).liveAt(image.Pt(int(e.X), int(e.Y)))
	if win.grab != nil {
		pn, over = *win.grab, true
	}
	if !over {
		if win.inside {
			win.inside = false
			p.sess.Handle(input.Event{Type: input.Leave})
		}
		return
	}
	ev, ok := win.mouse.Translate(e, pn.viewport())
	if !ok {
		return
	}
	switch ev.Type {
	case input.Press:
		g := pn
		win.grab = &g
	case input.Release:
		win.grab = nil
	}
	win.inside = true
	p.sess.Handle(ev)
}

func (p *Presenter) keyEvent(e key.Event) {
	if p.sess.Key(e) {
		return
	}
	if e.Direction == key.DirRelease {
		return
	}
	switch {
	case e.Code == key.CodeP && e.Modifiers == 0:
		p.clock.Toggle()
	case e.Code == key.CodeT && e.Modifiers == key.ModControl:
		p.clock.Reset()
	default:
		return
	}
	p.dirty = true
}

func (win *window) requestPaint() {
	if win.queued || win.w == nil {
		return
	}
	win.queued = true
	win.w.Send(paint.Event{})
}

// submit hands img to the render goroutine, replacing a frame it has not
// picked up yet.
func (win *window) submit(img *image.RGBA) {
	select {
	case win.frames <- img:
	default:
		select {
		case <-win.frames:
		default:
		}
		win.frames <- img
	}
}

func drawFrame(s screen.Screen, w screen.Window, img *image.RGBA) {
	b, err := s.NewBuffer(img.Bounds().Size())
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	draw.Draw(b.RGBA(), b.Bounds(), img, image.Point{}, draw.Src)
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
