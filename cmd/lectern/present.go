package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/example/lectern/internal/display"
	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/input"
	"github.com/example/lectern/internal/presenter"
	"github.com/example/lectern/internal/session"
)

type presentCmd struct {
	*command
	page      string
	mode      string
	notes     string
	noConsole bool
	content   string
	console   string
	penpad    string
	noWatch   bool
}

func parsePresentCmd(args []string, r *root) (*presentCmd, error) {
	c := &presentCmd{command: newCommand(r, "present", "<file.pdf>", "Show a deck in the content window and the presenter console.")}
	cfg := c.cfg()
	fs := c.fs
	fs.StringVar(&c.page, "page", "", "start on this page label or number")
	fs.StringVar(&c.mode, "mode", cfg.HighlightMode.String(), "highlight mode: clear, single, page or autopage")
	fs.StringVar(&c.notes, "notes", "auto", "notes half of each page: auto, none, left, right, top or bottom")
	fs.BoolVar(&c.noConsole, "no-console", false, "only open the content window")
	fs.StringVar(&c.content, "content-monitor", "", "monitor for the content window (index, name or primary)")
	fs.StringVar(&c.console, "presenter-monitor", "", "monitor for the presenter console")
	fs.StringVar(&c.penpad, "penpad", cfg.Penpad.Device, "pen tablet event device, or auto")
	fs.BoolVar(&c.noWatch, "no-watch", false, "do not reload the file when it changes")
	fs.StringVar(&c.xournalpp, "xournalpp", "xournalpp", "xournal++ command used for PDF export")
	if err := c.parse(args, 1, 1); err != nil {
		return nil, err
	}
	if _, err := document.ParseHighlightMode(c.mode); err != nil {
		return nil, err
	}
	if _, err := notesPart(c.notes); err != nil {
		return nil, err
	}
	return c, nil
}

// notesPart parses the -notes flag. Auto is reported as PartFull and
// resolved once the document is open.
func notesPart(s string) (document.Part, error) {
	switch s {
	case "auto":
		return document.PartFull, nil
	case "none":
		return document.PartNone, nil
	}
	p, ok := document.ParsePart(s)
	if !ok || p == document.PartFull {
		return document.PartNone, fmt.Errorf("unknown notes position %q", s)
	}
	return p, nil
}

func (c *presentCmd) Run() error {
	cfg := c.cfg()
	path, err := filepath.Abs(c.fs.Arg(0))
	if err != nil {
		return err
	}
	mode, _ := document.ParseHighlightMode(c.mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cache := presenter.NewCache(ctx, 2)
	opts := session.Options{
		Mode:           mode,
		Settings:       toolSettings(cfg.Scribble),
		Open:           c.opener(),
		Cache:          cache,
		Latex:          latexRenderer(cfg.Latex),
		Xournalpp:      c.xournalpp,
		CoalesceWindow: cfg.Scribble.CoalesceWindow,
	}
	if c.root != nil && c.root.notifier != nil {
		opts.Notify = c.root.notifier
	}
	sess, err := session.New(path, 0, opts)
	var openErr *document.OpenError
	if errors.As(err, &openErr) {
		log.Printf("present: %v", err)
	} else if err != nil {
		return err
	}
	if !sess.Doc.IsEmpty() {
		page, err := resolvePage(sess.Doc, c.page)
		if err != nil {
			return err
		}
		sess.Doc.Goto(page, false, false)
	}
	fitLatex(opts.Latex, sess.Doc)

	notes, _ := notesPart(c.notes)
	if notes == document.PartFull {
		notes = sess.Doc.GuessNotes(cfg.Notes.Horizontal, cfg.Notes.Vertical)
	}

	popts := presenter.Options{
		Title:   "Lectern: " + filepath.Base(path),
		Notes:   notes,
		Console: !c.noConsole,
		Cache:   cache,
	}
	if c.root != nil {
		popts.Theme = c.root.activeTheme
	}
	c.place(&popts)

	if !c.noWatch && !sess.Doc.IsEmpty() {
		w, err := session.Watch(ctx, path, session.DefaultSettle, sess.RequestReload)
		if err != nil {
			log.Printf("watch %s: %v", path, err)
		} else {
			defer w.Close()
		}
	}

	if dev := c.penpadDevice(); dev != "" {
		pump := input.NewPump(0)
		pad := input.NewPad(input.Axis{Max: cfg.Penpad.MaxX}, input.Axis{Max: cfg.Penpad.MaxY})
		pad.ExchangeXY = cfg.Penpad.ExchangeXY
		pad.MirrorX = cfg.Penpad.MirrorX
		pad.MirrorY = cfg.Penpad.MirrorY
		popts.Pump = pump
		go input.RunDevice(ctx, dev, pad, pump)
	}

	return presenter.New(sess, popts).Run(ctx)
}

// place sizes each window after the monitor it belongs on. Without RandR
// the default sizes stay.
func (c *presentCmd) place(o *presenter.Options) {
	monitors, err := display.List()
	if err != nil {
		log.Printf("monitors: %v", err)
		return
	}
	l, err := display.Place(monitors, c.content, c.console)
	if err != nil {
		log.Printf("monitors: %v", err)
		return
	}
	o.ContentSize = l.Content.Rect.Size()
	if !l.Shared {
		o.ConsoleSize = l.Presenter.Rect.Size()
	}
}

func (c *presentCmd) penpadDevice() string {
	dev := strings.TrimSpace(c.penpad)
	if dev != "auto" {
		return dev
	}
	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		log.Printf("penpad: %v", err)
		return ""
	}
	defer f.Close()
	path, ok := input.FindStylus(f)
	if !ok {
		log.Printf("penpad: no stylus device found")
		return ""
	}
	return path
}
