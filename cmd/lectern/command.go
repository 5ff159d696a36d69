package main

import (
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/example/lectern/internal/config"
	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/render"
	"github.com/example/lectern/internal/scribble"
	"github.com/example/lectern/internal/session"
	"github.com/example/lectern/internal/tool"
)

// command is what every subcommand shares: its flags and its help text.
type command struct {
	*root
	program string
	args    string
	summary string
	fs      *flag.FlagSet
	stdout  io.Writer
	// xournalpp is the command PDF export runs.
	xournalpp string
}

func newCommand(r *root, name, args, summary string) *command {
	program := "lectern " + name
	if r != nil {
		program = r.subcommand(name)
	}
	c := &command{
		root:    r,
		program: program,
		args:    args,
		summary: summary,
		fs:      flag.NewFlagSet(name, flag.ContinueOnError),
		stdout:  os.Stdout,
	}
	c.fs.Usage = usageFunc(c)
	return c
}

func (c *command) Program() string        { return c.program }
func (c *command) Args() string           { return c.args }
func (c *command) Summary() string        { return c.summary }
func (c *command) FlagSet() *flag.FlagSet { return c.fs }
func (c *command) Template() string       { return "command.txt" }

// parse parses args and checks the positional count.
func (c *command) parse(args []string, minArgs, maxArgs int) error {
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &UsageError{of: c}
		}
		return err
	}
	if n := c.fs.NArg(); n < minArgs || (maxArgs >= 0 && n > maxArgs) {
		return &UsageError{of: c}
	}
	return nil
}

func (c *command) cfg() *config.Config {
	if c.root == nil || c.root.config == nil {
		return config.New()
	}
	return c.root.config
}

func (c *command) opener() document.Opener {
	if c.root == nil {
		return nil
	}
	return c.root.open
}

// openDocument opens path for the read-only commands.
func (c *command) openDocument(path string) (*document.Document, error) {
	return document.Create(path, 0, nil, document.Options{Open: c.opener(), Mode: c.cfg().HighlightMode})
}

// openSession opens path on the page selected by sel. Unlike the window,
// the commands refuse to run on a file that fails to open.
func (c *command) openSession(path, sel string, mode document.HighlightMode) (*session.Session, error) {
	cfg := c.cfg()
	opts := session.Options{
		Mode:           mode,
		Settings:       toolSettings(cfg.Scribble),
		Open:           c.opener(),
		Latex:          latexRenderer(cfg.Latex),
		Xournalpp:      c.xournalpp,
		CoalesceWindow: cfg.Scribble.CoalesceWindow,
	}
	if c.root != nil && c.root.notifier != nil {
		opts.Notify = c.root.notifier
	}
	s, err := session.New(path, 0, opts)
	if err != nil {
		return nil, err
	}
	page, err := resolvePage(s.Doc, sel)
	if err != nil {
		s.Doc.Close()
		return nil, err
	}
	s.Doc.Goto(page, false, false)
	fitLatex(opts.Latex, s.Doc)
	return s, nil
}

// resolvePage accepts a page label or a 1-based page number. An empty
// selector is the current page.
func resolvePage(doc *document.Document, sel string) (int, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return doc.Current(), nil
	}
	if i, ok := doc.LookupLabel(sel, false); ok {
		return i, nil
	}
	n, err := strconv.Atoi(sel)
	if err != nil || n < 1 || n > doc.NumPages() {
		return 0, fmt.Errorf("no page %q in %s", sel, doc.Path())
	}
	return n - 1, nil
}

func toolSettings(s config.Scribble) tool.Settings {
	st := tool.DefaultSettings()
	st.Color = scribble.FromColor(color.NRGBA(s.Color))
	st.Fill = scribble.FromColor(color.NRGBA(s.Fill))
	if s.Width > 0 {
		st.Width = s.Width
	}
	if f, ok := parseFont(s.Font); ok {
		st.Font = f
	}
	if s.MinDistance > 0 {
		st.MinDistance = s.MinDistance
	}
	return st
}

// parseFont reads a font description such as "Sans Bold 24".
func parseFont(s string) (scribble.Font, bool) {
	s = strings.TrimSpace(s)
	i := strings.LastIndexByte(s, ' ')
	if i <= 0 {
		return scribble.Font{}, false
	}
	size, err := strconv.ParseFloat(s[i+1:], 64)
	if err != nil || size <= 0 {
		return scribble.Font{}, false
	}
	return scribble.Font{Family: strings.TrimSpace(s[:i]), Size: size}, true
}

func latexRenderer(l config.Latex) *render.Latex {
	r := render.NewLatex(document.DefaultPageWidth, document.DefaultPageHeight)
	if l.Command != "" {
		r.Latex = l.Command
	}
	if l.Dvipng != "" {
		r.Dvipng = l.Dvipng
	}
	if l.DPI > 0 {
		r.DPI = l.DPI
	}
	return r
}

// fitLatex sizes LaTeX rasters against the pages of doc.
func fitLatex(l *render.Latex, doc *document.Document) {
	if l == nil {
		return
	}
	if page := doc.CurrentPage(); page != nil && !page.IsPlaceholder() {
		l.PageWidth, l.PageHeight = page.Width, page.Height
	}
}
