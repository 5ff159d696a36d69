package main

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
)

type renderCmd struct {
	*command
	page   string
	width  int
	output string
	copy   bool
}

func parseRenderCmd(args []string, r *root) (*renderCmd, error) {
	c := &renderCmd{command: newCommand(r, "render", "<file.pdf>", "Render a page with its annotations to a PNG file or the clipboard.")}
	c.fs.StringVar(&c.page, "page", "1", "page label or number")
	c.fs.IntVar(&c.width, "width", 1920, "image width in pixels")
	c.fs.StringVar(&c.output, "o", "", "output PNG (default: <deck>-<page>.png in the export directory)")
	c.fs.BoolVar(&c.copy, "copy", false, "copy the page to the clipboard instead of writing a file")
	if err := c.parse(args, 1, 1); err != nil {
		return nil, err
	}
	if c.width <= 0 {
		return nil, fmt.Errorf("width must be positive")
	}
	return c, nil
}

func (c *renderCmd) Run() error {
	s, err := c.openSession(c.fs.Arg(0), c.page, c.cfg().HighlightMode)
	if err != nil {
		return err
	}
	defer s.Doc.Close()
	if c.copy {
		return s.CopySlide(c.width)
	}
	img, err := s.Compose(c.width, 0)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	out := c.output
	if out == "" {
		label := s.Doc.CurrentPage().Label
		if label == "" {
			label = fmt.Sprint(s.Doc.Current() + 1)
		}
		out = exportPath(c.cfg().ExportDir, s.Doc.Path(), "-"+sanitize(label)+".png")
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("render: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if c.root != nil && c.root.notifier != nil {
		c.root.notifier.Export(out)
	}
	fmt.Fprintln(c.stdout, out)
	return nil
}

// exportPath names an output beside the deck, or in dir when set.
func exportPath(dir, deck, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(deck), filepath.Ext(deck)) + suffix
	if dir == "" {
		dir = filepath.Dir(deck)
	}
	return filepath.Join(dir, base)
}

func sanitize(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '_'
		}
		return r
	}, label)
}

type exportCmd struct {
	*command
	output string
}

func parseExportCmd(args []string, r *root) (*exportCmd, error) {
	c := &exportCmd{command: newCommand(r, "export", "<file.pdf>", "Export the annotated deck as a xournal++ file, or as a PDF through xournal++.")}
	c.fs.StringVar(&c.output, "o", "", "output .xopp or .pdf (default: <deck>.xopp in the export directory)")
	c.fs.StringVar(&c.xournalpp, "xournalpp", "xournalpp", "xournal++ command used for PDF output")
	if err := c.parse(args, 1, 1); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *exportCmd) Run() error {
	cfg := c.cfg()
	s, err := c.openSession(c.fs.Arg(0), "", cfg.HighlightMode)
	if err != nil {
		return err
	}
	defer s.Doc.Close()
	out := c.output
	if out == "" {
		out = exportPath(cfg.ExportDir, s.Doc.Path(), ".xopp")
	}
	if strings.EqualFold(filepath.Ext(out), ".pdf") {
		err = s.ExportPDF(out)
	} else {
		err = s.ExportXopp(out)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.stdout, out)
	return nil
}
