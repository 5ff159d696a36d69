package main

import (
	"fmt"
	"strings"

	"github.com/example/lectern/internal/document"
)

type pagesCmd struct {
	*command
}

func parsePagesCmd(args []string, r *root) (*pagesCmd, error) {
	c := &pagesCmd{command: newCommand(r, "pages", "<file.pdf>", "List the logical pages of a deck with their labels and annotations.")}
	if err := c.parse(args, 1, 1); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *pagesCmd) Run() error {
	doc, err := c.openDocument(c.fs.Arg(0))
	if err != nil {
		return err
	}
	defer doc.Close()
	for i := 0; i < doc.NumPages(); i++ {
		page := doc.Page(i)
		source := "blank"
		if page.Physical >= 0 {
			source = fmt.Sprintf("page %d", page.Physical+1)
		}
		fmt.Fprintf(c.stdout, "%3d  %-8s %-9s %gx%g", i+1, page.Label, source, page.Width, page.Height)
		if n := len(doc.Scribbles[i]); n > 0 {
			fmt.Fprintf(c.stdout, "  %d scribbles", n)
		}
		if n := len(page.Links); n > 0 {
			fmt.Fprintf(c.stdout, "  %d links", n)
		}
		fmt.Fprintln(c.stdout)
		for _, a := range page.Annotations {
			fmt.Fprintf(c.stdout, "       note: %s\n", a)
		}
	}
	return nil
}

type outlineCmd struct {
	*command
}

func parseOutlineCmd(args []string, r *root) (*outlineCmd, error) {
	c := &outlineCmd{command: newCommand(r, "outline", "<file.pdf>", "Print the sections of a deck with the pages they start on.")}
	if err := c.parse(args, 1, 1); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *outlineCmd) Run() error {
	doc, err := c.openDocument(c.fs.Arg(0))
	if err != nil {
		return err
	}
	defer doc.Close()
	secs, err := doc.Structure()
	if err != nil {
		return fmt.Errorf("outline: %w", err)
	}
	if len(secs) == 0 {
		fmt.Fprintln(c.stdout, "no outline")
		return nil
	}
	c.printSections(doc, secs, 0)
	return nil
}

func (c *outlineCmd) printSections(doc *document.Document, secs []document.Section, depth int) {
	for _, s := range secs {
		label := ""
		if page := doc.Page(s.Page); page != nil {
			label = page.Label
		}
		fmt.Fprintf(c.stdout, "%s%s  (%s)\n", strings.Repeat("  ", depth), s.Title, label)
		c.printSections(doc, s.Children, depth+1)
	}
}

type lookupCmd struct {
	*command
	prefix bool
}

func parseLookupCmd(args []string, r *root) (*lookupCmd, error) {
	c := &lookupCmd{command: newCommand(r, "lookup", "<file.pdf> <label>", "Find the page carrying a label, or starting with it.")}
	c.fs.BoolVar(&c.prefix, "unique-prefix", false, "reject a prefix shared by several labels")
	if err := c.parse(args, 2, 2); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *lookupCmd) Run() error {
	doc, err := c.openDocument(c.fs.Arg(0))
	if err != nil {
		return err
	}
	defer doc.Close()
	label := c.fs.Arg(1)
	i, ok := doc.LookupLabel(label, c.prefix)
	if !ok {
		return fmt.Errorf("no page labelled %q", label)
	}
	fmt.Fprintf(c.stdout, "%d\t%s\n", i+1, doc.Page(i).Label)
	return nil
}

type insertCmd struct {
	*command
	before string
}

func parseInsertCmd(args []string, r *root) (*insertCmd, error) {
	c := &insertCmd{command: newCommand(r, "insert", "<file.pdf>", "Insert a blank page and save the page map beside the deck.")}
	c.fs.StringVar(&c.before, "before", "", "page label or number the blank page goes before (default: after the last page)")
	if err := c.parse(args, 1, 1); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *insertCmd) Run() error {
	s, err := c.openSession(c.fs.Arg(0), "", c.cfg().HighlightMode)
	if err != nil {
		return err
	}
	defer s.Quit()
	before := s.Doc.NumPages()
	if c.before != "" {
		if before, err = resolvePage(s.Doc, c.before); err != nil {
			return err
		}
	}
	if err := s.InsertPage(before); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	if err := s.Save(); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "inserted page %d of %d\n", before+1, s.Doc.NumPages())
	return nil
}
