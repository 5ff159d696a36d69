package main

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/example/lectern/internal/config"
	"github.com/example/lectern/internal/display"
	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/persist"
	"github.com/example/lectern/internal/scribble"
)

type deckSource struct {
	labels []string
}

func (d *deckSource) NumPages() int                            { return len(d.labels) }
func (d *deckSource) Label(p int) string                       { return d.labels[p] }
func (d *deckSource) FindDest(string) (int, bool)              { return 0, false }
func (d *deckSource) Close() error                             { return nil }
func (d *deckSource) Outline() ([]document.OutlineItem, error) { return nil, nil }

func (d *deckSource) PageInfo(p int) (document.PageInfo, error) {
	return document.PageInfo{Width: 400, Height: 300, Label: d.labels[p]}, nil
}

func testRoot(t *testing.T) (*root, string) {
	t.Helper()
	r := &root{
		program: "lectern",
		config:  config.New(),
		open: func(string) (document.Source, error) {
			return &deckSource{labels: []string{"title", "intro", "end"}}, nil
		},
	}
	return r, filepath.Join(t.TempDir(), "talk.pdf")
}

func capture(c *command) *bytes.Buffer {
	var buf bytes.Buffer
	c.stdout = &buf
	return &buf
}

func TestUsageErrorRendersFlags(t *testing.T) {
	_, err := parseRenderCmd(nil, nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	help := uerr.Error()
	for _, want := range []string{"Usage: lectern render [flags] <file.pdf>", "-width (default 1920)", "-copy"} {
		if !strings.Contains(help, want) {
			t.Errorf("help lacks %q:\n%s", want, help)
		}
	}
}

func TestRootRequiresCommand(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	r := newRoot()
	err := r.Run(nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(uerr.Error(), "Commands:") {
		t.Errorf("root help lacks the command list:\n%s", uerr.Error())
	}
}

func TestConfigUsage(t *testing.T) {
	_, err := parseConfigCmd([]string{"print", "extra"}, nil)
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(uerr.Error(), "print   write the effective configuration") {
		t.Errorf("config help not used:\n%s", uerr.Error())
	}
}

func TestParseFont(t *testing.T) {
	tests := []struct {
		in   string
		want scribble.Font
		ok   bool
	}{
		{"Sans 24", scribble.Font{Family: "Sans", Size: 24}, true},
		{"DejaVu Sans Mono 10.5", scribble.Font{Family: "DejaVu Sans Mono", Size: 10.5}, true},
		{"Sans", scribble.Font{}, false},
		{"Sans big", scribble.Font{}, false},
	}
	for _, tt := range tests {
		got, ok := parseFont(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseFont(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToolSettings(t *testing.T) {
	cfg := config.New()
	cfg.Scribble.Width = 4
	st := toolSettings(cfg.Scribble)
	if st.Color != (scribble.RGBA{R: 1, A: 1}) {
		t.Errorf("colour = %+v", st.Color)
	}
	if st.Fill.A != 64.0/255 || st.Fill.R != 1 {
		t.Errorf("fill = %+v", st.Fill)
	}
	if st.Width != 4 || st.Font != (scribble.Font{Family: "Sans", Size: 24}) {
		t.Errorf("settings = %+v", st)
	}
}

func TestNotesPart(t *testing.T) {
	for in, want := range map[string]document.Part{
		"auto":   document.PartFull,
		"none":   document.PartNone,
		"right":  document.PartRight,
		"bottom": document.PartBottom,
	} {
		got, err := notesPart(in)
		if err != nil || got != want {
			t.Errorf("notesPart(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := notesPart("full"); err == nil {
		t.Errorf("full accepted as a notes position")
	}
}

func TestPagesAndLookup(t *testing.T) {
	r, path := testRoot(t)
	pages, err := parsePagesCmd([]string{path}, r)
	if err != nil {
		t.Fatal(err)
	}
	out := capture(pages.command)
	if err := pages.Run(); err != nil {
		t.Fatalf("pages: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "intro") || !strings.Contains(lines[1], "page 2") {
		t.Errorf("unexpected listing:\n%s", out)
	}

	lookup, err := parseLookupCmd([]string{path, "int"}, r)
	if err != nil {
		t.Fatal(err)
	}
	out = capture(lookup.command)
	if err := lookup.Run(); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got := out.String(); got != "2\tintro\n" {
		t.Errorf("lookup printed %q", got)
	}

	missing, _ := parseLookupCmd([]string{path, "zzz"}, r)
	if err := missing.Run(); err == nil {
		t.Errorf("lookup of a missing label succeeded")
	}
}

func TestInsertSavesPageMap(t *testing.T) {
	r, path := testRoot(t)
	c, err := parseInsertCmd([]string{"-before", "2", path}, r)
	if err != nil {
		t.Fatal(err)
	}
	out := capture(c.command)
	if err := c.Run(); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := out.String(); got != "inserted page 2 of 4\n" {
		t.Errorf("insert printed %q", got)
	}
	st, err := persist.Load(persist.SidecarPath(path))
	if err != nil {
		t.Fatal(err)
	}
	want := map[int]int{0: 0, 1: -1, 2: 1, 3: 2}
	if diff := cmp.Diff(want, st.PageMap); diff != "" {
		t.Errorf("page map (-want +got):\n%s", diff)
	}
}

func TestRenderWritesPNG(t *testing.T) {
	r, path := testRoot(t)
	target := filepath.Join(filepath.Dir(path), "slide.png")
	c, err := parseRenderCmd([]string{"-page", "intro", "-width", "80", "-o", target, path}, r)
	if err != nil {
		t.Fatal(err)
	}
	capture(c.command)
	if err := c.Run(); err != nil {
		t.Fatalf("render: %v", err)
	}
	f, err := os.Open(target)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got.X != 80 || got.Y != 60 {
		t.Errorf("image size = %v, want 80x60", got)
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, path := testRoot(t)
	c, err := parseRenderCmd([]string{"-page", "99", path}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Run(); err == nil || !strings.Contains(err.Error(), `no page "99"`) {
		t.Errorf("expected a missing page error, got %v", err)
	}
}

func TestExportPath(t *testing.T) {
	if got := exportPath("", "/talks/deck.pdf", ".xopp"); got != filepath.Join("/talks", "deck.xopp") {
		t.Errorf("beside the deck: %q", got)
	}
	if got := exportPath("/out", "/talks/deck.pdf", "-1_a.png"); got != filepath.Join("/out", "deck-1_a.png") {
		t.Errorf("in the export dir: %q", got)
	}
	if got := sanitize("2/3 b"); got != "2_3_b" {
		t.Errorf("sanitize = %q", got)
	}
}

func TestMonitorsCmd(t *testing.T) {
	orig := listMonitors
	listMonitors = func() ([]display.Monitor, error) {
		return []display.Monitor{
			{Index: 0, Name: "eDP-1", Primary: true},
			{Index: 1, Name: "HDMI-1"},
		}, nil
	}
	t.Cleanup(func() { listMonitors = orig })

	c, err := parseMonitorsCmd(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	out := capture(c.command)
	if err := c.Run(); err != nil {
		t.Fatalf("monitors: %v", err)
	}
	for _, want := range []string{"content: #1 HDMI-1", "presenter: #0 eDP-1"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}
