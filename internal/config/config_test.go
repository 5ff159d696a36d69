package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/lectern/internal/document"
)

func TestParse(t *testing.T) {
	input := `
highlight_mode = page
theme = my_custom_theme
export_dir = /tmp/talks

[scribble]
color = #0000FF
fill_color: #00FF0080
width = 3.5
font = "Serif 18"
coalesce_window = 500ms

[notes]
horizontal = left
vertical = top

[penpad]
device = /dev/input/event7
mirror_x = false
max_x = 20000
max_y = 15000

[latex]
dpi = 150

[notify]
save = true
copy = true

[theme.my_custom_theme]
Background = #111111
Pointer = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.HighlightMode != document.ModePage {
		t.Errorf("highlight mode %v", cfg.HighlightMode)
	}
	if cfg.Theme != "my_custom_theme" || cfg.ExportDir != "/tmp/talks" {
		t.Errorf("root section: %q %q", cfg.Theme, cfg.ExportDir)
	}
	want := Scribble{
		Color:          color.RGBA{0, 0, 255, 255},
		Fill:           color.RGBA{0, 255, 0, 128},
		Width:          3.5,
		Font:           "Serif 18",
		MinDistance:    1e-6,
		CoalesceWindow: 500 * time.Millisecond,
	}
	if diff := cmp.Diff(want, cfg.Scribble); diff != "" {
		t.Errorf("scribble (-want +got):\n%s", diff)
	}
	if cfg.Notes != (Notes{Horizontal: document.PartLeft, Vertical: document.PartTop}) {
		t.Errorf("notes %+v", cfg.Notes)
	}
	if cfg.Penpad != (Penpad{Device: "/dev/input/event7", ExchangeXY: true, MaxX: 20000, MaxY: 15000}) {
		t.Errorf("penpad %+v", cfg.Penpad)
	}
	if cfg.Latex != (Latex{Command: "latex", Dvipng: "dvipng", DPI: 150}) {
		t.Errorf("latex %+v", cfg.Latex)
	}
	if cfg.Notify != (Notify{Save: true, Copy: true}) {
		t.Errorf("notify %+v", cfg.Notify)
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background != (color.RGBA{0x11, 0x11, 0x11, 255}) {
		t.Errorf("Unexpected Background color: %+v", th.Background)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"highlight_mode = sometimes",
		"[scribble]\nwidth = -1",
		"[scribble]\ncolor = red",
		"[notes]\nhorizontal = top",
		"[notify]\nsave = maybe",
		"[latex]\ndpi = 0",
		"[penpad]\nmax_x = lots",
	}
	for _, c := range cases {
		if _, err := Parse(strings.NewReader(c)); err == nil {
			t.Errorf("Parse(%q) succeeded", c)
		}
	}
	_, err := Parse(strings.NewReader("# comment\n\n[notify]\ncopy = nope"))
	if err == nil || !strings.Contains(err.Error(), "line 4") {
		t.Errorf("error does not name the line: %v", err)
	}
}

func TestCircular(t *testing.T) {
	input := `highlight_mode = single
theme = dark
export_dir = /home/user/talks

[scribble]
color = #12345678
width = 1.25
font = Mono 12
min_distance = 0.0001
coalesce_window = 2s

[penpad]
exchange_xy = false
mirror_y = true
max_x = 100
max_y = 200

[notify]
save = true
export = true
reload = true

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}
	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v\n%s", err, cfg)
	}
	if diff := cmp.Diff(cfg, cfg2); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestLoaderEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lectern.rc")
	if err := os.WriteFile(path, []byte("theme = light\nhighlight_mode = clear\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		"LECTERN_HIGHLIGHT_MODE": "page",
		"LECTERN_LATEX":          "/opt/tex/bin/latex",
	}
	l := &Loader{OverridePath: path, Getenv: func(k string) string { return env[k] }}
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Theme != "light" {
		t.Errorf("theme %q", cfg.Theme)
	}
	if cfg.HighlightMode != document.ModePage {
		t.Errorf("env did not override the file: %v", cfg.HighlightMode)
	}
	if cfg.Latex.Command != "/opt/tex/bin/latex" {
		t.Errorf("latex command %q", cfg.Latex.Command)
	}

	env["LECTERN_HIGHLIGHT_MODE"] = "bogus"
	if _, err := l.Load(); err == nil {
		t.Errorf("bad env value accepted")
	}
}

func TestLoaderSearchOrder(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd := t.TempDir()
	t.Chdir(wd)

	l := NewLoader("dev", "")
	if p := l.GetConfigPath(); p != "" {
		t.Fatalf("found %q in an empty home", p)
	}
	fallback := filepath.Join(home, ".config", "lectern", "lectern.rc")
	if err := Save(fallback, New()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p := l.GetConfigPath(); p != fallback {
		t.Errorf("got %q, want %q", p, fallback)
	}
	if err := Save(DefaultPath(), New()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if p := l.GetConfigPath(); p != DefaultPath() {
		t.Errorf("got %q, want %q", p, DefaultPath())
	}
	local := filepath.Join(wd, ".lecternrc")
	if err := os.WriteFile(local, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if p := l.GetConfigPath(); p != local {
		t.Errorf("dev build ignored %q: got %q", local, p)
	}
	if p := NewLoader("1.0.0", "").GetConfigPath(); p != DefaultPath() {
		t.Errorf("release build used %q", p)
	}
}
