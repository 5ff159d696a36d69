// Package config reads and writes the lectern RC file.
package config

import (
	"fmt"
	"image/color"
	"sort"
	"strings"
	"time"

	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/notify"
	"github.com/example/lectern/internal/theme"
)

// Scribble holds the pen defaults.
type Scribble struct {
	Color color.RGBA
	Fill  color.RGBA
	Width float64
	// Font is a family followed by a size, as in "Sans 24".
	Font string
	// MinDistance is the squared distance, in page fractions, below which
	// freehand points are dropped.
	MinDistance float64
	// CoalesceWindow bounds how far apart two attribute changes may be and
	// still undo as one.
	CoalesceWindow time.Duration
}

// Notes says where the notes half sits on pages that carry them.
type Notes struct {
	Horizontal document.Part
	Vertical   document.Part
}

// Penpad configures a raw tablet device.
type Penpad struct {
	Device     string
	ExchangeXY bool
	MirrorX    bool
	MirrorY    bool
	MaxX, MaxY int32
}

// Latex names the commands used to render LaTeX scribbles.
type Latex struct {
	Command string
	Dvipng  string
	DPI     int
}

// Notify holds notification settings.
type Notify struct {
	Save   bool
	Export bool
	Copy   bool
	Reload bool
}

// Enabled reports the setting for e.
func (n Notify) Enabled(e notify.Event) bool {
	switch e {
	case notify.EventSave:
		return n.Save
	case notify.EventExport:
		return n.Export
	case notify.EventCopy:
		return n.Copy
	case notify.EventReload:
		return n.Reload
	}
	return false
}

// Config holds the application configuration.
type Config struct {
	HighlightMode document.HighlightMode
	Theme         string
	ExportDir     string
	Scribble      Scribble
	Notes         Notes
	Penpad        Penpad
	Latex         Latex
	Notify        Notify
	Themes        map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		HighlightMode: document.ModeAutoPage,
		Scribble: Scribble{
			Color:          color.RGBA{255, 0, 0, 255},
			Fill:           color.RGBA{255, 0, 0, 64},
			Width:          2,
			Font:           "Sans 24",
			MinDistance:    1e-6,
			CoalesceWindow: time.Second,
		},
		Notes: Notes{Horizontal: document.PartRight, Vertical: document.PartBottom},
		Penpad: Penpad{
			ExchangeXY: true,
			MirrorX:    true,
		},
		Latex:  Latex{Command: "latex", Dvipng: "dvipng", DPI: 300},
		Themes: make(map[string]*theme.Theme),
	}
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "highlight_mode = %s\n", c.HighlightMode)
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.ExportDir != "" {
		fmt.Fprintf(&sb, "export_dir = %s\n", c.ExportDir)
	}
	sb.WriteString("\n")

	sb.WriteString("[scribble]\n")
	fmt.Fprintf(&sb, "color = %s\n", theme.Hex(c.Scribble.Color))
	fmt.Fprintf(&sb, "fill_color = %s\n", theme.Hex(c.Scribble.Fill))
	fmt.Fprintf(&sb, "width = %g\n", c.Scribble.Width)
	fmt.Fprintf(&sb, "font = %q\n", c.Scribble.Font)
	fmt.Fprintf(&sb, "min_distance = %g\n", c.Scribble.MinDistance)
	fmt.Fprintf(&sb, "coalesce_window = %s\n", c.Scribble.CoalesceWindow)
	sb.WriteString("\n")

	sb.WriteString("[notes]\n")
	fmt.Fprintf(&sb, "horizontal = %s\n", c.Notes.Horizontal)
	fmt.Fprintf(&sb, "vertical = %s\n", c.Notes.Vertical)
	sb.WriteString("\n")

	sb.WriteString("[penpad]\n")
	if c.Penpad.Device != "" {
		fmt.Fprintf(&sb, "device = %s\n", c.Penpad.Device)
	}
	fmt.Fprintf(&sb, "exchange_xy = %v\n", c.Penpad.ExchangeXY)
	fmt.Fprintf(&sb, "mirror_x = %v\n", c.Penpad.MirrorX)
	fmt.Fprintf(&sb, "mirror_y = %v\n", c.Penpad.MirrorY)
	if c.Penpad.MaxX != 0 || c.Penpad.MaxY != 0 {
		fmt.Fprintf(&sb, "max_x = %d\n", c.Penpad.MaxX)
		fmt.Fprintf(&sb, "max_y = %d\n", c.Penpad.MaxY)
	}
	sb.WriteString("\n")

	sb.WriteString("[latex]\n")
	fmt.Fprintf(&sb, "command = %s\n", c.Latex.Command)
	fmt.Fprintf(&sb, "dvipng = %s\n", c.Latex.Dvipng)
	fmt.Fprintf(&sb, "dpi = %d\n", c.Latex.DPI)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "reload = %v\n", c.Notify.Reload)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	themeNames := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)
	for _, name := range themeNames {
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		_ = theme.Encode(&sb, c.Themes[name])
		sb.WriteString("\n")
	}

	return sb.String()
}
