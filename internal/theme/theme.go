// Package theme holds the colours of the presenter console.
package theme

import (
	"embed"
	"image/color"
)

// EmbeddedThemes are the themes shipped with the binary.
//
//go:embed defaults/*.theme
var EmbeddedThemes embed.FS

// Theme defines the colour palette of the presenter window.
type Theme struct {
	Name string

	// Window
	Background color.RGBA // behind the slides
	Foreground color.RGBA // clock, counters, notes text
	Panel      color.RGBA // notes and annotations panel

	// Slides
	CurrentBorder color.RGBA // frame around the current slide
	NextBorder    color.RGBA
	Blank         color.RGBA // fill of inserted blank pages
	Label         color.RGBA // page label under each preview

	// Scribbles
	Pointer   color.RGBA // pen position marker
	Selection color.RGBA // dashed outline around selected scribbles
}

// Default returns the built-in dark theme.
func Default() *Theme {
	return &Theme{
		Name:          "Default",
		Background:    color.RGBA{24, 24, 24, 255},
		Foreground:    color.RGBA{230, 230, 230, 255},
		Panel:         color.RGBA{40, 40, 40, 255},
		CurrentBorder: color.RGBA{255, 200, 0, 255},
		NextBorder:    color.RGBA{90, 90, 90, 255},
		Blank:         color.RGBA{255, 255, 255, 255},
		Label:         color.RGBA{170, 170, 170, 255},
		Pointer:       color.RGBA{255, 0, 0, 200},
		Selection:     color.RGBA{0, 120, 255, 255},
	}
}
