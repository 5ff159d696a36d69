// Package clipboard publishes rendered slides and page labels to the
// system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
)

var (
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	errEmpty     = errors.New("nothing to copy")
)

// Content is what one copy offers. Applications that paste images get
// Image, the others get Text.
type Content struct {
	Image image.Image
	Text  string
}

// WriteImage publishes img as PNG.
func WriteImage(img image.Image) error { return Write(Content{Image: img}) }

// WriteText publishes text.
func WriteText(text string) error { return Write(Content{Text: text}) }

type payload struct {
	png  []byte
	text []byte
}

func (c Content) encode() (payload, error) {
	var p payload
	if c.Image != nil {
		var buf bytes.Buffer
		if err := png.Encode(&buf, c.Image); err != nil {
			return p, err
		}
		p.png = buf.Bytes()
	}
	if c.Text != "" {
		p.text = []byte(c.Text)
	}
	if p.png == nil && p.text == nil {
		return p, errEmpty
	}
	return p, nil
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}
