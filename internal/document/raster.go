package document

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strconv"

	"golang.org/x/image/draw"
)

// Pdftoppm renders pages by running the poppler pdftoppm tool.
type Pdftoppm struct {
	Path    string
	Command string
}

// NewPdftoppm returns a rasterizer for the PDF at path.
func NewPdftoppm(path string) *Pdftoppm {
	return &Pdftoppm{Path: path, Command: "pdftoppm"}
}

// Rasterize implements Rasterizer. The page is scaled to fill dst.
func (p *Pdftoppm) Rasterize(physical int, dst *image.RGBA) error {
	b := dst.Bounds()
	if b.Empty() {
		return nil
	}
	page := strconv.Itoa(physical + 1)
	cmd := exec.Command(p.Command,
		"-f", page, "-l", page,
		"-png", "-singlefile",
		"-scale-to-x", strconv.Itoa(b.Dx()),
		"-scale-to-y", strconv.Itoa(b.Dy()),
		p.Path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("%s page %s: %w: %s", p.Command, page, err, bytes.TrimSpace(stderr.Bytes()))
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		return fmt.Errorf("%s page %s: %w", p.Command, page, err)
	}
	if img.Bounds().Size() == b.Size() {
		draw.Draw(dst, b, img, img.Bounds().Min, draw.Src)
		return nil
	}
	draw.ApproxBiLinear.Scale(dst, b, img, img.Bounds(), draw.Src, nil)
	return nil
}
