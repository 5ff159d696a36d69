package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/example/lectern/internal/scribble"
)

// DefaultDPI is the resolution formulas are rasterized at.
const DefaultDPI = 300

var latexDoc = template.Must(template.New("latex").Parse(`\documentclass[{{.Size}}pt]{article}
\usepackage{amsmath}
\usepackage{amssymb}
\pagestyle{empty}
\begin{document}
{{.Source}}
\end{document}
`))

// Latex renders formulas by running latex and dvipng.
type Latex struct {
	Latex  string
	Dvipng string
	DPI    int
	// PageWidth and PageHeight convert the raster size into page fractions,
	// in the units of the font size.
	PageWidth, PageHeight float64
}

// NewLatex returns a renderer using the commands found in PATH.
func NewLatex(pageWidth, pageHeight float64) *Latex {
	return &Latex{Latex: "latex", Dvipng: "dvipng", DPI: DefaultDPI, PageWidth: pageWidth, PageHeight: pageHeight}
}

// PNG renders source in colour c and returns the encoded image. The
// font size is fixed at 10pt.
func (l *Latex) PNG(source string, c scribble.RGBA) ([]byte, error) {
	return l.run(source, 10, c)
}

// Render implements LatexFunc. A failed rendering leaves the item without
// a raster so that it is retried only when its source changes.
func (l *Latex) Render(item *scribble.Latex) error {
	size := item.Font.Size
	if size <= 0 {
		size = 10
	}
	data, err := l.run(item.Text, 10, item.Color)
	if err != nil {
		failed(item)
		return err
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		failed(item)
		return fmt.Errorf("decode dvipng output: %w", err)
	}
	w, h := l.extent(img.Bounds(), size)
	item.SetRaster(img, w, h)
	return nil
}

func failed(item *scribble.Latex) {
	item.Invalidate()
	item.RenderedFrom = item.Text
}

// extent converts a raster size into page fractions, scaling from the
// 10pt rendering to size.
func (l *Latex) extent(b image.Rectangle, size float64) (w, h float64) {
	if l.PageWidth <= 0 || l.PageHeight <= 0 {
		return 0, 0
	}
	dpi := float64(l.DPI)
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	k := 72 / dpi * size / 10
	return float64(b.Dx()) * k / l.PageWidth, float64(b.Dy()) * k / l.PageHeight
}

func (l *Latex) run(source string, size int, c scribble.RGBA) ([]byte, error) {
	dir, err := os.MkdirTemp("", "lectern-latex-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	var doc bytes.Buffer
	if err := latexDoc.Execute(&doc, struct {
		Size   int
		Source string
	}{size, source}); err != nil {
		return nil, err
	}
	tex := filepath.Join(dir, "formula.tex")
	if err := os.WriteFile(tex, doc.Bytes(), 0o600); err != nil {
		return nil, err
	}

	cmd := exec.Command(l.Latex, "-interaction=nonstopmode", "-halt-on-error", "formula.tex")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", l.Latex, err, lastLines(out, 5))
	}

	dpi := l.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	fg := fmt.Sprintf("rgb %.3f %.3f %.3f", c.R, c.G, c.B)
	cmd = exec.Command(l.Dvipng, "-q", "-T", "tight", "-D", fmt.Sprint(dpi),
		"-bg", "Transparent", "-fg", fg, "-o", "formula.png", "formula.dvi")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", l.Dvipng, err, lastLines(out, 5))
	}
	return os.ReadFile(filepath.Join(dir, "formula.png"))
}

func lastLines(b []byte, n int) string {
	lines := bytes.Split(bytes.TrimSpace(b), []byte("\n"))
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return string(bytes.Join(lines, []byte(" | ")))
}
