package persist

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strconv"

	"github.com/example/lectern/internal/scribble"
)

// ExportPage is one logical page handed to Export.
type ExportPage struct {
	Width, Height float64
	// Physical is the page in the source file, or -1 for a blank page.
	Physical  int
	Scribbles []scribble.Scribble
}

// LatexPNG renders LaTeX source to PNG bytes for export.
type LatexPNG func(source string, c scribble.RGBA) ([]byte, error)

const ellipseSteps = 720

// Export writes the pages as a xournal++ document whose backgrounds point
// at the pages of source.
func Export(w io.Writer, source string, pages []ExportPage, latex LatexPNG) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, `<?xml version="1.0" standalone="no"?>`)
	fmt.Fprintln(bw, `<xournal creator="lectern" fileversion="4">`)
	fmt.Fprintln(bw, `<title>Xournal++ document - see https://github.com/xournalpp/xournalpp</title>`)
	for _, p := range pages {
		if err := exportPage(bw, source, p, latex); err != nil {
			return err
		}
	}
	fmt.Fprintln(bw, "</xournal>")
	return bw.Flush()
}

func num(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

// hexColor truncates each component, as xournal++ files written by the
// original tool do.
func hexColor(c scribble.RGBA) string {
	comp := func(v float64) int { return int(math.Max(0, math.Min(1, v)) * 255) }
	return fmt.Sprintf("#%02x%02x%02x%02x", comp(c.R), comp(c.G), comp(c.B), comp(c.A))
}

func tool(c scribble.RGBA) string {
	if c.A == 1 {
		return "pen"
	}
	return "highlighter"
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

func exportPage(w *bufio.Writer, source string, p ExportPage, latex LatexPNG) error {
	fmt.Fprintf(w, "<page width=\"%s\" height=\"%s\">\n", num(p.Width), num(p.Height))
	if p.Physical >= 0 {
		fmt.Fprintf(w, "<background type=\"pdf\" domain=\"absolute\" filename=\"%s\" pageno=\"%dll\"/>\n", escape(source), p.Physical+1)
	} else {
		fmt.Fprintln(w, `<background type="solid" color="#ffffffff" style="plain"/>`)
	}
	fmt.Fprintln(w, "<layer>")
	for _, s := range p.Scribbles {
		if err := exportScribble(w, p, s, latex); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, "</layer>")
	fmt.Fprintln(w, "</page>")
	return nil
}

func exportScribble(w *bufio.Writer, p ExportPage, s scribble.Scribble, latex LatexPNG) error {
	b := s.Attrs()
	color := hexColor(b.Color)
	switch v := s.(type) {
	case *scribble.Segment:
		if len(v.Points) < 2 {
			return nil
		}
		fmt.Fprintf(w, "<stroke tool=\"%s\" ts=\"0ll\" fn=\"\" color=\"%s\" width=\"%s\">\n", tool(b.Color), color, num(b.Width))
		for _, pt := range v.Points {
			fmt.Fprintf(w, "     %s %s\n", num(pt.X*p.Width), num(pt.Y*p.Height))
		}
		fmt.Fprintln(w, "</stroke>")
	case *scribble.Shape:
		if len(v.Points) < 2 {
			return nil
		}
		if v.Fill.A > 0 {
			fmt.Fprintf(w, "<stroke tool=\"%s\" ts=\"0ll\" fn=\"\" color=\"%s\" width=\"%s\" fill=\"%d\">\n",
				tool(b.Color), hexColor(v.Fill), num(b.Width), int(v.Fill.A*255))
			shapePoints(w, p, v)
		}
		if b.Color.A > 0 {
			fmt.Fprintf(w, "<stroke tool=\"%s\" ts=\"0ll\" fn=\"\" color=\"%s\" width=\"%s\">\n", tool(b.Color), color, num(b.Width))
			shapePoints(w, p, v)
		}
	case *scribble.Text:
		if v.Text == "" {
			return nil
		}
		box := scribble.Bounds(v)
		fmt.Fprintf(w, "<text font=\"%s\" size=\"%s\" x=\"%s\" y=\"%s\" ts=\"0ll\" color=\"%s\">%s</text>\n",
			escape(v.Font.Family), num(v.Font.Size), num(box.LLx*p.Width), num(v.Anchor().Y*p.Height), color, escape(v.Text))
	case *scribble.Image:
		if v.Raster == nil {
			return nil
		}
		data, err := encodePNG(v.Raster)
		if err != nil {
			return err
		}
		box := scribble.Bounds(v)
		fmt.Fprintf(w, "<image left=\"%s\" top=\"%s\" right=\"%s\" bottom=\"%s\">%s</image>\n",
			num(box.LLx*p.Width), num(box.LLy*p.Height), num(box.URx*p.Width), num(box.URy*p.Height), data)
	case *scribble.Latex:
		if v.Text == "" || latex == nil {
			return nil
		}
		raw, err := latex(v.Text, b.Color)
		if err != nil || raw == nil {
			return nil
		}
		box := scribble.Bounds(v)
		fmt.Fprintf(w, "<teximage text=\"%s\" left=\"%s\" top=\"%s\" right=\"%s\" bottom=\"%s\">%s</teximage>\n",
			escape(v.Text), num(box.LLx*p.Width), num(box.LLy*p.Height), num(box.URx*p.Width), num(box.URy*p.Height),
			base64.StdEncoding.EncodeToString(raw))
	}
	return nil
}

func shapePoints(w *bufio.Writer, p ExportPage, s *scribble.Shape) {
	a, b := s.Points[0], s.Points[1]
	if !s.Ellipse {
		for _, c := range [][2]float64{{a.X, a.Y}, {b.X, a.Y}, {b.X, b.Y}, {a.X, b.Y}, {a.X, a.Y}} {
			fmt.Fprintf(w, "     %s %s\n", num(c[0]*p.Width), num(c[1]*p.Height))
		}
	} else {
		rx := (b.X - a.X) * p.Width / 2
		ry := (b.Y - a.Y) * p.Height / 2
		cx := (b.X + a.X) * p.Width / 2
		cy := (b.Y + a.Y) * p.Height / 2
		for i := 0; i < ellipseSteps; i++ {
			t := float64(i) / ellipseSteps * math.Pi * 2
			fmt.Fprintf(w, "     %s %s\n", num(cx+math.Cos(t)*rx), num(cy+math.Sin(t)*ry))
		}
	}
	fmt.Fprintln(w, "</stroke>")
}

func encodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
