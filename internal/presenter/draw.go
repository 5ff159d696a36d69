package presenter

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/lectern/internal/tool"
)

const pointerRadius = 6

var textFace = sync.OnceValue(func() font.Face {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Printf("parse font: %v", err)
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 18, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Printf("new face: %v", err)
		return basicfont.Face7x13
	}
	return face
})

// uniform treats theme colours as straight alpha.
func uniform(c color.RGBA) *image.Uniform {
	return image.NewUniform(color.NRGBA(c))
}

// compose draws the whole window for the session's current state.
func (p *Presenter) compose(win *window) *image.RGBA {
	th := p.opts.Theme
	img := image.NewRGBA(image.Rectangle{Max: win.size})
	draw.Draw(img, img.Bounds(), uniform(th.Background), image.Point{}, draw.Src)
	lay := p.layout(win, p.sess.Doc.Current())
	for _, pn := range lay.panes {
		p.drawPane(img, pn)
	}
	if !lay.annotations.Empty() {
		p.drawAnnotations(img, lay.annotations)
	}
	if !lay.status.Empty() {
		p.drawStatus(img, lay.status)
	}
	return img
}

func (p *Presenter) drawPane(dst *image.RGBA, pn pane) {
	th := p.opts.Theme
	if pn.rect.Empty() {
		return
	}
	full := fullSize(pn.rect, pn.part)
	var page *image.RGBA
	var err error
	if pn.live {
		page, err = p.sess.Compose(full.X, full.Y)
	} else {
		page, err = p.sess.Preview(pn.page, full.X, full.Y)
	}
	if err != nil {
		draw.Draw(dst, pn.rect, uniform(th.Blank), image.Point{}, draw.Src)
	} else {
		draw.Draw(dst, pn.rect, page, partOffset(full, pn.part), draw.Src)
	}
	if pn.border.A > 0 {
		strokeRect(dst, pn.rect.Inset(-borderWidth), pn.border, borderWidth)
	}
	if pn.live && p.sess.Pointer != nil {
		if pt, ok := pn.screenPoint(p.sess.Pointer.X, p.sess.Pointer.Y); ok {
			c := &circle{p: pt, r: pointerRadius}
			draw.DrawMask(dst, c.Bounds(), uniform(th.Pointer), image.Point{}, c, c.Bounds().Min, draw.Over)
		}
	}
	if pn.label != "" {
		face := textFace()
		d := &font.Drawer{Dst: dst, Src: uniform(th.Label), Face: face}
		w := d.MeasureString(pn.label).Ceil()
		ascent := face.Metrics().Ascent.Ceil()
		d.Dot = fixed.P(pn.rect.Min.X+(pn.rect.Dx()-w)/2, pn.rect.Max.Y+borderWidth+ascent)
		d.DrawString(pn.label)
	}
}

func (p *Presenter) drawAnnotations(dst *image.RGBA, r image.Rectangle) {
	th := p.opts.Theme
	draw.Draw(dst, r, uniform(th.Panel), image.Point{}, draw.Src)
	page := p.sess.Doc.CurrentPage()
	if page == nil {
		return
	}
	face := textFace()
	clip := dst.SubImage(r.Inset(margin / 2)).(*image.RGBA)
	d := &font.Drawer{Dst: clip, Src: uniform(th.Foreground), Face: face}
	line := face.Metrics().Height.Ceil()
	y := r.Min.Y + margin/2 + face.Metrics().Ascent.Ceil()
	for _, a := range page.Annotations {
		if y > r.Max.Y {
			break
		}
		d.Dot = fixed.P(r.Min.X+margin/2, y)
		d.DrawString(a)
		y += line
	}
}

func (p *Presenter) drawStatus(dst *image.RGBA, r image.Rectangle) {
	th := p.opts.Theme
	draw.Draw(dst, r, uniform(th.Panel), image.Point{}, draw.Src)
	face := textFace()
	d := &font.Drawer{Dst: dst, Src: uniform(th.Foreground), Face: face}
	m := face.Metrics()
	base := r.Min.Y + (r.Dy()-(m.Ascent+m.Descent).Ceil())/2 + m.Ascent.Ceil()

	doc := p.sess.Doc
	left := "no document"
	if page := doc.CurrentPage(); page != nil && !page.IsPlaceholder() {
		left = fmt.Sprintf("%s  %d/%d", page.Label, doc.Current()+1, doc.NumPages())
	}
	if st := p.sess.Tool.State(); st != tool.None {
		left += "  [" + st.String() + "]"
	}
	d.Dot = fixed.P(r.Min.X+margin, base)
	d.DrawString(left)

	right := p.clock.String()
	w := d.MeasureString(right).Ceil()
	d.Dot = fixed.P(r.Max.X-margin-w, base)
	d.DrawString(right)
}

// strokeRect draws the outline of r, thick pixels wide, inside r.
func strokeRect(dst draw.Image, r image.Rectangle, c color.RGBA, thick int) {
	src := uniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thick),
		image.Rect(r.Min.X, r.Max.Y-thick, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+thick, r.Min.X+thick, r.Max.Y-thick),
		image.Rect(r.Max.X-thick, r.Min.Y+thick, r.Max.X, r.Max.Y-thick),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Over)
	}
}

// circle is a disc mask.
type circle struct {
	p image.Point
	r int
}

func (c *circle) ColorModel() color.Model { return color.AlphaModel }

func (c *circle) Bounds() image.Rectangle {
	return image.Rect(c.p.X-c.r, c.p.Y-c.r, c.p.X+c.r, c.p.Y+c.r)
}

func (c *circle) At(x, y int) color.Color {
	xx, yy, rr := float64(x-c.p.X)+0.5, float64(y-c.p.Y)+0.5, float64(c.r)
	if xx*xx+yy*yy < rr*rr {
		return color.Alpha{255}
	}
	return color.Alpha{0}
}
