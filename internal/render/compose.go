package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/gg"

	"github.com/example/lectern/internal/scribble"
)

// PageOptions control ComposePage.
type PageOptions struct {
	Options
	// Glow draws a halo behind the selected items when set.
	Glow *GlowOptions
	// Outline draws a dashed box around each selected item in this colour
	// when its alpha is positive.
	Outline scribble.RGBA
}

// ComposePage renders a w×h image of a page: a white sheet, the page
// raster bg scaled to fill it, and the scribbles on top. bg may be nil.
func ComposePage(w, h int, bg image.Image, items []scribble.Scribble, opts PageOptions) (*image.RGBA, error) {
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.RGBA{R: 1, G: 1, B: 1, A: 1})
	if bg != nil {
		blitFull(dc, bg)
	}

	var selected []scribble.Scribble
	if opts.Selected != nil {
		for _, s := range items {
			if opts.Selected(s) {
				selected = append(selected, s)
			}
		}
	}

	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if opts.Glow != nil && len(selected) > 0 {
		base := opts.Options
		base.IncludeSelected = false
		if err := DrawScribbles(dc, items, base); err != nil {
			return nil, err
		}
		draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)

		layer, err := selectionLayer(w, h, selected, opts.Options)
		if err != nil {
			return nil, err
		}
		Glow(out, layer, *opts.Glow)
		draw.Draw(out, out.Bounds(), layer, image.Point{}, draw.Over)
	} else {
		all := opts.Options
		all.IncludeSelected = true
		if err := DrawScribbles(dc, items, all); err != nil {
			return nil, err
		}
		draw.Draw(out, out.Bounds(), dc.Image(), image.Point{}, draw.Src)
	}

	if opts.Outline.A > 0 && len(selected) > 0 {
		return outline(out, selected, opts)
	}
	return out, nil
}

// selectionLayer draws only the selected items on a transparent canvas.
func selectionLayer(w, h int, selected []scribble.Scribble, opts Options) (image.Image, error) {
	dc := gg.NewContext(w, h)
	defer dc.Close()
	dc.ClearWithColor(gg.RGBA{})
	opts.IncludeSelected = true
	if err := DrawScribbles(dc, selected, opts); err != nil {
		return nil, err
	}
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(layer, layer.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return layer, nil
}

func outline(img *image.RGBA, selected []scribble.Scribble, opts PageOptions) (*image.RGBA, error) {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	all := func(scribble.Scribble) bool { return true }
	if err := DrawSelection(dc, selected, all, opts.Outline); err != nil {
		return nil, err
	}
	draw.Draw(img, img.Bounds(), dc.Image(), image.Point{}, draw.Src)
	return img, nil
}

func blitFull(dc *gg.Context, img image.Image) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	dc.DrawImageEx(gg.ImageBufFromImage(img), gg.DrawImageOptions{
		DstWidth:  float64(dc.Width()),
		DstHeight: float64(dc.Height()),
		Opacity:   1,
	})
}

// Blank returns a white w×h page.
func Blank(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}
