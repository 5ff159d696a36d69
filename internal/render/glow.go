package render

import (
	"image"
	"image/color"
	"image/draw"
)

// GlowOptions configure the halo drawn around selected scribbles.
type GlowOptions struct {
	Radius  int
	Color   color.NRGBA
	Opacity float64
}

// DefaultGlow is a soft yellow halo.
func DefaultGlow() GlowOptions {
	return GlowOptions{Radius: 6, Color: color.NRGBA{R: 255, G: 220, B: 0, A: 255}, Opacity: 0.8}
}

// Glow paints a blurred copy of the coverage of src onto dst, in the glow
// colour. src and dst share their coordinate space.
func Glow(dst *image.RGBA, src image.Image, opts GlowOptions) {
	if opts.Opacity <= 0 || src == nil {
		return
	}
	b := src.Bounds().Intersect(dst.Bounds())
	if b.Empty() {
		return
	}
	mask := image.NewAlpha(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := src.At(x, y).RGBA()
			mask.Pix[mask.PixOffset(x, y)] = uint8(a >> 8)
		}
	}
	blurred := boxBlur(mask, opts.Radius)
	c := opts.Color
	c.A = uint8(float64(c.A)*min(opts.Opacity, 1) + 0.5)
	draw.DrawMask(dst, b, image.NewUniform(c), image.Point{}, blurred, b.Min, draw.Over)
}

// boxBlur blurs an alpha mask with a separable running-sum box filter.
func boxBlur(src *image.Alpha, radius int) *image.Alpha {
	out := image.NewAlpha(src.Bounds())
	copy(out.Pix, src.Pix)
	if radius <= 0 {
		return out
	}
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	tmp := make([]uint8, len(src.Pix))
	blurLine(src.Pix, tmp, w, h, 1, src.Stride, radius)
	blurLine(tmp, out.Pix, h, w, src.Stride, 1, radius)
	return out
}

// blurLine averages n samples spaced step apart, for each of count lines
// starting stride apart.
func blurLine(in, out []uint8, n, count, step, stride, radius int) {
	sums := make([]int, n+1)
	for l := 0; l < count; l++ {
		base := l * stride
		for i := 0; i < n; i++ {
			sums[i+1] = sums[i] + int(in[base+i*step])
		}
		for i := 0; i < n; i++ {
			lo, hi := max(0, i-radius), min(n-1, i+radius)
			out[base+i*step] = uint8((sums[hi+1] - sums[lo]) / (hi - lo + 1))
		}
	}
}
