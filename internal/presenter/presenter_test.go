package presenter

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/session"
	"github.com/example/lectern/internal/theme"
	"github.com/example/lectern/internal/tool"
)

// blueSource is a four page deck that rasterizes every page solid blue.
type blueSource struct {
	rasterized atomic.Int32
	width      float64
}

func (b *blueSource) NumPages() int                            { return 4 }
func (b *blueSource) Label(p int) string                       { return string(rune('A' + p)) }
func (b *blueSource) FindDest(string) (int, bool)              { return 0, false }
func (b *blueSource) Outline() ([]document.OutlineItem, error) { return nil, nil }
func (b *blueSource) Close() error                             { return nil }

func (b *blueSource) PageInfo(p int) (document.PageInfo, error) {
	return document.PageInfo{Width: b.width, Height: 300, Label: b.Label(p)}, nil
}

func (b *blueSource) Rasterize(_ int, dst *image.RGBA) error {
	b.rasterized.Add(1)
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{0, 0, 255, 255}), image.Point{}, draw.Src)
	return nil
}

func openDeck(t *testing.T, width float64, cache session.SurfaceCache) (*session.Session, *blueSource) {
	t.Helper()
	src := &blueSource{width: width}
	s, err := session.New(filepath.Join(t.TempDir(), "deck.pdf"), 0, session.Options{
		Mode:     document.ModeAutoPage,
		Settings: tool.DefaultSettings(),
		Open:     func(string) (document.Source, error) { return src, nil },
		Cache:    cache,
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s, src
}

func rgba(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestFit(t *testing.T) {
	tests := []struct {
		area   image.Rectangle
		aspect float64
		want   image.Rectangle
	}{
		{image.Rect(0, 0, 400, 300), 4.0 / 3, image.Rect(0, 0, 400, 300)},
		{image.Rect(0, 0, 400, 400), 2, image.Rect(0, 100, 400, 300)},
		{image.Rect(10, 10, 110, 60), 1, image.Rect(35, 10, 85, 60)},
		{image.Rect(0, 0, 0, 100), 1, image.Rectangle{}},
	}
	for _, tt := range tests {
		if got := fit(tt.area, tt.aspect); got != tt.want {
			t.Errorf("fit(%v, %g) = %v, want %v", tt.area, tt.aspect, got, tt.want)
		}
	}
}

func TestPartGeometry(t *testing.T) {
	r := image.Rect(0, 0, 300, 200)
	tests := []struct {
		part   document.Part
		full   image.Point
		offset image.Point
	}{
		{document.PartFull, image.Pt(300, 200), image.Pt(0, 0)},
		{document.PartLeft, image.Pt(600, 200), image.Pt(0, 0)},
		{document.PartRight, image.Pt(600, 200), image.Pt(300, 0)},
		{document.PartTop, image.Pt(300, 400), image.Pt(0, 0)},
		{document.PartBottom, image.Pt(300, 400), image.Pt(0, 200)},
	}
	for _, tt := range tests {
		full := fullSize(r, tt.part)
		if full != tt.full {
			t.Errorf("%v: fullSize = %v, want %v", tt.part, full, tt.full)
		}
		if got := partOffset(full, tt.part); got != tt.offset {
			t.Errorf("%v: partOffset = %v, want %v", tt.part, got, tt.offset)
		}
	}
	if got := contentPart(document.PartRight); got != document.PartLeft {
		t.Errorf("content beside right notes = %v", got)
	}
	if got := contentPart(document.PartNone); got != document.PartFull {
		t.Errorf("content without notes = %v", got)
	}
}

func TestPaneRoundTrip(t *testing.T) {
	pn := pane{rect: image.Rect(100, 50, 300, 250), part: document.PartRight, live: true}
	v := pn.viewport()
	pt := v.Point(200, 150)
	if pt.X != 0.75 || pt.Y != 0.5 {
		t.Fatalf("viewport point = %v, want (0.75, 0.5)", pt)
	}
	back, ok := pn.screenPoint(pt.X, pt.Y)
	if !ok || back != image.Pt(200, 150) {
		t.Errorf("screenPoint = %v, %v", back, ok)
	}
	if _, ok := pn.screenPoint(0.25, 0.5); ok {
		t.Errorf("point on the hidden half reported visible")
	}
}

func TestConsoleLayout(t *testing.T) {
	s, _ := openDeck(t, 400, nil)
	th := theme.Default()
	size := image.Pt(1000, 600)

	l := consoleLayout(size, s.Doc, 0, document.PartNone, th)
	if len(l.panes) != 2 {
		t.Fatalf("got %d panes", len(l.panes))
	}
	main, next := l.panes[0], l.panes[1]
	if !main.live || main.page != 0 || main.border != th.CurrentBorder {
		t.Errorf("main pane %+v", main)
	}
	if next.live || next.page != 1 || next.label != "B" || next.border != th.NextBorder {
		t.Errorf("next pane %+v", next)
	}
	if main.rect.Dx() <= next.rect.Dx() {
		t.Errorf("main pane %v not larger than next %v", main.rect, next.rect)
	}
	if l.status != image.Rect(0, size.Y-statusHeight, size.X, size.Y) {
		t.Errorf("status %v", l.status)
	}
	if got, ok := l.liveAt(main.rect.Min.Add(image.Pt(5, 5))); !ok || got.page != 0 {
		t.Errorf("liveAt main = %+v, %v", got, ok)
	}
	if _, ok := l.liveAt(next.rect.Min.Add(image.Pt(5, 5))); ok {
		t.Errorf("next slide preview accepts input")
	}

	last := consoleLayout(size, s.Doc, 3, document.PartNone, th)
	if len(last.panes) != 1 {
		t.Errorf("last page has %d panes, want no preview", len(last.panes))
	}

	notes := consoleLayout(size, s.Doc, 0, document.PartRight, th)
	var parts []document.Part
	for _, pn := range notes.panes {
		parts = append(parts, pn.part)
	}
	want := []document.Part{document.PartRight, document.PartLeft, document.PartLeft}
	if diff := cmp.Diff(want, parts); diff != "" {
		t.Errorf("notes layout parts (-want +got):\n%s", diff)
	}
}

func TestClock(t *testing.T) {
	now := time.Unix(1000, 0)
	c := &Clock{now: func() time.Time { return now }}
	c.Toggle()
	now = now.Add(90 * time.Second)
	if got := c.String(); got != "00:01:30" {
		t.Errorf("running clock = %q", got)
	}
	c.Toggle()
	now = now.Add(time.Hour)
	if got := c.String(); got != "00:01:30 (paused)" {
		t.Errorf("paused clock = %q", got)
	}
	c.Toggle()
	now = now.Add(time.Hour + 5*time.Second)
	if got := c.Elapsed(); got != time.Hour+95*time.Second {
		t.Errorf("elapsed = %v", got)
	}
	c.Reset()
	now = now.Add(2 * time.Second)
	if got := c.Elapsed(); got != 2*time.Second {
		t.Errorf("elapsed after reset = %v", got)
	}
}

func TestCachePutSurface(t *testing.T) {
	c := NewCache(t.Context(), 1)
	c.SetCapacity(2)
	img := func(w, h int) *image.RGBA { return image.NewRGBA(image.Rect(0, 0, w, h)) }

	c.Put(0, img(10, 10))
	if c.Surface(0, 10, 10) == nil {
		t.Fatal("stored surface not found")
	}
	if c.Surface(0, 20, 20) != nil {
		t.Errorf("surface returned at the wrong size")
	}
	c.Put(1, img(10, 10))
	c.Surface(0, 10, 10)
	c.Put(2, img(10, 10))
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if c.Surface(1, 10, 10) != nil {
		t.Errorf("least recently used surface kept")
	}
	if c.Surface(0, 10, 10) == nil || c.Surface(2, 10, 10) == nil {
		t.Errorf("recent surfaces evicted")
	}
	c.SetCapacity(1)
	if c.Len() != 1 || c.Surface(2, 10, 10) == nil {
		t.Errorf("shrinking kept %d surfaces, want the most recent one", c.Len())
	}
	c.Invalidate()
	if c.Len() != 0 {
		t.Errorf("Len after Invalidate = %d", c.Len())
	}
}

func TestCacheDropsStaleStore(t *testing.T) {
	c := NewCache(t.Context(), 1)
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.Invalidate()
	c.store(gen, surfaceKey{page: 0, size: image.Pt(4, 4)}, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if c.Len() != 0 {
		t.Errorf("raster from before Invalidate was kept")
	}
}

func TestCachePrerender(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c := NewCache(ctx, 2)
	s, src := openDeck(t, 400, c)
	c.Doc = func() *document.Document { return s.Doc }
	c.Sizes = func(int) []image.Point { return []image.Point{{40, 30}} }

	c.Prerender(2)
	deadline := time.Now().Add(5 * time.Second)
	for c.Surface(2, 40, 30) == nil {
		if time.Now().After(deadline) {
			t.Fatal("page was not prerendered")
		}
		time.Sleep(10 * time.Millisecond)
	}
	n := src.rasterized.Load()
	c.Prerender(2)
	time.Sleep(50 * time.Millisecond)
	if got := src.rasterized.Load(); got != n {
		t.Errorf("cached page rasterized again: %d calls, want %d", got, n)
	}
}

func TestComposeContentWindow(t *testing.T) {
	c := NewCache(t.Context(), 1)
	s, src := openDeck(t, 400, c)
	p := New(s, Options{Cache: c})
	win := p.windows[0]
	win.size = image.Pt(200, 200)

	img := p.compose(win)
	if got := rgba(img, 100, 100); got.B < 200 || got.R > 50 {
		t.Errorf("slide centre = %v, want blue", got)
	}
	if got := rgba(img, 100, 5); got != theme.Default().Background {
		t.Errorf("letterbox = %v, want background", got)
	}
	if c.Len() == 0 {
		t.Errorf("rendered page not cached")
	}
	n := src.rasterized.Load()
	p.compose(win)
	if got := src.rasterized.Load(); got != n {
		t.Errorf("second frame rasterized again: %d calls, want %d", got, n)
	}
}

func TestSizesCoverPreview(t *testing.T) {
	s, _ := openDeck(t, 400, nil)
	p := New(s, Options{Console: true})
	p.windows[0].size = image.Pt(400, 300)
	p.windows[1].size = image.Pt(1000, 600)

	sizes := p.sizes(1)
	want := map[image.Point]bool{fullSize(image.Rect(0, 0, 400, 300), document.PartFull): true}
	for _, pn := range consoleLayout(p.windows[1].size, s.Doc, 1, document.PartNone, p.opts.Theme).panes {
		if pn.page == 1 {
			want[fullSize(pn.rect, pn.part)] = true
		}
	}
	for _, pn := range consoleLayout(p.windows[1].size, s.Doc, 0, document.PartNone, p.opts.Theme).panes {
		if pn.page == 1 {
			want[fullSize(pn.rect, pn.part)] = true
		}
	}
	if len(sizes) != len(want) {
		t.Fatalf("sizes = %v, want %d entries", sizes, len(want))
	}
	for _, sz := range sizes {
		if !want[sz] {
			t.Errorf("unexpected size %v", sz)
		}
	}
}
