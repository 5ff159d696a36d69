package input

import (
	"context"
	"image"
	"math"
	"testing"

	"golang.org/x/mobile/event/mouse"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestPadNormalizeDefaults(t *testing.T) {
	p := NewPad(Axis{Min: 0, Max: 1000}, Axis{Min: 0, Max: 500})
	pt := p.Normalize(250, 100)
	// exchanged then mirrored horizontally
	if !near(pt.X, 1-0.2) || !near(pt.Y, 0.25) {
		t.Fatalf("got %+v", pt)
	}
	p.ExchangeXY, p.MirrorX, p.MirrorY = false, false, true
	pt = p.Normalize(250, 100)
	if !near(pt.X, 0.25) || !near(pt.Y, 0.8) {
		t.Fatalf("got %+v", pt)
	}
}

func TestPadGesture(t *testing.T) {
	p := &Pad{X: Axis{Max: 10}, Y: Axis{Max: 10}}
	p.AbsX(5)
	p.AbsY(2)
	e, ok := p.Sync()
	if !ok || e.Type != Motion {
		t.Fatalf("expected hover motion, got %+v %v", e, ok)
	}
	p.Stylus(true)
	e, ok = p.Touch(true)
	if !ok || e.Type != Press || e.Button != ButtonSecondary || !near(e.Point.X, 0.5) {
		t.Fatalf("unexpected press %+v", e)
	}
	p.AbsY(4)
	e, ok = p.Sync()
	if !ok || e.Type != Drag || !near(e.Point.Y, 0.4) {
		t.Fatalf("unexpected drag %+v", e)
	}
	if _, ok := p.Sync(); ok {
		t.Fatal("sync without samples should not emit")
	}
	e, ok = p.Touch(false)
	if !ok || e.Type != Release {
		t.Fatalf("unexpected release %+v", e)
	}
}

func TestMouseTranslate(t *testing.T) {
	var m Mouse
	v := Viewport{Rect: image.Rect(100, 0, 300, 100)}
	e, ok := m.Translate(mouse.Event{X: 150, Y: 50, Button: mouse.ButtonRight, Direction: mouse.DirPress}, v)
	if !ok || e.Type != Press || e.Button != ButtonSecondary || !near(e.Point.X, 0.25) || !near(e.Point.Y, 0.5) {
		t.Fatalf("unexpected press %+v", e)
	}
	e, _ = m.Translate(mouse.Event{X: 200, Y: 50, Direction: mouse.DirNone}, v)
	if e.Type != Drag || e.Button != ButtonSecondary {
		t.Fatalf("unexpected drag %+v", e)
	}
	e, _ = m.Translate(mouse.Event{X: 200, Y: 50, Button: mouse.ButtonRight, Direction: mouse.DirRelease}, v)
	if e.Type != Release {
		t.Fatalf("unexpected release %+v", e)
	}
	e, _ = m.Translate(mouse.Event{X: 200, Y: 50, Direction: mouse.DirNone}, v)
	if e.Type != Motion {
		t.Fatalf("expected motion after release, got %+v", e)
	}
}

func TestViewportFromScreen(t *testing.T) {
	v := Viewport{
		Rect:       image.Rect(0, 0, 100, 100),
		FromScreen: func(x, y float64) (float64, float64) { return (1 + x) / 2, y },
	}
	p := v.Point(50, 20)
	if !near(p.X, 0.75) || !near(p.Y, 0.2) {
		t.Fatalf("got %+v", p)
	}
}

func TestPumpDropsDragWhenFull(t *testing.T) {
	p := NewPump(1)
	ctx := context.Background()
	if !p.Send(ctx, Event{Type: Drag}) {
		t.Fatal("first send should succeed")
	}
	if p.Send(ctx, Event{Type: Drag}) {
		t.Fatal("drag should be dropped when full")
	}
	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if p.Send(cctx, Event{Type: Release}) {
		t.Fatal("cancelled send should fail")
	}
	if e := <-p.Events(); e.Type != Drag {
		t.Fatalf("unexpected event %+v", e)
	}
}
