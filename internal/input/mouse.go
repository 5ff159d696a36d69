package input

import (
	"image"

	"golang.org/x/mobile/event/mouse"
	"seehuhn.de/go/geom/vec"
)

// Viewport describes where a page is drawn inside a window.
type Viewport struct {
	Rect image.Rectangle
	// FromScreen maps a fraction of Rect to a fraction of the page. It
	// is nil when the whole page fills Rect.
	FromScreen func(x, y float64) (float64, float64)
}

// Point converts window pixel coordinates to page fractions.
func (v Viewport) Point(x, y float32) vec.Vec2 {
	w, h := float64(v.Rect.Dx()), float64(v.Rect.Dy())
	if w <= 0 || h <= 0 {
		return vec.Vec2{}
	}
	fx := (float64(x) - float64(v.Rect.Min.X)) / w
	fy := (float64(y) - float64(v.Rect.Min.Y)) / h
	if v.FromScreen != nil {
		fx, fy = v.FromScreen(fx, fy)
	}
	return vec.Vec2{X: fx, Y: fy}
}

// Mouse tracks button state across shiny mouse events.
type Mouse struct {
	button Button
}

func buttonOf(b mouse.Button) Button {
	switch b {
	case mouse.ButtonLeft:
		return ButtonPrimary
	case mouse.ButtonMiddle:
		return ButtonMiddle
	case mouse.ButtonRight:
		return ButtonSecondary
	}
	return ButtonNone
}

// Translate converts e. The boolean is false for wheel events, which
// carry no pointer gesture.
func (m *Mouse) Translate(e mouse.Event, v Viewport) (Event, bool) {
	if e.Button.IsWheel() {
		return Event{}, false
	}
	p := v.Point(e.X, e.Y)
	switch e.Direction {
	case mouse.DirPress:
		m.button = buttonOf(e.Button)
		return Event{Type: Press, Point: p, Button: m.button, Pressed: true}, true
	case mouse.DirRelease:
		b := m.button
		if b == ButtonNone {
			b = buttonOf(e.Button)
		}
		m.button = ButtonNone
		return Event{Type: Release, Point: p, Button: b}, true
	case mouse.DirNone:
		if m.button != ButtonNone {
			return Event{Type: Drag, Point: p, Button: m.button, Pressed: true}, true
		}
		return Event{Type: Motion, Point: p}, true
	}
	return Event{}, false
}
