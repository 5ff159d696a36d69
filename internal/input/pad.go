package input

import "seehuhn.de/go/geom/vec"

// Axis is the reported range of one absolute axis.
type Axis struct {
	Min, Max int32
}

// Pad converts raw tablet samples into page fractions and gesture events.
// The zero value treats both axes as [0,1].
type Pad struct {
	X, Y       Axis
	ExchangeXY bool
	MirrorX    bool
	MirrorY    bool

	touching bool
	stylus   bool
	hovering bool
	last     vec.Vec2
	rawX     int32
	rawY     int32
	dirty    bool
}

// NewPad returns a Pad with the defaults used for tablets mounted in
// portrait orientation.
func NewPad(x, y Axis) *Pad {
	return &Pad{X: x, Y: y, ExchangeXY: true, MirrorX: true}
}

func (a Axis) norm(v int32) float64 {
	if a.Max <= a.Min {
		return float64(v)
	}
	return float64(v-a.Min) / float64(a.Max-a.Min)
}

// Normalize maps a raw sample to page fractions.
func (p *Pad) Normalize(x, y int32) vec.Vec2 {
	pt := vec.Vec2{X: p.X.norm(x), Y: p.Y.norm(y)}
	if p.ExchangeXY {
		pt.X, pt.Y = pt.Y, pt.X
	}
	if p.MirrorX {
		pt.X = 1 - pt.X
	}
	if p.MirrorY {
		pt.Y = 1 - pt.Y
	}
	return pt
}

func (p *Pad) button() Button {
	if p.stylus {
		return ButtonSecondary
	}
	return ButtonPrimary
}

// AbsX records a raw X sample.
func (p *Pad) AbsX(v int32) { p.rawX, p.dirty = v, true }

// AbsY records a raw Y sample.
func (p *Pad) AbsY(v int32) { p.rawY, p.dirty = v, true }

// Touch reports the pen tip going down or up.
func (p *Pad) Touch(down bool) (Event, bool) {
	if down == p.touching {
		return Event{}, false
	}
	p.touching = down
	if down {
		return Event{Type: Press, Point: p.last, Button: p.button(), Pressed: true}, true
	}
	return Event{Type: Release, Point: p.last, Button: p.button()}, true
}

// Stylus reports the side button state. It only affects the button
// attached to later gestures.
func (p *Pad) Stylus(down bool) { p.stylus = down }

// Hover reports the pen entering or leaving proximity.
func (p *Pad) Hover(in bool) (Event, bool) {
	p.hovering = in
	if in {
		return Event{}, false
	}
	return Event{Type: Leave, Point: p.last}, true
}

// Sync flushes the samples collected since the previous sync.
func (p *Pad) Sync() (Event, bool) {
	if !p.dirty {
		return Event{}, false
	}
	p.dirty = false
	p.last = p.Normalize(p.rawX, p.rawY)
	switch {
	case p.touching:
		return Event{Type: Drag, Point: p.last, Button: p.button(), Pressed: true}, true
	case p.hovering || !p.stylus:
		return Event{Type: Motion, Point: p.last}, true
	}
	return Event{}, false
}
