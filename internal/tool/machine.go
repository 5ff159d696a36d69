// Package tool is the state machine that turns pointer and key events into
// edits of the scribble model.
package tool

import (
	"errors"

	"seehuhn.de/go/geom/vec"

	"github.com/example/lectern/internal/input"
	"github.com/example/lectern/internal/scribble"
)

var (
	// ErrNoSelection is returned by commands that act on the selection
	// when nothing is selected.
	ErrNoSelection = errors.New("no selection")
	// ErrNotTextTarget is returned when text entry is opened on an object
	// that holds no text.
	ErrNotTextTarget = errors.New("not a text object")
)

// State is the active tool.
type State int

const (
	None State = iota
	Draw
	Erase
	Box
	Ellipse
	Line
	Text
	Latex
	Stamp
	SelectTouch
	SelectRect
	Move
)

var stateNames = [...]string{"none", "draw", "erase", "box", "ellipse", "line", "text", "latex", "stamp", "select_touch", "select_rect", "move"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// ParseState returns the tool named s.
func ParseState(s string) (State, bool) {
	for i, n := range stateNames {
		if n == s {
			return State(i), true
		}
	}
	return None, false
}

// DefaultMinDistance is the squared distance below which a new freehand
// point is dropped.
const DefaultMinDistance = 1e-6

// Settings are the attributes given to new objects.
type Settings struct {
	Color scribble.RGBA
	Fill  scribble.RGBA
	Width float64
	Font  scribble.Font
	// MinDistance is a squared distance in page fractions.
	MinDistance float64
}

// DefaultSettings returns a red 2pt pen with a translucent fill.
func DefaultSettings() Settings {
	return Settings{
		Color:       scribble.RGBA{R: 1, A: 1},
		Fill:        scribble.RGBA{R: 1, A: 0.25},
		Width:       2,
		Font:        scribble.Font{Family: "Sans", Size: 24},
		MinDistance: DefaultMinDistance,
	}
}

// Machine holds the active tool and the transient state of the gesture in
// progress. Like the model it drives, it belongs to the UI goroutine.
type Machine struct {
	Model    *scribble.Model
	Settings Settings
	// Measurer lays out text objects while they are edited.
	Measurer scribble.Measurer
	// Stamps are the objects the stamp tool clones; Stamp is the chosen one.
	Stamps []scribble.Scribble
	Stamp  int
	// Always makes text tools create a new object even when the click
	// lands on an existing one.
	Always bool
	// OnRedraw is called whenever the page needs repainting.
	OnRedraw func()

	state   State
	active  bool
	button  input.Button
	last    vec.Vec2
	hasLast bool
	arrow   bool
	touched map[scribble.Scribble]bool
	moving  *scribble.MoveEntry
	edit    *Editor
	created bool
}

// New returns a machine with no active tool over m.
func New(m *scribble.Model, s Settings) *Machine {
	return &Machine{Model: m, Settings: s}
}

// State returns the active tool.
func (m *Machine) State() State { return m.state }

// Editing returns the open text editor, or nil.
func (m *Machine) Editing() *Editor { return m.edit }

// SetState switches tool. Pending text entry is committed and gesture
// state is reset. The selection survives only when switching to a tool
// that works on it.
func (m *Machine) SetState(s State) {
	m.Commit()
	if s != SelectTouch && s != Move {
		m.Model.ClearSelection()
	}
	m.state = s
	m.reset()
	m.redraw()
}

func (m *Machine) reset() {
	m.active = false
	m.button = input.ButtonNone
	m.hasLast = false
	m.arrow = false
	m.touched = nil
	m.moving = nil
}

func (m *Machine) redraw() {
	if m.OnRedraw != nil {
		m.OnRedraw()
	}
}

// Handle feeds one pointer event to the active tool and reports whether it
// was consumed.
func (m *Machine) Handle(e input.Event) bool {
	if m.state == None {
		return false
	}
	switch e.Type {
	case input.Press:
		m.active = true
		m.button = e.Button
		m.press(e.Point)
	case input.Drag:
		if !m.active {
			return false
		}
		m.drag(e.Point)
	case input.Release:
		if !m.active {
			return false
		}
		m.drag(e.Point)
		m.release(e.Point)
		m.active = false
	default:
		return false
	}
	m.redraw()
	return true
}

func (m *Machine) erasing() bool {
	return m.state == Erase || (m.state == Draw && m.button == input.ButtonSecondary)
}

func (m *Machine) press(p vec.Vec2) {
	st := m.Settings
	switch {
	case m.erasing():
		m.hasLast = false
		m.erase(p)
	case m.state == Draw:
		seg := &scribble.Segment{Base: scribble.Base{Color: st.Color, Width: st.Width}}
		seg.Append(p)
		m.Model.Add(seg)
	case m.state == Box || m.state == Ellipse:
		sh := &scribble.Shape{
			Base:    scribble.Base{Color: st.Color, Width: st.Width, Points: []vec.Vec2{p, p}},
			Ellipse: m.state == Ellipse,
			Fill:    st.Fill,
		}
		switch m.button {
		case input.ButtonMiddle:
			sh.Fill = scribble.Transparent
		case input.ButtonSecondary:
			sh.Color = scribble.Transparent
		}
		sh.SetCorner(p)
		m.Model.Add(sh)
	case m.state == Line:
		seg := &scribble.Segment{Base: scribble.Base{Color: st.Color, Width: st.Width}}
		seg.Append(p)
		seg.Append(p)
		m.arrow = m.button == input.ButtonSecondary
		m.Model.Add(seg)
	case m.state == Text || m.state == Latex:
		m.pressText(p)
	case m.state == Stamp:
		m.stamp(p)
	case m.state == SelectTouch:
		m.touched = map[scribble.Scribble]bool{}
		m.hasLast = false
		m.touch(p)
	case m.state == SelectRect:
		m.last = p
		m.selectRect(p)
	case m.state == Move:
		sel := m.Model.Selected()
		if len(sel) == 0 {
			m.active = false
			return
		}
		m.last = p
		m.moving = m.Model.BeginMove(sel)
	}
}

func (m *Machine) drag(p vec.Vec2) {
	switch {
	case m.erasing():
		m.erase(p)
	case m.state == Draw:
		seg, ok := m.Model.Last().(*scribble.Segment)
		if !ok {
			return
		}
		if n := len(seg.Points); n > 0 && dist2(seg.Points[n-1], p) < m.Settings.MinDistance {
			return
		}
		seg.Append(p)
	case m.state == Box || m.state == Ellipse:
		if sh, ok := m.Model.Last().(*scribble.Shape); ok {
			sh.SetCorner(p)
		}
	case m.state == Line:
		if seg, ok := m.Model.Last().(*scribble.Segment); ok && len(seg.Points) >= 2 {
			seg.Points[len(seg.Points)-1] = p
			scribble.Finalize(seg)
		}
	case m.state == SelectTouch:
		m.touch(p)
	case m.state == SelectRect:
		m.selectRect(p)
	case m.state == Move:
		if m.moving == nil {
			return
		}
		m.Model.Move(m.moving, p.Sub(m.last))
		m.last = p
	}
}

func (m *Machine) release(p vec.Vec2) {
	switch {
	case m.erasing():
		m.hasLast = false
	case m.state == Draw, m.state == Box, m.state == Ellipse:
		if s := m.Model.Last(); s != nil {
			scribble.Finalize(s)
		}
	case m.state == Line:
		seg, ok := m.Model.Last().(*scribble.Segment)
		if !ok {
			return
		}
		if m.arrow {
			if a, b, ok := scribble.Arrowhead(seg.Points); ok {
				end := seg.Points[len(seg.Points)-1]
				seg.Points = append(seg.Points, a, end, b)
			}
		}
		scribble.Finalize(seg)
		m.arrow = false
	case m.state == SelectTouch:
		m.touched = nil
		m.hasLast = false
	case m.state == Move:
		if m.moving != nil {
			for _, s := range m.moving.Items {
				scribble.Finalize(s)
			}
		}
		m.moving = nil
	}
}

// erase deletes every object crossed by the motion since the last erase
// point.
func (m *Machine) erase(p vec.Vec2) {
	last := p
	if m.hasLast {
		last = m.last
	}
	var hit []scribble.Scribble
	for _, s := range m.Model.Items() {
		if _, seg := s.(*scribble.Segment); seg && !m.hasLast {
			continue
		}
		if scribble.Intersects(last, p, s) {
			hit = append(hit, s)
		}
	}
	m.Model.Delete(hit...)
	m.last = p
	m.hasLast = true
}

// touch toggles every object crossed since the last point, each at most
// once per gesture.
func (m *Machine) touch(p vec.Vec2) {
	last := p
	if m.hasLast {
		last = m.last
	}
	for _, s := range m.Model.Items() {
		if m.touched[s] {
			continue
		}
		if scribble.Intersects(last, p, s) {
			m.Model.Toggle(s)
			m.touched[s] = true
		}
	}
	m.last = p
	m.hasLast = true
}

func (m *Machine) selectRect(p vec.Vec2) {
	var sel []scribble.Scribble
	for _, s := range m.Model.Items() {
		if scribble.AnyPointIn(s, m.last, p) {
			sel = append(sel, s)
		}
	}
	m.Model.SetSelection(sel)
}

func (m *Machine) stamp(p vec.Vec2) {
	if m.Stamp < 0 || m.Stamp >= len(m.Stamps) {
		return
	}
	s := m.Stamps[m.Stamp].Clone()
	b := scribble.Bounds(s)
	scribble.Translate(s, p.Sub(vec.Vec2{X: b.LLx, Y: b.LLy}))
	m.Model.Add(s)
}

func (m *Machine) pressText(p vec.Vec2) {
	m.Commit()
	if !m.Always {
		if s := m.textAt(p); s != nil {
			m.open(s, false)
			return
		}
	}
	st := m.Settings
	base := scribble.Base{Color: st.Color, Width: st.Width, Points: []vec.Vec2{p}}
	var s scribble.Scribble
	if m.state == Latex {
		s = &scribble.Latex{Base: base, Font: st.Font}
	} else {
		s = &scribble.Text{Base: base, Font: st.Font}
	}
	scribble.Finalize(s)
	m.Model.Add(s)
	m.open(s, true)
}

// open starts editing s. created marks an object added by this click,
// which leaves no history behind when it is committed empty.
func (m *Machine) open(s scribble.Scribble, created bool) {
	ed, err := Open(s)
	if err != nil {
		return
	}
	ed.measurer = m.Measurer
	m.edit = ed
	m.created = created
}

// textAt returns the top-most text or LaTeX object whose box contains p.
func (m *Machine) textAt(p vec.Vec2) scribble.Scribble {
	items := m.Model.Items()
	for i := len(items) - 1; i >= 0; i-- {
		switch items[i].(type) {
		case *scribble.Text, *scribble.Latex:
			if scribble.Contains(scribble.Bounds(items[i]), p) {
				return items[i]
			}
		}
	}
	return nil
}

// Commit ends text entry, laying out the edited object and discarding it
// when it was left empty. Other objects are left alone.
func (m *Machine) Commit() {
	if m.edit == nil {
		return
	}
	ed := m.edit
	m.edit = nil
	switch v := ed.Target().(type) {
	case *scribble.Text:
		if v.Text == "" {
			m.drop(v)
		} else {
			v.Layout(m.Measurer)
		}
	case *scribble.Latex:
		if v.Text == "" {
			m.drop(v)
		} else {
			v.Layout(m.Measurer)
		}
	}
	m.redraw()
}

func (m *Machine) drop(s scribble.Scribble) {
	if m.created {
		m.Model.Discard(s)
	} else {
		m.Model.Delete(s)
	}
	m.created = false
}

func dist2(a, b vec.Vec2) float64 {
	d := a.Sub(b)
	return d.X*d.X + d.Y*d.Y
}
