package tool

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/mobile/event/key"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/example/lectern/internal/input"
	"github.com/example/lectern/internal/scribble"
)

func pt(x, y float64) vec.Vec2 { return vec.Vec2{X: x, Y: y} }

func gesture(t *testing.T, m *Machine, b input.Button, pts ...vec.Vec2) {
	t.Helper()
	for i, p := range pts {
		typ := input.Drag
		switch i {
		case 0:
			typ = input.Press
		case len(pts) - 1:
			typ = input.Release
		}
		if !m.Handle(input.Event{Type: typ, Point: p, Button: b, Pressed: typ != input.Release}) {
			t.Fatalf("event %d (%v) not consumed", i, typ)
		}
	}
}

func newMachine(s State) *Machine {
	m := New(scribble.NewModel(), DefaultSettings())
	m.SetState(s)
	return m
}

func TestNoToolIgnoresEvents(t *testing.T) {
	m := newMachine(None)
	if m.Handle(input.Event{Type: input.Press, Point: pt(0.5, 0.5), Button: input.ButtonPrimary}) {
		t.Fatalf("press consumed without a tool")
	}
	if m.Handle(input.Event{Type: input.Drag, Point: pt(0.5, 0.5)}) {
		t.Fatalf("drag consumed without a press")
	}
}

func TestDrawFreehand(t *testing.T) {
	m := newMachine(Draw)
	m.Settings.MinDistance = 0.01
	gesture(t, m, input.ButtonPrimary, pt(0.1, 0.1), pt(0.101, 0.1), pt(0.3, 0.3), pt(0.5, 0.3))
	items := m.Model.Items()
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	seg := items[0].(*scribble.Segment)
	want := []vec.Vec2{pt(0.1, 0.1), pt(0.3, 0.3), pt(0.5, 0.3)}
	if diff := cmp.Diff(want, seg.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	if seg.Box.LLx != 0.1 || seg.Box.URx != 0.5 || seg.Box.URy != 0.3 {
		t.Errorf("box = %+v", seg.Box)
	}
	if !m.Model.CanUndo() {
		t.Errorf("drawing left no undo entry")
	}
	m.Model.Undo()
	if m.Model.Len() != 0 {
		t.Errorf("undo left %d items", m.Model.Len())
	}
}

func TestSecondaryButtonErases(t *testing.T) {
	m := newMachine(Draw)
	gesture(t, m, input.ButtonPrimary, pt(0, 0), pt(1, 1))
	gesture(t, m, input.ButtonPrimary, pt(0.6, 0.9), pt(0.8, 0.9))
	gesture(t, m, input.ButtonSecondary, pt(0, 1), pt(1, 0))
	if m.Model.Len() != 1 {
		t.Fatalf("got %d items after erasing, want 1", m.Model.Len())
	}
	if got := m.Model.Items()[0].Attrs().Points[0]; got != pt(0.6, 0.9) {
		t.Errorf("wrong stroke survived: %v", got)
	}
	m.Model.Undo()
	if m.Model.Len() != 2 {
		t.Errorf("undo of the erase left %d items", m.Model.Len())
	}
}

func TestEraseShapeByPoint(t *testing.T) {
	m := newMachine(Box)
	gesture(t, m, input.ButtonPrimary, pt(0.2, 0.2), pt(0.4, 0.4))
	m.SetState(Erase)
	gesture(t, m, input.ButtonPrimary, pt(0.3, 0.3), pt(0.31, 0.3))
	if m.Model.Len() != 0 {
		t.Errorf("box not erased")
	}
}

func TestBoxVariants(t *testing.T) {
	m := newMachine(Box)
	gesture(t, m, input.ButtonPrimary, pt(0.6, 0.6), pt(0.5, 0.5), pt(0.2, 0.3))
	gesture(t, m, input.ButtonMiddle, pt(0.1, 0.1), pt(0.2, 0.2))
	m.SetState(Ellipse)
	gesture(t, m, input.ButtonSecondary, pt(0.1, 0.1), pt(0.2, 0.2))

	items := m.Model.Items()
	if len(items) != 3 {
		t.Fatalf("got %d items", len(items))
	}
	b := items[0].(*scribble.Shape)
	if b.Box.LLx != 0.2 || b.Box.LLy != 0.3 || b.Box.URx != 0.6 || b.Box.URy != 0.6 {
		t.Errorf("box not normalized: %+v", b.Box)
	}
	if b.Fill != m.Settings.Fill {
		t.Errorf("fill = %v", b.Fill)
	}
	if f := items[1].(*scribble.Shape).Fill; f != scribble.Transparent {
		t.Errorf("middle button fill = %v, want transparent", f)
	}
	e := items[2].(*scribble.Shape)
	if !e.Ellipse || e.Color != scribble.Transparent {
		t.Errorf("secondary ellipse = %+v", e)
	}
}

func TestLineArrow(t *testing.T) {
	m := newMachine(Line)
	gesture(t, m, input.ButtonPrimary, pt(0.1, 0.5), pt(0.3, 0.5), pt(0.5, 0.5))
	gesture(t, m, input.ButtonSecondary, pt(0.1, 0.2), pt(0.5, 0.2))
	items := m.Model.Items()
	line := items[0].(*scribble.Segment)
	if diff := cmp.Diff([]vec.Vec2{pt(0.1, 0.5), pt(0.5, 0.5)}, line.Points); diff != "" {
		t.Errorf("line points (-want +got):\n%s", diff)
	}
	arrow := items[1].(*scribble.Segment)
	if len(arrow.Points) != 5 {
		t.Fatalf("arrow has %d points", len(arrow.Points))
	}
	tip := arrow.Points[1]
	for _, i := range []int{2, 4} {
		d := arrow.Points[i].Sub(tip)
		if l := math.Hypot(d.X, d.Y); math.Abs(l-scribble.ArrowLength) > 1e-9 {
			t.Errorf("barb %d length %v", i, l)
		}
		if d.X >= 0 {
			t.Errorf("barb %d points forward: %v", i, d)
		}
	}
	if arrow.Points[3] != tip {
		t.Errorf("barbs not joined at the tip")
	}
}

func TestTextCreateAndReopen(t *testing.T) {
	m := newMachine(Text)
	m.Measurer = fixedMeasurer{w: 0.2, h: 0.05}
	gesture(t, m, input.ButtonPrimary, pt(0.3, 0.3), pt(0.3, 0.3))
	ed := m.Editing()
	if ed == nil {
		t.Fatalf("no editor opened")
	}
	ed.Insert("hello")
	m.Commit()
	txt := m.Model.Items()[0].(*scribble.Text)
	if txt.Text != "hello" || math.Abs(txt.Box.URx-0.5) > 1e-12 {
		t.Errorf("committed text = %q box %+v", txt.Text, txt.Box)
	}

	gesture(t, m, input.ButtonPrimary, pt(0.35, 0.32), pt(0.35, 0.32))
	if m.Editing() == nil || m.Editing().Target() != txt {
		t.Fatalf("click on the text did not reopen it")
	}
	if m.Model.Len() != 1 {
		t.Errorf("reopening created a new object")
	}

	m.Always = true
	gesture(t, m, input.ButtonPrimary, pt(0.35, 0.32), pt(0.35, 0.32))
	if m.Model.Len() != 2 {
		t.Errorf("Always did not create a new object")
	}
	// The new object is left empty and dropped when editing ends.
	m.SetState(Draw)
	if m.Model.Len() != 1 {
		t.Errorf("empty text survived commit: %d items", m.Model.Len())
	}
}

// runeMeasurer gives every rune a fixed advance on a single line.
type runeMeasurer struct{ adv, h float64 }

func (r runeMeasurer) MeasureText(s string, _ scribble.Font) (float64, float64) {
	return float64(len([]rune(s))) * r.adv, r.h
}

func TestTextBoxFollowsTyping(t *testing.T) {
	m := newMachine(Text)
	m.Measurer = runeMeasurer{adv: 0.01, h: 0.05}
	gesture(t, m, input.ButtonPrimary, pt(0.2, 0.2), pt(0.2, 0.2))
	ed := m.Editing()
	ed.Insert("abc")
	txt := ed.Target().(*scribble.Text)
	if math.Abs(txt.Box.URx-0.23) > 1e-12 {
		t.Errorf("box after typing = %+v", txt.Box)
	}
	m.Key(press(key.CodeDeleteBackspace, -1, 0))
	if math.Abs(txt.Box.URx-0.22) > 1e-12 {
		t.Errorf("box after backspace = %+v", txt.Box)
	}
}

func TestLatexWithoutRasterIsHittable(t *testing.T) {
	m := newMachine(Latex)
	m.Measurer = runeMeasurer{adv: 0.02, h: 0.04}
	gesture(t, m, input.ButtonPrimary, pt(0.4, 0.4), pt(0.4, 0.4))
	m.Editing().Insert("x^2")
	m.Commit()
	lx := m.Model.Items()[0].(*scribble.Latex)
	want := rect.Rect{LLx: 0.4, LLy: 0.4, URx: 0.46, URy: 0.44}
	if math.Abs(lx.Box.URx-want.URx) > 1e-12 || math.Abs(lx.Box.URy-want.URy) > 1e-12 || lx.Box.LLx != want.LLx {
		t.Fatalf("latex box = %+v, want %+v", lx.Box, want)
	}

	gesture(t, m, input.ButtonPrimary, pt(0.41, 0.41), pt(0.41, 0.41))
	if m.Model.Len() != 1 || m.Editing() == nil || m.Editing().Target() != lx {
		t.Fatalf("click on the formula did not reopen it: %d items", m.Model.Len())
	}

	m.SetState(Erase)
	gesture(t, m, input.ButtonPrimary, pt(0.42, 0.42), pt(0.42, 0.42))
	if m.Model.Len() != 0 {
		t.Errorf("eraser missed the formula")
	}
}

func TestLatexRasterBoxWins(t *testing.T) {
	lx := &scribble.Latex{Base: scribble.Base{Points: []vec.Vec2{pt(0.1, 0.1)}}, Text: "y"}
	lx.SetRaster(image.NewRGBA(image.Rect(0, 0, 2, 2)), 0.3, 0.1)
	lx.Layout(runeMeasurer{adv: 0.01, h: 0.01})
	if math.Abs(lx.Box.URx-0.4) > 1e-12 {
		t.Errorf("measuring replaced the rendered box: %+v", lx.Box)
	}
}

func TestCommitEmptyLeavesOthers(t *testing.T) {
	m := newMachine(Draw)
	gesture(t, m, input.ButtonPrimary, pt(0.7, 0.7), pt(0.7, 0.7))
	dot := m.Model.Items()[0]
	m.SetState(Text)
	m.Measurer = runeMeasurer{adv: 0.01, h: 0.05}
	gesture(t, m, input.ButtonPrimary, pt(0.2, 0.2), pt(0.2, 0.2))
	m.SetState(Draw)

	if items := m.Model.Items(); len(items) != 1 || items[0] != dot {
		t.Fatalf("items after empty commit = %v", items)
	}
	if m.Model.CanRedo() {
		t.Errorf("discarded text left a redo entry")
	}
	if !m.Model.Undo() || m.Model.Len() != 0 {
		t.Fatalf("undo did not remove the dot")
	}
	if !m.Model.Redo() || m.Model.Len() != 1 || m.Model.Items()[0] != dot {
		t.Errorf("redo did not restore only the dot: %v", m.Model.Items())
	}
	if m.Model.Redo() {
		t.Errorf("redo replayed the discarded text")
	}
}

func TestCommitClearedTextRecordsDelete(t *testing.T) {
	m := newMachine(Text)
	m.Measurer = runeMeasurer{adv: 0.01, h: 0.05}
	gesture(t, m, input.ButtonPrimary, pt(0.2, 0.2), pt(0.2, 0.2))
	m.Editing().Insert("a")
	m.Commit()
	txt := m.Model.Items()[0]

	gesture(t, m, input.ButtonPrimary, pt(0.205, 0.22), pt(0.205, 0.22))
	if m.Editing() == nil || m.Editing().Target() != txt {
		t.Fatalf("text not reopened")
	}
	m.Key(press(key.CodeDeleteBackspace, -1, 0))
	m.Commit()
	if m.Model.Len() != 0 {
		t.Fatalf("cleared text survived")
	}
	if !m.Model.Undo() || m.Model.Len() != 1 {
		t.Errorf("undo did not bring the text back")
	}
}

func TestStamp(t *testing.T) {
	m := newMachine(Stamp)
	tmpl := &scribble.Shape{Base: scribble.Base{Width: 1, Points: []vec.Vec2{pt(0, 0), pt(0.1, 0.1)}}}
	scribble.Finalize(tmpl)
	m.Stamps = []scribble.Scribble{tmpl}
	gesture(t, m, input.ButtonPrimary, pt(0.5, 0.5), pt(0.5, 0.5))
	gesture(t, m, input.ButtonPrimary, pt(0.2, 0.2), pt(0.2, 0.2))
	items := m.Model.Items()
	if len(items) != 2 || items[0] == tmpl || items[0] == items[1] {
		t.Fatalf("stamps not cloned: %v", items)
	}
	if got := items[0].Attrs().Points[1]; math.Abs(got.X-0.6) > 1e-12 || math.Abs(got.Y-0.6) > 1e-12 {
		t.Errorf("stamp corner at %v", got)
	}
	if tmpl.Points[0] != pt(0, 0) {
		t.Errorf("template moved")
	}
}

func TestSelectTouchTogglesOnce(t *testing.T) {
	m := newMachine(Draw)
	gesture(t, m, input.ButtonPrimary, pt(0.5, 0), pt(0.5, 1))
	seg := m.Model.Last()
	m.SetState(SelectTouch)
	// Crosses the stroke three times in one drag.
	gesture(t, m, input.ButtonPrimary, pt(0.4, 0.5), pt(0.6, 0.5), pt(0.4, 0.5), pt(0.6, 0.5))
	if !m.Model.IsSelected(seg) {
		t.Fatalf("stroke not selected")
	}
	gesture(t, m, input.ButtonPrimary, pt(0.4, 0.5), pt(0.6, 0.5))
	if m.Model.IsSelected(seg) {
		t.Errorf("second gesture did not toggle the stroke off")
	}
}

func TestSelectRectAndMove(t *testing.T) {
	m := newMachine(Draw)
	gesture(t, m, input.ButtonPrimary, pt(0.1, 0.1), pt(0.2, 0.2))
	gesture(t, m, input.ButtonPrimary, pt(0.8, 0.8), pt(0.9, 0.9))
	first := m.Model.Items()[0]

	m.SetState(SelectRect)
	gesture(t, m, input.ButtonPrimary, pt(0.3, 0.3), pt(0.15, 0.15), pt(0, 0))
	if diff := cmp.Diff([]scribble.Scribble{first}, m.Model.Selected()); diff != "" {
		t.Fatalf("selection (-want +got):\n%s", diff)
	}

	if err := m.Run(CmdToolMove); err != nil {
		t.Fatalf("move: %v", err)
	}
	if !m.Model.IsSelected(first) {
		t.Fatalf("switching to move dropped the selection")
	}
	before, _ := m.Model.UndoDepth()
	gesture(t, m, input.ButtonPrimary, pt(0.5, 0.5), pt(0.55, 0.5), pt(0.6, 0.6))
	got := first.Attrs().Points[0]
	if math.Abs(got.X-0.2) > 1e-12 || math.Abs(got.Y-0.2) > 1e-12 {
		t.Errorf("moved start = %v, want (0.2,0.2)", got)
	}
	if after, _ := m.Model.UndoDepth(); after != before+1 {
		t.Errorf("move pushed %d entries", after-before)
	}
	m.Model.Undo()
	got = first.Attrs().Points[0]
	if math.Abs(got.X-0.1) > 1e-12 || math.Abs(got.Y-0.1) > 1e-12 {
		t.Errorf("undone start = %v", got)
	}
}

func TestMoveNeedsSelection(t *testing.T) {
	m := newMachine(Draw)
	if err := m.Run(CmdToolMove); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("got %v, want ErrNoSelection", err)
	}
	if err := m.Run(CmdDeleteSelection); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("got %v, want ErrNoSelection", err)
	}
}

func TestSwitchingClearsSelection(t *testing.T) {
	m := newMachine(Draw)
	gesture(t, m, input.ButtonPrimary, pt(0.1, 0.1), pt(0.2, 0.2))
	m.Model.Select(m.Model.Last())
	m.SetState(SelectTouch)
	if !m.Model.HasSelection() {
		t.Fatalf("entering touch selection cleared the selection")
	}
	m.SetState(Box)
	if m.Model.HasSelection() {
		t.Errorf("entering box kept the selection")
	}
}

func TestWidthAndAlphaCommands(t *testing.T) {
	m := newMachine(Draw)
	w := m.Settings.Width
	_ = m.Run(CmdWidthUp)
	if m.Settings.Width != w+WidthStep {
		t.Errorf("pen width = %v", m.Settings.Width)
	}
	gesture(t, m, input.ButtonPrimary, pt(0.1, 0.1), pt(0.2, 0.2))
	s := m.Model.Last()
	m.Model.Select(s)
	depth, _ := m.Model.UndoDepth()
	_ = m.Run(CmdAlphaDown)
	_ = m.Run(CmdAlphaDown)
	if a := s.Attrs().Color.A; math.Abs(a-0.8) > 1e-9 {
		t.Errorf("alpha = %v", a)
	}
	if n, _ := m.Model.UndoDepth(); n != depth+1 {
		t.Errorf("two alpha steps pushed %d entries", n-depth)
	}
	m.Model.Undo()
	if a := s.Attrs().Color.A; a != 1 {
		t.Errorf("undone alpha = %v", a)
	}
}

func TestParseCommand(t *testing.T) {
	for c, n := range commandNames {
		got, err := ParseCommand(n)
		if err != nil || got != c {
			t.Errorf("ParseCommand(%q) = %v, %v", n, got, err)
		}
	}
	if _, err := ParseCommand("bogus"); err == nil {
		t.Errorf("bogus command parsed")
	}
}

type fixedMeasurer struct{ w, h float64 }

func (f fixedMeasurer) MeasureText(string, scribble.Font) (float64, float64) { return f.w, f.h }
