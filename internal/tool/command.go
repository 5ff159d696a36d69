package tool

import (
	"fmt"
	"unicode"

	"golang.org/x/mobile/event/key"
)

// Command is a named action bound to a key or a CLI flag.
type Command int

const (
	CmdNone Command = iota
	CmdUndo
	CmdRedo
	CmdClear
	CmdDeleteSelection
	CmdCancel
	CmdWidthUp
	CmdWidthDown
	CmdAlphaUp
	CmdAlphaDown
	CmdToolNone
	CmdToolDraw
	CmdToolErase
	CmdToolBox
	CmdToolEllipse
	CmdToolLine
	CmdToolText
	CmdToolLatex
	CmdToolStamp
	CmdToolSelectTouch
	CmdToolSelectRect
	CmdToolMove
)

var commandNames = map[Command]string{
	CmdUndo:            "undo",
	CmdRedo:            "redo",
	CmdClear:           "clear",
	CmdDeleteSelection: "delete",
	CmdCancel:          "cancel",
	CmdWidthUp:         "width-up",
	CmdWidthDown:       "width-down",
	CmdAlphaUp:         "alpha-up",
	CmdAlphaDown:       "alpha-down",
	CmdToolNone:        "tool-none",
	CmdToolDraw:        "tool-draw",
	CmdToolErase:       "tool-erase",
	CmdToolBox:         "tool-box",
	CmdToolEllipse:     "tool-ellipse",
	CmdToolLine:        "tool-line",
	CmdToolText:        "tool-text",
	CmdToolLatex:       "tool-latex",
	CmdToolStamp:       "tool-stamp",
	CmdToolSelectTouch: "tool-select-touch",
	CmdToolSelectRect:  "tool-select-rect",
	CmdToolMove:        "tool-move",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return "none"
}

// ParseCommand returns the command named s.
func ParseCommand(s string) (Command, error) {
	for c, n := range commandNames {
		if n == s {
			return c, nil
		}
	}
	return CmdNone, fmt.Errorf("unknown command %q", s)
}

// WidthStep and AlphaStep are the increments of the width and alpha
// commands.
const (
	WidthStep = 0.5
	AlphaStep = 0.1
)

func toolCommand(s State) func(*Machine) error {
	return func(m *Machine) error {
		m.SetState(s)
		return nil
	}
}

var handlers = map[Command]func(*Machine) error{
	CmdUndo: func(m *Machine) error {
		m.Commit()
		m.Model.Undo()
		return nil
	},
	CmdRedo: func(m *Machine) error {
		m.Commit()
		m.Model.Redo()
		return nil
	},
	CmdClear: func(m *Machine) error {
		m.Commit()
		m.Model.Clear()
		return nil
	},
	CmdDeleteSelection: func(m *Machine) error {
		if !m.Model.HasSelection() {
			return ErrNoSelection
		}
		m.Model.DeleteSelected()
		return nil
	},
	CmdCancel: func(m *Machine) error {
		if m.edit != nil {
			m.Commit()
			return nil
		}
		m.SetState(None)
		return nil
	},
	CmdWidthUp:         func(m *Machine) error { return m.stepWidth(WidthStep) },
	CmdWidthDown:       func(m *Machine) error { return m.stepWidth(-WidthStep) },
	CmdAlphaUp:         func(m *Machine) error { return m.stepAlpha(AlphaStep) },
	CmdAlphaDown:       func(m *Machine) error { return m.stepAlpha(-AlphaStep) },
	CmdToolNone:        toolCommand(None),
	CmdToolDraw:        toolCommand(Draw),
	CmdToolErase:       toolCommand(Erase),
	CmdToolBox:         toolCommand(Box),
	CmdToolEllipse:     toolCommand(Ellipse),
	CmdToolLine:        toolCommand(Line),
	CmdToolText:        toolCommand(Text),
	CmdToolLatex:       toolCommand(Latex),
	CmdToolStamp:       toolCommand(Stamp),
	CmdToolSelectTouch: toolCommand(SelectTouch),
	CmdToolSelectRect:  toolCommand(SelectRect),
	CmdToolMove: func(m *Machine) error {
		if !m.Model.HasSelection() {
			return ErrNoSelection
		}
		m.SetState(Move)
		return nil
	},
}

// Run executes c.
func (m *Machine) Run(c Command) error {
	h, ok := handlers[c]
	if !ok {
		return fmt.Errorf("unknown command %d", int(c))
	}
	err := h(m)
	m.redraw()
	return err
}

// stepWidth changes the width of the selection, or of the pen when nothing
// is selected. Repeated steps on the same selection undo as one.
func (m *Machine) stepWidth(d float64) error {
	if sel := m.Model.Selected(); len(sel) > 0 {
		w := max(0.1, sel[0].Attrs().Width+d)
		m.Model.SetWidth(sel, w, true)
		return nil
	}
	m.Settings.Width = max(0.1, m.Settings.Width+d)
	return nil
}

func (m *Machine) stepAlpha(d float64) error {
	if sel := m.Model.Selected(); len(sel) > 0 {
		a := clamp01(sel[0].Attrs().Color.A + d)
		m.Model.SetAlpha(sel, a, true)
		return nil
	}
	m.Settings.Color.A = clamp01(m.Settings.Color.A + d)
	return nil
}

func clamp01(v float64) float64 { return min(1, max(0, v)) }

// KeyShortcut describes a key combination bound to a command.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// Keys is the default key binding.
var Keys = map[KeyShortcut]Command{
	{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl}:                CmdUndo,
	{Rune: 'y', Code: key.CodeY, Modifiers: key.ModControl}:                CmdRedo,
	{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModControl | key.ModShift}: CmdRedo,
	{Rune: 'l', Code: key.CodeL, Modifiers: key.ModControl}:                CmdClear,
	{Rune: -1, Code: key.CodeDeleteForward}:                                CmdDeleteSelection,
	{Rune: -1, Code: key.CodeEscape}:                                       CmdCancel,
	{Rune: ']', Code: key.CodeRightSquareBracket}:                          CmdWidthUp,
	{Rune: '[', Code: key.CodeLeftSquareBracket}:                           CmdWidthDown,
	{Rune: '}', Code: key.CodeRightSquareBracket, Modifiers: key.ModShift}: CmdAlphaUp,
	{Rune: '{', Code: key.CodeLeftSquareBracket, Modifiers: key.ModShift}:  CmdAlphaDown,
	{Rune: 'h', Code: key.CodeH}:                                           CmdToolDraw,
	{Rune: 'e', Code: key.CodeE}:                                           CmdToolErase,
	{Rune: 'x', Code: key.CodeX}:                                           CmdToolBox,
	{Rune: 'o', Code: key.CodeO}:                                           CmdToolEllipse,
	{Rune: 'l', Code: key.CodeL}:                                           CmdToolLine,
	{Rune: 't', Code: key.CodeT}:                                           CmdToolText,
	{Rune: 'k', Code: key.CodeK}:                                           CmdToolLatex,
	{Rune: 's', Code: key.CodeS}:                                           CmdToolStamp,
	{Rune: 'v', Code: key.CodeV}:                                           CmdToolSelectTouch,
	{Rune: 'r', Code: key.CodeR}:                                           CmdToolSelectRect,
	{Rune: 'm', Code: key.CodeM}:                                           CmdToolMove,
}

// Key routes a key event to the open editor, or looks it up in Keys. It
// reports whether the event was consumed.
func (m *Machine) Key(e key.Event) bool {
	if m.edit != nil {
		consumed, done := m.edit.Key(e)
		if done {
			m.Commit()
		}
		m.redraw()
		return consumed
	}
	if e.Direction == key.DirRelease {
		return false
	}
	ks := KeyShortcut{Rune: unicode.ToLower(e.Rune), Code: e.Code, Modifiers: e.Modifiers}
	if e.Modifiers&key.ModShift != 0 {
		ks.Rune = e.Rune
	}
	c, ok := Keys[ks]
	if !ok {
		return false
	}
	// Tool keys only apply while drawing is enabled. The pen key is
	// declined while the pen is already up so that it can end drawing.
	if (c >= CmdToolDraw && m.state == None) || (c == CmdToolDraw && m.state == Draw) {
		return false
	}
	_ = m.Run(c)
	return true
}
