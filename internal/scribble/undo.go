package scribble

import "seehuhn.de/go/geom/vec"

// Entry is one undoable operation on a Model.
type Entry interface {
	undo(m *Model)
	redo(m *Model)
	// Targets lists the objects the entry applies to.
	Targets() []Scribble
}

// merger is implemented by entries that may absorb a following entry of
// the same type.
type merger interface {
	merge(next Entry) bool
}

// AddEntry records that Item was appended.
type AddEntry struct {
	Item Scribble
}

func (e *AddEntry) undo(m *Model)       { m.remove(e.Item) }
func (e *AddEntry) redo(m *Model)       { m.items = append(m.items, e.Item) }
func (e *AddEntry) Targets() []Scribble { return []Scribble{e.Item} }

// DeleteEntry records that Items were removed.
type DeleteEntry struct {
	Items []Scribble
}

func (e *DeleteEntry) undo(m *Model) {
	for _, s := range e.Items {
		if m.index(s) < 0 {
			m.items = append(m.items, s)
		}
	}
}

func (e *DeleteEntry) redo(m *Model) {
	for _, s := range e.Items {
		m.remove(s)
	}
}

func (e *DeleteEntry) Targets() []Scribble { return e.Items }

// ClearEntry records that the whole list was emptied. Items is a private
// copy of the list at the time of clearing.
type ClearEntry struct {
	Items []Scribble
}

func (e *ClearEntry) undo(m *Model) {
	for _, s := range e.Items {
		if m.index(s) < 0 {
			m.items = append(m.items, s)
		}
	}
}

func (e *ClearEntry) redo(m *Model) {
	m.items = nil
	m.ClearSelection()
}

func (e *ClearEntry) Targets() []Scribble { return e.Items }

// WidthEntry records a stroke width change. Before holds one value per item.
type WidthEntry struct {
	Items  []Scribble
	Before []float64
	After  []float64
}

func (e *WidthEntry) apply(vals []float64) {
	for i, s := range e.Items {
		if i < len(vals) {
			s.Attrs().Width = vals[i]
		}
	}
}

func (e *WidthEntry) undo(*Model)         { e.apply(e.Before) }
func (e *WidthEntry) redo(*Model)         { e.apply(e.After) }
func (e *WidthEntry) Targets() []Scribble { return e.Items }

func (e *WidthEntry) merge(next Entry) bool {
	n, ok := next.(*WidthEntry)
	if !ok || !sameTargets(e.Items, n.Items) {
		return false
	}
	e.After = n.After
	return true
}

// ColorEntry records a stroke colour change, or a fill colour change when
// Fill is set.
type ColorEntry struct {
	Items  []Scribble
	Fill   bool
	Before []RGBA
	After  []RGBA
}

func (e *ColorEntry) apply(vals []RGBA) {
	for i, s := range e.Items {
		if i >= len(vals) {
			break
		}
		if e.Fill {
			if sh, ok := s.(*Shape); ok {
				sh.Fill = vals[i]
			}
			continue
		}
		s.Attrs().Color = vals[i]
	}
}

func (e *ColorEntry) undo(*Model)         { e.apply(e.Before) }
func (e *ColorEntry) redo(*Model)         { e.apply(e.After) }
func (e *ColorEntry) Targets() []Scribble { return e.Items }

func (e *ColorEntry) merge(next Entry) bool {
	n, ok := next.(*ColorEntry)
	if !ok || n.Fill != e.Fill || !sameTargets(e.Items, n.Items) {
		return false
	}
	e.After = n.After
	return true
}

// AlphaEntry records a change of stroke opacity.
type AlphaEntry struct {
	Items  []Scribble
	Before []float64
	After  []float64
}

func (e *AlphaEntry) apply(vals []float64) {
	for i, s := range e.Items {
		if i < len(vals) {
			s.Attrs().Color.A = vals[i]
		}
	}
}

func (e *AlphaEntry) undo(*Model)         { e.apply(e.Before) }
func (e *AlphaEntry) redo(*Model)         { e.apply(e.After) }
func (e *AlphaEntry) Targets() []Scribble { return e.Items }

func (e *AlphaEntry) merge(next Entry) bool {
	n, ok := next.(*AlphaEntry)
	if !ok || !sameTargets(e.Items, n.Items) {
		return false
	}
	e.After = n.After
	return true
}

// MoveEntry records a translation of Items by Delta. A drag in progress
// keeps growing Delta on the entry at the top of the stack.
type MoveEntry struct {
	Items []Scribble
	Delta vec.Vec2
}

func (e *MoveEntry) undo(*Model) {
	d := vec.Vec2{X: -e.Delta.X, Y: -e.Delta.Y}
	for _, s := range e.Items {
		Translate(s, d)
	}
}

func (e *MoveEntry) redo(*Model) {
	for _, s := range e.Items {
		Translate(s, e.Delta)
	}
}

func (e *MoveEntry) Targets() []Scribble { return e.Items }

// sameTargets compares two object sets by identity, ignoring order.
func sameTargets(a, b []Scribble) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[Scribble]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
