package scribble

import (
	"time"

	"seehuhn.de/go/geom/vec"
)

// DefaultCoalesceWindow bounds how far apart two coalesced undo entries
// may be pushed.
const DefaultCoalesceWindow = time.Second

type record struct {
	entry Entry
	at    time.Time
}

// Model is the scribble list of the current page, its selection and its
// linear undo stack. It is owned by the UI goroutine and is not safe for
// concurrent use.
type Model struct {
	items    []Scribble
	selected map[Scribble]struct{}

	stack []record
	pos   int

	// CoalesceWindow is the longest gap between two merged entries. Zero
	// or negative disables the bound.
	CoalesceWindow time.Duration
	// OnRedraw is called after every undo and redo.
	OnRedraw func()

	now func() time.Time
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		selected:       map[Scribble]struct{}{},
		CoalesceWindow: DefaultCoalesceWindow,
		now:            time.Now,
	}
}

// Items returns the live list in z-order. Callers must not modify it.
func (m *Model) Items() []Scribble { return m.items }

// Len returns the number of objects in the list.
func (m *Model) Len() int { return len(m.items) }

// Last returns the top-most object, or nil.
func (m *Model) Last() Scribble {
	if len(m.items) == 0 {
		return nil
	}
	return m.items[len(m.items)-1]
}

// Contains reports whether s is in the list.
func (m *Model) Contains(s Scribble) bool { return m.index(s) >= 0 }

// Snapshot returns a copy of the list that later edits will not reorder.
func (m *Model) Snapshot() []Scribble {
	return append([]Scribble(nil), m.items...)
}

// Reset replaces the list, clearing the selection and the undo stack.
func (m *Model) Reset(items []Scribble) {
	m.items = append([]Scribble(nil), items...)
	m.ClearSelection()
	m.stack = nil
	m.pos = 0
}

// Clean removes degenerate objects from the list.
func (m *Model) Clean() {
	m.items = Clean(m.items)
	for s := range m.selected {
		if m.index(s) < 0 {
			delete(m.selected, s)
		}
	}
}

func (m *Model) index(s Scribble) int {
	for i, it := range m.items {
		if it == s {
			return i
		}
	}
	return -1
}

func (m *Model) remove(s Scribble) bool {
	i := m.index(s)
	if i < 0 {
		return false
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	delete(m.selected, s)
	return true
}

// Add appends s and records it for undo.
func (m *Model) Add(s Scribble) {
	m.items = append(m.items, s)
	m.AddUndo(&AddEntry{Item: s}, false)
}

// Delete removes the given objects and records a single entry for them.
func (m *Model) Delete(items ...Scribble) {
	var gone []Scribble
	for _, s := range items {
		if m.remove(s) {
			gone = append(gone, s)
		}
	}
	if len(gone) > 0 {
		m.AddUndo(&DeleteEntry{Items: gone}, false)
	}
}

// Discard removes s. When the entry before the cursor is the one that
// added s that entry is dropped with it, otherwise the removal is recorded
// as a deletion.
func (m *Model) Discard(s Scribble) {
	if !m.remove(s) {
		return
	}
	if a, ok := m.Top().(*AddEntry); ok && a.Item == s {
		m.pos--
		m.stack = m.stack[:m.pos]
		return
	}
	m.AddUndo(&DeleteEntry{Items: []Scribble{s}}, false)
}

// DeleteSelected removes every selected object.
func (m *Model) DeleteSelected() {
	m.Delete(m.Selected()...)
}

// Clear empties the list.
func (m *Model) Clear() {
	if len(m.items) > 0 {
		m.AddUndo(&ClearEntry{Items: m.Snapshot()}, false)
	}
	m.items = nil
	m.ClearSelection()
}

// SetWidth changes the stroke width of items.
func (m *Model) SetWidth(items []Scribble, w float64, coalesce bool) {
	if len(items) == 0 {
		return
	}
	e := &WidthEntry{Items: cloneList(items)}
	for _, s := range e.Items {
		e.Before = append(e.Before, s.Attrs().Width)
		e.After = append(e.After, w)
	}
	e.redo(m)
	m.AddUndo(e, coalesce)
}

// SetColor changes the stroke colour of items.
func (m *Model) SetColor(items []Scribble, c RGBA, coalesce bool) {
	if len(items) == 0 {
		return
	}
	e := &ColorEntry{Items: cloneList(items)}
	for _, s := range e.Items {
		e.Before = append(e.Before, s.Attrs().Color)
		e.After = append(e.After, c)
	}
	e.redo(m)
	m.AddUndo(e, coalesce)
}

// SetFill changes the fill colour of the shapes among items.
func (m *Model) SetFill(items []Scribble, c RGBA, coalesce bool) {
	e := &ColorEntry{Fill: true}
	for _, s := range items {
		sh, ok := s.(*Shape)
		if !ok {
			continue
		}
		e.Items = append(e.Items, s)
		e.Before = append(e.Before, sh.Fill)
		e.After = append(e.After, c)
	}
	if len(e.Items) == 0 {
		return
	}
	e.redo(m)
	m.AddUndo(e, coalesce)
}

// SetAlpha changes the stroke opacity of items.
func (m *Model) SetAlpha(items []Scribble, a float64, coalesce bool) {
	if len(items) == 0 {
		return
	}
	e := &AlphaEntry{Items: cloneList(items)}
	for _, s := range e.Items {
		e.Before = append(e.Before, s.Attrs().Color.A)
		e.After = append(e.After, a)
	}
	e.redo(m)
	m.AddUndo(e, coalesce)
}

// BeginMove pushes a zero-delta move entry for items and returns it so a
// drag can grow it through Move.
func (m *Model) BeginMove(items []Scribble) *MoveEntry {
	e := &MoveEntry{Items: cloneList(items)}
	m.AddUndo(e, false)
	return e
}

// Move translates the objects of e by d and accumulates d on e.
func (m *Model) Move(e *MoveEntry, d vec.Vec2) {
	for _, s := range e.Items {
		Translate(s, d)
	}
	e.Delta = e.Delta.Add(d)
}

// AddUndo pushes e, dropping every entry beyond the cursor. With coalesce
// set, e is folded into the top entry when both have the same type, target
// the same objects and were pushed within CoalesceWindow of each other.
func (m *Model) AddUndo(e Entry, coalesce bool) {
	if m.pos < len(m.stack) {
		m.stack = m.stack[:m.pos]
	}
	now := m.clock()
	if coalesce && len(m.stack) > 0 {
		top := &m.stack[len(m.stack)-1]
		within := m.CoalesceWindow <= 0 || now.Sub(top.at) <= m.CoalesceWindow
		if mg, ok := top.entry.(merger); ok && within && mg.merge(e) {
			top.at = now
			return
		}
	}
	m.stack = append(m.stack, record{entry: e, at: now})
	m.pos = len(m.stack)
}

func (m *Model) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// CanUndo reports whether there is an entry before the cursor.
func (m *Model) CanUndo() bool { return m.pos > 0 }

// CanRedo reports whether there is an entry after the cursor.
func (m *Model) CanRedo() bool { return m.pos < len(m.stack) }

// UndoDepth returns the number of entries and the cursor position.
func (m *Model) UndoDepth() (entries, pos int) { return len(m.stack), m.pos }

// Top returns the entry just before the cursor, or nil.
func (m *Model) Top() Entry {
	if m.pos == 0 {
		return nil
	}
	return m.stack[m.pos-1].entry
}

// Undo reverts the entry before the cursor.
func (m *Model) Undo() bool {
	if m.pos == 0 {
		return false
	}
	m.pos--
	m.stack[m.pos].entry.undo(m)
	m.redraw()
	return true
}

// Redo replays the entry at the cursor.
func (m *Model) Redo() bool {
	if m.pos >= len(m.stack) {
		return false
	}
	m.stack[m.pos].entry.redo(m)
	m.pos++
	m.redraw()
	return true
}

func (m *Model) redraw() {
	if m.OnRedraw != nil {
		m.OnRedraw()
	}
}

// Selected returns the selection in list order.
func (m *Model) Selected() []Scribble {
	var out []Scribble
	for _, s := range m.items {
		if _, ok := m.selected[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// HasSelection reports whether anything is selected.
func (m *Model) HasSelection() bool { return len(m.Selected()) > 0 }

// IsSelected reports whether s is selected.
func (m *Model) IsSelected(s Scribble) bool {
	_, ok := m.selected[s]
	return ok
}

// Select adds s to the selection if it is in the list.
func (m *Model) Select(s Scribble) {
	if m.index(s) < 0 {
		return
	}
	if m.selected == nil {
		m.selected = map[Scribble]struct{}{}
	}
	m.selected[s] = struct{}{}
}

// Toggle flips the membership of s in the selection.
func (m *Model) Toggle(s Scribble) {
	if m.IsSelected(s) {
		delete(m.selected, s)
		return
	}
	m.Select(s)
}

// SetSelection replaces the selection.
func (m *Model) SetSelection(items []Scribble) {
	m.ClearSelection()
	for _, s := range items {
		m.Select(s)
	}
}

// ClearSelection empties the selection.
func (m *Model) ClearSelection() {
	m.selected = map[Scribble]struct{}{}
}

func cloneList(items []Scribble) []Scribble {
	return append([]Scribble(nil), items...)
}
