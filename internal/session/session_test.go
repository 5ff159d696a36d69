package session

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/mobile/event/key"
	"seehuhn.de/go/geom/vec"

	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/input"
	"github.com/example/lectern/internal/persist"
	"github.com/example/lectern/internal/scribble"
	"github.com/example/lectern/internal/tool"
)

type fakeSource struct {
	n      int
	closed bool
}

func (f *fakeSource) NumPages() int                            { return f.n }
func (f *fakeSource) Label(p int) string                       { return string(rune('a' + p)) }
func (f *fakeSource) FindDest(string) (int, bool)              { return 0, false }
func (f *fakeSource) Outline() ([]document.OutlineItem, error) { return nil, nil }
func (f *fakeSource) Close() error                             { f.closed = true; return nil }

func (f *fakeSource) PageInfo(p int) (document.PageInfo, error) {
	return document.PageInfo{Width: 400, Height: 300, Label: f.Label(p)}, nil
}

type recordingCache struct {
	invalidated int
	prerendered []int
}

func (c *recordingCache) Invalidate()                       { c.invalidated++ }
func (c *recordingCache) Prerender(i int)                   { c.prerendered = append(c.prerendered, i) }
func (c *recordingCache) Surface(int, int, int) image.Image { return nil }
func (c *recordingCache) Put(int, *image.RGBA)              {}

type recordingNotifier struct {
	saved, exported, copied, reloaded []string
}

func (n *recordingNotifier) Save(p string)                { n.saved = append(n.saved, p) }
func (n *recordingNotifier) Export(p string)              { n.exported = append(n.exported, p) }
func (n *recordingNotifier) Copy(d string, _ image.Image) { n.copied = append(n.copied, d) }
func (n *recordingNotifier) Reload(p string)              { n.reloaded = append(n.reloaded, p) }

type fixture struct {
	s      *Session
	path   string
	opened int
	src    *fakeSource
	cache  *recordingCache
	notify *recordingNotifier
}

func newFixture(t *testing.T, pages, start int, mode document.HighlightMode) *fixture {
	t.Helper()
	f := &fixture{
		path:   filepath.Join(t.TempDir(), "talk.pdf"),
		cache:  &recordingCache{},
		notify: &recordingNotifier{},
	}
	f.open(t, pages, start, mode)
	return f
}

func (f *fixture) open(t *testing.T, pages, start int, mode document.HighlightMode) {
	t.Helper()
	s, err := New(f.path, start, Options{
		Mode:     mode,
		Settings: tool.DefaultSettings(),
		Open: func(string) (document.Source, error) {
			f.opened++
			f.src = &fakeSource{n: pages}
			return f.src, nil
		},
		Cache:  f.cache,
		Notify: f.notify,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.s = s
}

func stroke(x float64) *scribble.Segment {
	seg := &scribble.Segment{Base: scribble.Base{Color: scribble.RGBA{R: 1, A: 1}, Width: 2}}
	seg.Append(vec.Vec2{X: x, Y: 0.1})
	seg.Append(vec.Vec2{X: x, Y: 0.9})
	scribble.Finalize(seg)
	return seg
}

func TestPerPageMode(t *testing.T) {
	f := newFixture(t, 3, 0, document.ModePage)
	s := f.s
	a := stroke(0.2)
	s.Model.Add(a)
	s.Doc.GotoNext(false)
	if s.Model.Len() != 0 {
		t.Fatalf("new page shows %d scribbles", s.Model.Len())
	}
	if s.Model.CanUndo() {
		t.Errorf("undo history survived the page change")
	}
	if got := s.Doc.Scribbles[0]; len(got) != 1 || got[0] != a {
		t.Fatalf("page 0 not stored: %v", got)
	}
	s.Doc.GotoPrev()
	if s.Model.Len() != 1 || s.Model.Items()[0] != a {
		t.Fatalf("page 0 not restored: %v", s.Model.Items())
	}
}

func TestKeepScribblesCarriesList(t *testing.T) {
	f := newFixture(t, 3, 0, document.ModePage)
	s := f.s
	s.Model.Add(stroke(0.2))
	s.Doc.GotoNext(true)
	if s.Model.Len() != 1 {
		t.Fatalf("list not kept: %d", s.Model.Len())
	}
	s.Doc.GotoNext(false)
	if len(s.Doc.Scribbles[1]) != 1 {
		t.Errorf("kept list not stored on page 1: %v", s.Doc.Scribbles)
	}
	if s.Model.Len() != 0 {
		t.Errorf("page 2 shows %d scribbles", s.Model.Len())
	}
}

func TestSingleMode(t *testing.T) {
	f := newFixture(t, 3, 0, document.ModeSingle)
	s := f.s
	s.Model.Add(stroke(0.2))
	s.Doc.GotoEnd()
	if s.Model.Len() != 1 {
		t.Fatalf("single mode dropped the list")
	}
	if len(s.Doc.Scribbles) != 0 {
		t.Errorf("single mode stored per page: %v", s.Doc.Scribbles)
	}
}

func TestClearMode(t *testing.T) {
	f := newFixture(t, 3, 0, document.ModeClear)
	s := f.s
	s.Model.Add(stroke(0.2))
	s.Doc.GotoNext(false)
	if s.Model.Len() != 0 {
		t.Fatalf("clear mode kept the list")
	}
	s.Doc.GotoPrev()
	if s.Model.Len() != 0 {
		t.Errorf("clear mode restored a list")
	}
}

func TestPageChangeDropsDegenerate(t *testing.T) {
	f := newFixture(t, 2, 0, document.ModePage)
	s := f.s
	dot := &scribble.Segment{Base: scribble.Base{Width: 1}}
	dot.Append(vec.Vec2{X: 0.5, Y: 0.5})
	s.Model.Add(dot)
	s.Model.Add(&scribble.Text{Base: scribble.Base{Points: []vec.Vec2{{X: 0.1, Y: 0.1}}}})
	s.Doc.GotoNext(false)
	if got := s.Doc.Scribbles[0]; len(got) != 0 {
		t.Errorf("degenerate scribbles stored: %v", got)
	}
}

func TestPrerenderWindow(t *testing.T) {
	f := newFixture(t, 10, 4, document.ModePage)
	if diff := cmp.Diff([]int{5, 6, 7, 8, 4, 3}, f.cache.prerendered); diff != "" {
		t.Errorf("prerender at open (-want +got):\n%s", diff)
	}
	f.cache.prerendered = nil
	f.s.Doc.GotoEnd()
	if diff := cmp.Diff([]int{9, 8}, f.cache.prerendered); diff != "" {
		t.Errorf("prerender at end (-want +got):\n%s", diff)
	}
	f.cache.prerendered = nil
	f.s.Doc.GotoHome()
	if diff := cmp.Diff([]int{1, 2, 3, 4}, f.cache.prerendered); diff != "" {
		t.Errorf("prerender at start (-want +got):\n%s", diff)
	}
}

func TestInsertPage(t *testing.T) {
	f := newFixture(t, 3, 1, document.ModePage)
	s := f.s
	a := stroke(0.3)
	s.Model.Add(a)
	if err := s.InsertPage(0); err != nil {
		t.Fatalf("InsertPage: %v", err)
	}
	if f.cache.invalidated != 1 {
		t.Errorf("cache invalidated %d times", f.cache.invalidated)
	}
	if s.Doc.Current() != 2 {
		t.Errorf("current page = %d, want 2", s.Doc.Current())
	}
	if diff := cmp.Diff([]int{-1, 0, 1, 2}, s.Doc.PageMap()); diff != "" {
		t.Errorf("page map (-want +got):\n%s", diff)
	}
	if s.Model.Len() != 1 || s.Model.Items()[0] != a {
		t.Errorf("scribbles did not follow their page: %v", s.Model.Items())
	}
}

func TestReload(t *testing.T) {
	f := newFixture(t, 3, 0, document.ModePage)
	s := f.s
	if err := s.InsertPage(1); err != nil {
		t.Fatalf("InsertPage: %v", err)
	}
	s.Doc.Goto(2, false, false)
	a := stroke(0.4)
	s.Model.Add(a)
	old := f.src

	s.RequestReload()
	s.RequestReload()
	if n := len(s.Reloads()); n != 1 {
		t.Fatalf("%d pending reloads, want 1", n)
	}
	<-s.Reloads()
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if f.opened != 2 || !old.closed {
		t.Errorf("opened %d times, old source closed %v", f.opened, old.closed)
	}
	if diff := cmp.Diff([]int{0, -1, 1, 2}, s.Doc.PageMap()); diff != "" {
		t.Errorf("page map (-want +got):\n%s", diff)
	}
	if s.Doc.Current() != 2 {
		t.Errorf("current page = %d", s.Doc.Current())
	}
	if s.Model.Len() != 1 || s.Model.Items()[0] != a {
		t.Errorf("scribbles lost on reload: %v", s.Model.Items())
	}
	if len(f.notify.reloaded) != 1 {
		t.Errorf("reload notifications: %v", f.notify.reloaded)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	f := newFixture(t, 2, 0, document.ModeAutoPage)
	f.s.Model.Add(stroke(0.5))
	if err := f.s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if diff := cmp.Diff([]string{persist.SidecarPath(f.path)}, f.notify.saved); diff != "" {
		t.Errorf("notifications (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(persist.SidecarPath(f.path)); err != nil {
		t.Fatalf("sidecar: %v", err)
	}
	f.open(t, 2, 0, document.ModeAutoPage)
	if f.s.Model.Len() != 1 {
		t.Fatalf("reopened page shows %d scribbles", f.s.Model.Len())
	}
	seg, ok := f.s.Model.Items()[0].(*scribble.Segment)
	if !ok || len(seg.Points) != 2 || seg.Points[0].X != 0.5 {
		t.Errorf("unexpected scribble %#v", f.s.Model.Items()[0])
	}
}

func TestExportXopp(t *testing.T) {
	f := newFixture(t, 2, 0, document.ModePage)
	f.s.Model.Add(stroke(0.5))
	out := filepath.Join(t.TempDir(), "talk.xopp")
	if err := f.s.ExportXopp(out); err != nil {
		t.Fatalf("ExportXopp: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Fatalf("export missing: %v", err)
	}
	if len(f.notify.exported) != 1 {
		t.Errorf("export notifications: %v", f.notify.exported)
	}
}

func TestOpenFailureYieldsEmptySession(t *testing.T) {
	boom := errors.New("boom")
	s, err := New("nope.pdf", 0, Options{Open: func(string) (document.Source, error) { return nil, boom }})
	var oe *document.OpenError
	if !errors.As(err, &oe) {
		t.Fatalf("got %v, want *document.OpenError", err)
	}
	if s == nil || !s.Doc.IsEmpty() {
		t.Fatalf("expected a session over the empty document")
	}
	if err := s.Save(); !errors.Is(err, document.ErrNoDocument) {
		t.Errorf("Save on empty document: %v", err)
	}
	if err := s.Reload(); !errors.Is(err, document.ErrNoDocument) {
		t.Errorf("Reload on empty document: %v", err)
	}
}

func TestPointerTracking(t *testing.T) {
	f := newFixture(t, 1, 0, document.ModePage)
	s := f.s
	redraws := 0
	s.OnRedraw = func() { redraws++ }
	s.Handle(input.Event{Type: input.Motion, Point: vec.Vec2{X: 0.25, Y: 0.75}})
	if s.Pointer == nil || *s.Pointer != (vec.Vec2{X: 0.25, Y: 0.75}) {
		t.Fatalf("pointer = %v", s.Pointer)
	}
	s.Handle(input.Event{Type: input.Leave})
	if s.Pointer != nil {
		t.Errorf("pointer kept after leave")
	}
	if redraws != 2 {
		t.Errorf("%d redraws", redraws)
	}
}

func keyPress(code key.Code, r rune, mods key.Modifiers) key.Event {
	return key.Event{Rune: r, Code: code, Modifiers: mods, Direction: key.DirPress}
}

func TestKeys(t *testing.T) {
	f := newFixture(t, 5, 0, document.ModePage)
	s := f.s
	s.Key(keyPress(key.CodePageDown, -1, 0))
	s.Key(keyPress(key.CodeRightArrow, -1, 0))
	if s.Doc.Current() != 2 {
		t.Fatalf("current page = %d, want 2", s.Doc.Current())
	}
	s.Key(keyPress(key.CodeLeftArrow, -1, key.ModAlt))
	if s.Doc.Current() != 1 {
		t.Errorf("history back gave %d", s.Doc.Current())
	}
	s.Key(keyPress(key.CodeEnd, -1, 0))
	if s.Doc.Current() != 4 {
		t.Errorf("end gave %d", s.Doc.Current())
	}

	s.Key(keyPress(key.CodeH, 'h', 0))
	if s.Tool.State() != tool.Draw {
		t.Fatalf("h did not start drawing: %v", s.Tool.State())
	}
	s.Key(keyPress(key.CodeH, 'h', 0))
	if s.Tool.State() != tool.None {
		t.Fatalf("second h did not stop drawing: %v", s.Tool.State())
	}
	s.Key(keyPress(key.CodeH, 'h', 0))
	s.Key(keyPress(key.CodeE, 'e', 0))
	if s.Tool.State() != tool.Erase {
		t.Errorf("e did not select the eraser: %v", s.Tool.State())
	}
	s.Key(keyPress(key.CodeH, 'h', 0))
	if s.Tool.State() != tool.Draw {
		t.Errorf("h from the eraser gave %v, want the pen", s.Tool.State())
	}
	s.Key(keyPress(key.CodeE, 'e', 0))
	s.Key(keyPress(key.CodeEscape, -1, 0))
	if s.Tool.State() != tool.None {
		t.Errorf("escape left %v active", s.Tool.State())
	}
	if s.Key(keyPress(key.CodeF, 'f', 0)) {
		t.Errorf("unbound key consumed")
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t, 2, 0, document.ModeAutoPage)
	quits := 0
	f.s.OnQuit = func() { quits++ }
	f.s.Quit()
	f.s.Quit()
	if quits != 1 {
		t.Errorf("OnQuit called %d times", quits)
	}
	if !f.src.closed {
		t.Errorf("source left open")
	}
	if len(f.notify.saved) != 1 {
		t.Errorf("quit saved %d times", len(f.notify.saved))
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talk.pdf")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	fired := make(chan struct{}, 4)
	w, err := Watch(context.Background(), path, 100*time.Millisecond, func() { fired <- struct{}{} })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("v2"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-fired:
		t.Errorf("burst reported more than once")
	case <-time.After(400 * time.Millisecond):
	}
}
