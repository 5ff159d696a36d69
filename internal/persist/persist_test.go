package persist

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"seehuhn.de/go/geom/vec"

	"github.com/example/lectern/internal/scribble"
)

func TestBoxRoundTrip(t *testing.T) {
	box := &scribble.Shape{
		Base: scribble.Base{
			Color:  scribble.RGBA{R: 1, A: 1},
			Width:  3,
			Points: []vec.Vec2{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.5}},
		},
		Fill: scribble.RGBA{G: 0.5, A: 0.25},
	}
	scribble.Finalize(box)
	st := State{
		PageMap:   map[int]int{0: 0, 1: -1, 2: 1},
		Scribbles: map[int][]scribble.Scribble{2: {box}},
	}
	path := filepath.Join(t.TempDir(), "deck.pdf"+Extension)
	if err := Save(path, st, true); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveWithoutScribbles(t *testing.T) {
	var buf bytes.Buffer
	st := State{
		PageMap:   map[int]int{0: 0},
		Scribbles: map[int][]scribble.Scribble{0: {&scribble.Segment{}}},
	}
	if err := Encode(&buf, st, false); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(buf.String(), "scribbles") {
		t.Fatalf("scribbles written outside autopage mode: %s", buf.String())
	}
}

func TestEncodeDropsVolatileFields(t *testing.T) {
	var buf bytes.Buffer
	lx := &scribble.Latex{Text: `\alpha`, Raster: image.NewNRGBA(image.Rect(0, 0, 2, 2)), RenderedFrom: `\alpha`}
	st := State{
		PageMap: map[int]int{0: 0},
		Scribbles: map[int][]scribble.Scribble{0: {
			&scribble.Text{Base: scribble.Base{Points: []vec.Vec2{{}}}},
			lx,
		}},
	}
	if err := Encode(&buf, st, true); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	list := got.Scribbles[0]
	if len(list) != 1 {
		t.Fatalf("expected only the latex object, got %d", len(list))
	}
	l, ok := list[0].(*scribble.Latex)
	if !ok || l.Text != `\alpha` || l.Raster != nil || l.RenderedFrom != "" {
		t.Fatalf("unexpected latex record %+v", list[0])
	}
}

func TestLoadMissingAndMalformed(t *testing.T) {
	dir := t.TempDir()
	st, err := Load(filepath.Join(dir, "none.pymp"))
	if err != nil || st.PageMap != nil {
		t.Fatalf("missing file: %+v %v", st, err)
	}
	bad := filepath.Join(dir, "bad.pymp")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestDecodeRejectsHugeRaster(t *testing.T) {
	for _, params := range []string{
		`[0, true, 8, 1, 4611686018427387904, 4]`,
		`[0, true, 8, 4611686018427387904, 1, 4]`,
		`[0, true, 8, 2, 2, 4611686018427387904]`,
		`[0, true, 8, 40000, 1, 160000]`,
		`[0, false, 8, 1e300, 1, 3]`,
	} {
		in := `{"page_map": {"0": 0}, "scribbles": {"0": [{"kind": "image", "color": {"rgba": [0, 0, 0, 1]}, "width": 1, "points": [[0.1, 0.1]], "bbox": [[0.1, 0.1], [0.2, 0.2]], "image": {"pixels": "AAAAAAAAAAA=", "params": ` + params + `}}]}}`
		if _, err := Decode(strings.NewReader(in)); err == nil {
			t.Errorf("params %s accepted", params)
		}
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "huge.pymp")
	in := `{"page_map": {"0": 0}, "scribbles": {"0": [{"kind": "image", "image": {"pixels": "AAAA", "params": [0, true, 8, 1, 4611686018427387904, 4]}}]}}`
	if err := os.WriteFile(path, []byte(in), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an oversized raster")
	}
}

func TestDecodeLegacyKeys(t *testing.T) {
	in := `{"page_map": {"0": 1, "1": 0}, "scribbles": {"1.0": [{"kind": "segment", "color": {"rgba": [0, 0, 1, 1]}, "width": 2, "points": [[0.1, 0.2], [0.3, 0.4]], "bbox": [[0, 0], [0, 0]]}]}}`
	st, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if st.PageMap[0] != 1 || st.PageMap[1] != 0 {
		t.Fatalf("unexpected page map %v", st.PageMap)
	}
	seg, ok := st.Scribbles[1][0].(*scribble.Segment)
	if !ok || len(seg.Points) != 2 || seg.Color.B != 1 {
		t.Fatalf("unexpected scribble %+v", st.Scribbles[1])
	}
}

func TestImageRoundTrip(t *testing.T) {
	raster := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	raster.Set(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	img := &scribble.Image{Raster: raster}
	img.Place(vec.Vec2{X: 0.2, Y: 0.3}, 0.1, 0.05)
	var buf bytes.Buffer
	st := State{PageMap: map[int]int{0: 0}, Scribbles: map[int][]scribble.Scribble{0: {img}}}
	if err := Encode(&buf, st, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"params":[0,true,8,3,2,12]`) {
		t.Fatalf("unexpected params encoding: %s", buf.String())
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(st, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestExportXopp(t *testing.T) {
	seg := &scribble.Segment{Base: scribble.Base{Color: scribble.RGBA{R: 1, A: 0.5}, Width: 2}}
	seg.Append(vec.Vec2{X: 0, Y: 0})
	seg.Append(vec.Vec2{X: 0.5, Y: 1})
	box := &scribble.Shape{
		Base: scribble.Base{Color: scribble.RGBA{A: 1}, Width: 1, Points: []vec.Vec2{{X: 0, Y: 0}, {X: 1, Y: 1}}},
		Fill: scribble.RGBA{R: 1, A: 1},
	}
	text := &scribble.Text{
		Base: scribble.Base{Color: scribble.RGBA{A: 1}, Points: []vec.Vec2{{X: 0.5, Y: 0.5}}},
		Text: "a<b",
		Font: scribble.Font{Family: "Sans", Size: 24},
	}
	text.Box.LLx, text.Box.LLy, text.Box.URx, text.Box.URy = 0.5, 0.5, 0.6, 0.6
	pages := []ExportPage{
		{Width: 100, Height: 50, Physical: 0, Scribbles: []scribble.Scribble{seg, box, text}},
		{Width: 100, Height: 50, Physical: -1},
	}
	var buf bytes.Buffer
	if err := Export(&buf, "/tmp/deck.pdf", pages, nil); err != nil {
		t.Fatalf("Export: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		`<xournal creator="lectern" fileversion="4">`,
		`<page width="100" height="50">`,
		`<background type="pdf" domain="absolute" filename="/tmp/deck.pdf" pageno="1ll"/>`,
		`<background type="solid" color="#ffffffff" style="plain"/>`,
		`<stroke tool="highlighter" ts="0ll" fn="" color="#ff00007f" width="2">`,
		"     50 50\n",
		`fill="255"`,
		`<text font="Sans" size="24" x="50" y="25" ts="0ll" color="#000000ff">a&lt;b</text>`,
		"</xournal>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if n := strings.Count(out, "<stroke"); n != 3 {
		t.Errorf("expected 3 strokes, got %d", n)
	}
}
