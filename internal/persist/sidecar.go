// Package persist stores the page map and scribbles of a document in a
// JSON file next to it, and exports annotated decks to xournal++.
package persist

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/example/lectern/internal/scribble"
)

// Extension is appended to the document path to name the sidecar file.
const Extension = ".pymp"

// SidecarPath returns the sidecar file for the document at path.
func SidecarPath(path string) string {
	return strings.TrimPrefix(path, "file://") + Extension
}

// State is what the sidecar holds. PageMap maps logical to physical page
// indices. Scribbles is nil when the file carried none.
type State struct {
	PageMap   map[int]int
	Scribbles map[int][]scribble.Scribble
}

type fileFormat struct {
	PageMap   map[string]int              `json:"page_map"`
	Scribbles map[string][]scribbleRecord `json:"scribbles,omitempty"`
}

type colorRecord struct {
	RGBA [4]float64 `json:"rgba"`
}

func encodeColor(c scribble.RGBA) colorRecord {
	return colorRecord{RGBA: [4]float64{c.R, c.G, c.B, c.A}}
}

func (c colorRecord) decode() scribble.RGBA {
	return scribble.RGBA{R: c.RGBA[0], G: c.RGBA[1], B: c.RGBA[2], A: c.RGBA[3]}
}

type scribbleRecord struct {
	Kind   string        `json:"kind"`
	Color  colorRecord   `json:"color"`
	Width  float64       `json:"width"`
	Points [][2]float64  `json:"points"`
	BBox   [2][2]float64 `json:"bbox"`
	Fill   *colorRecord  `json:"fill,omitempty"`
	Text   string        `json:"text,omitempty"`
	Font   string        `json:"font,omitempty"`
	Align  string        `json:"align,omitempty"`
	Image  *rasterRecord `json:"image,omitempty"`
}

// Encode writes st. Scribbles are only written when withScribbles is set;
// cached LaTeX renderings and empty text objects are never written.
func Encode(w io.Writer, st State, withScribbles bool) error {
	out := fileFormat{PageMap: map[string]int{}}
	for k, v := range st.PageMap {
		out.PageMap[strconv.Itoa(k)] = v
	}
	if withScribbles {
		out.Scribbles = map[string][]scribbleRecord{}
		for page, list := range st.Scribbles {
			recs := []scribbleRecord{}
			for _, s := range list {
				rec, ok := encodeScribble(s)
				if ok {
					recs = append(recs, rec)
				}
			}
			out.Scribbles[strconv.Itoa(page)] = recs
		}
	}
	return json.NewEncoder(w).Encode(out)
}

func encodeScribble(s scribble.Scribble) (scribbleRecord, bool) {
	b := s.Attrs()
	rec := scribbleRecord{
		Kind:   s.Kind().String(),
		Color:  encodeColor(b.Color),
		Width:  b.Width,
		Points: make([][2]float64, 0, len(b.Points)),
		BBox:   [2][2]float64{{b.Box.LLx, b.Box.LLy}, {b.Box.URx, b.Box.URy}},
	}
	for _, p := range b.Points {
		rec.Points = append(rec.Points, [2]float64{p.X, p.Y})
	}
	switch v := s.(type) {
	case *scribble.Shape:
		f := encodeColor(v.Fill)
		rec.Fill = &f
	case *scribble.Text:
		if v.Text == "" {
			return rec, false
		}
		rec.Text = v.Text
		rec.Font = formatFont(v.Font)
		rec.Align = v.Align.String()
	case *scribble.Latex:
		if v.Text == "" {
			return rec, false
		}
		rec.Text = v.Text
		rec.Font = formatFont(v.Font)
	case *scribble.Image:
		if v.Raster != nil {
			rec.Image = encodeRaster(v.Raster)
		}
	}
	return rec, true
}

// Decode parses a sidecar file.
func Decode(r io.Reader) (State, error) {
	var in fileFormat
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return State{}, fmt.Errorf("decode sidecar: %w", err)
	}
	st := State{PageMap: map[int]int{}}
	for k, v := range in.PageMap {
		n, err := parseKey(k)
		if err != nil {
			return State{}, err
		}
		st.PageMap[n] = v
	}
	if in.Scribbles != nil {
		st.Scribbles = map[int][]scribble.Scribble{}
		for k, recs := range in.Scribbles {
			n, err := parseKey(k)
			if err != nil {
				return State{}, err
			}
			var list []scribble.Scribble
			for _, rec := range recs {
				s, err := rec.decode()
				if err != nil {
					return State{}, fmt.Errorf("page %d: %w", n, err)
				}
				list = append(list, s)
			}
			st.Scribbles[n] = list
		}
	}
	return st, nil
}

// parseKey accepts "3" as well as "3.0", which older files contain.
func parseKey(k string) (int, error) {
	head, _, _ := strings.Cut(k, ".")
	n, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("bad page key %q: %w", k, err)
	}
	return n, nil
}

func (rec scribbleRecord) decode() (scribble.Scribble, error) {
	kind, ok := scribble.ParseKind(rec.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown scribble kind %q", rec.Kind)
	}
	base := scribble.Base{
		Color: rec.Color.decode(),
		Width: rec.Width,
		Box:   rect.Rect{LLx: rec.BBox[0][0], LLy: rec.BBox[0][1], URx: rec.BBox[1][0], URy: rec.BBox[1][1]},
	}
	for _, p := range rec.Points {
		base.Points = append(base.Points, vec.Vec2{X: p[0], Y: p[1]})
	}
	switch kind {
	case scribble.KindSegment:
		return &scribble.Segment{Base: base}, nil
	case scribble.KindBox, scribble.KindEllipse:
		sh := &scribble.Shape{Base: base, Ellipse: kind == scribble.KindEllipse}
		if rec.Fill != nil {
			sh.Fill = rec.Fill.decode()
		}
		return sh, nil
	case scribble.KindText:
		return &scribble.Text{Base: base, Text: rec.Text, Font: parseFont(rec.Font), Align: scribble.ParseAlign(rec.Align)}, nil
	case scribble.KindLatex:
		return &scribble.Latex{Base: base, Text: rec.Text, Font: parseFont(rec.Font)}, nil
	}
	img := &scribble.Image{Base: base}
	if rec.Image != nil {
		raster, err := rec.Image.decode()
		if err != nil {
			return nil, err
		}
		img.Raster = raster
	}
	return img, nil
}

func formatFont(f scribble.Font) string {
	if f.Family == "" && f.Size == 0 {
		return ""
	}
	return f.Family + " " + strconv.FormatFloat(f.Size, 'g', -1, 64)
}

func parseFont(s string) scribble.Font {
	i := strings.LastIndexByte(s, ' ')
	if i < 0 {
		return scribble.Font{Family: s}
	}
	size, err := strconv.ParseFloat(s[i+1:], 64)
	if err != nil {
		return scribble.Font{Family: s}
	}
	return scribble.Font{Family: s[:i], Size: size}
}

// Load reads the sidecar at path. A missing file yields an empty state
// and no error.
func Load(path string) (State, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	defer f.Close()
	st, err := Decode(f)
	if err != nil {
		return State{}, fmt.Errorf("%s: %w", path, err)
	}
	return st, nil
}

// Save writes st to path through a temporary file.
func Save(path string, st State, withScribbles bool) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Encode(f, st, withScribbles); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// SortedPages returns the keys of m in increasing order.
func SortedPages[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

type rasterRecord struct {
	Pixels string       `json:"pixels"`
	Params rasterParams `json:"params"`
}

// Limits on decoded rasters. Sidecars only hold screen sized stamps.
const (
	maxRasterSide  = 1 << 15
	maxRasterParam = 1 << 30
)

// rasterParams is [colorspace, hasAlpha, bitsPerSample, width, height,
// rowStride].
type rasterParams struct {
	Colorspace    int
	HasAlpha      bool
	BitsPerSample int
	Width         int
	Height        int
	RowStride     int
}

func (p rasterParams) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Colorspace, p.HasAlpha, p.BitsPerSample, p.Width, p.Height, p.RowStride})
}

func (p *rasterParams) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 6 {
		return fmt.Errorf("raster params: want 6 values, got %d", len(raw))
	}
	ints := make([]int, 6)
	for i, v := range raw {
		switch x := v.(type) {
		case float64:
			if x < -maxRasterParam || x > maxRasterParam {
				return fmt.Errorf("raster params: %g out of range", x)
			}
			ints[i] = int(x)
		case bool:
			if x {
				ints[i] = 1
			}
		default:
			return fmt.Errorf("raster params: unexpected %T", v)
		}
	}
	*p = rasterParams{
		Colorspace:    ints[0],
		HasAlpha:      ints[1] != 0,
		BitsPerSample: ints[2],
		Width:         ints[3],
		Height:        ints[4],
		RowStride:     ints[5],
	}
	return nil
}

func encodeRaster(img *image.NRGBA) *rasterRecord {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	pix := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		pix = append(pix, img.Pix[off:off+w*4]...)
	}
	return &rasterRecord{
		Pixels: base64.StdEncoding.EncodeToString(pix),
		Params: rasterParams{HasAlpha: true, BitsPerSample: 8, Width: w, Height: h, RowStride: w * 4},
	}
}

func (r *rasterRecord) decode() (*image.NRGBA, error) {
	data, err := base64.StdEncoding.DecodeString(r.Pixels)
	if err != nil {
		return nil, fmt.Errorf("raster pixels: %w", err)
	}
	p := r.Params
	if p.BitsPerSample != 8 || p.Width <= 0 || p.Height <= 0 || p.Width > maxRasterSide || p.Height > maxRasterSide {
		return nil, fmt.Errorf("unsupported raster %+v", p)
	}
	channels := 3
	if p.HasAlpha {
		channels = 4
	}
	rowLen := int64(p.Width) * int64(channels)
	stride := int64(p.RowStride)
	if stride < rowLen || stride > rowLen+maxRasterSide {
		return nil, fmt.Errorf("bad row stride in %+v", p)
	}
	if int64(len(data)) < stride*int64(p.Height-1)+rowLen {
		return nil, fmt.Errorf("raster data too short for %+v", p)
	}
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		row := data[y*p.RowStride:]
		for x := 0; x < p.Width; x++ {
			src := row[x*channels:]
			dst := img.Pix[img.PixOffset(x, y):]
			dst[0], dst[1], dst[2] = src[0], src[1], src[2]
			dst[3] = 255
			if p.HasAlpha {
				dst[3] = src[3]
			}
		}
	}
	return img, nil
}
