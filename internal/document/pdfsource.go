package document

import (
	"fmt"
	"image"
	"io"
	"log"
	"strconv"
	"strings"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
)

// PDFSource reads page structure from a PDF file: sizes, labels, links,
// annotations, named destinations and the outline. Pixels come from the
// external rasterizer.
type PDFSource struct {
	path   string
	r      *pdf.Reader
	pages  []pdf.Reference
	index  map[pdf.Reference]int
	labels []string
	dests  map[string]int
	raster *Pdftoppm
}

// OpenPDF opens the PDF file at path.
func OpenPDF(path string) (Source, error) {
	r, err := pdf.Open(path, nil)
	if err != nil {
		return nil, err
	}
	s := &PDFSource{path: path, r: r, index: map[pdf.Reference]int{}, raster: NewPdftoppm(path)}
	s.pages, err = pagetree.FindPages(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("page tree: %w", err)
	}
	for i, ref := range s.pages {
		s.index[ref] = i
	}
	cat := r.GetMeta().Catalog
	s.labels = s.readLabels(cat.PageLabels)
	s.dests = s.readDests(cat.Dests, cat.Names)
	return s, nil
}

// NumPages implements Source.
func (s *PDFSource) NumPages() int { return len(s.pages) }

// Label implements Source.
func (s *PDFSource) Label(physical int) string {
	if physical < 0 || physical >= len(s.labels) {
		return ""
	}
	return s.labels[physical]
}

// Close implements Source.
func (s *PDFSource) Close() error { return s.r.Close() }

// Rasterize implements Rasterizer.
func (s *PDFSource) Rasterize(physical int, dst *image.RGBA) error {
	return s.raster.Rasterize(physical, dst)
}

// FindDest implements Source.
func (s *PDFSource) FindDest(name string) (int, bool) {
	p, ok := s.dests[name]
	return p, ok
}

// inherited looks a page attribute up the page tree.
func (s *PDFSource) inherited(page pdf.Dict, key pdf.Name) pdf.Object {
	d := page
	for depth := 0; d != nil && depth < 64; depth++ {
		if v, ok := d[key]; ok {
			return v
		}
		parent, err := pdf.GetDict(s.r, d["Parent"])
		if err != nil {
			return nil
		}
		d = parent
	}
	return nil
}

// PageInfo implements Source.
func (s *PDFSource) PageInfo(physical int) (PageInfo, error) {
	if physical < 0 || physical >= len(s.pages) {
		return PageInfo{}, fmt.Errorf("page %d: %w", physical, ErrPageRange)
	}
	page, err := pdf.GetDict(s.r, s.pages[physical])
	if err != nil {
		return PageInfo{}, err
	}
	box, err := pdf.GetRectangle(s.r, s.inherited(page, "CropBox"))
	if err != nil || box == nil {
		box, err = pdf.GetRectangle(s.r, s.inherited(page, "MediaBox"))
		if err != nil {
			return PageInfo{}, fmt.Errorf("media box: %w", err)
		}
	}
	if box == nil {
		box = &pdf.Rectangle{URx: 612, URy: 792}
	}
	info := PageInfo{
		Width:  box.URx - box.LLx,
		Height: box.URy - box.LLy,
		Label:  s.Label(physical),
	}
	if rot, err := pdf.GetInteger(s.r, s.inherited(page, "Rotate")); err == nil && (rot/90)%2 != 0 {
		info.Width, info.Height = info.Height, info.Width
	}

	annots, err := pdf.GetArray(s.r, page["Annots"])
	if err != nil {
		log.Printf("page %d annotations: %v", physical+1, err)
		return info, nil
	}
	for _, obj := range annots {
		dict, err := pdf.GetDict(s.r, obj)
		if err != nil || dict == nil {
			continue
		}
		s.readAnnot(&info, dict, box)
	}
	return info, nil
}

func (s *PDFSource) area(obj pdf.Object, box *pdf.Rectangle) rect.Rect {
	r, err := pdf.GetRectangle(s.r, obj)
	if err != nil || r == nil {
		return rect.Rect{}
	}
	return rect.Rect{LLx: r.LLx - box.LLx, LLy: r.LLy - box.LLy, URx: r.URx - box.LLx, URy: r.URy - box.LLy}
}

func (s *PDFSource) text(obj pdf.Object) string {
	str, err := pdf.GetString(s.r, obj)
	if err != nil {
		return ""
	}
	return string(str.AsTextString())
}

var renderedAnnots = map[pdf.Name]bool{
	"Highlight": true, "Underline": true, "Squiggly": true, "StrikeOut": true,
	"Square": true, "Circle": true, "Line": true, "Polygon": true, "PolyLine": true,
	"Ink": true, "Stamp": true, "Caret": true, "Widget": true, "Watermark": true,
}

func (s *PDFSource) readAnnot(info *PageInfo, dict pdf.Dict, box *pdf.Rectangle) {
	sub, _ := pdf.GetName(s.r, dict["Subtype"])
	a := Annotation{
		Subtype:  string(sub),
		Area:     s.area(dict["Rect"], box),
		Contents: s.text(dict["Contents"]),
	}
	switch {
	case sub == "Link":
		a.Kind = AnnotLink
		info.Links = append(info.Links, Link{Area: a.Area, Action: s.linkAction(dict)})
	case sub == "Text":
		a.Kind = AnnotText
	case sub == "Popup":
		a.Kind = AnnotPopup
	case sub == "FreeText":
		a.Kind = AnnotFreeText
	case sub == "Movie":
		a.Kind = AnnotMovie
		if movie, err := pdf.GetDict(s.r, dict["Movie"]); err == nil && movie != nil {
			a.File, _ = s.fileSpec(movie["F"])
		}
		a.ShowControls = s.showControls(dict["A"])
	case sub == "Screen":
		a.Kind = AnnotScreen
		if act, err := pdf.GetDict(s.r, dict["A"]); err == nil && act != nil {
			if s.rendition(&a, act) {
				a.Action = &Action{Kind: ActionMedia}
			}
		}
	case sub == "FileAttachment":
		a.Kind = AnnotFileAttachment
		a.File, a.Data = s.fileSpec(dict["FS"])
	case renderedAnnots[sub]:
		a.Kind = AnnotRendered
	}
	info.Annotations = append(info.Annotations, a)
}

func (s *PDFSource) showControls(obj pdf.Object) bool {
	o, err := pdf.Resolve(s.r, obj)
	if err != nil {
		return false
	}
	switch v := o.(type) {
	case pdf.Boolean:
		return bool(v)
	case pdf.Dict:
		b, err := pdf.GetBoolean(s.r, v["ShowControls"])
		return err == nil && bool(b)
	}
	return false
}

// rendition fills the media clip of a Rendition action into a.
func (s *PDFSource) rendition(a *Annotation, act pdf.Dict) bool {
	if kind, _ := pdf.GetName(s.r, act["S"]); kind != "Rendition" {
		return false
	}
	r, err := pdf.GetDict(s.r, act["R"])
	if err != nil || r == nil {
		return false
	}
	clip, err := pdf.GetDict(s.r, r["C"])
	if err != nil || clip == nil {
		return false
	}
	a.File, a.Data = s.fileSpec(clip["D"])
	if p, err := pdf.GetDict(s.r, r["P"]); err == nil && p != nil {
		if be, err := pdf.GetDict(s.r, p["BE"]); err == nil && be != nil {
			b, err := pdf.GetBoolean(s.r, be["C"])
			a.ShowControls = err == nil && bool(b)
		}
	}
	return a.File != ""
}

// fileSpec returns the file name of a file specification and the
// contents of its embedded file stream, if any.
func (s *PDFSource) fileSpec(obj pdf.Object) (string, []byte) {
	o, err := pdf.Resolve(s.r, obj)
	if err != nil {
		return "", nil
	}
	switch v := o.(type) {
	case pdf.String:
		return string(v.AsTextString()), nil
	case pdf.Dict:
		name := s.text(v["UF"])
		if name == "" {
			name = s.text(v["F"])
		}
		ef, err := pdf.GetDict(s.r, v["EF"])
		if err != nil || ef == nil {
			return name, nil
		}
		stm, err := pdf.GetStream(s.r, ef["F"])
		if err != nil || stm == nil {
			return name, nil
		}
		body, err := pdf.DecodeStream(s.r, stm, 0)
		if err != nil {
			log.Printf("embedded file %q: %v", name, err)
			return name, nil
		}
		data, err := io.ReadAll(body)
		if err != nil {
			log.Printf("embedded file %q: %v", name, err)
			return name, nil
		}
		return name, data
	}
	return "", nil
}

func (s *PDFSource) linkAction(dict pdf.Dict) Action {
	if dest, ok := dict["Dest"]; ok {
		return s.destAction(dest)
	}
	act, err := pdf.GetDict(s.r, dict["A"])
	if err != nil || act == nil {
		return Action{Kind: ActionNone}
	}
	kind, _ := pdf.GetName(s.r, act["S"])
	switch kind {
	case "GoTo":
		return s.destAction(act["D"])
	case "Named":
		n, _ := pdf.GetName(s.r, act["N"])
		return Action{Kind: ActionNamed, Name: string(n)}
	case "Launch":
		f, _ := s.fileSpec(act["F"])
		return Action{Kind: ActionLaunch, File: f}
	case "URI":
		u, err := pdf.GetString(s.r, act["URI"])
		if err != nil {
			return Action{Kind: ActionUnsupported, Reason: "malformed URI action"}
		}
		return Action{Kind: ActionURI, URI: string(u)}
	case "Rendition":
		var a Annotation
		if s.rendition(&a, act) {
			return Action{Kind: ActionMedia, Media: &Media{Path: a.File, ShowControls: a.ShowControls}}
		}
	}
	return Action{Kind: ActionUnsupported, Reason: string(kind)}
}

func (s *PDFSource) destAction(obj pdf.Object) Action {
	o, err := pdf.Resolve(s.r, obj)
	if err != nil {
		return Action{Kind: ActionUnsupported, Reason: err.Error()}
	}
	switch v := o.(type) {
	case pdf.Name:
		return Action{Kind: ActionGotoDest, Dest: string(v)}
	case pdf.String:
		return Action{Kind: ActionGotoDest, Dest: string(v.AsTextString())}
	}
	if p, ok := s.destPage(o); ok {
		return Action{Kind: ActionGoto, Page: p}
	}
	return Action{Kind: ActionUnsupported, Reason: "unknown destination"}
}

// destPage reads the page of an explicit destination, either an array or a
// dictionary with a D entry.
func (s *PDFSource) destPage(obj pdf.Object) (int, bool) {
	o, err := pdf.Resolve(s.r, obj)
	if err != nil {
		return 0, false
	}
	if d, ok := o.(pdf.Dict); ok {
		o, err = pdf.Resolve(s.r, d["D"])
		if err != nil {
			return 0, false
		}
	}
	arr, ok := o.(pdf.Array)
	if !ok || len(arr) == 0 {
		return 0, false
	}
	switch p := arr[0].(type) {
	case pdf.Reference:
		i, ok := s.index[p]
		return i, ok
	case pdf.Integer:
		if int(p) >= 0 && int(p) < len(s.pages) {
			return int(p), true
		}
	}
	return 0, false
}

// readDests collects the old-style /Dests dictionary and the /Dests name
// tree of the /Names dictionary.
func (s *PDFSource) readDests(old, names pdf.Object) map[string]int {
	dests := map[string]int{}
	if d, err := pdf.GetDict(s.r, old); err == nil {
		for k, v := range d {
			if p, ok := s.destPage(v); ok {
				dests[string(k)] = p
			}
		}
	}
	nd, err := pdf.GetDict(s.r, names)
	if err != nil || nd == nil {
		return dests
	}
	s.walkNameTree(nd["Dests"], 0, func(key string, v pdf.Object) {
		if p, ok := s.destPage(v); ok {
			dests[key] = p
		}
	})
	return dests
}

func (s *PDFSource) walkNameTree(obj pdf.Object, depth int, fn func(string, pdf.Object)) {
	node, err := pdf.GetDict(s.r, obj)
	if err != nil || node == nil || depth > 32 {
		return
	}
	if kv, err := pdf.GetArray(s.r, node["Names"]); err == nil {
		for i := 0; i+1 < len(kv); i += 2 {
			key, err := pdf.GetString(s.r, kv[i])
			if err != nil {
				continue
			}
			fn(string(key.AsTextString()), kv[i+1])
		}
	}
	kids, _ := pdf.GetArray(s.r, node["Kids"])
	for _, k := range kids {
		s.walkNameTree(k, depth+1, fn)
	}
}

type labelRange struct {
	start  int
	style  pdf.Name
	prefix string
	first  int
}

// readLabels evaluates the /PageLabels number tree for every page.
// Without one, pages are labelled by their number.
func (s *PDFSource) readLabels(tree pdf.Object) []string {
	var ranges []labelRange
	s.walkNumberTree(tree, 0, func(k int, v pdf.Object) {
		d, err := pdf.GetDict(s.r, v)
		if err != nil || d == nil {
			return
		}
		lr := labelRange{start: k, first: 1}
		lr.style, _ = pdf.GetName(s.r, d["S"])
		lr.prefix = s.text(d["P"])
		if st, err := pdf.GetInteger(s.r, d["St"]); err == nil && st > 0 {
			lr.first = int(st)
		}
		ranges = append(ranges, lr)
	})

	labels := make([]string, len(s.pages))
	for i := range labels {
		labels[i] = strconv.Itoa(i + 1)
	}
	if len(ranges) == 0 {
		return labels
	}
	for i := range labels {
		var cur *labelRange
		for j := range ranges {
			if ranges[j].start <= i && (cur == nil || ranges[j].start > cur.start) {
				cur = &ranges[j]
			}
		}
		if cur == nil {
			continue
		}
		labels[i] = cur.prefix + formatLabel(cur.style, cur.first+i-cur.start)
	}
	return labels
}

func (s *PDFSource) walkNumberTree(obj pdf.Object, depth int, fn func(int, pdf.Object)) {
	node, err := pdf.GetDict(s.r, obj)
	if err != nil || node == nil || depth > 32 {
		return
	}
	if kv, err := pdf.GetArray(s.r, node["Nums"]); err == nil {
		for i := 0; i+1 < len(kv); i += 2 {
			key, err := pdf.GetInteger(s.r, kv[i])
			if err != nil {
				continue
			}
			fn(int(key), kv[i+1])
		}
	}
	kids, _ := pdf.GetArray(s.r, node["Kids"])
	for _, k := range kids {
		s.walkNumberTree(k, depth+1, fn)
	}
}

func formatLabel(style pdf.Name, n int) string {
	switch style {
	case "D":
		return strconv.Itoa(n)
	case "R":
		return roman(n)
	case "r":
		return strings.ToLower(roman(n))
	case "A":
		return letters(n)
	case "a":
		return strings.ToLower(letters(n))
	}
	return ""
}

func roman(n int) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	vals := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	syms := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}

// letters numbers pages A..Z, then AA..ZZ, and so on.
func letters(n int) string {
	if n <= 0 {
		return strconv.Itoa(n)
	}
	return strings.Repeat(string(rune('A'+(n-1)%26)), (n-1)/26+1)
}

// Outline implements Source.
func (s *PDFSource) Outline() ([]OutlineItem, error) {
	var none pdf.Reference
	cat := s.r.GetMeta().Catalog
	if cat.Outlines == none {
		return nil, nil
	}
	root, err := pdf.GetDict(s.r, cat.Outlines)
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	if root == nil {
		return nil, nil
	}
	return s.outlineLevel(root["First"], map[pdf.Reference]bool{}), nil
}

func (s *PDFSource) outlineLevel(first pdf.Object, seen map[pdf.Reference]bool) []OutlineItem {
	var out []OutlineItem
	for obj := first; obj != nil; {
		ref, ok := obj.(pdf.Reference)
		if ok {
			if seen[ref] {
				break
			}
			seen[ref] = true
		}
		node, err := pdf.GetDict(s.r, obj)
		if err != nil || node == nil {
			break
		}
		item := OutlineItem{Title: s.text(node["Title"]), Page: -1}
		var act Action
		if dest, ok := node["Dest"]; ok {
			act = s.destAction(dest)
		} else {
			act = s.linkAction(pdf.Dict{"A": node["A"]})
		}
		switch act.Kind {
		case ActionGoto:
			item.Page = act.Page
		case ActionGotoDest:
			if p, ok := s.dests[act.Dest]; ok {
				item.Page = p
			}
		}
		if item.Page < 0 {
			log.Printf("outline entry %q: unresolved destination", item.Title)
		}
		item.Children = s.outlineLevel(node["First"], seen)
		out = append(out, item)
		obj = node["Next"]
	}
	return out
}
