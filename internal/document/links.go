package document

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// buildPage turns the raw page information into a logical page: link
// targets are resolved now, and media and attachments are located or
// extracted so that following them later cannot fail on the source.
func (d *Document) buildPage(index, phys int, info PageInfo) *Page {
	p := &Page{
		Index:    index,
		Physical: phys,
		Label:    info.Label,
		Width:    info.Width,
		Height:   info.Height,
	}
	for _, l := range info.Links {
		l.Action = d.resolve(l.Action)
		p.Links = append(p.Links, l)
	}
	for _, a := range info.Annotations {
		if a.Contents != "" && a.Kind != AnnotLink {
			p.Annotations = append(p.Annotations, a.Contents)
		}
		switch a.Kind {
		case AnnotLink, AnnotRendered, AnnotText, AnnotPopup, AnnotFreeText:
		case AnnotMovie:
			path := d.FullPath(a.File)
			if path == "" {
				log.Printf("page %d: movie file %q not found", phys+1, a.File)
				continue
			}
			d.addMedia(p, a, path)
		case AnnotScreen:
			if a.Action == nil {
				continue
			}
			path := d.renditionPath(a)
			if path == "" {
				continue
			}
			d.addMedia(p, a, path)
		case AnnotFileAttachment:
			path, err := d.extract(a.File, a.Data)
			if err != nil {
				log.Printf("page %d: attachment %q: %v", phys+1, a.File, err)
				continue
			}
			p.Links = append(p.Links, Link{Area: a.Area, Action: Action{Kind: ActionLaunch, File: path}})
		default:
			log.Printf("page %d: unsupported annotation %s", phys+1, a.Subtype)
		}
	}
	return p
}

// resolve replaces destinations by pages, and drops what cannot work.
func (d *Document) resolve(a Action) Action {
	switch a.Kind {
	case ActionGotoDest:
		if phys, ok := d.src.FindDest(a.Dest); ok {
			return Action{Kind: ActionGoto, Page: phys}
		}
		log.Printf("link to %q: unknown destination", a.Dest)
		return Action{Kind: ActionUnsupported, Reason: "destination " + a.Dest}
	case ActionNamed:
		if phys, ok := d.src.FindDest(a.Name); ok {
			return Action{Kind: ActionGoto, Page: phys}
		}
		if _, ok := namedActions[a.Name]; !ok {
			log.Printf("unsupported named action %q", a.Name)
			return Action{Kind: ActionUnsupported, Reason: "named action " + a.Name}
		}
	case ActionLaunch:
		path := d.FullPath(a.File)
		if path == "" {
			log.Printf("launch %q: file not found", a.File)
			return Action{Kind: ActionNone}
		}
		a.File = path
	case ActionUnsupported:
		log.Printf("unsupported link action: %s", a.Reason)
	}
	return a
}

func (d *Document) renditionPath(a Annotation) string {
	if len(a.Data) > 0 {
		path, err := d.extract(a.File, a.Data)
		if err != nil {
			log.Printf("rendition %q: %v", a.File, err)
			return ""
		}
		return path
	}
	path := d.FullPath(a.File)
	if path == "" {
		log.Printf("rendition %q: file not found", a.File)
	}
	return path
}

func (d *Document) addMedia(p *Page, a Annotation, path string) {
	d.mediaSeq++
	m := Media{
		ID: d.mediaSeq,
		Margins: Margins{
			Left:   a.Area.LLx / p.Width,
			Right:  1 - a.Area.URx/p.Width,
			Bottom: a.Area.LLy / p.Height,
			Top:    1 - a.Area.URy/p.Height,
		},
		Path:         path,
		ShowControls: a.ShowControls,
	}
	p.Media = append(p.Media, m)
	p.Links = append(p.Links, Link{Area: a.Area, Action: Action{Kind: ActionMedia, Media: &m}})
}

// extract writes embedded data to a temporary file named after name and
// registers it for removal.
func (d *Document) extract(name string, data []byte) (string, error) {
	if data == nil {
		return "", errors.New("no embedded data")
	}
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	f, err := os.CreateTemp("", "lectern-"+prefix+"-*"+ext)
	if err != nil {
		return "", err
	}
	d.RemoveOnExit(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", err
	}
	return f.Name(), f.Close()
}
