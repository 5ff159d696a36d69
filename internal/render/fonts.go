// Package render draws the scribble model over slide pages.
package render

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/lectern/internal/scribble"
)

// Fonts hands out drawing faces for text scribbles. Families containing
// "mono" use Go Mono, everything else Go Regular.
type Fonts struct {
	mu      sync.Mutex
	sources map[bool]*text.FontSource
	faces   map[faceKey]text.Face
}

type faceKey struct {
	mono bool
	size float64
}

// NewFonts returns an empty face cache.
func NewFonts() *Fonts {
	return &Fonts{sources: map[bool]*text.FontSource{}, faces: map[faceKey]text.Face{}}
}

func isMono(family string) bool {
	return strings.Contains(strings.ToLower(family), "mono")
}

// Face returns the face for family at size pixels.
func (f *Fonts) Face(family string, size float64) (text.Face, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := faceKey{mono: isMono(family), size: math.Round(size*4) / 4}
	if face, ok := f.faces[key]; ok {
		return face, nil
	}
	src, ok := f.sources[key.mono]
	if !ok {
		data := goregular.TTF
		if key.mono {
			data = gomono.TTF
		}
		var err error
		src, err = text.NewFontSource(data)
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		f.sources[key.mono] = src
	}
	face := src.Face(key.size)
	f.faces[key] = face
	return face, nil
}

var (
	parsedOnce sync.Once
	parsed     map[bool]*opentype.Font
	parseErr   error
	faceCache  sync.Map // map[faceKey]font.Face
)

func measureFace(family string, size float64) (font.Face, error) {
	parsedOnce.Do(func() {
		parsed = map[bool]*opentype.Font{}
		for mono, data := range map[bool][]byte{false: goregular.TTF, true: gomono.TTF} {
			f, err := opentype.Parse(data)
			if err != nil {
				parseErr = err
				return
			}
			parsed[mono] = f
		}
	})
	if parseErr != nil {
		return nil, parseErr
	}
	key := faceKey{mono: isMono(family), size: size}
	if face, ok := faceCache.Load(key); ok {
		return face.(font.Face), nil
	}
	face, err := opentype.NewFace(parsed[key.mono], &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	faceCache.Store(key, face)
	return face, nil
}

// Measurer computes text extents as fractions of a page of the given size.
// Font sizes are in the same units as the page size.
type Measurer struct {
	PageWidth, PageHeight float64
}

// MeasureText implements scribble.Measurer. Lines are separated by
// newlines; an empty line still takes its height.
func (m Measurer) MeasureText(s string, f scribble.Font) (w, h float64) {
	if m.PageWidth <= 0 || m.PageHeight <= 0 || f.Size <= 0 {
		return 0, 0
	}
	face, err := measureFace(f.Family, f.Size)
	if err != nil {
		return 0, 0
	}
	lines := strings.Split(s, "\n")
	var widest fixed.Int26_6
	for _, l := range lines {
		widest = max(widest, font.MeasureString(face, l))
	}
	lh := face.Metrics().Height
	w = fixedFloat(widest) / m.PageWidth
	h = fixedFloat(lh) * float64(len(lines)) / m.PageHeight
	return w, h
}

func fixedFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
