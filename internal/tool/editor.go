package tool

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/mobile/event/key"

	"github.com/example/lectern/internal/scribble"
)

// Editor is the text entry state for one text or LaTeX object. The cursor
// is a byte offset into the object's text.
type Editor struct {
	target scribble.Scribble
	pos    int
	// measurer re-lays out the target after every change.
	measurer scribble.Measurer
}

// Open starts editing s with the cursor at the end of its text.
func Open(s scribble.Scribble) (*Editor, error) {
	e := &Editor{target: s}
	switch v := s.(type) {
	case *scribble.Text:
		e.pos = len(v.Text)
	case *scribble.Latex:
		e.pos = len(v.Text)
	default:
		return nil, ErrNotTextTarget
	}
	return e, nil
}

// Target returns the object being edited.
func (e *Editor) Target() scribble.Scribble { return e.target }

// Cursor returns the byte offset of the insertion point.
func (e *Editor) Cursor() int { return e.pos }

func (e *Editor) text() string {
	switch v := e.target.(type) {
	case *scribble.Text:
		return v.Text
	case *scribble.Latex:
		return v.Text
	}
	return ""
}

func (e *Editor) setText(s string) {
	switch v := e.target.(type) {
	case *scribble.Text:
		v.Text = s
		v.Layout(e.measurer)
	case *scribble.Latex:
		v.Text = s
		v.Layout(e.measurer)
	}
}

// expands reports whether backslash shortcuts are replaced as they are
// typed. LaTeX objects keep their source verbatim.
func (e *Editor) expands() bool {
	_, ok := e.target.(*scribble.Text)
	return ok
}

// Key applies one key press. done reports that editing ended; consumed
// reports whether the key must not reach any other handler.
func (e *Editor) Key(ev key.Event) (consumed, done bool) {
	if ev.Direction == key.DirRelease {
		return true, false
	}
	ctrl := ev.Modifiers&key.ModControl != 0
	plain := ev.Modifiers&(key.ModControl|key.ModShift|key.ModAlt|key.ModMeta) == 0
	s := e.text()
	switch ev.Code {
	case key.CodeEscape:
		return true, true
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		if plain {
			return false, true
		}
		e.Insert("\n")
		return true, false
	case key.CodePageUp, key.CodePageDown:
		if plain {
			return false, true
		}
		return true, false
	case key.CodeHome:
		if ctrl {
			e.pos = 0
		} else {
			e.pos = lineStart(s, e.pos)
		}
		return true, false
	case key.CodeEnd:
		if ctrl {
			e.pos = len(s)
		} else {
			e.pos = lineEnd(s, e.pos)
		}
		return true, false
	case key.CodeLeftArrow:
		if ctrl {
			e.pos = wordLeft(s, e.pos)
		} else if e.pos > 0 {
			_, n := utf8.DecodeLastRuneInString(s[:e.pos])
			e.pos -= n
		}
		return true, false
	case key.CodeRightArrow:
		if ctrl {
			e.pos = wordRight(s, e.pos)
		} else if e.pos < len(s) {
			_, n := utf8.DecodeRuneInString(s[e.pos:])
			e.pos += n
		}
		return true, false
	case key.CodeDeleteBackspace:
		if e.pos > 0 {
			_, n := utf8.DecodeLastRuneInString(s[:e.pos])
			e.setText(s[:e.pos-n] + s[e.pos:])
			e.pos -= n
		}
		return true, false
	case key.CodeDeleteForward:
		if e.pos < len(s) {
			_, n := utf8.DecodeRuneInString(s[e.pos:])
			e.setText(s[:e.pos] + s[e.pos+n:])
		}
		return true, false
	}
	if ev.Rune > 0 && !ctrl && unicode.IsPrint(ev.Rune) {
		e.Insert(string(ev.Rune))
	}
	return true, false
}

// Insert adds str at the cursor and expands any shortcut it completes.
func (e *Editor) Insert(str string) {
	s := e.text()
	s = s[:e.pos] + str + s[e.pos:]
	e.pos += len(str)
	if e.expands() {
		s, e.pos = expand(s, e.pos)
	}
	e.setText(s)
}

// expand replaces the backslash command ending at pos, if any, and returns
// the new text and cursor.
func expand(s string, pos int) (string, int) {
	bs := strings.LastIndexByte(s[:pos], '\\')
	if bs < 0 {
		return s, pos
	}
	name := s[bs+1 : pos]
	if r, ok := codePoint(name); ok {
		rep := string(r)
		return s[:bs] + rep + s[pos:], bs + len(rep)
	}
	if rep, ok := shortcuts[name]; ok && !isPrefix(name) {
		return s[:bs] + rep + s[pos:], bs + len(rep)
	}
	// A terminator closes a command that is a prefix of a longer one.
	if last, n := utf8.DecodeLastRuneInString(name); n > 0 && !unicode.IsLetter(last) {
		if rep, ok := shortcuts[name[:len(name)-n]]; ok {
			return s[:bs] + rep + s[pos-n:], bs + len(rep) + n
		}
	}
	return s, pos
}

// codePoint parses "uXXXX" with exactly four hex digits.
func codePoint(name string) (rune, bool) {
	if len(name) != 5 || name[0] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(name[1:], 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

func lineStart(s string, pos int) int {
	return strings.LastIndexByte(s[:pos], '\n') + 1
}

func lineEnd(s string, pos int) int {
	if i := strings.IndexByte(s[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(s)
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// wordLeft moves to the start of the word before pos.
func wordLeft(s string, pos int) int {
	for pos > 0 {
		r, n := utf8.DecodeLastRuneInString(s[:pos])
		if isWord(r) {
			break
		}
		pos -= n
	}
	for pos > 0 {
		r, n := utf8.DecodeLastRuneInString(s[:pos])
		if !isWord(r) {
			break
		}
		pos -= n
	}
	return pos
}

// wordRight moves to the end of the word after pos.
func wordRight(s string, pos int) int {
	for pos < len(s) {
		r, n := utf8.DecodeRuneInString(s[pos:])
		if isWord(r) {
			break
		}
		pos += n
	}
	for pos < len(s) {
		r, n := utf8.DecodeRuneInString(s[pos:])
		if !isWord(r) {
			break
		}
		pos += n
	}
	return pos
}
