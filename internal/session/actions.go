package session

import (
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strings"

	"golang.org/x/mobile/event/key"

	"github.com/example/lectern/internal/tool"
)

type navKey struct {
	Code      key.Code
	Modifiers key.Modifiers
}

func gotoNext(s *Session) error { s.Doc.GotoNext(false); return nil }
func gotoPrev(s *Session) error { s.Doc.GotoPrev(); return nil }

// navKeys are handled once the tool machine has declined a key.
var navKeys = map[navKey]func(*Session) error{
	{Code: key.CodePageDown}:                            gotoNext,
	{Code: key.CodeRightArrow}:                          gotoNext,
	{Code: key.CodeSpacebar}:                            gotoNext,
	{Code: key.CodeDownArrow}:                           gotoNext,
	{Code: key.CodePageUp}:                              gotoPrev,
	{Code: key.CodeLeftArrow}:                           gotoPrev,
	{Code: key.CodeUpArrow}:                             gotoPrev,
	{Code: key.CodeDeleteBackspace}:                     gotoPrev,
	{Code: key.CodeHome}:                                func(s *Session) error { s.Doc.GotoHome(); return nil },
	{Code: key.CodeEnd}:                                 func(s *Session) error { s.Doc.GotoEnd(); return nil },
	{Code: key.CodeRightArrow, Modifiers: key.ModShift}: func(s *Session) error { s.Doc.GotoNext(true); return nil },
	{Code: key.CodePageDown, Modifiers: key.ModControl}: func(s *Session) error { s.Doc.LabelNext(); return nil },
	{Code: key.CodePageUp, Modifiers: key.ModControl}:   func(s *Session) error { s.Doc.LabelPrev(); return nil },
	{Code: key.CodeLeftArrow, Modifiers: key.ModAlt}:    func(s *Session) error { s.Doc.HistPrev(); return nil },
	{Code: key.CodeRightArrow, Modifiers: key.ModAlt}:   func(s *Session) error { s.Doc.HistNext(); return nil },
	{Code: key.CodeH}:                                   toggleDrawing,
	{Code: key.CodeS, Modifiers: key.ModControl}:        func(s *Session) error { return s.Save() },
	{Code: key.CodeI, Modifiers: key.ModControl}:        func(s *Session) error { return s.InsertPage(s.Doc.Current() + 1) },
	{Code: key.CodeC, Modifiers: key.ModControl}:        func(s *Session) error { return s.CopySlide(1920) },
	{Code: key.CodeR, Modifiers: key.ModControl}:        func(s *Session) error { return s.Reload() },
	{Code: key.CodeQ}:                                   func(s *Session) error { s.Quit(); return nil },
	{Code: key.CodeQ, Modifiers: key.ModControl}:        func(s *Session) error { s.Quit(); return nil },
}

// toggleDrawing switches between presenting and the pen. The tool
// machine takes the same key while another tool is active and selects the
// pen instead, so from any tool two presses end drawing.
func toggleDrawing(s *Session) error {
	if s.Tool.State() == tool.None {
		s.Tool.SetState(tool.Draw)
	} else {
		s.Tool.SetState(tool.None)
	}
	return nil
}

// openExternal hands a URI or file to the desktop.
func openExternal(target string) {
	if strings.TrimSpace(target) == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("open %s: %v", target, err)
		return
	}
	go func() { _ = cmd.Wait() }()
}

func runXournalpp(command, xopp, pdf string) error {
	cmd := exec.Command(command, "--create-pdf="+pdf, xopp)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(string(out)))
	}
	return nil
}
