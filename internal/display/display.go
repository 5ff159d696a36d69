// Package display finds the monitors the content and presenter windows
// are placed on.
package display

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

// Monitor describes one output in the desktop layout.
type Monitor struct {
	Index   int
	Name    string
	Rect    image.Rectangle
	Primary bool
}

func (m Monitor) String() string {
	s := fmt.Sprintf("#%d %s %dx%d+%d+%d", m.Index, m.Name, m.Rect.Dx(), m.Rect.Dy(), m.Rect.Min.X, m.Rect.Min.Y)
	if m.Primary {
		s += " primary"
	}
	return s
}

var errNoMonitors = errors.New("no monitors available")

// Find resolves a monitor selector: empty for the first monitor,
// "primary", an index with an optional leading '#', or part of the
// output name.
func Find(monitors []Monitor, selector string) (Monitor, error) {
	if len(monitors) == 0 {
		return Monitor{}, errNoMonitors
	}
	sel := strings.ToLower(strings.TrimSpace(selector))
	if sel == "" {
		return monitors[0], nil
	}
	if sel == "primary" {
		return primary(monitors), nil
	}
	if idx, err := strconv.Atoi(strings.TrimPrefix(sel, "#")); err == nil {
		if idx < 0 || idx >= len(monitors) {
			return Monitor{}, fmt.Errorf("monitor index %d out of range", idx)
		}
		return monitors[idx], nil
	}
	for _, mon := range monitors {
		if strings.Contains(strings.ToLower(mon.Name), sel) {
			return mon, nil
		}
	}
	return Monitor{}, fmt.Errorf("monitor %q not found", selector)
}

func primary(monitors []Monitor) Monitor {
	for _, mon := range monitors {
		if mon.Primary {
			return mon
		}
	}
	return monitors[0]
}

// Layout is where each window goes.
type Layout struct {
	Content   Monitor
	Presenter Monitor
	// Shared is set when both windows had to go on the same monitor.
	Shared bool
}

// Place picks monitors for the two windows. Empty selectors put the
// presenter on the primary monitor and the content on the first other
// one. With a single monitor both windows share it.
func Place(monitors []Monitor, content, presenter string) (Layout, error) {
	if len(monitors) == 0 {
		return Layout{}, errNoMonitors
	}
	var l Layout
	var err error
	if presenter != "" {
		if l.Presenter, err = Find(monitors, presenter); err != nil {
			return Layout{}, fmt.Errorf("presenter: %w", err)
		}
	} else {
		l.Presenter = primary(monitors)
	}
	if content != "" {
		if l.Content, err = Find(monitors, content); err != nil {
			return Layout{}, fmt.Errorf("content: %w", err)
		}
	} else {
		l.Content = l.Presenter
		for _, mon := range monitors {
			if mon.Index != l.Presenter.Index {
				l.Content = mon
				break
			}
		}
	}
	l.Shared = l.Content.Index == l.Presenter.Index
	return l, nil
}

// Swap exchanges the two windows.
func (l Layout) Swap() Layout {
	l.Content, l.Presenter = l.Presenter, l.Content
	return l
}
