package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/lectern/internal/document"
	"github.com/example/lectern/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var currentTheme *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			currentTheme = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = name
				cfg.Themes[name] = currentTheme
			}
			continue
		}

		key, value, ok := splitLine(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case currentTheme != nil:
			err = theme.Set(currentTheme, key, value)
		case section == "":
			err = setRootField(cfg, key, value)
		case section == "scribble":
			err = setScribbleField(&cfg.Scribble, key, value)
		case section == "notes":
			err = setNotesField(&cfg.Notes, key, value)
		case section == "penpad":
			err = setPenpadField(&cfg.Penpad, key, value)
		case section == "latex":
			err = setLatexField(&cfg.Latex, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			where := "root section"
			if section != "" {
				where = "section [" + section + "]"
			}
			return nil, fmt.Errorf("line %d: error in %s: %w", lineNo, where, err)
		}
	}

	return cfg, scanner.Err()
}

// splitLine parses "key = value" or "key: value", removing quotes around
// the value.
func splitLine(line string) (string, string, bool) {
	i := strings.IndexAny(line, "=:")
	if i < 0 {
		return "", "", false
	}
	key := strings.ToLower(strings.TrimSpace(line[:i]))
	value := strings.TrimSpace(line[i+1:])
	if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
		value = value[1 : len(value)-1]
	}
	return key, value, true
}

func setRootField(cfg *Config, key, value string) error {
	switch key {
	case "highlight_mode":
		m, err := document.ParseHighlightMode(strings.ToLower(value))
		if err != nil {
			return err
		}
		cfg.HighlightMode = m
	case "theme":
		cfg.Theme = value
	case "export_dir":
		cfg.ExportDir = value
	}
	return nil
}

func setScribbleField(s *Scribble, key, value string) error {
	var err error
	switch key {
	case "color":
		s.Color, err = theme.ParseColor(value)
	case "fill_color":
		s.Fill, err = theme.ParseColor(value)
	case "width":
		s.Width, err = parsePositive(value)
	case "font":
		s.Font = value
	case "min_distance":
		s.MinDistance, err = strconv.ParseFloat(value, 64)
	case "coalesce_window":
		s.CoalesceWindow, err = time.ParseDuration(value)
	}
	if err != nil {
		return fmt.Errorf("invalid value for key %s: %w", key, err)
	}
	return nil
}

func parsePositive(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f <= 0 {
		return 0, fmt.Errorf("%g is not positive", f)
	}
	return f, nil
}

func setNotesField(n *Notes, key, value string) error {
	p, ok := document.ParsePart(strings.ToLower(value))
	switch key {
	case "horizontal":
		if !ok || (p != document.PartRight && p != document.PartLeft) {
			return fmt.Errorf("horizontal must be right or left, not %q", value)
		}
		n.Horizontal = p
	case "vertical":
		if !ok || (p != document.PartBottom && p != document.PartTop) {
			return fmt.Errorf("vertical must be bottom or top, not %q", value)
		}
		n.Vertical = p
	}
	return nil
}

func setPenpadField(p *Penpad, key, value string) error {
	var err error
	switch key {
	case "device":
		p.Device = value
	case "exchange_xy":
		p.ExchangeXY, err = strconv.ParseBool(value)
	case "mirror_x":
		p.MirrorX, err = strconv.ParseBool(value)
	case "mirror_y":
		p.MirrorY, err = strconv.ParseBool(value)
	case "max_x":
		p.MaxX, err = parseInt32(value)
	case "max_y":
		p.MaxY, err = parseInt32(value)
	}
	if err != nil {
		return fmt.Errorf("invalid value for key %s: %w", key, err)
	}
	return nil
}

func parseInt32(v string) (int32, error) {
	n, err := strconv.ParseInt(v, 10, 32)
	return int32(n), err
}

func setLatexField(l *Latex, key, value string) error {
	switch key {
	case "command":
		l.Command = value
	case "dvipng":
		l.Dvipng = value
	case "dpi":
		dpi, err := strconv.Atoi(value)
		if err != nil || dpi <= 0 {
			return fmt.Errorf("invalid dpi %q", value)
		}
		l.DPI = dpi
	}
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch key {
	case "save":
		n.Save = b
	case "export":
		n.Export = b
	case "copy":
		n.Copy = b
	case "reload":
		n.Reload = b
	}
	return nil
}
