package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/lectern/internal/document"
)

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Set at compile time if needed
	// Getenv reads the environment; nil means os.Getenv.
	Getenv func(string) string
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load reads the configuration file, if any, and applies LECTERN_*
// environment overrides on top.
func (l *Loader) Load() (*Config, error) {
	cfg := New()
	if path := l.GetConfigPath(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		cfg, err = Parse(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) getenv(key string) string {
	if l.Getenv != nil {
		return strings.TrimSpace(l.Getenv(key))
	}
	return strings.TrimSpace(os.Getenv(key))
}

func (l *Loader) applyEnv(cfg *Config) error {
	if v := l.getenv("LECTERN_HIGHLIGHT_MODE"); v != "" {
		m, err := document.ParseHighlightMode(strings.ToLower(v))
		if err != nil {
			return fmt.Errorf("LECTERN_HIGHLIGHT_MODE: %w", err)
		}
		cfg.HighlightMode = m
	}
	if v := l.getenv("LECTERN_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := l.getenv("LECTERN_EXPORT_DIR"); v != "" {
		cfg.ExportDir = v
	}
	if v := l.getenv("LECTERN_PENPAD_DEVICE"); v != "" {
		cfg.Penpad.Device = v
	}
	if v := l.getenv("LECTERN_LATEX"); v != "" {
		cfg.Latex.Command = v
	}
	if v := l.getenv("LECTERN_DVIPNG"); v != "" {
		cfg.Latex.Dvipng = v
	}
	return nil
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Variable override path
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	// 2. Local run directory (dev mode)
	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, ".lecternrc")
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	// 3. XDG config path, then the fallback name
	home, _ := os.UserHomeDir()
	for _, name := range []string{"config.rc", "lectern.rc"} {
		p := filepath.Join(home, ".config", "lectern", name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where Save writes when no file exists yet.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lectern", "config.rc")
}

// Save writes cfg to path, creating the directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(cfg.String()), 0o644)
}
