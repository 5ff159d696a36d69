package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/example/lectern/internal/config"
)

type configCmd struct {
	*command
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	c := &configCmd{command: newCommand(r, "config", "print|save", "Print or save the configuration.")}
	c.fs.Usage = usageFunc(c)
	if err := c.parse(args, 1, 1); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			return nil, &UsageError{of: c}
		}
		return nil, err
	}
	return c, nil
}

func (c *configCmd) Template() string {
	return "config.txt"
}

func (c *configCmd) Run() error {
	switch sub := c.fs.Arg(0); sub {
	case "print":
		return c.runPrint()
	case "save":
		return c.runSave()
	default:
		return &UsageError{of: c}
	}
}

func (c *configCmd) runPrint() error {
	fmt.Fprint(c.stdout, c.cfg().String())
	return nil
}

func (c *configCmd) runSave() error {
	// Save over the file in use, or create the default one
	loader := config.NewLoader(version, configPathOverride)
	path := loader.GetConfigPath()
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(path, c.cfg()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Configuration saved to %s\n", path)
	return nil
}
