package main

import (
	"fmt"

	"github.com/example/lectern/internal/display"
)

// listMonitors is swapped out by tests.
var listMonitors = display.List

type monitorsCmd struct {
	*command
	content string
	console string
}

func parseMonitorsCmd(args []string, r *root) (*monitorsCmd, error) {
	c := &monitorsCmd{command: newCommand(r, "monitors", "", "List the monitors and where the content and presenter windows would go.")}
	c.fs.StringVar(&c.content, "content-monitor", "", "monitor selector for the content window")
	c.fs.StringVar(&c.console, "presenter-monitor", "", "monitor selector for the presenter console")
	if err := c.parse(args, 0, 0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *monitorsCmd) Run() error {
	monitors, err := listMonitors()
	if err != nil {
		return fmt.Errorf("monitors: %w", err)
	}
	for _, m := range monitors {
		fmt.Fprintln(c.stdout, m)
	}
	l, err := display.Place(monitors, c.content, c.console)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "content: #%d %s\n", l.Content.Index, l.Content.Name)
	fmt.Fprintf(c.stdout, "presenter: #%d %s\n", l.Presenter.Index, l.Presenter.Name)
	if l.Shared {
		fmt.Fprintln(c.stdout, "both windows share one monitor")
	}
	return nil
}
