package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/five82/cbzmeta/internal/logtail"
)

// Run executes the logs command.
func (c *LogsCmd) Run(deps *Dependencies) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Level))); err != nil {
		return fmt.Errorf("--level %q: %w", c.Level, err)
	}

	path := c.File
	if path == "" {
		path = deps.Config.LogPath()
	}

	filter := logtail.Filter{MinLevel: level, Session: c.Session, Path: c.Path}
	entries, err := logtail.Read(path, c.Lines, filter.Match)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(deps.Stderr, "No log entries in %s\n", path)
		return nil
	}

	for _, e := range entries {
		if c.Raw {
			fmt.Fprintln(deps.Stdout, e.Raw)
		} else {
			fmt.Fprintln(deps.Stdout, logtail.Render(e))
		}
	}
	return nil
}
