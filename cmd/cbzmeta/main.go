package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/five82/cbzmeta/internal/app"
	"github.com/five82/cbzmeta/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := NewMain()
	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "cbzmeta: %v\n", err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// LogWriter overrides the log file. Set before calling Run().
	LogWriter io.Writer

	Env *app.Env
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.Env != nil {
		err := m.Env.Close()
		m.Env = nil
		return err
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("cbzmeta"),
		kong.Description("Edit the page metadata of comic book archives."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) { exited = true }),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	kongCtx, err := parser.Parse(args)
	if exited {
		// --help was printed.
		return nil
	}
	if err != nil {
		return err
	}

	deps.Options = app.Options{
		ConfigPath: cli.Config,
		PrefsPath:  cli.Prefs,
		LogWriter:  m.LogWriter,
	}

	switch command := strings.Fields(kongCtx.Command())[0]; command {
	case "edit":
		// The editor wires its own environment.
	case "logs":
		if deps.Config, err = config.Load(cli.Config); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	default:
		m.Env, err = app.Open(deps.Options)
		if err != nil {
			return err
		}
		defer m.Close()
		deps.Env = m.Env
		deps.Config = m.Env.Config
	}

	err = kongCtx.Run(deps)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
