// Package cmd implements the CLI command structure for tasklist.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/remote"
	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/tasklist"
	"github.com/nibzard/tasklist-go/internal/ui"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Streams are the standard streams a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes the tasklist CLI on the process streams.
func Run(ctx context.Context, args []string) error {
	return RunWithIO(ctx, args, Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// RunWithIO executes the tasklist CLI on the given streams.
func RunWithIO(ctx context.Context, args []string, streams Streams) error {
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	fs.Usage = func() {
		printUsage(fs, streams.Err)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := cws.Config
	if *help {
		printUsage(fs, streams.Out)
		return nil
	}
	if *showVersion {
		return versionCommand(streams.Out)
	}

	subcommand := "tui"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "tui":
		return tuiCommand(ctx, cws, remainingArgs)
	case "ls", "list":
		return lsCommand(ctx, cws, streams, remainingArgs)
	case "add":
		return addCommand(ctx, cws, streams, remainingArgs)
	case "toggle":
		return toggleCommand(ctx, cws, streams, remainingArgs)
	case "rm", "delete":
		return rmCommand(ctx, cws, streams, remainingArgs)
	case "serve":
		return serveCommand(ctx, cws, streams, remainingArgs)
	case "config":
		return configCommand(cws, streams, remainingArgs)
	case "logs":
		return logsCommand(ctx, cfg, streams, remainingArgs)
	case "version":
		return versionCommand(streams.Out)
	case "help":
		printUsage(fs, streams.Out)
		return nil
	default:
		fmt.Fprintf(streams.Err, "Unknown command: %s\n", subcommand)
		printUsage(fs, streams.Err)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

// newLogger builds the console logger for one-shot commands and reports
// config warnings through it.
func newLogger(cws *config.ConfigWithSources, w io.Writer) *log.Logger {
	cfg := cws.Config
	logger := logging.NewFromConfig(w, cfg.LogLevel, cfg.LogFormat, cfg.LogTimestamps, cfg.LogCaller)
	for _, warning := range cws.Warnings {
		logger.Warn(warning)
	}
	return logger
}

// newController wires the remote client, schema and cache together.
func newController(cfg *config.Config, logger *log.Logger) (*tasklist.Controller, error) {
	client, err := remote.New(remote.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	schema, warnings := task.LoadSchema(cfg.SchemaFile)
	for _, warning := range warnings {
		logger.Warn(warning)
	}
	logger.Debug("Controller ready", "base_url", client.BaseURL(), "schema", schema.Source())
	return tasklist.New(client, tasklist.NewCache(),
		tasklist.WithLogger(logger),
		tasklist.WithSchema(schema),
	), nil
}

// tuiCommand launches the interactive view. Logs go to a per-run file so
// they do not corrupt the screen.
func tuiCommand(ctx context.Context, cws *config.ConfigWithSources, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	cfg := cws.Config

	runLog, err := logging.NewRunLogger(cfg.LogDir, cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("creating run log: %w", err)
	}
	defer runLog.Close()

	logger := newLogger(cws, runLog.Writer())
	logger.Info("Session started", "run_id", runLog.RunID, "version", Version)

	ctrl, err := newController(cfg, logger)
	if err != nil {
		return err
	}
	return ui.RunTUI(ctx, ctrl, ui.Options{NotifyFor: cfg.NotifyDuration()})
}

func versionCommand(w io.Writer) error {
	fmt.Fprintf(w, "tasklist %s\n", Version)
	return nil
}

// configCommand prints the effective configuration and where each value came from.
func configCommand(cws *config.ConfigWithSources, streams Streams, args []string) error {
	fs := flag.NewFlagSet("tasklist config", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	example := fs.Bool("example", false, "Print an example config file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *example {
		fmt.Fprint(streams.Out, config.ExampleConfig())
		return nil
	}

	for _, e := range cws.Entries() {
		value := e.Value
		if value == "" {
			value = `""`
		}
		fmt.Fprintf(streams.Out, "%-16s %-60s (%s)\n", e.Name, value, e.Source)
	}
	if len(cws.Files) > 0 {
		fmt.Fprintln(streams.Out)
		fmt.Fprintf(streams.Out, "Config files: %s\n", strings.Join(cws.Files, ", "))
	}
	for _, warning := range cws.Warnings {
		fmt.Fprintf(streams.Out, "Warning: %s\n", warning)
	}
	return nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasklist - a terminal todo list backed by a REST collection")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [global options] [command] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  tui                 Interactive view (default command)")
	fmt.Fprintln(w, "  ls [-filter F]      List tasks, newest first (all|completed|incomplete)")
	fmt.Fprintln(w, "  add <description>   Add a task")
	fmt.Fprintln(w, "  toggle <id>         Flip a task between completed and incomplete")
	fmt.Fprintln(w, "  rm [-yes] <id>      Delete a task after confirmation")
	fmt.Fprintln(w, "  serve [-addr A]     Run a local task collection server")
	fmt.Fprintln(w, "  config [-example]   Show the effective configuration")
	fmt.Fprintln(w, "  logs [-n N] [-f]    Show the latest interactive session log")
	fmt.Fprintln(w, "  version             Show version information")
	fmt.Fprintln(w, "  help                Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
