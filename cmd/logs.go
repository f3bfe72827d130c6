package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/logging"
)

func logsCommand(ctx context.Context, cfg *config.Config, streams Streams, args []string) error {
	fs := flag.NewFlagSet("tasklist logs", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	list := fs.Bool("list", false, "List session logs instead of showing one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	workDir := cfg.ProjectRoot
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		workDir = wd
	}

	logDir, err := logging.FindLogDir(cfg.LogDir, workDir)
	if err != nil {
		return fmt.Errorf("finding log directory: %w", err)
	}

	if *list {
		runs, err := logging.FindLogRuns(logDir)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(streams.Out, "No log files found.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(streams.Out, "%s  %s  %6d bytes\n", run.RunID, run.ModTime.Format("2006-01-02 15:04:05"), run.Size)
		}
		return nil
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(streams.Out, "No log files found.")
		return nil
	}

	fmt.Fprintf(streams.Out, "Tailing: %s\n", logPath)
	if *follow {
		fmt.Fprintln(streams.Out, "(Ctrl+C to stop)")
	}
	fmt.Fprintln(streams.Out)

	return logging.TailLog(ctx, streams.Out, logPath, *n, *follow)
}
