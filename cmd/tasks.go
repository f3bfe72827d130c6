package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/nibzard/tasklist-go/internal/config"
	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/tasklist"
)

// loadController builds a controller and performs the initial fetch.
func loadController(ctx context.Context, cws *config.ConfigWithSources, streams Streams) (*tasklist.Controller, error) {
	logger := newLogger(cws, streams.Err)
	ctrl, err := newController(cws.Config, logger)
	if err != nil {
		return nil, err
	}
	if err := tasklist.Drive(ctx, ctrl, ctrl.Start()); err != nil {
		return nil, fmt.Errorf("%s: %w", tasklist.MsgLoadFailed, err)
	}
	return ctrl, nil
}

func lsCommand(ctx context.Context, cws *config.ConfigWithSources, streams Streams, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	filterName := fs.String("filter", "all", "Which tasks to show: all, completed or incomplete")
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := task.ParseFilter(*filterName)
	if err != nil {
		return err
	}

	ctrl, err := loadController(ctx, cws, streams)
	if err != nil {
		return err
	}
	ctrl.SetFilter(filter)
	printTasks(streams.Out, ctrl.Visible())
	return nil
}

func addCommand(ctx context.Context, cws *config.ConfigWithSources, streams Streams, args []string) error {
	ctrl, err := loadController(ctx, cws, streams)
	if err != nil {
		return err
	}

	eff := ctrl.Submit(strings.Join(args, " "))
	if eff == nil {
		return errors.New(ctrl.FieldError())
	}
	err = tasklist.Drive(ctx, ctrl, eff)
	printNotifications(streams.Out, ctrl.TakeNotifications())
	if err != nil {
		return err
	}
	printTasks(streams.Out, ctrl.Visible())
	return nil
}

func toggleCommand(ctx context.Context, cws *config.ConfigWithSources, streams Streams, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: tasklist toggle <id>")
	}
	ctrl, err := loadController(ctx, cws, streams)
	if err != nil {
		return err
	}

	eff := ctrl.Toggle(args[0])
	if eff == nil {
		fmt.Fprintf(streams.Out, "No task with id %s\n", args[0])
		return nil
	}
	err = tasklist.Drive(ctx, ctrl, eff)
	printNotifications(streams.Out, ctrl.TakeNotifications())
	if err != nil {
		return err
	}
	printTasks(streams.Out, ctrl.Visible())
	return nil
}

func rmCommand(ctx context.Context, cws *config.ConfigWithSources, streams Streams, args []string) error {
	fs := flag.NewFlagSet("tasklist rm", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	fs.BoolVar(yes, "y", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: tasklist rm [-yes] <id>")
	}
	id := fs.Arg(0)

	ctrl, err := loadController(ctx, cws, streams)
	if err != nil {
		return err
	}

	confirm := promptConfirmer(streams)
	if *yes {
		confirm = tasklist.ConfirmFunc(func(string) bool { return true })
	}
	eff := ctrl.RequestDelete(id, confirm)
	if eff == nil {
		fmt.Fprintln(streams.Out, "Cancelled.")
		return nil
	}
	err = tasklist.Drive(ctx, ctrl, eff)
	printNotifications(streams.Out, ctrl.TakeNotifications())
	if err != nil {
		return err
	}
	printTasks(streams.Out, ctrl.Visible())
	return nil
}

// promptConfirmer asks on the output stream and reads a line from input.
// Anything but y or yes declines.
func promptConfirmer(streams Streams) tasklist.Confirmer {
	return tasklist.ConfirmFunc(func(question string) bool {
		fmt.Fprintf(streams.Out, "%s (y/n) ", question)
		line, err := bufio.NewReader(streams.In).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(streams.Out)
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	})
}

func printTasks(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "Add tasks now!")
		return
	}
	for _, t := range tasks {
		check := "[ ]"
		if t.IsCompleted {
			check = "[x]"
		}
		fmt.Fprintf(w, "%s %s  %s\n", check, t.ID, t.Task)
	}
}

func printNotifications(w io.Writer, notes []tasklist.Notification) {
	for _, n := range notes {
		if n.Err != nil {
			fmt.Fprintf(w, "%s: %v\n", n.Message, n.Err)
			continue
		}
		fmt.Fprintln(w, n.Message)
	}
}
