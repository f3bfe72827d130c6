// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/mockapi"
	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/tasklist"
)

var envKeys = []string{
	"TASKLIST_BASE_URL",
	"TASKLIST_TIMEOUT",
	"TASKLIST_SCHEMA",
	"TASKLIST_NOTIFY_SECONDS",
	"TASKLIST_LOG_DIR",
	"TASKLIST_LOG_LEVEL",
	"TASKLIST_LOG_FORMAT",
	"TASKLIST_LOG_TIMESTAMPS",
	"TASKLIST_LOG_CALLER",
	"TASKLIST_SERVER_ADDR",
	"TASKLIST_SERVER_DB",
}

// isolate keeps user and project config out of the test and returns the
// working directory.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	chdirPrev, chdirErr := os.Getwd()
	if chdirErr != nil {
		t.Fatal(chdirErr)
	}
	if chdirErr := os.Chdir(t.TempDir()); chdirErr != nil {
		t.Fatal(chdirErr)
	}
	t.Cleanup(func() { _ = os.Chdir(chdirPrev) })
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return wd
}

type result struct {
	out string
	err string
}

func run(t *testing.T, stdin string, args ...string) (result, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := RunWithIO(context.Background(), args, Streams{
		In:  strings.NewReader(stdin),
		Out: &out,
		Err: &errOut,
	})
	return result{out: out.String(), err: errOut.String()}, err
}

// collection starts a task collection server seeded with tasks and returns
// its store and URL.
func collection(t *testing.T, seed ...task.Task) (*mockapi.MemoryStore, string) {
	t.Helper()
	store := mockapi.NewMemoryStore(seed...)
	srv := httptest.NewServer(mockapi.NewServer(store))
	t.Cleanup(srv.Close)
	return store, srv.URL + mockapi.CollectionPath
}

func seedTasks() []task.Task {
	return []task.Task{
		{ID: "1", Task: "Buy milk"},
		{ID: "2", Task: "Walk dog", IsCompleted: true},
	}
}

func TestRun(t *testing.T) {
	isolate(t)

	t.Run("shows help with --help flag", func(t *testing.T) {
		res, err := run(t, "", "--help")
		if err != nil {
			t.Fatalf("expected no error with --help, got %v", err)
		}
		if !strings.Contains(res.out, "Commands:") {
			t.Errorf("expected usage on stdout, got %q", res.out)
		}
	})

	t.Run("shows help with help command", func(t *testing.T) {
		res, err := run(t, "", "help")
		if err != nil {
			t.Fatalf("expected no error with help command, got %v", err)
		}
		if !strings.Contains(res.out, "-base-url") {
			t.Errorf("expected global options in usage, got %q", res.out)
		}
	})

	t.Run("shows version with -v flag", func(t *testing.T) {
		res, err := run(t, "", "-v")
		if err != nil {
			t.Fatalf("expected no error with -v, got %v", err)
		}
		if res.out != "tasklist dev\n" {
			t.Errorf("expected version line, got %q", res.out)
		}
	})

	t.Run("version command", func(t *testing.T) {
		res, err := run(t, "", "version")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, Version) {
			t.Errorf("expected %q in output, got %q", Version, res.out)
		}
	})

	t.Run("unknown command returns error", func(t *testing.T) {
		res, err := run(t, "", "unknown-command")
		if err == nil {
			t.Fatal("expected error for unknown command, got nil")
		}
		if !strings.Contains(err.Error(), "unknown command") {
			t.Errorf("expected 'unknown command' error, got %v", err)
		}
		if !strings.Contains(res.err, "Usage:") {
			t.Errorf("expected usage on stderr, got %q", res.err)
		}
	})

	t.Run("invalid config is reported", func(t *testing.T) {
		_, err := run(t, "", "--base-url", "ftp://example.com", "ls")
		if err == nil || !strings.Contains(err.Error(), "loading config") {
			t.Errorf("expected config error, got %v", err)
		}
	})
}

func TestLsCommand(t *testing.T) {
	isolate(t)
	_, url := collection(t, seedTasks()...)

	t.Run("lists newest first", func(t *testing.T) {
		res, err := run(t, "", "--base-url", url, "ls")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		expected := "[x] 2  Walk dog\n[ ] 1  Buy milk\n"
		if res.out != expected {
			t.Errorf("expected %q, got %q", expected, res.out)
		}
	})

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			filter   string
			expected string
		}{
			{"completed", "[x] 2  Walk dog\n"},
			{"incomplete", "[ ] 1  Buy milk\n"},
			{"all", "[x] 2  Walk dog\n[ ] 1  Buy milk\n"},
		}
		for _, tt := range tests {
			t.Run(tt.filter, func(t *testing.T) {
				res, err := run(t, "", "--base-url", url, "ls", "-filter", tt.filter)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if res.out != tt.expected {
					t.Errorf("expected %q, got %q", tt.expected, res.out)
				}
			})
		}
	})

	t.Run("rejects unknown filter", func(t *testing.T) {
		_, err := run(t, "", "--base-url", url, "ls", "-filter", "someday")
		if err == nil || !strings.Contains(err.Error(), "invalid filter") {
			t.Errorf("expected invalid filter error, got %v", err)
		}
	})
}

func TestLsEmptyCollection(t *testing.T) {
	isolate(t)
	_, url := collection(t)

	res, err := run(t, "", "--base-url", url, "ls")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if res.out != "Add tasks now!\n" {
		t.Errorf("expected empty hint, got %q", res.out)
	}
}

func TestLsUnreachable(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(mockapi.NewServer(mockapi.NewMemoryStore()))
	url := srv.URL + mockapi.CollectionPath
	srv.Close()

	_, err := run(t, "", "--base-url", url, "ls")
	if err == nil {
		t.Fatal("expected error for unreachable collection, got nil")
	}
	if !strings.Contains(err.Error(), tasklist.MsgLoadFailed) {
		t.Errorf("expected %q in error, got %v", tasklist.MsgLoadFailed, err)
	}
}

func TestAddCommand(t *testing.T) {
	isolate(t)
	store, url := collection(t, seedTasks()...)

	res, err := run(t, "", "--base-url", url, "add", "Write", "tests")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(res.out, tasklist.MsgAddSuccess) {
		t.Errorf("expected success message, got %q", res.out)
	}
	lines := strings.Split(strings.TrimSpace(res.out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected message plus 3 tasks, got %q", res.out)
	}
	if !strings.HasSuffix(lines[1], "  Write tests") {
		t.Errorf("expected new task first, got %q", lines[1])
	}

	held, _ := store.List(context.Background())
	if len(held) != 3 {
		t.Fatalf("expected 3 stored tasks, got %d", len(held))
	}
	added := held[2]
	if added.Task != "Write tests" || added.IsCompleted {
		t.Errorf("expected incomplete 'Write tests', got %+v", added)
	}
	if added.ID == "" {
		t.Error("expected an id on the created task")
	}
}

func TestAddRejectsEmpty(t *testing.T) {
	isolate(t)
	store, url := collection(t)

	_, err := run(t, "", "--base-url", url, "add")
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if err.Error() != task.MessageTaskRequired {
		t.Errorf("expected %q, got %q", task.MessageTaskRequired, err.Error())
	}
	held, _ := store.List(context.Background())
	if len(held) != 0 {
		t.Errorf("expected nothing stored, got %v", held)
	}
}

func TestToggleCommand(t *testing.T) {
	isolate(t)
	store, url := collection(t, seedTasks()...)

	t.Run("flips completion", func(t *testing.T) {
		res, err := run(t, "", "--base-url", url, "toggle", "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, tasklist.MsgUpdateSuccess) {
			t.Errorf("expected success message, got %q", res.out)
		}
		if !strings.Contains(res.out, "[x] 1  Buy milk") {
			t.Errorf("expected refreshed list, got %q", res.out)
		}
		held, _ := store.List(context.Background())
		if !held[0].IsCompleted || held[0].Task != "Buy milk" {
			t.Errorf("expected task 1 completed with description kept, got %+v", held[0])
		}
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		res, err := run(t, "", "--base-url", url, "toggle", "nope")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.out != "No task with id nope\n" {
			t.Errorf("expected no-op message, got %q", res.out)
		}
	})

	t.Run("requires an id", func(t *testing.T) {
		_, err := run(t, "", "--base-url", url, "toggle")
		if err == nil || !strings.Contains(err.Error(), "usage") {
			t.Errorf("expected usage error, got %v", err)
		}
	})
}

func TestRmCommand(t *testing.T) {
	isolate(t)

	t.Run("declined prompt keeps the task", func(t *testing.T) {
		store, url := collection(t, seedTasks()...)
		res, err := run(t, "n\n", "--base-url", url, "rm", "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, tasklist.DeletePrompt+" (y/n) ") {
			t.Errorf("expected prompt, got %q", res.out)
		}
		if !strings.Contains(res.out, "Cancelled.") {
			t.Errorf("expected cancellation, got %q", res.out)
		}
		held, _ := store.List(context.Background())
		if len(held) != 2 {
			t.Errorf("expected 2 tasks, got %d", len(held))
		}
	})

	t.Run("closed stdin declines", func(t *testing.T) {
		store, url := collection(t, seedTasks()...)
		res, err := run(t, "", "--base-url", url, "rm", "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, "Cancelled.") {
			t.Errorf("expected cancellation, got %q", res.out)
		}
		held, _ := store.List(context.Background())
		if len(held) != 2 {
			t.Errorf("expected 2 tasks, got %d", len(held))
		}
	})

	t.Run("confirmed prompt deletes", func(t *testing.T) {
		store, url := collection(t, seedTasks()...)
		res, err := run(t, "yes\n", "--base-url", url, "rm", "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, tasklist.MsgDeleteSuccess) {
			t.Errorf("expected success message, got %q", res.out)
		}
		if strings.Contains(res.out, "Buy milk") {
			t.Errorf("expected deleted task gone from list, got %q", res.out)
		}
		held, _ := store.List(context.Background())
		if len(held) != 1 || held[0].ID != "2" {
			t.Errorf("expected only task 2 left, got %v", held)
		}
	})

	t.Run("yes flag skips the prompt", func(t *testing.T) {
		store, url := collection(t, seedTasks()...)
		res, err := run(t, "", "--base-url", url, "rm", "-yes", "2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(res.out, tasklist.DeletePrompt) {
			t.Errorf("expected no prompt, got %q", res.out)
		}
		held, _ := store.List(context.Background())
		if len(held) != 1 || held[0].ID != "1" {
			t.Errorf("expected only task 1 left, got %v", held)
		}
	})

	t.Run("remote failure is reported", func(t *testing.T) {
		_, url := collection(t, seedTasks()...)
		res, err := run(t, "", "--base-url", url, "rm", "-y", "missing")
		if err == nil {
			t.Fatal("expected error deleting a missing task, got nil")
		}
		if !strings.Contains(res.out, tasklist.MsgDeleteFailed) {
			t.Errorf("expected failure message, got %q", res.out)
		}
	})
}

func TestConfigCommand(t *testing.T) {
	isolate(t)

	t.Run("shows sources", func(t *testing.T) {
		res, err := run(t, "", "--base-url", "http://example.test/tasks", "config")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var baseLine, levelLine string
		for _, line := range strings.Split(res.out, "\n") {
			switch {
			case strings.HasPrefix(line, "base_url "):
				baseLine = line
			case strings.HasPrefix(line, "log_level "):
				levelLine = line
			}
		}
		if !strings.Contains(baseLine, "http://example.test/tasks") || !strings.HasSuffix(baseLine, "(flag)") {
			t.Errorf("expected base_url from flag, got %q", baseLine)
		}
		if !strings.Contains(levelLine, "info") || !strings.HasSuffix(levelLine, "(default)") {
			t.Errorf("expected default log_level, got %q", levelLine)
		}
	})

	t.Run("example", func(t *testing.T) {
		res, err := run(t, "", "config", "-example")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, "base_url") {
			t.Errorf("expected example config, got %q", res.out)
		}
	})
}

func TestLogsCommand(t *testing.T) {
	work := isolate(t)
	logDir := t.TempDir()

	t.Run("no logs", func(t *testing.T) {
		res, err := run(t, "", "--log-dir", logDir, "logs")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, "No log files found.") {
			t.Errorf("expected no logs message, got %q", res.out)
		}
	})

	runLog, err := logging.NewRunLogger(logDir, work)
	if err != nil {
		t.Fatalf("NewRunLogger: %v", err)
	}
	for i := 1; i <= 3; i++ {
		fmt.Fprintf(runLog.Writer(), "line %d\n", i)
	}
	if err := runLog.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	t.Run("tails latest", func(t *testing.T) {
		res, err := run(t, "", "--log-dir", logDir, "logs", "-n", "1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(res.out, "Tailing: "+runLog.LogPath) {
			t.Errorf("expected log path, got %q", res.out)
		}
		if !strings.HasSuffix(res.out, "line 3\n") || strings.Contains(res.out, "line 2") {
			t.Errorf("expected only the last line, got %q", res.out)
		}
	})

	t.Run("lists runs", func(t *testing.T) {
		res, err := run(t, "", "--log-dir", logDir, "logs", "-list")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(res.out, runLog.RunID+"  ") {
			t.Errorf("expected run id first, got %q", res.out)
		}
	})
}

func TestServeCommand(t *testing.T) {
	isolate(t)

	t.Run("stops when cancelled", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "tasks.db")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out, errOut bytes.Buffer
		err := RunWithIO(ctx, []string{"serve", "-addr", "127.0.0.1:0", "-db", dbPath}, Streams{
			In:  strings.NewReader(""),
			Out: &out,
			Err: &errOut,
		})
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
		if !strings.Contains(errOut.String(), "Serving task collection") {
			t.Errorf("expected serving log, got %q", errOut.String())
		}
		if _, err := os.Stat(dbPath); err != nil {
			t.Errorf("expected database file, got %v", err)
		}
	})

	t.Run("bad database path", func(t *testing.T) {
		_, err := run(t, "", "serve", "-addr", "127.0.0.1:0", "-db", t.TempDir())
		if err == nil || !strings.Contains(err.Error(), "opening task database") {
			t.Errorf("expected database error, got %v", err)
		}
	})

	t.Run("rejects extra arguments", func(t *testing.T) {
		_, err := run(t, "", "serve", "extra")
		if err == nil || !strings.Contains(err.Error(), "unexpected arguments") {
			t.Errorf("expected argument error, got %v", err)
		}
	})
}
