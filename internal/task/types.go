// Package task defines the task record, display filters, and input validation.
package task

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Task is a single record of the remote task collection.
type Task struct {
	ID          string `json:"id"`
	Task        string `json:"task"`
	IsCompleted bool   `json:"isCompleted"`
}

// Toggled returns a copy of t with the completion flag flipped.
func (t Task) Toggled() Task {
	t.IsCompleted = !t.IsCompleted
	return t
}

// Draft is a validated, normalized task value that has no identity yet.
type Draft struct {
	Task        string
	IsCompleted bool
}

// WithID turns the draft into a task carrying id.
func (d Draft) WithID(id string) Task {
	return Task{ID: id, Task: d.Task, IsCompleted: d.IsCompleted}
}

// ProvisionalID returns the id given to locally created tasks before the
// remote assigns its own: Unix time in milliseconds.
func ProvisionalID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Reverse returns a reversed copy of tasks.
func Reverse(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[len(tasks)-1-i] = t
	}
	return out
}

// Find returns the task with the given id.
func Find(tasks []Task, id string) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Filter selects which tasks are displayed.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterCompleted  Filter = "completed"
	FilterIncomplete Filter = "incomplete"
)

// Filters lists the filters in selector order.
var Filters = []Filter{FilterAll, FilterCompleted, FilterIncomplete}

// ParseFilter parses a filter name (case-insensitive, trimmed).
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCompleted, "done":
		return FilterCompleted, nil
	case FilterIncomplete, "open":
		return FilterIncomplete, nil
	default:
		return FilterAll, fmt.Errorf("invalid filter %q, must be one of: all, completed, incomplete", s)
	}
}

// Match reports whether t passes the filter. Unknown filters match everything.
func (f Filter) Match(t Task) bool {
	switch f {
	case FilterCompleted:
		return t.IsCompleted
	case FilterIncomplete:
		return !t.IsCompleted
	default:
		return true
	}
}

// Apply returns the tasks matching f, preserving order.
func (f Filter) Apply(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Label returns the selector label for f.
func (f Filter) Label() string {
	switch f {
	case FilterCompleted:
		return "Completed"
	case FilterIncomplete:
		return "Incomplete"
	default:
		return "All"
	}
}

// Next returns the filter after f in selector order, wrapping around.
func (f Filter) Next() Filter {
	for i, candidate := range Filters {
		if candidate == f {
			return Filters[(i+1)%len(Filters)]
		}
	}
	return FilterAll
}
