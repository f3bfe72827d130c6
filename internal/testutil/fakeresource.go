// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/nibzard/tasklist-go/internal/remote"
	"github.com/nibzard/tasklist-go/internal/task"
)

// ErrNotFound is returned for ids the fake does not hold.
var ErrNotFound = errors.New("not found")

// Call records one invocation of the fake.
type Call struct {
	Method string
	ID     string
	Task   task.Task
}

// FakeResource is an in-memory implementation of remote.Resource for testing.
// Tasks are kept in server order, like the real collection.
type FakeResource struct {
	mu    sync.RWMutex
	tasks []task.Task
	calls []Call
	seq   int

	// Error injection for testing
	ListErr   error
	CreateErr error
	DeleteErr error
	UpdateErr error
}

var _ remote.Resource = (*FakeResource)(nil)

// NewFakeResource creates a fake holding seed in server order.
func NewFakeResource(seed ...task.Task) *FakeResource {
	return &FakeResource{tasks: append([]task.Task(nil), seed...)}
}

// Calls returns a copy of the recorded invocations.
func (f *FakeResource) Calls() []Call {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times method was invoked.
func (f *FakeResource) CallCount(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Snapshot returns the held tasks in server order.
func (f *FakeResource) Snapshot() []task.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]task.Task(nil), f.tasks...)
}

// ListTasks implements remote.Resource.
func (f *FakeResource) ListTasks(ctx context.Context) ([]task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "list"})
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]task.Task{}, f.tasks...), nil
}

// CreateTask implements remote.Resource. Like the hosted collection it
// replaces the provisional id with its own.
func (f *FakeResource) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "create", ID: t.ID, Task: t})
	if f.CreateErr != nil {
		return task.Task{}, f.CreateErr
	}
	f.seq++
	t.ID = "srv-" + strconv.Itoa(f.seq)
	f.tasks = append(f.tasks, t)
	return t, nil
}

// DeleteTask implements remote.Resource.
func (f *FakeResource) DeleteTask(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "delete", ID: id})
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// UpdateTask implements remote.Resource.
func (f *FakeResource) UpdateTask(ctx context.Context, t task.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Method: "update", ID: t.ID, Task: t})
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	for i := range f.tasks {
		if f.tasks[i].ID == t.ID {
			f.tasks[i] = t
			return nil
		}
	}
	return ErrNotFound
}
