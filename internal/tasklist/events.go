package tasklist

import (
	"context"

	"github.com/nibzard/tasklist-go/internal/task"
)

// Op names a remote operation.
type Op string

const (
	OpList   Op = "list"
	OpCreate Op = "create"
	OpDelete Op = "delete"
	OpUpdate Op = "update"
)

// Phase is the lifecycle state of one kind of operation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInFlight
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInFlight:
		return "in-flight"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// Effect performs one remote call away from the controller and reports the
// outcome as an Event. Effects never touch controller state.
type Effect func(ctx context.Context) Event

// Event is the outcome of an Effect, applied with Controller.Handle.
type Event interface {
	Op() Op
	// Cause is the failure, or nil on success.
	Cause() error
	event()
}

// FetchResult completes a list call issued for Generation.
type FetchResult struct {
	OpID       string
	Generation uint64
	Tasks      []task.Task
	Err        error
}

// CreateResult completes a create call.
type CreateResult struct {
	OpID string
	Task task.Task
	Err  error
}

// DeleteResult completes a delete call.
type DeleteResult struct {
	OpID string
	ID   string
	Err  error
}

// UpdateResult completes an update call.
type UpdateResult struct {
	OpID string
	Task task.Task
	Err  error
}

func (FetchResult) Op() Op  { return OpList }
func (CreateResult) Op() Op { return OpCreate }
func (DeleteResult) Op() Op { return OpDelete }
func (UpdateResult) Op() Op { return OpUpdate }

func (r FetchResult) Cause() error  { return r.Err }
func (r CreateResult) Cause() error { return r.Err }
func (r DeleteResult) Cause() error { return r.Err }
func (r UpdateResult) Cause() error { return r.Err }

func (FetchResult) event()  {}
func (CreateResult) event() {}
func (DeleteResult) event() {}
func (UpdateResult) event() {}
