// Package tasklist keeps a local view of the remote task collection and
// turns user intents into remote calls.
package tasklist

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nibzard/tasklist-go/internal/logging"
	"github.com/nibzard/tasklist-go/internal/remote"
	"github.com/nibzard/tasklist-go/internal/task"
)

// DeletePrompt is the question asked before a delete is issued.
const DeletePrompt = "Are you sure you want to delete this task?"

// Notification messages.
const (
	MsgAddSuccess    = "Add task successfully"
	MsgDeleteSuccess = "Delete task successfully"
	MsgUpdateSuccess = "Update task successfully"
	MsgAddFailed     = "Failed to add task"
	MsgDeleteFailed  = "Failed to delete task"
	MsgUpdateFailed  = "Failed to update task"
	MsgLoadFailed    = "Failed to load tasks"
)

// Confirmer answers a yes/no question.
type Confirmer interface {
	Confirm(question string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(question string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(question string) bool { return f(question) }

// Level classifies a notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "success"
}

// Notification is a transient message about a settled operation.
type Notification struct {
	Op      Op
	Level   Level
	Message string
	Err     error
	At      time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for transitions and failures.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source used for provisional ids and
// notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSchema validates submissions against s instead of the embedded schema.
func WithSchema(s *task.Schema) Option {
	return func(c *Controller) {
		if s != nil {
			c.schema = s
		}
	}
}

// Controller is the task list state machine. It is not safe for concurrent
// use: call it from one goroutine and run the returned effects anywhere.
type Controller struct {
	res    remote.Resource
	cache  *Cache
	schema *task.Schema
	logger *log.Logger
	now    func() time.Time

	filter   task.Filter
	input    string
	fieldErr *task.ValidationError

	inflight map[Op]int
	settled  map[Op]Phase
	errs     map[Op]error
	notes    []Notification
}

// New creates a controller over res. The cache is shared by reference; a nil
// cache gets a fresh one.
func New(res remote.Resource, cache *Cache, opts ...Option) *Controller {
	if cache == nil {
		cache = NewCache()
	}
	c := &Controller{
		res:      res,
		cache:    cache,
		schema:   task.DefaultSchema(),
		logger:   logging.Discard(),
		now:      time.Now,
		filter:   task.FilterAll,
		inflight: make(map[Op]int),
		settled:  make(map[Op]Phase),
		errs:     make(map[Op]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache returns the shared cache.
func (c *Controller) Cache() *Cache {
	return c.cache
}

// Start issues the initial fetch.
func (c *Controller) Start() Effect {
	return c.Invalidate()
}

// Invalidate marks the held collection stale and returns a fetch tagged
// with the new generation.
func (c *Controller) Invalidate() Effect {
	gen := c.cache.Invalidate()
	id := c.begin(OpList, "generation", gen)
	res := c.res
	return func(ctx context.Context) Event {
		tasks, err := res.ListTasks(ctx)
		return FetchResult{OpID: id, Generation: gen, Tasks: tasks, Err: err}
	}
}

// SetInput records the form text. Once a submission has failed validation,
// every edit is validated again so the field message tracks the input.
func (c *Controller) SetInput(text string) {
	c.input = text
	if c.fieldErr != nil {
		c.validate(text)
	}
}

// Input returns the current form text.
func (c *Controller) Input() string {
	return c.input
}

// FieldError returns the inline validation message, or "".
func (c *Controller) FieldError() string {
	if c.fieldErr == nil {
		return ""
	}
	return c.fieldErr.Message
}

func (c *Controller) validate(text string) (task.Draft, bool) {
	draft, err := c.schema.ValidateText(text)
	if err != nil {
		var verr *task.ValidationError
		if !errors.As(err, &verr) {
			verr = &task.ValidationError{Field: "task", Message: err.Error(), Err: err}
		}
		c.fieldErr = verr
		return task.Draft{}, false
	}
	c.fieldErr = nil
	return draft, true
}

// Submit validates text and returns a create effect, or nil when the text
// is invalid.
func (c *Controller) Submit(text string) Effect {
	c.input = text
	draft, ok := c.validate(text)
	if !ok {
		c.logger.Debug("submit rejected", "field", c.fieldErr.Field, "reason", c.fieldErr.Message)
		return nil
	}

	t := draft.WithID(task.ProvisionalID(c.now()))
	id := c.begin(OpCreate, "task_id", t.ID)
	res := c.res
	return func(ctx context.Context) Event {
		created, err := res.CreateTask(ctx, t)
		return CreateResult{OpID: id, Task: created, Err: err}
	}
}

// Delete returns a delete effect for id, or nil unless confirmed.
func (c *Controller) Delete(id string, confirmed bool) Effect {
	if !confirmed {
		c.logger.Debug("delete declined", "task_id", id)
		return nil
	}
	op := c.begin(OpDelete, "task_id", id)
	res := c.res
	return func(ctx context.Context) Event {
		return DeleteResult{OpID: op, ID: id, Err: res.DeleteTask(ctx, id)}
	}
}

// RequestDelete asks confirm the DeletePrompt question and deletes on yes.
func (c *Controller) RequestDelete(id string, confirm Confirmer) Effect {
	return c.Delete(id, confirm != nil && confirm.Confirm(DeletePrompt))
}

// Toggle returns an update effect flipping the completion of a held task.
// Unknown ids yield nil.
func (c *Controller) Toggle(id string) Effect {
	held, ok := c.cache.Lookup(id)
	if !ok {
		c.logger.Debug("toggle ignored", "task_id", id, "reason", "not held")
		return nil
	}
	t := held.Toggled()
	op := c.begin(OpUpdate, "task_id", id, "completed", t.IsCompleted)
	res := c.res
	return func(ctx context.Context) Event {
		return UpdateResult{OpID: op, Task: t, Err: res.UpdateTask(ctx, t)}
	}
}

// SetFilter changes the projection and reports whether it changed.
func (c *Controller) SetFilter(f task.Filter) bool {
	if f == c.filter {
		return false
	}
	c.filter = f
	return true
}

// Filter returns the active filter.
func (c *Controller) Filter() task.Filter {
	return c.filter
}

// Tasks returns the held collection, newest first.
func (c *Controller) Tasks() []task.Task {
	tasks, _ := c.cache.Read()
	return tasks
}

// Visible returns the held collection through the active filter.
func (c *Controller) Visible() []task.Task {
	return c.filter.Apply(c.Tasks())
}

// Loading reports whether a fetch is outstanding and nothing is held yet.
func (c *Controller) Loading() bool {
	_, loaded := c.cache.Read()
	return !loaded && c.inflight[OpList] > 0
}

// Empty reports whether the filtered list has nothing to show.
func (c *Controller) Empty() bool {
	return len(c.Visible()) == 0
}

// Phase returns the lifecycle state of op.
func (c *Controller) Phase(op Op) Phase {
	if c.inflight[op] > 0 {
		return PhaseInFlight
	}
	return c.settled[op]
}

// Err returns the failure of the last settled op, if it failed.
func (c *Controller) Err(op Op) error {
	return c.errs[op]
}

// TakeNotifications returns and clears pending notifications.
func (c *Controller) TakeNotifications() []Notification {
	notes := c.notes
	c.notes = nil
	return notes
}

// Handle applies an event and returns follow-up effects.
func (c *Controller) Handle(ev Event) []Effect {
	switch ev := ev.(type) {
	case FetchResult:
		c.handleFetch(ev)
	case CreateResult:
		if c.settle(OpCreate, ev.OpID, ev.Err) {
			c.input = ""
			c.notify(OpCreate, MsgAddSuccess, nil)
			return []Effect{c.Invalidate()}
		}
		c.notify(OpCreate, MsgAddFailed, ev.Err)
	case DeleteResult:
		if c.settle(OpDelete, ev.OpID, ev.Err) {
			c.notify(OpDelete, MsgDeleteSuccess, nil)
			return []Effect{c.Invalidate()}
		}
		c.notify(OpDelete, MsgDeleteFailed, ev.Err)
	case UpdateResult:
		if c.settle(OpUpdate, ev.OpID, ev.Err) {
			c.notify(OpUpdate, MsgUpdateSuccess, nil)
			return []Effect{c.Invalidate()}
		}
		c.notify(OpUpdate, MsgUpdateFailed, ev.Err)
	}
	return nil
}

func (c *Controller) handleFetch(ev FetchResult) {
	if ev.Generation != c.cache.Generation() {
		c.done(OpList)
		c.logger.Debug("fetch discarded", "op_id", ev.OpID, "generation", ev.Generation, "current", c.cache.Generation(), "failed", ev.Err != nil)
		return
	}
	if !c.settle(OpList, ev.OpID, ev.Err) {
		c.notify(OpList, MsgLoadFailed, ev.Err)
		return
	}
	if !c.cache.Write(ev.Generation, task.Reverse(ev.Tasks)) {
		return
	}
	c.logger.Debug("fetch applied", "op_id", ev.OpID, "generation", ev.Generation, "count", len(ev.Tasks))
}

// begin marks op in flight and returns an id for correlating its logs.
func (c *Controller) begin(op Op, keyvals ...any) string {
	id := uuid.NewString()
	c.inflight[op]++
	c.logger.Debug("request", append([]any{"op", op, "op_id", id}, keyvals...)...)
	return id
}

func (c *Controller) done(op Op) {
	if c.inflight[op] > 0 {
		c.inflight[op]--
	}
}

// settle records the outcome of op and reports whether it succeeded.
func (c *Controller) settle(op Op, id string, err error) bool {
	c.done(op)
	c.errs[op] = err
	if err != nil {
		c.settled[op] = PhaseFailed
		c.logger.Warn("request failed", "op", op, "op_id", id, "err", err)
		return false
	}
	c.settled[op] = PhaseSucceeded
	c.logger.Debug("request succeeded", "op", op, "op_id", id)
	return true
}

func (c *Controller) notify(op Op, msg string, err error) {
	level := LevelSuccess
	if err != nil {
		level = LevelError
	}
	c.notes = append(c.notes, Notification{
		Op:      op,
		Level:   level,
		Message: msg,
		Err:     err,
		At:      c.now(),
	})
}
