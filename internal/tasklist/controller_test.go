package tasklist

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibzard/tasklist-go/internal/task"
	"github.com/nibzard/tasklist-go/internal/testutil"
)

var fixedNow = time.Date(2024, 10, 5, 14, 16, 52, 345_000_000, time.UTC)

func newController(t *testing.T, seed ...task.Task) (*Controller, *testutil.FakeResource) {
	t.Helper()
	res := testutil.NewFakeResource(seed...)
	c := New(res, NewCache(), WithClock(func() time.Time { return fixedNow }))
	return c, res
}

// started returns a controller whose initial fetch has completed.
func started(t *testing.T, seed ...task.Task) (*Controller, *testutil.FakeResource) {
	t.Helper()
	c, res := newController(t, seed...)
	require.NoError(t, Drive(context.Background(), c, c.Start()))
	return c, res
}

func descriptions(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Task)
	}
	return out
}

func TestListingRendersNewestFirst(t *testing.T) {
	c, _ := newController(t,
		task.Task{ID: "1", Task: "Task 1"},
		task.Task{ID: "2", Task: "Task 2", IsCompleted: true},
	)

	eff := c.Start()
	assert.True(t, c.Loading())
	assert.Equal(t, PhaseInFlight, c.Phase(OpList))

	require.NoError(t, Drive(context.Background(), c, eff))
	assert.False(t, c.Loading())
	assert.Equal(t, PhaseSucceeded, c.Phase(OpList))
	assert.Equal(t, []string{"Task 2", "Task 1"}, descriptions(c.Visible()))
	assert.False(t, c.Empty())
}

func TestEmptyCollection(t *testing.T) {
	c, _ := started(t)
	assert.True(t, c.Empty())
	assert.False(t, c.Loading())
	assert.Empty(t, c.TakeNotifications())
}

func TestFilterProjection(t *testing.T) {
	c, res := started(t,
		task.Task{ID: "1", Task: "open one"},
		task.Task{ID: "2", Task: "done one", IsCompleted: true},
		task.Task{ID: "3", Task: "open two"},
	)
	calls := len(res.Calls())

	assert.True(t, c.SetFilter(task.FilterCompleted))
	assert.Equal(t, []string{"done one"}, descriptions(c.Visible()))

	assert.True(t, c.SetFilter(task.FilterIncomplete))
	assert.Equal(t, []string{"open two", "open one"}, descriptions(c.Visible()))

	assert.True(t, c.SetFilter(task.FilterAll))
	assert.Len(t, c.Visible(), 3)

	assert.Equal(t, calls, len(res.Calls()), "filtering must not touch the network")
}

func TestFilterMatchesPredicateForEveryCollection(t *testing.T) {
	// Every completion pattern over collections of up to three tasks.
	for size := 0; size <= 3; size++ {
		for mask := 0; mask < 1<<size; mask++ {
			seed := make([]task.Task, size)
			for i := range seed {
				seed[i] = task.Task{ID: string(rune('a' + i)), Task: "t", IsCompleted: mask&(1<<i) != 0}
			}
			c, _ := started(t, seed...)
			for _, f := range task.Filters {
				c.SetFilter(f)
				var want []task.Task
				for _, held := range c.Tasks() {
					switch f {
					case task.FilterCompleted:
						if held.IsCompleted {
							want = append(want, held)
						}
					case task.FilterIncomplete:
						if !held.IsCompleted {
							want = append(want, held)
						}
					default:
						want = append(want, held)
					}
				}
				assert.ElementsMatch(t, want, c.Visible(), "size=%d mask=%b filter=%s", size, mask, f)
			}
		}
	}
}

func TestSetFilterIdempotent(t *testing.T) {
	c, res := started(t, task.Task{ID: "1", Task: "a"})
	before := c.Visible()
	calls := len(res.Calls())

	assert.False(t, c.SetFilter(task.FilterAll))
	assert.False(t, c.SetFilter(task.FilterAll))
	assert.Equal(t, before, c.Visible())
	assert.Equal(t, calls, len(res.Calls()))
}

func TestSubmitRejectsEmptyDescription(t *testing.T) {
	c, res := started(t)

	eff := c.Submit("")
	assert.Nil(t, eff)
	assert.Equal(t, task.MessageTaskRequired, c.FieldError())
	assert.Zero(t, res.CallCount("create"))
	assert.Equal(t, PhaseIdle, c.Phase(OpCreate))

	// After a failed submit, edits revalidate.
	c.SetInput("x")
	assert.Empty(t, c.FieldError())
	c.SetInput("")
	assert.Equal(t, task.MessageTaskRequired, c.FieldError())
}

func TestSubmitCreateRoundTrip(t *testing.T) {
	c, res := started(t)

	c.SetInput("New Task")
	eff := c.Submit(c.Input())
	require.NotNil(t, eff)
	assert.Equal(t, PhaseInFlight, c.Phase(OpCreate))

	require.NoError(t, Drive(context.Background(), c, eff))

	creates := res.Calls()[1]
	assert.Equal(t, "create", creates.Method)
	assert.Equal(t, task.Task{ID: "1728137812345", Task: "New Task"}, creates.Task)

	assert.Equal(t, []string{"New Task"}, descriptions(c.Visible()))
	assert.NotEqual(t, "1728137812345", c.Visible()[0].ID, "provisional id is replaced after refetch")
	assert.Empty(t, c.Input())
	assert.Equal(t, PhaseSucceeded, c.Phase(OpCreate))

	notes := c.TakeNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgAddSuccess, notes[0].Message)
	assert.Equal(t, LevelSuccess, notes[0].Level)
	assert.Equal(t, fixedNow, notes[0].At)
	assert.Empty(t, c.TakeNotifications(), "notifications are drained")
}

func TestSubmitAllowsDuplicatesAndWhitespace(t *testing.T) {
	c, _ := started(t, task.Task{ID: "1", Task: "same"})

	require.NoError(t, Drive(context.Background(), c, c.Submit("same")))
	require.NoError(t, Drive(context.Background(), c, c.Submit(" ")))
	assert.Equal(t, []string{" ", "same", "same"}, descriptions(c.Visible()))
}

func TestSubmitFailureKeepsInput(t *testing.T) {
	c, res := started(t)
	boom := errors.New("boom")
	res.CreateErr = boom

	err := Drive(context.Background(), c, c.Submit("keep me"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "keep me", c.Input())
	assert.Equal(t, PhaseFailed, c.Phase(OpCreate))
	assert.ErrorIs(t, c.Err(OpCreate), boom)
	assert.Equal(t, 1, res.CallCount("list"), "failed create does not refetch")

	notes := c.TakeNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgAddFailed, notes[0].Message)
	assert.Equal(t, LevelError, notes[0].Level)

	// A new request of the same kind leaves the settled phase.
	res.CreateErr = nil
	eff := c.Submit("keep me")
	assert.Equal(t, PhaseInFlight, c.Phase(OpCreate))
	require.NoError(t, Drive(context.Background(), c, eff))
	assert.Equal(t, PhaseSucceeded, c.Phase(OpCreate))
	assert.NoError(t, c.Err(OpCreate))
}

func TestDeleteFlow(t *testing.T) {
	c, res := started(t,
		task.Task{ID: "1", Task: "Task to delete"},
		task.Task{ID: "2", Task: "Task to keep"},
	)

	var asked string
	eff := c.RequestDelete("1", ConfirmFunc(func(q string) bool {
		asked = q
		return true
	}))
	require.NotNil(t, eff)
	assert.Equal(t, DeletePrompt, asked)

	require.NoError(t, Drive(context.Background(), c, eff))
	calls := res.Calls()
	assert.Equal(t, testutil.Call{Method: "delete", ID: "1"}, calls[1])
	assert.Equal(t, "list", calls[2].Method)
	assert.NotContains(t, descriptions(c.Visible()), "Task to delete")

	notes := c.TakeNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgDeleteSuccess, notes[0].Message)
}

func TestDeleteDeclined(t *testing.T) {
	c, res := started(t, task.Task{ID: "1", Task: "stay"})
	calls := len(res.Calls())

	assert.Nil(t, c.RequestDelete("1", ConfirmFunc(func(string) bool { return false })))
	assert.Nil(t, c.RequestDelete("1", nil))
	assert.Nil(t, c.Delete("1", false))
	assert.Equal(t, calls, len(res.Calls()))
	assert.Equal(t, PhaseIdle, c.Phase(OpDelete))
}

func TestDeleteFailureKeepsTask(t *testing.T) {
	c, res := started(t, task.Task{ID: "1", Task: "stubborn"})
	res.DeleteErr = errors.New("503")

	err := Drive(context.Background(), c, c.Delete("1", true))
	assert.Error(t, err)
	assert.Equal(t, []string{"stubborn"}, descriptions(c.Visible()))
	assert.Equal(t, PhaseFailed, c.Phase(OpDelete))
	notes := c.TakeNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgDeleteFailed, notes[0].Message)
}

func TestToggle(t *testing.T) {
	c, res := started(t, task.Task{ID: "1", Task: "flip me"})

	eff := c.Toggle("1")
	require.NotNil(t, eff)
	require.NoError(t, Drive(context.Background(), c, eff))

	calls := res.Calls()
	assert.Equal(t, testutil.Call{Method: "update", ID: "1", Task: task.Task{ID: "1", Task: "flip me", IsCompleted: true}}, calls[1])
	assert.True(t, c.Visible()[0].IsCompleted)
	notes := c.TakeNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgUpdateSuccess, notes[0].Message)

	require.NoError(t, Drive(context.Background(), c, c.Toggle("1")))
	assert.False(t, c.Visible()[0].IsCompleted)
}

func TestToggleUnknownID(t *testing.T) {
	c, res := started(t, task.Task{ID: "1", Task: "a"})
	calls := len(res.Calls())

	assert.Nil(t, c.Toggle("missing"))
	assert.Equal(t, calls, len(res.Calls()))
	assert.Equal(t, PhaseIdle, c.Phase(OpUpdate))
}

func TestToggleFailureLeavesCollection(t *testing.T) {
	c, res := started(t, task.Task{ID: "1", Task: "a"})
	res.UpdateErr = errors.New("offline")

	assert.Error(t, Drive(context.Background(), c, c.Toggle("1")))
	assert.False(t, c.Visible()[0].IsCompleted)
	assert.Equal(t, MsgUpdateFailed, c.TakeNotifications()[0].Message)
}

func TestFetchFailureKeepsCollection(t *testing.T) {
	c, res := started(t, task.Task{ID: "1", Task: "held"})
	res.ListErr = errors.New("timeout")

	assert.Error(t, Drive(context.Background(), c, c.Invalidate()))
	assert.Equal(t, []string{"held"}, descriptions(c.Visible()))
	assert.Equal(t, PhaseFailed, c.Phase(OpList))
	assert.True(t, c.Cache().Stale())

	notes := c.TakeNotifications()
	require.Len(t, notes, 1)
	assert.Equal(t, MsgLoadFailed, notes[0].Message)
}

func TestInitialFetchFailure(t *testing.T) {
	c, res := newController(t)
	res.ListErr = errors.New("dns")

	assert.Error(t, Drive(context.Background(), c, c.Start()))
	assert.False(t, c.Loading())
	assert.True(t, c.Empty())
}

func TestStaleFetchIsDiscarded(t *testing.T) {
	ctx := context.Background()
	c, res := newController(t, task.Task{ID: "1", Task: "old"})

	first := c.Start()
	oldEvent := first(ctx)

	require.NoError(t, res.UpdateTask(ctx, task.Task{ID: "1", Task: "new"}))
	second := c.Invalidate()
	assert.Empty(t, c.Handle(second(ctx)))
	assert.Equal(t, []string{"new"}, descriptions(c.Visible()))

	// The older completion arrives last and must not overwrite.
	assert.Empty(t, c.Handle(oldEvent))
	assert.Equal(t, []string{"new"}, descriptions(c.Visible()))
	assert.Equal(t, PhaseSucceeded, c.Phase(OpList))
	assert.Empty(t, c.TakeNotifications())
}

func TestStaleFetchFailureIsSilent(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t, task.Task{ID: "1", Task: "a"})

	first := c.Start()
	second := c.Invalidate()
	c.Handle(FetchResult{Generation: 1, Err: errors.New("late failure")})
	_ = first

	assert.True(t, c.Loading(), "newer fetch still outstanding")
	c.Handle(second(ctx))
	assert.False(t, c.Loading())
	assert.Empty(t, c.TakeNotifications())
	assert.Equal(t, PhaseSucceeded, c.Phase(OpList))
}

func TestMutationsInvalidateCache(t *testing.T) {
	c, _ := started(t, task.Task{ID: "1", Task: "a"})
	gen := c.Cache().Generation()

	followUps := c.Handle(UpdateResult{Task: task.Task{ID: "1"}})
	require.Len(t, followUps, 1)
	assert.Equal(t, gen+1, c.Cache().Generation())
	assert.True(t, c.Cache().Stale())
}

func TestLogsOperations(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel, Formatter: log.LogfmtFormatter})
	res := testutil.NewFakeResource()
	res.CreateErr = errors.New("refused")
	c := New(res, nil, WithLogger(logger))

	_ = Drive(context.Background(), c, c.Start(), c.Submit("x"))
	out := buf.String()
	assert.Contains(t, out, "op=list")
	assert.Contains(t, out, "op_id=")
	assert.Contains(t, out, "request failed")
	assert.Contains(t, out, "refused")
}

func TestDriveStopsOnCancel(t *testing.T) {
	c, res := newController(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Drive(ctx, c, c.Start())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.CallCount("list"))
}

func TestWithSchema(t *testing.T) {
	schema, warnings := task.LoadSchema("")
	require.Empty(t, warnings)
	c := New(testutil.NewFakeResource(), nil, WithSchema(schema))
	assert.Nil(t, c.Submit(""))
	assert.Equal(t, task.MessageTaskRequired, c.FieldError())
}
