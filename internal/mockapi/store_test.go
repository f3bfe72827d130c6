package mockapi

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nibzard/tasklist-go/internal/task"
)

func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"bolt": func() Store {
			s, err := OpenBoltStore(filepath.Join(t.TempDir(), "db", "tasks.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, open := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := open()
			defer s.Close()

			a, err := s.Create(ctx, task.Task{ID: "a", Task: "first"})
			require.NoError(t, err)
			assert.Equal(t, "a", a.ID)

			b, err := s.Create(ctx, task.Task{Task: "second"})
			require.NoError(t, err)
			assert.NotEmpty(t, b.ID)

			c, err := s.Create(ctx, task.Task{ID: "a", Task: "third"})
			require.NoError(t, err)
			assert.NotEqual(t, "a", c.ID, "taken id must be replaced")

			tasks, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, tasks, 3)
			assert.Equal(t, []string{"first", "second", "third"}, []string{tasks[0].Task, tasks[1].Task, tasks[2].Task})

			_, err = s.Update(ctx, task.Task{ID: b.ID, Task: "second", IsCompleted: true})
			require.NoError(t, err)
			_, err = s.Update(ctx, task.Task{ID: "missing"})
			assert.True(t, errors.Is(err, ErrNotFound))

			removed, err := s.Delete(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "first", removed.Task)
			_, err = s.Delete(ctx, "a")
			assert.True(t, errors.Is(err, ErrNotFound))

			tasks, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, tasks, 2)
			assert.Equal(t, b.ID, tasks[0].ID)
			assert.True(t, tasks[0].IsCompleted)
		})
	}
}

func TestBoltStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	_, err = s.Create(ctx, task.Task{ID: "1", Task: "durable"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	tasks, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "durable", tasks[0].Task)
}
