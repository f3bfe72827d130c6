// Package mockapi serves a task collection resource for local development
// and tests.
package mockapi

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/nibzard/tasklist-go/internal/task"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// Store persists the collection in insertion order.
type Store interface {
	// List returns all tasks in insertion order.
	List(ctx context.Context) ([]task.Task, error)

	// Create appends t. When t.ID is empty or already taken the store
	// assigns the next free sequence number as id.
	Create(ctx context.Context, t task.Task) (task.Task, error)

	// Update replaces the task with t.ID.
	Update(ctx context.Context, t task.Task) (task.Task, error)

	// Delete removes the task with id and returns it.
	Delete(ctx context.Context, id string) (task.Task, error)

	// Close releases resources held by the store.
	Close() error
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []task.Task
	seq   int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store holding seed, in order.
func NewMemoryStore(seed ...task.Task) *MemoryStore {
	s := &MemoryStore{}
	for _, t := range seed {
		_, _ = s.Create(context.Background(), t)
	}
	return s
}

// List returns a copy of the collection.
func (s *MemoryStore) List(ctx context.Context) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]task.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

// Create appends t, assigning an id when needed.
func (s *MemoryStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" || s.indexOf(t.ID) >= 0 {
		t.ID = s.nextID()
	}
	s.tasks = append(s.tasks, t)
	return t, nil
}

// Update replaces the task with t.ID.
func (s *MemoryStore) Update(ctx context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(t.ID)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	s.tasks[i] = t
	return t, nil
}

// Delete removes the task with id.
func (s *MemoryStore) Delete(ctx context.Context, id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return task.Task{}, ErrNotFound
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	return removed, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// nextID must be called with the lock held.
func (s *MemoryStore) nextID() string {
	for {
		s.seq++
		id := strconv.Itoa(s.seq)
		if s.indexOf(id) < 0 {
			return id
		}
	}
}
