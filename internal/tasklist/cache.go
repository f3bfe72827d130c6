package tasklist

import (
	"sync"

	"github.com/nibzard/tasklist-go/internal/task"
)

// Cache holds the last fetched collection in display order.
//
// Every refetch is tagged with the generation returned by Invalidate. Write
// only accepts the current generation, so a slow fetch that completes after
// a newer one was issued cannot overwrite fresher data.
type Cache struct {
	mu         sync.RWMutex
	tasks      []task.Task
	generation uint64
	applied    uint64
	loaded     bool
}

// NewCache returns an empty cache at generation 0.
func NewCache() *Cache {
	return &Cache{}
}

// Invalidate starts a new generation and returns its tag.
func (c *Cache) Invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// Generation returns the current tag.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Write replaces the held collection if gen is current. It reports whether
// the write was applied.
func (c *Cache) Write(gen uint64, tasks []task.Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.tasks = append(make([]task.Task, 0, len(tasks)), tasks...)
	c.applied = gen
	c.loaded = true
	return true
}

// Read returns a copy of the held collection and whether anything was ever
// written.
func (c *Cache) Read() ([]task.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]task.Task(nil), c.tasks...), c.loaded
}

// Lookup finds a held task by id.
func (c *Cache) Lookup(id string) (task.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return task.Find(c.tasks, id)
}

// Stale reports whether a newer generation has been issued than the one
// currently held.
func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applied != c.generation
}
