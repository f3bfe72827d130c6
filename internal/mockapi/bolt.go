package mockapi

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/nibzard/tasklist-go/internal/task"
)

var (
	tasksBucket = []byte("tasks") // sequence key -> task JSON
	idsBucket   = []byte("ids")   // task id -> sequence key
)

// BoltStore is a Store backed by a BoltDB file. Records are keyed by an
// insertion sequence so a cursor walk yields insertion order.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens (or creates) the database file at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(tasksBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(idsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// List returns the collection in insertion order.
func (s *BoltStore) List(ctx context.Context) ([]task.Task, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	out := []task.Task{}
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(tasksBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var t task.Task
			if err := json.Unmarshal(v, &t); err != nil {
				return fmt.Errorf("decode task %x: %w", k, err)
			}
			out = append(out, t)
		}
		return nil
	})
	return out, err
}

// Create appends t, assigning an id when needed.
func (s *BoltStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if s == nil || s.db == nil {
		return task.Task{}, bolt.ErrDatabaseNotOpen
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		tasks := tx.Bucket(tasksBucket)
		ids := tx.Bucket(idsBucket)

		seq, err := tasks.NextSequence()
		if err != nil {
			return err
		}
		if t.ID == "" || ids.Get([]byte(t.ID)) != nil {
			t.ID = strconv.FormatUint(seq, 10)
			for ids.Get([]byte(t.ID)) != nil {
				if seq, err = tasks.NextSequence(); err != nil {
					return err
				}
				t.ID = strconv.FormatUint(seq, 10)
			}
		}

		payload, err := json.Marshal(t)
		if err != nil {
			return err
		}
		key := seqKey(seq)
		if err := tasks.Put(key, payload); err != nil {
			return err
		}
		return ids.Put([]byte(t.ID), key)
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// Update replaces the task with t.ID.
func (s *BoltStore) Update(ctx context.Context, t task.Task) (task.Task, error) {
	if s == nil || s.db == nil {
		return task.Task{}, bolt.ErrDatabaseNotOpen
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		key := tx.Bucket(idsBucket).Get([]byte(t.ID))
		if key == nil {
			return ErrNotFound
		}
		payload, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(tasksBucket).Put(key, payload)
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

// Delete removes the task with id.
func (s *BoltStore) Delete(ctx context.Context, id string) (task.Task, error) {
	if s == nil || s.db == nil {
		return task.Task{}, bolt.ErrDatabaseNotOpen
	}
	var removed task.Task
	err := s.db.Update(func(tx *bolt.Tx) error {
		ids := tx.Bucket(idsBucket)
		tasks := tx.Bucket(tasksBucket)

		key := ids.Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}
		key = append([]byte(nil), key...)
		if v := tasks.Get(key); v != nil {
			if err := json.Unmarshal(v, &removed); err != nil {
				return err
			}
		}
		if err := tasks.Delete(key); err != nil {
			return err
		}
		return ids.Delete([]byte(id))
	})
	if err != nil {
		return task.Task{}, err
	}
	return removed, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func seqKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
