// Package spool persists conversion events that could not be delivered so a
// background flusher can retry them after transient pixel-endpoint outages.
package spool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketEvents = []byte("events")

// Item is one spooled conversion event. Payload holds the encoded event body
// exactly as it would have been posted.
type Item struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	key []byte
}

// Spool is a bbolt-backed FIFO of undelivered events. Keys are ordered by
// enqueue time so Batch drains oldest first.
type Spool struct {
	db *bolt.DB
}

// Open creates or reopens the spool file.
func Open(path string) (*Spool, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating spool directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening spool: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating spool bucket: %w", err)
	}
	return &Spool{db: db}, nil
}

func (s *Spool) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Enqueue persists an item under a time-ordered key.
func (s *Spool) Enqueue(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}
	item.key = []byte(fmt.Sprintf("%020d_%s", item.Timestamp.UnixNano(), item.ID))

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding spool item: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEvents).Put(item.key, raw)
	})
}

// Batch returns up to limit items, oldest first, without removing them.
func (s *Spool) Batch(limit int) ([]Item, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}
	var items []Item
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.First(); k != nil && len(items) < limit; k, v = c.Next() {
			var item Item
			if err := json.Unmarshal(v, &item); err != nil {
				continue
			}
			item.key = append([]byte(nil), k...)
			items = append(items, item)
		}
		return nil
	})
	return items, err
}

// Remove deletes a delivered item.
func (s *Spool) Remove(item Item) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		if len(item.key) > 0 {
			return b.Delete(item.key)
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var it Item
			if err := json.Unmarshal(v, &it); err != nil {
				continue
			}
			if it.ID == item.ID {
				return c.Delete()
			}
		}
		return nil
	})
}

// Requeue re-inserts a failed item with a bumped retry count and a fresh
// timestamp, moving it to the back of the queue.
func (s *Spool) Requeue(item Item) error {
	if err := s.Remove(item); err != nil {
		return err
	}
	item.key = nil
	item.Retries++
	item.Timestamp = time.Now()
	return s.Enqueue(item)
}

// Len returns the number of spooled items.
func (s *Spool) Len() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketEvents).Stats().KeyN
		return nil
	})
	return n, err
}
