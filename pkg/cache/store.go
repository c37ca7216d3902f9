package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"github.com/contestpulse/contest-pulse/pkg/logger"
)

// Bucket names. Each bucket is owned by exactly one component: the contest
// pipeline writes only to ContestsBucket, the reminder manager only to the
// two reminder buckets. No cross-component locking is needed because of that
// ownership split.
const (
	ContestsBucket     = "contests"
	RemindersBucket    = "reminders_by_contest"
	ReminderListBucket = "reminder_list"
)

// Store provides string-keyed persistent storage shared by the cache layer
// and the reminder manager.
type Store interface {
	Get(bucket, key string) ([]byte, bool, error)
	Put(bucket, key string, value []byte) error
	Delete(bucket, key string) error
	ForEach(bucket string, fn func(key string, value []byte) error) error
	Close() error
}

// BoltStore implements Store using BoltDB for persistence
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates a new BoltDB-backed store and ensures all known
// buckets exist.
func NewBoltStore(dbPath string) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB at %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{ContestsBucket, RemindersBucket, ReminderListBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	logger.Info("BoltDB store initialized at: %s", dbPath)
	return &BoltStore{db: db}, nil
}

// Get retrieves a raw value by key
func (s *BoltStore) Get(bucket, key string) ([]byte, bool, error) {
	var value []byte
	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil // bucket doesn't exist, return empty result
		}

		data := b.Get([]byte(key))
		if data == nil {
			return nil // key doesn't exist
		}

		found = true
		value = make([]byte, len(data))
		copy(value, data)
		return nil
	})

	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return value, found, nil
}

// Put stores a value under the given key
func (s *BoltStore) Put(bucket, key string, value []byte) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return fmt.Errorf("bucket %s does not exist", bucket)
		}
		return b.Put([]byte(key), value)
	})
}

// Delete removes an entry by key
func (s *BoltStore) Delete(bucket, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil // bucket doesn't exist, nothing to delete
		}
		return b.Delete([]byte(key))
	})
}

// ForEach iterates over all entries in a bucket
func (s *BoltStore) ForEach(bucket string, fn func(key string, value []byte) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil // bucket doesn't exist, nothing to iterate
		}
		return b.ForEach(func(k, v []byte) error {
			return fn(string(k), v)
		})
	})
}

// Close closes the BoltDB database
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
