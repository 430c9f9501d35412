package storage

import (
	"context"
	"errors"
	"time"

	"go.etcd.io/bbolt"
)

const boltBucketKV = "kv" // key: blob name -> raw bytes

// Bolt is a single-file key/value blob store.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (or creates) the bolt file at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucketKV))
		return err
	}); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &Bolt{db: db}, nil
}

// Ping reports whether the bolt file is still open.
func (b *Bolt) Ping(ctx context.Context) error {
	return b.db.View(func(tx *bbolt.Tx) error {
		return nil
	})
}

// Get returns a copy of the value stored under key, or nil if the key is absent.
func (b *Bolt) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(boltBucketKV))
		if bucket == nil {
			return errors.New("bolt: kv bucket missing")
		}

		if v := bucket.Get([]byte(key)); v != nil {
			out = append([]byte{}, v...)
		}

		return nil
	})

	return out, err
}

// Put replaces the value stored under key.
func (b *Bolt) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucketKV)).Put([]byte(key), value)
	})
}

// Close releases the file lock and closes the database.
func (b *Bolt) Close() error {
	return b.db.Close()
}
