package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	boltBucket      = "kv"
	boltOpenTimeout = time.Second
)

// Bolt is a persistent store backed by a single bbolt bucket.
type Bolt struct {
	db *bbolt.DB
}

// OpenBolt opens or creates the bbolt file at path. Opening fails after a
// second if another process holds the file lock.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: boltOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt store %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Get implements ports.KeyValueStore.
func (b *Bolt) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var (
		value string
		found bool
	)

	err := b.db.View(func(tx *bbolt.Tx) error {
		// Bytes returned by bbolt are only valid inside the transaction.
		if v := tx.Bucket([]byte(boltBucket)).Get([]byte(key)); v != nil {
			value, found = string(v), true
		}

		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("reading %q: %w", key, err)
	}

	return value, found, nil
}

// Set implements ports.KeyValueStore.
func (b *Bolt) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (b *Bolt) Name() string {
	return "store"
}

// Check implements ports.HealthChecker.
func (b *Bolt) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return b.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket([]byte(boltBucket)) == nil {
			return errors.New("bucket missing")
		}

		return nil
	})
}

// Close releases the file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}
