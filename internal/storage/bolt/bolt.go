package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/kquota/internal/storage"
	"go.etcd.io/bbolt"
)

const bucketSettings = "settings"

// Store implements the storage.Store interface using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := storage.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSettings)); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketSettings, err)
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored for key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := settingsBucket(tx)
		if err != nil {
			return err
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		value = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetMany returns every present value among keys in a single read transaction.
func (s *Store) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := settingsBucket(tx)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if raw := b.Get([]byte(key)); raw != nil {
				values[key] = string(raw)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Set writes a single key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.Apply(ctx, storage.Batch{Set: map[string]string{key: value}})
}

// Apply writes the batch inside one bolt transaction.
func (s *Store) Apply(ctx context.Context, batch storage.Batch) error {
	if batch.Empty() {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b, err := settingsBucket(tx)
		if err != nil {
			return err
		}
		for key, value := range batch.Set {
			if err := b.Put([]byte(key), []byte(value)); err != nil {
				return fmt.Errorf("put %s: %w", key, err)
			}
		}
		for _, key := range batch.Delete {
			if err := b.Delete([]byte(key)); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

func settingsBucket(tx *bbolt.Tx) (*bbolt.Bucket, error) {
	b := tx.Bucket([]byte(bucketSettings))
	if b == nil {
		return nil, fmt.Errorf("bucket missing: %s", bucketSettings)
	}
	return b, nil
}
