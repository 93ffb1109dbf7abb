// Package boltstore implements the sqlcache entry store on an embedded
// bbolt database, for single-node deployments that want durability
// without provisioning a SQL server.
package boltstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/charlesng35/sqlcache"
)

const defaultBucket = "cache_entries"

// Store persists cache entries in a bbolt bucket.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// record is the stored form of an entry. Audit stamps are kept so the
// bolt adapter observes the same row shape as the SQL one.
type record struct {
	Value              []byte         `json:"value"`
	ExpiresAt          time.Time      `json:"expires_at"`
	AbsoluteExpiration *time.Time     `json:"absolute_expiration,omitempty"`
	SlidingExpiration  *time.Duration `json:"sliding_expiration,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// Open initialises or opens a store at the given path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	bucket := []byte(defaultBucket)
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, bucket: bucket}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Find returns the raw entry for key regardless of expiry.
func (s *Store) Find(ctx context.Context, key string) (*sqlcache.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *sqlcache.Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(s.bucket).Get([]byte(key))
		if raw == nil {
			return sqlcache.ErrEntryNotFound
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("boltstore: decode %q: %w", key, err)
		}
		entry = rec.toEntry(key)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Upsert inserts or overwrites the record for the entry's key.
func (s *Store) Upsert(ctx context.Context, entry *sqlcache.Entry) error {
	if entry == nil {
		return errors.New("boltstore: entry is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		key := []byte(entry.Key)

		rec := record{
			Value:              entry.Value,
			ExpiresAt:          entry.ExpiresAt,
			AbsoluteExpiration: entry.AbsoluteExpiration,
			SlidingExpiration:  entry.SlidingExpiration,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if raw := bucket.Get(key); raw != nil {
			var prev record
			if err := json.Unmarshal(raw, &prev); err == nil {
				rec.CreatedAt = prev.CreatedAt
			}
		}

		encoded, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("boltstore: encode %q: %w", entry.Key, err)
		}
		return bucket.Put(key, encoded)
	})
}

// Touch moves the deadline of an existing record; missing keys are a no-op.
func (s *Store) Touch(ctx context.Context, key string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(s.bucket)
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return nil
		}

		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("boltstore: decode %q: %w", key, err)
		}
		rec.ExpiresAt = expiresAt
		rec.UpdatedAt = time.Now()

		encoded, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), encoded)
	})
}

// Delete removes the record for key, if any.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// DeleteExpired scans the bucket and removes every record whose deadline
// passed before the given instant.
func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var deleted int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		cursor := tx.Bucket(s.bucket).Cursor()
		for key, raw := cursor.First(); key != nil; key, raw = cursor.Next() {
			var rec record
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("boltstore: decode %q: %w", string(key), err)
			}
			if rec.ExpiresAt.Before(before) {
				if err := cursor.Delete(); err != nil {
					return err
				}
				deleted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

func (r record) toEntry(key string) *sqlcache.Entry {
	return &sqlcache.Entry{
		Key:                key,
		Value:              r.Value,
		ExpiresAt:          r.ExpiresAt,
		AbsoluteExpiration: r.AbsoluteExpiration,
		SlidingExpiration:  r.SlidingExpiration,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
