// Package gormstore implements the sqlcache entry store on a relational
// database through gorm. It is the default adapter: a single table keyed
// by the cache key with an indexed deadline column for sweep deletes.
package gormstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/sqlcache"
)

// Store persists cache entries in the primary SQL database.
type Store struct {
	db *gorm.DB
}

// New constructs a database-backed entry store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("gormstore: db is required")
	}
	return &Store{db: db}, nil
}

// Find returns the raw row for key regardless of expiry.
func (s *Store) Find(ctx context.Context, key string) (*sqlcache.Entry, error) {
	var entry sqlcache.Entry
	err := s.db.WithContext(ctx).Take(&entry, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, sqlcache.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert inserts the entry or overwrites the existing row for its key in
// a single atomic statement.
func (s *Store) Upsert(ctx context.Context, entry *sqlcache.Entry) error {
	if entry == nil {
		return errors.New("gormstore: entry is required")
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"value", "expires_at", "absolute_expiration", "sliding_expiration", "updated_at",
			}),
		}).Create(entry).Error
}

// Touch moves the deadline of an existing row. A row deleted by a
// concurrent caller simply matches zero rows.
func (s *Store) Touch(ctx context.Context, key string, expiresAt time.Time) error {
	return s.db.WithContext(ctx).
		Model(&sqlcache.Entry{}).
		Where("key = ?", key).
		Update("expires_at", expiresAt).Error
}

// Delete removes the row for key, if any.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).
		Where("key = ?", key).
		Delete(&sqlcache.Entry{}).Error
}

// DeleteExpired bulk-deletes rows whose deadline passed before the given
// instant. The ExpiresAt index keeps this a range scan.
func (s *Store) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", before).
		Delete(&sqlcache.Entry{})
	return res.RowsAffected, res.Error
}
