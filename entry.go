package sqlcache

import (
	"time"
)

// Entry represents a single cached value persisted in the backing store.
type Entry struct {
	Key   string `gorm:"primaryKey;size:256"`
	Value []byte `gorm:"type:blob"`

	// ExpiresAt always holds the next concrete deadline. Rows whose
	// deadline has passed are logically expired and invisible to reads
	// until a sweep removes them.
	ExpiresAt time.Time `gorm:"index;not null"`

	// AbsoluteExpiration, when set, is a hard ceiling that sliding
	// renewals may never push ExpiresAt beyond.
	AbsoluteExpiration *time.Time

	// SlidingExpiration, when set, extends ExpiresAt by this window on
	// each read that finds the entry live. Stored as nanoseconds.
	SlidingExpiration *time.Duration

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the gorm default pluralisation.
func (Entry) TableName() string {
	return "cache_entries"
}

// Expired reports whether the entry is logically expired at the given instant.
func (e *Entry) Expired(now time.Time) bool {
	return e.ExpiresAt.Before(now)
}
