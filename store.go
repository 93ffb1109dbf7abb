package sqlcache

import (
	"context"
	"time"
)

// EntryStore is the boundary to the persistence engine. Implementations
// must provide atomic row upsert and point operations; the engine layers
// the expiration model on top and does no in-process locking.
//
// Find returns the raw row regardless of expiry so that Set can overwrite
// logically expired rows in place; liveness filtering is the engine's job.
type EntryStore interface {
	// Find returns the entry for key, or ErrEntryNotFound.
	Find(ctx context.Context, key string) (*Entry, error)

	// Upsert inserts the entry or overwrites the existing row for its
	// key in a single atomic operation.
	Upsert(ctx context.Context, entry *Entry) error

	// Touch moves the deadline of an existing row. Touching a row that
	// has concurrently disappeared is a no-op, not an error.
	Touch(ctx context.Context, key string, expiresAt time.Time) error

	// Delete removes the row for key; deleting a missing row is a no-op.
	Delete(ctx context.Context, key string) error

	// DeleteExpired bulk-deletes every row whose deadline is before the
	// given instant and reports how many rows were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
