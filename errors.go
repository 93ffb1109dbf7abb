package sqlcache

import "errors"

var (
	// ErrInvalidConfiguration is returned by New when the supplied
	// options violate the configuration floors. The cache is unusable.
	ErrInvalidConfiguration = errors.New("sqlcache: invalid configuration")

	// ErrInvalidExpiration is returned by Set when the resolved absolute
	// expiration is not in the future, or a sliding window is negative.
	// The write does not occur.
	ErrInvalidExpiration = errors.New("sqlcache: invalid expiration")

	// ErrEntryNotFound is returned by EntryStore implementations when no
	// row exists for a key. The engine translates it into a plain miss.
	ErrEntryNotFound = errors.New("sqlcache: entry not found")
)
