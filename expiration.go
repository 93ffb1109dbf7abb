package sqlcache

import (
	"fmt"
	"time"
)

// EntryOptions carries the caller-supplied expiration policy for Set.
// AbsoluteExpirationRelativeToNow takes precedence over AbsoluteExpiration
// when both are supplied. A zero value means "unset" for each field; when
// no policy is supplied at all, the cache falls back to its configured
// default sliding expiration.
type EntryOptions struct {
	AbsoluteExpiration              *time.Time
	AbsoluteExpirationRelativeToNow time.Duration
	SlidingExpiration               time.Duration
}

// expirationPolicy is the resolved form of EntryOptions at a given instant.
type expirationPolicy struct {
	absolute  *time.Time
	sliding   *time.Duration
	expiresAt time.Time
}

// resolveExpiration converts caller options plus "now" into the concrete
// deadlines stored on an entry.
func resolveExpiration(opts EntryOptions, defaultSliding time.Duration, now time.Time) (expirationPolicy, error) {
	var policy expirationPolicy

	switch {
	case opts.AbsoluteExpirationRelativeToNow != 0:
		absolute := now.Add(opts.AbsoluteExpirationRelativeToNow)
		policy.absolute = &absolute
	case opts.AbsoluteExpiration != nil:
		absolute := *opts.AbsoluteExpiration
		policy.absolute = &absolute
	}

	if policy.absolute != nil && !policy.absolute.After(now) {
		return expirationPolicy{}, fmt.Errorf("%w: absolute expiration %s is not after %s",
			ErrInvalidExpiration, policy.absolute.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	if opts.SlidingExpiration < 0 {
		return expirationPolicy{}, fmt.Errorf("%w: sliding expiration must be positive, got %s",
			ErrInvalidExpiration, opts.SlidingExpiration)
	}
	if opts.SlidingExpiration > 0 {
		sliding := opts.SlidingExpiration
		policy.sliding = &sliding
	}

	if policy.absolute == nil && policy.sliding == nil {
		sliding := defaultSliding
		policy.sliding = &sliding
	}

	switch {
	case policy.sliding != nil && policy.absolute != nil:
		deadline := now.Add(*policy.sliding)
		if deadline.After(*policy.absolute) {
			deadline = *policy.absolute
		}
		policy.expiresAt = deadline
	case policy.sliding != nil:
		policy.expiresAt = now.Add(*policy.sliding)
	default:
		policy.expiresAt = *policy.absolute
	}

	return policy, nil
}

// nextSlidingDeadline computes the renewed deadline for a live entry read
// at "now". The second return is false when no renewal should be written:
// either the entry has no sliding window, or its deadline is already
// pinned at the absolute ceiling. When the ceiling is within one window
// of now the deadline snaps to the ceiling (the final extension).
func nextSlidingDeadline(entry *Entry, now time.Time) (time.Time, bool) {
	if entry.SlidingExpiration == nil {
		return time.Time{}, false
	}

	window := *entry.SlidingExpiration
	if entry.AbsoluteExpiration != nil {
		if entry.ExpiresAt.Equal(*entry.AbsoluteExpiration) {
			return time.Time{}, false
		}
		if !now.Add(window).Before(*entry.AbsoluteExpiration) {
			return *entry.AbsoluteExpiration, true
		}
	}

	return now.Add(window), true
}
