package sqlcache

import (
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSweepInterval is the minimum elapsed time between two lazy
	// expiration sweeps unless overridden.
	DefaultSweepInterval = 30 * time.Minute

	// MinimumSweepInterval bounds the sweep frequency to protect the
	// backing store from bulk deletes on every call.
	MinimumSweepInterval = 5 * time.Minute

	// DefaultSlidingExpiration applies to entries written without any
	// explicit expiration policy.
	DefaultSlidingExpiration = 20 * time.Minute
)

// Option customises a Cache.
type Option func(*Cache)

// WithSweepInterval overrides how often the lazy expiration sweep may run.
// Values below MinimumSweepInterval fail construction.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *Cache) {
		c.sweepInterval = interval
	}
}

// WithDefaultSlidingExpiration overrides the window applied to entries
// written without an explicit policy. Must be strictly positive.
func WithDefaultSlidingExpiration(window time.Duration) Option {
	return func(c *Cache) {
		c.defaultSliding = window
	}
}

// WithNow overrides the clock, primarily for deterministic tests.
func WithNow(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger overrides the logger used for sweep diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}
