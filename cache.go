// Package sqlcache implements a durable, shared key-value cache with
// time-based expiration on top of a persistent store. It is a library
// component: there is no cache server and no background goroutine —
// expired rows are purged by a lazy sweep piggybacked on normal traffic.
package sqlcache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/sqlcache/metrics"
)

// Cache orchestrates get/set/remove/refresh against an EntryStore,
// applying absolute and sliding expiration policies. It is safe for
// concurrent use; the store's atomic row operations are the sole
// concurrency boundary.
type Cache struct {
	store          EntryStore
	sweepInterval  time.Duration
	defaultSliding time.Duration
	now            func() time.Time
	log            *zap.Logger

	// lastSweep holds the UnixNano timestamp of the most recent sweep.
	// Zero means no sweep has run yet, so the first operation sweeps.
	lastSweep atomic.Int64
}

// New constructs a Cache over the supplied store. Construction fails with
// ErrInvalidConfiguration when the sweep interval is below the floor or
// the default sliding expiration is not strictly positive.
func New(store EntryStore, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("sqlcache: entry store is required")
	}

	cache := &Cache{
		store:          store,
		sweepInterval:  DefaultSweepInterval,
		defaultSliding: DefaultSlidingExpiration,
		now:            time.Now,
		log:            zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	if cache.sweepInterval < MinimumSweepInterval {
		return nil, fmt.Errorf("%w: sweep interval %s is below the %s floor",
			ErrInvalidConfiguration, cache.sweepInterval, MinimumSweepInterval)
	}
	if cache.defaultSliding <= 0 {
		return nil, fmt.Errorf("%w: default sliding expiration must be positive, got %s",
			ErrInvalidConfiguration, cache.defaultSliding)
	}

	return cache, nil
}

// Get returns the value for key. Missing and logically expired entries
// both yield (nil, false, nil); callers cannot distinguish the two. A live
// entry with a sliding window has its deadline renewed before returning.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx = ensureContext(ctx)

	entry, err := c.lookup(ctx, key)
	if err != nil {
		return nil, false, err
	}

	c.maybeSweep(ctx)

	if entry == nil {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

// Refresh renews the sliding expiration of key without returning its
// value. Refreshing a missing or expired key is not an error.
func (c *Cache) Refresh(ctx context.Context, key string) error {
	ctx = ensureContext(ctx)

	if _, err := c.lookup(ctx, key); err != nil {
		return err
	}

	c.maybeSweep(ctx)
	return nil
}

// Set stores value under key with the supplied expiration options,
// overwriting any existing row — including a logically expired one — in
// place. A resolved absolute expiration at or before now fails with
// ErrInvalidExpiration and leaves any prior value unchanged.
func (c *Cache) Set(ctx context.Context, key string, value []byte, opts EntryOptions) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(key) == "" {
		return errors.New("sqlcache: key is required")
	}

	now := c.now()
	policy, err := resolveExpiration(opts, c.defaultSliding, now)
	if err != nil {
		return err
	}

	entry := &Entry{
		Key:                key,
		Value:              value,
		ExpiresAt:          policy.expiresAt,
		AbsoluteExpiration: policy.absolute,
		SlidingExpiration:  policy.sliding,
	}

	if err := c.store.Upsert(ctx, entry); err != nil {
		return err
	}

	c.maybeSweep(ctx)
	return nil
}

// Remove deletes the entry for key. Removing a missing key is a no-op.
func (c *Cache) Remove(ctx context.Context, key string) error {
	ctx = ensureContext(ctx)

	if err := c.store.Delete(ctx, key); err != nil {
		return err
	}

	c.maybeSweep(ctx)
	return nil
}

// lookup fetches the row for key and applies the liveness filter and
// sliding renewal. It returns nil without error on a miss.
func (c *Cache) lookup(ctx context.Context, key string) (*Entry, error) {
	now := c.now()

	entry, err := c.store.Find(ctx, key)
	if errors.Is(err, ErrEntryNotFound) {
		metrics.Misses.Inc()
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if entry.Expired(now) {
		metrics.Misses.Inc()
		return nil, nil
	}

	if deadline, due := nextSlidingDeadline(entry, now); due {
		if err := c.store.Touch(ctx, key, deadline); err != nil {
			return nil, err
		}
		entry.ExpiresAt = deadline
	}

	metrics.Hits.Inc()
	return entry, nil
}

// maybeSweep runs the lazy expiration sweep when enough time has elapsed
// since the last one. The timestamp is advanced before the delete so that
// concurrent callers racing past the elapsed check issue at most one
// redundant, idempotent sweep. Sweep failures never affect the primary
// operation's already-committed result; they are logged and counted.
func (c *Cache) maybeSweep(ctx context.Context) {
	now := c.now()

	last := c.lastSweep.Load()
	if now.Sub(time.Unix(0, last)) <= c.sweepInterval {
		return
	}
	if !c.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}

	deleted, err := c.store.DeleteExpired(ctx, now)
	if err != nil {
		metrics.Sweeps.WithLabelValues("failure").Inc()
		c.log.Warn("expiration sweep failed", zap.Error(err))
		return
	}

	metrics.Sweeps.WithLabelValues("success").Inc()
	metrics.SweptEntries.Add(float64(deleted))
	if deleted > 0 {
		c.log.Debug("expiration sweep removed entries", zap.Int64("deleted", deleted))
	}
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
