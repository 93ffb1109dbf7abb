package gormstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/sqlcache"
	"github.com/charlesng35/sqlcache/database/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := New(testutil.MustOpenTestDB(t))
	require.NoError(t, err)
	return store
}

func TestNewRequiresDB(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
}

func TestFindMissingReturnsSentinel(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Find(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, sqlcache.ErrEntryNotFound)
}

func TestUpsertInsertsAndOverwritesInPlace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	now := time.Now().UTC().Truncate(time.Second)
	ceiling := now.Add(time.Hour)
	window := 20 * time.Minute

	require.NoError(t, store.Upsert(ctx, &sqlcache.Entry{
		Key:                key,
		Value:              []byte("first"),
		ExpiresAt:          now.Add(20 * time.Minute),
		AbsoluteExpiration: &ceiling,
		SlidingExpiration:  &window,
	}))

	entry, err := store.Find(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), entry.Value)
	require.NotNil(t, entry.AbsoluteExpiration)
	require.True(t, entry.AbsoluteExpiration.Equal(ceiling))
	require.NotNil(t, entry.SlidingExpiration)
	require.Equal(t, window, *entry.SlidingExpiration)

	// Overwriting the same key replaces value and policy without
	// creating a second row, even though the row is still live.
	require.NoError(t, store.Upsert(ctx, &sqlcache.Entry{
		Key:       key,
		Value:     []byte("second"),
		ExpiresAt: now.Add(time.Hour),
	}))

	entry, err = store.Find(ctx, key)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), entry.Value)
	require.Nil(t, entry.AbsoluteExpiration)
	require.Nil(t, entry.SlidingExpiration)

	var count int64
	require.NoError(t, store.db.Model(&sqlcache.Entry{}).Where("key = ?", key).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestTouchMovesDeadline(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.Upsert(ctx, &sqlcache.Entry{
		Key:       key,
		Value:     []byte("v"),
		ExpiresAt: now.Add(10 * time.Minute),
	}))

	renewed := now.Add(30 * time.Minute)
	require.NoError(t, store.Touch(ctx, key, renewed))

	entry, err := store.Find(ctx, key)
	require.NoError(t, err)
	require.True(t, entry.ExpiresAt.Equal(renewed))

	// Touching a row that no longer exists matches zero rows.
	require.NoError(t, store.Touch(ctx, uuid.NewString(), renewed))
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := uuid.NewString()

	require.NoError(t, store.Delete(ctx, key))

	require.NoError(t, store.Upsert(ctx, &sqlcache.Entry{
		Key:       key,
		Value:     []byte("v"),
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Delete(ctx, key))
	require.NoError(t, store.Delete(ctx, key))

	_, err := store.Find(ctx, key)
	require.ErrorIs(t, err, sqlcache.ErrEntryNotFound)
}

func TestDeleteExpiredRemovesOnlyExpiredRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	expired := uuid.NewString()
	live := uuid.NewString()

	require.NoError(t, store.Upsert(ctx, &sqlcache.Entry{
		Key:       expired,
		Value:     []byte("v"),
		ExpiresAt: now.Add(-time.Minute),
	}))
	require.NoError(t, store.Upsert(ctx, &sqlcache.Entry{
		Key:       live,
		Value:     []byte("v"),
		ExpiresAt: now.Add(time.Hour),
	}))

	deleted, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	_, err = store.Find(ctx, expired)
	require.ErrorIs(t, err, sqlcache.ErrEntryNotFound)

	_, err = store.Find(ctx, live)
	require.NoError(t, err)
}

func TestCacheEndToEndOverSQLite(t *testing.T) {
	store := newTestStore(t)

	t0 := time.Now().UTC().Truncate(time.Second)
	current := t0
	cache, err := sqlcache.New(store,
		sqlcache.WithSweepInterval(5*time.Minute),
		sqlcache.WithDefaultSlidingExpiration(20*time.Minute),
		sqlcache.WithNow(func() time.Time { return current }))
	require.NoError(t, err)

	ctx := context.Background()
	key := uuid.NewString()

	require.NoError(t, cache.Set(ctx, key, []byte{1, 2, 3}, sqlcache.EntryOptions{}))

	current = t0.Add(10 * time.Minute)
	value, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []byte{1, 2, 3}, value)

	entry, err := store.Find(ctx, key)
	require.NoError(t, err)
	require.True(t, entry.ExpiresAt.Equal(t0.Add(30*time.Minute)))

	current = t0.Add(31 * time.Minute)
	_, found, err = cache.Get(ctx, key)
	require.NoError(t, err)
	require.False(t, found)

	// The miss at +31m was past the sweep interval, so the expired row
	// is also physically gone.
	_, err = store.Find(ctx, key)
	require.ErrorIs(t, err, sqlcache.ErrEntryNotFound)
}
