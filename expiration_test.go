package sqlcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveExpirationFallsBackToDefaultSliding(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	policy, err := resolveExpiration(EntryOptions{}, 20*time.Minute, now)
	require.NoError(t, err)
	require.Nil(t, policy.absolute)
	require.NotNil(t, policy.sliding)
	require.Equal(t, 20*time.Minute, *policy.sliding)
	require.Equal(t, now.Add(20*time.Minute), policy.expiresAt)
}

func TestResolveExpirationAbsoluteOnly(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(time.Hour)

	policy, err := resolveExpiration(EntryOptions{AbsoluteExpiration: &deadline}, 20*time.Minute, now)
	require.NoError(t, err)
	require.Nil(t, policy.sliding)
	require.NotNil(t, policy.absolute)
	require.Equal(t, deadline, *policy.absolute)
	require.Equal(t, deadline, policy.expiresAt)
}

func TestResolveExpirationRelativeTakesPrecedence(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ignored := now.Add(2 * time.Hour)

	policy, err := resolveExpiration(EntryOptions{
		AbsoluteExpiration:              &ignored,
		AbsoluteExpirationRelativeToNow: 30 * time.Minute,
	}, 20*time.Minute, now)
	require.NoError(t, err)
	require.Equal(t, now.Add(30*time.Minute), *policy.absolute)
	require.Equal(t, now.Add(30*time.Minute), policy.expiresAt)
}

func TestResolveExpirationSlidingClampedToCeiling(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ceiling := now.Add(10 * time.Minute)

	policy, err := resolveExpiration(EntryOptions{
		AbsoluteExpiration: &ceiling,
		SlidingExpiration:  20 * time.Minute,
	}, 20*time.Minute, now)
	require.NoError(t, err)
	require.Equal(t, ceiling, policy.expiresAt)
}

func TestResolveExpirationSlidingBelowCeiling(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ceiling := now.Add(time.Hour)

	policy, err := resolveExpiration(EntryOptions{
		AbsoluteExpiration: &ceiling,
		SlidingExpiration:  20 * time.Minute,
	}, 20*time.Minute, now)
	require.NoError(t, err)
	require.Equal(t, now.Add(20*time.Minute), policy.expiresAt)
}

func TestResolveExpirationRejectsPastDeadlines(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Second)
	_, err := resolveExpiration(EntryOptions{AbsoluteExpiration: &past}, 20*time.Minute, now)
	require.ErrorIs(t, err, ErrInvalidExpiration)

	_, err = resolveExpiration(EntryOptions{AbsoluteExpirationRelativeToNow: -time.Second}, 20*time.Minute, now)
	require.ErrorIs(t, err, ErrInvalidExpiration)

	// An absolute deadline exactly at now is already unusable.
	exactly := now
	_, err = resolveExpiration(EntryOptions{AbsoluteExpiration: &exactly}, 20*time.Minute, now)
	require.ErrorIs(t, err, ErrInvalidExpiration)
}

func TestResolveExpirationRejectsNegativeSliding(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := resolveExpiration(EntryOptions{SlidingExpiration: -time.Minute}, 20*time.Minute, now)
	require.ErrorIs(t, err, ErrInvalidExpiration)
}

func TestNextSlidingDeadlineWithoutWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &Entry{Key: "k", ExpiresAt: now.Add(time.Hour)}

	_, due := nextSlidingDeadline(entry, now)
	require.False(t, due)
}

func TestNextSlidingDeadlineExtends(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 20 * time.Minute
	entry := &Entry{Key: "k", ExpiresAt: now.Add(5 * time.Minute), SlidingExpiration: &window}

	deadline, due := nextSlidingDeadline(entry, now)
	require.True(t, due)
	require.Equal(t, now.Add(window), deadline)
}

func TestNextSlidingDeadlineSnapsToCeiling(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 20 * time.Minute
	ceiling := now.Add(10 * time.Minute)
	entry := &Entry{
		Key:                "k",
		ExpiresAt:          now.Add(5 * time.Minute),
		AbsoluteExpiration: &ceiling,
		SlidingExpiration:  &window,
	}

	deadline, due := nextSlidingDeadline(entry, now)
	require.True(t, due)
	require.Equal(t, ceiling, deadline)
}

func TestNextSlidingDeadlinePinnedAtCeiling(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	window := 20 * time.Minute
	ceiling := now.Add(10 * time.Minute)
	entry := &Entry{
		Key:                "k",
		ExpiresAt:          ceiling,
		AbsoluteExpiration: &ceiling,
		SlidingExpiration:  &window,
	}

	_, due := nextSlidingDeadline(entry, now)
	require.False(t, due)
}
