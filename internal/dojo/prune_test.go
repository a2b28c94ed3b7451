package dojo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/dojobot/internal/clock"
)

func TestPruneDeletesStrictlyOlderRows(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-20 * 7 * 24 * time.Hour)
	store := newFakeStore()
	for id, at := range map[string]time.Time{
		"old":      cutoff.Add(-time.Second),
		"boundary": cutoff,
		"new":      cutoff.Add(time.Second),
	} {
		_, err := store.InsertComment(context.Background(), CommentRecord{ID: id, Author: "a", CreatedUTC: at})
		require.NoError(t, err)
	}

	n, err := NewPruner(store, clock.Fixed{At: now}, 0, zap.NewNop()).Prune(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, ok := store.records["boundary"]
	assert.True(t, ok)

	again, err := NewPruner(store, clock.Fixed{At: now}, 0, nil).Prune(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again)
}
