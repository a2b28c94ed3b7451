package memory

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	payload := []byte(`{"month":"2026-09"}`)
	uri, err := store.PutObject(context.Background(), "leaderboards/2026-09.json", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	assert.Equal(t, "memory://leaderboards/2026-09.json", uri)

	payload[0] = '['
	stored, contentType, ok := store.Object("leaderboards/2026-09.json")
	require.True(t, ok)
	assert.Equal(t, `{"month":"2026-09"}`, string(stored))
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, []string{"leaderboards/2026-09.json"}, store.Paths())
}

func TestBlobStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewBlobStore().PutObject(context.Background(), " ", "", strings.NewReader("x"))
	assert.Error(t, err)

	_, _, ok := NewBlobStore().Object("missing")
	assert.False(t, ok)
}
