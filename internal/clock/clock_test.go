package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedNowIsUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("JST", 9*60*60)
	at := time.Date(2026, time.October, 1, 9, 0, 0, 0, loc)
	got := Fixed{At: at}.Now()

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(at))
	assert.Equal(t, 0, got.Hour())
}
