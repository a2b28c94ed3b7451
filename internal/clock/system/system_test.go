package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/dojobot/internal/clock"
)

func TestNowTracksWallClockInUTC(t *testing.T) {
	t.Parallel()

	var clk clock.Clock = New()
	require.NotNil(t, clk)

	got := clk.Now()
	assert.Equal(t, time.UTC, got.Location())
	assert.WithinDuration(t, time.Now(), got, time.Second)
}

func TestNowNeverGoesBackwards(t *testing.T) {
	t.Parallel()

	clk := New()
	prev := clk.Now()
	for range 100 {
		next := clk.Now()
		assert.False(t, next.Before(prev), "%v before %v", next, prev)
		prev = next
	}
}
