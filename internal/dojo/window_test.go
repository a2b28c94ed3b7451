package dojo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in         time.Time
		start, end time.Time
	}{
		{
			in:    time.Date(2026, time.October, 18, 5, 0, 0, 0, time.UTC),
			start: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2026, time.October, 31, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			in:    time.Date(2028, time.February, 29, 23, 0, 0, 0, time.UTC),
			start: time.Date(2028, time.February, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2028, time.February, 29, 23, 59, 59, 999_000_000, time.UTC),
		},
		{
			// 2026-12-31 20:00 in UTC-5 is already January in UTC.
			in:    time.Date(2026, time.December, 31, 20, 0, 0, 0, time.FixedZone("EST", -5*60*60)),
			start: time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2027, time.January, 31, 23, 59, 59, 999_000_000, time.UTC),
		},
	}
	for _, tt := range tests {
		start, end := MonthWindow(tt.in)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}

func TestPreviousMonthWindow(t *testing.T) {
	t.Parallel()

	start, end := PreviousMonthWindow(time.Date(2027, time.January, 1, 0, 5, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.December, 31, 23, 59, 59, 999_000_000, time.UTC), end)
}
