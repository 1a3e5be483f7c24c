package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, in, out int) DateRange {
	t.Helper()
	dr, err := New(day(in), day(out))
	require.NoError(t, err)
	return dr
}

func TestNewRejectsEmptyOrInverted(t *testing.T) {
	cases := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
	}{
		{"zero check-in", time.Time{}, day(5)},
		{"zero check-out", day(5), time.Time{}},
		{"same day", day(5), day(5)},
		{"inverted", day(7), day(5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.checkIn, tc.checkOut)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestNights(t *testing.T) {
	assert.Equal(t, 1, mustRange(t, 1, 2).Nights())
	assert.Equal(t, 4, mustRange(t, 1, 5).Nights())
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	base := mustRange(t, 1, 5)

	cases := []struct {
		name    string
		other   DateRange
		overlap bool
	}{
		{"identical", mustRange(t, 1, 5), true},
		{"contained", mustRange(t, 2, 4), true},
		{"straddles start", mustRange(t, 3, 7), true},
		{"adjacent after", mustRange(t, 5, 7), false},
		{"shares first night", mustRange(t, 1, 2), true},
		{"disjoint", mustRange(t, 6, 8), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overlap, base.Overlaps(tc.other))
			assert.Equal(t, tc.overlap, tc.other.Overlaps(base))
		})
	}
}

func TestAdjacent(t *testing.T) {
	base := mustRange(t, 1, 5)
	assert.True(t, base.Adjacent(mustRange(t, 5, 7)))
	assert.True(t, mustRange(t, 5, 7).Adjacent(base))
	assert.False(t, base.Adjacent(mustRange(t, 6, 8)))
	assert.False(t, base.Adjacent(mustRange(t, 3, 7)))
}

func TestContainsDate(t *testing.T) {
	dr := mustRange(t, 1, 5)
	assert.True(t, dr.ContainsDate(day(1)))
	assert.True(t, dr.ContainsDate(day(4)))
	assert.False(t, dr.ContainsDate(day(5)))
	assert.False(t, dr.ContainsDate(day(6)))
}

func TestMerge(t *testing.T) {
	merged, ok := mustRange(t, 1, 5).Merge(mustRange(t, 5, 8))
	require.True(t, ok)
	assert.True(t, merged.Equal(mustRange(t, 1, 8)))

	merged, ok = mustRange(t, 1, 5).Merge(mustRange(t, 3, 6))
	require.True(t, ok)
	assert.True(t, merged.Equal(mustRange(t, 1, 6)))

	_, ok = mustRange(t, 1, 3).Merge(mustRange(t, 5, 8))
	assert.False(t, ok)
}
