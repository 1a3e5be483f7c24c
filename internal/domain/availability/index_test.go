package availability

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/accommodation"
	"staybook/internal/domain/shared/daterange"
)

const accID = accommodation.AccommodationID("acc-1")

var indexNow = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func rng(t *testing.T, in, out int) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.January, in, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.January, out, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dr
}

func TestReserveDetectsOverlap(t *testing.T) {
	ix := NewIndex()
	_, err := ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "bk-1", indexNow)
	require.NoError(t, err)

	// [01-03, 01-07) overlaps [01-01, 01-05).
	_, err = ix.Reserve(accID, rng(t, 3, 7), ReasonBooking, "bk-2", indexNow)
	assert.ErrorIs(t, err, ErrRangeConflict)

	// [01-05, 01-07) is back-to-back and must succeed.
	_, err = ix.Reserve(accID, rng(t, 5, 7), ReasonBooking, "bk-3", indexNow)
	assert.NoError(t, err)
}

func TestReserveInvalidRange(t *testing.T) {
	ix := NewIndex()
	_, err := ix.Reserve(accID, daterange.DateRange{}, ReasonBooking, "bk-1", indexNow)
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestQueryReflectsReservations(t *testing.T) {
	ix := NewIndex()
	assert.True(t, ix.Query(accID, rng(t, 1, 5)))

	token, err := ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "bk-1", indexNow)
	require.NoError(t, err)
	assert.False(t, ix.Query(accID, rng(t, 2, 4)))
	assert.True(t, ix.Query(accID, rng(t, 5, 9)))

	ix.Release(accID, token)
	assert.True(t, ix.Query(accID, rng(t, 2, 4)))
}

func TestReleaseIsIdempotent(t *testing.T) {
	ix := NewIndex()
	token, err := ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "bk-1", indexNow)
	require.NoError(t, err)

	ix.Release(accID, token)
	ix.Release(accID, token)
	ix.Release(accID, Token("never-issued"))
	ix.Release(accID, Token(""))

	_, err = ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "bk-2", indexNow)
	assert.NoError(t, err)
}

func TestCalendarsAreIndependent(t *testing.T) {
	ix := NewIndex()
	_, err := ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "bk-1", indexNow)
	require.NoError(t, err)

	_, err = ix.Reserve(accommodation.AccommodationID("acc-2"), rng(t, 1, 5), ReasonBooking, "bk-2", indexNow)
	assert.NoError(t, err)
}

func TestSwap(t *testing.T) {
	t.Run("moves onto a self-overlapping range", func(t *testing.T) {
		ix := NewIndex()
		token, err := ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "bk-1", indexNow)
		require.NoError(t, err)

		// Shift by two days; the new range overlaps the old one, which must
		// not count as a conflict against itself.
		newToken, err := ix.Swap(accID, token, rng(t, 3, 7), ReasonBooking, "bk-1", indexNow)
		require.NoError(t, err)
		assert.NotEqual(t, token, newToken)

		blocks := ix.Blocks(accID)
		require.Len(t, blocks, 1)
		assert.True(t, blocks[0].Range.Equal(rng(t, 3, 7)))
	})

	t.Run("conflict leaves old reservation intact", func(t *testing.T) {
		ix := NewIndex()
		token, err := ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "bk-1", indexNow)
		require.NoError(t, err)
		_, err = ix.Reserve(accID, rng(t, 10, 15), ReasonBooking, "bk-2", indexNow)
		require.NoError(t, err)

		_, err = ix.Swap(accID, token, rng(t, 12, 14), ReasonBooking, "bk-1", indexNow)
		assert.ErrorIs(t, err, ErrRangeConflict)

		assert.False(t, ix.Query(accID, rng(t, 1, 5)), "old range must still be held")
		ix.Release(accID, token)
		assert.True(t, ix.Query(accID, rng(t, 1, 5)))
	})

	t.Run("unknown token reserves fresh", func(t *testing.T) {
		ix := NewIndex()
		token, err := ix.Swap(accID, Token("gone"), rng(t, 1, 5), ReasonBooking, "bk-1", indexNow)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})
}

func TestBlocksSnapshotIsSorted(t *testing.T) {
	ix := NewIndex()
	for _, r := range [][2]int{{10, 12}, {1, 3}, {5, 7}} {
		_, err := ix.Reserve(accID, rng(t, r[0], r[1]), ReasonHostBlock, "host", indexNow)
		require.NoError(t, err)
	}
	blocks := ix.Blocks(accID)
	require.Len(t, blocks, 3)
	for i := 1; i < len(blocks); i++ {
		assert.True(t, blocks[i-1].Range.CheckIn.Before(blocks[i].Range.CheckIn))
	}
}

func TestConcurrentReserveExactlyOneWinner(t *testing.T) {
	ix := NewIndex()
	const attempts = 64

	var wg sync.WaitGroup
	tokens := make(chan Token, attempts)
	conflicts := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := ix.Reserve(accID, rng(t, 1, 5), ReasonBooking, "racer", indexNow)
			if err != nil {
				conflicts <- err
				return
			}
			tokens <- token
		}()
	}
	wg.Wait()
	close(tokens)
	close(conflicts)

	assert.Len(t, tokens, 1, "exactly one concurrent reservation must win")
	assert.Len(t, conflicts, attempts-1)
	for err := range conflicts {
		assert.ErrorIs(t, err, ErrRangeConflict)
	}
}

func TestConcurrentMixedRangesKeepInvariant(t *testing.T) {
	ix := NewIndex()
	ranges := [][2]int{{1, 5}, {3, 7}, {5, 9}, {7, 11}, {9, 13}}

	var wg sync.WaitGroup
	for _, r := range ranges {
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(in, out int) {
				defer wg.Done()
				_, _ = ix.Reserve(accID, rng(t, in, out), ReasonBooking, "racer", indexNow)
			}(r[0], r[1])
		}
	}
	wg.Wait()

	blocks := ix.Blocks(accID)
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			assert.False(t, blocks[i].Range.Overlaps(blocks[j].Range),
				"blocks %s and %s overlap", blocks[i].Range, blocks[j].Range)
		}
	}
}
