package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/accommodation"
	"staybook/internal/domain/policy"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var testNow = time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

func testRange(t *testing.T) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return dr
}

func testPolicy(t *testing.T) policy.CancellationPolicy {
	t.Helper()
	p, err := policy.New("moderate-5d", "Moderate 5 Days", []policy.Tier{
		{DaysBefore: 5, Fraction: 1.0},
		{DaysBefore: 2, Fraction: 0.5},
	}, 0, false)
	require.NoError(t, err)
	return *p
}

func newTestBooking(t *testing.T) *Booking {
	t.Helper()
	b, err := New(CreateParams{
		ID:              "bk-1",
		GuestID:         "guest-1",
		AccommodationID: accommodation.AccommodationID("acc-1"),
		Range:           testRange(t),
		Guests:          2,
		NightlyRate:     money.Must(10000, "EUR"),
		Policy:          testPolicy(t),
		CalendarToken:   "tok-1",
		CreatedAt:       testNow,
	})
	require.NoError(t, err)
	return b
}

func TestNewQuotesTotalAndStartsPending(t *testing.T) {
	b := newTestBooking(t)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, int64(40000), b.Total.Amount) // 4 nights at 10000
	assert.Len(t, b.PendingEvents(), 1)
	assert.Equal(t, "booking.requested", b.PendingEvents()[0].EventName())
}

func TestNewValidation(t *testing.T) {
	params := CreateParams{
		ID:          "bk-2",
		GuestID:     "guest-1",
		Range:       testRange(t),
		Guests:      0,
		NightlyRate: money.Must(10000, "EUR"),
		CreatedAt:   testNow,
	}
	_, err := New(params)
	assert.ErrorIs(t, err, ErrInvalidGuests)

	params.Guests = 2
	params.GuestID = ""
	_, err = New(params)
	assert.Error(t, err)
}

func TestHappyPathLifecycle(t *testing.T) {
	b := newTestBooking(t)

	require.NoError(t, b.Confirm("hold-1", testNow))
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, "hold-1", b.PaymentHold)

	require.NoError(t, b.CheckIn(testNow))
	assert.Equal(t, StatusCheckedIn, b.Status)

	require.NoError(t, b.CheckOut(testNow))
	assert.Equal(t, StatusCheckedOut, b.Status)
	assert.True(t, b.Status.Terminal())
}

func TestIllegalTransitions(t *testing.T) {
	t.Run("pending cannot check in", func(t *testing.T) {
		b := newTestBooking(t)
		assert.ErrorIs(t, b.CheckIn(testNow), ErrIllegalTransition)
	})
	t.Run("pending cannot check out", func(t *testing.T) {
		b := newTestBooking(t)
		assert.ErrorIs(t, b.CheckOut(testNow), ErrIllegalTransition)
	})
	t.Run("pending cannot no-show", func(t *testing.T) {
		b := newTestBooking(t)
		assert.ErrorIs(t, b.MarkNoShow(testNow), ErrIllegalTransition)
	})
	t.Run("checked-in cannot cancel", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Confirm("hold-1", testNow))
		require.NoError(t, b.CheckIn(testNow))
		_, err := b.Cancel("change of plans", testNow)
		assert.ErrorIs(t, err, ErrIllegalTransition)
	})
}

func TestTerminalStates(t *testing.T) {
	t.Run("re-entering the held terminal state is a no-op", func(t *testing.T) {
		b := newTestBooking(t)
		_, err := b.Cancel("first", testNow)
		require.NoError(t, err)
		before := b.UpdatedAt

		_, err = b.Cancel("second", testNow.Add(time.Hour))
		assert.NoError(t, err)
		assert.Equal(t, before, b.UpdatedAt)
		assert.Equal(t, StatusCancelled, b.Status)
	})

	t.Run("other transitions from terminal fail", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Expire(testNow))
		assert.ErrorIs(t, b.Confirm("hold-1", testNow), ErrAlreadyTerminal)
		_, err := b.Cancel("too late", testNow)
		assert.ErrorIs(t, err, ErrAlreadyTerminal)
	})
}

func TestConfirmRequiresPaymentHold(t *testing.T) {
	b := newTestBooking(t)
	assert.ErrorIs(t, b.Confirm("", testNow), ErrPaymentHoldRequired)
	assert.Equal(t, StatusPending, b.Status)

	// Zero-total bookings confirm without a hold.
	free := newTestBooking(t)
	free.Total = money.Money{Amount: 0, Currency: "EUR"}
	assert.NoError(t, free.Confirm("", testNow))
	assert.Equal(t, StatusConfirmed, free.Status)
}

func TestExpireFromPendingAndConfirmed(t *testing.T) {
	pending := newTestBooking(t)
	require.NoError(t, pending.Expire(testNow))
	assert.Equal(t, StatusExpired, pending.Status)

	confirmed := newTestBooking(t)
	require.NoError(t, confirmed.Confirm("hold-1", testNow))
	require.NoError(t, confirmed.Expire(testNow))
	assert.Equal(t, StatusExpired, confirmed.Status)
}

func TestNoShowOnlyFromConfirmed(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Confirm("hold-1", testNow))
	require.NoError(t, b.MarkNoShow(testNow))
	assert.Equal(t, StatusNoShow, b.Status)
}

func TestCancelComputesRefundDecision(t *testing.T) {
	b := newTestBooking(t)
	require.NoError(t, b.Confirm("hold-1", testNow))

	// Seven days before check-in: full refund tier.
	cancelAt := b.Range.CheckIn.AddDate(0, 0, -7)
	decision, err := b.Cancel("trip cancelled", cancelAt)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, decision.Fraction, 1e-9)
	assert.Equal(t, b.Total.Amount, decision.Refund.Amount)
	assert.Equal(t, int64(0), decision.Penalty.Amount)
	require.NotNil(t, b.CancelledAt)
	assert.Equal(t, StatusCancelled, b.Status)
}

func TestCancelRefundPlusPenaltyEqualsTotal(t *testing.T) {
	for _, daysBefore := range []int{7, 5, 3, 2, 1, 0} {
		b := newTestBooking(t)
		cancelAt := b.Range.CheckIn.AddDate(0, 0, -daysBefore)
		decision, err := b.Cancel("test", cancelAt)
		require.NoError(t, err)
		assert.Equal(t, b.Total.Amount, decision.Refund.Amount+decision.Penalty.Amount,
			"refund and penalty must partition the total at %d days before", daysBefore)
	}
}

func TestCancelReplayKeepsOriginalDecision(t *testing.T) {
	b := newTestBooking(t)
	firstAt := b.Range.CheckIn.AddDate(0, 0, -3)
	first, err := b.Cancel("change of plans", firstAt)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, first.Fraction, 1e-9)

	// A fresh evaluation at the retry instant would grant nothing; the
	// replay must report the decision made at the original cancellation.
	retryAt := b.Range.CheckIn.AddDate(0, 0, -1)
	replay, err := b.Cancel("change of plans", retryAt)
	require.NoError(t, err)
	assert.InDelta(t, first.Fraction, replay.Fraction, 1e-9)
	assert.Equal(t, first.Refund.Amount, replay.Refund.Amount)
	assert.Equal(t, first.Penalty.Amount, replay.Penalty.Amount)
}

func TestRescheduleRequotesTotal(t *testing.T) {
	b := newTestBooking(t)
	newRange, err := daterange.New(
		time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	require.NoError(t, b.Reschedule(newRange, "tok-2", testNow))
	assert.Equal(t, int64(20000), b.Total.Amount) // 2 nights
	assert.Equal(t, "tok-2", b.CalendarToken)
	assert.True(t, b.Range.Equal(newRange))
}

func TestRescheduleRejectsTerminalAndInHouse(t *testing.T) {
	newRange, err := daterange.New(
		time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)

	expired := newTestBooking(t)
	require.NoError(t, expired.Expire(testNow))
	assert.ErrorIs(t, expired.Reschedule(newRange, "tok-2", testNow), ErrAlreadyTerminal)

	inHouse := newTestBooking(t)
	require.NoError(t, inHouse.Confirm("hold-1", testNow))
	require.NoError(t, inHouse.CheckIn(testNow))
	assert.ErrorIs(t, inHouse.Reschedule(newRange, "tok-2", testNow), ErrIllegalTransition)
}

func TestValidateDateRangeRejectsPastCheckIn(t *testing.T) {
	dr := testRange(t)
	assert.NoError(t, ValidateDateRange(dr, testNow))

	late := dr.CheckIn.AddDate(0, 0, 1)
	assert.ErrorIs(t, ValidateDateRange(dr, late), ErrCheckInInPast)

	// Same calendar day still boards.
	sameDay := dr.CheckIn.Add(18 * time.Hour)
	assert.NoError(t, ValidateDateRange(dr, sameDay))
}

func TestDecideRefundInterruptedStay(t *testing.T) {
	p, err := policy.New("interruptible", "Interruptible", nil, 0, true)
	require.NoError(t, err)

	dr := testRange(t) // 4 nights
	total := money.Must(40000, "EUR")
	cancelAt := dr.CheckIn.AddDate(0, 0, 1) // 1 night used, 3 unused

	decision := DecideRefund(p, total, dr, cancelAt)
	assert.InDelta(t, 0.75, decision.Fraction, 1e-9)
	assert.Equal(t, int64(30000), decision.Refund.Amount)
	assert.Equal(t, int64(10000), decision.Penalty.Amount)
}
