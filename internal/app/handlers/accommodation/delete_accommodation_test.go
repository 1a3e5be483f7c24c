package accommodation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainaccommodation "staybook/internal/domain/accommodation"
	domainbooking "staybook/internal/domain/booking"
	domainpolicy "staybook/internal/domain/policy"
	domainrange "staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/infra/storage/memory"
)

var deleteNow = time.Date(2026, time.May, 1, 12, 0, 0, 0, time.UTC)

func seedAccommodation(t *testing.T, repo *memory.AccommodationRepository) {
	t.Helper()
	acc, err := domainaccommodation.New(domainaccommodation.CreateParams{
		ID:          "acc-1",
		PropertyID:  "prop-1",
		Title:       "Harbor House",
		NightlyRate: money.Must(21000, "EUR"),
		MaxGuests:   6,
		PolicyID:    "flexible",
		CreatedAt:   deleteNow,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), acc))
}

func seedBooking(t *testing.T, repo *memory.BookingRepository, id string, terminal bool) {
	t.Helper()
	dr, err := domainrange.New(
		time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	p, err := domainpolicy.New("flexible", "Flexible", nil, 0.5, false)
	require.NoError(t, err)
	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(id),
		GuestID:         "guest-1",
		AccommodationID: "acc-1",
		Range:           dr,
		Guests:          2,
		NightlyRate:     money.Must(21000, "EUR"),
		Policy:          *p,
		CalendarToken:   "tok",
		CreatedAt:       deleteNow,
	})
	require.NoError(t, err)
	if terminal {
		require.NoError(t, b.Expire(deleteNow))
	}
	require.NoError(t, repo.Save(context.Background(), b))
}

func TestDeleteAccommodation(t *testing.T) {
	t.Run("deletes when only terminal bookings remain", func(t *testing.T) {
		accommodations := memory.NewAccommodationRepository()
		bookings := memory.NewBookingRepository()
		seedAccommodation(t, accommodations)
		seedBooking(t, bookings, "bk-done", true)

		h := &DeleteAccommodationHandler{UoWFactory: memory.Factory{
			AccommodationRepo: accommodations,
			BookingRepo:       bookings,
			PolicyRepo:        memory.NewPolicyRepository(),
		}}
		result, err := h.Handle(context.Background(), DeleteAccommodationCommand{AccommodationID: "acc-1"})
		require.NoError(t, err)
		assert.True(t, result.Deleted)

		_, err = accommodations.ByID(context.Background(), "acc-1")
		assert.ErrorIs(t, err, domainaccommodation.ErrNotFound)
	})

	t.Run("restricts while live bookings exist", func(t *testing.T) {
		accommodations := memory.NewAccommodationRepository()
		bookings := memory.NewBookingRepository()
		seedAccommodation(t, accommodations)
		seedBooking(t, bookings, "bk-live", false)

		h := &DeleteAccommodationHandler{UoWFactory: memory.Factory{
			AccommodationRepo: accommodations,
			BookingRepo:       bookings,
			PolicyRepo:        memory.NewPolicyRepository(),
		}}
		_, err := h.Handle(context.Background(), DeleteAccommodationCommand{AccommodationID: "acc-1"})
		assert.ErrorIs(t, err, domainaccommodation.ErrInUse)

		_, err = accommodations.ByID(context.Background(), "acc-1")
		assert.NoError(t, err, "accommodation must survive a restricted delete")
	})

	t.Run("unknown accommodation", func(t *testing.T) {
		h := &DeleteAccommodationHandler{UoWFactory: memory.Factory{
			AccommodationRepo: memory.NewAccommodationRepository(),
			BookingRepo:       memory.NewBookingRepository(),
			PolicyRepo:        memory.NewPolicyRepository(),
		}}
		_, err := h.Handle(context.Background(), DeleteAccommodationCommand{AccommodationID: "acc-missing"})
		assert.ErrorIs(t, err, domainaccommodation.ErrNotFound)
	})
}
