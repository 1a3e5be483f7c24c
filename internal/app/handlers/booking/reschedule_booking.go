package booking

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainrange "staybook/internal/domain/shared/daterange"
)

const rescheduleBookingKey = "booking.reschedule"

type RescheduleBookingCommand struct {
	BookingID string
	CheckIn   time.Time
	CheckOut  time.Time
}

func (c RescheduleBookingCommand) Key() string { return rescheduleBookingKey }

type RescheduleBookingResult struct {
	BookingID string `json:"booking_id"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

// RescheduleBookingHandler moves a live booking to new dates. The new range
// is reserved before anything changes, so a conflict leaves the booking and
// its current reservation untouched; the old range is released only after
// the rescheduled booking is persisted.
type RescheduleBookingHandler struct {
	UoWFactory uow.UoWFactory
	Index      *domainavailability.Index
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *RescheduleBookingHandler) Handle(ctx context.Context, cmd RescheduleBookingCommand) (*RescheduleBookingResult, error) {
	unit, ctx, done, err := managedUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	result, err := h.handle(ctx, unit, cmd)
	if err := done(err); err != nil {
		return nil, err
	}
	return result, nil
}

func (h *RescheduleBookingHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd RescheduleBookingCommand) (*RescheduleBookingResult, error) {
	now := h.now()
	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := domainbooking.ValidateDateRange(dr, now); err != nil {
		return nil, err
	}

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, domainbooking.ErrAlreadyTerminal
	}

	// Swap holds the calendar lock across remove-check-insert, so a
	// reschedule overlapping the booking's own current range succeeds while
	// conflicts with anyone else's block leave the old reservation intact.
	oldRange := b.Range
	newToken, err := h.Index.Swap(b.AccommodationID, domainavailability.Token(b.CalendarToken), dr, domainavailability.ReasonBooking, string(b.ID), now)
	if err != nil {
		return nil, err
	}

	if err := b.Reschedule(dr, string(newToken), now); err != nil {
		h.restore(b, oldRange, newToken, now)
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		h.restore(b, oldRange, newToken, now)
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	return &RescheduleBookingResult{BookingID: string(b.ID), Total: b.Total.Amount, Currency: b.Total.Currency}, nil
}

// restore compensates a failed reschedule by swapping the calendar back to
// the original range. Best effort: the range was held an instant ago, so the
// swap back cannot conflict with anyone but the booking itself.
func (h *RescheduleBookingHandler) restore(b *domainbooking.Booking, oldRange domainrange.DateRange, newToken domainavailability.Token, now time.Time) {
	restored, err := h.Index.Swap(b.AccommodationID, newToken, oldRange, domainavailability.ReasonBooking, string(b.ID), now)
	if err != nil {
		return
	}
	b.CalendarToken = string(restored)
}

func (h *RescheduleBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RescheduleBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RescheduleBookingCommand, *RescheduleBookingResult] = (*RescheduleBookingHandler)(nil)
