package booking

import (
	"context"
	"fmt"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
)

const (
	checkInBookingKey  = "booking.check_in"
	checkOutBookingKey = "booking.check_out"
	markNoShowKey      = "booking.no_show"
)

type CheckInBookingCommand struct {
	BookingID string
}

func (c CheckInBookingCommand) Key() string { return checkInBookingKey }

type CheckOutBookingCommand struct {
	BookingID string
}

func (c CheckOutBookingCommand) Key() string { return checkOutBookingKey }

type MarkNoShowCommand struct {
	BookingID string
}

func (c MarkNoShowCommand) Key() string { return markNoShowKey }

type StayProgressResult struct {
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// StayProgressHandler drives the stay lifecycle transitions that occur at the
// property: arrival, departure and the host-reported no-show. Check-out and
// no-show release the calendar range so the dates become sellable again;
// check-out also captures the payment hold placed at confirmation.
type StayProgressHandler struct {
	UoWFactory uow.UoWFactory
	Index      *domainavailability.Index
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *StayProgressHandler) HandleCheckIn(ctx context.Context, cmd CheckInBookingCommand) (*StayProgressResult, error) {
	return h.transition(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		return b.CheckIn(now)
	}, false, false)
}

func (h *StayProgressHandler) HandleCheckOut(ctx context.Context, cmd CheckOutBookingCommand) (*StayProgressResult, error) {
	return h.transition(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		return b.CheckOut(now)
	}, true, true)
}

func (h *StayProgressHandler) HandleNoShow(ctx context.Context, cmd MarkNoShowCommand) (*StayProgressResult, error) {
	return h.transition(ctx, cmd.BookingID, func(b *domainbooking.Booking, now time.Time) error {
		return b.MarkNoShow(now)
	}, true, false)
}

func (h *StayProgressHandler) transition(ctx context.Context, bookingID string, apply func(*domainbooking.Booking, time.Time) error, release, capture bool) (*StayProgressResult, error) {
	unit, ctx, done, err := managedUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	result, err := h.handle(ctx, unit, bookingID, apply, release, capture)
	if err := done(err); err != nil {
		return nil, err
	}
	return result, nil
}

func (h *StayProgressHandler) handle(ctx context.Context, unit uow.UnitOfWork, bookingID string, apply func(*domainbooking.Booking, time.Time) error, release, capture bool) (*StayProgressResult, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(bookingID))
	if err != nil {
		return nil, err
	}
	prior := b.Status
	if err := apply(b, h.now()); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if release {
		h.Index.Release(b.AccommodationID, domainavailability.Token(b.CalendarToken))
	}

	// Capture only on the transition itself; a replayed check-out must not
	// settle the hold twice.
	if capture && prior != b.Status && h.Payments != nil && b.PaymentHold != "" {
		if err := h.Payments.Capture(ctx, b.PaymentHold); err != nil {
			return nil, fmt.Errorf("booking: hold capture: %w", err)
		}
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}
	return &StayProgressResult{BookingID: string(b.ID), Status: string(b.Status)}, nil
}

func (h *StayProgressHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *StayProgressHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

type checkInAdapter struct{ H *StayProgressHandler }

func (a checkInAdapter) Handle(ctx context.Context, cmd CheckInBookingCommand) (*StayProgressResult, error) {
	return a.H.HandleCheckIn(ctx, cmd)
}

type checkOutAdapter struct{ H *StayProgressHandler }

func (a checkOutAdapter) Handle(ctx context.Context, cmd CheckOutBookingCommand) (*StayProgressResult, error) {
	return a.H.HandleCheckOut(ctx, cmd)
}

type noShowAdapter struct{ H *StayProgressHandler }

func (a noShowAdapter) Handle(ctx context.Context, cmd MarkNoShowCommand) (*StayProgressResult, error) {
	return a.H.HandleNoShow(ctx, cmd)
}

// Adapters expose the three transitions as separately registrable handlers.
func (h *StayProgressHandler) CheckInHandler() commands.Handler[CheckInBookingCommand, *StayProgressResult] {
	return checkInAdapter{H: h}
}

func (h *StayProgressHandler) CheckOutHandler() commands.Handler[CheckOutBookingCommand, *StayProgressResult] {
	return checkOutAdapter{H: h}
}

func (h *StayProgressHandler) NoShowHandler() commands.Handler[MarkNoShowCommand, *StayProgressResult] {
	return noShowAdapter{H: h}
}
