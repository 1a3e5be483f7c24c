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

const cancelBookingKey = "booking.cancel"

type CancelBookingCommand struct {
	BookingID string
	Reason    string
	At        time.Time
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

type CancelBookingResult struct {
	BookingID string  `json:"booking_id"`
	Fraction  float64 `json:"refund_fraction"`
	Refund    int64   `json:"refund"`
	Penalty   int64   `json:"penalty"`
	Currency  string  `json:"currency"`
}

// CancelBookingHandler drives the state machine to CANCELLED, releases the
// calendar range, and forwards the refund instruction to the payment
// collaborator.
type CancelBookingHandler struct {
	UoWFactory uow.UoWFactory
	Index      *domainavailability.Index
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*CancelBookingResult, error) {
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

func (h *CancelBookingHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd CancelBookingCommand) (*CancelBookingResult, error) {
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return nil, err
	}

	at := cmd.At
	if at.IsZero() {
		at = h.now()
	}
	prior := b.Status
	decision, err := b.Cancel(cmd.Reason, at)
	if err != nil {
		return nil, err
	}

	// A replayed cancel reports the original decision without persisting,
	// releasing, or settling a second time.
	if prior != domainbooking.StatusCancelled {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return nil, err
		}

		h.Index.Release(b.AccommodationID, domainavailability.Token(b.CalendarToken))

		pending := b.PendingEvents()
		b.ClearEvents()
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
			return nil, err
		}

		if h.Payments != nil && decision.Refund.Amount > 0 {
			if err := h.Payments.Refund(ctx, string(b.ID), decision.Refund); err != nil {
				return nil, fmt.Errorf("booking: refund settlement: %w", err)
			}
		}
	}

	return &CancelBookingResult{
		BookingID: string(b.ID),
		Fraction:  decision.Fraction,
		Refund:    decision.Refund.Amount,
		Penalty:   decision.Penalty.Amount,
		Currency:  b.Total.Currency,
	}, nil
}

func (h *CancelBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CancelBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelBookingCommand, *CancelBookingResult] = (*CancelBookingHandler)(nil)
