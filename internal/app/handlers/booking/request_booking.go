package booking

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainaccommodation "staybook/internal/domain/accommodation"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainrange "staybook/internal/domain/shared/daterange"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	CommandID       string
	AccommodationID string
	GuestID         string
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

func (c RequestBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestBookingCommand) ResultPrototype() any { return &RequestBookingResult{} }

type RequestBookingResult struct {
	BookingID string `json:"booking_id"`
	Total     int64  `json:"total"`
	Currency  string `json:"currency"`
}

// RequestBookingHandler creates pending bookings. The calendar reservation is
// taken before the booking row is persisted; when the command fails at any
// later point, including the commit, the registered compensation releases the
// reservation so no orphaned block survives.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Index      *domainavailability.Index
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*RequestBookingResult, error) {
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

func (h *RequestBookingHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd RequestBookingCommand) (*RequestBookingResult, error) {
	now := h.now()
	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := domainbooking.ValidateDateRange(dr, now); err != nil {
		return nil, err
	}

	acc, err := unit.Accommodations().ByID(ctx, domainaccommodation.AccommodationID(cmd.AccommodationID))
	if err != nil {
		return nil, err
	}
	if err := acc.CheckCapacity(cmd.Guests); err != nil {
		return nil, err
	}

	pol, err := unit.Policies().ByID(ctx, acc.PolicyID)
	if err != nil {
		return nil, err
	}
	if err := pol.Validate(); err != nil {
		return nil, err
	}

	token, err := h.Index.Reserve(acc.ID, dr, domainavailability.ReasonBooking, cmd.CommandID, now)
	if err != nil {
		return nil, err
	}
	uow.Compensate(ctx, func() { h.Index.Release(acc.ID, token) })

	b, err := domainbooking.New(domainbooking.CreateParams{
		ID:              domainbooking.BookingID(cmd.CommandID),
		GuestID:         cmd.GuestID,
		AccommodationID: acc.ID,
		Range:           dr,
		Guests:          cmd.Guests,
		NightlyRate:     acc.NightlyRate,
		Policy:          *pol,
		CalendarToken:   string(token),
		CreatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	pending := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	return &RequestBookingResult{
		BookingID: string(b.ID),
		Total:     b.Total.Amount,
		Currency:  b.Total.Currency,
	}, nil
}

func (h *RequestBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Clock != nil {
		return h.Clock().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *RequestBookingResult] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
