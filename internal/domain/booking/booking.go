package booking

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/accommodation"
	"staybook/internal/domain/policy"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
)

var (
	ErrBookingNotFound     = errors.New("booking: not found")
	ErrInvalidGuests       = errors.New("booking: guests count must be positive")
	ErrIllegalTransition   = errors.New("booking: illegal state transition")
	ErrAlreadyTerminal     = errors.New("booking: already in a terminal state")
	ErrPaymentHoldRequired = errors.New("booking: payment hold required before confirmation")
)

type BookingID string

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCheckedIn  Status = "CHECKED_IN"
	StatusCheckedOut Status = "CHECKED_OUT"
	StatusCancelled  Status = "CANCELLED"
	StatusExpired    Status = "EXPIRED"
	StatusNoShow     Status = "NO_SHOW"
)

// Event names a state machine trigger.
type Event string

const (
	EventConfirm  Event = "confirm"
	EventCheckIn  Event = "check_in"
	EventCheckOut Event = "check_out"
	EventCancel   Event = "cancel"
	EventExpire   Event = "expire"
	EventNoShow   Event = "no_show"
)

// transitions is the full set of legal edges; anything absent is illegal.
// Expiry fires from PENDING (stale hold sweep) and from CONFIRMED (payment
// hold timeout).
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventConfirm: StatusConfirmed,
		EventCancel:  StatusCancelled,
		EventExpire:  StatusExpired,
	},
	StatusConfirmed: {
		EventCheckIn: StatusCheckedIn,
		EventCancel:  StatusCancelled,
		EventExpire:  StatusExpired,
		EventNoShow:  StatusNoShow,
	},
	StatusCheckedIn: {
		EventCheckOut: StatusCheckedOut,
	},
}

// eventTargets maps each event to the status it lands in, used to detect
// redundant transitions into a terminal state already held.
var eventTargets = map[Event]Status{
	EventConfirm:  StatusConfirmed,
	EventCheckIn:  StatusCheckedIn,
	EventCheckOut: StatusCheckedOut,
	EventCancel:   StatusCancelled,
	EventExpire:   StatusExpired,
	EventNoShow:   StatusNoShow,
}

func (s Status) Terminal() bool {
	switch s {
	case StatusCancelled, StatusExpired, StatusNoShow, StatusCheckedOut:
		return true
	}
	return false
}

// Blocking reports whether a booking in this status holds its calendar range.
func (s Status) Blocking() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	}
	return false
}

// Booking is the reservation aggregate. Only the coordinator mutates it, and
// only through state machine transitions.
type Booking struct {
	ID              BookingID
	GuestID         string
	AccommodationID accommodation.AccommodationID
	Range           daterange.DateRange
	Guests          int
	NightlyRate     money.Money
	Total           money.Money
	Status          Status
	PaymentHold     string
	Policy          policy.CancellationPolicy
	CalendarToken   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CancelledAt     *time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, b *Booking) error
	ListByGuest(ctx context.Context, guestID string) ([]*Booking, error)
	ListByAccommodation(ctx context.Context, id accommodation.AccommodationID) ([]*Booking, error)
	ListStalePending(ctx context.Context, olderThan time.Time) ([]*Booking, error)
	ListBlocking(ctx context.Context) ([]*Booking, error)
}

type CreateParams struct {
	ID              BookingID
	GuestID         string
	AccommodationID accommodation.AccommodationID
	Range           daterange.DateRange
	Guests          int
	NightlyRate     money.Money
	Policy          policy.CancellationPolicy
	CalendarToken   string
	CreatedAt       time.Time
}

func New(params CreateParams) (*Booking, error) {
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.GuestID == "" {
		return nil, errors.New("booking: guest id required")
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:              params.ID,
		GuestID:         params.GuestID,
		AccommodationID: params.AccommodationID,
		Range:           params.Range,
		Guests:          params.Guests,
		NightlyRate:     params.NightlyRate,
		Total:           params.NightlyRate.Multiply(int64(params.Range.Nights())),
		Status:          StatusPending,
		Policy:          params.Policy,
		CalendarToken:   params.CalendarToken,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.Record(BookingRequested{BookingID: b.ID, AccommodationID: b.AccommodationID, GuestID: b.GuestID, Range: b.Range, GuestsCount: b.Guests, QuotedTotal: b.Total, At: now})
	return b, nil
}

// apply drives the table: unknown edges from a live state are programming
// errors; re-entering the terminal state already held is a no-op.
func (b *Booking) apply(ev Event, now time.Time) (changed bool, err error) {
	if next, ok := transitions[b.Status][ev]; ok {
		b.Status = next
		b.UpdatedAt = now.UTC()
		return true, nil
	}
	if b.Status.Terminal() {
		if eventTargets[ev] == b.Status {
			return false, nil
		}
		return false, ErrAlreadyTerminal
	}
	return false, ErrIllegalTransition
}

func (b *Booking) Confirm(paymentHoldID string, now time.Time) error {
	if b.Status == StatusPending && b.Total.Amount > 0 && paymentHoldID == "" {
		return ErrPaymentHoldRequired
	}
	changed, err := b.apply(EventConfirm, now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	b.PaymentHold = paymentHoldID
	b.Record(BookingConfirmed{BookingID: b.ID, AccommodationID: b.AccommodationID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	return nil
}

// Cancel drives the booking to CANCELLED and returns the refund decision the
// policy evaluator produced for the cancellation instant. A repeated cancel
// is a no-op that replays the decision made at the original cancellation
// instant, never one recomputed at the retry timestamp.
func (b *Booking) Cancel(reason string, now time.Time) (RefundDecision, error) {
	changed, err := b.apply(EventCancel, now)
	if err != nil {
		return RefundDecision{}, err
	}
	if !changed {
		at := now
		if b.CancelledAt != nil {
			at = *b.CancelledAt
		}
		return DecideRefund(&b.Policy, b.Total, b.Range, at), nil
	}
	at := b.UpdatedAt
	b.CancelledAt = &at
	decision := DecideRefund(&b.Policy, b.Total, b.Range, at)
	b.Record(BookingCancelled{BookingID: b.ID, AccommodationID: b.AccommodationID, Refund: decision.Refund, Penalty: decision.Penalty, Reason: reason, At: at})
	return decision, nil
}

func (b *Booking) Expire(now time.Time) error {
	changed, err := b.apply(EventExpire, now)
	if err != nil || !changed {
		return err
	}
	b.Record(BookingExpired{BookingID: b.ID, AccommodationID: b.AccommodationID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) CheckIn(now time.Time) error {
	changed, err := b.apply(EventCheckIn, now)
	if err != nil || !changed {
		return err
	}
	b.Record(CheckInCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) CheckOut(now time.Time) error {
	changed, err := b.apply(EventCheckOut, now)
	if err != nil || !changed {
		return err
	}
	b.Record(CheckOutCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) MarkNoShow(now time.Time) error {
	changed, err := b.apply(EventNoShow, now)
	if err != nil || !changed {
		return err
	}
	b.Record(NoShowRecorded{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Reschedule moves a live booking onto a new range whose calendar reservation
// has already been secured. The total is re-quoted from the snapshotted rate.
func (b *Booking) Reschedule(newRange daterange.DateRange, newToken string, now time.Time) error {
	if b.Status.Terminal() {
		return ErrAlreadyTerminal
	}
	if b.Status == StatusCheckedIn {
		return ErrIllegalTransition
	}
	if err := newRange.Validate(); err != nil {
		return err
	}
	old := b.Range
	b.Range = newRange
	b.CalendarToken = newToken
	b.Total = b.NightlyRate.Multiply(int64(newRange.Nights()))
	b.UpdatedAt = now.UTC()
	b.Record(BookingRescheduled{BookingID: b.ID, AccommodationID: b.AccommodationID, OldRange: old, NewRange: newRange, Total: b.Total, At: b.UpdatedAt})
	return nil
}
