package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/outbox"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
)

const expireSweepKey = "booking.expire_sweep"

type ExpireSweepCommand struct {
	Now time.Time
}

func (c ExpireSweepCommand) Key() string { return expireSweepKey }

type ExpireSweepResult struct {
	Expired int `json:"expired"`
	Skipped int `json:"skipped"`
}

// ExpireSweepHandler transitions PENDING bookings older than the hold window
// to EXPIRED and releases their ranges. Per-booking failures are logged and
// skipped so one bad row never aborts the sweep; bookings a user cancelled
// concurrently show up terminal and are skipped the same way.
type ExpireSweepHandler struct {
	UoWFactory uow.UoWFactory
	Index      *domainavailability.Index
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	HoldWindow time.Duration
	Logger     *slog.Logger
}

func (h *ExpireSweepHandler) Handle(ctx context.Context, cmd ExpireSweepCommand) (*ExpireSweepResult, error) {
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

func (h *ExpireSweepHandler) handle(ctx context.Context, unit uow.UnitOfWork, cmd ExpireSweepCommand) (*ExpireSweepResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	window := h.HoldWindow
	if window <= 0 {
		window = 30 * time.Minute
	}
	cutoff := now.Add(-window)

	stale, err := unit.Bookings().ListStalePending(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &ExpireSweepResult{}
	for _, b := range stale {
		if err := h.expireOne(ctx, unit, b, now); err != nil {
			result.Skipped++
			h.log().Warn("expire sweep: booking skipped", "booking_id", b.ID, "error", err)
			continue
		}
		result.Expired++
	}
	return result, nil
}

func (h *ExpireSweepHandler) expireOne(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) error {
	if err := b.Expire(now); err != nil {
		if errors.Is(err, domainbooking.ErrAlreadyTerminal) {
			// Raced with a user-initiated cancellation; its range is gone.
			return nil
		}
		return err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return err
	}
	h.Index.Release(b.AccommodationID, domainavailability.Token(b.CalendarToken))

	pending := b.PendingEvents()
	b.ClearEvents()
	return outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending)
}

func (h *ExpireSweepHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ExpireSweepHandler) log() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[ExpireSweepCommand, *ExpireSweepResult] = (*ExpireSweepHandler)(nil)
