package booking

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
)

// RebuildIndex reloads every range-blocking booking from the store into a
// fresh availability index. Run once at startup, before requests are served;
// tokens are reissued and written back so later releases find their blocks.
func RebuildIndex(ctx context.Context, factory uow.UoWFactory, index *domainavailability.Index, logger *slog.Logger) error {
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	active, err := unit.Bookings().ListBlocking(ctx)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, b := range active {
		token, err := index.Reserve(b.AccommodationID, b.Range, domainavailability.ReasonBooking, string(b.ID), now)
		if err != nil {
			// Two live bookings on one range means the store was corrupted
			// outside this engine; keep the first and surface the rest.
			if logger != nil {
				logger.Error("index rebuild: conflicting persisted booking", "booking_id", b.ID, "range", b.Range.String(), "error", err)
			}
			continue
		}
		if string(token) != b.CalendarToken {
			b.CalendarToken = string(token)
			if err := unit.Bookings().Save(ctx, b); err != nil {
				return err
			}
		}
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
