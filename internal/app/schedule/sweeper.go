package schedule

import (
	"context"
	"log/slog"
	"time"

	"staybook/internal/app/commands"
	bookingapp "staybook/internal/app/handlers/booking"
)

// Sweeper periodically dispatches the stale-hold expiry command. It is the
// scheduler collaborator for the reservation engine: the engine exposes the
// sweep, the sweeper decides when it runs.
type Sweeper struct {
	Commands commands.Bus
	Interval time.Duration
	Logger   *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("expiry sweeper started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			log.Info("expiry sweeper stopped")
			return
		case now := <-ticker.C:
			result, err := commands.Dispatch[bookingapp.ExpireSweepCommand, *bookingapp.ExpireSweepResult](ctx, s.Commands, bookingapp.ExpireSweepCommand{Now: now})
			if err != nil {
				log.Error("expiry sweep failed", "error", err)
				continue
			}
			if result.Expired > 0 || result.Skipped > 0 {
				log.Info("expiry sweep completed", "expired", result.Expired, "skipped", result.Skipped)
			}
		}
	}
}
