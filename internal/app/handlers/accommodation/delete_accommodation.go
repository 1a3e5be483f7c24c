package accommodation

import (
	"context"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	domainaccommodation "staybook/internal/domain/accommodation"
)

const deleteAccommodationKey = "accommodation.delete"

type DeleteAccommodationCommand struct {
	AccommodationID string
}

func (c DeleteAccommodationCommand) Key() string { return deleteAccommodationKey }

type DeleteAccommodationResult struct {
	Deleted bool `json:"deleted"`
}

// DeleteAccommodationHandler enforces the restrict rule: an accommodation
// with non-terminal bookings cannot be removed.
type DeleteAccommodationHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteAccommodationHandler) Handle(ctx context.Context, cmd DeleteAccommodationCommand) (*DeleteAccommodationResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	committed := false
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	id := domainaccommodation.AccommodationID(cmd.AccommodationID)
	if _, err := unit.Accommodations().ByID(ctx, id); err != nil {
		return nil, err
	}
	bookings, err := unit.Bookings().ListByAccommodation(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if !b.Status.Terminal() {
			return nil, domainaccommodation.ErrInUse
		}
	}
	if err := unit.Accommodations().Delete(ctx, id); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return &DeleteAccommodationResult{Deleted: true}, nil
}

var _ commands.Handler[DeleteAccommodationCommand, *DeleteAccommodationResult] = (*DeleteAccommodationHandler)(nil)
