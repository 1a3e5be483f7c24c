package availability

import (
	"context"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/uow"
	domainaccommodation "staybook/internal/domain/accommodation"
	domainavailability "staybook/internal/domain/availability"
	domainrange "staybook/internal/domain/shared/daterange"
)

const (
	blockRangeKey   = "availability.block"
	releaseRangeKey = "availability.release"
)

// BlockRangeCommand lets a host take dates off the market (maintenance,
// personal use). Blocks obey the same non-overlap invariant as bookings.
type BlockRangeCommand struct {
	AccommodationID string
	CheckIn         time.Time
	CheckOut        time.Time
	Reference       string
}

func (c BlockRangeCommand) Key() string { return blockRangeKey }

type BlockRangeResult struct {
	Token string `json:"token"`
}

type BlockRangeHandler struct {
	UoWFactory uow.UoWFactory
	Index      *domainavailability.Index
	Clock      func() time.Time
}

func (h *BlockRangeHandler) Handle(ctx context.Context, cmd BlockRangeCommand) (*BlockRangeResult, error) {
	unit, ctx, done, err := resolveUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return nil, done(err)
	}
	acc, err := unit.Accommodations().ByID(ctx, domainaccommodation.AccommodationID(cmd.AccommodationID))
	if err != nil {
		return nil, done(err)
	}

	now := time.Now().UTC()
	if h.Clock != nil {
		now = h.Clock().UTC()
	}
	token, err := h.Index.Reserve(acc.ID, dr, domainavailability.ReasonHostBlock, cmd.Reference, now)
	if err != nil {
		return nil, done(err)
	}
	uow.Compensate(ctx, func() { h.Index.Release(acc.ID, token) })
	if err := done(nil); err != nil {
		return nil, err
	}
	return &BlockRangeResult{Token: string(token)}, nil
}

// ReleaseRangeCommand removes a host block. Releasing twice is a no-op.
type ReleaseRangeCommand struct {
	AccommodationID string
	Token           string
}

func (c ReleaseRangeCommand) Key() string { return releaseRangeKey }

type ReleaseRangeResult struct {
	Released bool `json:"released"`
}

type ReleaseRangeHandler struct {
	Index *domainavailability.Index
}

func (h *ReleaseRangeHandler) Handle(ctx context.Context, cmd ReleaseRangeCommand) (*ReleaseRangeResult, error) {
	h.Index.Release(domainaccommodation.AccommodationID(cmd.AccommodationID), domainavailability.Token(cmd.Token))
	return &ReleaseRangeResult{Released: true}, nil
}

func resolveUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(err error) error, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func(err error) error { return err }, nil
	}
	if factory == nil {
		return nil, ctx, nil, uow.ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, err
	}
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	ctx = uow.ContextWithUnitOfWork(ctx, unit)
	comps := &uow.Compensations{}
	ctx = uow.ContextWithCompensations(ctx, comps)
	unitCtx := ctx
	done := func(err error) error {
		if err != nil {
			_ = unit.Rollback(unitCtx)
			comps.Run()
			return err
		}
		if err := unit.Commit(unitCtx); err != nil {
			comps.Run()
			return err
		}
		return nil
	}
	return unit, ctx, done, nil
}

var _ commands.Handler[BlockRangeCommand, *BlockRangeResult] = (*BlockRangeHandler)(nil)
var _ commands.Handler[ReleaseRangeCommand, *ReleaseRangeResult] = (*ReleaseRangeHandler)(nil)
