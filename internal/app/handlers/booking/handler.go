package booking

import (
	"context"
	"errors"

	"staybook/internal/app/uow"
)

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

// managedUnit resolves the ambient unit of work, starting one when the
// middleware did not. The returned done func commits on success and rolls
// back otherwise, running registered compensations whenever the command
// ultimately fails; for an ambient unit both are no-ops and the middleware
// owns the boundary.
func managedUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(err error) error, error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, ctx, func(err error) error { return err }, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkRequired
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
