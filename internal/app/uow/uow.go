package uow

import (
	"context"

	domainaccommodation "staybook/internal/domain/accommodation"
	domainbooking "staybook/internal/domain/booking"
	domainpolicy "staybook/internal/domain/policy"
)

// UnitOfWork coordinates repositories inside a transaction boundary. The
// availability index lives outside it: calendar reservations are compensated
// explicitly, not rolled back.
type UnitOfWork interface {
	Accommodations() domainaccommodation.Repository
	Bookings() domainbooking.Repository
	Policies() domainpolicy.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
