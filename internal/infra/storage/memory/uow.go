package memory

import (
	"context"
	"errors"

	"staybook/internal/app/uow"
	domainaccommodation "staybook/internal/domain/accommodation"
	domainbooking "staybook/internal/domain/booking"
	domainpolicy "staybook/internal/domain/policy"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	AccommodationRepo domainaccommodation.Repository
	BookingRepo       domainbooking.Repository
	PolicyRepo        domainpolicy.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight transaction boundary. No isolation is provided
// but the abstraction matches the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.AccommodationRepo == nil || f.BookingRepo == nil || f.PolicyRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		accommodations: f.AccommodationRepo,
		bookings:       f.BookingRepo,
		policies:       f.PolicyRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	accommodations domainaccommodation.Repository
	bookings       domainbooking.Repository
	policies       domainpolicy.Repository
}

func (u *Unit) Accommodations() domainaccommodation.Repository {
	return u.accommodations
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Policies() domainpolicy.Repository {
	return u.policies
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
