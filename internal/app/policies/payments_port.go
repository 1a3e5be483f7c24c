package policies

import (
	"context"

	"staybook/internal/domain/shared/money"
)

// PaymentsPort is the external payment collaborator. The engine never talks
// to a gateway directly; it places holds when bookings are confirmed and
// emits settlement instructions when they cancel.
type PaymentsPort interface {
	PlaceHold(ctx context.Context, bookingID string, amount money.Money) (string, error)
	Capture(ctx context.Context, holdID string) error
	Refund(ctx context.Context, bookingID string, amount money.Money) error
}
