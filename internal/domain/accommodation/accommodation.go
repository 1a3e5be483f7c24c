package accommodation

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/policy"
	"staybook/internal/domain/shared/money"
)

var (
	ErrNotFound       = errors.New("accommodation: not found")
	ErrInvalidRate    = errors.New("accommodation: nightly rate must be positive")
	ErrInvalidGuests  = errors.New("accommodation: max guests must be positive")
	ErrGuestsExceeded = errors.New("accommodation: guests count exceeds capacity")
	ErrInUse          = errors.New("accommodation: non-terminal bookings exist")
)

type AccommodationID string

type Tier string

const (
	TierStandard Tier = "STANDARD"
	TierPremium  Tier = "PREMIUM"
	TierLuxury   Tier = "LUXURY"
)

// Accommodation is the bookable unit. Rate and title may change over its
// lifetime; identity, capacity and the assigned cancellation policy are fixed
// once bookings reference it.
type Accommodation struct {
	ID          AccommodationID
	PropertyID  string
	Title       string
	NightlyRate money.Money
	MaxGuests   int
	PolicyID    policy.PolicyID
	Tier        Tier
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

type Repository interface {
	ByID(ctx context.Context, id AccommodationID) (*Accommodation, error)
	Save(ctx context.Context, a *Accommodation) error
	Delete(ctx context.Context, id AccommodationID) error
}

type CreateParams struct {
	ID          AccommodationID
	PropertyID  string
	Title       string
	NightlyRate money.Money
	MaxGuests   int
	PolicyID    policy.PolicyID
	Tier        Tier
	CreatedAt   time.Time
}

func New(params CreateParams) (*Accommodation, error) {
	if params.NightlyRate.Amount <= 0 {
		return nil, ErrInvalidRate
	}
	if params.MaxGuests <= 0 {
		return nil, ErrInvalidGuests
	}
	tier := params.Tier
	if tier == "" {
		tier = TierStandard
	}
	now := params.CreatedAt.UTC()
	return &Accommodation{
		ID:          params.ID,
		PropertyID:  params.PropertyID,
		Title:       params.Title,
		NightlyRate: params.NightlyRate,
		MaxGuests:   params.MaxGuests,
		PolicyID:    params.PolicyID,
		Tier:        tier,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// CheckCapacity validates a requested guest count against the unit limit.
func (a *Accommodation) CheckCapacity(guests int) error {
	if guests <= 0 {
		return ErrInvalidGuests
	}
	if guests > a.MaxGuests {
		return ErrGuestsExceeded
	}
	return nil
}

// UpdateRate changes the nightly rate; existing bookings keep their quoted
// totals.
func (a *Accommodation) UpdateRate(rate money.Money, now time.Time) error {
	if rate.Amount <= 0 {
		return ErrInvalidRate
	}
	a.NightlyRate = rate
	a.UpdatedAt = now.UTC()
	return nil
}
