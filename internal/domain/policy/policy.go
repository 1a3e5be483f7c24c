package policy

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidPolicy  = errors.New("policy: malformed refund tier set")
	ErrPolicyNotFound = errors.New("policy: not found")
)

type PolicyID string

// Tier grants Fraction of the paid amount back when the guest cancels at
// least DaysBefore full days ahead of check-in.
type Tier struct {
	DaysBefore int
	Fraction   float64
}

// CancellationPolicy is an immutable, ordered refund rule set. Tiers are kept
// most generous first: strictly descending DaysBefore, non-increasing
// Fraction. DefaultFraction applies when no tier threshold is met before
// check-in. StayInterrupted enables pro-rated refunds after check-in.
type CancellationPolicy struct {
	ID              PolicyID
	Name            string
	Tiers           []Tier
	DefaultFraction float64
	StayInterrupted bool
}

type Repository interface {
	ByID(ctx context.Context, id PolicyID) (*CancellationPolicy, error)
	Save(ctx context.Context, p *CancellationPolicy) error
}

// New validates tier ordering at construction; policies are never mutated
// afterwards.
func New(id PolicyID, name string, tiers []Tier, defaultFraction float64, stayInterrupted bool) (*CancellationPolicy, error) {
	p := &CancellationPolicy{
		ID:              id,
		Name:            name,
		Tiers:           append([]Tier(nil), tiers...),
		DefaultFraction: defaultFraction,
		StayInterrupted: stayInterrupted,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *CancellationPolicy) Validate() error {
	if p == nil || p.ID == "" {
		return ErrInvalidPolicy
	}
	if p.DefaultFraction < 0 || p.DefaultFraction > 1 {
		return ErrInvalidPolicy
	}
	prevDays := -1
	prevFraction := 2.0
	for _, tier := range p.Tiers {
		if tier.DaysBefore <= 0 {
			return ErrInvalidPolicy
		}
		if tier.Fraction < 0 || tier.Fraction > 1 {
			return ErrInvalidPolicy
		}
		if prevDays >= 0 && tier.DaysBefore >= prevDays {
			return ErrInvalidPolicy
		}
		if tier.Fraction > prevFraction {
			return ErrInvalidPolicy
		}
		prevDays = tier.DaysBefore
		prevFraction = tier.Fraction
	}
	if len(p.Tiers) > 0 && p.DefaultFraction > p.Tiers[len(p.Tiers)-1].Fraction {
		return ErrInvalidPolicy
	}
	return nil
}

// Evaluate returns the refund fraction for a cancellation at cancelAt against
// a stay starting at checkIn. Cancelling at or after check-in hits the
// explicit no-refund branch, never the tier scan.
func (p *CancellationPolicy) Evaluate(checkIn, cancelAt time.Time) float64 {
	if !cancelAt.Before(checkIn) {
		return 0
	}
	daysBefore := int(checkIn.Sub(cancelAt).Hours() / 24)
	for _, tier := range p.Tiers {
		if daysBefore >= tier.DaysBefore {
			return tier.Fraction
		}
	}
	return p.DefaultFraction
}

// EvaluateInterrupted extends Evaluate for policies with a post-check-in
// provision: once the stay has begun, the unused portion of the stay is
// refunded pro-rata. Policies without the provision fall back to the plain
// evaluator and its no-refund branch.
func (p *CancellationPolicy) EvaluateInterrupted(checkIn, checkOut, cancelAt time.Time) float64 {
	if cancelAt.Before(checkIn) || !p.StayInterrupted {
		return p.Evaluate(checkIn, cancelAt)
	}
	if !cancelAt.Before(checkOut) {
		return 0
	}
	totalNights := checkOut.Sub(checkIn).Hours() / 24
	if totalNights <= 0 {
		return 0
	}
	unusedNights := checkOut.Sub(cancelAt).Hours() / 24
	return unusedNights / totalNights
}
