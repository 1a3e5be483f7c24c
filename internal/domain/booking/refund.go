package booking

import (
	"time"

	"staybook/internal/domain/policy"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

// RefundDecision is computed at cancellation time, never stored.
type RefundDecision struct {
	Fraction float64
	Refund   money.Money
	Penalty  money.Money
}

// DecideRefund applies the policy evaluator to the booking economics. The
// interrupted-stay variant kicks in only for policies carrying the provision;
// everyone else gets the pre-check-in tier scan with its hard no-refund branch.
func DecideRefund(p *policy.CancellationPolicy, total money.Money, r daterange.DateRange, cancelAt time.Time) RefundDecision {
	var fraction float64
	if p != nil {
		fraction = p.EvaluateInterrupted(r.CheckIn, r.CheckOut, cancelAt.UTC())
	}
	refund := total.Fraction(fraction)
	penalty, err := total.Sub(refund)
	if err != nil {
		penalty = money.Money{Currency: total.Currency}
	}
	return RefundDecision{Fraction: fraction, Refund: refund, Penalty: penalty}
}
