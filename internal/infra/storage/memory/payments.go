package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"staybook/internal/app/policies"
	"staybook/internal/domain/shared/money"
)

// Payments is a fake payment collaborator that records holds, captures and
// refunds.
type Payments struct {
	mu          sync.Mutex
	holds       map[string]money.Money
	captured    map[string]money.Money
	refunds     map[string]money.Money
	refundCalls map[string]int
	// FailNext makes the next call return an error; test hook.
	FailNext bool
}

func NewPayments() *Payments {
	return &Payments{
		holds:       make(map[string]money.Money),
		captured:    make(map[string]money.Money),
		refunds:     make(map[string]money.Money),
		refundCalls: make(map[string]int),
	}
}

func (p *Payments) PlaceHold(ctx context.Context, bookingID string, amount money.Money) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNext {
		p.FailNext = false
		return "", fmt.Errorf("payments: hold declined for %s", bookingID)
	}
	holdID := "hold-" + uuid.NewString()
	p.holds[holdID] = amount
	return holdID, nil
}

func (p *Payments) Capture(ctx context.Context, holdID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	amount, ok := p.holds[holdID]
	if !ok {
		return fmt.Errorf("payments: unknown hold %s", holdID)
	}
	delete(p.holds, holdID)
	p.captured[holdID] = amount
	return nil
}

func (p *Payments) Refund(ctx context.Context, bookingID string, amount money.Money) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNext {
		p.FailNext = false
		return fmt.Errorf("payments: refund rejected for %s", bookingID)
	}
	p.refunds[bookingID] = amount
	p.refundCalls[bookingID]++
	return nil
}

// RefundFor returns the recorded refund for a booking; test helper.
func (p *Payments) RefundFor(bookingID string) (money.Money, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.refunds[bookingID]
	return m, ok
}

// RefundCalls counts refund instructions issued for a booking; test helper.
func (p *Payments) RefundCalls(bookingID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refundCalls[bookingID]
}

// CapturedFor returns the settled amount for a hold; test helper.
func (p *Payments) CapturedFor(holdID string) (money.Money, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.captured[holdID]
	return m, ok
}

var _ policies.PaymentsPort = (*Payments)(nil)
