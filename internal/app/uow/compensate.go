package uow

import (
	"context"
	"sync"
)

// Compensations collects undo actions for side effects taken outside the
// transactional store, such as calendar reservations. They run when the
// command ultimately fails, including a failed commit. Actions must be
// idempotent: a handler-local undo and a registered one may both fire.
type Compensations struct {
	mu  sync.Mutex
	fns []func()
}

func (c *Compensations) Add(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

// Run executes the registered actions in reverse order and clears them.
func (c *Compensations) Run() {
	c.mu.Lock()
	fns := c.fns
	c.fns = nil
	c.mu.Unlock()
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

type compensationsKey struct{}

func ContextWithCompensations(ctx context.Context, c *Compensations) context.Context {
	return context.WithValue(ctx, compensationsKey{}, c)
}

func CompensationsFromContext(ctx context.Context) (*Compensations, bool) {
	c, ok := ctx.Value(compensationsKey{}).(*Compensations)
	return c, ok
}

// Compensate registers an undo action with the ambient registry, if any.
func Compensate(ctx context.Context, fn func()) {
	if c, ok := CompensationsFromContext(ctx); ok {
		c.Add(fn)
	}
}
