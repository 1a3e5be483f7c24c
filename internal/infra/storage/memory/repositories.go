package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainaccommodation "staybook/internal/domain/accommodation"
	domainbooking "staybook/internal/domain/booking"
	domainpolicy "staybook/internal/domain/policy"
)

// AccommodationRepository is an in-memory implementation for dev mode and tests.
type AccommodationRepository struct {
	mu    sync.RWMutex
	items map[domainaccommodation.AccommodationID]*domainaccommodation.Accommodation
}

func NewAccommodationRepository() *AccommodationRepository {
	return &AccommodationRepository{
		items: make(map[domainaccommodation.AccommodationID]*domainaccommodation.Accommodation),
	}
}

func (r *AccommodationRepository) ByID(ctx context.Context, id domainaccommodation.AccommodationID) (*domainaccommodation.Accommodation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	acc, ok := r.items[id]
	if !ok {
		return nil, domainaccommodation.ErrNotFound
	}
	copied := *acc
	return &copied, nil
}

func (r *AccommodationRepository) Save(ctx context.Context, acc *domainaccommodation.Accommodation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *acc
	r.items[acc.ID] = &copied
	return nil
}

func (r *AccommodationRepository) Delete(ctx context.Context, id domainaccommodation.AccommodationID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainaccommodation.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// PolicyRepository keeps cancellation policies in memory. Policies are
// immutable; Save validates and rejects malformed tier sets at load time.
type PolicyRepository struct {
	mu    sync.RWMutex
	items map[domainpolicy.PolicyID]*domainpolicy.CancellationPolicy
}

func NewPolicyRepository() *PolicyRepository {
	return &PolicyRepository{items: make(map[domainpolicy.PolicyID]*domainpolicy.CancellationPolicy)}
}

func (r *PolicyRepository) ByID(ctx context.Context, id domainpolicy.PolicyID) (*domainpolicy.CancellationPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainpolicy.ErrPolicyNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *PolicyRepository) Save(ctx context.Context, p *domainpolicy.CancellationPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *p
	r.items[p.ID] = &copied
	return nil
}

// BookingRepository stores bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrBookingNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *b
	r.items[b.ID] = &copied
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.GuestID == guestID {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *BookingRepository) ListByAccommodation(ctx context.Context, id domainaccommodation.AccommodationID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.AccommodationID == id {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *BookingRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.Status == domainbooking.StatusPending && b.CreatedAt.Before(olderThan) {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (r *BookingRepository) ListBlocking(ctx context.Context) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if b.Status.Blocking() {
			copied := *b
			out = append(out, &copied)
		}
	}
	sortByCreation(out)
	return out, nil
}

func sortByCreation(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
