package availability

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"staybook/internal/domain/accommodation"
	"staybook/internal/domain/shared/daterange"
)

var ErrRangeConflict = errors.New("availability: range overlaps with an existing block")

// Token identifies a reserved range for later release.
type Token string

type BlockReason string

const (
	ReasonBooking   BlockReason = "BOOKING"
	ReasonHostBlock BlockReason = "HOST_BLOCK"
)

// Block is one reserved half-open range on an accommodation's calendar.
type Block struct {
	Token     Token
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

// calendar holds the non-overlapping block set of a single accommodation,
// sorted by check-in date. Its mutex is the serialization point the whole
// engine relies on: check-and-insert happens entirely under it.
type calendar struct {
	mu     sync.Mutex
	blocks []Block
	starts map[Token]time.Time
}

// Index answers overlap queries and reserves ranges per accommodation.
// Reservations on different accommodations never contend with each other.
type Index struct {
	mu        sync.RWMutex
	calendars map[accommodation.AccommodationID]*calendar
}

func NewIndex() *Index {
	return &Index{calendars: make(map[accommodation.AccommodationID]*calendar)}
}

func (ix *Index) calendarFor(id accommodation.AccommodationID) *calendar {
	ix.mu.RLock()
	cal, ok := ix.calendars[id]
	ix.mu.RUnlock()
	if ok {
		return cal
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if cal, ok = ix.calendars[id]; ok {
		return cal
	}
	cal = &calendar{starts: make(map[Token]time.Time)}
	ix.calendars[id] = cal
	return cal
}

// Query reports whether the range is currently free. The answer can be stale
// by the time the caller acts on it; Reserve is the only safe way to claim.
func (ix *Index) Query(id accommodation.AccommodationID, r daterange.DateRange) bool {
	cal := ix.calendarFor(id)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	return !cal.conflicts(r)
}

// Reserve atomically inserts the range if free and returns a release token,
// or fails with ErrRangeConflict. Among concurrent calls with overlapping
// ranges exactly one wins.
func (ix *Index) Reserve(id accommodation.AccommodationID, r daterange.DateRange, reason BlockReason, reference string, now time.Time) (Token, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if reason == "" {
		reason = ReasonBooking
	}
	cal := ix.calendarFor(id)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	if cal.conflicts(r) {
		return "", ErrRangeConflict
	}
	token := Token(uuid.NewString())
	cal.insert(Block{Token: token, Range: r, Reason: reason, Reference: reference, CreatedAt: now.UTC()})
	return token, nil
}

// Release removes a previously reserved range. Releasing an unknown or
// already-released token is a no-op.
func (ix *Index) Release(id accommodation.AccommodationID, token Token) {
	if token == "" {
		return
	}
	cal := ix.calendarFor(id)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	cal.remove(token)
}

// Swap atomically replaces the range held by oldToken with a new range,
// under the same conflict rules minus the departing block. Used for
// reschedules, where release-then-reserve would open a window for another
// caller to steal the dates. On conflict the old reservation stays intact.
func (ix *Index) Swap(id accommodation.AccommodationID, oldToken Token, r daterange.DateRange, reason BlockReason, reference string, now time.Time) (Token, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	if reason == "" {
		reason = ReasonBooking
	}
	cal := ix.calendarFor(id)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	old, had := cal.take(oldToken)
	if cal.conflicts(r) {
		if had {
			cal.insert(old)
		}
		return "", ErrRangeConflict
	}
	token := Token(uuid.NewString())
	cal.insert(Block{Token: token, Range: r, Reason: reason, Reference: reference, CreatedAt: now.UTC()})
	return token, nil
}

// Blocks returns a snapshot of the accommodation's calendar for read models.
func (ix *Index) Blocks(id accommodation.AccommodationID) []Block {
	cal := ix.calendarFor(id)
	cal.mu.Lock()
	defer cal.mu.Unlock()
	out := make([]Block, len(cal.blocks))
	copy(out, cal.blocks)
	return out
}

// conflicts runs the half-open overlap test against the sorted block set.
// Only the predecessor of the insertion point and the blocks from the
// insertion point onward can overlap, so the scan after the binary search
// terminates on the first block starting at or past the checkout date.
func (c *calendar) conflicts(r daterange.DateRange) bool {
	i := sort.Search(len(c.blocks), func(k int) bool {
		return !c.blocks[k].Range.CheckIn.Before(r.CheckIn)
	})
	if i > 0 && c.blocks[i-1].Range.CheckOut.After(r.CheckIn) {
		return true
	}
	if i < len(c.blocks) && c.blocks[i].Range.CheckIn.Before(r.CheckOut) {
		return true
	}
	return false
}

func (c *calendar) insert(block Block) {
	i := sort.Search(len(c.blocks), func(k int) bool {
		return !c.blocks[k].Range.CheckIn.Before(block.Range.CheckIn)
	})
	c.blocks = append(c.blocks, Block{})
	copy(c.blocks[i+1:], c.blocks[i:])
	c.blocks[i] = block
	c.starts[block.Token] = block.Range.CheckIn
}

func (c *calendar) remove(token Token) {
	c.take(token)
}

// take removes and returns the block held by token.
func (c *calendar) take(token Token) (Block, bool) {
	start, ok := c.starts[token]
	if !ok {
		return Block{}, false
	}
	delete(c.starts, token)
	i := sort.Search(len(c.blocks), func(k int) bool {
		return !c.blocks[k].Range.CheckIn.Before(start)
	})
	for i < len(c.blocks) && c.blocks[i].Range.CheckIn.Equal(start) {
		if c.blocks[i].Token == token {
			block := c.blocks[i]
			c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
			return block, true
		}
		i++
	}
	return Block{}, false
}
