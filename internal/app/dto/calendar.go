package dto

import (
	"time"

	domainavailability "staybook/internal/domain/availability"
)

type CalendarBlock struct {
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference,omitempty"`
}

type Calendar struct {
	AccommodationID string          `json:"accommodation_id"`
	Blocks          []CalendarBlock `json:"blocks"`
}

func MapCalendar(accommodationID string, blocks []domainavailability.Block) Calendar {
	out := Calendar{AccommodationID: accommodationID, Blocks: make([]CalendarBlock, 0, len(blocks))}
	for _, b := range blocks {
		out.Blocks = append(out.Blocks, CalendarBlock{
			CheckIn:   b.Range.CheckIn,
			CheckOut:  b.Range.CheckOut,
			Reason:    string(b.Reason),
			Reference: b.Reference,
		})
	}
	return out
}
