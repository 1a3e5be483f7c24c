package availability

import (
	"context"

	"staybook/internal/app/dto"
	"staybook/internal/app/queries"
	domainaccommodation "staybook/internal/domain/accommodation"
	domainavailability "staybook/internal/domain/availability"
)

const getCalendarKey = "availability.calendar"

type GetCalendarQuery struct {
	AccommodationID string
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

// GetCalendarHandler reads the live index, not the store: the index is the
// authority on which ranges block new reservations right now.
type GetCalendarHandler struct {
	Index *domainavailability.Index
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	blocks := h.Index.Blocks(domainaccommodation.AccommodationID(q.AccommodationID))
	return dto.MapCalendar(q.AccommodationID, blocks), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
