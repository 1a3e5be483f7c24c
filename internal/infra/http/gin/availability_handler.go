package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	availabilityapp "staybook/internal/app/handlers/availability"
	"staybook/internal/app/queries"
)

// AvailabilityHandler exposes the calendar index over HTTP.
type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	if h.Queries == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	query := availabilityapp.GetCalendarQuery{AccommodationID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockRangeRequest struct {
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Reference string `json:"reference"`
}

func (h AvailabilityHandler) Block(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	var req blockRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	checkIn, ok := parseDay(req.CheckIn)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in must be an RFC3339 timestamp or YYYY-MM-DD date"})
		return
	}
	checkOut, ok := parseDay(req.CheckOut)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out must be an RFC3339 timestamp or YYYY-MM-DD date"})
		return
	}
	cmd := availabilityapp.BlockRangeCommand{
		AccommodationID: c.Param("id"),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Reference:       req.Reference,
	}
	result, err := commands.Dispatch[availabilityapp.BlockRangeCommand, *availabilityapp.BlockRangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AvailabilityHandler) Unblock(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "availability handler unavailable"})
		return
	}
	cmd := availabilityapp.ReleaseRangeCommand{
		AccommodationID: c.Param("id"),
		Token:           c.Param("token"),
	}
	result, err := commands.Dispatch[availabilityapp.ReleaseRangeCommand, *availabilityapp.ReleaseRangeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
