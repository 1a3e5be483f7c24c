package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staybook/internal/app/commands"
	accommodationapp "staybook/internal/app/handlers/accommodation"
)

type AccommodationHandler struct {
	Commands commands.Bus
}

func (h AccommodationHandler) Delete(c *gin.Context) {
	if h.Commands == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "accommodation handler unavailable"})
		return
	}
	cmd := accommodationapp.DeleteAccommodationCommand{AccommodationID: c.Param("id")}
	if _, err := commands.Dispatch[accommodationapp.DeleteAccommodationCommand, *accommodationapp.DeleteAccommodationResult](c.Request.Context(), h.Commands, cmd); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ AccommodationHTTP = AccommodationHandler{}
