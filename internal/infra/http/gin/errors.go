package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainaccommodation "staybook/internal/domain/accommodation"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainpolicy "staybook/internal/domain/policy"
	domainrange "staybook/internal/domain/shared/daterange"
)

// respondError translates domain sentinels into HTTP statuses. Unknown errors
// deliberately collapse to 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domainaccommodation.ErrNotFound),
		errors.Is(err, domainbooking.ErrBookingNotFound),
		errors.Is(err, domainpolicy.ErrPolicyNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainavailability.ErrRangeConflict),
		errors.Is(err, domainbooking.ErrIllegalTransition),
		errors.Is(err, domainbooking.ErrAlreadyTerminal),
		errors.Is(err, domainbooking.ErrPaymentHoldRequired),
		errors.Is(err, domainaccommodation.ErrInUse):
		return http.StatusConflict
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainbooking.ErrCheckInInPast),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, domainaccommodation.ErrInvalidGuests),
		errors.Is(err, domainaccommodation.ErrGuestsExceeded),
		errors.Is(err, domainaccommodation.ErrInvalidRate),
		errors.Is(err, domainpolicy.ErrInvalidPolicy):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
