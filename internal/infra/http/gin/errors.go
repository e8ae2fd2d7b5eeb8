package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	rentalapp "gearshare/internal/app/handlers/rental"
	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	domainrental "gearshare/internal/domain/rental"
)

// writeError maps application and domain errors onto HTTP statuses.
// Availability failures caused by a competing block are conflicts; shape
// and schedule failures are the client's problem.
func writeError(c *gin.Context, err error) {
	if ue, ok := rentalapp.AsUnavailable(err); ok {
		status := http.StatusBadRequest
		if ue.Reason == domainavailability.ReasonBlocked {
			status = http.StatusConflict
		}
		body := gin.H{"error": ue.Error(), "reason": string(ue.Reason)}
		if ue.ConflictRef != "" {
			body["conflict_ref"] = ue.ConflictRef
		}
		c.JSON(status, body)
		return
	}
	switch {
	case errors.Is(err, rentalapp.ErrReservationConflict),
		errors.Is(err, domainavailability.ErrWindowBlocked),
		errors.Is(err, domainrental.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, rentalapp.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domainlisting.ErrNotFound),
		errors.Is(err, domainrental.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, rentalapp.ErrValidation),
		errors.Is(err, domainlisting.ErrInvalidPricing),
		errors.Is(err, domainrental.ErrSelfRental),
		errors.Is(err, domainrental.ErrRenterRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// requireUser reads the caller identity from the gateway-populated header.
func requireUser(c *gin.Context) (string, bool) {
	user := c.GetHeader("X-User-ID")
	if user == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
		return "", false
	}
	return user, true
}
