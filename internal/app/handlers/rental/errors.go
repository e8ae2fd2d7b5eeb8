package rental

import (
	"errors"
	"fmt"

	domainavailability "gearshare/internal/domain/availability"
)

var (
	ErrValidation          = errors.New("rental: invalid request")
	ErrReservationConflict = errors.New("rental: lost reservation race, re-query availability")
	ErrForbidden           = errors.New("rental: requester is not a party to this rental")
	ErrUnitOfWorkRequired  = errors.New("rental: unit of work required")
)

// UnavailableError carries the first failing availability reason so callers
// can render an actionable message.
type UnavailableError struct {
	Reason      domainavailability.Reason
	ConflictRef string
}

func (e *UnavailableError) Error() string {
	if e.ConflictRef != "" {
		return fmt.Sprintf("rental: window unavailable (%s, conflicts with %s)", e.Reason, e.ConflictRef)
	}
	return fmt.Sprintf("rental: window unavailable (%s)", e.Reason)
}

// AsUnavailable unwraps an UnavailableError if err carries one.
func AsUnavailable(err error) (*UnavailableError, bool) {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
