package payment

import (
	"errors"
	"strings"

	"gearshare/internal/domain/rental"
)

var ErrInvalidReference = errors.New("payment: malformed external reference")

const PurposeDeposit = "deposit"

// Reference is the round-tripped external_reference attached to a payment
// intent so notifications can be tied back to a rental.
// Wire format: purpose:rentalID:userID.
type Reference struct {
	Purpose  string
	RentalID rental.RentalID
	UserID   string
}

func (r Reference) Encode() string {
	return r.Purpose + ":" + string(r.RentalID) + ":" + r.UserID
}

func ParseReference(raw string) (Reference, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Reference{}, ErrInvalidReference
	}
	return Reference{
		Purpose:  parts[0],
		RentalID: rental.RentalID(parts[1]),
		UserID:   parts[2],
	}, nil
}
