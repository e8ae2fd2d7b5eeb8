package payment

import (
	"time"

	"gearshare/internal/domain/rental"
)

// GatewayStatus is the provider-side payment state carried by a
// notification. The set mirrors what gateways actually send; anything else
// is treated as unknown and dropped.
type GatewayStatus string

const (
	StatusApproved    GatewayStatus = "approved"
	StatusAuthorized  GatewayStatus = "authorized"
	StatusPending     GatewayStatus = "pending"
	StatusInProcess   GatewayStatus = "in_process"
	StatusRejected    GatewayStatus = "rejected"
	StatusCancelled   GatewayStatus = "cancelled"
	StatusRefunded    GatewayStatus = "refunded"
	StatusChargedBack GatewayStatus = "charged_back"
	StatusInMediation GatewayStatus = "in_mediation"
)

// Event is a normalized gateway notification. The same event may be
// delivered any number of times and in any order; GatewayPaymentID is the
// dedupe key.
type Event struct {
	GatewayPaymentID string
	Status           GatewayStatus
	Reference        Reference
	RawPayload       []byte
	ReceivedAt       time.Time
}

// targetStatus is the fixed gateway-to-rental mapping table.
var targetStatus = map[GatewayStatus]rental.Status{
	StatusApproved:    rental.StatusReserved,
	StatusAuthorized:  rental.StatusReserved,
	StatusPending:     rental.StatusPendingReservation,
	StatusInProcess:   rental.StatusPendingReservation,
	StatusRejected:    rental.StatusCancelled,
	StatusCancelled:   rental.StatusCancelled,
	StatusRefunded:    rental.StatusCancelled,
	StatusChargedBack: rental.StatusCancelled,
	StatusInMediation: rental.StatusDisputed,
}

// TargetStatus resolves the rental status this gateway status implies.
// ok is false for statuses outside the table.
func (s GatewayStatus) TargetStatus() (rental.Status, bool) {
	target, ok := targetStatus[s]
	return target, ok
}
