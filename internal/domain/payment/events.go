package payment

import (
	"time"

	"gearshare/internal/domain/rental"
)

// EventApplied marks a gateway notification that actually advanced a rental.
// Skipped and ignored deliveries are not announced; the audit trail covers
// those.
type EventApplied struct {
	GatewayPaymentID string
	RentalID         rental.RentalID
	GatewayStatus    GatewayStatus
	From             rental.Status
	To               rental.Status
	At               time.Time
}

func (e EventApplied) EventName() string     { return "payment.event_applied" }
func (e EventApplied) AggregateID() string   { return string(e.RentalID) }
func (e EventApplied) OccurredAt() time.Time { return e.At }
