package policies

import (
	"context"
	"time"
)

// AuditEntry keeps the raw gateway payload next to the rental it touched.
type AuditEntry struct {
	GatewayPaymentID string
	RentalID         string
	GatewayStatus    string
	Payload          []byte
	ReceivedAt       time.Time
}

// AuditPort persists gateway payloads for later inspection. Writes are
// best-effort: an audit failure never blocks the rental transition.
type AuditPort interface {
	Append(ctx context.Context, entry AuditEntry) error
}
