package policies

import (
	"context"

	"gearshare/internal/domain/payment"
	"gearshare/internal/domain/shared/money"
)

// PaymentIntent is the gateway-side handle created for a deposit charge.
type PaymentIntent struct {
	ID          string
	CheckoutURL string
}

// PaymentsPort creates payment intents against the external gateway. Only
// the deposit is charged up front; settlement of the remainder happens off
// platform.
type PaymentsPort interface {
	CreateDepositIntent(ctx context.Context, ref payment.Reference, amount money.Money) (PaymentIntent, error)
}

// PaymentLookup resolves a gateway payment id from a webhook envelope into
// a normalized event. Gateways that embed the full payment in the webhook
// body skip this round trip.
type PaymentLookup interface {
	PaymentByID(ctx context.Context, gatewayPaymentID string) (payment.Event, error)
}
