package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"gearshare/internal/app/policies"
	domainpayment "gearshare/internal/domain/payment"
	"gearshare/internal/domain/shared/money"
)

var ErrPaymentUnknown = errors.New("gateway: unknown payment id")

// MemoryGateway fakes the payment provider for the memory driver and for
// tests. Intents start pending; SetStatus simulates the provider moving a
// payment along.
type MemoryGateway struct {
	mu      sync.Mutex
	intents map[string]memoryIntent
}

type memoryIntent struct {
	reference domainpayment.Reference
	amount    money.Money
	status    domainpayment.GatewayStatus
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{intents: make(map[string]memoryIntent)}
}

func (g *MemoryGateway) CreateDepositIntent(ctx context.Context, ref domainpayment.Reference, amount money.Money) (policies.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := "pay-" + uuid.NewString()
	g.intents[id] = memoryIntent{reference: ref, amount: amount, status: domainpayment.StatusPending}
	return policies.PaymentIntent{
		ID:          id,
		CheckoutURL: "https://pay.local/checkout/" + id,
	}, nil
}

func (g *MemoryGateway) PaymentByID(ctx context.Context, gatewayPaymentID string) (domainpayment.Event, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[gatewayPaymentID]
	if !ok {
		return domainpayment.Event{}, ErrPaymentUnknown
	}
	return domainpayment.Event{
		GatewayPaymentID: gatewayPaymentID,
		Status:           intent.status,
		Reference:        intent.reference,
	}, nil
}

// SetStatus moves a fake payment to the given provider status.
func (g *MemoryGateway) SetStatus(gatewayPaymentID string, status domainpayment.GatewayStatus) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[gatewayPaymentID]
	if !ok {
		return false
	}
	intent.status = status
	g.intents[gatewayPaymentID] = intent
	return true
}

var (
	_ policies.PaymentsPort  = (*MemoryGateway)(nil)
	_ policies.PaymentLookup = (*MemoryGateway)(nil)
)
