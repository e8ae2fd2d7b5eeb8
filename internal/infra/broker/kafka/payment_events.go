package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/reconcile"
	"gearshare/internal/app/policies"
	domainpayment "gearshare/internal/domain/payment"
)

var errEmptyPaymentMessage = errors.New("kafka: payment message missing id or status")

// PaymentEventsHandler feeds broker-delivered gateway notifications into the
// reconciliation command. Malformed messages are acknowledged and logged;
// only infrastructure errors hold the offset for redelivery.
type PaymentEventsHandler struct {
	Commands commands.Bus
	Inbox    policies.InboxPort
	Consumer string
	Logger   *slog.Logger
}

func (h *PaymentEventsHandler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := decodePaymentMessage(msg.Value)
	if err != nil {
		h.logger().Warn("undecodable payment message, dropping",
			"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		return nil
	}
	dedupeKey := ev.GatewayPaymentID + ":" + string(ev.Status)
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, h.consumer(), dedupeKey)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	_, err = commands.Dispatch[reconcile.ApplyPaymentCommand, *reconcile.ApplyPaymentResult](ctx, h.Commands, reconcile.ApplyPaymentCommand{Event: ev})
	if err != nil && h.Inbox != nil {
		// Un-mark so the unacknowledged offset's redelivery is processed.
		if ferr := h.Inbox.Forget(ctx, h.consumer(), dedupeKey); ferr != nil {
			h.logger().Warn("inbox compensation failed", "gateway_payment_id", ev.GatewayPaymentID, "error", ferr)
		}
	}
	return err
}

func (h *PaymentEventsHandler) consumer() string {
	if h.Consumer != "" {
		return h.Consumer
	}
	return "payments"
}

func (h *PaymentEventsHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type paymentMessage struct {
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	ExternalReference string          `json:"external_reference"`
	Data              *paymentMessage `json:"data,omitempty"`
}

// decodePaymentMessage accepts either a bare gateway payload or a
// CloudEvents envelope carrying one under data.
func decodePaymentMessage(raw []byte) (domainpayment.Event, error) {
	var body paymentMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return domainpayment.Event{}, err
	}
	if body.Data != nil && body.ID == "" {
		body = *body.Data
	}
	if body.ID == "" || body.Status == "" {
		return domainpayment.Event{}, errEmptyPaymentMessage
	}
	ref, err := domainpayment.ParseReference(body.ExternalReference)
	if err != nil {
		return domainpayment.Event{}, err
	}
	return domainpayment.Event{
		GatewayPaymentID: body.ID,
		Status:           domainpayment.GatewayStatus(strings.ToLower(body.Status)),
		Reference:        ref,
		RawPayload:       raw,
		ReceivedAt:       time.Now().UTC(),
	}, nil
}

var _ MessageHandler = (*PaymentEventsHandler)(nil)
