package ginserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/reconcile"
	"gearshare/internal/app/policies"
	domainpayment "gearshare/internal/domain/payment"
)

const webhookConsumer = "payments-webhook"

// WebhookHandler receives gateway payment notifications. Lean envelopes
// that only carry the payment id are resolved against the gateway before
// reconciliation; full payloads are applied directly. Anything applied,
// deliberately ignored or permanently undecodable answers 200 so the
// gateway stops redelivering; only transient failures answer 503 to
// request a retry.
type WebhookHandler struct {
	Commands commands.Bus
	Lookup   policies.PaymentLookup
	Inbox    policies.InboxPort
	Logger   *slog.Logger
}

type webhookEnvelope struct {
	ID                string           `json:"id"`
	Type              string           `json:"type"`
	Status            string           `json:"status"`
	ExternalReference string           `json:"external_reference"`
	Data              *webhookEnvelope `json:"data"`
}

func (h WebhookHandler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		// A truncated read is a transport hiccup, not a broken payload;
		// ask for a retry.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unreadable body"})
		return
	}
	var envelope webhookEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		// Redelivering cannot fix a broken payload; acknowledge so the
		// gateway stops resending it.
		h.logger().Warn("webhook payload is not valid JSON, dropping", "error", err)
		c.JSON(http.StatusOK, gin.H{"outcome": "ignored"})
		return
	}

	body := envelope
	if body.Data != nil && body.ID == "" {
		body = *body.Data
	}
	if body.ID == "" {
		h.logger().Warn("webhook payload carries no payment id, dropping")
		c.JSON(http.StatusOK, gin.H{"outcome": "ignored"})
		return
	}

	ev, err := h.resolve(c, body, raw)
	if err != nil {
		if errors.Is(err, domainpayment.ErrInvalidReference) {
			h.logger().Warn("webhook carries malformed reference", "gateway_payment_id", body.ID)
			c.JSON(http.StatusOK, gin.H{"outcome": "ignored"})
			return
		}
		h.logger().Error("payment lookup failed", "gateway_payment_id", body.ID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway lookup failed"})
		return
	}

	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(c.Request.Context(), webhookConsumer, ev.GatewayPaymentID+":"+string(ev.Status))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "dedupe store unavailable"})
			return
		}
		if seen {
			c.JSON(http.StatusOK, gin.H{"outcome": "duplicate"})
			return
		}
	}

	result, err := commands.Dispatch[reconcile.ApplyPaymentCommand, *reconcile.ApplyPaymentResult](c.Request.Context(), h.Commands, reconcile.ApplyPaymentCommand{Event: ev})
	if err != nil {
		// Un-mark the delivery so the gateway's retry is not swallowed as
		// a duplicate.
		if h.Inbox != nil {
			if ferr := h.Inbox.Forget(c.Request.Context(), webhookConsumer, ev.GatewayPaymentID+":"+string(ev.Status)); ferr != nil {
				h.logger().Warn("inbox compensation failed", "gateway_payment_id", ev.GatewayPaymentID, "error", ferr)
			}
		}
		h.logger().Error("payment reconciliation failed", "gateway_payment_id", ev.GatewayPaymentID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "reconciliation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": string(result.Outcome)})
}

// resolve builds the normalized event, calling back to the gateway when the
// webhook does not carry status and reference itself.
func (h WebhookHandler) resolve(c *gin.Context, body webhookEnvelope, raw []byte) (domainpayment.Event, error) {
	if body.Status != "" && body.ExternalReference != "" {
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
	if h.Lookup == nil {
		return domainpayment.Event{}, errors.New("webhook: payment lookup not configured")
	}
	ev, err := h.Lookup.PaymentByID(c.Request.Context(), body.ID)
	if err != nil {
		return domainpayment.Event{}, err
	}
	if len(ev.RawPayload) == 0 {
		ev.RawPayload = raw
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	return ev, nil
}

func (h WebhookHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ WebhookHTTP = WebhookHandler{}
