package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gearshare/internal/app/policies"
	domainpayment "gearshare/internal/domain/payment"
	"gearshare/internal/domain/shared/money"
)

// HTTPGateway talks to the real payment provider over its REST API.
type HTTPGateway struct {
	Client     *http.Client
	IntentURL  string
	PaymentURL string
	Logger     *slog.Logger
}

type createIntentRequest struct {
	ExternalReference string `json:"external_reference"`
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Description       string `json:"description,omitempty"`
}

type createIntentResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
}

type paymentResponse struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	ExternalReference string `json:"external_reference"`
}

func (g *HTTPGateway) CreateDepositIntent(ctx context.Context, ref domainpayment.Reference, amount money.Money) (policies.PaymentIntent, error) {
	var zero policies.PaymentIntent
	if g == nil || g.Client == nil {
		return zero, errors.New("gateway: http client not configured")
	}
	if g.IntentURL == "" {
		return zero, errors.New("gateway: intent endpoint not configured")
	}

	body, err := json.Marshal(createIntentRequest{
		ExternalReference: ref.Encode(),
		Amount:            amount.Amount,
		Currency:          amount.Currency,
		Description:       "rental deposit",
	})
	if err != nil {
		return zero, err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, g.IntentURL, bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(request)
	if err != nil {
		g.logError("payment intent request failed", ref, err)
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(snippet))
		g.logError("payment intent rejected", ref, err)
		return zero, err
	}

	var out createIntentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		g.logError("payment intent decode failed", ref, err)
		return zero, err
	}
	if out.ID == "" {
		return zero, errors.New("gateway: intent response missing id")
	}
	return policies.PaymentIntent{ID: out.ID, CheckoutURL: out.CheckoutURL}, nil
}

func (g *HTTPGateway) PaymentByID(ctx context.Context, gatewayPaymentID string) (domainpayment.Event, error) {
	var zero domainpayment.Event
	if g == nil || g.Client == nil {
		return zero, errors.New("gateway: http client not configured")
	}
	if g.PaymentURL == "" {
		return zero, errors.New("gateway: payment endpoint not configured")
	}

	url := strings.TrimRight(g.PaymentURL, "/") + "/" + gatewayPaymentID
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, err
	}

	resp, err := g.Client.Do(request)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return zero, ErrPaymentUnknown
	}
	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return zero, fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(snippet))
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return zero, err
	}
	var out paymentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, err
	}
	ref, err := domainpayment.ParseReference(out.ExternalReference)
	if err != nil {
		return zero, err
	}
	return domainpayment.Event{
		GatewayPaymentID: out.ID,
		Status:           domainpayment.GatewayStatus(strings.ToLower(out.Status)),
		Reference:        ref,
		RawPayload:       raw,
		ReceivedAt:       time.Now().UTC(),
	}, nil
}

func (g *HTTPGateway) logError(msg string, ref domainpayment.Reference, err error) {
	if g.Logger == nil {
		return
	}
	g.Logger.Error(msg, "rental_id", string(ref.RentalID), "error", err)
}

var (
	_ policies.PaymentsPort  = (*HTTPGateway)(nil)
	_ policies.PaymentLookup = (*HTTPGateway)(nil)
)
