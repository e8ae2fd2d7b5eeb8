package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/handlers/rental"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/events"
)

const applyPaymentKey = "payment.apply"

// Outcome tells the delivery channel what to do with the event: applied and
// skipped outcomes acknowledge, only transient errors request redelivery.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeSkippedStale    Outcome = "skipped_stale"
	OutcomeIgnoredUnknown  Outcome = "ignored_unknown"
	OutcomeIgnoredTerminal Outcome = "ignored_terminal"
)

type ApplyPaymentCommand struct {
	Event domainpayment.Event
}

func (c ApplyPaymentCommand) Key() string { return applyPaymentKey }

type ApplyPaymentResult struct {
	Outcome Outcome `json:"outcome"`
}

// ApplyPaymentHandler is the idempotent consumer for gateway notifications.
// Duplicates and out-of-order deliveries collapse onto the forward-only
// status order; only infrastructure failures surface as retryable errors.
type ApplyPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Audit      policies.AuditPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *ApplyPaymentHandler) Handle(ctx context.Context, cmd ApplyPaymentCommand) (*ApplyPaymentResult, error) {
	ev := cmd.Event
	log := h.logger().With("gateway_payment_id", ev.GatewayPaymentID, "gateway_status", string(ev.Status))

	target, known := ev.Status.TargetStatus()
	if !known {
		log.Warn("unknown gateway status, dropping event")
		return &ApplyPaymentResult{Outcome: OutcomeIgnoredUnknown}, nil
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, rental.ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	rec, err := unit.Rentals().ByID(ctx, ev.Reference.RentalID)
	if err != nil {
		if errors.Is(err, domainrental.ErrNotFound) {
			// Deleted or foreign rental: acknowledge so the gateway stops
			// redelivering.
			log.Warn("event references unknown rental, dropping", "rental_id", string(ev.Reference.RentalID))
			return &ApplyPaymentResult{Outcome: OutcomeIgnoredUnknown}, nil
		}
		return nil, err
	}
	log = log.With("rental_id", string(rec.ID), "rental_status", string(rec.Status))

	if rec.Status.Terminal() {
		if rec.Status == target {
			log.Info("duplicate delivery on settled rental, no-op")
		} else {
			log.Warn("late gateway event on terminal rental, ignoring")
		}
		h.audit(ctx, ev, rec)
		return &ApplyPaymentResult{Outcome: OutcomeIgnoredTerminal}, nil
	}

	// Forward-only guard: a stale or duplicate event targeting the current
	// or an earlier lifecycle stage must not undo later progress. Equal-rank
	// moves between distinct statuses still apply, which is how reserved
	// rentals enter and leave mediation.
	if rec.Status == target || rec.Status.Rank() > target.Rank() {
		log.Info("event does not advance rental, skipping")
		h.audit(ctx, ev, rec)
		return &ApplyPaymentResult{Outcome: OutcomeSkippedStale}, nil
	}

	now := time.Now().UTC()
	from := rec.Status
	pending, err := applyTransition(ctx, unit, rec, ev, target, now)
	if err != nil {
		if errors.Is(err, domainrental.ErrInvalidTransition) {
			// The state machine has no edge for this move, and redelivery
			// will never change that.
			log.Warn("gateway event rejected by state machine, skipping")
			h.audit(ctx, ev, rec)
			return &ApplyPaymentResult{Outcome: OutcomeSkippedStale}, nil
		}
		return nil, err
	}
	pending = append(pending, domainpayment.EventApplied{
		GatewayPaymentID: ev.GatewayPaymentID,
		RentalID:         rec.ID,
		GatewayStatus:    ev.Status,
		From:             from,
		To:               rec.Status,
		At:               now,
	})

	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	// Audit after the transition is durable; failures are logged, never
	// propagated.
	h.audit(ctx, ev, rec)
	log.Info("payment event applied", "target_status", string(target))
	return &ApplyPaymentResult{Outcome: OutcomeApplied}, nil
}

// applyTransition routes the mapped target through the rental lifecycle
// helpers so the calendar-block invariants hold: approvals confirm in
// place, rejections and refunds release the block with the cancellation.
func applyTransition(ctx context.Context, unit uow.UnitOfWork, rec *domainrental.Rental, ev domainpayment.Event, target domainrental.Status, now time.Time) ([]events.DomainEvent, error) {
	switch target {
	case domainrental.StatusReserved:
		if err := rental.Confirm(ctx, unit, rec, now); err != nil {
			return nil, err
		}
	case domainrental.StatusCancelled:
		cal, err := rental.Release(ctx, unit, rec, string(ev.Status), now)
		if err != nil {
			return nil, err
		}
		if cal != nil {
			defer cal.ClearEvents()
			pending := append(rec.PendingEvents(), cal.PendingEvents()...)
			rec.ClearEvents()
			return pending, nil
		}
	case domainrental.StatusDisputed:
		if err := rec.Dispute(now); err != nil {
			return nil, err
		}
		if err := unit.Rentals().Save(ctx, rec); err != nil {
			return nil, err
		}
	}
	pending := rec.PendingEvents()
	rec.ClearEvents()
	return pending, nil
}

func (h *ApplyPaymentHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *ApplyPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ApplyPaymentHandler) audit(ctx context.Context, ev domainpayment.Event, rec *domainrental.Rental) {
	if h.Audit == nil {
		return
	}
	entry := policies.AuditEntry{
		GatewayPaymentID: ev.GatewayPaymentID,
		RentalID:         string(rec.ID),
		GatewayStatus:    string(ev.Status),
		Payload:          ev.RawPayload,
		ReceivedAt:       ev.ReceivedAt,
	}
	if err := h.Audit.Append(ctx, entry); err != nil {
		h.logger().Warn("payment audit write failed", "error", err, "gateway_payment_id", ev.GatewayPaymentID)
	}
}

var _ commands.Handler[ApplyPaymentCommand, *ApplyPaymentResult] = (*ApplyPaymentHandler)(nil)
