package reconcile

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/infra/storage/memory"
)

type reconcileEnv struct {
	calendars *memory.CalendarRepository
	rentals   *memory.RentalRepository
	outbox    *memory.Outbox
	audit     *memory.AuditLog
	handler   *ApplyPaymentHandler
}

func newReconcileEnv(t *testing.T) *reconcileEnv {
	t.Helper()
	env := &reconcileEnv{
		calendars: memory.NewCalendarRepository(),
		rentals:   memory.NewRentalRepository(),
		outbox:    memory.NewOutbox(),
		audit:     memory.NewAuditLog(),
	}
	env.handler = &ApplyPaymentHandler{
		UoWFactory: memory.Factory{
			ListingsRepo:  memory.NewListingRepository(),
			CalendarsRepo: env.calendars,
			RentalsRepo:   env.rentals,
		},
		Audit:  env.audit,
		Outbox: env.outbox,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return env
}

// seedPendingRental stores a pending rental together with the calendar block
// its reservation took, the state a booking leaves behind while the deposit
// is in flight.
func (e *reconcileEnv) seedPendingRental(t *testing.T) *domainrental.Rental {
	t.Helper()
	now := time.Now().UTC()
	dr, err := daterange.New(now.AddDate(0, 0, 10), now.AddDate(0, 0, 12))
	require.NoError(t, err)
	window := domainavailability.DailyWindow(dr)

	rec, err := domainrental.NewRental(domainrental.CreateParams{
		ID:                "rental-1",
		ListingID:         "listing-1",
		RenterID:          "renter-1",
		OwnerID:           "owner-1",
		Window:            window,
		TotalPrice:        money.Must(15000, "USD"),
		ReservationAmount: money.Must(3000, "USD"),
		ReservationFee:    money.Must(300, "USD"),
		Now:               now,
	})
	require.NoError(t, err)
	rec.AttachPaymentRef("pay-1", now)
	rec.ClearEvents()
	require.NoError(t, e.rentals.Save(context.Background(), rec))

	cal, err := e.calendars.Calendar(context.Background(), domainlisting.ListingID("listing-1"))
	require.NoError(t, err)
	require.NoError(t, cal.Reserve(window, string(rec.ID), now))
	cal.ClearEvents()
	require.NoError(t, e.calendars.Save(context.Background(), cal))
	return rec
}

func (e *reconcileEnv) apply(t *testing.T, status domainpayment.GatewayStatus) *ApplyPaymentResult {
	t.Helper()
	result, err := e.handler.Handle(context.Background(), ApplyPaymentCommand{
		Event: domainpayment.Event{
			GatewayPaymentID: "pay-1",
			Status:           status,
			Reference: domainpayment.Reference{
				Purpose:  domainpayment.PurposeDeposit,
				RentalID: "rental-1",
				UserID:   "renter-1",
			},
			ReceivedAt: time.Now().UTC(),
		},
	})
	require.NoError(t, err)
	return result
}

func (e *reconcileEnv) rental(t *testing.T) *domainrental.Rental {
	t.Helper()
	rec, err := e.rentals.ByID(context.Background(), "rental-1")
	require.NoError(t, err)
	return rec
}

func (e *reconcileEnv) blocks(t *testing.T) []domainavailability.BlockedRange {
	t.Helper()
	cal, err := e.calendars.Calendar(context.Background(), domainlisting.ListingID("listing-1"))
	require.NoError(t, err)
	return cal.Blocks
}

func (e *reconcileEnv) eventNames() []string {
	names := make([]string, 0)
	for _, rec := range e.outbox.Records() {
		names = append(names, rec.Name)
	}
	return names
}

func TestApprovedConfirmsPendingRental(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	result := env.apply(t, domainpayment.StatusApproved)
	require.Equal(t, OutcomeApplied, result.Outcome)

	require.Equal(t, domainrental.StatusReserved, env.rental(t).Status)
	require.Len(t, env.blocks(t), 1, "approval keeps the block in place")
	names := env.eventNames()
	require.Contains(t, names, "rental.reserved")
	require.Contains(t, names, "payment.event_applied")
	require.Len(t, env.audit.Entries(), 1)
}

func TestDuplicateApprovalSkips(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	require.Equal(t, OutcomeApplied, env.apply(t, domainpayment.StatusApproved).Outcome)
	require.Equal(t, OutcomeSkippedStale, env.apply(t, domainpayment.StatusApproved).Outcome)

	require.Equal(t, domainrental.StatusReserved, env.rental(t).Status)
	require.Len(t, env.audit.Entries(), 2, "duplicates are still audited")
}

func TestRejectionCancelsAndReleasesBlock(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	result := env.apply(t, domainpayment.StatusRejected)
	require.Equal(t, OutcomeApplied, result.Outcome)

	require.Equal(t, domainrental.StatusCancelled, env.rental(t).Status)
	require.Empty(t, env.blocks(t), "rejected deposit must free the window")
	names := env.eventNames()
	require.Contains(t, names, "rental.cancelled")
	require.Contains(t, names, "calendar.released")
}

func TestOutOfOrderPendingAfterApprovalSkips(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	require.Equal(t, OutcomeApplied, env.apply(t, domainpayment.StatusApproved).Outcome)

	// A late "pending" notification targets an earlier lifecycle stage and
	// must not undo the confirmation.
	require.Equal(t, OutcomeSkippedStale, env.apply(t, domainpayment.StatusPending).Outcome)
	require.Equal(t, domainrental.StatusReserved, env.rental(t).Status)
}

func TestMediationMarksRentalDisputed(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	require.Equal(t, OutcomeApplied, env.apply(t, domainpayment.StatusApproved).Outcome)
	require.Equal(t, OutcomeApplied, env.apply(t, domainpayment.StatusInMediation).Outcome)

	require.Equal(t, domainrental.StatusDisputed, env.rental(t).Status)
	require.Len(t, env.blocks(t), 1, "disputes keep the block until resolved")
}

func TestChargebackAfterDisputeReleasesBlock(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	require.Equal(t, OutcomeApplied, env.apply(t, domainpayment.StatusApproved).Outcome)
	require.Equal(t, OutcomeApplied, env.apply(t, domainpayment.StatusInMediation).Outcome)
	require.Equal(t, OutcomeApplied, env.apply(t, domainpayment.StatusChargedBack).Outcome)

	require.Equal(t, domainrental.StatusCancelled, env.rental(t).Status)
	require.Empty(t, env.blocks(t))
}

func TestUnknownGatewayStatusIsDropped(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	result := env.apply(t, domainpayment.GatewayStatus("settled"))
	require.Equal(t, OutcomeIgnoredUnknown, result.Outcome)
	require.Equal(t, domainrental.StatusPendingReservation, env.rental(t).Status)
}

func TestUnknownRentalIsDropped(t *testing.T) {
	env := newReconcileEnv(t)

	result, err := env.handler.Handle(context.Background(), ApplyPaymentCommand{
		Event: domainpayment.Event{
			GatewayPaymentID: "pay-9",
			Status:           domainpayment.StatusApproved,
			Reference: domainpayment.Reference{
				Purpose:  domainpayment.PurposeDeposit,
				RentalID: "rental-missing",
				UserID:   "renter-1",
			},
			ReceivedAt: time.Now().UTC(),
		},
	})
	require.NoError(t, err)
	require.Equal(t, OutcomeIgnoredUnknown, result.Outcome)
}

func TestMediationOnPendingRentalSkips(t *testing.T) {
	env := newReconcileEnv(t)
	env.seedPendingRental(t)

	// Disputes only open from reserved; a mediation event racing ahead of
	// the approval has no edge in the state machine.
	result := env.apply(t, domainpayment.StatusInMediation)
	require.Equal(t, OutcomeSkippedStale, result.Outcome)
	require.Equal(t, domainrental.StatusPendingReservation, env.rental(t).Status)
}

func TestLateEventOnTerminalRentalIsIgnored(t *testing.T) {
	env := newReconcileEnv(t)
	rec := env.seedPendingRental(t)

	now := time.Now().UTC()
	require.NoError(t, rec.Confirm(now))
	require.NoError(t, rec.Start(now))
	require.NoError(t, rec.Complete(now))
	rec.ClearEvents()
	require.NoError(t, env.rentals.Save(context.Background(), rec))

	result := env.apply(t, domainpayment.StatusRefunded)
	require.Equal(t, OutcomeIgnoredTerminal, result.Outcome)
	require.Equal(t, domainrental.StatusCompleted, env.rental(t).Status)
	require.Len(t, env.blocks(t), 1, "terminal guard must not touch the calendar")
}
