package rental

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gearshare/internal/domain/availability"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

var testNow = time.Date(2026, time.September, 1, 8, 0, 0, 0, time.UTC)

func newTestRental(t *testing.T) *Rental {
	t.Helper()
	dr, err := daterange.New(
		time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.September, 12, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	rec, err := NewRental(CreateParams{
		ID:                "rental-1",
		ListingID:         "listing-1",
		RenterID:          "renter-1",
		OwnerID:           "owner-1",
		Window:            availability.DailyWindow(dr),
		TotalPrice:        money.Must(15000, "USD"),
		ReservationAmount: money.Must(3000, "USD"),
		ReservationFee:    money.Must(300, "USD"),
		Now:               testNow,
	})
	require.NoError(t, err)
	rec.ClearEvents()
	return rec
}

func TestNewRentalStartsPendingAndRecordsRequest(t *testing.T) {
	dr, _ := daterange.New(testNow.AddDate(0, 0, 9), testNow.AddDate(0, 0, 11))
	rec, err := NewRental(CreateParams{
		ID:        "rental-1",
		ListingID: "listing-1",
		RenterID:  "renter-1",
		OwnerID:   "owner-1",
		Window:    availability.DailyWindow(dr),
		Now:       testNow,
	})
	require.NoError(t, err)
	require.Equal(t, StatusPendingReservation, rec.Status)

	events := rec.PendingEvents()
	require.Len(t, events, 1)
	require.Equal(t, "rental.requested", events[0].EventName())
}

func TestNewRentalRejectsSelfRental(t *testing.T) {
	dr, _ := daterange.New(testNow, testNow)
	_, err := NewRental(CreateParams{
		ID:        "rental-1",
		ListingID: "listing-1",
		RenterID:  "owner-1",
		OwnerID:   "owner-1",
		Window:    availability.DailyWindow(dr),
		Now:       testNow,
	})
	require.ErrorIs(t, err, ErrSelfRental)
}

func TestLifecycleHappyPath(t *testing.T) {
	rec := newTestRental(t)

	require.NoError(t, rec.Confirm(testNow))
	require.Equal(t, StatusReserved, rec.Status)
	require.NoError(t, rec.Start(testNow))
	require.Equal(t, StatusInProgress, rec.Status)
	require.NoError(t, rec.Complete(testNow))
	require.Equal(t, StatusCompleted, rec.Status)
	require.True(t, rec.Status.Terminal())
}

func TestTransitionsAreForwardOnly(t *testing.T) {
	rec := newTestRental(t)

	require.ErrorIs(t, rec.Start(testNow), ErrInvalidTransition, "pending cannot start")
	require.NoError(t, rec.Confirm(testNow))
	require.ErrorIs(t, rec.Confirm(testNow), ErrInvalidTransition, "reserved cannot re-confirm")
	require.NoError(t, rec.Start(testNow))
	require.ErrorIs(t, rec.Cancel("too late", testNow), ErrInvalidTransition, "in-progress cannot cancel")
	require.NoError(t, rec.Complete(testNow))
	require.ErrorIs(t, rec.Dispute(testNow), ErrInvalidTransition, "completed is terminal")
}

func TestDisputeResolvesBackToReservedOrCancelled(t *testing.T) {
	rec := newTestRental(t)
	require.NoError(t, rec.Confirm(testNow))
	require.NoError(t, rec.Dispute(testNow))
	require.Equal(t, StatusDisputed, rec.Status)
	require.NoError(t, rec.Confirm(testNow))
	require.Equal(t, StatusReserved, rec.Status)

	other := newTestRental(t)
	require.NoError(t, other.Confirm(testNow))
	require.NoError(t, other.Dispute(testNow))
	require.NoError(t, other.Cancel("charged back", testNow))
	require.Equal(t, StatusCancelled, other.Status)
}

func TestStatusRankOrdersLifecycle(t *testing.T) {
	require.Less(t, StatusPendingReservation.Rank(), StatusReserved.Rank())
	require.Equal(t, StatusReserved.Rank(), StatusDisputed.Rank())
	require.Less(t, StatusReserved.Rank(), StatusInProgress.Rank())
	require.Less(t, StatusInProgress.Rank(), StatusCompleted.Rank())
	require.Equal(t, StatusCompleted.Rank(), StatusCancelled.Rank())
}

func TestUpdatedAtIsMonotonic(t *testing.T) {
	rec := newTestRental(t)
	require.NoError(t, rec.Confirm(testNow.Add(time.Hour)))
	was := rec.UpdatedAt

	// An earlier clock reading must not move UpdatedAt backwards.
	require.NoError(t, rec.Start(testNow))
	require.Equal(t, was, rec.UpdatedAt)
}

func TestCancelRecordsReason(t *testing.T) {
	rec := newTestRental(t)
	require.NoError(t, rec.Cancel("reservation timeout", testNow))

	events := rec.PendingEvents()
	require.Len(t, events, 1)
	cancelled, ok := events[0].(RentalCancelled)
	require.True(t, ok)
	require.Equal(t, "reservation timeout", cancelled.Reason)
}
