package rental

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainlisting "gearshare/internal/domain/listing"
	domainrental "gearshare/internal/domain/rental"
)

// bookDaily runs the request handler against the env so the rental holds its
// calendar block exactly the way production leaves it.
func bookDaily(t *testing.T, env *testEnv) domainrental.RentalID {
	t.Helper()
	item := env.seedDailyListing(t)
	result, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-1",
		ListingID: string(item.ID),
		RenterID:  "renter-1",
		StartDate: futureDate(10),
		EndDate:   futureDate(12),
	})
	require.NoError(t, err)
	require.NoError(t, env.outbox.Flush(context.Background()))
	return domainrental.RentalID(result.Rental.ID)
}

func confirm(t *testing.T, env *testEnv, id domainrental.RentalID) {
	t.Helper()
	rec, err := env.rentals.ByID(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, rec.Confirm(time.Now().UTC()))
	rec.ClearEvents()
	require.NoError(t, env.rentals.Save(context.Background(), rec))
}

func TestCancelByRenterReleasesBlock(t *testing.T) {
	env := newTestEnv(t)
	id := bookDaily(t, env)

	handler := &CancelRentalHandler{UoWFactory: env.factory, Outbox: env.outbox}
	result, err := handler.Handle(context.Background(), CancelRentalCommand{
		RentalID:    string(id),
		RequestedBy: "renter-1",
		Reason:      "changed plans",
	})
	require.NoError(t, err)
	require.Equal(t, string(domainrental.StatusCancelled), result.Rental.Status)

	cal, err := env.calendars.Calendar(context.Background(), domainlisting.ListingID("listing-daily"))
	require.NoError(t, err)
	require.Empty(t, cal.Blocks)

	names := make([]string, 0)
	for _, rec := range env.outbox.Records() {
		names = append(names, rec.Name)
	}
	require.Contains(t, names, "rental.cancelled")
	require.Contains(t, names, "calendar.released")
}

func TestCancelByStrangerIsForbidden(t *testing.T) {
	env := newTestEnv(t)
	id := bookDaily(t, env)

	handler := &CancelRentalHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err := handler.Handle(context.Background(), CancelRentalCommand{
		RentalID:    string(id),
		RequestedBy: "someone-else",
	})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestCancelUnknownRental(t *testing.T) {
	env := newTestEnv(t)
	handler := &CancelRentalHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err := handler.Handle(context.Background(), CancelRentalCommand{RentalID: "rental-missing"})
	require.ErrorIs(t, err, domainrental.ErrNotFound)
}

func TestStartAndCompleteAdvanceReservedRental(t *testing.T) {
	env := newTestEnv(t)
	id := bookDaily(t, env)
	confirm(t, env, id)

	handler := &ProgressHandler{UoWFactory: env.factory, Outbox: env.outbox}
	started, err := handler.HandleStart(context.Background(), StartRentalCommand{
		RentalID:    string(id),
		RequestedBy: "owner-1",
	})
	require.NoError(t, err)
	require.Equal(t, string(domainrental.StatusInProgress), started.Rental.Status)

	completed, err := handler.HandleComplete(context.Background(), CompleteRentalCommand{
		RentalID:    string(id),
		RequestedBy: "owner-1",
	})
	require.NoError(t, err)
	require.Equal(t, string(domainrental.StatusCompleted), completed.Rental.Status)

	// Only active rentals hold blocks; completion frees the range.
	cal, err := env.calendars.Calendar(context.Background(), domainlisting.ListingID("listing-daily"))
	require.NoError(t, err)
	require.Empty(t, cal.Blocks)
}

func TestStartRequiresReservedStatus(t *testing.T) {
	env := newTestEnv(t)
	id := bookDaily(t, env)

	handler := &ProgressHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err := handler.HandleStart(context.Background(), StartRentalCommand{
		RentalID:    string(id),
		RequestedBy: "renter-1",
	})
	require.ErrorIs(t, err, domainrental.ErrInvalidTransition)
}

func TestCancelAfterStartIsRejected(t *testing.T) {
	env := newTestEnv(t)
	id := bookDaily(t, env)
	confirm(t, env, id)

	progress := &ProgressHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err := progress.HandleStart(context.Background(), StartRentalCommand{RentalID: string(id), RequestedBy: "owner-1"})
	require.NoError(t, err)

	cancel := &CancelRentalHandler{UoWFactory: env.factory, Outbox: env.outbox}
	_, err = cancel.Handle(context.Background(), CancelRentalCommand{RentalID: string(id), RequestedBy: "renter-1"})
	require.ErrorIs(t, err, domainrental.ErrInvalidTransition)
}
