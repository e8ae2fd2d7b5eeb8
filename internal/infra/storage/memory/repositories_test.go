package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
)

func testWindow(t *testing.T, startOffset, endOffset int) domainavailability.Window {
	t.Helper()
	now := time.Now().UTC()
	dr, err := daterange.New(now.AddDate(0, 0, startOffset), now.AddDate(0, 0, endOffset))
	require.NoError(t, err)
	return domainavailability.DailyWindow(dr)
}

func TestCalendarReadsAreSnapshots(t *testing.T) {
	repo := NewCalendarRepository()
	id := domainlisting.ListingID("listing-1")

	first, err := repo.Calendar(context.Background(), id)
	require.NoError(t, err)
	require.NoError(t, first.Reserve(testWindow(t, 10, 12), "rental-a", time.Now()))

	// Mutating an unsaved snapshot must not leak into later reads.
	second, err := repo.Calendar(context.Background(), id)
	require.NoError(t, err)
	require.Empty(t, second.Blocks)
}

func TestCalendarSaveRejectsStaleVersion(t *testing.T) {
	repo := NewCalendarRepository()
	id := domainlisting.ListingID("listing-1")
	ctx := context.Background()

	first, err := repo.Calendar(ctx, id)
	require.NoError(t, err)
	second, err := repo.Calendar(ctx, id)
	require.NoError(t, err)

	require.NoError(t, first.Reserve(testWindow(t, 10, 12), "rental-a", time.Now()))
	require.NoError(t, repo.Save(ctx, first))

	require.NoError(t, second.Reserve(testWindow(t, 20, 22), "rental-b", time.Now()))
	require.ErrorIs(t, repo.Save(ctx, second), domainavailability.ErrStaleCalendar)

	// The loser re-reads and retries against the new version.
	retry, err := repo.Calendar(ctx, id)
	require.NoError(t, err)
	require.NoError(t, retry.Reserve(testWindow(t, 20, 22), "rental-b", time.Now()))
	require.NoError(t, repo.Save(ctx, retry))

	final, err := repo.Calendar(ctx, id)
	require.NoError(t, err)
	require.Len(t, final.Blocks, 2)
}

func TestCalendarSaveBumpsCallerVersion(t *testing.T) {
	repo := NewCalendarRepository()
	ctx := context.Background()

	cal, err := repo.Calendar(ctx, "listing-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), cal.Version)

	require.NoError(t, cal.Reserve(testWindow(t, 10, 12), "rental-a", time.Now()))
	require.NoError(t, repo.Save(ctx, cal))
	require.Equal(t, int64(1), cal.Version, "saved snapshot stays usable for the next write")
}

func seedStoredRental(t *testing.T, repo *RentalRepository, id string, createdAt time.Time, status domainrental.Status) {
	t.Helper()
	dr, err := daterange.New(createdAt.AddDate(0, 0, 10), createdAt.AddDate(0, 0, 12))
	require.NoError(t, err)
	rec, err := domainrental.NewRental(domainrental.CreateParams{
		ID:                domainrental.RentalID(id),
		ListingID:         "listing-1",
		RenterID:          "renter-1",
		OwnerID:           "owner-1",
		Window:            domainavailability.DailyWindow(dr),
		TotalPrice:        money.Must(15000, "USD"),
		ReservationAmount: money.Must(3000, "USD"),
		ReservationFee:    money.Must(300, "USD"),
		Now:               createdAt,
	})
	require.NoError(t, err)
	if status == domainrental.StatusReserved {
		require.NoError(t, rec.Confirm(createdAt))
	}
	rec.ClearEvents()
	require.NoError(t, repo.Save(context.Background(), rec))
}

func TestRentalReadsAreSnapshots(t *testing.T) {
	repo := NewRentalRepository()
	now := time.Now().UTC()
	seedStoredRental(t, repo, "rental-1", now, domainrental.StatusPendingReservation)

	first, err := repo.ByID(context.Background(), "rental-1")
	require.NoError(t, err)
	require.NoError(t, first.Confirm(now))

	second, err := repo.ByID(context.Background(), "rental-1")
	require.NoError(t, err)
	require.Equal(t, domainrental.StatusPendingReservation, second.Status, "unsaved mutation must not leak")
}

func TestRentalByIDMissing(t *testing.T) {
	repo := NewRentalRepository()
	_, err := repo.ByID(context.Background(), "rental-missing")
	require.ErrorIs(t, err, domainrental.ErrNotFound)
}

func TestListPendingBeforeFiltersAndOrders(t *testing.T) {
	repo := NewRentalRepository()
	now := time.Now().UTC()
	seedStoredRental(t, repo, "rental-old", now.Add(-2*time.Hour), domainrental.StatusPendingReservation)
	seedStoredRental(t, repo, "rental-older", now.Add(-3*time.Hour), domainrental.StatusPendingReservation)
	seedStoredRental(t, repo, "rental-fresh", now.Add(-time.Minute), domainrental.StatusPendingReservation)
	seedStoredRental(t, repo, "rental-confirmed", now.Add(-2*time.Hour), domainrental.StatusReserved)

	stale, err := repo.ListPendingBefore(context.Background(), now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 2)
	require.Equal(t, domainrental.RentalID("rental-older"), stale[0].ID, "oldest first")
	require.Equal(t, domainrental.RentalID("rental-old"), stale[1].ID)
}

func TestListByRenterNewestFirst(t *testing.T) {
	repo := NewRentalRepository()
	now := time.Now().UTC()
	seedStoredRental(t, repo, "rental-1", now.Add(-2*time.Hour), domainrental.StatusPendingReservation)
	seedStoredRental(t, repo, "rental-2", now.Add(-time.Hour), domainrental.StatusPendingReservation)

	rentals, err := repo.ListByRenter(context.Background(), "renter-1")
	require.NoError(t, err)
	require.Len(t, rentals, 2)
	require.Equal(t, domainrental.RentalID("rental-2"), rentals[0].ID)
}
