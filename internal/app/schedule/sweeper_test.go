package schedule

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/infra/storage/memory"
)

type sweepEnv struct {
	calendars *memory.CalendarRepository
	rentals   *memory.RentalRepository
	outbox    *memory.Outbox
	sweeper   *Sweeper
}

func newSweepEnv(t *testing.T) *sweepEnv {
	t.Helper()
	env := &sweepEnv{
		calendars: memory.NewCalendarRepository(),
		rentals:   memory.NewRentalRepository(),
		outbox:    memory.NewOutbox(),
	}
	env.sweeper = &Sweeper{
		UoWFactory: memory.Factory{
			ListingsRepo:  memory.NewListingRepository(),
			CalendarsRepo: env.calendars,
			RentalsRepo:   env.rentals,
		},
		Outbox: env.outbox,
		Grace:  30 * time.Minute,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return env
}

// seedRental stores a pending rental created at the given time, holding its
// calendar block the way a fresh reservation would.
func (e *sweepEnv) seedRental(t *testing.T, id string, createdAt time.Time) {
	t.Helper()
	dr, err := daterange.New(createdAt.AddDate(0, 0, 10), createdAt.AddDate(0, 0, 12))
	require.NoError(t, err)
	window := domainavailability.DailyWindow(dr)

	rec, err := domainrental.NewRental(domainrental.CreateParams{
		ID:                domainrental.RentalID(id),
		ListingID:         "listing-1",
		RenterID:          "renter-1",
		OwnerID:           "owner-1",
		Window:            window,
		TotalPrice:        money.Must(15000, "USD"),
		ReservationAmount: money.Must(3000, "USD"),
		ReservationFee:    money.Must(300, "USD"),
		Now:               createdAt,
	})
	require.NoError(t, err)
	rec.ClearEvents()
	require.NoError(t, e.rentals.Save(context.Background(), rec))

	cal, err := e.calendars.Calendar(context.Background(), domainlisting.ListingID("listing-1"))
	require.NoError(t, err)
	require.NoError(t, cal.Reserve(window, id, createdAt))
	cal.ClearEvents()
	require.NoError(t, e.calendars.Save(context.Background(), cal))
}

func (e *sweepEnv) status(t *testing.T, id string) domainrental.Status {
	t.Helper()
	rec, err := e.rentals.ByID(context.Background(), domainrental.RentalID(id))
	require.NoError(t, err)
	return rec.Status
}

func TestSweepCancelsStalePendingReservations(t *testing.T) {
	env := newSweepEnv(t)
	env.seedRental(t, "rental-stale", time.Now().UTC().Add(-time.Hour))

	require.NoError(t, env.sweeper.sweepOnce(context.Background()))

	require.Equal(t, domainrental.StatusCancelled, env.status(t, "rental-stale"))

	cal, err := env.calendars.Calendar(context.Background(), domainlisting.ListingID("listing-1"))
	require.NoError(t, err)
	require.Empty(t, cal.Blocks, "timed-out reservation must free the window")

	names := make([]string, 0)
	for _, rec := range env.outbox.Records() {
		names = append(names, rec.Name)
	}
	require.Contains(t, names, "rental.cancelled")
	require.Contains(t, names, "calendar.released")
}

func TestSweepLeavesFreshReservationsAlone(t *testing.T) {
	env := newSweepEnv(t)
	env.seedRental(t, "rental-fresh", time.Now().UTC().Add(-time.Minute))

	require.NoError(t, env.sweeper.sweepOnce(context.Background()))

	require.Equal(t, domainrental.StatusPendingReservation, env.status(t, "rental-fresh"))
	require.Empty(t, env.outbox.Records())
}

func TestSweepIsIdempotent(t *testing.T) {
	env := newSweepEnv(t)
	env.seedRental(t, "rental-stale", time.Now().UTC().Add(-time.Hour))

	require.NoError(t, env.sweeper.sweepOnce(context.Background()))
	require.NoError(t, env.sweeper.sweepOnce(context.Background()))

	require.Equal(t, domainrental.StatusCancelled, env.status(t, "rental-stale"))
}
