package rental

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gearshare/internal/app/policies"
	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/shared/timewindow"
	"gearshare/internal/infra/storage/memory"
)

type fakePayments struct {
	mu      sync.Mutex
	fail    bool
	intents []domainpayment.Reference
}

func (f *fakePayments) CreateDepositIntent(ctx context.Context, ref domainpayment.Reference, amount money.Money) (policies.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return policies.PaymentIntent{}, errors.New("gateway unavailable")
	}
	f.intents = append(f.intents, ref)
	return policies.PaymentIntent{ID: "pay-1", CheckoutURL: "https://pay.local/checkout/pay-1"}, nil
}

type testEnv struct {
	listings  *memory.ListingRepository
	calendars *memory.CalendarRepository
	rentals   *memory.RentalRepository
	outbox    *memory.Outbox
	payments  *fakePayments
	factory   memory.Factory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		listings:  memory.NewListingRepository(),
		calendars: memory.NewCalendarRepository(),
		rentals:   memory.NewRentalRepository(),
		outbox:    memory.NewOutbox(),
		payments:  &fakePayments{},
	}
	env.factory = memory.Factory{
		ListingsRepo:  env.listings,
		CalendarsRepo: env.calendars,
		RentalsRepo:   env.rentals,
	}
	return env
}

func (e *testEnv) handler() *RequestRentalHandler {
	return &RequestRentalHandler{
		UoWFactory: e.factory,
		Payments:   e.payments,
		Outbox:     e.outbox,
	}
}

func (e *testEnv) seedDailyListing(t *testing.T) *domainlisting.Listing {
	t.Helper()
	l, err := domainlisting.NewListing(domainlisting.CreateParams{
		ID:             "listing-daily",
		OwnerID:        "owner-1",
		Title:          "cargo trailer",
		PriceType:      domainlisting.PriceDaily,
		PricePerDay:    money.Must(5000, "USD"),
		DepositPercent: 20,
		Now:            time.Now(),
	})
	require.NoError(t, err)
	l.ClearEvents()
	require.NoError(t, e.listings.Save(context.Background(), l))
	return l
}

func (e *testEnv) seedHourlyListing(t *testing.T) *domainlisting.Listing {
	t.Helper()
	schedule := domainlisting.NewWeeklySchedule()
	slot, err := timewindow.ParseRange("09:00", "18:00")
	require.NoError(t, err)
	for d := time.Sunday; d <= time.Saturday; d++ {
		schedule[d] = domainlisting.DaySchedule{Enabled: true, Slots: []timewindow.TimeRange{slot}}
	}
	l, err := domainlisting.NewListing(domainlisting.CreateParams{
		ID:             "listing-hourly",
		OwnerID:        "owner-1",
		Title:          "pressure washer",
		PriceType:      domainlisting.PriceHourly,
		PricePerHour:   money.Must(1500, "USD"),
		DepositPercent: 25,
		Schedule:       schedule,
		Now:            time.Now(),
	})
	require.NoError(t, err)
	l.ClearEvents()
	require.NoError(t, e.listings.Save(context.Background(), l))
	return l
}

func futureDate(days int) time.Time {
	return daterange.DateOf(time.Now().AddDate(0, 0, days))
}

func TestRequestRentalDailyHappyPath(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedDailyListing(t)

	result, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-1",
		ListingID: string(item.ID),
		RenterID:  "renter-1",
		StartDate: futureDate(10),
		EndDate:   futureDate(12),
	})
	require.NoError(t, err)

	require.Equal(t, string(domainrental.StatusPendingReservation), result.Rental.Status)
	require.Equal(t, int64(15000), result.Rental.TotalPrice.Amount, "3 days at 5000")
	require.Equal(t, int64(3000), result.Rental.ReservationAmount.Amount, "20 percent deposit")
	require.Equal(t, int64(300), result.Rental.ReservationFee.Amount, "10 percent platform fee on the deposit")
	require.Equal(t, "pay-1", result.Rental.PaymentRef)
	require.Equal(t, "https://pay.local/checkout/pay-1", result.Rental.CheckoutURL)

	cal, err := env.calendars.Calendar(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, cal.Blocks, 1)
	require.Equal(t, "rental-1", cal.Blocks[0].RentalID)

	require.Len(t, env.payments.intents, 1)
	require.Equal(t, domainpayment.PurposeDeposit, env.payments.intents[0].Purpose)

	names := make([]string, 0)
	for _, rec := range env.outbox.Records() {
		names = append(names, rec.Name)
	}
	require.Contains(t, names, "rental.requested")
	require.Contains(t, names, "calendar.blocked")
}

func TestRequestRentalHourlyRoundsUpHours(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedHourlyListing(t)

	result, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-1",
		ListingID: string(item.ID),
		RenterID:  "renter-1",
		StartDate: futureDate(10),
		EndDate:   futureDate(10),
		StartTime: "10:00",
		EndTime:   "11:30",
	})
	require.NoError(t, err)
	require.Equal(t, int64(3000), result.Rental.TotalPrice.Amount, "90 minutes bill as 2 hours")
}

func TestRequestRentalRejectsPriceMismatch(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedDailyListing(t)

	_, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID:  "rental-1",
		ListingID:  string(item.ID),
		RenterID:   "renter-1",
		StartDate:  futureDate(10),
		EndDate:    futureDate(12),
		TotalPrice: 9999,
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestRequestRentalRejectsOverlappingWindow(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedDailyListing(t)

	_, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-1",
		ListingID: string(item.ID),
		RenterID:  "renter-1",
		StartDate: futureDate(10),
		EndDate:   futureDate(12),
	})
	require.NoError(t, err)

	_, err = env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-2",
		ListingID: string(item.ID),
		RenterID:  "renter-2",
		StartDate: futureDate(12),
		EndDate:   futureDate(14),
	})
	ue, ok := AsUnavailable(err)
	require.True(t, ok, "expected availability failure, got %v", err)
	require.Equal(t, domainavailability.ReasonBlocked, ue.Reason)
	require.Equal(t, "rental-1", ue.ConflictRef)
}

func TestRequestRentalRejectsSelfRental(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedDailyListing(t)

	_, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-1",
		ListingID: string(item.ID),
		RenterID:  item.OwnerID,
		StartDate: futureDate(10),
		EndDate:   futureDate(12),
	})
	require.ErrorIs(t, err, domainrental.ErrSelfRental)
}

func TestRequestRentalReleasesBlockWhenGatewayFails(t *testing.T) {
	env := newTestEnv(t)
	env.payments.fail = true
	item := env.seedDailyListing(t)

	_, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-1",
		ListingID: string(item.ID),
		RenterID:  "renter-1",
		StartDate: futureDate(10),
		EndDate:   futureDate(12),
	})
	require.Error(t, err)

	cal, err := env.calendars.Calendar(context.Background(), item.ID)
	require.NoError(t, err)
	require.Empty(t, cal.Blocks, "failed intent must not hold the window")
}

type failingRentals struct {
	domainrental.Repository
}

func (f failingRentals) Save(ctx context.Context, r *domainrental.Rental) error {
	return errors.New("rental store unavailable")
}

func TestRequestRentalReleasesBlockWhenRentalSaveFails(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedDailyListing(t)
	env.factory.RentalsRepo = failingRentals{Repository: env.rentals}

	_, err := env.handler().Handle(context.Background(), RequestRentalCommand{
		CommandID: "rental-1",
		ListingID: string(item.ID),
		RenterID:  "renter-1",
		StartDate: futureDate(10),
		EndDate:   futureDate(12),
	})
	require.Error(t, err)

	cal, err := env.calendars.Calendar(context.Background(), item.ID)
	require.NoError(t, err)
	require.Empty(t, cal.Blocks, "a rental that never persisted must not hold the window")
}

func TestConcurrentRequestsOnlyOneWins(t *testing.T) {
	env := newTestEnv(t)
	item := env.seedDailyListing(t)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.handler().Handle(context.Background(), RequestRentalCommand{
				CommandID: fmt.Sprintf("rental-%d", i),
				ListingID: string(item.ID),
				RenterID:  "renter-1",
				StartDate: futureDate(10),
				EndDate:   futureDate(12),
			})
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		if _, ok := AsUnavailable(err); ok {
			continue
		}
		require.ErrorIs(t, err, ErrReservationConflict)
	}
	require.Equal(t, 1, winners, "exactly one reservation must land")

	cal, err := env.calendars.Calendar(context.Background(), item.ID)
	require.NoError(t, err)
	require.Len(t, cal.Blocks, 1)
}
