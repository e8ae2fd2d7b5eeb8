package rental

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearshare/internal/app/commands"
	"gearshare/internal/app/dto"
	"gearshare/internal/app/middleware"
	"gearshare/internal/app/outbox"
	"gearshare/internal/app/policies"
	"gearshare/internal/app/uow"
	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	domainpayment "gearshare/internal/domain/payment"
	domainrental "gearshare/internal/domain/rental"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/money"
	"gearshare/internal/domain/shared/timewindow"
)

const requestRentalKey = "rental.request"

// reserveAttempts bounds the optimistic-concurrency retry loop: a version
// conflict re-reads the calendar and re-validates before giving up.
const reserveAttempts = 2

type RequestRentalCommand struct {
	CommandID       string
	ListingID       string
	RenterID        string
	StartDate       time.Time
	EndDate         time.Time
	StartTime       string
	EndTime         string
	TotalPrice      int64
	Currency        string
	IdempotencyKeyV string
}

func (c RequestRentalCommand) Key() string { return requestRentalKey }

func (c RequestRentalCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c RequestRentalCommand) ResultPrototype() any { return &RequestRentalResult{} }

type RequestRentalResult struct {
	Rental dto.Rental `json:"rental"`
}

type RequestRentalHandler struct {
	UoWFactory uow.UoWFactory
	Payments   policies.PaymentsPort
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	// FeePercent is the platform's cut of the deposit.
	FeePercent int64
}

func (h *RequestRentalHandler) Handle(ctx context.Context, cmd RequestRentalCommand) (*RequestRentalResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
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

	if cmd.RenterID == "" {
		return nil, fmt.Errorf("%w: renter id required", ErrValidation)
	}
	now := time.Now().UTC()

	item, err := unit.Listings().ByID(ctx, domainlisting.ListingID(cmd.ListingID))
	if err != nil {
		return nil, err
	}

	window, err := buildWindow(item.PriceType, cmd)
	if err != nil {
		return nil, err
	}

	total, err := quote(item, window)
	if err != nil {
		return nil, err
	}
	if cmd.TotalPrice > 0 && cmd.TotalPrice != total.Amount {
		return nil, fmt.Errorf("%w: quoted price %d does not match expected %d", ErrValidation, cmd.TotalPrice, total.Amount)
	}
	deposit, err := item.Deposit(total)
	if err != nil {
		return nil, err
	}
	fee, err := deposit.Percent(h.feePercent())
	if err != nil {
		return nil, err
	}

	rec, err := domainrental.NewRental(domainrental.CreateParams{
		ID:                domainrental.RentalID(cmd.CommandID),
		ListingID:         item.ID,
		RenterID:          cmd.RenterID,
		OwnerID:           item.OwnerID,
		Window:            window,
		TotalPrice:        total,
		ReservationAmount: deposit,
		ReservationFee:    fee,
		Now:               now,
	})
	if err != nil {
		return nil, err
	}

	cal, err := h.reserve(ctx, unit, item, window, string(rec.ID), now)
	if err != nil {
		return nil, err
	}

	intent, err := h.Payments.CreateDepositIntent(ctx, domainpayment.Reference{
		Purpose:  domainpayment.PurposeDeposit,
		RentalID: rec.ID,
		UserID:   cmd.RenterID,
	}, deposit)
	if err != nil {
		// Free the block so the window is not held hostage by a gateway
		// outage. Best effort; the sweeper catches leftovers.
		if cal.Release(string(rec.ID), now) {
			_ = unit.Calendars().Save(ctx, cal)
		}
		return nil, err
	}
	rec.AttachPaymentRef(intent.ID, now)

	if err := unit.Rentals().Save(ctx, rec); err != nil {
		// The memory driver commits nothing and rolls back nothing; without
		// a persisted pending rental the sweeper can never reclaim the
		// block, so free it here.
		if cal.Release(string(rec.ID), now) {
			_ = unit.Calendars().Save(ctx, cal)
		}
		return nil, err
	}

	pending := append(rec.PendingEvents(), cal.PendingEvents()...)
	rec.ClearEvents()
	cal.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	result := &RequestRentalResult{Rental: dto.MapRental(rec)}
	result.Rental.CheckoutURL = intent.CheckoutURL
	return result, nil
}

// reserve runs the atomic check-then-append: availability is re-validated
// against the calendar read in the same attempt as the version-checked
// save, so two racing reservations cannot both land.
func (h *RequestRentalHandler) reserve(ctx context.Context, unit uow.UnitOfWork, item *domainlisting.Listing, window domainavailability.Window, rentalID string, now time.Time) (*domainavailability.BlockCalendar, error) {
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		cal, err := unit.Calendars().Calendar(ctx, item.ID)
		if err != nil {
			return nil, err
		}
		decision := domainavailability.Check(item, cal, window, now)
		if !decision.Available {
			return nil, &UnavailableError{Reason: decision.Reason, ConflictRef: decision.ConflictRef}
		}
		if err := cal.Reserve(window, rentalID, now); err != nil {
			if errors.Is(err, domainavailability.ErrWindowBlocked) {
				return nil, ErrReservationConflict
			}
			return nil, err
		}
		if err := unit.Calendars().Save(ctx, cal); err != nil {
			if errors.Is(err, domainavailability.ErrStaleCalendar) {
				continue
			}
			return nil, err
		}
		return cal, nil
	}
	return nil, ErrReservationConflict
}

func buildWindow(pt domainlisting.PriceType, cmd RequestRentalCommand) (domainavailability.Window, error) {
	dates, err := daterange.New(cmd.StartDate, cmd.EndDate)
	if err != nil {
		return domainavailability.Window{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if pt == domainlisting.PriceHourly {
		if cmd.StartTime == "" || cmd.EndTime == "" {
			return domainavailability.Window{}, fmt.Errorf("%w: hourly listings require start_time and end_time", ErrValidation)
		}
		times, err := timewindow.ParseRange(cmd.StartTime, cmd.EndTime)
		if err != nil {
			return domainavailability.Window{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		w := domainavailability.HourlyWindow(dates, times)
		if err := w.Validate(); err != nil {
			return domainavailability.Window{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return w, nil
	}
	if cmd.StartTime != "" || cmd.EndTime != "" {
		return domainavailability.Window{}, fmt.Errorf("%w: daily listings do not accept a time interval", ErrValidation)
	}
	return domainavailability.DailyWindow(dates), nil
}

// quote computes the server-side price for the window.
func quote(item *domainlisting.Listing, w domainavailability.Window) (money.Money, error) {
	if item.PriceType == domainlisting.PriceHourly {
		minutes := w.Times.Minutes()
		hours := int64((minutes + 59) / 60)
		return item.PricePerHour.Multiply(hours), nil
	}
	return item.PricePerDay.Multiply(int64(w.Dates.DayCount())), nil
}

func (h *RequestRentalHandler) feePercent() int64 {
	if h.FeePercent <= 0 {
		return 10
	}
	return h.FeePercent
}

func (h *RequestRentalHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RequestRentalCommand, *RequestRentalResult] = (*RequestRentalHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestRentalCommand)(nil)
