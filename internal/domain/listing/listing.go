package listing

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrNotFound       = errors.New("listing: not found")
	ErrInvalidPricing = errors.New("listing: price configuration does not match price type")
	ErrOwnerRequired  = errors.New("listing: owner id required")
)

type ListingID string

// PriceType determines how rental windows are expressed: daily listings use
// date ranges, hourly listings use a single date plus a time interval.
type PriceType string

const (
	PriceDaily  PriceType = "DAILY"
	PriceHourly PriceType = "HOURLY"
)

type Listing struct {
	ID             ListingID
	OwnerID        string
	Title          string
	PriceType      PriceType
	PricePerDay    money.Money
	PricePerHour   money.Money
	DepositPercent int64
	Schedule       WeeklySchedule
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
}

type CreateParams struct {
	ID             ListingID
	OwnerID        string
	Title          string
	PriceType      PriceType
	PricePerDay    money.Money
	PricePerHour   money.Money
	DepositPercent int64
	Schedule       WeeklySchedule
	Now            time.Time
}

func NewListing(params CreateParams) (*Listing, error) {
	if params.OwnerID == "" {
		return nil, ErrOwnerRequired
	}
	switch params.PriceType {
	case PriceDaily:
		if params.PricePerDay.Amount <= 0 {
			return nil, ErrInvalidPricing
		}
	case PriceHourly:
		if params.PricePerHour.Amount <= 0 {
			return nil, ErrInvalidPricing
		}
	default:
		return nil, ErrInvalidPricing
	}
	if params.DepositPercent <= 0 || params.DepositPercent > 100 {
		return nil, money.ErrInvalidPercent
	}
	schedule := params.Schedule
	if schedule == nil {
		schedule = NewWeeklySchedule()
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	l := &Listing{
		ID:             params.ID,
		OwnerID:        params.OwnerID,
		Title:          params.Title,
		PriceType:      params.PriceType,
		PricePerDay:    params.PricePerDay,
		PricePerHour:   params.PricePerHour,
		DepositPercent: params.DepositPercent,
		Schedule:       schedule,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	l.Record(ListingCreated{ListingID: l.ID, OwnerID: l.OwnerID, At: now})
	return l, nil
}

// Deposit computes the upfront reservation amount for a quoted total.
func (l *Listing) Deposit(total money.Money) (money.Money, error) {
	return total.Percent(l.DepositPercent)
}
