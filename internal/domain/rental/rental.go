package rental

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/availability"
	"gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/events"
	"gearshare/internal/domain/shared/money"
)

var (
	ErrNotFound          = errors.New("rental: not found")
	ErrInvalidTransition = errors.New("rental: invalid state transition")
	ErrRenterRequired    = errors.New("rental: renter id required")
	ErrSelfRental        = errors.New("rental: owner cannot rent own listing")
)

type RentalID string

type Status string

const (
	StatusPendingReservation Status = "PENDING_RESERVATION"
	StatusReserved           Status = "RESERVED"
	StatusInProgress         Status = "IN_PROGRESS"
	StatusCompleted          Status = "COMPLETED"
	StatusCancelled          Status = "CANCELLED"
	StatusDisputed           Status = "DISPUTED"
)

// transitions is the closed state machine. Anything not listed here is
// rejected, whatever string a caller supplies.
var transitions = map[Status][]Status{
	StatusPendingReservation: {StatusReserved, StatusCancelled},
	StatusReserved:           {StatusInProgress, StatusCancelled, StatusDisputed},
	StatusInProgress:         {StatusCompleted},
	StatusDisputed:           {StatusReserved, StatusCancelled},
}

// statusRank orders the lifecycle for the reconciliation forward-only guard.
// A gateway event targeting a rank at or below the current one is stale.
var statusRank = map[Status]int{
	StatusPendingReservation: 1,
	StatusReserved:           2,
	StatusDisputed:           2,
	StatusInProgress:         3,
	StatusCompleted:          4,
	StatusCancelled:          4,
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) Rank() int {
	return statusRank[s]
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Rental struct {
	ID                RentalID
	ListingID         listing.ListingID
	RenterID          string
	OwnerID           string
	Window            availability.Window
	TotalPrice        money.Money
	ReservationAmount money.Money
	ReservationFee    money.Money
	Status            Status
	PaymentRef        string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RentalID) (*Rental, error)
	Save(ctx context.Context, r *Rental) error
	ListByRenter(ctx context.Context, renterID string) ([]*Rental, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*Rental, error)
}

type CreateParams struct {
	ID                RentalID
	ListingID         listing.ListingID
	RenterID          string
	OwnerID           string
	Window            availability.Window
	TotalPrice        money.Money
	ReservationAmount money.Money
	ReservationFee    money.Money
	Now               time.Time
}

func NewRental(params CreateParams) (*Rental, error) {
	if params.RenterID == "" {
		return nil, ErrRenterRequired
	}
	if params.RenterID == params.OwnerID {
		return nil, ErrSelfRental
	}
	if err := params.Window.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	r := &Rental{
		ID:                params.ID,
		ListingID:         params.ListingID,
		RenterID:          params.RenterID,
		OwnerID:           params.OwnerID,
		Window:            params.Window,
		TotalPrice:        params.TotalPrice,
		ReservationAmount: params.ReservationAmount,
		ReservationFee:    params.ReservationFee,
		Status:            StatusPendingReservation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	r.Record(RentalRequested{RentalID: r.ID, ListingID: r.ListingID, RenterID: r.RenterID, Window: r.Window, Deposit: r.ReservationAmount, At: now})
	return r, nil
}

// AttachPaymentRef stores the gateway identifier issued for the deposit.
func (r *Rental) AttachPaymentRef(ref string, now time.Time) {
	r.PaymentRef = ref
	r.touch(now)
}

// Confirm moves a pending rental to reserved after payment approval. The
// calendar block stays untouched; it was applied at reserve time.
func (r *Rental) Confirm(now time.Time) error {
	if err := r.transition(StatusReserved); err != nil {
		return err
	}
	r.touch(now)
	r.Record(RentalReserved{RentalID: r.ID, ListingID: r.ListingID, At: r.UpdatedAt})
	return nil
}

// Cancel ends the rental from pending or reserved. Callers must release the
// calendar block in the same unit of work.
func (r *Rental) Cancel(reason string, now time.Time) error {
	if err := r.transition(StatusCancelled); err != nil {
		return err
	}
	r.touch(now)
	r.Record(RentalCancelled{RentalID: r.ID, ListingID: r.ListingID, Reason: reason, At: r.UpdatedAt})
	return nil
}

func (r *Rental) Start(now time.Time) error {
	if err := r.transition(StatusInProgress); err != nil {
		return err
	}
	r.touch(now)
	r.Record(RentalStarted{RentalID: r.ID, At: r.UpdatedAt})
	return nil
}

func (r *Rental) Complete(now time.Time) error {
	if err := r.transition(StatusCompleted); err != nil {
		return err
	}
	r.touch(now)
	r.Record(RentalCompleted{RentalID: r.ID, At: r.UpdatedAt})
	return nil
}

// Dispute marks a reserved rental as under gateway mediation.
func (r *Rental) Dispute(now time.Time) error {
	if err := r.transition(StatusDisputed); err != nil {
		return err
	}
	r.touch(now)
	r.Record(RentalDisputed{RentalID: r.ID, At: r.UpdatedAt})
	return nil
}

func (r *Rental) transition(next Status) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	r.Status = next
	return nil
}

// touch keeps UpdatedAt monotonically non-decreasing.
func (r *Rental) touch(now time.Time) {
	now = now.UTC()
	if now.After(r.UpdatedAt) {
		r.UpdatedAt = now
	}
}
