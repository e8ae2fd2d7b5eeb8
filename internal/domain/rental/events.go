package rental

import (
	"time"

	"gearshare/internal/domain/availability"
	"gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/money"
)

type RentalRequested struct {
	RentalID  RentalID
	ListingID listing.ListingID
	RenterID  string
	Window    availability.Window
	Deposit   money.Money
	At        time.Time
}

func (e RentalRequested) EventName() string     { return "rental.requested" }
func (e RentalRequested) AggregateID() string   { return string(e.RentalID) }
func (e RentalRequested) OccurredAt() time.Time { return e.At }

type RentalReserved struct {
	RentalID  RentalID
	ListingID listing.ListingID
	At        time.Time
}

func (e RentalReserved) EventName() string     { return "rental.reserved" }
func (e RentalReserved) AggregateID() string   { return string(e.RentalID) }
func (e RentalReserved) OccurredAt() time.Time { return e.At }

type RentalCancelled struct {
	RentalID  RentalID
	ListingID listing.ListingID
	Reason    string
	At        time.Time
}

func (e RentalCancelled) EventName() string     { return "rental.cancelled" }
func (e RentalCancelled) AggregateID() string   { return string(e.RentalID) }
func (e RentalCancelled) OccurredAt() time.Time { return e.At }

type RentalStarted struct {
	RentalID RentalID
	At       time.Time
}

func (e RentalStarted) EventName() string     { return "rental.started" }
func (e RentalStarted) AggregateID() string   { return string(e.RentalID) }
func (e RentalStarted) OccurredAt() time.Time { return e.At }

type RentalCompleted struct {
	RentalID RentalID
	At       time.Time
}

func (e RentalCompleted) EventName() string     { return "rental.completed" }
func (e RentalCompleted) AggregateID() string   { return string(e.RentalID) }
func (e RentalCompleted) OccurredAt() time.Time { return e.At }

type RentalDisputed struct {
	RentalID RentalID
	At       time.Time
}

func (e RentalDisputed) EventName() string     { return "rental.disputed" }
func (e RentalDisputed) AggregateID() string   { return string(e.RentalID) }
func (e RentalDisputed) OccurredAt() time.Time { return e.At }
