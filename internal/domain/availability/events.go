package availability

import (
	"time"

	"gearshare/internal/domain/listing"
)

type WindowBlocked struct {
	ListingID listing.ListingID
	RentalID  string
	Window    Window
	At        time.Time
}

func (e WindowBlocked) EventName() string     { return "calendar.blocked" }
func (e WindowBlocked) AggregateID() string   { return string(e.ListingID) }
func (e WindowBlocked) OccurredAt() time.Time { return e.At }

type WindowReleased struct {
	ListingID listing.ListingID
	RentalID  string
	Window    Window
	At        time.Time
}

func (e WindowReleased) EventName() string     { return "calendar.released" }
func (e WindowReleased) AggregateID() string   { return string(e.ListingID) }
func (e WindowReleased) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	ListingID   listing.ListingID
	RentalID    string
	ConflictRef string
	At          time.Time
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return string(e.ListingID) }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
