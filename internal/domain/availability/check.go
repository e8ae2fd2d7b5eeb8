package availability

import (
	"time"

	"gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/daterange"
)

// Reason explains the first check that failed for a candidate window.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonInvalidWindow Reason = "INVALID_WINDOW"
	ReasonPast          Reason = "PAST"
	ReasonDayDisabled   Reason = "DAY_DISABLED"
	ReasonNoSlot        Reason = "NO_MATCHING_SLOT"
	ReasonBlocked       Reason = "BLOCKED"
)

// Decision is the outcome of an availability check. ConflictRef carries the
// rental behind the colliding block when Reason is BLOCKED.
type Decision struct {
	Available   bool
	Reason      Reason
	ConflictRef string
}

func available() Decision {
	return Decision{Available: true}
}

func unavailable(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Check decides whether the candidate window can be booked on the listing
// given its recurring schedule and the current blocks. Pure; evaluation
// short-circuits on the first failing rule to keep the reason actionable.
func Check(l *listing.Listing, cal *BlockCalendar, w Window, now time.Time) Decision {
	if err := shapeFor(l.PriceType, w); err != nil {
		return unavailable(ReasonInvalidWindow)
	}
	if inPast(w, now) {
		return unavailable(ReasonPast)
	}
	for _, day := range w.Dates.Days() {
		schedule := l.Schedule.Day(day.Weekday())
		if !schedule.Enabled {
			return unavailable(ReasonDayDisabled)
		}
		if w.Times != nil {
			if _, ok := schedule.SlotContaining(*w.Times); !ok {
				return unavailable(ReasonNoSlot)
			}
		}
	}
	if cal != nil {
		if block, ok := cal.FirstConflict(w); ok {
			return Decision{Reason: ReasonBlocked, ConflictRef: block.RentalID}
		}
	}
	return available()
}

func shapeFor(pt listing.PriceType, w Window) error {
	if err := w.Validate(); err != nil {
		return err
	}
	switch pt {
	case listing.PriceHourly:
		if w.Times == nil {
			return ErrTimeRequired
		}
	default:
		if w.Times != nil {
			return ErrTimeNotAllowed
		}
	}
	return nil
}

// inPast rejects windows whose requested span has already elapsed. Today
// remains bookable as long as the full interval is still ahead.
func inPast(w Window, now time.Time) bool {
	today := daterange.DateOf(now)
	if w.Dates.Start.Before(today) {
		return true
	}
	if w.Times != nil && w.Dates.Start.Equal(today) {
		return !w.Times.End.At(today).After(now.UTC())
	}
	return false
}
