package listing

import (
	"errors"
	"sort"
	"time"

	"gearshare/internal/domain/shared/timewindow"
)

var (
	ErrOverlappingSlots = errors.New("listing: schedule slots must not overlap")
	ErrSlotOrder        = errors.New("listing: schedule slots must be ordered by start time")
)

// DaySchedule describes when an item can be handed out on a given weekday.
// Slots only matter for hourly listings; daily listings use the Enabled flag.
type DaySchedule struct {
	Enabled bool
	Slots   []timewindow.TimeRange
}

// WeeklySchedule maps each weekday to its recurring availability.
type WeeklySchedule map[time.Weekday]DaySchedule

// NewWeeklySchedule returns a schedule with every weekday enabled and no
// time slots, the default for daily listings.
func NewWeeklySchedule() WeeklySchedule {
	ws := make(WeeklySchedule, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		ws[d] = DaySchedule{Enabled: true}
	}
	return ws
}

func (ws WeeklySchedule) Day(d time.Weekday) DaySchedule {
	return ws[d]
}

func (ws WeeklySchedule) Validate() error {
	for _, day := range ws {
		if err := day.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (d DaySchedule) Validate() error {
	for i, slot := range d.Slots {
		if err := slot.Validate(); err != nil {
			return err
		}
		if i == 0 {
			continue
		}
		if slot.Start < d.Slots[i-1].Start {
			return ErrSlotOrder
		}
		if slot.Overlaps(d.Slots[i-1]) {
			return ErrOverlappingSlots
		}
	}
	return nil
}

// SlotContaining returns the configured slot that fully contains the
// requested interval, if any.
func (d DaySchedule) SlotContaining(tr timewindow.TimeRange) (timewindow.TimeRange, bool) {
	idx := sort.Search(len(d.Slots), func(i int) bool {
		return d.Slots[i].End > tr.Start
	})
	if idx < len(d.Slots) && d.Slots[idx].Contains(tr) {
		return d.Slots[idx], true
	}
	return timewindow.TimeRange{}, false
}
