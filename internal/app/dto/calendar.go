package dto

import (
	"time"

	domainavailability "gearshare/internal/domain/availability"
	domainlisting "gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/timewindow"
)

type ScheduleSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ScheduleDay struct {
	Enabled bool           `json:"enabled"`
	Slots   []ScheduleSlot `json:"slots,omitempty"`
}

// CalendarBlock exposes only the claimed span and an opaque marker; renter
// identity never leaves the service.
type CalendarBlock struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
	Ref       string    `json:"ref"`
}

type Calendar struct {
	ListingID string                 `json:"listing_id"`
	Schedule  map[string]ScheduleDay `json:"schedule"`
	Blocks    []CalendarBlock        `json:"blocks"`
}

func MapCalendar(l *domainlisting.Listing, cal *domainavailability.BlockCalendar) Calendar {
	out := Calendar{
		ListingID: string(l.ID),
		Schedule:  make(map[string]ScheduleDay, 7),
		Blocks:    []CalendarBlock{},
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		day := l.Schedule.Day(d)
		mapped := ScheduleDay{Enabled: day.Enabled}
		for _, slot := range day.Slots {
			mapped.Slots = append(mapped.Slots, mapSlot(slot))
		}
		out.Schedule[d.String()] = mapped
	}
	if cal != nil {
		for _, block := range cal.Blocks {
			mapped := CalendarBlock{
				StartDate: block.Window.Dates.Start,
				EndDate:   block.Window.Dates.End,
				Ref:       block.RentalID,
			}
			if block.Window.Hourly() {
				mapped.StartTime = block.Window.Times.Start.String()
				mapped.EndTime = block.Window.Times.End.String()
			}
			out.Blocks = append(out.Blocks, mapped)
		}
	}
	return out
}

type SlotList struct {
	ListingID string         `json:"listing_id"`
	Date      time.Time      `json:"date"`
	Slots     []ScheduleSlot `json:"slots"`
}

func MapSlots(listingID string, date time.Time, slots []timewindow.TimeRange) SlotList {
	out := SlotList{ListingID: listingID, Date: date, Slots: []ScheduleSlot{}}
	for _, slot := range slots {
		out.Slots = append(out.Slots, mapSlot(slot))
	}
	return out
}

func mapSlot(tr timewindow.TimeRange) ScheduleSlot {
	return ScheduleSlot{Start: tr.Start.String(), End: tr.End.String()}
}
