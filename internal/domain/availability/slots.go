package availability

import (
	"time"

	"gearshare/internal/domain/listing"
	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/timewindow"
)

// fullDay covers midnight to midnight for daily listings.
var fullDay = timewindow.TimeRange{Start: 0, End: 24 * 60}

// FreeSlots enumerates the bookable time ranges on a single date, after
// subtracting existing blocks and, for today, the time already elapsed.
func FreeSlots(l *listing.Listing, cal *BlockCalendar, date time.Time, now time.Time) []timewindow.TimeRange {
	day := daterange.DateOf(date)
	today := daterange.DateOf(now)
	if day.Before(today) {
		return nil
	}
	schedule := l.Schedule.Day(day.Weekday())
	if !schedule.Enabled {
		return nil
	}

	var free []timewindow.TimeRange
	if l.PriceType == listing.PriceHourly {
		free = append(free, schedule.Slots...)
	} else {
		free = append(free, fullDay)
	}

	if cal != nil {
		for _, block := range cal.Blocks {
			if !block.Window.Dates.ContainsDate(day) {
				continue
			}
			if block.Window.Times == nil {
				return nil
			}
			free = subtract(free, *block.Window.Times)
		}
	}

	if day.Equal(today) {
		elapsed := timewindow.TimeOfDay(now.UTC().Sub(today).Minutes())
		free = subtract(free, timewindow.TimeRange{Start: 0, End: elapsed})
	}
	return free
}

// subtract removes the blocked interval from every range, splitting ranges
// the block lands inside.
func subtract(ranges []timewindow.TimeRange, blocked timewindow.TimeRange) []timewindow.TimeRange {
	if blocked.End <= blocked.Start {
		return ranges
	}
	out := make([]timewindow.TimeRange, 0, len(ranges))
	for _, r := range ranges {
		if !r.Overlaps(blocked) {
			out = append(out, r)
			continue
		}
		if r.Start < blocked.Start {
			out = append(out, timewindow.TimeRange{Start: r.Start, End: blocked.Start})
		}
		if blocked.End < r.End {
			out = append(out, timewindow.TimeRange{Start: blocked.End, End: r.End})
		}
	}
	return out
}
