package availability

import (
	"errors"

	"gearshare/internal/domain/shared/daterange"
	"gearshare/internal/domain/shared/timewindow"
)

var (
	ErrTimeRequired     = errors.New("availability: hourly window requires a time interval")
	ErrTimeNotAllowed   = errors.New("availability: daily window must not carry a time interval")
	ErrMultiDayHourly   = errors.New("availability: hourly window must span exactly one date")
	ErrInvalidTimeRange = timewindow.ErrInvalidRange
)

// Window is a requested or blocked rental span. Daily listings use the date
// range alone; hourly listings pin a single date plus a time interval.
type Window struct {
	Dates daterange.DateRange
	Times *timewindow.TimeRange
}

func DailyWindow(dates daterange.DateRange) Window {
	return Window{Dates: dates}
}

func HourlyWindow(dates daterange.DateRange, times timewindow.TimeRange) Window {
	return Window{Dates: dates, Times: &times}
}

func (w Window) Validate() error {
	if err := w.Dates.Validate(); err != nil {
		return err
	}
	if w.Times == nil {
		return nil
	}
	if !w.Dates.SingleDay() {
		return ErrMultiDayHourly
	}
	return w.Times.Validate()
}

func (w Window) Hourly() bool {
	return w.Times != nil
}

// Overlaps applies the engine's two-level semantics: dates collide on an
// inclusive day comparison; when both windows carry time intervals the
// half-open time comparison decides.
func (w Window) Overlaps(other Window) bool {
	if !w.Dates.Overlaps(other.Dates) {
		return false
	}
	if w.Times != nil && other.Times != nil {
		return w.Times.Overlaps(*other.Times)
	}
	return true
}
