package daterange

import (
	"errors"
	"time"
)

var ErrInvalidRange = errors.New("daterange: end date must not precede start date")

// DateRange is a closed interval [Start, End] compared at day granularity.
// Both bounds are normalized to midnight UTC; time-of-day is carried
// separately for hourly rentals (see the timewindow package).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (DateRange, error) {
	dr := DateRange{Start: DateOf(start), End: DateOf(end)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// DateOf strips the time-of-day component, keeping the calendar date in UTC.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.Start.IsZero() || dr.End.IsZero() {
		return ErrInvalidRange
	}
	if dr.End.Before(dr.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Overlaps reports whether the two closed day ranges share at least one date.
func (dr DateRange) Overlaps(other DateRange) bool {
	return !dr.Start.After(other.End) && !dr.End.Before(other.Start)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	day := DateOf(t)
	return !day.Before(dr.Start) && !day.After(dr.End)
}

// SingleDay reports whether the range spans exactly one calendar date.
func (dr DateRange) SingleDay() bool {
	return dr.Start.Equal(dr.End)
}

// Days returns every calendar date in the range, in order.
func (dr DateRange) Days() []time.Time {
	var days []time.Time
	for d := dr.Start; !d.After(dr.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func (dr DateRange) DayCount() int {
	return int(dr.End.Sub(dr.Start).Hours()/24) + 1
}
