package timewindow

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTime  = errors.New("timewindow: time must be formatted as HH:MM")
	ErrInvalidRange = errors.New("timewindow: end must be after start")
)

// TimeOfDay is minutes since midnight.
type TimeOfDay int

func Parse(value string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(value, "%d:%d", &h, &m); err != nil {
		return 0, ErrInvalidTime
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, ErrInvalidTime
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// At anchors the time of day onto the provided calendar date (UTC).
func (t TimeOfDay) At(date time.Time) time.Time {
	date = date.UTC()
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, time.UTC)
}

// TimeRange is a half-open interval [Start, End) within a single day.
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

func NewRange(start, end TimeOfDay) (TimeRange, error) {
	tr := TimeRange{Start: start, End: end}
	if err := tr.Validate(); err != nil {
		return TimeRange{}, err
	}
	return tr, nil
}

func ParseRange(start, end string) (TimeRange, error) {
	s, err := Parse(start)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := Parse(end)
	if err != nil {
		return TimeRange{}, err
	}
	return NewRange(s, e)
}

func (tr TimeRange) Validate() error {
	if tr.End <= tr.Start {
		return ErrInvalidRange
	}
	return nil
}

// Contains reports whether other fits entirely inside the receiver.
// A booking request must be contained by a schedule slot; mere overlap
// is not enough.
func (tr TimeRange) Contains(other TimeRange) bool {
	return tr.Start <= other.Start && other.End <= tr.End
}

// Overlaps uses half-open semantics: back-to-back ranges do not collide.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return tr.Start < other.End && other.Start < tr.End
}

func (tr TimeRange) Minutes() int {
	return int(tr.End - tr.Start)
}

func (tr TimeRange) String() string {
	return tr.Start.String() + "-" + tr.End.String()
}
