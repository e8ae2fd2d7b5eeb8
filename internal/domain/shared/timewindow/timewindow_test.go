package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tod, err := Parse("09:30")
	require.NoError(t, err)
	require.Equal(t, TimeOfDay(9*60+30), tod)
	require.Equal(t, "09:30", tod.String())

	for _, bad := range []string{"", "25:00", "10:75", "banana"} {
		_, err := Parse(bad)
		require.ErrorIs(t, err, ErrInvalidTime, "input %q", bad)
	}
}

func TestAtAnchorsOnDate(t *testing.T) {
	tod, _ := Parse("14:15")
	date := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, time.September, 10, 14, 15, 0, 0, time.UTC), tod.At(date))
}

func TestNewRangeRejectsEmptyAndReversed(t *testing.T) {
	_, err := NewRange(600, 600)
	require.ErrorIs(t, err, ErrInvalidRange)
	_, err = NewRange(700, 600)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	morning, _ := ParseRange("09:00", "12:00")
	afternoon, _ := ParseRange("12:00", "15:00")
	late, _ := ParseRange("11:00", "13:00")

	require.False(t, morning.Overlaps(afternoon), "back-to-back ranges must not collide")
	require.True(t, morning.Overlaps(late))
	require.True(t, late.Overlaps(afternoon))
}

func TestContainsRequiresFullContainment(t *testing.T) {
	slot, _ := ParseRange("10:00", "12:00")
	inside, _ := ParseRange("10:30", "11:30")
	spilling, _ := ParseRange("11:00", "13:00")
	exact, _ := ParseRange("10:00", "12:00")

	require.True(t, slot.Contains(inside))
	require.True(t, slot.Contains(exact))
	require.False(t, slot.Contains(spilling), "overlap without containment must not qualify")
}

func TestMinutes(t *testing.T) {
	tr, _ := ParseRange("09:00", "10:30")
	require.Equal(t, 90, tr.Minutes())
}
