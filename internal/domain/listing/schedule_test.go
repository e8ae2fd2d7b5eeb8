package listing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gearshare/internal/domain/shared/timewindow"
)

func slot(t *testing.T, start, end string) timewindow.TimeRange {
	t.Helper()
	tr, err := timewindow.ParseRange(start, end)
	require.NoError(t, err)
	return tr
}

func TestNewWeeklyScheduleEnablesEveryDay(t *testing.T) {
	ws := NewWeeklySchedule()
	for d := time.Sunday; d <= time.Saturday; d++ {
		require.True(t, ws.Day(d).Enabled, "weekday %s", d)
		require.Empty(t, ws.Day(d).Slots)
	}
}

func TestValidateRejectsOverlappingSlots(t *testing.T) {
	day := DaySchedule{Enabled: true, Slots: []timewindow.TimeRange{
		slot(t, "09:00", "12:00"),
		slot(t, "11:00", "14:00"),
	}}
	require.ErrorIs(t, day.Validate(), ErrOverlappingSlots)
}

func TestValidateRejectsUnorderedSlots(t *testing.T) {
	day := DaySchedule{Enabled: true, Slots: []timewindow.TimeRange{
		slot(t, "14:00", "16:00"),
		slot(t, "09:00", "12:00"),
	}}
	require.ErrorIs(t, day.Validate(), ErrSlotOrder)
}

func TestValidateAcceptsBackToBackSlots(t *testing.T) {
	day := DaySchedule{Enabled: true, Slots: []timewindow.TimeRange{
		slot(t, "09:00", "12:00"),
		slot(t, "12:00", "15:00"),
	}}
	require.NoError(t, day.Validate())
}

func TestSlotContaining(t *testing.T) {
	day := DaySchedule{Enabled: true, Slots: []timewindow.TimeRange{
		slot(t, "09:00", "12:00"),
		slot(t, "14:00", "18:00"),
	}}

	found, ok := day.SlotContaining(slot(t, "15:00", "17:00"))
	require.True(t, ok)
	require.Equal(t, slot(t, "14:00", "18:00"), found)

	_, ok = day.SlotContaining(slot(t, "11:00", "15:00"))
	require.False(t, ok, "interval spanning two slots is not contained by either")

	_, ok = day.SlotContaining(slot(t, "19:00", "20:00"))
	require.False(t, ok)
}

func TestNewListingValidatesPricing(t *testing.T) {
	_, err := NewListing(CreateParams{
		ID:             "l1",
		OwnerID:        "owner",
		PriceType:      PriceDaily,
		DepositPercent: 20,
		Now:            time.Now(),
	})
	require.ErrorIs(t, err, ErrInvalidPricing)

	_, err = NewListing(CreateParams{
		ID:             "l2",
		OwnerID:        "owner",
		PriceType:      PriceType("WEEKLY"),
		DepositPercent: 20,
		Now:            time.Now(),
	})
	require.ErrorIs(t, err, ErrInvalidPricing)
}
