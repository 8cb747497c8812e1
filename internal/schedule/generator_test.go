package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interval(t *testing.T, date time.Time, from, to string) TimeInterval {
	t.Helper()
	return TimeInterval{Start: clock(t, date, from), End: clock(t, date, to)}
}

func TestCandidateSlotsBoundaryInclusive(t *testing.T) {
	// step=30, [09:00,11:00), duration=30 -> 09:00 09:30 10:00 10:30;
	// the 10:30 slot ends exactly at 11:00 and is still offered.
	date := mondayDate()
	slots := CandidateSlots(
		[]TimeInterval{interval(t, date, "09:00", "11:00")},
		30*time.Minute,
		30*time.Minute,
	)

	require.Len(t, slots, 4)
	assert.Equal(t, clock(t, date, "09:00"), slots[0])
	assert.Equal(t, clock(t, date, "09:30"), slots[1])
	assert.Equal(t, clock(t, date, "10:00"), slots[2])
	assert.Equal(t, clock(t, date, "10:30"), slots[3])
}

func TestCandidateSlotsDurationLongerThanInterval(t *testing.T) {
	date := mondayDate()
	slots := CandidateSlots(
		[]TimeInterval{interval(t, date, "09:00", "10:00")},
		90*time.Minute,
		30*time.Minute,
	)

	assert.Empty(t, slots)
}

func TestCandidateSlotsStepIndependentOfDuration(t *testing.T) {
	// A 60 minute service offered every 15 minutes.
	date := mondayDate()
	slots := CandidateSlots(
		[]TimeInterval{interval(t, date, "09:00", "10:30")},
		60*time.Minute,
		15*time.Minute,
	)

	require.Len(t, slots, 3)
	assert.Equal(t, clock(t, date, "09:30"), slots[2])
}

func TestCandidateSlotsIntervalsInOrder(t *testing.T) {
	date := mondayDate()
	slots := CandidateSlots(
		[]TimeInterval{
			interval(t, date, "09:00", "10:00"),
			interval(t, date, "13:00", "14:00"),
		},
		30*time.Minute,
		30*time.Minute,
	)

	require.Len(t, slots, 4)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i].After(slots[i-1]), "slots must be ascending")
	}
}

func TestFilterPastDropsElapsedTimes(t *testing.T) {
	date := mondayDate()
	slots := []time.Time{
		clock(t, date, "09:00"),
		clock(t, date, "10:00"),
		clock(t, date, "11:00"),
	}

	remaining := FilterPast(slots, clock(t, date, "10:00"))
	require.Len(t, remaining, 1)
	assert.Equal(t, clock(t, date, "11:00"), remaining[0])
}
