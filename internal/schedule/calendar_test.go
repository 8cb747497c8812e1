package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orkestre/orkestre-api/internal/models"
)

func configWith(day models.DayWindow) *models.WorkingHoursConfig {
	return &models.WorkingHoursConfig{
		// 2025-06-02 is a Monday; tests anchor on it.
		Monday:                     day,
		AppointmentIntervalMinutes: 30,
	}
}

func mondayDate() time.Time {
	return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
}

func clock(t *testing.T, date time.Time, hhmm string) time.Time {
	t.Helper()
	parsed, err := ParseClock(hhmm)
	require.NoError(t, err)
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, date.Location())
}

func TestOpenIntervalsLunchSplitsWindow(t *testing.T) {
	cfg := configWith(models.DayWindow{
		IsActive:            true,
		StartTime:           "09:00",
		EndTime:             "18:00",
		LunchBreakStartTime: "12:00",
		LunchBreakEndTime:   "13:00",
	})

	date := mondayDate()
	intervals, err := OpenIntervals(cfg, date, time.UTC)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.Equal(t, clock(t, date, "09:00"), intervals[0].Start)
	assert.Equal(t, clock(t, date, "12:00"), intervals[0].End)
	assert.Equal(t, clock(t, date, "13:00"), intervals[1].Start)
	assert.Equal(t, clock(t, date, "18:00"), intervals[1].End)
}

func TestOpenIntervalsNoLunch(t *testing.T) {
	cfg := configWith(models.DayWindow{IsActive: true, StartTime: "08:00", EndTime: "12:00"})

	intervals, err := OpenIntervals(cfg, mondayDate(), time.UTC)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
}

func TestOpenIntervalsInactiveDay(t *testing.T) {
	cfg := configWith(models.DayWindow{IsActive: false})

	intervals, err := OpenIntervals(cfg, mondayDate(), time.UTC)
	require.NoError(t, err)
	assert.Empty(t, intervals)
}

func TestOpenIntervalsLunchAtWindowEdge(t *testing.T) {
	// Lunch starting exactly at opening leaves a single afternoon interval.
	cfg := configWith(models.DayWindow{
		IsActive:            true,
		StartTime:           "09:00",
		EndTime:             "18:00",
		LunchBreakStartTime: "09:00",
		LunchBreakEndTime:   "10:00",
	})

	date := mondayDate()
	intervals, err := OpenIntervals(cfg, date, time.UTC)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
	assert.Equal(t, clock(t, date, "10:00"), intervals[0].Start)
	assert.Equal(t, clock(t, date, "18:00"), intervals[0].End)
}

func TestOpenIntervalsAcceptsSecondsForm(t *testing.T) {
	cfg := configWith(models.DayWindow{IsActive: true, StartTime: "09:00:00", EndTime: "17:30:00"})

	intervals, err := OpenIntervals(cfg, mondayDate(), time.UTC)
	require.NoError(t, err)
	require.Len(t, intervals, 1)
}

func TestOpenIntervalsInvalidClock(t *testing.T) {
	cfg := configWith(models.DayWindow{IsActive: true, StartTime: "banana", EndTime: "17:00"})

	_, err := OpenIntervals(cfg, mondayDate(), time.UTC)
	require.Error(t, err)
}

func TestOpenIntervalsDeterministic(t *testing.T) {
	cfg := configWith(models.DayWindow{
		IsActive:            true,
		StartTime:           "09:00",
		EndTime:             "18:00",
		LunchBreakStartTime: "12:00",
		LunchBreakEndTime:   "13:00",
	})

	first, err := OpenIntervals(cfg, mondayDate(), time.UTC)
	require.NoError(t, err)
	second, err := OpenIntervals(cfg, mondayDate(), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
