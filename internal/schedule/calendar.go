// Package schedule implements the pure slot-computation pipeline: working
// hours to open intervals, open intervals to candidate start times, candidates
// minus occupied appointments to bookable slots. Everything here is
// deterministic and free of side effects; persistence and locking live in the
// booking service.
package schedule

import (
	"fmt"
	"time"

	"github.com/orkestre/orkestre-api/internal/models"
)

// TimeInterval is a half-open [Start, End) range on a concrete date.
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the interval covers no time.
func (i TimeInterval) Empty() bool {
	return !i.Start.Before(i.End)
}

// OpenIntervals maps a working-hours configuration and a calendar date to the
// open intervals of that date: none when the weekday is inactive, one when no
// lunch break is configured, up to two when the lunch break splits the window.
// The date's clock fields are ignored; times are anchored in loc.
func OpenIntervals(cfg *models.WorkingHoursConfig, date time.Time, loc *time.Location) ([]TimeInterval, error) {
	if cfg == nil {
		return nil, nil
	}

	day := cfg.DayFor(date.Weekday())
	if !day.IsActive {
		return nil, nil
	}

	start, err := clockOnDate(date, day.StartTime, loc)
	if err != nil {
		return nil, fmt.Errorf("day start: %w", err)
	}
	end, err := clockOnDate(date, day.EndTime, loc)
	if err != nil {
		return nil, fmt.Errorf("day end: %w", err)
	}

	base := TimeInterval{Start: start, End: end}
	if base.Empty() {
		return nil, nil
	}

	if !day.HasLunchBreak() {
		return []TimeInterval{base}, nil
	}

	lunchStart, err := clockOnDate(date, day.LunchBreakStartTime, loc)
	if err != nil {
		return nil, fmt.Errorf("lunch start: %w", err)
	}
	lunchEnd, err := clockOnDate(date, day.LunchBreakEndTime, loc)
	if err != nil {
		return nil, fmt.Errorf("lunch end: %w", err)
	}

	return subtract(base, TimeInterval{Start: lunchStart, End: lunchEnd}), nil
}

// subtract removes the break from the base window, dropping any sub-interval
// that collapses to nothing.
func subtract(base, brk TimeInterval) []TimeInterval {
	if brk.Empty() || !brk.Start.Before(base.End) || !base.Start.Before(brk.End) {
		return []TimeInterval{base}
	}

	var out []TimeInterval
	before := TimeInterval{Start: base.Start, End: minTime(brk.Start, base.End)}
	if !before.Empty() {
		out = append(out, before)
	}
	after := TimeInterval{Start: maxTime(brk.End, base.Start), End: base.End}
	if !after.Empty() {
		out = append(out, after)
	}
	return out
}

// clockOnDate anchors an "HH:MM" or "HH:MM:SS" clock string on the given date.
func clockOnDate(date time.Time, clock string, loc *time.Location) (time.Time, error) {
	parsed, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), 0, loc), nil
}

// ParseClock parses a local time-of-day string in either form the settings
// form may submit.
func ParseClock(clock string) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, clock); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time of day %q", clock)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
