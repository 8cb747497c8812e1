package schedule

import "time"

// CandidateSlots walks each open interval at the offering step and emits every
// start time whose full service duration still fits inside the interval. The
// step is the establishment's appointment_interval_minutes, independent of the
// service length, so slots may be offered denser or sparser than the service
// duration. Output is ascending as long as intervals arrive in chronological
// order.
func CandidateSlots(intervals []TimeInterval, serviceDuration, step time.Duration) []time.Time {
	if serviceDuration <= 0 || step <= 0 {
		return nil
	}

	var slots []time.Time
	for _, interval := range intervals {
		for cursor := interval.Start; !cursor.Add(serviceDuration).After(interval.End); cursor = cursor.Add(step) {
			slots = append(slots, cursor)
		}
	}
	return slots
}

// FilterPast drops candidates at or before now. Callers pass now in the
// establishment's timezone so same-day requests never offer elapsed times.
func FilterPast(slots []time.Time, now time.Time) []time.Time {
	var out []time.Time
	for _, slot := range slots {
		if slot.After(now) {
			out = append(out, slot)
		}
	}
	return out
}
