package schedule

import "time"

// Overlaps is the half-open interval overlap predicate shared by the read
// path and the booking write path: [aStart, aEnd) and [bStart, bEnd) collide
// when aStart < bEnd and bStart < aEnd. Back-to-back ranges do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// AvailableSlots removes every candidate whose service-duration window
// overlaps a busy interval. Busy intervals are the occupied appointments of
// the day; daily counts are small so the scan is linear per candidate.
func AvailableSlots(candidates []time.Time, serviceDuration time.Duration, busy []TimeInterval) []time.Time {
	var out []time.Time
	for _, slot := range candidates {
		slotEnd := slot.Add(serviceDuration)
		conflict := false
		for _, b := range busy {
			if Overlaps(slot, slotEnd, b.Start, b.End) {
				conflict = true
				break
			}
		}
		if !conflict {
			out = append(out, slot)
		}
	}
	return out
}
