package repository

import "errors"

// ErrSlotTaken is returned by CreateIfSlotFree when the requested time range
// overlaps an occupied appointment at commit time. The booking service maps
// it to the SlotUnavailable API error.
var ErrSlotTaken = errors.New("time slot already taken")
