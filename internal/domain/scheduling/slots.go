package scheduling

import (
	"time"

	"github.com/medbook/booking/pkg/civil"
)

// DefaultSlotDuration is the length of one bookable slot.
const DefaultSlotDuration = 30 * time.Minute

// GenerateSlots returns the start times t0, t0+d, ... of every slot that
// fits inside w, i.e. with t+d <= end. Unavailable windows and windows
// shorter than d yield nothing.
func GenerateSlots(w *Schedule, d time.Duration) []civil.TimeOfDay {
	if w == nil || !w.Available || d <= 0 {
		return nil
	}
	var out []civil.TimeOfDay
	for t := w.StartTime; !t.Add(d).After(w.EndTime); t = t.Add(d) {
		out = append(out, t)
	}
	return out
}

// GenerateDaySlots concatenates the slots of windows in the given order.
// Overlapping windows produce duplicate start times.
func GenerateDaySlots(windows []*Schedule, d time.Duration) []civil.TimeOfDay {
	var out []civil.TimeOfDay
	for _, w := range windows {
		out = append(out, GenerateSlots(w, d)...)
	}
	return out
}

// subtractBooked drops every candidate whose start time is booked. Order is
// preserved.
func subtractBooked(candidates []civil.TimeOfDay, booked map[civil.TimeOfDay]bool) []civil.TimeOfDay {
	out := make([]civil.TimeOfDay, 0, len(candidates))
	for _, t := range candidates {
		if !booked[t] {
			out = append(out, t)
		}
	}
	return out
}
