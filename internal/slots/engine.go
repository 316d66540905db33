// Package slots computes bookable start times. The computation is a pure,
// side-effect-free read: it is advisory only, and every result must be
// re-verified by the appointment store's own atomic commit check.
package slots

import (
	"sort"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/timeutil"
)

// Step is the candidate granularity in minutes. Client-facing slot pickers
// depend on this value; it is not configurable.
const Step = 30

// Compute returns the start offsets (minutes since midnight) at which a
// booking of durationMin would fit. Candidates advance in Step increments from
// each window's start while the service itself still fits inside the window.
// A candidate is rejected when its blocked range, [candidate-bufferMin,
// candidate+durationMin+bufferMin), overlaps any existing blocked range. The
// buffer may extend past the window edges; that is deliberate, since buffers
// protect adjacent bookings regardless of window bounds.
//
// Results are deduplicated across windows and sorted ascending.
func Compute(durationMin, bufferMin int, windows []model.AvailabilityWindow, blocked []timeutil.Range) []int {
	seen := make(map[int]struct{})
	var starts []int

	for _, w := range windows {
		for candidate := w.StartMin; candidate+durationMin <= w.EndMin; candidate += Step {
			block := timeutil.Range{
				Start: candidate - bufferMin,
				End:   candidate + durationMin + bufferMin,
			}
			if conflicts(block, blocked) {
				continue
			}
			if _, dup := seen[candidate]; dup {
				continue
			}
			seen[candidate] = struct{}{}
			starts = append(starts, candidate)
		}
	}

	sort.Ints(starts)
	return starts
}

func conflicts(block timeutil.Range, blocked []timeutil.Range) bool {
	for _, b := range blocked {
		if timeutil.OverlapsRange(block, b) {
			return true
		}
	}
	return false
}
