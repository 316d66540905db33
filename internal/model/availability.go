package model

import (
	"time"

	"github.com/hopono/scheduling/internal/timeutil"
)

// AvailabilityWindow is an open interval on a single day during which
// appointments may be placed. Windows are created and deleted by
// administrative action and never mutated.
type AvailabilityWindow struct {
	ID        int64
	Date      time.Time // midnight UTC
	StartMin  int
	EndMin    int
	CreatedAt time.Time
}

func (w AvailabilityWindow) Range() timeutil.Range {
	return timeutil.Range{Start: w.StartMin, End: w.EndMin}
}
