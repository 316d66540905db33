package model

import (
	"time"

	"github.com/hopono/scheduling/internal/timeutil"
)

// Appointment statuses. An appointment is never deleted; its lifecycle is
// tracked through status alone.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

type Appointment struct {
	ID                int64
	ConfirmationToken string
	ClientID          int64
	ServiceID         int64
	Date              time.Time // midnight UTC of the booking day
	StartMin          int       // minutes since midnight
	EndMin            int
	BufferBeforeMin   int // padding fixed at creation time
	BufferAfterMin    int
	Status            string
	CouponID          *int64
	DiscountCents     *int64
	Source            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BlockedRange is the interval during which no other appointment may start,
// including the buffers on both sides. Cancelled appointments contribute no
// blocked range; callers filter on status before using this.
func (a Appointment) BlockedRange() timeutil.Range {
	return timeutil.Range{
		Start: a.StartMin - a.BufferBeforeMin,
		End:   a.EndMin + a.BufferAfterMin,
	}
}

// StartAt returns the appointment start as an absolute instant.
func (a Appointment) StartAt() time.Time {
	return a.Date.Add(time.Duration(a.StartMin) * time.Minute)
}
