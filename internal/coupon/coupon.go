// Package coupon evaluates discount codes. Evaluation is pure; the atomic
// usage-count increment lives in storage and runs inside the booking
// transaction.
package coupon

import (
	"math"
	"time"

	"github.com/hopono/scheduling/internal/model"
)

// Verdict is the outcome of validating a coupon against a service price.
type Verdict struct {
	Valid         bool
	Reason        string
	CouponID      int64
	DiscountCents int64
	DiscountType  string
	DiscountValue float64
}

// Rejection reasons surfaced to the caller. These are informational; an
// invalid coupon never aborts a booking.
const (
	ReasonUnknownCode = "unknown coupon code"
	ReasonInactive    = "coupon is no longer active"
	ReasonNotYetValid = "coupon is not yet valid"
	ReasonExpired     = "coupon has expired"
	ReasonExhausted   = "coupon has reached its usage limit"
)

// Evaluate validates c in order: active, validity window, usage cap, then
// computes the discount for priceCents. A nil coupon means the code did not
// resolve. A fixed discount is capped at the service price so the total can
// never go negative.
func Evaluate(c *model.Coupon, priceCents int64, today time.Time) Verdict {
	if c == nil {
		return Verdict{Reason: ReasonUnknownCode}
	}
	if !c.IsActive {
		return Verdict{Reason: ReasonInactive}
	}
	day := today.UTC().Truncate(24 * time.Hour)
	if c.ValidFrom != nil && day.Before(c.ValidFrom.UTC().Truncate(24*time.Hour)) {
		return Verdict{Reason: ReasonNotYetValid}
	}
	if c.ValidUntil != nil && day.After(c.ValidUntil.UTC().Truncate(24*time.Hour)) {
		return Verdict{Reason: ReasonExpired}
	}
	if c.MaxUses != nil && c.TimesUsed >= *c.MaxUses {
		return Verdict{Reason: ReasonExhausted}
	}

	return Verdict{
		Valid:         true,
		CouponID:      c.ID,
		DiscountCents: discount(c, priceCents),
		DiscountType:  c.DiscountType,
		DiscountValue: c.DiscountValue,
	}
}

func discount(c *model.Coupon, priceCents int64) int64 {
	switch c.DiscountType {
	case model.DiscountPercent:
		return int64(math.Round(float64(priceCents) * c.DiscountValue / 100))
	case model.DiscountFixed:
		fixed := int64(math.Round(c.DiscountValue * 100))
		if fixed > priceCents {
			return priceCents
		}
		return fixed
	default:
		return 0
	}
}
