package coupon

import (
	"testing"
	"time"

	"github.com/hopono/scheduling/internal/model"
)

var today = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestEvaluate_PercentDiscount(t *testing.T) {
	c := &model.Coupon{
		ID:            7,
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercent,
		DiscountValue: 10,
		IsActive:      true,
	}
	v := Evaluate(c, 5000, today)
	if !v.Valid {
		t.Fatalf("expected valid, got reason %q", v.Reason)
	}
	if v.DiscountCents != 500 {
		t.Fatalf("expected 500 cents off, got %d", v.DiscountCents)
	}
	if v.CouponID != 7 {
		t.Fatalf("expected coupon id 7, got %d", v.CouponID)
	}
}

func TestEvaluate_FixedDiscountCappedAtPrice(t *testing.T) {
	c := &model.Coupon{
		DiscountType:  model.DiscountFixed,
		DiscountValue: 80, // euros, more than the 50.00 service
		IsActive:      true,
	}
	v := Evaluate(c, 5000, today)
	if !v.Valid {
		t.Fatalf("expected valid, got reason %q", v.Reason)
	}
	if v.DiscountCents != 5000 {
		t.Fatalf("fixed discount must not exceed price: got %d", v.DiscountCents)
	}
}

func TestEvaluate_UsageCapReached(t *testing.T) {
	one := 1
	c := &model.Coupon{
		DiscountType:  model.DiscountPercent,
		DiscountValue: 10,
		IsActive:      true,
		MaxUses:       &one,
		TimesUsed:     1,
	}
	v := Evaluate(c, 5000, today)
	if v.Valid {
		t.Fatalf("expected invalid when cap reached")
	}
	if v.Reason != ReasonExhausted {
		t.Fatalf("expected exhausted reason, got %q", v.Reason)
	}
}

func TestEvaluate_ValidityWindow(t *testing.T) {
	from := today.AddDate(0, 0, 1)
	until := today.AddDate(0, 0, -1)

	notYet := &model.Coupon{DiscountType: model.DiscountPercent, DiscountValue: 5, IsActive: true, ValidFrom: &from}
	if v := Evaluate(notYet, 1000, today); v.Valid || v.Reason != ReasonNotYetValid {
		t.Fatalf("expected not-yet-valid, got %+v", v)
	}

	expired := &model.Coupon{DiscountType: model.DiscountPercent, DiscountValue: 5, IsActive: true, ValidUntil: &until}
	if v := Evaluate(expired, 1000, today); v.Valid || v.Reason != ReasonExpired {
		t.Fatalf("expected expired, got %+v", v)
	}

	// Bounds are inclusive: valid on the boundary days themselves.
	sameDay := &model.Coupon{DiscountType: model.DiscountPercent, DiscountValue: 5, IsActive: true, ValidFrom: &today, ValidUntil: &today}
	if v := Evaluate(sameDay, 1000, today); !v.Valid {
		t.Fatalf("expected valid on boundary day, got reason %q", v.Reason)
	}
}

func TestEvaluate_InactiveAndUnknown(t *testing.T) {
	if v := Evaluate(nil, 1000, today); v.Valid || v.Reason != ReasonUnknownCode {
		t.Fatalf("expected unknown-code verdict, got %+v", v)
	}
	c := &model.Coupon{DiscountType: model.DiscountPercent, DiscountValue: 5, IsActive: false}
	if v := Evaluate(c, 1000, today); v.Valid || v.Reason != ReasonInactive {
		t.Fatalf("expected inactive verdict, got %+v", v)
	}
}
