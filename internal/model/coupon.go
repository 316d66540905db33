package model

import "time"

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

type Coupon struct {
	ID            int64
	Code          string // stored uppercased; unique case-insensitively
	DiscountType  string
	DiscountValue float64 // percent points, or a euro amount for fixed
	ValidFrom     *time.Time
	ValidUntil    *time.Time
	MaxUses       *int
	TimesUsed     int
	IsActive      bool
	CreatedAt     time.Time
}
