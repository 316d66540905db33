package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/libs/db"
)

type CouponRepository struct {
	pool *db.Pool
}

func NewCouponRepository(pool *db.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// GetByCode resolves a coupon by case-insensitive code. A missing code
// returns (nil, nil); validation treats nil as "unknown code".
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, code, discount_type, discount_value, valid_from, valid_until,
			max_uses, times_used, is_active, created_at
		FROM coupons
		WHERE upper(code) = $1
	`, strings.ToUpper(strings.TrimSpace(code)))

	var c model.Coupon
	err := row.Scan(&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue,
		&c.ValidFrom, &c.ValidUntil, &c.MaxUses, &c.TimesUsed,
		&c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Redeem atomically increments the usage counter inside the booking
// transaction. The WHERE clause re-checks the cap, so the counter can never
// pass it even when redemptions race; a lost race yields ErrCouponExhausted.
func (r *CouponRepository) Redeem(ctx context.Context, tx pgx.Tx, couponID int64) error {
	tag, err := tx.Exec(ctx, `
		UPDATE coupons
		SET times_used = times_used + 1
		WHERE id = $1
			AND is_active
			AND (max_uses IS NULL OR times_used < max_uses)
	`, couponID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCouponExhausted
	}
	return nil
}
