package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors mapping storage-level races to business outcomes.
var (
	// ErrSlotTaken reports that the appointment's blocked range collided with
	// a committed appointment. The caller must re-derive availability; it must
	// not retry the same slot.
	ErrSlotTaken = errors.New("storage: slot already taken")

	// ErrCouponExhausted reports that the guarded usage increment found the
	// cap already reached.
	ErrCouponExhausted = errors.New("storage: coupon usage cap reached")

	// ErrReminderAlreadySent reports that another dispatcher run already
	// recorded a sent reminder for this appointment and channel.
	ErrReminderAlreadySent = errors.New("storage: reminder already sent")
)

// IsExclusionViolation reports a Postgres exclusion-constraint violation
// (23P01), raised when two blocked ranges on the same date overlap.
func IsExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// IsUniqueViolation reports a Postgres unique-constraint violation (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
