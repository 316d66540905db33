package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/timeutil"
	"github.com/hopono/scheduling/libs/db"
)

// AppointmentRepository is the booking ledger. The commit path relies on a
// Postgres exclusion constraint over (date, blocked range) restricted to
// non-cancelled rows, so the overlap check and the insert are one atomic unit
// regardless of how many writers race.
type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// Create inserts a confirmed appointment. It returns ErrSlotTaken when the
// blocked range overlaps a committed non-cancelled appointment on the same
// date; the caller treats that as a normal business outcome, not a fault.
func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	block := appt.BlockedRange()
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(confirmation_token, client_id, service_id, date, start_min, end_min,
			 buffer_before_min, buffer_after_min, blocked_start_min, blocked_end_min,
			 status, coupon_id, discount_cents, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`, appt.ConfirmationToken, appt.ClientID, appt.ServiceID, appt.Date,
		appt.StartMin, appt.EndMin, appt.BufferBeforeMin, appt.BufferAfterMin,
		block.Start, block.End, appt.Status, appt.CouponID, appt.DiscountCents,
		appt.Source).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		if IsExclusionViolation(err) {
			return ErrSlotTaken
		}
		return err
	}
	return nil
}

// BlockedRanges returns the blocked minute ranges of all non-cancelled
// appointments on the given date.
func (r *AppointmentRepository) BlockedRanges(ctx context.Context, date time.Time) ([]timeutil.Range, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT blocked_start_min, blocked_end_min
		FROM appointments
		WHERE date = $1 AND status <> 'cancelled'
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []timeutil.Range
	for rows.Next() {
		var rg timeutil.Range
		if err := rows.Scan(&rg.Start, &rg.End); err != nil {
			return nil, err
		}
		ranges = append(ranges, rg)
	}
	return ranges, rows.Err()
}

const appointmentColumns = `
	id, confirmation_token, client_id, service_id, date, start_min, end_min,
	buffer_before_min, buffer_after_min, status, coupon_id, discount_cents,
	source, created_at, updated_at`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID, &a.ConfirmationToken, &a.ClientID, &a.ServiceID, &a.Date,
		&a.StartMin, &a.EndMin, &a.BufferBeforeMin, &a.BufferAfterMin,
		&a.Status, &a.CouponID, &a.DiscountCents, &a.Source,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// GetForUpdate loads an appointment inside tx with a row lock, so status
// transitions serialize per row.
func (r *AppointmentRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id int64) (model.Appointment, error) {
	return scanAppointment(tx.QueryRow(ctx,
		`SELECT`+appointmentColumns+` FROM appointments WHERE id = $1 FOR UPDATE`, id))
}

// GetByToken resolves an appointment by its confirmation token.
func (r *AppointmentRepository) GetByToken(ctx context.Context, token string) (model.Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT`+appointmentColumns+` FROM appointments WHERE confirmation_token = $1`, token))
}

// SetStatus performs a status transition as a plain single-row update.
// Transitions never repeat the overlap check: leaving the confirmed state can
// only free capacity, never create a conflict.
func (r *AppointmentRepository) SetStatus(ctx context.Context, tx pgx.Tx, id int64, status string) error {
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	return err
}

// ListByDate returns all appointments on a date, newest first.
func (r *AppointmentRepository) ListByDate(ctx context.Context, date time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+appointmentColumns+` FROM appointments WHERE date = $1 ORDER BY start_min`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	return appts, rows.Err()
}
