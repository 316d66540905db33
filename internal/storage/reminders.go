package storage

import (
	"context"
	"time"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/internal/outbox"
	"github.com/hopono/scheduling/libs/db"
)

// ReminderRepository persists notification attempts. A partial unique index
// on (appointment_id, channel) WHERE outcome = 'sent' is the authority that
// keeps dispatch idempotent across concurrent cycles and replicas.
type ReminderRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewReminderRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ReminderRepository {
	return &ReminderRepository{pool: pool, outbox: outboxRepo}
}

// DueAppointments returns confirmed appointments starting inside (from, to],
// joined with the contact details needed for delivery. Appointment start
// instants are derived from the date and minute offset, interpreted as UTC.
func (r *ReminderRepository) DueAppointments(ctx context.Context, from, to time.Time) ([]model.ReminderCandidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.date, a.start_min, s.name, c.name, c.email, c.phone, c.reminder_preference
		FROM appointments a
		JOIN clients c ON c.id = a.client_id
		JOIN services s ON s.id = a.service_id
		WHERE a.status = 'confirmed'
			AND ((a.date + a.start_min * interval '1 minute') AT TIME ZONE 'UTC') > $1
			AND ((a.date + a.start_min * interval '1 minute') AT TIME ZONE 'UTC') <= $2
		ORDER BY a.date, a.start_min
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []model.ReminderCandidate
	for rows.Next() {
		var c model.ReminderCandidate
		if err := rows.Scan(&c.AppointmentID, &c.Date, &c.StartMin, &c.ServiceName,
			&c.ClientName, &c.ClientEmail, &c.ClientPhone, &c.Preference); err != nil {
			return nil, err
		}
		due = append(due, c)
	}
	return due, rows.Err()
}

// HasSent reports whether any channel already delivered a reminder for the
// appointment.
func (r *ReminderRepository) HasSent(ctx context.Context, appointmentID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reminder_log
			WHERE appointment_id = $1 AND outcome = 'sent'
		)
	`, appointmentID).Scan(&exists)
	return exists, err
}

// RecordAttempt writes one attempt row and its outbox event in a single
// transaction. When the sent-uniqueness index rejects the row, a concurrent
// cycle already delivered on this channel: the local attempt is rolled back
// and ErrReminderAlreadySent is returned for the dispatcher to swallow.
func (r *ReminderRepository) RecordAttempt(ctx context.Context, rec *model.ReminderRecord, evt *outbox.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO reminder_log (appointment_id, channel, outcome, sent_at, error_detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, rec.AppointmentID, rec.Channel, rec.Outcome, rec.SentAt, rec.ErrorDetail).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrReminderAlreadySent
		}
		return err
	}

	if evt != nil {
		if err := r.outbox.Insert(ctx, tx, *evt); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
