package storage

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/libs/db"
)

type ClientRepository struct {
	pool *db.Pool
}

func NewClientRepository(pool *db.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// Upsert resolves a client by email (case-insensitive) inside tx. Returning
// clients get their mutable attributes overwritten with the latest
// submission; the consent timestamp is set once and never retreats.
func (r *ClientRepository) Upsert(ctx context.Context, tx pgx.Tx, c model.Client) (model.Client, error) {
	email := strings.ToLower(strings.TrimSpace(c.Email))
	row := tx.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, reminder_preference, consent, consented_at)
		VALUES ($1, $2, $3, $4, true, now())
		ON CONFLICT (lower(email)) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			reminder_preference = EXCLUDED.reminder_preference,
			consent = true,
			consented_at = COALESCE(clients.consented_at, EXCLUDED.consented_at),
			updated_at = now()
		RETURNING id, name, email, phone, reminder_preference, consent, consented_at, created_at, updated_at
	`, c.Name, email, c.Phone, c.ReminderPreference)

	var out model.Client
	err := row.Scan(&out.ID, &out.Name, &out.Email, &out.Phone,
		&out.ReminderPreference, &out.Consent, &out.ConsentedAt,
		&out.CreatedAt, &out.UpdatedAt)
	return out, err
}
