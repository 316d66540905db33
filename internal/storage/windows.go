package storage

import (
	"context"
	"time"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/libs/db"
)

// WindowRepository is the availability index: per-date open windows, created
// and deleted by administrative action, never mutated.
type WindowRepository struct {
	pool *db.Pool
}

func NewWindowRepository(pool *db.Pool) *WindowRepository {
	return &WindowRepository{pool: pool}
}

func (r *WindowRepository) ListByDate(ctx context.Context, date time.Time) ([]model.AvailabilityWindow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, date, start_min, end_min, created_at
		FROM availability_windows
		WHERE date = $1
		ORDER BY start_min
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var windows []model.AvailabilityWindow
	for rows.Next() {
		var w model.AvailabilityWindow
		if err := rows.Scan(&w.ID, &w.Date, &w.StartMin, &w.EndMin, &w.CreatedAt); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

// Create inserts a window. Duplicate (date, start, end) tuples surface as a
// unique violation for the handler to map.
func (r *WindowRepository) Create(ctx context.Context, w *model.AvailabilityWindow) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO availability_windows (date, start_min, end_min)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, w.Date, w.StartMin, w.EndMin).Scan(&w.ID, &w.CreatedAt)
}

func (r *WindowRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
