package storage

import (
	"context"

	"github.com/hopono/scheduling/internal/model"
	"github.com/hopono/scheduling/libs/db"
)

type ServiceRepository struct {
	pool *db.Pool
}

func NewServiceRepository(pool *db.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

func (r *ServiceRepository) Get(ctx context.Context, id int64) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, subtitle, duration_minutes, price_cents, is_active, sort_order
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Subtitle, &s.DurationMinutes, &s.PriceCents, &s.IsActive, &s.SortOrder)
	return s, err
}

func (r *ServiceRepository) ListActive(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, subtitle, duration_minutes, price_cents, is_active, sort_order
		FROM services
		WHERE is_active
		ORDER BY sort_order, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Subtitle, &s.DurationMinutes, &s.PriceCents, &s.IsActive, &s.SortOrder); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}
