package catalogrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/pg"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) FindServiceByID(ctx context.Context, id int64) (*domain.Service, error) {
	query := `
        SELECT id, provider_id, category_id, name, base_price, duration_minutes, active
        FROM services
        WHERE id = $1
    `
	var s domain.Service
	err := r.db.QueryRow(ctx, query, id).
		Scan(&s.ID, &s.ProviderID, &s.CategoryID, &s.Name, &s.BasePrice, &s.DurationMinutes, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find service", zap.Int64("service_id", id), zap.Error(err))
		return nil, err
	}
	return &s, nil
}

func (r *Repository) ListServicesByProvider(ctx context.Context, providerID int64) ([]domain.Service, error) {
	query := `
        SELECT id, provider_id, category_id, name, base_price, duration_minutes, active
        FROM services
        WHERE provider_id = $1 AND active
        ORDER BY name ASC
    `
	rows, err := r.db.Query(ctx, query, providerID)
	if err != nil {
		zap.L().Error("can't get provider services", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var services []domain.Service
	for rows.Next() {
		var s domain.Service
		if err := rows.Scan(&s.ID, &s.ProviderID, &s.CategoryID, &s.Name, &s.BasePrice, &s.DurationMinutes, &s.Active); err != nil {
			zap.L().Error("can't scan service row", zap.Error(err))
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY name ASC`)
	if err != nil {
		zap.L().Error("can't get categories", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			zap.L().Error("can't scan category row", zap.Error(err))
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
