package providerrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/pg"
)

const providerColumns = `id, user_id, business_name, category_id, status, average_rating, total_ratings,
	total_earnings, this_month_earnings, pending_earnings, created_at, updated_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) find(ctx context.Context, query string, arg any) (*domain.Provider, error) {
	var p domain.Provider
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.UserID, &p.BusinessName, &p.CategoryID, &p.Status, &p.AverageRating, &p.TotalRatings,
		&p.TotalEarnings, &p.ThisMonthEarnings, &p.PendingEarnings, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find provider", zap.Any("key", arg), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Provider, error) {
	return r.find(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id)
}

func (r *Repository) FindByUserID(ctx context.Context, userID int64) (*domain.Provider, error) {
	return r.find(ctx, `SELECT `+providerColumns+` FROM providers WHERE user_id = $1`, userID)
}

// GetForUpdate locks the provider row; counters and ratings are only written
// after taking this lock.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Provider, error) {
	return r.find(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1 FOR UPDATE`, id)
}

func (r *Repository) exec(ctx context.Context, op string, id int64, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to "+op, zap.Int64("provider_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: provider %d", domain.ErrNotFound, id)
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.ProviderStatus) error {
	query := `
        UPDATE providers
        SET status = $1, updated_at = now()
        WHERE id = $2
    `
	return r.exec(ctx, "update provider status", id, query, status, id)
}

func (r *Repository) UpdateRating(ctx context.Context, id int64, average float64, total int) error {
	query := `
        UPDATE providers
        SET average_rating = $1, total_ratings = $2, updated_at = now()
        WHERE id = $3
    `
	return r.exec(ctx, "update provider rating", id, query, average, total, id)
}

// AddPendingEarnings shifts pending earnings by delta, which is negative when
// a pending payout is voided.
func (r *Repository) AddPendingEarnings(ctx context.Context, id int64, delta float64) error {
	query := `
        UPDATE providers
        SET pending_earnings = pending_earnings + $1, updated_at = now()
        WHERE id = $2
    `
	return r.exec(ctx, "update pending earnings", id, query, delta, id)
}

// SettleEarnings moves amount from pending into the settled counters.
func (r *Repository) SettleEarnings(ctx context.Context, id int64, amount float64) error {
	query := `
        UPDATE providers
        SET pending_earnings = pending_earnings - $1,
            total_earnings = total_earnings + $1,
            this_month_earnings = this_month_earnings + $1,
            updated_at = now()
        WHERE id = $2
    `
	return r.exec(ctx, "settle earnings", id, query, amount, id)
}

// SetEarnings overwrites the counters with values recomputed from the ledger.
func (r *Repository) SetEarnings(ctx context.Context, id int64, total, pending float64) error {
	query := `
        UPDATE providers
        SET total_earnings = $1, pending_earnings = $2, updated_at = now()
        WHERE id = $3
    `
	return r.exec(ctx, "reset earnings", id, query, total, pending, id)
}
