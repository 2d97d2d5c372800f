package reviewrepo

import (
	"context"
	"errors"
	"fmt"

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

func (r *Repository) Create(ctx context.Context, rv *domain.Review) error {
	query := `
        INSERT INTO reviews (booking_id, provider_id, customer_id, rating, comment)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, rv.BookingID, rv.ProviderID, rv.CustomerID, rv.Rating, rv.Comment).
		Scan(&rv.ID, &rv.CreatedAt)
	if pg.IsUniqueViolation(err) {
		return fmt.Errorf("%w: booking %d", domain.ErrDuplicateReview, rv.BookingID)
	}
	if err != nil {
		zap.L().Error("can't save review", zap.Int64("booking_id", rv.BookingID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByBookingID(ctx context.Context, bookingID int64) (*domain.Review, error) {
	query := `
        SELECT id, booking_id, provider_id, customer_id, rating, comment, created_at
        FROM reviews
        WHERE booking_id = $1
    `
	var rv domain.Review
	err := r.db.QueryRow(ctx, query, bookingID).
		Scan(&rv.ID, &rv.BookingID, &rv.ProviderID, &rv.CustomerID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find review", zap.Int64("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return &rv, nil
}
