package transactionrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/pg"
)

const transactionColumns = `id, booking_id, provider_id, type, status, amount, method, external_id, created_at, completed_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(&t.ID, &t.BookingID, &t.ProviderID, &t.Type, &t.Status, &t.Amount, &t.Method, &t.ExternalID, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	query := `
		INSERT INTO transactions (booking_id, provider_id, type, status, amount, method, external_id, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, t.BookingID, t.ProviderID, t.Type, t.Status, t.Amount, t.Method, t.ExternalID, t.CompletedAt).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		zap.L().Error("can't save transaction", zap.String("type", string(t.Type)), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *Repository) FindByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE external_id = $1`
	t, err := scanTransaction(r.db.QueryRow(ctx, query, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find transaction", zap.String("external_id", externalID), zap.Error(err))
		return nil, err
	}
	return t, nil
}

// FindLatest returns the newest transaction of type typ for the booking.
func (r *Repository) FindLatest(ctx context.Context, bookingID int64, typ domain.TransactionType) (*domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE booking_id = $1 AND type = $2
        ORDER BY id DESC
        LIMIT 1
    `
	t, err := scanTransaction(r.db.QueryRow(ctx, query, bookingID, typ))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find transaction", zap.Int64("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID int64) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE booking_id = $1
        ORDER BY id ASC
    `
	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		zap.L().Error("failed to fetch transactions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			zap.L().Error("failed to scan transaction row", zap.Error(err))
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// Finish moves a PENDING transaction to status. Completed and failed rows are
// history and are never rewritten.
func (r *Repository) Finish(ctx context.Context, id int64, status domain.TransactionStatus) error {
	query := `
		UPDATE transactions
		SET status = $1, completed_at = CASE WHEN $1 = 'COMPLETED' THEN now() ELSE completed_at END
		WHERE id = $2 AND status = 'PENDING'
	`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		zap.L().Error("failed to finish transaction", zap.Int64("transaction_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %d is not pending", domain.ErrInvalidTransition, id)
	}
	return nil
}

// PayoutSums totals a provider's payouts by status straight from the ledger.
func (r *Repository) PayoutSums(ctx context.Context, providerID int64) (completed, pending float64, err error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0)::float8,
			COALESCE(SUM(amount) FILTER (WHERE status = 'PENDING'), 0)::float8
		FROM transactions
		WHERE provider_id = $1 AND type = 'PAYOUT'
	`
	err = r.db.QueryRow(ctx, query, providerID).Scan(&completed, &pending)
	if err != nil {
		zap.L().Error("failed to sum payouts", zap.Int64("provider_id", providerID), zap.Error(err))
		return 0, 0, err
	}
	return completed, pending, nil
}
