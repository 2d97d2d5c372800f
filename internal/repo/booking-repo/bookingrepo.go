package bookingrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/pg"
)

const bookingColumns = `id, reference, customer_id, provider_id, service_id, scheduled_at, address,
	status, payment_status, estimated_price, actual_price, platform_fee, provider_earnings,
	needs_review, cancellation_reason, disputed_from,
	created_at, confirmed_at, started_at, completed_at, cancelled_at, disputed_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.Reference, &b.CustomerID, &b.ProviderID, &b.ServiceID, &b.ScheduledAt, &b.Address,
		&b.Status, &b.PaymentStatus, &b.EstimatedPrice, &b.ActualPrice, &b.PlatformFee, &b.ProviderEarnings,
		&b.NeedsReview, &b.CancellationReason, &b.DisputedFrom,
		&b.CreatedAt, &b.ConfirmedAt, &b.StartedAt, &b.CompletedAt, &b.CancelledAt, &b.DisputedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *Repository) Create(ctx context.Context, b *domain.Booking) error {
	query := `
        INSERT INTO bookings (reference, customer_id, provider_id, service_id, scheduled_at, address,
            status, payment_status, estimated_price)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, b.Reference, b.CustomerID, b.ProviderID, b.ServiceID, b.ScheduledAt,
		b.Address, b.Status, b.PaymentStatus, b.EstimatedPrice).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		zap.L().Error("can't save booking", zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find booking", zap.Int64("booking_id", id), zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) FindByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	b, err := scanBooking(r.db.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find booking by reference", zap.String("reference", reference), zap.Error(err))
		return nil, err
	}
	return b, nil
}

// GetForUpdate locks the booking row for the rest of the ambient transaction.
// It never waits: a row held by another transaction is a concurrency conflict.
func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE NOWAIT`
	b, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if pg.IsLockConflict(err) {
		zap.L().Warn("booking row is locked", zap.Int64("booking_id", id))
		return nil, fmt.Errorf("%w: booking %d", domain.ErrConcurrencyConflict, id)
	}
	if err != nil {
		zap.L().Error("can't lock booking", zap.Int64("booking_id", id), zap.Error(err))
		return nil, err
	}
	return b, nil
}

func (r *Repository) Update(ctx context.Context, b *domain.Booking) error {
	query := `
        UPDATE bookings
        SET status = $1, payment_status = $2, actual_price = $3, platform_fee = $4, provider_earnings = $5,
            needs_review = $6, cancellation_reason = $7, disputed_from = $8,
            confirmed_at = $9, started_at = $10, completed_at = $11, cancelled_at = $12, disputed_at = $13
        WHERE id = $14
    `
	tag, err := r.db.Exec(ctx, query, b.Status, b.PaymentStatus, b.ActualPrice, b.PlatformFee, b.ProviderEarnings,
		b.NeedsReview, b.CancellationReason, b.DisputedFrom,
		b.ConfirmedAt, b.StartedAt, b.CompletedAt, b.CancelledAt, b.DisputedAt, b.ID)
	if err != nil {
		zap.L().Error("failed to update booking", zap.Int64("booking_id", b.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking %d", domain.ErrNotFound, b.ID)
	}
	return nil
}

func (r *Repository) AddEvent(ctx context.Context, ev *domain.BookingEvent) error {
	query := `
        INSERT INTO booking_events (booking_id, from_status, to_status, action, actor_id, actor_role, note)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query, ev.BookingID, ev.FromStatus, ev.ToStatus, ev.Action, ev.ActorID, ev.ActorRole, ev.Note).
		Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		zap.L().Error("can't save booking event", zap.Int64("booking_id", ev.BookingID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListEvents(ctx context.Context, bookingID int64) ([]domain.BookingEvent, error) {
	query := `
        SELECT id, booking_id, from_status, to_status, action, actor_id, actor_role, note, created_at
        FROM booking_events
        WHERE booking_id = $1
        ORDER BY id ASC
    `
	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		zap.L().Error("can't get booking events", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []domain.BookingEvent
	for rows.Next() {
		var ev domain.BookingEvent
		err := rows.Scan(&ev.ID, &ev.BookingID, &ev.FromStatus, &ev.ToStatus, &ev.Action, &ev.ActorID, &ev.ActorRole, &ev.Note, &ev.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan booking event row", zap.Error(err))
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// FindSettleable returns completed, paid bookings whose payout is still pending.
func (r *Repository) FindSettleable(ctx context.Context, limit uint32) ([]int64, error) {
	query := `
        SELECT b.id
        FROM bookings b
        JOIN transactions t ON t.booking_id = b.id AND t.type = 'PAYOUT' AND t.status = 'PENDING'
        WHERE b.status = 'COMPLETED' AND b.payment_status = 'PAID'
        ORDER BY b.completed_at ASC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, int(limit))
	if err != nil {
		zap.L().Error("can't get settleable bookings", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			zap.L().Error("can't scan settleable booking id", zap.Error(err))
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
