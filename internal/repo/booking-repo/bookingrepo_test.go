package bookingrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/pg"
)

var columns = []string{
	"id", "reference", "customer_id", "provider_id", "service_id", "scheduled_at", "address",
	"status", "payment_status", "estimated_price", "actual_price", "platform_fee", "provider_earnings",
	"needs_review", "cancellation_reason", "disputed_from",
	"created_at", "confirmed_at", "started_at", "completed_at", "cancelled_at", "disputed_at",
}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	return New(mockDB), mockDB
}

func bookingRow(ts time.Time) *pgxmock.Rows {
	confirmed := ts.Add(time.Hour)
	return pgxmock.NewRows(columns).AddRow(
		int64(100), "4539578763", int64(11), int64(7), int64(3), ts, "12 Station Road",
		domain.BookingConfirmed, domain.PaymentUnpaid, 800.0, 0.0, 0.0, 0.0,
		false, "", domain.BookingStatus(""),
		ts, &confirmed, (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil), (*time.Time)(nil),
	)
}

func TestRepository_Create(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		mockSetup    func(mock pgxmock.PgxPoolIface)
		expectErr    bool
		expectUnique bool
	}{
		{
			name: "Booking saved",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
					WithArgs("4539578763", int64(11), int64(7), int64(3), ts, "12 Station Road",
						domain.BookingPending, domain.PaymentUnpaid, 800.0).
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(100), ts))
			},
		},
		{
			name: "Duplicate reference",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bookings")).
					WithArgs("4539578763", int64(11), int64(7), int64(3), ts, "12 Station Road",
						domain.BookingPending, domain.PaymentUnpaid, 800.0).
					WillReturnError(&pgconn.PgError{Code: "23505"})
			},
			expectErr:    true,
			expectUnique: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			tt.mockSetup(mock)

			b := &domain.Booking{
				Reference: "4539578763", CustomerID: 11, ProviderID: 7, ServiceID: 3, ScheduledAt: ts,
				Address: "12 Station Road", Status: domain.BookingPending, PaymentStatus: domain.PaymentUnpaid,
				EstimatedPrice: 800,
			}
			err := repo.Create(ctx, b)
			if tt.expectErr {
				assert.Error(t, err)
				assert.Equal(t, tt.expectUnique, pg.IsUniqueViolation(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(100), b.ID)
				assert.Equal(t, ts, b.CreatedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByID(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		expectErr bool
		expectNil bool
	}{
		{
			name: "Booking found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
					WithArgs(int64(100)).
					WillReturnRows(bookingRow(ts))
			},
		},
		{
			name: "Booking not found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
					WithArgs(int64(100)).
					WillReturnError(pgx.ErrNoRows)
			},
			expectNil: true,
		},
		{
			name: "Database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
					WithArgs(int64(100)).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			tt.mockSetup(mock)

			b, err := repo.FindByID(ctx, 100)
			switch {
			case tt.expectErr:
				assert.Error(t, err)
			case tt.expectNil:
				assert.NoError(t, err)
				assert.Nil(t, b)
			default:
				require.NoError(t, err)
				assert.Equal(t, domain.BookingConfirmed, b.Status)
				assert.Equal(t, 800.0, b.EstimatedPrice)
				require.NotNil(t, b.ConfirmedAt)
				assert.Equal(t, ts.Add(time.Hour), *b.ConfirmedAt)
				assert.Nil(t, b.StartedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_FindByReference(t *testing.T) {
	repo, mock := NewMock(t)
	ts := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE reference = $1")).
		WithArgs("4539578763").
		WillReturnRows(bookingRow(ts))

	b, err := repo.FindByReference(context.Background(), "4539578763")
	require.NoError(t, err)
	assert.Equal(t, int64(100), b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetForUpdate(t *testing.T) {
	ctx := context.Background()
	ts := time.Now().UTC()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		expectErr error
		anyErr    bool
	}{
		{
			name: "Row locked for us",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE NOWAIT")).
					WithArgs(int64(100)).
					WillReturnRows(bookingRow(ts))
			},
		},
		{
			name: "Row held by another transaction",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE NOWAIT")).
					WithArgs(int64(100)).
					WillReturnError(&pgconn.PgError{Code: "55P03"})
			},
			expectErr: domain.ErrConcurrencyConflict,
		},
		{
			name: "Database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE NOWAIT")).
					WithArgs(int64(100)).
					WillReturnError(errors.New("connection reset"))
			},
			anyErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			tt.mockSetup(mock)

			b, err := repo.GetForUpdate(ctx, 100)
			switch {
			case tt.expectErr != nil:
				assert.ErrorIs(t, err, tt.expectErr)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, domain.ErrConcurrencyConflict)
			default:
				require.NoError(t, err)
				assert.Equal(t, int64(100), b.ID)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Update(t *testing.T) {
	ctx := context.Background()
	completed := time.Now().UTC()
	b := &domain.Booking{
		ID: 100, Status: domain.BookingCompleted, PaymentStatus: domain.PaymentPaid,
		ActualPrice: 850, PlatformFee: 85, ProviderEarnings: 765, CompletedAt: &completed,
	}

	tests := []struct {
		name      string
		result    pgconn.CommandTag
		expectErr error
	}{
		{name: "Booking updated", result: pgxmock.NewResult("UPDATE", 1)},
		{name: "Booking missing", result: pgxmock.NewResult("UPDATE", 0), expectErr: domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
				WithArgs(domain.BookingCompleted, domain.PaymentPaid, 850.0, 85.0, 765.0,
					false, "", domain.BookingStatus(""),
					(*time.Time)(nil), (*time.Time)(nil), &completed, (*time.Time)(nil), (*time.Time)(nil), int64(100)).
				WillReturnResult(tt.result)

			err := repo.Update(ctx, b)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Events(t *testing.T) {
	ctx := context.Background()
	repo, mock := NewMock(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO booking_events")).
		WithArgs(int64(100), domain.BookingInProgress, domain.BookingCompleted, "complete", int64(21), "provider", "").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), ts))
	mock.ExpectQuery(regexp.QuoteMeta("FROM booking_events")).
		WithArgs(int64(100)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "booking_id", "from_status", "to_status", "action", "actor_id", "actor_role", "note", "created_at"}).
			AddRow(int64(1), int64(100), domain.BookingInProgress, domain.BookingCompleted, "complete", int64(21), "provider", "", ts))

	ev := &domain.BookingEvent{
		BookingID: 100, FromStatus: domain.BookingInProgress, ToStatus: domain.BookingCompleted,
		Action: "complete", ActorID: 21, ActorRole: "provider",
	}
	require.NoError(t, repo.AddEvent(ctx, ev))
	assert.Equal(t, int64(1), ev.ID)

	events, err := repo.ListEvents(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, []domain.BookingEvent{*ev}, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_FindSettleable(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		expected  []int64
		expectErr bool
	}{
		{
			name: "Settleable bookings",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("t.status = 'PENDING'")).
					WithArgs(50).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)).AddRow(int64(8)))
			},
			expected: []int64{3, 8},
		},
		{
			name: "Query fails",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta("t.status = 'PENDING'")).
					WithArgs(50).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			tt.mockSetup(mock)

			ids, err := repo.FindSettleable(ctx, 50)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, ids)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
