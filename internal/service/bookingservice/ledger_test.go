package bookingservice

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/lifecycle"
)

func TestRecordPayment(t *testing.T) {
	input := PaymentInput{Amount: 800, Method: "upi", ExternalID: "pay-1"}
	stored := &domain.Transaction{ID: 5, BookingID: 100, Type: domain.TransactionPayment, Status: domain.TransactionCompleted, Amount: 800, ExternalID: "pay-1"}

	tests := []struct {
		name        string
		actor       lifecycle.Actor
		input       PaymentInput
		prepareMock func(m *mocks)
		expectErr   error
		expected    *domain.Transaction
	}{
		{
			name:  "Payment recorded",
			actor: customer,
			input: input,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentUnpaid), nil)
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-1").Return(nil, nil)
				m.transactions.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tr *domain.Transaction) (*domain.Transaction, error) {
						assert.Equal(t, domain.TransactionPayment, tr.Type)
						assert.Equal(t, domain.TransactionCompleted, tr.Status)
						assert.NotNil(t, tr.CompletedAt)
						tr.ID = 5
						return tr, nil
					})
				m.bookings.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b *domain.Booking) error {
						assert.Equal(t, domain.PaymentPaid, b.PaymentStatus)
						return nil
					})
				m.providers.EXPECT().FindByID(gomock.Any(), int64(7)).Return(newProvider(), nil)
				m.notifies(2)
			},
		},
		{
			name:  "Replayed external id",
			actor: customer,
			input: input,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentPaid), nil)
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-1").Return(stored, nil)
			},
			expected: stored,
		},
		{
			name:  "Concurrent insert of the same external id",
			actor: customer,
			input: input,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).Return(&pgconn.PgError{Code: "23505"})
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-1").Return(stored, nil)
			},
			expected: stored,
		},
		{
			name:  "External id of another booking",
			actor: customer,
			input: input,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentUnpaid), nil)
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-1").Return(&domain.Transaction{BookingID: 99, Type: domain.TransactionPayment}, nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
		{
			name:  "Amount does not match estimate",
			actor: customer,
			input: PaymentInput{Amount: 750, ExternalID: "pay-1"},
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentUnpaid), nil)
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-1").Return(nil, nil)
			},
			expectErr: domain.ErrAmountMismatch,
		},
		{
			name:  "Completed booking is charged the actual price",
			actor: customer,
			input: PaymentInput{Amount: 800, ExternalID: "pay-1"},
			prepareMock: func(m *mocks) {
				b := newBooking(domain.BookingCompleted, domain.PaymentUnpaid)
				b.ActualPrice = 850
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(b, nil)
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-1").Return(nil, nil)
			},
			expectErr: domain.ErrAmountMismatch,
		},
		{
			name:  "Already paid",
			actor: customer,
			input: PaymentInput{Amount: 800, ExternalID: "pay-2"},
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentPaid), nil)
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-2").Return(nil, nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
		{
			name:  "Cancelled booking",
			actor: customer,
			input: input,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingCancelled, domain.PaymentUnpaid), nil)
				m.transactions.EXPECT().FindByExternalID(gomock.Any(), "pay-1").Return(nil, nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
		{
			name:  "Someone else's booking",
			actor: lifecycle.Actor{UserID: 12, Role: lifecycle.RoleCustomer},
			input: input,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentUnpaid), nil)
			},
			expectErr: domain.ErrForbidden,
		},
		{
			name:      "Non positive amount",
			actor:     customer,
			input:     PaymentInput{Amount: 0, ExternalID: "pay-1"},
			expectErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := NewMock(t)
			if tt.prepareMock != nil {
				tt.prepareMock(m)
			}

			tr, err := s.RecordPayment(context.Background(), tt.actor, 100, tt.input)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			if tt.expected != nil {
				assert.Equal(t, tt.expected, tr)
			} else {
				assert.Equal(t, int64(5), tr.ID)
			}
		})
	}
}

func TestSettlePayout(t *testing.T) {
	pendingPayout := func() *domain.Transaction {
		return &domain.Transaction{ID: 9, BookingID: 100, Type: domain.TransactionPayout, Status: domain.TransactionPending, Amount: 765}
	}
	completed := func(payment domain.PaymentStatus) *domain.Booking {
		b := newBooking(domain.BookingCompleted, payment)
		b.ActualPrice, b.PlatformFee, b.ProviderEarnings = 850, 85, 765
		return b
	}

	tests := []struct {
		name        string
		prepareMock func(m *mocks)
		expectErr   error
	}{
		{
			name: "Payout settled",
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(completed(domain.PaymentPaid), nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayout).Return(pendingPayout(), nil)
				m.providers.EXPECT().GetForUpdate(gomock.Any(), int64(7)).Return(newProvider(), nil)
				m.transactions.EXPECT().Finish(gomock.Any(), int64(9), domain.TransactionCompleted).Return(nil)
				m.providers.EXPECT().SettleEarnings(gomock.Any(), int64(7), 765.0).Return(nil)
				m.notifies(1)
			},
		},
		{
			name: "Unpaid booking",
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(completed(domain.PaymentUnpaid), nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
		{
			name: "Booking not completed",
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingInProgress, domain.PaymentPaid), nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
		{
			name: "Payout already settled",
			prepareMock: func(m *mocks) {
				p := pendingPayout()
				p.Status = domain.TransactionCompleted
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(completed(domain.PaymentPaid), nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayout).Return(p, nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := NewMock(t)
			tt.prepareMock(m)

			payout, err := s.SettlePayout(context.Background(), 100)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionCompleted, payout.Status)
			assert.NotNil(t, payout.CompletedAt)
		})
	}
}

func TestRefund(t *testing.T) {
	payment := &domain.Transaction{ID: 5, Type: domain.TransactionPayment, Status: domain.TransactionCompleted, Amount: 850, Method: "card"}
	completedPaid := func() *domain.Booking {
		b := newBooking(domain.BookingCompleted, domain.PaymentPaid)
		b.EstimatedPrice, b.ActualPrice, b.PlatformFee, b.ProviderEarnings = 850, 850, 85, 765
		return b
	}

	tests := []struct {
		name        string
		amount      float64
		prepareMock func(m *mocks)
		expectErr   error
		expectAmt   float64
	}{
		{
			name:   "Full refund voids the pending payout",
			amount: 0,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(completedPaid(), nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayment).Return(payment, nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayout).
					Return(&domain.Transaction{ID: 9, Status: domain.TransactionPending, Amount: 765}, nil)
				m.transactions.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tr *domain.Transaction) (*domain.Transaction, error) { return tr, nil })
				m.providers.EXPECT().GetForUpdate(gomock.Any(), int64(7)).Return(newProvider(), nil)
				m.transactions.EXPECT().Finish(gomock.Any(), int64(9), domain.TransactionFailed).Return(nil)
				m.providers.EXPECT().AddPendingEarnings(gomock.Any(), int64(7), -765.0).Return(nil)
				m.bookings.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b *domain.Booking) error {
						assert.Equal(t, domain.PaymentRefunded, b.PaymentStatus)
						return nil
					})
				m.providers.EXPECT().FindByID(gomock.Any(), int64(7)).Return(newProvider(), nil)
				m.notifies(2)
			},
			expectAmt: 850,
		},
		{
			name:   "Partial refund before completion",
			amount: 200,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentPaid), nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayment).Return(payment, nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayout).Return(nil, nil)
				m.transactions.EXPECT().Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tr *domain.Transaction) (*domain.Transaction, error) { return tr, nil })
				m.bookings.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
				m.providers.EXPECT().FindByID(gomock.Any(), int64(7)).Return(newProvider(), nil)
				m.notifies(1)
			},
			expectAmt: 200,
		},
		{
			name:   "Refund exceeds payment",
			amount: 900,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(completedPaid(), nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayment).Return(payment, nil)
			},
			expectErr: domain.ErrAmountMismatch,
		},
		{
			name:   "Payout already settled",
			amount: 100,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(completedPaid(), nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayment).Return(payment, nil)
				m.transactions.EXPECT().FindLatest(gomock.Any(), int64(100), domain.TransactionPayout).
					Return(&domain.Transaction{ID: 9, Status: domain.TransactionCompleted, Amount: 765}, nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
		{
			name:   "Unpaid booking",
			amount: 100,
			prepareMock: func(m *mocks) {
				m.locked(100)
				m.inTx()
				m.bookings.EXPECT().GetForUpdate(gomock.Any(), int64(100)).Return(newBooking(domain.BookingConfirmed, domain.PaymentUnpaid), nil)
			},
			expectErr: domain.ErrInvalidTransition,
		},
		{
			name:      "Negative amount",
			amount:    -1,
			expectErr: domain.ErrAmountMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := NewMock(t)
			if tt.prepareMock != nil {
				tt.prepareMock(m)
			}

			refund, err := s.Refund(context.Background(), 100, tt.amount)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.TransactionRefund, refund.Type)
			assert.Equal(t, tt.expectAmt, refund.Amount)
			assert.Equal(t, "card", refund.Method)
		})
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		prepareMock func(m *mocks)
		expected    *domain.EarningsSnapshot
		expectErr   bool
	}{
		{
			name: "Counters match the ledger",
			prepareMock: func(m *mocks) {
				p := newProvider()
				p.TotalEarnings, p.PendingEarnings = 1530, 765
				m.inTx()
				m.providers.EXPECT().GetForUpdate(gomock.Any(), int64(7)).Return(p, nil)
				m.transactions.EXPECT().PayoutSums(gomock.Any(), int64(7)).Return(1530.0, 765.0, nil)
			},
			expected: &domain.EarningsSnapshot{ProviderID: 7, TotalEarnings: 1530, PendingEarnings: 765, LedgerTotal: 1530, LedgerPending: 765},
		},
		{
			name: "Drifted counters are rewritten",
			prepareMock: func(m *mocks) {
				p := newProvider()
				p.TotalEarnings, p.PendingEarnings = 1000, 0
				m.inTx()
				m.providers.EXPECT().GetForUpdate(gomock.Any(), int64(7)).Return(p, nil)
				m.transactions.EXPECT().PayoutSums(gomock.Any(), int64(7)).Return(1530.0, 765.0, nil)
				m.providers.EXPECT().SetEarnings(gomock.Any(), int64(7), 1530.0, 765.0).Return(nil)
			},
			expected: &domain.EarningsSnapshot{ProviderID: 7, TotalEarnings: 1000, PendingEarnings: 0, LedgerTotal: 1530, LedgerPending: 765},
		},
		{
			name: "Ledger query fails",
			prepareMock: func(m *mocks) {
				m.inTx()
				m.providers.EXPECT().GetForUpdate(gomock.Any(), int64(7)).Return(newProvider(), nil)
				m.transactions.EXPECT().PayoutSums(gomock.Any(), int64(7)).Return(0.0, 0.0, errors.New("db error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, m := NewMock(t)
			tt.prepareMock(m)

			snapshot, err := s.Reconcile(context.Background(), 7)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, snapshot)
		})
	}
}

func TestListTransactions(t *testing.T) {
	s, m := NewMock(t)
	ledger := []domain.Transaction{{ID: 5, Type: domain.TransactionPayment}, {ID: 9, Type: domain.TransactionPayout}}
	m.bookings.EXPECT().FindByID(gomock.Any(), int64(100)).Return(newBooking(domain.BookingCompleted, domain.PaymentPaid), nil).Times(2)
	m.transactions.EXPECT().ListByBooking(gomock.Any(), int64(100)).Return(ledger, nil)

	got, err := s.ListTransactions(context.Background(), provider, 100)
	require.NoError(t, err)
	assert.Equal(t, ledger, got)

	_, err = s.ListTransactions(context.Background(), lifecycle.Actor{UserID: 99, Role: lifecycle.RoleProvider, ProviderID: 8}, 100)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestSettleable(t *testing.T) {
	s, m := NewMock(t)
	m.bookings.EXPECT().FindSettleable(gomock.Any(), uint32(10)).Return([]int64{1, 2}, nil)

	ids, err := s.Settleable(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)
}
