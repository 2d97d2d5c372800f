package bookingservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/internal/notify"
	"github.com/mh26/services/internal/pg"
)

type PaymentInput struct {
	Amount     float64
	Method     string
	ExternalID string
}

// RecordPayment captures a customer payment. Replaying an external id that
// was already recorded for the booking returns the stored transaction.
func (s *Service) RecordPayment(ctx context.Context, actor lifecycle.Actor, id int64, in PaymentInput) (*domain.Transaction, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: %.2f", domain.ErrInvalidAmount, in.Amount)
	}

	var (
		payment *domain.Transaction
		replay  bool
		staged  []domain.Notification
	)
	err := s.withBooking(ctx, id, func(ctx context.Context, b *domain.Booking) error {
		if actor.Role != lifecycle.RoleAdmin && !(actor.Role == lifecycle.RoleCustomer && actor.UserID == b.CustomerID) {
			return fmt.Errorf("%w: booking %d", domain.ErrForbidden, id)
		}
		existing, err := s.replayedPayment(ctx, id, in.ExternalID)
		if err != nil {
			return err
		}
		if existing != nil {
			payment, replay = existing, true
			return nil
		}
		if b.Status == domain.BookingCancelled || b.Status == domain.BookingDisputed {
			return fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidTransition, id, b.Status)
		}
		if b.PaymentStatus == domain.PaymentPaid || b.PaymentStatus == domain.PaymentRefunded {
			return fmt.Errorf("%w: booking %d payment is %s", domain.ErrInvalidTransition, id, b.PaymentStatus)
		}
		if expected := b.ChargeAmount(); !domain.SameAmount(in.Amount, expected) {
			return fmt.Errorf("%w: booking %d expects %.2f, got %.2f", domain.ErrAmountMismatch, id, expected, in.Amount)
		}

		completedAt := s.now()
		payment, err = s.transactions.Create(ctx, &domain.Transaction{
			BookingID:   b.ID,
			ProviderID:  b.ProviderID,
			Type:        domain.TransactionPayment,
			Status:      domain.TransactionCompleted,
			Amount:      domain.RoundMoney(in.Amount),
			Method:      in.Method,
			ExternalID:  in.ExternalID,
			CompletedAt: &completedAt,
		})
		if err != nil {
			return err
		}
		b.PaymentStatus = domain.PaymentPaid
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}

		provider, err := s.providers.FindByID(ctx, b.ProviderID)
		if err != nil {
			return err
		}
		if provider == nil {
			return fmt.Errorf("%w: provider %d", domain.ErrNotFound, b.ProviderID)
		}
		staged = notify.For(notify.Event{
			Kind:    notify.PaymentRecorded,
			Booking: *b,
			Amount:  payment.Amount,
			Method:  payment.Method,
		}, parties(b, provider))
		return s.notifier.Stage(ctx, staged)
	})
	if pg.IsUniqueViolation(err) {
		// A concurrent request with the same external id won the insert.
		existing, ferr := s.replayedPayment(ctx, id, in.ExternalID)
		if ferr == nil && existing != nil {
			return existing, nil
		}
	}
	if err != nil {
		return nil, err
	}
	if replay {
		zap.L().Info("payment replayed", zap.Int64("booking_id", id), zap.String("external_id", in.ExternalID))
		return payment, nil
	}

	s.notifier.Deliver(ctx, staged)
	zap.L().Info("payment recorded", zap.Int64("booking_id", id), zap.Float64("amount", payment.Amount))
	return payment, nil
}

func (s *Service) replayedPayment(ctx context.Context, bookingID int64, externalID string) (*domain.Transaction, error) {
	t, err := s.transactions.FindByExternalID(ctx, externalID)
	if err != nil || t == nil {
		return nil, err
	}
	if t.BookingID != bookingID || t.Type != domain.TransactionPayment {
		return nil, fmt.Errorf("%w: external id %s belongs to another transaction", domain.ErrInvalidTransition, externalID)
	}
	return t, nil
}

// SettlePayout releases the pending payout of a completed, paid booking to the
// provider's settled earnings.
func (s *Service) SettlePayout(ctx context.Context, id int64) (*domain.Transaction, error) {
	var (
		payout *domain.Transaction
		staged []domain.Notification
	)
	err := s.withBooking(ctx, id, func(ctx context.Context, b *domain.Booking) error {
		if b.Status != domain.BookingCompleted || b.PaymentStatus != domain.PaymentPaid {
			return fmt.Errorf("%w: booking %d is %s/%s", domain.ErrInvalidTransition, id, b.Status, b.PaymentStatus)
		}
		var err error
		payout, err = s.transactions.FindLatest(ctx, id, domain.TransactionPayout)
		if err != nil {
			return err
		}
		if payout == nil || payout.Status != domain.TransactionPending {
			return fmt.Errorf("%w: booking %d has no pending payout", domain.ErrInvalidTransition, id)
		}

		provider, err := s.lockProvider(ctx, b.ProviderID)
		if err != nil {
			return err
		}
		if err := s.transactions.Finish(ctx, payout.ID, domain.TransactionCompleted); err != nil {
			return err
		}
		if err := s.providers.SettleEarnings(ctx, provider.ID, payout.Amount); err != nil {
			return err
		}
		completedAt := s.now()
		payout.Status = domain.TransactionCompleted
		payout.CompletedAt = &completedAt

		staged = notify.For(notify.Event{Kind: notify.PayoutSettled, Booking: *b, Amount: payout.Amount}, parties(b, provider))
		return s.notifier.Stage(ctx, staged)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, staged)
	zap.L().Info("payout settled", zap.Int64("booking_id", id), zap.Float64("amount", payout.Amount))
	return payout, nil
}

// Settleable lists bookings whose payout can be settled right away.
func (s *Service) Settleable(ctx context.Context, limit uint32) ([]int64, error) {
	return s.bookings.FindSettleable(ctx, limit)
}

// Refund returns amount of the captured payment to the customer. A zero
// amount refunds the whole payment.
func (s *Service) Refund(ctx context.Context, id int64, amount float64) (*domain.Transaction, error) {
	if amount < 0 {
		return nil, fmt.Errorf("%w: refund %.2f", domain.ErrAmountMismatch, amount)
	}

	var (
		refund *domain.Transaction
		staged []domain.Notification
	)
	err := s.withBooking(ctx, id, func(ctx context.Context, b *domain.Booking) error {
		t, voided, err := s.refund(ctx, b, amount)
		if err != nil {
			return err
		}
		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		provider, err := s.providers.FindByID(ctx, b.ProviderID)
		if err != nil {
			return err
		}
		if provider == nil {
			return fmt.Errorf("%w: provider %d", domain.ErrNotFound, b.ProviderID)
		}
		refund = t
		staged = notify.For(notify.Event{Kind: notify.RefundIssued, Booking: *b, Amount: t.Amount, Voided: voided}, parties(b, provider))
		return s.notifier.Stage(ctx, staged)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, staged)
	zap.L().Info("refund issued", zap.Int64("booking_id", id), zap.Float64("amount", refund.Amount))
	return refund, nil
}

// refund records the REFUND row and voids a still pending payout. b is
// updated in memory only; the caller persists it.
func (s *Service) refund(ctx context.Context, b *domain.Booking, amount float64) (*domain.Transaction, float64, error) {
	if b.PaymentStatus != domain.PaymentPaid {
		return nil, 0, fmt.Errorf("%w: booking %d payment is %s", domain.ErrInvalidTransition, b.ID, b.PaymentStatus)
	}
	payment, err := s.transactions.FindLatest(ctx, b.ID, domain.TransactionPayment)
	if err != nil {
		return nil, 0, err
	}
	if payment == nil || payment.Status != domain.TransactionCompleted {
		return nil, 0, fmt.Errorf("%w: booking %d has no captured payment", domain.ErrInvalidTransition, b.ID)
	}
	if amount == 0 {
		amount = payment.Amount
	}
	amount = domain.RoundMoney(amount)
	if amount <= 0 || amount > payment.Amount+0.005 {
		return nil, 0, fmt.Errorf("%w: refund %.2f of %.2f paid", domain.ErrAmountMismatch, amount, payment.Amount)
	}

	payout, err := s.transactions.FindLatest(ctx, b.ID, domain.TransactionPayout)
	if err != nil {
		return nil, 0, err
	}
	if payout != nil && payout.Status == domain.TransactionCompleted {
		return nil, 0, fmt.Errorf("%w: booking %d payout already settled", domain.ErrInvalidTransition, b.ID)
	}

	completedAt := s.now()
	t, err := s.transactions.Create(ctx, &domain.Transaction{
		BookingID:   b.ID,
		ProviderID:  b.ProviderID,
		Type:        domain.TransactionRefund,
		Status:      domain.TransactionCompleted,
		Amount:      amount,
		Method:      payment.Method,
		ExternalID:  externalID("refund"),
		CompletedAt: &completedAt,
	})
	if err != nil {
		return nil, 0, err
	}
	b.PaymentStatus = domain.PaymentRefunded

	var voided float64
	if payout != nil && payout.Status == domain.TransactionPending {
		if _, err := s.lockProvider(ctx, b.ProviderID); err != nil {
			return nil, 0, err
		}
		if err := s.transactions.Finish(ctx, payout.ID, domain.TransactionFailed); err != nil {
			return nil, 0, err
		}
		if err := s.providers.AddPendingEarnings(ctx, b.ProviderID, -payout.Amount); err != nil {
			return nil, 0, err
		}
		voided = payout.Amount
	}
	return t, voided, nil
}

// Reconcile recomputes the provider's earnings counters from the payout
// ledger and writes them back when they drifted.
func (s *Service) Reconcile(ctx context.Context, providerID int64) (*domain.EarningsSnapshot, error) {
	var snapshot *domain.EarningsSnapshot
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		p, err := s.lockProvider(ctx, providerID)
		if err != nil {
			return err
		}
		completed, pending, err := s.transactions.PayoutSums(ctx, providerID)
		if err != nil {
			return err
		}
		snapshot = &domain.EarningsSnapshot{
			ProviderID:      providerID,
			TotalEarnings:   p.TotalEarnings,
			PendingEarnings: p.PendingEarnings,
			LedgerTotal:     domain.RoundMoney(completed),
			LedgerPending:   domain.RoundMoney(pending),
		}
		if domain.SameAmount(snapshot.TotalEarnings, snapshot.LedgerTotal) &&
			domain.SameAmount(snapshot.PendingEarnings, snapshot.LedgerPending) {
			return nil
		}
		zap.L().Warn("provider earnings drifted from ledger",
			zap.Int64("provider_id", providerID),
			zap.Float64("total", p.TotalEarnings), zap.Float64("ledger_total", snapshot.LedgerTotal),
			zap.Float64("pending", p.PendingEarnings), zap.Float64("ledger_pending", snapshot.LedgerPending))
		return s.providers.SetEarnings(ctx, providerID, snapshot.LedgerTotal, snapshot.LedgerPending)
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) ListTransactions(ctx context.Context, actor lifecycle.Actor, id int64) ([]domain.Transaction, error) {
	if _, err := s.GetBooking(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.transactions.ListByBooking(ctx, id)
}

func externalID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
