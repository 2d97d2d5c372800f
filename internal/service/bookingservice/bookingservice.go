package bookingservice

//go:generate mockgen -source=bookingservice.go -destination=mock_bookingservice.go -package=bookingservice

import (
	"context"
	"fmt"
	"time"

	"github.com/ShiraazMoollatjie/goluhn"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/internal/lock"
	"github.com/mh26/services/internal/notify"
	"github.com/mh26/services/internal/pg"
	"github.com/mh26/services/pkg/validate"
)

const referenceAttempts = 3

type BookingRepo interface {
	Create(ctx context.Context, b *domain.Booking) error
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindByReference(ctx context.Context, reference string) (*domain.Booking, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	Update(ctx context.Context, b *domain.Booking) error
	AddEvent(ctx context.Context, ev *domain.BookingEvent) error
	ListEvents(ctx context.Context, bookingID int64) ([]domain.BookingEvent, error)
	FindSettleable(ctx context.Context, limit uint32) ([]int64, error)
}

type ProviderRepo interface {
	FindByID(ctx context.Context, id int64) (*domain.Provider, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Provider, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ProviderStatus) error
	UpdateRating(ctx context.Context, id int64, average float64, total int) error
	AddPendingEarnings(ctx context.Context, id int64, delta float64) error
	SettleEarnings(ctx context.Context, id int64, amount float64) error
	SetEarnings(ctx context.Context, id int64, total, pending float64) error
}

type CatalogRepo interface {
	FindServiceByID(ctx context.Context, id int64) (*domain.Service, error)
	ListServicesByProvider(ctx context.Context, providerID int64) ([]domain.Service, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Transaction, error)
	FindLatest(ctx context.Context, bookingID int64, typ domain.TransactionType) (*domain.Transaction, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]domain.Transaction, error)
	Finish(ctx context.Context, id int64, status domain.TransactionStatus) error
	PayoutSums(ctx context.Context, providerID int64) (completed, pending float64, err error)
}

type ReviewRepo interface {
	Create(ctx context.Context, rv *domain.Review) error
	FindByBookingID(ctx context.Context, bookingID int64) (*domain.Review, error)
}

// Notifier persists notifications inside the current transaction and
// delivers them once it has committed.
type Notifier interface {
	Stage(ctx context.Context, ns []domain.Notification) error
	Deliver(ctx context.Context, ns []domain.Notification)
}

// Locker grants exclusive access to a key or fails with
// domain.ErrConcurrencyConflict without waiting.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

type Repos struct {
	Bookings     BookingRepo
	Providers    ProviderRepo
	Catalog      CatalogRepo
	Transactions TransactionRepo
	Reviews      ReviewRepo
}

type Service struct {
	bookings     BookingRepo
	providers    ProviderRepo
	catalog      CatalogRepo
	transactions TransactionRepo
	reviews      ReviewRepo
	notifier     Notifier
	locker       Locker
	txManager    pg.TXManager
	policy       lifecycle.Policy
	now          func() time.Time
	reference    func() string
}

func New(repos Repos, notifier Notifier, locker Locker, txManager pg.TXManager, policy lifecycle.Policy) *Service {
	return &Service{
		bookings:     repos.Bookings,
		providers:    repos.Providers,
		catalog:      repos.Catalog,
		transactions: repos.Transactions,
		reviews:      repos.Reviews,
		notifier:     notifier,
		locker:       locker,
		txManager:    txManager,
		policy:       policy,
		now:          time.Now,
		reference:    func() string { return goluhn.Generate(validate.ReferenceLength) },
	}
}

type CreateInput struct {
	ServiceID   int64
	ScheduledAt time.Time
	Address     string
}

func (s *Service) CreateBooking(ctx context.Context, actor lifecycle.Actor, in CreateInput) (*domain.Booking, error) {
	if actor.Role != lifecycle.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers can book", domain.ErrForbidden)
	}
	now := s.now()
	if !in.ScheduledAt.After(now) {
		return nil, fmt.Errorf("%w: %s is in the past", domain.ErrInvalidSchedule, in.ScheduledAt.Format(time.RFC3339))
	}

	service, err := s.catalog.FindServiceByID(ctx, in.ServiceID)
	if err != nil {
		return nil, err
	}
	if service == nil || !service.Active {
		return nil, fmt.Errorf("%w: service %d", domain.ErrNotFound, in.ServiceID)
	}
	provider, err := s.providers.FindByID(ctx, service.ProviderID)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("%w: provider %d", domain.ErrNotFound, service.ProviderID)
	}
	if provider.Status != domain.ProviderApproved {
		return nil, fmt.Errorf("%w: provider %d is %s", domain.ErrProviderNotBookable, provider.ID, provider.Status)
	}

	var (
		booking *domain.Booking
		staged  []domain.Notification
	)
	for attempt := 1; attempt <= referenceAttempts; attempt++ {
		booking = &domain.Booking{
			Reference:      s.reference(),
			CustomerID:     actor.UserID,
			ProviderID:     provider.ID,
			ServiceID:      service.ID,
			ScheduledAt:    in.ScheduledAt,
			Address:        in.Address,
			Status:         domain.BookingPending,
			PaymentStatus:  domain.PaymentUnpaid,
			EstimatedPrice: domain.RoundMoney(service.BasePrice),
		}
		err = s.txManager.Begin(ctx, func(ctx context.Context) error {
			if err := s.bookings.Create(ctx, booking); err != nil {
				return err
			}
			err := s.bookings.AddEvent(ctx, &domain.BookingEvent{
				BookingID: booking.ID,
				ToStatus:  domain.BookingPending,
				Action:    "create",
				ActorID:   actor.UserID,
				ActorRole: string(actor.Role),
			})
			if err != nil {
				return err
			}
			staged = notify.For(notify.Event{Kind: notify.BookingCreated, Booking: *booking}, parties(booking, provider))
			return s.notifier.Stage(ctx, staged)
		})
		if !pg.IsUniqueViolation(err) {
			break
		}
		zap.L().Warn("booking reference collision", zap.String("reference", booking.Reference), zap.Int("attempt", attempt))
	}
	if err != nil {
		zap.L().Error("can't create booking", zap.Int64("service_id", in.ServiceID), zap.Error(err))
		return nil, err
	}

	s.notifier.Deliver(ctx, staged)
	zap.L().Info("booking created", zap.Int64("booking_id", booking.ID), zap.String("reference", booking.Reference))
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, actor lifecycle.Actor, id int64) (*domain.Booking, error) {
	b, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	if err := canView(actor, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) GetBookingByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	b, err := s.bookings.FindByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, reference)
	}
	return b, nil
}

func (s *Service) History(ctx context.Context, actor lifecycle.Actor, id int64) ([]domain.BookingEvent, error) {
	if _, err := s.GetBooking(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.bookings.ListEvents(ctx, id)
}

type TransitionInput struct {
	Action      lifecycle.Action
	ActualPrice float64
	Reason      string
}

// Transition applies one lifecycle action under the booking lock. Status,
// ledger entries, counters, the audit row and notifications are written in a
// single transaction.
func (s *Service) Transition(ctx context.Context, actor lifecycle.Actor, id int64, in TransitionInput) (*domain.Booking, error) {
	var (
		booking *domain.Booking
		staged  []domain.Notification
	)
	err := s.withBooking(ctx, id, func(ctx context.Context, b *domain.Booking) error {
		out, err := lifecycle.Apply(b, lifecycle.Request{
			Action:      in.Action,
			Actor:       actor,
			Now:         s.now(),
			ActualPrice: in.ActualPrice,
			Reason:      in.Reason,
		}, s.policy)
		if err != nil {
			return err
		}

		provider, err := s.providers.FindByID(ctx, b.ProviderID)
		if err != nil {
			return err
		}
		if provider == nil {
			return fmt.Errorf("%w: provider %d", domain.ErrNotFound, b.ProviderID)
		}
		party := parties(b, provider)

		var refund []domain.Notification
		switch {
		case out.To == domain.BookingCompleted && out.Payout > 0:
			if err := s.accruePayout(ctx, b, out.Payout); err != nil {
				return err
			}
		case out.To == domain.BookingCancelled && b.PaymentStatus == domain.PaymentPaid:
			t, voided, err := s.refund(ctx, b, 0)
			if err != nil {
				return err
			}
			refund = notify.For(notify.Event{Kind: notify.RefundIssued, Booking: *b, Amount: t.Amount, Voided: voided}, party)
		}

		if err := s.bookings.Update(ctx, b); err != nil {
			return err
		}
		err = s.bookings.AddEvent(ctx, &domain.BookingEvent{
			BookingID:  b.ID,
			FromStatus: out.From,
			ToStatus:   out.To,
			Action:     string(out.Action),
			ActorID:    actor.UserID,
			ActorRole:  string(actor.Role),
			Note:       in.Reason,
		})
		if err != nil {
			return err
		}
		if out.Flagged {
			zap.L().Warn("late provider cancellation flagged for review", zap.Int64("booking_id", b.ID))
		}

		staged = notify.For(notify.Event{
			Kind:      notify.BookingTransitioned,
			Booking:   *b,
			Outcome:   out,
			ActorRole: actor.Role,
			Note:      in.Reason,
		}, party)
		staged = append(staged, refund...)
		booking = b
		return s.notifier.Stage(ctx, staged)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, staged)
	zap.L().Info("booking transitioned", zap.Int64("booking_id", id), zap.String("action", string(in.Action)),
		zap.String("status", string(booking.Status)))
	return booking, nil
}

// accruePayout opens the PENDING payout for a completed booking and adds it
// to the provider's pending earnings.
func (s *Service) accruePayout(ctx context.Context, b *domain.Booking, amount float64) error {
	if _, err := s.lockProvider(ctx, b.ProviderID); err != nil {
		return err
	}
	_, err := s.transactions.Create(ctx, &domain.Transaction{
		BookingID:  b.ID,
		ProviderID: b.ProviderID,
		Type:       domain.TransactionPayout,
		Status:     domain.TransactionPending,
		Amount:     amount,
		ExternalID: externalID("payout"),
	})
	if err != nil {
		return err
	}
	return s.providers.AddPendingEarnings(ctx, b.ProviderID, amount)
}

// withBooking runs fn in a transaction holding both the distributed booking
// lock and the booking row lock.
func (s *Service) withBooking(ctx context.Context, id int64, fn func(ctx context.Context, b *domain.Booking) error) error {
	release, err := s.locker.Acquire(ctx, lock.BookingKey(id))
	if err != nil {
		return err
	}
	defer release()

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		b, err := s.bookings.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
		}
		return fn(ctx, b)
	})
	if pg.IsLockConflict(err) {
		return fmt.Errorf("%w: booking %d: %v", domain.ErrConcurrencyConflict, id, err)
	}
	return err
}

func (s *Service) lockProvider(ctx context.Context, id int64) (*domain.Provider, error) {
	p, err := s.providers.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: provider %d", domain.ErrNotFound, id)
	}
	return p, nil
}

func canView(actor lifecycle.Actor, b *domain.Booking) error {
	switch {
	case actor.Role == lifecycle.RoleAdmin:
	case actor.Role == lifecycle.RoleCustomer && actor.UserID == b.CustomerID:
	case actor.Role == lifecycle.RoleProvider && actor.ProviderID == b.ProviderID:
	default:
		return fmt.Errorf("%w: booking %d", domain.ErrForbidden, b.ID)
	}
	return nil
}

func parties(b *domain.Booking, p *domain.Provider) notify.Parties {
	return notify.Parties{CustomerID: b.CustomerID, ProviderUserID: p.UserID}
}
