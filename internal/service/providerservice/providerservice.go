package providerservice

//go:generate mockgen -source=providerservice.go -destination=mock_providerservice.go -package=providerservice

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/notify"
	"github.com/mh26/services/internal/pg"
)

type Repo interface {
	FindByID(ctx context.Context, id int64) (*domain.Provider, error)
	FindByUserID(ctx context.Context, userID int64) (*domain.Provider, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Provider, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ProviderStatus) error
}

type CatalogRepo interface {
	ListServicesByProvider(ctx context.Context, providerID int64) ([]domain.Service, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type Notifier interface {
	Stage(ctx context.Context, ns []domain.Notification) error
	Deliver(ctx context.Context, ns []domain.Notification)
}

type Service struct {
	repo      Repo
	catalog   CatalogRepo
	notifier  Notifier
	txManager pg.TXManager
}

func New(repo Repo, catalog CatalogRepo, notifier Notifier, txManager pg.TXManager) *Service {
	return &Service{
		repo:      repo,
		catalog:   catalog,
		notifier:  notifier,
		txManager: txManager,
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Provider, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: provider %d", domain.ErrNotFound, id)
	}
	return p, nil
}

// ProviderIDByUser resolves the provider profile owned by a user. Users
// without a profile get domain.ErrForbidden.
func (s *Service) ProviderIDByUser(ctx context.Context, userID int64) (int64, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, fmt.Errorf("%w: user %d has no provider profile", domain.ErrForbidden, userID)
	}
	return p.ID, nil
}

func (s *Service) ListServices(ctx context.Context, providerID int64) ([]domain.Service, error) {
	if _, err := s.Get(ctx, providerID); err != nil {
		return nil, err
	}
	services, err := s.catalog.ListServicesByProvider(ctx, providerID)
	if err != nil {
		zap.L().Error("failed to get provider services", zap.Int64("provider_id", providerID), zap.Error(err))
		return nil, err
	}
	return services, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// ChangeStatus moves the provider through the approval workflow and notifies
// the owning user.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status domain.ProviderStatus) (*domain.Provider, error) {
	var (
		provider *domain.Provider
		staged   []domain.Notification
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("%w: provider %d", domain.ErrNotFound, id)
		}
		from := p.Status
		if !from.CanBecome(status) {
			return fmt.Errorf("%w: provider %d cannot go from %s to %s", domain.ErrInvalidTransition, id, from, status)
		}
		if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		p.Status = status
		provider = p
		staged = notify.ForProviderStatus(*p, from)
		return s.notifier.Stage(ctx, staged)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Deliver(ctx, staged)
	zap.L().Info("provider status changed", zap.Int64("provider_id", id), zap.String("status", string(status)))
	return provider, nil
}
