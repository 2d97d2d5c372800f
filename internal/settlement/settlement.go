// Package settlement periodically settles payouts that have become
// settleable, so admins do not have to call SettlePayout by hand.
package settlement

//go:generate mockgen -source=settlement.go -destination=mock_settlement.go -package=settlement

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mh26/services/internal/config"
	"github.com/mh26/services/internal/domain"
)

type Settler interface {
	Settleable(ctx context.Context, limit uint32) ([]int64, error)
	SettlePayout(ctx context.Context, id int64) (*domain.Transaction, error)
}

type Service struct {
	settler    Settler
	limit      uint32
	workerPool WorkerPoolI
	interval   time.Duration
	inFlight   sync.Map
}

func New(cfg *config.Config, settler Settler) *Service {
	return &Service{
		settler:    settler,
		limit:      cfg.SettlementBatch,
		workerPool: NewWorkerPool(cfg.SettlementWorkers),
		interval:   cfg.SettlementInterval,
	}
}

// Start launches the sweeper. A non-positive interval leaves it disabled.
func (s *Service) Start(ctx context.Context) {
	if s.interval <= 0 {
		zap.L().Info("settlement sweeper disabled")
		s.workerPool.Close()
		return
	}
	zap.L().Info("settlement sweeper started", zap.Duration("interval", s.interval))
	go s.run(ctx)
}

func (s *Service) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.workerPool.Close()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("settlement sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep queues every settleable booking that is not already being settled.
func (s *Service) sweep(ctx context.Context) {
	ids, err := s.settler.Settleable(ctx, s.limit)
	if err != nil {
		zap.L().Error("failed to fetch settleable bookings", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, id := range ids {
		id := id
		if _, loaded := s.inFlight.LoadOrStore(id, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := s.workerPool.AddTask(ctx, func() error {
				defer s.inFlight.Delete(id)
				_, err := s.settler.SettlePayout(ctx, id)
				return err
			})
			if err != nil {
				s.inFlight.Delete(id)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Warn("settlement sweep interrupted", zap.Error(err))
	}
}
