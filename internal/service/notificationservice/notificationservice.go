package notificationservice

//go:generate mockgen -source=notificationservice.go -destination=mock_notificationservice.go -package=notificationservice

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mh26/services/internal/domain"
)

const (
	DefaultLimit   = 50
	maxLimit       = 200
	publishWorkers = 4
	publishTimeout = 5 * time.Second
)

type Repo interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID int64, limit uint32) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Service struct {
	repo      Repo
	publisher Publisher
}

func New(repo Repo, publisher Publisher) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
	}
}

// Stage persists ns with the caller's transaction and fills in their ids.
func (s *Service) Stage(ctx context.Context, ns []domain.Notification) error {
	for i := range ns {
		if err := s.repo.Create(ctx, &ns[i]); err != nil {
			return fmt.Errorf("stage %s notification: %w", ns[i].Type(), err)
		}
	}
	return nil
}

type message struct {
	ID        int64                   `json:"id"`
	UserID    int64                   `json:"user_id"`
	Type      domain.NotificationType `json:"type"`
	Payload   domain.Payload          `json:"payload"`
	CreatedAt time.Time               `json:"created_at"`
}

// Deliver publishes committed notifications keyed by recipient. Failures are
// logged; the stored notification stays available through List.
func (s *Service) Deliver(ctx context.Context, ns []domain.Notification) {
	if len(ns) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	var g errgroup.Group
	g.SetLimit(publishWorkers)
	for _, n := range ns {
		n := n
		g.Go(func() error {
			value, err := json.Marshal(message{
				ID:        n.ID,
				UserID:    n.UserID,
				Type:      n.Type(),
				Payload:   n.Payload,
				CreatedAt: n.CreatedAt,
			})
			if err != nil {
				return err
			}
			if err := s.publisher.Publish(ctx, strconv.FormatInt(n.UserID, 10), value); err != nil {
				zap.L().Error("can't publish notification",
					zap.Int64("notification_id", n.ID), zap.String("type", string(n.Type())), zap.Error(err))
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		zap.L().Warn("some notifications were not published", zap.Int("count", len(ns)), zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	ns, err := s.repo.ListByUser(ctx, userID, uint32(limit))
	if err != nil {
		zap.L().Error("failed to get notifications", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	return ns, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id int64) error {
	return s.repo.MarkRead(ctx, id, userID)
}
