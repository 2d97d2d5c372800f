package notificationrepo

import (
	"context"
	"encoding/json"
	"fmt"

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

func (r *Repository) Create(ctx context.Context, n *domain.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", n.Type(), err)
	}
	query := `
        INSERT INTO notifications (user_id, type, payload)
        VALUES ($1, $2, $3)
        RETURNING id, created_at
    `
	err = r.db.QueryRow(ctx, query, n.UserID, n.Type(), payload).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		zap.L().Error("can't save notification", zap.Int64("user_id", n.UserID), zap.Error(err))
		return err
	}
	return nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64, limit uint32) ([]domain.Notification, error) {
	query := `
        SELECT id, user_id, type, payload, read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, userID, int(limit))
	if err != nil {
		zap.L().Error("can't get notifications", zap.Int64("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var (
			n       domain.Notification
			typ     domain.NotificationType
			payload []byte
		)
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &payload, &n.Read, &n.CreatedAt); err != nil {
			zap.L().Error("can't scan notification row", zap.Error(err))
			return nil, err
		}
		n.Payload, err = domain.DecodePayload(typ, payload)
		if err != nil {
			zap.L().Error("can't decode notification", zap.Int64("notification_id", n.ID), zap.Error(err))
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead flags the notification as read when it belongs to userID.
func (r *Repository) MarkRead(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		zap.L().Error("can't mark notification read", zap.Int64("notification_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %d", domain.ErrNotFound, id)
	}
	return nil
}
