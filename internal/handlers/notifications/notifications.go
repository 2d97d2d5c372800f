package notifications

//go:generate mockgen -source=notifications.go -destination=mock_notifications.go -package=notifications

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/dto"
	"github.com/mh26/services/internal/handlers/common"
	"github.com/mh26/services/pkg/utils"
)

type Service interface {
	List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
}

type NotificationHandler struct {
	notificationService Service
}

func New(notificationService Service) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// List godoc
//
//	@Summary		Notifications of the current user
//	@Description	Newest first.
//	@Tags			Notifications
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Page size, 50 by default"
//	@Success		200		{array}		dto.NotificationResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid limit"
//	@Router			/api/notifications [get]
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.RespondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	notifications, err := h.notificationService.List(r.Context(), common.Actor(r).UserID, limit)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewNotificationsResponse(notifications))
}

// MarkRead godoc
//
//	@Summary		Mark a notification as read
//	@Tags			Notifications
//	@Security		BearerAuth
//	@Param			id	path	int	true	"Notification id"
//	@Success		204
//	@Failure		404	{object}	utils.Response	"Notification not found"
//	@Router			/api/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.notificationService.MarkRead(r.Context(), common.Actor(r).UserID, id); err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
