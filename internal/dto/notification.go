package dto

import (
	"time"

	"github.com/mh26/services/internal/domain"
)

type NotificationResponseDTO struct {
	ID        int64          `json:"id" example:"4"`
	Type      string         `json:"type" example:"rate_service"`
	Payload   domain.Payload `json:"payload" swaggertype:"object"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}

func NewNotificationsResponse(ns []domain.Notification) []NotificationResponseDTO {
	response := make([]NotificationResponseDTO, 0, len(ns))
	for _, n := range ns {
		response = append(response, NotificationResponseDTO{
			ID:        n.ID,
			Type:      string(n.Type()),
			Payload:   n.Payload,
			Read:      n.Read,
			CreatedAt: n.CreatedAt,
		})
	}
	return response
}
