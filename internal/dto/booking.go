package dto

import (
	"time"

	"github.com/mh26/services/internal/domain"
)

type CreateBookingRequestDTO struct {
	ServiceID   int64     `json:"service_id" example:"3"`
	ScheduledAt time.Time `json:"scheduled_at" example:"2026-03-10T09:00:00Z"`
	Address     string    `json:"address" example:"12 MG Road, Pune"`
}

type TransitionRequestDTO struct {
	Action      string  `json:"action" example:"complete"`
	ActualPrice float64 `json:"actual_price,omitempty" example:"850"`
	Reason      string  `json:"reason,omitempty" example:"plans changed"`
}

type BookingResponseDTO struct {
	ID                 int64      `json:"id" example:"100"`
	Reference          string     `json:"reference" example:"2404815702"`
	CustomerID         int64      `json:"customer_id" example:"11"`
	ProviderID         int64      `json:"provider_id" example:"7"`
	ServiceID          int64      `json:"service_id" example:"3"`
	ScheduledAt        time.Time  `json:"scheduled_at" example:"2026-03-10T09:00:00Z"`
	Address            string     `json:"address"`
	Status             string     `json:"status" example:"COMPLETED"`
	PaymentStatus      string     `json:"payment_status" example:"PAID"`
	EstimatedPrice     float64    `json:"estimated_price" example:"800"`
	ActualPrice        float64    `json:"actual_price,omitempty" example:"850"`
	PlatformFee        float64    `json:"platform_fee,omitempty" example:"85"`
	ProviderEarnings   float64    `json:"provider_earnings,omitempty" example:"765"`
	NeedsReview        bool       `json:"needs_review,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	DisputedFrom       string     `json:"disputed_from,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	ConfirmedAt        *time.Time `json:"confirmed_at,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	DisputedAt         *time.Time `json:"disputed_at,omitempty"`
}

func NewBookingResponse(b *domain.Booking) BookingResponseDTO {
	return BookingResponseDTO{
		ID:                 b.ID,
		Reference:          b.Reference,
		CustomerID:         b.CustomerID,
		ProviderID:         b.ProviderID,
		ServiceID:          b.ServiceID,
		ScheduledAt:        b.ScheduledAt,
		Address:            b.Address,
		Status:             string(b.Status),
		PaymentStatus:      string(b.PaymentStatus),
		EstimatedPrice:     b.EstimatedPrice,
		ActualPrice:        b.ActualPrice,
		PlatformFee:        b.PlatformFee,
		ProviderEarnings:   b.ProviderEarnings,
		NeedsReview:        b.NeedsReview,
		CancellationReason: b.CancellationReason,
		DisputedFrom:       string(b.DisputedFrom),
		CreatedAt:          b.CreatedAt,
		ConfirmedAt:        b.ConfirmedAt,
		StartedAt:          b.StartedAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		DisputedAt:         b.DisputedAt,
	}
}

type BookingEventResponseDTO struct {
	From      string    `json:"from,omitempty" example:"IN_PROGRESS"`
	To        string    `json:"to" example:"COMPLETED"`
	Action    string    `json:"action" example:"complete"`
	ActorID   int64     `json:"actor_id" example:"21"`
	ActorRole string    `json:"actor_role" example:"provider"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func NewBookingEventsResponse(events []domain.BookingEvent) []BookingEventResponseDTO {
	response := make([]BookingEventResponseDTO, 0, len(events))
	for _, ev := range events {
		response = append(response, BookingEventResponseDTO{
			From:      string(ev.FromStatus),
			To:        string(ev.ToStatus),
			Action:    ev.Action,
			ActorID:   ev.ActorID,
			ActorRole: ev.ActorRole,
			Note:      ev.Note,
			CreatedAt: ev.CreatedAt,
		})
	}
	return response
}
