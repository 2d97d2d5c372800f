package dto

import (
	"time"

	"github.com/mh26/services/internal/domain"
)

type PaymentRequestDTO struct {
	Amount     float64 `json:"amount" example:"800"`
	Method     string  `json:"method" example:"upi"`
	ExternalID string  `json:"external_id" example:"pay_8f3a2c"`
}

type RefundRequestDTO struct {
	// Amount of zero refunds the full payment.
	Amount float64 `json:"amount,omitempty" example:"200"`
}

type TransactionResponseDTO struct {
	ID          int64      `json:"id" example:"5"`
	BookingID   int64      `json:"booking_id" example:"100"`
	Type        string     `json:"type" example:"PAYOUT"`
	Status      string     `json:"status" example:"PENDING"`
	Amount      float64    `json:"amount" example:"765"`
	Method      string     `json:"method,omitempty" example:"upi"`
	ExternalID  string     `json:"external_id" example:"payout-0c4b"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func NewTransactionResponse(t *domain.Transaction) TransactionResponseDTO {
	return TransactionResponseDTO{
		ID:          t.ID,
		BookingID:   t.BookingID,
		Type:        string(t.Type),
		Status:      string(t.Status),
		Amount:      t.Amount,
		Method:      t.Method,
		ExternalID:  t.ExternalID,
		CreatedAt:   t.CreatedAt,
		CompletedAt: t.CompletedAt,
	}
}

type ReviewRequestDTO struct {
	Rating  int    `json:"rating" example:"5"`
	Comment string `json:"comment,omitempty" example:"On time and tidy"`
}

type ReviewResponseDTO struct {
	ID        int64     `json:"id" example:"1"`
	BookingID int64     `json:"booking_id" example:"100"`
	Rating    int       `json:"rating" example:"5"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
