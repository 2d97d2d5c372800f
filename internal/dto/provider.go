package dto

import "github.com/mh26/services/internal/domain"

type ProviderResponseDTO struct {
	ID                int64   `json:"id" example:"7"`
	BusinessName      string  `json:"business_name" example:"Sharma Plumbing"`
	CategoryID        int64   `json:"category_id" example:"1"`
	Status            string  `json:"status" example:"APPROVED"`
	AverageRating     float64 `json:"average_rating" example:"4.5"`
	TotalRatings      int     `json:"total_ratings" example:"12"`
	TotalEarnings     float64 `json:"total_earnings" example:"15300"`
	ThisMonthEarnings float64 `json:"this_month_earnings" example:"2295"`
	PendingEarnings   float64 `json:"pending_earnings" example:"765"`
}

func NewProviderResponse(p *domain.Provider) ProviderResponseDTO {
	return ProviderResponseDTO{
		ID:                p.ID,
		BusinessName:      p.BusinessName,
		CategoryID:        p.CategoryID,
		Status:            string(p.Status),
		AverageRating:     p.AverageRating,
		TotalRatings:      p.TotalRatings,
		TotalEarnings:     p.TotalEarnings,
		ThisMonthEarnings: p.ThisMonthEarnings,
		PendingEarnings:   p.PendingEarnings,
	}
}

type ProviderStatusRequestDTO struct {
	Status string `json:"status" example:"APPROVED"`
}

type ServiceResponseDTO struct {
	ID              int64   `json:"id" example:"3"`
	CategoryID      int64   `json:"category_id" example:"1"`
	Name            string  `json:"name" example:"Leak repair"`
	BasePrice       float64 `json:"base_price" example:"800"`
	DurationMinutes int     `json:"duration_minutes,omitempty" example:"60"`
}

type CategoryResponseDTO struct {
	ID   int64  `json:"id" example:"1"`
	Name string `json:"name" example:"Plumbing"`
	Slug string `json:"slug" example:"plumbing"`
}
