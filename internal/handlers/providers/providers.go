package providers

//go:generate mockgen -source=providers.go -destination=mock_providers.go -package=providers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/dto"
	"github.com/mh26/services/internal/handlers/common"
	"github.com/mh26/services/pkg/utils"
)

type Service interface {
	Get(ctx context.Context, id int64) (*domain.Provider, error)
	ListServices(ctx context.Context, providerID int64) ([]domain.Service, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ChangeStatus(ctx context.Context, id int64, status domain.ProviderStatus) (*domain.Provider, error)
}

type ProviderHandler struct {
	providerService Service
}

func New(providerService Service) *ProviderHandler {
	return &ProviderHandler{
		providerService: providerService,
	}
}

// Get godoc
//
//	@Summary		Provider profile with rating and earnings
//	@Tags			Providers
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Provider id"
//	@Success		200	{object}	dto.ProviderResponseDTO
//	@Failure		404	{object}	utils.Response	"Provider not found"
//	@Router			/api/providers/{id} [get]
func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	provider, err := h.providerService.Get(r.Context(), id)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewProviderResponse(provider))
}

// Services godoc
//
//	@Summary		Services offered by a provider
//	@Tags			Providers
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Provider id"
//	@Success		200	{array}		dto.ServiceResponseDTO
//	@Failure		404	{object}	utils.Response	"Provider not found"
//	@Router			/api/providers/{id}/services [get]
func (h *ProviderHandler) Services(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	services, err := h.providerService.ListServices(r.Context(), id)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	response := make([]dto.ServiceResponseDTO, 0, len(services))
	for _, s := range services {
		if !s.Active {
			continue
		}
		response = append(response, dto.ServiceResponseDTO{
			ID:              s.ID,
			CategoryID:      s.CategoryID,
			Name:            s.Name,
			BasePrice:       s.BasePrice,
			DurationMinutes: s.DurationMinutes,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// Categories godoc
//
//	@Summary		Service categories
//	@Tags			Providers
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.CategoryResponseDTO
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/categories [get]
func (h *ProviderHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.providerService.ListCategories(r.Context())
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	response := make([]dto.CategoryResponseDTO, 0, len(categories))
	for _, c := range categories {
		response = append(response, dto.CategoryResponseDTO{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// ChangeStatus godoc
//
//	@Summary		Approve, reject or suspend a provider
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int								true	"Provider id"
//	@Param			request	body		dto.ProviderStatusRequestDTO	true	"New status"
//	@Success		200		{object}	dto.ProviderResponseDTO
//	@Failure		400		{object}	utils.Response	"Unknown status"
//	@Failure		403		{object}	utils.Response	"Admin only"
//	@Failure		409		{object}	utils.Response	"Status change not allowed"
//	@Router			/api/admin/providers/{id}/status [put]
func (h *ProviderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req dto.ProviderStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := domain.ProviderStatus(req.Status)
	switch status {
	case domain.ProviderApproved, domain.ProviderRejected, domain.ProviderSuspended:
	default:
		utils.RespondWithError(w, http.StatusBadRequest, "status must be APPROVED, REJECTED or SUSPENDED")
		return
	}

	provider, err := h.providerService.ChangeStatus(r.Context(), id, status)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewProviderResponse(provider))
}
