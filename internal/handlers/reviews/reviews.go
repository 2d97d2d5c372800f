package reviews

//go:generate mockgen -source=reviews.go -destination=mock_reviews.go -package=reviews

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/dto"
	"github.com/mh26/services/internal/handlers/common"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/pkg/utils"
)

type Service interface {
	SubmitReview(ctx context.Context, actor lifecycle.Actor, id int64, rating int, comment string) (*domain.Review, error)
}

type ReviewHandler struct {
	reviewService Service
}

func New(reviewService Service) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

// Submit godoc
//
//	@Summary		Rate a completed booking
//	@Description	One review per booking. The provider's average rating is updated in the same transaction.
//	@Tags			Reviews
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Booking id"
//	@Param			request	body		dto.ReviewRequestDTO	true	"Review"
//	@Success		201		{object}	dto.ReviewResponseDTO
//	@Failure		400		{object}	utils.Response	"Rating must be between 1 and 5"
//	@Failure		403		{object}	utils.Response	"Only the booking customer can review"
//	@Failure		409		{object}	utils.Response	"Already reviewed or booking not completed"
//	@Router			/api/bookings/{id}/review [post]
func (h *ReviewHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := common.IDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req dto.ReviewRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	review, err := h.reviewService.SubmitReview(r.Context(), common.Actor(r), id, req.Rating, req.Comment)
	if err != nil {
		common.RespondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.ReviewResponseDTO{
		ID:        review.ID,
		BookingID: review.BookingID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		CreatedAt: review.CreatedAt,
	})
}
