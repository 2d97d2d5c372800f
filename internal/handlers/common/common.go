package common

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/pkg/auth"
	"github.com/mh26/services/pkg/utils"
)

var ErrBadID = errors.New("invalid id")

// Actor returns the authenticated caller. Routes are mounted behind the auth
// middleware, so a missing identity yields the zero Actor, which no policy
// authorizes.
func Actor(r *http.Request) lifecycle.Actor {
	id, _ := auth.FromContext(r.Context())
	return lifecycle.Actor{
		UserID:     id.UserID,
		Role:       lifecycle.Role(id.Role),
		ProviderID: id.ProviderID,
	}
}

func IDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadID
	}
	return id, nil
}

// RespondWithServiceError maps domain errors to HTTP statuses.
func RespondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConcurrencyConflict):
		w.Header().Set("Retry-After", "1")
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrTerminalState),
		errors.Is(err, domain.ErrDuplicateReview):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCancellationWindowExpired),
		errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrProviderNotBookable):
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidSchedule):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		zap.L().Error("request failed", zap.Error(err))
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
