package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/pkg/auth"
)

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		retryAfter   string
	}{
		{name: "Concurrency conflict", err: fmt.Errorf("%w: booking:1:lock", domain.ErrConcurrencyConflict), expectedCode: http.StatusConflict, retryAfter: "1"},
		{name: "Invalid transition", err: domain.ErrInvalidTransition, expectedCode: http.StatusConflict},
		{name: "Terminal state", err: domain.ErrTerminalState, expectedCode: http.StatusConflict},
		{name: "Duplicate review", err: domain.ErrDuplicateReview, expectedCode: http.StatusConflict},
		{name: "Cancellation window", err: domain.ErrCancellationWindowExpired, expectedCode: http.StatusUnprocessableEntity},
		{name: "Amount mismatch", err: domain.ErrAmountMismatch, expectedCode: http.StatusUnprocessableEntity},
		{name: "Provider not bookable", err: domain.ErrProviderNotBookable, expectedCode: http.StatusUnprocessableEntity},
		{name: "Not found", err: domain.ErrNotFound, expectedCode: http.StatusNotFound},
		{name: "Forbidden", err: domain.ErrForbidden, expectedCode: http.StatusForbidden},
		{name: "Invalid rating", err: domain.ErrInvalidRating, expectedCode: http.StatusBadRequest},
		{name: "Invalid amount", err: domain.ErrInvalidAmount, expectedCode: http.StatusBadRequest},
		{name: "Invalid schedule", err: domain.ErrInvalidSchedule, expectedCode: http.StatusBadRequest},
		{name: "Unexpected", err: errors.New("db down"), expectedCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			RespondWithServiceError(w, tt.err)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.retryAfter, w.Header().Get("Retry-After"))
			if tt.expectedCode == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "db down")
			}
		})
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		value     string
		expected  int64
		expectErr bool
	}{
		{value: "100", expected: 100},
		{value: "0", expectErr: true},
		{value: "-4", expectErr: true},
		{value: "abc", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.value)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			id, err := IDParam(r, "id")
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrBadID)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, id)
			}
		})
	}
}

func TestActor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, lifecycle.Actor{}, Actor(r))

	r = r.WithContext(auth.WithIdentity(r.Context(), auth.Identity{UserID: 21, Role: auth.RoleProvider, ProviderID: 7}))
	assert.Equal(t, lifecycle.Actor{UserID: 21, Role: lifecycle.RoleProvider, ProviderID: 7}, Actor(r))
}
