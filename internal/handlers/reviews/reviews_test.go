package reviews

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/mh26/services/internal/domain"
	"github.com/mh26/services/internal/dto"
	"github.com/mh26/services/internal/lifecycle"
	"github.com/mh26/services/pkg/auth"
)

func TestSubmitHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	actor := lifecycle.Actor{UserID: 11, Role: lifecycle.RoleCustomer}

	tests := []struct {
		name         string
		body         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Review saved",
			body: `{"rating":5,"comment":"On time"}`,
			prepareMock: func() {
				service.EXPECT().SubmitReview(gomock.Any(), actor, int64(100), 5, "On time").
					Return(&domain.Review{ID: 1, BookingID: 100, ProviderID: 7, CustomerID: 11, Rating: 5, Comment: "On time"}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Malformed body",
			body:         `{"rating":"five"}`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Rating out of range",
			body: `{"rating":6}`,
			prepareMock: func() {
				service.EXPECT().SubmitReview(gomock.Any(), actor, int64(100), 6, "").Return(nil, domain.ErrInvalidRating)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Second review",
			body: `{"rating":4}`,
			prepareMock: func() {
				service.EXPECT().SubmitReview(gomock.Any(), actor, int64(100), 4, "").Return(nil, domain.ErrDuplicateReview)
			},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", "100")
			ctx := auth.WithIdentity(context.Background(), auth.Identity{UserID: 11, Role: auth.RoleCustomer})
			r := httptest.NewRequest(http.MethodPost, "/api/bookings/100/review", bytes.NewBufferString(tt.body)).
				WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			handler.Submit(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusCreated {
				var body dto.ReviewResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, 5, body.Rating)
			}
		})
	}
}
