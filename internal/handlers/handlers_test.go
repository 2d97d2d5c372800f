package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/mh26/services/internal/config"
	"github.com/mh26/services/internal/kafka"
	"github.com/mh26/services/internal/lock"
	"github.com/mh26/services/internal/pg"
	"github.com/mh26/services/internal/repo"
	"github.com/mh26/services/internal/service"
	"github.com/mh26/services/pkg/auth"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	services := service.New(&config.Config{}, repo.New(mockDB), pg.NewMockTXManager(ctrl), lock.NewLocal(), kafka.Discard{})
	h := New(services, auth.NewJWTService("secret"))

	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.BookingHandler)
	assert.NotNil(t, h.LedgerHandler)
	assert.NotNil(t, h.ReviewHandler)
	assert.NotNil(t, h.ProviderHandler)
	assert.NotNil(t, h.NotificationHandler)
	assert.NotNil(t, h.authenticate)
}

func TestInitRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockBookingHandler := NewMockBookingHandler(ctrl)
	mockLedgerHandler := NewMockLedgerHandler(ctrl)
	mockReviewHandler := NewMockReviewHandler(ctrl)
	mockProviderHandler := NewMockProviderHandler(ctrl)
	mockNotificationHandler := NewMockNotificationHandler(ctrl)
	resolver := auth.NewMockProviderResolver(ctrl)

	mockBookingHandler.EXPECT().Create(gomock.Any(), gomock.Any()).AnyTimes()
	mockBookingHandler.EXPECT().Get(gomock.Any(), gomock.Any()).AnyTimes()
	mockBookingHandler.EXPECT().GetByReference(gomock.Any(), gomock.Any()).AnyTimes()
	mockBookingHandler.EXPECT().Transition(gomock.Any(), gomock.Any()).AnyTimes()
	mockBookingHandler.EXPECT().Events(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().RecordPayment(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().Refund(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().SettlePayout(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().Transactions(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().Reconcile(gomock.Any(), gomock.Any()).AnyTimes()
	mockReviewHandler.EXPECT().Submit(gomock.Any(), gomock.Any()).AnyTimes()
	mockProviderHandler.EXPECT().Get(gomock.Any(), gomock.Any()).AnyTimes()
	mockProviderHandler.EXPECT().Services(gomock.Any(), gomock.Any()).AnyTimes()
	mockProviderHandler.EXPECT().Categories(gomock.Any(), gomock.Any()).AnyTimes()
	mockProviderHandler.EXPECT().ChangeStatus(gomock.Any(), gomock.Any()).AnyTimes()
	mockNotificationHandler.EXPECT().List(gomock.Any(), gomock.Any()).AnyTimes()
	mockNotificationHandler.EXPECT().MarkRead(gomock.Any(), gomock.Any()).AnyTimes()
	resolver.EXPECT().ProviderIDByUser(gomock.Any(), int64(21)).Return(int64(7), nil).AnyTimes()

	tokens := auth.NewJWTService("secret")
	h := &Handlers{
		BookingHandler:      mockBookingHandler,
		LedgerHandler:       mockLedgerHandler,
		ReviewHandler:       mockReviewHandler,
		ProviderHandler:     mockProviderHandler,
		NotificationHandler: mockNotificationHandler,
		authenticate:        auth.AuthMiddleware(tokens, resolver),
	}

	router := chi.NewRouter()
	h.InitRoutes(router)

	token := func(userID int64, role string) string {
		s, err := tokens.GenerateJWT(userID, role, time.Now().Add(time.Hour))
		require.NoError(t, err)
		return s
	}
	customer := token(11, auth.RoleCustomer)
	provider := token(21, auth.RoleProvider)
	admin := token(1, auth.RoleAdmin)

	tests := []struct {
		method string
		url    string
		token  string
		status int
	}{
		{"POST", "/api/bookings", "", http.StatusUnauthorized},
		{"POST", "/api/bookings", customer, http.StatusOK},
		{"POST", "/api/bookings", admin, http.StatusForbidden},
		{"GET", "/api/bookings/100", provider, http.StatusOK},
		{"GET", "/api/bookings/ref/2404815702", customer, http.StatusOK},
		{"POST", "/api/bookings/100/transitions", provider, http.StatusOK},
		{"GET", "/api/bookings/100/events", admin, http.StatusOK},
		{"GET", "/api/bookings/100/transactions", customer, http.StatusOK},
		{"POST", "/api/bookings/100/payments", customer, http.StatusOK},
		{"POST", "/api/bookings/100/payments", provider, http.StatusForbidden},
		{"POST", "/api/bookings/100/review", customer, http.StatusOK},
		{"POST", "/api/bookings/100/refunds", customer, http.StatusForbidden},
		{"POST", "/api/bookings/100/refunds", admin, http.StatusOK},
		{"POST", "/api/bookings/100/payout", admin, http.StatusOK},
		{"GET", "/api/categories", customer, http.StatusOK},
		{"GET", "/api/providers/7", customer, http.StatusOK},
		{"GET", "/api/providers/7/services", provider, http.StatusOK},
		{"PUT", "/api/admin/providers/7/status", provider, http.StatusForbidden},
		{"PUT", "/api/admin/providers/7/status", admin, http.StatusOK},
		{"POST", "/api/admin/providers/7/reconcile", admin, http.StatusOK},
		{"GET", "/api/notifications", customer, http.StatusOK},
		{"POST", "/api/notifications/4/read", customer, http.StatusOK},
		{"GET", "/api/notifications", "garbage", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
