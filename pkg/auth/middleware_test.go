package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		prepareMock    func(tokens *MockJWTServiceInterface, providers *MockProviderResolver)
		expectedCode   int
		expectedCaller Identity
	}{
		{
			name:         "Missing header",
			prepareMock:  func(*MockJWTServiceInterface, *MockProviderResolver) {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "Not a bearer token",
			header:       "Basic dXNlcjpwYXNz",
			prepareMock:  func(*MockJWTServiceInterface, *MockProviderResolver) {},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:   "Invalid token",
			header: "Bearer bad",
			prepareMock: func(tokens *MockJWTServiceInterface, _ *MockProviderResolver) {
				tokens.EXPECT().ValidateToken("bad").Return(nil, ErrInvalidToken)
			},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:   "Customer",
			header: "Bearer good",
			prepareMock: func(tokens *MockJWTServiceInterface, _ *MockProviderResolver) {
				tokens.EXPECT().ValidateToken("good").Return(&Claims{UserID: 11, Role: RoleCustomer}, nil)
			},
			expectedCode:   http.StatusOK,
			expectedCaller: Identity{UserID: 11, Role: RoleCustomer},
		},
		{
			name:   "Provider gets its profile id",
			header: "Bearer good",
			prepareMock: func(tokens *MockJWTServiceInterface, providers *MockProviderResolver) {
				tokens.EXPECT().ValidateToken("good").Return(&Claims{UserID: 21, Role: RoleProvider}, nil)
				providers.EXPECT().ProviderIDByUser(gomock.Any(), int64(21)).Return(int64(7), nil)
			},
			expectedCode:   http.StatusOK,
			expectedCaller: Identity{UserID: 21, Role: RoleProvider, ProviderID: 7},
		},
		{
			name:   "Provider without profile",
			header: "Bearer good",
			prepareMock: func(tokens *MockJWTServiceInterface, providers *MockProviderResolver) {
				tokens.EXPECT().ValidateToken("good").Return(&Claims{UserID: 21, Role: RoleProvider}, nil)
				providers.EXPECT().ProviderIDByUser(gomock.Any(), int64(21)).Return(int64(0), errors.New("no profile"))
			},
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tokens := NewMockJWTServiceInterface(ctrl)
			providers := NewMockProviderResolver(ctrl)
			tt.prepareMock(tokens, providers)

			var caller Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				caller, _ = FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			r := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			AuthMiddleware(tokens, providers)(next).ServeHTTP(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectedCaller, caller)
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name         string
		ctx          context.Context
		expectedCode int
	}{
		{name: "Anonymous", ctx: context.Background(), expectedCode: http.StatusUnauthorized},
		{name: "Customer on admin route", ctx: WithIdentity(context.Background(), Identity{UserID: 11, Role: RoleCustomer}), expectedCode: http.StatusForbidden},
		{name: "Admin", ctx: WithIdentity(context.Background(), Identity{UserID: 1, Role: RoleAdmin}), expectedCode: http.StatusOK},
	}

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/api/admin/providers/7/status", nil).WithContext(tt.ctx)
			w := httptest.NewRecorder()
			RequireRole(RoleAdmin)(next).ServeHTTP(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
