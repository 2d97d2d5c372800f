package auth

//go:generate mockgen -source=middleware.go -destination=mock_middleware.go -package=auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mh26/services/pkg/utils"
)

type ContextKey string

const IdentityKey ContextKey = "identity"

// Identity is the authenticated caller. ProviderID is set for providers only.
type Identity struct {
	UserID     int64
	Role       string
	ProviderID int64
}

// ProviderResolver maps a provider user to the provider profile it owns.
type ProviderResolver interface {
	ProviderIDByUser(ctx context.Context, userID int64) (int64, error)
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(Identity)
	return id, ok
}

func AuthMiddleware(tokens JWTServiceInterface, providers ProviderResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := tokens.ValidateToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			id := Identity{UserID: claims.UserID, Role: claims.Role}
			if id.Role == RoleProvider {
				id.ProviderID, err = providers.ProviderIDByUser(r.Context(), id.UserID)
				if err != nil {
					zap.L().Warn("provider profile lookup failed", zap.Int64("user_id", id.UserID), zap.Error(err))
					utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole lets the request through only when the caller has one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range roles {
				if id.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		})
	}
}
