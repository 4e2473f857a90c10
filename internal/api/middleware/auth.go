package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"taskmanager/internal/common"
	"taskmanager/internal/common/security"
	"taskmanager/internal/domain/model"
)

type contextKey string

const (
	UserIDCtxKey    contextKey = "userID"
	UserRoleCtxKey  contextKey = "userRole"
	UserEmailCtxKey contextKey = "userEmail"
)

// Authenticate verifies the bearer token of the given kind and attaches the caller's
// identity to the request context. Requests without a valid token end here with 401.
// Only the Authorization header is read; handlers that need the raw token read it from
// the same place.
func Authenticate(tokens *security.TokenIssuer, kind security.TokenKind) func(http.Handler) http.Handler {
	verify := jwtauth.Verify(tokens.Auth(kind), jwtauth.TokenFromHeader)
	return func(next http.Handler) http.Handler {
		return verify(Authenticator(kind)(next))
	}
}

// Authenticator reads the token jwtauth.Verifier placed in the context.
func Authenticator(kind security.TokenKind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				if errors.Is(err, jwtauth.ErrNoTokenFound) {
					common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
				} else {
					common.RespondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
				}
				return
			}
			if token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			identity, err := security.ClaimsFromMap(claims, kind)
			if err != nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, identity.UserID)
			ctx = context.WithValue(ctx, UserRoleCtxKey, model.Role(identity.Role))
			ctx = context.WithValue(ctx, UserEmailCtxKey, identity.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRoleFromContext(r.Context())
			if ok {
				for _, allowed := range roles {
					if role == allowed {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
			common.RespondWithError(w, http.StatusForbidden, "Insufficient role for this operation")
		})
	}
}

func AdminOnly(next http.Handler) http.Handler {
	return RequireRole(model.RoleAdmin)(next)
}

// Helper to get user ID from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok && userID != ""
}

// Helper to get user role from context
func GetUserRoleFromContext(ctx context.Context) (model.Role, bool) {
	userRole, ok := ctx.Value(UserRoleCtxKey).(model.Role)
	return userRole, ok
}
