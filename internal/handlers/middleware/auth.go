package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/handlers/userctx"
	"github.com/nkiryanov/festival/internal/models"
)

const (
	MsgNoToken       = "No token provided"
	MsgInvalidToken  = "Invalid token"
	MsgTokenExpired  = "Token expired"
	MsgUserNotFound  = "Invalid token, user not found"
	MsgUserInactive  = "User account is deactivated"
	MsgAdminRequired = "Access denied. Admin privileges required."
)

type authenticator interface {
	// Resolve access token to the user
	// Returns apperrors.ErrTokenInvalid, ErrTokenExpired, ErrUserNotFound or ErrUserInactive
	Authenticate(ctx context.Context, access string) (models.User, error)
}

// Auth rejects requests without valid bearer access token and puts the user into request context
func Auth(a authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, MsgNoToken, http.StatusUnauthorized)
				return
			}

			user, err := a.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, apperrors.ErrTokenExpired):
					render.ServiceError(w, MsgTokenExpired, http.StatusUnauthorized)
				case errors.Is(err, apperrors.ErrUserNotFound):
					render.ServiceError(w, MsgUserNotFound, http.StatusUnauthorized)
				case errors.Is(err, apperrors.ErrUserInactive):
					render.ServiceError(w, MsgUserInactive, http.StatusUnauthorized)
				case errors.Is(err, apperrors.ErrTokenInvalid):
					render.ServiceError(w, MsgInvalidToken, http.StatusUnauthorized)
				default:
					render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				}
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through users with the role only. Must be used after Auth
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := userctx.FromContext(r.Context()); !ok {
				render.ServiceError(w, MsgNoToken, http.StatusUnauthorized)
				return
			}

			if !userctx.HasRole(r.Context(), role) {
				render.ServiceError(w, MsgAdminRequired, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
