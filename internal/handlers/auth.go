package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/handlers/render"
	"github.com/nkiryanov/festival/internal/handlers/userctx"
	"github.com/nkiryanov/festival/internal/logger"
	"github.com/nkiryanov/festival/internal/models"
)

type tokensResponse struct {
	AccessToken          string    `json:"accessToken"`
	RefreshToken         string    `json:"refreshToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt"`
}

type loginResponse struct {
	User userResponse `json:"user"`
	tokensResponse
}

func newTokensResponse(pair models.TokenPair) tokensResponse {
	return tokensResponse{
		AccessToken:          pair.Access.Value,
		RefreshToken:         pair.Refresh.Value,
		AccessTokenExpiresAt: pair.Access.ExpiresAt,
	}
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=255"`
		Password string `json:"password" validate:"required,min=6"`
		Name     string `json:"name" validate:"max=100"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, pair, err := as.Register(r.Context(), data.Email, data.Password, data.Name)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceError(w, "User already exists", http.StatusConflict)
			default:
				l.Error("Failed to register user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		l.Info("User registered", "user_id", u.ID)
		render.Created(w, loginResponse{User: newUserResponse(u), tokensResponse: newTokensResponse(pair)}, "User registered successfully")
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		u, pair, err := as.Login(r.Context(), data.Email, data.Password)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrInvalidCredentials):
				render.ServiceError(w, "Invalid email or password", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrUserInactive):
				render.ServiceError(w, "User account is deactivated", http.StatusUnauthorized)
			default:
				l.Error("Failed to login user", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, http.StatusOK, loginResponse{User: newUserResponse(u), tokensResponse: newTokensResponse(pair)}, "Login successful")
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		pair, err := as.Refresh(r.Context(), data.RefreshToken)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired):
				render.ServiceError(w, "Refresh token expired", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrTokenInvalid):
				render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrRefreshTokenRevoked):
				render.ServiceError(w, "Refresh token revoked", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Invalid token, user not found", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrUserInactive):
				render.ServiceError(w, "User account is deactivated", http.StatusUnauthorized)
			default:
				l.Error("Failed to refresh tokens", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, http.StatusOK, newTokensResponse(pair), "Tokens refreshed successfully")
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := userctx.FromContext(r.Context())

		if err := as.Logout(r.Context(), u.ID); err != nil {
			l.Error("Failed to logout user", "user_id", u.ID, "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.Success(w, http.StatusOK, nil, "Logged out successfully")
	})
}

type authService interface {
	// Register user with role "user"
	// Has to return apperrors.ErrUserAlreadyExists if email is taken
	Register(ctx context.Context, email string, password string, name string) (models.User, models.TokenPair, error)

	// Has to return apperrors.ErrInvalidCredentials for unknown email or wrong password
	Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error)

	// Issue new pair by refresh token
	Refresh(ctx context.Context, refresh string) (models.TokenPair, error)

	// Forget stored refresh token of the user
	Logout(ctx context.Context, userID uuid.UUID) error

	// Resolve access token to the user, used by auth middleware
	Authenticate(ctx context.Context, access string) (models.User, error)
}
