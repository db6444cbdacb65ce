package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user is deactivated")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Configuration error: token manager has no signing secret
	ErrSecretNotConfigured = errors.New("token signing secret is not configured")

	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token is revoked")

	ErrInvalidImageFormat = errors.New("invalid image format")
	ErrImageTooLarge      = errors.New("image is too large")
	ErrInvalidAssetPath   = errors.New("invalid asset path")
	ErrAssetNotFound      = errors.New("asset not found")

	ErrDocumentNotFound = errors.New("document not found")
)
