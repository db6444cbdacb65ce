package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/festival/internal/models"
)

type CreateUserParams struct {
	Email          string
	Name           string
	HashedPassword string
	Role           string
}

// User repository interface
type UserRepo interface {
	// Create user
	// Email is compared case-insensitively. If it's taken has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Set last login time and latest refresh token in one write
	RecordLogin(ctx context.Context, userID uuid.UUID, at time.Time, refresh string) error

	// Overwrite stored refresh token. Empty string clears it
	// Last write wins, concurrent refreshes are not detected
	SetRefreshToken(ctx context.Context, userID uuid.UUID, refresh string) error
}

// Document is a content document addressed by string id
type Document interface {
	DocID() string
}

// Repository of content documents of one type
type DocumentRepo[T Document] interface {
	// Must return apperrors.ErrDocumentNotFound if there is no such document
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, doc T) error

	// Replace existing document. apperrors.ErrDocumentNotFound if it not exists
	Update(ctx context.Context, doc T) error

	// apperrors.ErrDocumentNotFound if it not exists
	Delete(ctx context.Context, id string) error
}

// Site assets singleton repository
type SiteAssetsRepo interface {
	// Return stored assets. Empty assets if nothing saved yet
	Get(ctx context.Context) (models.SiteAssets, error)
	Save(ctx context.Context, assets models.SiteAssets) error
}
