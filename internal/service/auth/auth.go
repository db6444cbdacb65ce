package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
)

// Interface to create or verify user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Check user provided password matches known hashedPassword
	// Must be protected against timing attacks
	Verify(hashedPassword string, password string) bool
}

// Hasher used when none provided
var DefaultHasher PasswordHasher = BcryptHasher{}

// Issues and verifies token pairs
type TokenIssuer interface {
	Issue(user models.User) (models.TokenPair, error)
	VerifyAccess(token string) (models.TokenClaims, error)
	VerifyRefresh(token string) (models.TokenClaims, error)
}

type Config struct {
	// Hasher to use during registration and login, DefaultHasher if not set
	Hasher PasswordHasher

	// Accept only the latest refresh token stored for the user
	// Signature and expiration are always checked
	StrictRefresh bool

	// Clock, time.Now if not set
	Now func() time.Time
}

// Auth service
type AuthService struct {
	tokens TokenIssuer
	hasher PasswordHasher
	users  repository.UserRepo

	strictRefresh bool
	now           func() time.Time
}

func NewService(cfg Config, tokens TokenIssuer, users repository.UserRepo) (*AuthService, error) {
	if tokens == nil || users == nil {
		return nil, errors.New("token issuer and user repo must not be nil")
	}

	if cfg.Hasher == nil {
		cfg.Hasher = DefaultHasher
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &AuthService{
		tokens:        tokens,
		hasher:        cfg.Hasher,
		users:         users,
		strictRefresh: cfg.StrictRefresh,
		now:           cfg.Now,
	}, nil
}

// Register new user with role "user" and log the user in
func (s *AuthService) Register(ctx context.Context, email string, password string, name string) (models.User, models.TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, models.TokenPair{}, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.users.CreateUser(ctx, repository.CreateUserParams{
		Email:          email,
		Name:           name,
		HashedPassword: hash,
		Role:           models.RoleUser,
	})
	if err != nil {
		return user, models.TokenPair{}, err
	}

	return s.login(ctx, user)
}

// Login by email and password
// Unknown email and wrong password are indistinguishable: apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.User, models.TokenPair, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.User{}, models.TokenPair{}, err
	}

	if !s.hasher.Verify(user.HashedPassword, password) {
		return models.User{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return models.User{}, models.TokenPair{}, apperrors.ErrUserInactive
	}

	return s.login(ctx, user)
}

// Issue tokens and remember login time and refresh token
func (s *AuthService) login(ctx context.Context, user models.User) (models.User, models.TokenPair, error) {
	pair, err := s.tokens.Issue(user)
	if err != nil {
		return user, pair, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now, pair.Refresh.Value); err != nil {
		return user, models.TokenPair{}, fmt.Errorf("can't record login. Err: %w", err)
	}

	user.LastLoginAt = &now
	user.RefreshToken = pair.Refresh.Value

	return user, pair, nil
}

// Refresh issues new token pair by refresh token
// Stored refresh token is overwritten, concurrent refreshes race and the last one wins
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	claims, err := s.tokens.VerifyRefresh(refresh)
	if err != nil {
		return models.TokenPair{}, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.TokenPair{}, err
	}

	if !user.IsActive {
		return models.TokenPair{}, apperrors.ErrUserInactive
	}

	if s.strictRefresh && user.RefreshToken != refresh {
		return models.TokenPair{}, apperrors.ErrRefreshTokenRevoked
	}

	pair, err := s.tokens.Issue(user)
	if err != nil {
		return pair, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, pair.Refresh.Value); err != nil {
		return models.TokenPair{}, fmt.Errorf("can't save refresh token. Err: %w", err)
	}

	return pair, nil
}

// Logout forgets stored refresh token
// Access tokens stay valid until they expire
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.users.SetRefreshToken(ctx, userID, "")
}

// Authenticate resolves access token to the user it was issued for
func (s *AuthService) Authenticate(ctx context.Context, access string) (models.User, error) {
	claims, err := s.tokens.VerifyAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return models.User{}, err
	}

	if !user.IsActive {
		return models.User{}, apperrors.ErrUserInactive
	}

	return user, nil
}
