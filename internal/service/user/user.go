package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
	"github.com/nkiryanov/festival/internal/service/auth"
)

type CreateUserParams struct {
	Email    string
	Password string
	Name     string
	Role     string
}

type UserService struct {
	hasher   auth.PasswordHasher
	userRepo repository.UserRepo
}

func NewService(hasher auth.PasswordHasher, userRepo repository.UserRepo) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:   hasher,
		userRepo: userRepo,
	}
}

// CreateUser with any role, used by admins. No tokens are issued
func (s *UserService) CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error) {
	var user models.User

	role := arg.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return user, fmt.Errorf("unknown role %q", role)
	}

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Email:          arg.Email,
		Name:           arg.Name,
		HashedPassword: hash,
		Role:           role,
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

// EnsureAdmin creates admin account unless user with the email already exists
// Existing account is left untouched, whatever role it has
func (s *UserService) EnsureAdmin(ctx context.Context, email string, password string) (user models.User, created bool, err error) {
	user, err = s.userRepo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return user, false, nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return user, false, err
	}

	user, err = s.CreateUser(ctx, CreateUserParams{
		Email:    email,
		Password: password,
		Name:     "Administrator",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return user, false, err
	}

	return user, true, nil
}
