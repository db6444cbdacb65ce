package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
)

// In memory repositories for service and handler tests
// They follow the same contracts as database ones

type UserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]models.User
}

var _ repository.UserRepo = (*UserRepo)(nil)

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]models.User)}
}

func (r *UserRepo) CreateUser(_ context.Context, arg repository.CreateUserParams) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(arg.Email))
	for _, u := range r.users {
		if u.Email == email {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	role := arg.Role
	if role == "" {
		role = models.RoleUser
	}

	u := models.User{
		ID:             uuid.New(),
		CreatedAt:      time.Now(),
		Email:          email,
		Name:           arg.Name,
		HashedPassword: arg.HashedPassword,
		Role:           role,
		IsActive:       true,
	}
	r.users[u.ID] = u

	return u, nil
}

func (r *UserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func (r *UserRepo) RecordLogin(_ context.Context, userID uuid.UUID, at time.Time, refresh string) error {
	return r.update(userID, func(u *models.User) {
		u.LastLoginAt = &at
		u.RefreshToken = refresh
	})
}

func (r *UserRepo) SetRefreshToken(_ context.Context, userID uuid.UUID, refresh string) error {
	return r.update(userID, func(u *models.User) {
		u.RefreshToken = refresh
	})
}

// Update user in place, used by tests to deactivate users
func (r *UserRepo) Update(userID uuid.UUID, fn func(u *models.User)) error {
	return r.update(userID, fn)
}

func (r *UserRepo) update(userID uuid.UUID, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	fn(&u)
	r.users[userID] = u

	return nil
}

// Documents kept in insertion order
type DocumentRepo[T repository.Document] struct {
	mu   sync.Mutex
	docs []T

	// Returned by Create and Update if set
	WriteErr error
}

var _ repository.DocumentRepo[models.Band] = (*DocumentRepo[models.Band])(nil)

func NewDocumentRepo[T repository.Document](docs ...T) *DocumentRepo[T] {
	return &DocumentRepo[T]{docs: docs}
}

func (r *DocumentRepo[T]) Get(_ context.Context, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.docs {
		if d.DocID() == id {
			return d, nil
		}
	}

	var zero T
	return zero, apperrors.ErrDocumentNotFound
}

func (r *DocumentRepo[T]) List(_ context.Context) ([]T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, len(r.docs))
	copy(out, r.docs)
	return out, nil
}

func (r *DocumentRepo[T]) Create(_ context.Context, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.WriteErr != nil {
		return r.WriteErr
	}

	r.docs = append(r.docs, doc)
	return nil
}

func (r *DocumentRepo[T]) Update(_ context.Context, doc T) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.WriteErr != nil {
		return r.WriteErr
	}

	for i, d := range r.docs {
		if d.DocID() == doc.DocID() {
			r.docs[i] = doc
			return nil
		}
	}
	return apperrors.ErrDocumentNotFound
}

func (r *DocumentRepo[T]) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.docs {
		if d.DocID() == id {
			r.docs = append(r.docs[:i], r.docs[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrDocumentNotFound
}

type SiteAssetsRepo struct {
	mu     sync.Mutex
	assets models.SiteAssets

	// Returned by Save if set
	SaveErr error
}

var _ repository.SiteAssetsRepo = (*SiteAssetsRepo)(nil)

func NewSiteAssetsRepo() *SiteAssetsRepo {
	return &SiteAssetsRepo{assets: models.SiteAssets{ID: models.SiteAssetsID}}
}

func (r *SiteAssetsRepo) Get(context.Context) (models.SiteAssets, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.assets, nil
}

func (r *SiteAssetsRepo) Save(_ context.Context, assets models.SiteAssets) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SaveErr != nil {
		return r.SaveErr
	}

	assets.ID = models.SiteAssetsID
	r.assets = assets
	return nil
}
