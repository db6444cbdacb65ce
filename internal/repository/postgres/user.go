package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/models"
	"github.com/nkiryanov/festival/internal/repository"
)

type UserRepo struct {
	DB DBTX
}

const userColumns = `id, created_at, email, name, password_hash, role, is_active, last_login_at, COALESCE(refresh_token, '')`

// Emails are unique regardless of case, store them normalized
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const createUser = `-- name: CreateUser
INSERT INTO users (id, email, name, password_hash, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + userColumns

func (r *UserRepo) CreateUser(ctx context.Context, arg repository.CreateUserParams) (models.User, error) {
	role := arg.Role
	if role == "" {
		role = models.RoleUser
	}

	rows, _ := r.DB.Query(ctx, createUser, uuid.New(), normalizeEmail(arg.Email), arg.Name, arg.HashedPassword, role)
	user, err := pgx.CollectOneRow(rows, rowToUser)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return user, apperrors.ErrUserAlreadyExists
		}

		return user, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `-- name: GetUserByID
SELECT ` + userColumns + ` FROM users
WHERE id = $1
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByID, id)
	return collectUser(rows)
}

const getUserByEmail = `-- name: GetUserByEmail
SELECT ` + userColumns + ` FROM users
WHERE LOWER(email) = $1
`

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	rows, _ := r.DB.Query(ctx, getUserByEmail, normalizeEmail(email))
	return collectUser(rows)
}

const recordLogin = `-- name: RecordLogin
UPDATE users
SET last_login_at = $2, refresh_token = NULLIF($3, '')
WHERE id = $1
`

func (r *UserRepo) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, refresh string) error {
	tag, err := r.DB.Exec(ctx, recordLogin, id, at, refresh)
	return checkUpdated(tag, err)
}

const setRefreshToken = `-- name: SetRefreshToken
UPDATE users
SET refresh_token = NULLIF($2, '')
WHERE id = $1
`

func (r *UserRepo) SetRefreshToken(ctx context.Context, id uuid.UUID, refresh string) error {
	tag, err := r.DB.Exec(ctx, setRefreshToken, id, refresh)
	return checkUpdated(tag, err)
}

func checkUpdated(tag pgconn.CommandTag, err error) error {
	switch {
	case err != nil:
		return fmt.Errorf("db error: %w", err)
	case tag.RowsAffected() == 0:
		return apperrors.ErrUserNotFound
	default:
		return nil
	}
}

func collectUser(rows pgx.Rows) (models.User, error) {
	user, err := pgx.CollectOneRow(rows, rowToUser)

	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, pgx.ErrNoRows):
		return user, apperrors.ErrUserNotFound
	default:
		return user, fmt.Errorf("db error: %w", err)
	}
}

func rowToUser(row pgx.CollectableRow) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.CreatedAt, &u.Email, &u.Name, &u.HashedPassword, &u.Role, &u.IsActive, &u.LastLoginAt, &u.RefreshToken)
	return u, err
}
