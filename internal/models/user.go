package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	Name           string
	HashedPassword string
	Role           string
	IsActive       bool
	LastLoginAt    *time.Time // nil if user never logged in
	RefreshToken   string     // latest issued refresh token, empty if none
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
