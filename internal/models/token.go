package models

import (
	"time"

	"github.com/google/uuid"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Identity carried by both access and refresh tokens
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}
