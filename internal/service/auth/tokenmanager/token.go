package tokenmanager

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/models"
)

// Token lifetimes are fixed, clients rely on them
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour

	defaultSigningMethod = "HS256"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
	Email  string    `json:"email"`
	Role   string    `json:"role"`
	Type   string    `json:"typ"`
}

type Config struct {
	// Secrets to sign access and refresh tokens
	// Both required to be set
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Clock, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	accessKey  string
	refreshKey string

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, apperrors.ErrSecretNotConfigured
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q, only HMAC ones allowed", cfg.Alg)
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		accessKey:  cfg.AccessSecret,
		refreshKey: cfg.RefreshSecret,
		alg:        alg,
		now:        cfg.Now,
	}, nil
}

// Issue access and refresh tokens for the user
func (m *TokenManager) Issue(user models.User) (models.TokenPair, error) {
	var pair models.TokenPair

	// Zero value manager has nothing to sign with
	if m.accessKey == "" || m.refreshKey == "" || m.alg == nil {
		return pair, apperrors.ErrSecretNotConfigured
	}

	now := m.now().Truncate(time.Second)

	access, err := m.sign(user, tokenTypeAccess, now, now.Add(AccessTokenTTL), m.accessKey)
	if err != nil {
		return pair, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := m.sign(user, tokenTypeRefresh, now, now.Add(RefreshTokenTTL), m.refreshKey)
	if err != nil {
		return pair, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.TokenPair{
		Access:  models.IssuedToken{Value: access, ExpiresAt: now.Add(AccessTokenTTL)},
		Refresh: models.IssuedToken{Value: refresh, ExpiresAt: now.Add(RefreshTokenTTL)},
	}, nil
}

func (m *TokenManager) sign(user models.User, typ string, now time.Time, expiresAt time.Time, key string) (string, error) {
	token := jwt.NewWithClaims(
		m.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				Subject:   user.ID.String(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID: user.ID,
			Email:  user.Email,
			Role:   user.Role,
			Type:   typ,
		},
	)

	return token.SignedString([]byte(key))
}

// Parse and validate access token
// Returns apperrors.ErrTokenExpired if token expired and apperrors.ErrTokenInvalid on any other failure
func (m *TokenManager) VerifyAccess(token string) (models.TokenClaims, error) {
	return m.verify(token, tokenTypeAccess, m.accessKey)
}

// Parse and validate refresh token, same errors as VerifyAccess
func (m *TokenManager) VerifyRefresh(token string) (models.TokenClaims, error) {
	return m.verify(token, tokenTypeRefresh, m.refreshKey)
}

func (m *TokenManager) verify(token string, typ string, key string) (models.TokenClaims, error) {
	if key == "" || m.alg == nil {
		return models.TokenClaims{}, apperrors.ErrSecretNotConfigured
	}

	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			return []byte(key), nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		// Signature is checked before expiration, so foreign tokens never get here
		return models.TokenClaims{}, apperrors.ErrTokenExpired
	case err != nil:
		return models.TokenClaims{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	case claims.Type != typ || claims.UserID == uuid.Nil:
		return models.TokenClaims{}, apperrors.ErrTokenInvalid
	}

	return models.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}
