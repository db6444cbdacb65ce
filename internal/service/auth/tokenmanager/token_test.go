package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/festival/internal/apperrors"
	"github.com/nkiryanov/festival/internal/models"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

// Clock that may be moved by tests
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	testUser := models.User{
		ID:        uuid.New(),
		CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
		Email:     "a@b.com",
		Role:      models.RoleUser,
	}

	newManager := func(t *testing.T, clock *fakeClock) *TokenManager {
		m, err := New(Config{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			Now:           clock.Now,
		})
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{AccessSecret: "a", RefreshSecret: "r"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, "a", m.accessKey)
		require.Equal(t, "r", m.refreshKey)
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
		require.NotNil(t, m.now)
	})

	t.Run("new without secrets fail", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "a"})
		require.ErrorIs(t, err, apperrors.ErrSecretNotConfigured)

		_, err = New(Config{RefreshSecret: "r"})
		require.ErrorIs(t, err, apperrors.ErrSecretNotConfigured)
	})

	t.Run("new with not hmac alg fail", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "a", RefreshSecret: "r", Alg: "RS256"})
		require.Error(t, err)

		_, err = New(Config{AccessSecret: "a", RefreshSecret: "r", Alg: "nope"})
		require.Error(t, err)
	})

	t.Run("zero value manager can't issue", func(t *testing.T) {
		var m TokenManager

		_, err := m.Issue(testUser)

		require.ErrorIs(t, err, apperrors.ErrSecretNotConfigured)
	})

	t.Run("issue pair", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)

		pair, err := m.Issue(testUser)

		require.NoError(t, err)
		assert.NotEmpty(t, pair.Access.Value)
		assert.NotEmpty(t, pair.Refresh.Value)
		assert.NotEqual(t, pair.Access.Value, pair.Refresh.Value)
		assert.Equal(t, clock.now.Add(15*time.Minute), pair.Access.ExpiresAt)
		assert.Equal(t, clock.now.Add(7*24*time.Hour), pair.Refresh.ExpiresAt)
	})

	t.Run("issued tokens are unique", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)

		first, err := m.Issue(testUser)
		require.NoError(t, err)
		second, err := m.Issue(testUser)
		require.NoError(t, err)

		assert.NotEqual(t, first.Refresh.Value, second.Refresh.Value)
	})

	t.Run("fresh access token verifies", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)
		pair, err := m.Issue(testUser)
		require.NoError(t, err)

		claims, err := m.VerifyAccess(pair.Access.Value)

		require.NoError(t, err)
		assert.Equal(t, models.TokenClaims{UserID: testUser.ID, Email: "a@b.com", Role: models.RoleUser}, claims)
	})

	t.Run("access token expires after 15 minutes", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)
		pair, err := m.Issue(testUser)
		require.NoError(t, err)

		clock.now = clock.now.Add(14*time.Minute + 59*time.Second)
		_, err = m.VerifyAccess(pair.Access.Value)
		require.NoError(t, err, "token still valid just before expiration")

		clock.now = clock.now.Add(2 * time.Second)
		_, err = m.VerifyAccess(pair.Access.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
		require.NotErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("refresh token lives 7 days", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)
		pair, err := m.Issue(testUser)
		require.NoError(t, err)

		clock.now = clock.now.Add(6 * 24 * time.Hour)
		claims, err := m.VerifyRefresh(pair.Refresh.Value)
		require.NoError(t, err)
		assert.Equal(t, testUser.ID, claims.UserID)

		clock.now = clock.now.Add(24*time.Hour + time.Second)
		_, err = m.VerifyRefresh(pair.Refresh.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("foreign secret is invalid never expired", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)
		foreign, err := New(Config{AccessSecret: "other", RefreshSecret: "other-refresh", Now: clock.Now})
		require.NoError(t, err)
		pair, err := foreign.Issue(testUser)
		require.NoError(t, err)

		_, err = m.VerifyAccess(pair.Access.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)

		// Even long after expiration
		clock.now = clock.now.Add(30 * 24 * time.Hour)
		_, err = m.VerifyAccess(pair.Access.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		require.NotErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("access and refresh tokens are not interchangeable", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m, err := New(Config{AccessSecret: "same", RefreshSecret: "same", Now: clock.Now})
		require.NoError(t, err)
		pair, err := m.Issue(testUser)
		require.NoError(t, err)

		_, err = m.VerifyAccess(pair.Refresh.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)

		_, err = m.VerifyRefresh(pair.Access.Value)
		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})

	t.Run("garbage and other algs invalid", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)

		none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: testUser.ID, Type: tokenTypeAccess})
		unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		hs512 := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour))},
			UserID:           testUser.ID,
			Type:             tokenTypeAccess,
		})
		otherAlg, err := hs512.SignedString([]byte("access-secret"))
		require.NoError(t, err)

		for _, token := range []string{"", "garbage", "a.b.c", unsigned, otherAlg} {
			_, err := m.VerifyAccess(token)

			assert.ErrorIs(t, err, apperrors.ErrTokenInvalid, token)
		}
	})

	t.Run("token without expiration invalid", func(t *testing.T) {
		clock := &fakeClock{now: mustParseTime("2025-07-01 10:00:00Z")}
		m := newManager(t, clock)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: testUser.ID, Type: tokenTypeAccess}).
			SignedString([]byte("access-secret"))
		require.NoError(t, err)

		_, err = m.VerifyAccess(token)

		require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})
}
