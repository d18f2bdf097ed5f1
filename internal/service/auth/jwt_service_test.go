package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret      = "test-secret-that-is-long-enough-for-testing"
	testWrongSecret = "wrong-secret-that-is-long-enough-for-testing"
	accessLifetime  = 60 * time.Minute
	refreshLifetime = 24 * time.Hour
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestJWTService(t *testing.T, secret string, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(secret, accessLifetime, refreshLifetime, func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{
		JWTSecret:            "short",
		AccessTokenLifetime:  time.Hour,
		RefreshTokenLifetime: 2 * time.Hour,
	})
	assert.Error(t, err)

	svc, err := NewJWTService(config.AuthConfig{
		JWTSecret:            testSecret,
		AccessTokenLifetime:  time.Hour,
		RefreshTokenLifetime: 2 * time.Hour,
	})
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestJWTService(t, testSecret, fixedTime)

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(accessLifetime).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	issuer := newTestJWTService(t, testSecret, fixedTime)
	access, err := issuer.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	refresh, err := issuer.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *hmacJWTService
		token   string
		wantErr error
	}{
		{"valid token", issuer, access, nil},
		{"expired token", newTestJWTService(t, testSecret, fixedTime.Add(accessLifetime+time.Hour)), access, ErrExpiredToken},
		{"within clock skew", newTestJWTService(t, testSecret, fixedTime.Add(accessLifetime+time.Minute)), access, nil},
		{"invalid signature", newTestJWTService(t, testWrongSecret, fixedTime), access, ErrInvalidToken},
		{"malformed token", issuer, "this.is.not.a.valid.jwt.token", ErrInvalidToken},
		{"refresh token used as access", issuer, refresh, ErrWrongTokenType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := tt.svc.ValidateToken(context.Background(), tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	issuer := newTestJWTService(t, testSecret, fixedTime)
	access, err := issuer.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	refresh, err := issuer.GenerateRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     *hmacJWTService
		token   string
		wantErr error
	}{
		{"valid refresh token", issuer, refresh, nil},
		{"expired refresh token", newTestJWTService(t, testSecret, fixedTime.Add(refreshLifetime+time.Hour)), refresh, ErrExpiredRefreshToken},
		{"invalid signature", newTestJWTService(t, testWrongSecret, fixedTime), refresh, ErrInvalidRefreshToken},
		{"access token used as refresh", issuer, access, ErrWrongTokenType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := tt.svc.ValidateRefreshToken(context.Background(), tt.token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, TokenTypeRefresh, claims.TokenType)
		})
	}
}

func TestIssueTokenPair(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestJWTService(t, testSecret, fixedTime)

	pair, err := svc.IssueTokenPair(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, fixedTime.Add(accessLifetime), pair.ExpiresAt)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	_, err = svc.ValidateToken(context.Background(), pair.AccessToken)
	assert.NoError(t, err)
	_, err = svc.ValidateRefreshToken(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)
}
