package mocks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/marketplace-api/internal/service/auth"
)

// MockJWTService implements auth.JWTService for testing.
//
// Without overrides it issues readable tokens of the form "access:<uuid>" and
// "refresh:<uuid>" and validates them by parsing the prefix, so handler tests
// can authenticate as any user with AccessToken(id).
type MockJWTService struct {
	// GenerateTokenFn allows test cases to mock the GenerateToken behavior
	GenerateTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// ValidateRefreshTokenFn allows test cases to mock the ValidateRefreshToken behavior
	ValidateRefreshTokenFn func(ctx context.Context, tokenString string) (*auth.Claims, error)

	// Err is returned by every token generation method when set.
	Err error

	// Lifetime of issued access tokens. Defaults to one hour.
	Lifetime time.Duration
}

var _ auth.JWTService = (*MockJWTService)(nil)

// AccessToken returns the token MockJWTService accepts as userID's access token.
func AccessToken(userID uuid.UUID) string {
	return auth.TokenTypeAccess + ":" + userID.String()
}

// RefreshToken returns the token MockJWTService accepts as userID's refresh token.
func RefreshToken(userID uuid.UUID) string {
	return auth.TokenTypeRefresh + ":" + userID.String()
}

func parseMockToken(tokenString, tokenType string, invalid error) (*auth.Claims, error) {
	kind, raw, ok := strings.Cut(tokenString, ":")
	if !ok {
		return nil, invalid
	}
	if kind != tokenType {
		return nil, auth.ErrWrongTokenType
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalid
	}
	now := time.Now()
	return &auth.Claims{
		UserID:    id,
		TokenType: tokenType,
		Subject:   id.String(),
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	}, nil
}

// GenerateToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, userID)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return AccessToken(userID), nil
}

// ValidateToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, tokenString)
	}
	return parseMockToken(tokenString, auth.TokenTypeAccess, auth.ErrInvalidToken)
}

// GenerateRefreshToken implements the auth.JWTService interface
func (m *MockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return RefreshToken(userID), nil
}

// ValidateRefreshToken implements the auth.JWTService interface
func (m *MockJWTService) ValidateRefreshToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	if m.ValidateRefreshTokenFn != nil {
		return m.ValidateRefreshTokenFn(ctx, tokenString)
	}
	return parseMockToken(tokenString, auth.TokenTypeRefresh, auth.ErrInvalidRefreshToken)
}

// IssueTokenPair implements the auth.JWTService interface
func (m *MockJWTService) IssueTokenPair(ctx context.Context, userID uuid.UUID) (*auth.TokenPair, error) {
	access, err := m.GenerateToken(ctx, userID)
	if err != nil {
		return nil, err
	}
	refresh, err := m.GenerateRefreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	lifetime := m.Lifetime
	if lifetime == 0 {
		lifetime = time.Hour
	}
	return &auth.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(lifetime),
	}, nil
}
