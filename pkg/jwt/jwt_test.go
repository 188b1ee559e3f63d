package jwt

import (
	"errors"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/timetable/config"
)

func newTestManager(issuer string) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret: "test-secret-key-for-unit-testing-2026",
		Issuer:    issuer,
	})
}

func TestIssueAndParseToken(t *testing.T) {
	m := newTestManager("school-idp")

	token, err := m.IssueToken("user-1", "admin", 15*time.Minute)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "school-idp", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestParseToken_Expired(t *testing.T) {
	m := newTestManager("")

	token, err := m.IssueToken("user-1", "teacher", -time.Minute)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.True(t, errors.Is(err, ErrTokenExpired), "期望 ErrTokenExpired，实际: %v", err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := newTestManager("").IssueToken("user-1", "admin", time.Minute)
	require.NoError(t, err)

	other := NewManager(&config.AuthConfig{JWTSecret: "another-secret-key-0000000000"})
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseToken_WrongIssuer(t *testing.T) {
	token, err := newTestManager("someone-else").IssueToken("user-1", "admin", time.Minute)
	require.NoError(t, err)

	_, err = newTestManager("school-idp").ParseToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseToken_SubjectFallback(t *testing.T) {
	secret := []byte("test-secret-key-for-unit-testing-2026")
	raw := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub":  "idp-user-9",
		"role": "admin",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	token, err := raw.SignedString(secret)
	require.NoError(t, err)

	claims, err := newTestManager("").ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "idp-user-9", claims.UserID)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := newTestManager("").ParseToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
