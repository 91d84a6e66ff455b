package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager(testSecret, 30*time.Minute)

	token, expiresAt, err := m.GenerateAccessToken("admin@velorent.test", []string{RoleAdmin})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin@velorent.test", claims.Email)
	assert.Equal(t, TokenTypeAccess, claims.Type)
	assert.True(t, claims.HasRole(RoleAdmin))
	assert.False(t, claims.HasRole("customer"))
}

func TestTokenManager_WrongSecret(t *testing.T) {
	token, _, err := NewTokenManager(testSecret, time.Hour).GenerateAccessToken("a@b.c", nil)
	require.NoError(t, err)

	_, err = NewTokenManager("another-secret-another-secret-xx", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute).(*tokenManager)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }
	token, _, err := m.GenerateAccessToken("a@b.c", nil)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	claims := AdminClaims{
		Email: "a@b.c",
		Type:  TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongType(t *testing.T) {
	claims := AdminClaims{
		Email: "a@b.c",
		Type:  "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret, time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestBearerToken(t *testing.T) {
	tok, ok := BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", tok)

	_, ok = BearerToken("Basic xyz")
	assert.False(t, ok)
	_, ok = BearerToken("Bearer ")
	assert.False(t, ok)
	_, ok = BearerToken("")
	assert.False(t, ok)
}

func TestNewTokenManager_DefaultTTL(t *testing.T) {
	m := NewTokenManager(testSecret, 0).(*tokenManager)
	assert.Equal(t, time.Hour, m.ttl)
	assert.Equal(t, 15*time.Minute, TTLFromMinutes(15))
}
