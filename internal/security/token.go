package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

const (
	issuer         = "velorent-backend"
	accessAudience = "admin-api"
	RoleAdmin      = "admin"
)

// AdminClaims are carried by every access token issued to the back-office user.
type AdminClaims struct {
	Email string    `json:"email"`
	Type  TokenType `json:"type"`
	Roles []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

func (c *AdminClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type TokenManager interface {
	GenerateAccessToken(email string, roles []string) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*AdminClaims, error)
}

type tokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager signs HS256 access tokens that live for ttl. A zero ttl means one hour.
func NewTokenManager(secret string, ttl time.Duration) TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &tokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *tokenManager) GenerateAccessToken(email string, roles []string) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := AdminClaims{
		Email: email,
		Type:  TokenTypeAccess,
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (m *tokenManager) ValidateToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(accessAudience), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.Email == "" {
		claims.Email = claims.Subject
	}
	return claims, nil
}

// BearerToken strips the "Bearer " prefix from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}

// TTLFromMinutes converts a configured minute count into a token lifetime.
func TTLFromMinutes(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}
