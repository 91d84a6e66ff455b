package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"velorent-backend/internal/logger"
	"velorent-backend/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// AdminAccount is the single back-office login. PasswordHash is a bcrypt hash.
type AdminAccount struct {
	Email        string
	PasswordHash string
}

type authService struct {
	admin  AdminAccount
	tokens security.TokenManager
}

func NewAuthService(admin AdminAccount, tokens security.TokenManager) AuthService {
	return &authService{admin: admin, tokens: tokens}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	logger.EnterMethod("authService.Login", "email", email)

	if s.admin.PasswordHash == "" || !strings.EqualFold(strings.TrimSpace(email), s.admin.Email) {
		logger.ExitMethodWithError("authService.Login", ErrInvalidCredentials, "reason", "unknown account")
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(password)); err != nil {
		logger.ExitMethodWithError("authService.Login", ErrInvalidCredentials, "reason", "password mismatch")
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.GenerateAccessToken(s.admin.Email, []string{security.RoleAdmin})
	if err != nil {
		logger.ExitMethodWithError("authService.Login", err)
		return "", time.Time{}, err
	}

	logger.ExitMethod("authService.Login", "expires_at", expiresAt)
	return token, expiresAt, nil
}
