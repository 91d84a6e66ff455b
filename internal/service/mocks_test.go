package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"velorent-backend/internal/security"
)

// MockEmailSender
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Name() string { return "mock" }

func (m *MockEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockTokenManager
type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) GenerateAccessToken(email string, roles []string) (string, time.Time, error) {
	args := m.Called(email, roles)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockTokenManager) ValidateToken(tokenString string) (*security.AdminClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*security.AdminClaims), args.Error(1)
}
