package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftmarket/internal/domain"
	"giftmarket/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPasskey = errors.New("invalid passkey")
)

// AdminService defines the interface for back-office logic
type AdminService interface {
	Login(ctx context.Context, passkey string) (string, error)
	Metrics(ctx context.Context) (*repository.AdminMetrics, error)
}

type adminService struct {
	orderRepo     repository.OrderRepository
	userRepo      repository.UserRepository
	passkeyHash   string
	sessionSecret string
	sessionExpiry time.Duration
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	passkeyHash string,
	sessionSecret string,
	sessionExpiryHours int,
) AdminService {
	return &adminService{
		orderRepo:     orderRepo,
		userRepo:      userRepo,
		passkeyHash:   passkeyHash,
		sessionSecret: sessionSecret,
		sessionExpiry: time.Duration(sessionExpiryHours) * time.Hour,
	}
}

// Login verifies the passkey against its bcrypt hash and issues a signed
// session token. The plaintext passkey is compared server-side only.
func (s *adminService) Login(ctx context.Context, passkey string) (string, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.passkeyHash), []byte(passkey)); err != nil {
		return "", ErrInvalidPasskey
	}

	claims := jwt.MapClaims{
		"role": "admin",
		"exp":  jwt.NewNumericDate(time.Now().Add(s.sessionExpiry)),
		"iat":  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.sessionSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Metrics assembles the back-office dashboard snapshot
func (s *adminService) Metrics(ctx context.Context) (*repository.AdminMetrics, error) {
	revenue, err := s.orderRepo.TotalRevenue(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := s.orderRepo.CountByStatus(ctx, domain.OrderStatusPending)
	if err != nil {
		return nil, err
	}

	return &repository.AdminMetrics{
		TotalRevenue:  domain.Round2(revenue),
		TotalUsers:    users,
		PendingOrders: pending,
	}, nil
}
