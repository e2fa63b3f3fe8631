package service

import (
	"context"
	"fmt"

	"giftmarket/internal/domain"
	"giftmarket/internal/repository"
)

// RecentOrdersLimit caps the order history returned with a user profile.
const RecentOrdersLimit = 5

// UserProfile bundles a user with their most recent orders.
type UserProfile struct {
	Profile      *domain.User    `json:"profile"`
	RecentOrders []*domain.Order `json:"recentOrders"`
}

// UserService defines the interface for user business logic
type UserService interface {
	Register(ctx context.Context, user *domain.User) (*domain.User, bool, error)
	Update(ctx context.Context, telegramID int64, update *domain.UserUpdate) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	GetWithRecentOrders(ctx context.Context, telegramID int64) (*UserProfile, error)
}

type userService struct {
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
}

// NewUserService creates a new instance of UserService
func NewUserService(userRepo repository.UserRepository, orderRepo repository.OrderRepository) UserService {
	return &userService{
		userRepo:  userRepo,
		orderRepo: orderRepo,
	}
}

// Register upserts a user from a Telegram identity payload. Keyed on
// telegramId, so repeated registrations refresh the profile instead of
// creating duplicates. Returns whether the user was newly created.
func (s *userService) Register(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	persisted, created, err := s.userRepo.Upsert(ctx, user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to register user: %w", err)
	}
	return persisted, created, nil
}

// Update applies a partial update (profile fields or the moderation flag)
func (s *userService) Update(ctx context.Context, telegramID int64, update *domain.UserUpdate) (*domain.User, error) {
	return s.userRepo.Update(ctx, telegramID, update)
}

// List retrieves all users
func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// GetWithRecentOrders returns a user profile plus their last orders,
// capped at RecentOrdersLimit
func (s *userService) GetWithRecentOrders(ctx context.Context, telegramID int64) (*UserProfile, error) {
	user, err := s.userRepo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	orders, err := s.orderRepo.ListByUser(ctx, fmt.Sprintf("%d", telegramID), RecentOrdersLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent orders: %w", err)
	}

	return &UserProfile{
		Profile:      user,
		RecentOrders: orders,
	}, nil
}
