package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"giftmarket/internal/domain"
	"giftmarket/internal/repository"
)

var (
	ErrEmptyOrder        = errors.New("order has no line items")
	ErrUnknownProduct    = errors.New("order references an unknown product")
	ErrPriceMismatch     = errors.New("line item price does not match the catalog")
	ErrTotalMismatch     = errors.New("submitted total does not match the recomputed total")
	ErrInvalidStatus     = errors.New("new orders must be PENDING or DEMO")
	ErrUserBanned        = errors.New("user is banned")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// OrderService defines the interface for order business logic
type OrderService interface {
	Place(ctx context.Context, order *domain.Order) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, user string) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, transactionHash string) (*domain.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	userRepo    repository.UserRepository
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	userRepo repository.UserRepository,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
	}
}

// Place verifies and persists a new order. The client-submitted total is never
// trusted: line item prices are checked against the current catalog and the
// total is recomputed from the shared pricing rules before anything is written.
func (s *orderService) Place(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if len(order.Products) == 0 {
		return nil, ErrEmptyOrder
	}
	if order.Status != domain.OrderStatusPending && order.Status != domain.OrderStatusDemo {
		return nil, ErrInvalidStatus
	}

	if err := s.checkUserNotBanned(ctx, order.User); err != nil {
		return nil, err
	}

	var subtotal float64
	for _, item := range order.Products {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, item.ProductID)
			}
			return nil, fmt.Errorf("failed to verify line item: %w", err)
		}
		if math.Abs(product.PriceTon-item.PriceTon) > 1e-9 {
			return nil, fmt.Errorf("%w: %s", ErrPriceMismatch, item.ProductID)
		}
		subtotal += product.PriceTon
	}

	expected := domain.OrderTotal(subtotal, order.CouponCode)
	if math.Abs(order.TotalAmount-expected) > 0.005 {
		return nil, fmt.Errorf("%w: submitted %.2f, expected %.2f", ErrTotalMismatch, order.TotalAmount, expected)
	}
	order.TotalAmount = expected

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// List retrieves all orders newest-first
func (s *orderService) List(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.List(ctx)
}

// ListByUser retrieves a user's recent orders, capped at RecentOrdersLimit
func (s *orderService) ListByUser(ctx context.Context, user string) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, user, RecentOrdersLimit)
}

// UpdateStatus transitions an order's settlement state. Only
// PENDING→COMPLETED, PENDING→CANCELLED and DEMO→DEMO_COMPLETED are legal.
func (s *orderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, transactionHash string) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
	}

	return s.orderRepo.UpdateStatus(ctx, id, status, transactionHash)
}

// checkUserNotBanned blocks placement for banned users. Identities that do not
// resolve to a registered user (the anonymous "USER" sentinel included) pass
// through: banning only has teeth for registered shoppers.
func (s *orderService) checkUserNotBanned(ctx context.Context, identity string) error {
	telegramID, err := strconv.ParseInt(identity, 10, 64)
	if err != nil {
		return nil
	}

	user, err := s.userRepo.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("failed to check user: %w", err)
	}

	if user.IsBanned {
		return ErrUserBanned
	}
	return nil
}
