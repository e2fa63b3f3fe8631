package store

import (
	"context"
	"errors"
	"sync"

	"giftmarket/internal/client"
	"giftmarket/internal/domain"

	"go.uber.org/zap"
)

// ErrPlacementInFlight is returned when PlaceOrder is called while a previous
// placement has not finished. Without a server-side idempotency key, firing
// the same order twice would create a duplicate.
var ErrPlacementInFlight = errors.New("an order placement is already in flight")

// RecentOrdersCap mirrors the gateway's page-size cap on user order history.
const RecentOrdersCap = 5

// OrderStore is the client-side order cache: the admin's full listing plus
// the shopper's recent history.
type OrderStore struct {
	mu      sync.Mutex
	gateway *client.Client
	logger  *zap.Logger

	orders     []*domain.Order
	userOrders []*domain.Order
	placing    bool
}

// NewOrderStore creates an order store over a gateway client
func NewOrderStore(gateway *client.Client, logger *zap.Logger) *OrderStore {
	return &OrderStore{
		gateway: gateway,
		logger:  logger,
	}
}

// FetchAll replaces the admin order cache, newest first.
func (s *OrderStore) FetchAll(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.gateway.Orders(ctx)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()
	return orders, nil
}

// FetchUserOrders replaces the shopper's history with their most recent
// orders. The gateway caps the page at RecentOrdersCap; the cap is enforced
// here too so a misbehaving gateway cannot grow the cache.
func (s *OrderStore) FetchUserOrders(ctx context.Context, telegramID int64) ([]*domain.Order, error) {
	profile, err := s.gateway.UserOrders(ctx, telegramID)
	if err != nil {
		s.logger.Error("Failed to fetch user orders", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, err
	}

	orders := profile.RecentOrders
	if len(orders) > RecentOrdersCap {
		orders = orders[:RecentOrdersCap]
	}

	s.mu.Lock()
	s.userOrders = orders
	s.mu.Unlock()
	return orders, nil
}

// PlaceOrder submits a new order and prepends it to the shopper's history on
// success. A second call while one is pending is rejected, never queued or
// fired concurrently. No automatic retry; retrying is the caller's decision.
func (s *OrderStore) PlaceOrder(ctx context.Context, draft *client.OrderDraft) (*domain.Order, error) {
	s.mu.Lock()
	if s.placing {
		s.mu.Unlock()
		return nil, ErrPlacementInFlight
	}
	s.placing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.placing = false
		s.mu.Unlock()
	}()

	order, err := s.gateway.PlaceOrder(ctx, draft)
	if err != nil {
		s.logger.Error("Failed to place order", zap.String("user", draft.User), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.userOrders = append([]*domain.Order{order}, s.userOrders...)
	if len(s.userOrders) > RecentOrdersCap {
		s.userOrders = s.userOrders[:RecentOrdersCap]
	}
	s.mu.Unlock()

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.TotalAmount),
	)
	return order, nil
}

// UpdateStatus transitions an order's settlement state and refreshes the
// cached copies.
func (s *OrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, transactionHash string) (*domain.Order, error) {
	order, err := s.gateway.UpdateOrderStatus(ctx, id, status, transactionHash)
	if err != nil {
		s.logger.Error("Failed to update order status", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	for i, cached := range s.orders {
		if cached.ID == order.ID {
			s.orders[i] = order
		}
	}
	for i, cached := range s.userOrders {
		if cached.ID == order.ID {
			s.userOrders[i] = order
		}
	}
	s.mu.Unlock()
	return order, nil
}

// Orders returns the cached admin listing.
func (s *OrderStore) Orders() []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]*domain.Order, len(s.orders))
	copy(orders, s.orders)
	return orders
}

// UserOrders returns the cached shopper history.
func (s *OrderStore) UserOrders() []*domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := make([]*domain.Order, len(s.userOrders))
	copy(orders, s.userOrders)
	return orders
}
