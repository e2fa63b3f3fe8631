package store

import (
	"context"
	"sync"

	"giftmarket/internal/domain"

	"go.uber.org/zap"
)

// CartStore holds the shopper's selected products. All operations are total:
// adding a duplicate and removing an absent item are no-ops, never errors.
// The cart persists across sessions through its CartStorage.
type CartStore struct {
	mu      sync.Mutex
	items   []domain.CartItem
	storage CartStorage
	logger  *zap.Logger
}

// NewCartStore creates a cart, loading any persisted contents. A failed load
// starts the cart empty rather than failing construction.
func NewCartStore(ctx context.Context, storage CartStorage, logger *zap.Logger) *CartStore {
	s := &CartStore{
		storage: storage,
		logger:  logger,
	}

	items, err := storage.Load(ctx)
	if err != nil {
		logger.Warn("Failed to load persisted cart, starting empty", zap.Error(err))
		return s
	}
	s.items = items
	return s
}

// Add inserts an item unless an entry with the same id already exists. The
// first-added snapshot wins; later adds of the same id are no-ops. Reports
// whether the item was inserted.
func (s *CartStore) Add(ctx context.Context, item domain.CartItem) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if existing.ProductID == item.ProductID {
			return false
		}
	}

	s.items = append(s.items, item)
	s.persist(ctx)
	return true
}

// Remove deletes the entry with the given id; no-op if absent.
func (s *CartStore) Remove(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.items {
		if existing.ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.persist(ctx)
			return
		}
	}
}

// Clear empties the cart. Called after a successful order placement.
func (s *CartStore) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

// Items returns a snapshot of the cart contents.
func (s *CartStore) Items() []domain.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// Len returns the number of distinct items in the cart.
func (s *CartStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subtotal sums the item prices. Derived on demand, never stored.
func (s *CartStore) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sum float64
	for _, item := range s.items {
		sum += item.PriceTon
	}
	return sum
}

// persist writes the cart wholesale. Storage failures are logged and
// swallowed: losing persistence must not fail a cart operation.
func (s *CartStore) persist(ctx context.Context) {
	if err := s.storage.Save(ctx, s.items); err != nil {
		s.logger.Warn("Failed to persist cart", zap.Error(err))
	}
}
