package store

import (
	"context"
	"sync"

	"giftmarket/internal/client"
	"giftmarket/internal/domain"

	"go.uber.org/zap"
)

// CatalogStore is the client-side product cache. Every action returns its
// error to the caller; nothing is swallowed into a shared error slot.
type CatalogStore struct {
	mu      sync.Mutex
	gateway *client.Client
	logger  *zap.Logger

	products []*domain.Product
	current  *domain.Product
	loading  bool
}

// NewCatalogStore creates a catalog store over a gateway client
func NewCatalogStore(gateway *client.Client, logger *zap.Logger) *CatalogStore {
	return &CatalogStore{
		gateway: gateway,
		logger:  logger,
	}
}

// Fetch replaces the cached catalog with the gateway's current listing,
// newest first.
func (s *CatalogStore) Fetch(ctx context.Context) ([]*domain.Product, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	products, err := s.gateway.Products(ctx, "")
	if err != nil {
		s.logger.Error("Failed to fetch products", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
	return products, nil
}

// FetchByID loads a single product into the current slot, used by detail and
// edit views.
func (s *CatalogStore) FetchByID(ctx context.Context, id string) (*domain.Product, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	product, err := s.gateway.Product(ctx, id)
	if err != nil {
		s.logger.Error("Failed to fetch product", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.current = product
	s.mu.Unlock()
	return product, nil
}

// Create submits a new listing, then resynchronizes with a full refetch.
// No optimistic insert; a brief staleness window is accepted.
func (s *CatalogStore) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	created, err := s.gateway.CreateProduct(ctx, product)
	if err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, err
	}

	if _, err := s.refetch(ctx); err != nil {
		s.logger.Warn("Resync after create failed", zap.Error(err))
	}
	return created, nil
}

// Update submits a partial update, then resynchronizes with a full refetch.
func (s *CatalogStore) Update(ctx context.Context, id string, update *domain.ProductUpdate) (*domain.Product, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	updated, err := s.gateway.UpdateProduct(ctx, id, update)
	if err != nil {
		s.logger.Error("Failed to update product", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}

	if _, err := s.refetch(ctx); err != nil {
		s.logger.Warn("Resync after update failed", zap.Error(err))
	}
	return updated, nil
}

// Delete removes a listing, then drops it from the local cache directly
// without another round trip.
func (s *CatalogStore) Delete(ctx context.Context, id string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	if err := s.gateway.DeleteProduct(ctx, id); err != nil {
		s.logger.Error("Failed to delete product", zap.String("product_id", id), zap.Error(err))
		return err
	}

	s.mu.Lock()
	for i, p := range s.products {
		if p.ProductID == id {
			s.products = append(s.products[:i], s.products[i+1:]...)
			break
		}
	}
	if s.current != nil && s.current.ProductID == id {
		s.current = nil
	}
	s.mu.Unlock()
	return nil
}

// ClearCurrent resets the single-item slot, used on navigating away from a
// detail view.
func (s *CatalogStore) ClearCurrent() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Products returns the cached catalog snapshot.
func (s *CatalogStore) Products() []*domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := make([]*domain.Product, len(s.products))
	copy(products, s.products)
	return products
}

// Current returns the product in the detail slot, or nil when unset.
func (s *CatalogStore) Current() *domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Loading reports whether a catalog action is in flight.
func (s *CatalogStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *CatalogStore) refetch(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.gateway.Products(ctx, "")
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.products = products
	s.mu.Unlock()
	return products, nil
}

func (s *CatalogStore) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
