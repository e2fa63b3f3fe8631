package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"giftmarket/internal/domain"
	"giftmarket/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidPrice = errors.New("price must be greater than zero")
)

// CatalogService defines the interface for product business logic
type CatalogService interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, productID string, update *domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, productID string) error
	Get(ctx context.Context, productID string) (*domain.Product, error)
	List(ctx context.Context, category string) ([]*domain.Product, error)
	RecordView(ctx context.Context, productID string) (*domain.Product, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// Create fills listing defaults and persists a new product. The id is
// assigned here when the caller does not supply one.
func (s *catalogService) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if product.PriceTon <= 0 {
		return nil, ErrInvalidPrice
	}

	now := time.Now()
	if product.ProductID == "" {
		product.ProductID = uuid.New().String()
	}
	if product.Status == "" {
		product.Status = domain.ProductStatusListed
	}
	if product.MintDate == "" {
		product.MintDate = now.Format("2006-01-02")
	}
	product.Views = 0
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Update applies a partial update to an existing listing
func (s *catalogService) Update(ctx context.Context, productID string, update *domain.ProductUpdate) (*domain.Product, error) {
	if update.PriceTon != nil && *update.PriceTon <= 0 {
		return nil, ErrInvalidPrice
	}
	return s.productRepo.Update(ctx, productID, update)
}

// Delete removes a listing
func (s *catalogService) Delete(ctx context.Context, productID string) error {
	return s.productRepo.Delete(ctx, productID)
}

// Get retrieves a single listing
func (s *catalogService) Get(ctx context.Context, productID string) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, productID)
}

// List retrieves listings newest-first, optionally filtered by category
func (s *catalogService) List(ctx context.Context, category string) ([]*domain.Product, error) {
	return s.productRepo.List(ctx, category)
}

// RecordView bumps the view counter for a listing
func (s *catalogService) RecordView(ctx context.Context, productID string) (*domain.Product, error) {
	return s.productRepo.IncrementViews(ctx, productID)
}
