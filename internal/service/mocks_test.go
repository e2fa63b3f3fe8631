package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"giftmarket/internal/domain"
	"giftmarket/internal/repository"
)

// Mock repositories for testing

type mockProductRepository struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[string]*domain.Product)}
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[product.ProductID]; exists {
		return repository.ErrProductAlreadyExists
	}
	copied := *product
	m.products[product.ProductID] = &copied
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, productID string, update *domain.ProductUpdate) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[productID]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	if update.Name != nil {
		product.Name = *update.Name
	}
	if update.PriceTon != nil {
		product.PriceTon = *update.PriceTon
	}
	if update.Status != nil {
		product.Status = *update.Status
	}
	if update.Category != nil {
		product.Category = *update.Category
	}
	product.UpdatedAt = time.Now()
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.products[productID]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.products, productID)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[productID]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) List(ctx context.Context, category string) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var products []*domain.Product
	for _, p := range m.products {
		if category != "" && p.Category != category {
			continue
		}
		copied := *p
		products = append(products, &copied)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (m *mockProductRepository) IncrementViews(ctx context.Context, productID string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, exists := m.products[productID]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	product.Views++
	copied := *product
	return &copied, nil
}

type mockUserRepository struct {
	mu    sync.Mutex
	users map[int64]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[int64]*domain.User)}
}

func (m *mockUserRepository) Upsert(ctx context.Context, user *domain.User) (*domain.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[user.TelegramID]; ok {
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.Username = user.Username
		existing.PhotoURL = user.PhotoURL
		existing.LanguageCode = user.LanguageCode
		existing.UpdatedAt = time.Now()
		copied := *existing
		return &copied, false, nil
	}
	created := *user
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	m.users[user.TelegramID] = &created
	copied := created
	return &copied, true, nil
}

func (m *mockUserRepository) Update(ctx context.Context, telegramID int64, update *domain.UserUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[telegramID]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	if update.FirstName != nil {
		user.FirstName = *update.FirstName
	}
	if update.IsBanned != nil {
		user.IsBanned = *update.IsBanned
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[telegramID]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *mockUserRepository) List(ctx context.Context) ([]*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copied := *u
		users = append(users, &copied)
	}
	return users, nil
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.users)), nil
}

type mockOrderRepository struct {
	mu     sync.Mutex
	orders []*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{}
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.ID == "" {
		order.ID = "mock-order"
	}
	order.CreatedAt = time.Now()
	copied := *order
	m.orders = append([]*domain.Order{&copied}, m.orders...)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			copied := *o
			return &copied, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) List(ctx context.Context) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	orders := make([]*domain.Order, len(m.orders))
	copy(orders, m.orders)
	return orders, nil
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, user string, limit int64) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var orders []*domain.Order
	for _, o := range m.orders {
		if o.User == user {
			copied := *o
			orders = append(orders, &copied)
		}
		if int64(len(orders)) == limit {
			break
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, transactionHash string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			o.Status = status
			if transactionHash != "" {
				o.TransactionHash = transactionHash
			}
			copied := *o
			return &copied, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) TotalRevenue(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, o := range m.orders {
		if o.Status == domain.OrderStatusCompleted {
			total += o.TotalAmount
		}
	}
	return total, nil
}

func (m *mockOrderRepository) CountByStatus(ctx context.Context, status domain.OrderStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, o := range m.orders {
		if o.Status == status {
			count++
		}
	}
	return count, nil
}
