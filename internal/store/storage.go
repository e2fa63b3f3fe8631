package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"giftmarket/internal/domain"

	"github.com/redis/go-redis/v9"
)

// CartKey is the fixed storage key the persisted cart lives under.
const CartKey = "giftmarket:cart"

// CartStorage persists the cart across sessions. The cart is read and written
// wholesale; it is single-user state, so no finer granularity is needed.
type CartStorage interface {
	Load(ctx context.Context) ([]domain.CartItem, error)
	Save(ctx context.Context, items []domain.CartItem) error
}

// RedisCartStorage keeps the serialized cart in Redis under CartKey.
type RedisCartStorage struct {
	client *redis.Client
}

// NewRedisCartStorage creates a Redis-backed cart storage
func NewRedisCartStorage(client *redis.Client) *RedisCartStorage {
	return &RedisCartStorage{client: client}
}

func (s *RedisCartStorage) Load(ctx context.Context) ([]domain.CartItem, error) {
	data, err := s.client.Get(ctx, CartKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return items, nil
}

func (s *RedisCartStorage) Save(ctx context.Context, items []domain.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, CartKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// MemoryCartStorage is an in-memory CartStorage for tests and ephemeral runs.
type MemoryCartStorage struct {
	mu    sync.Mutex
	items []domain.CartItem
}

// NewMemoryCartStorage creates an empty in-memory cart storage
func NewMemoryCartStorage() *MemoryCartStorage {
	return &MemoryCartStorage{}
}

func (s *MemoryCartStorage) Load(ctx context.Context) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CartItem, len(s.items))
	copy(items, s.items)
	return items, nil
}

func (s *MemoryCartStorage) Save(ctx context.Context, items []domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]domain.CartItem, len(items))
	copy(s.items, items)
	return nil
}
