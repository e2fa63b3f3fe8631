package store

import (
	"context"
	"fmt"
	"math"
	"testing"

	"giftmarket/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCart(t *testing.T) *CartStore {
	t.Helper()
	logger := zap.NewNop()
	return NewCartStore(context.Background(), NewMemoryCartStorage(), logger)
}

// Feature: gift-storefront, Property: cart membership is deduplicated by product id
func TestProperty_CartDeduplicatesByProductID(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("re-adding a held product never changes the cart", prop.ForAll(
		func(ids []string, repeats int) bool {
			cart := newTestCart(t)
			ctx := context.Background()

			unique := make(map[string]bool)
			for _, id := range ids {
				if id == "" {
					continue
				}
				added := cart.Add(ctx, domain.CartItem{ProductID: id, PriceTon: 1})
				if unique[id] && added {
					t.Logf("FAIL: duplicate id %q reported as inserted", id)
					return false
				}
				unique[id] = true
			}

			before := cart.Len()
			// Hammer the same ids again; nothing may change.
			for r := 0; r < repeats%5+1; r++ {
				for id := range unique {
					if cart.Add(ctx, domain.CartItem{ProductID: id, PriceTon: 99}) {
						return false
					}
				}
			}
			return cart.Len() == before && cart.Len() == len(unique)
		},
		gen.SliceOf(gen.RegexMatch(`[a-z0-9]{1,8}`)),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// Feature: gift-storefront, Property: subtotal equals the sum of distinct item prices
func TestProperty_CartSubtotalSumsDistinctPrices(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("subtotal is derived from current contents", prop.ForAll(
		func(prices []float64) bool {
			cart := newTestCart(t)
			ctx := context.Background()

			var want float64
			for i, price := range prices {
				cart.Add(ctx, domain.CartItem{
					ProductID: fmt.Sprintf("gift-%d", i),
					PriceTon:  price,
				})
				want += price
			}
			if math.Abs(cart.Subtotal()-want) > 1e-6 {
				return false
			}

			// Removing an item drops exactly its price.
			if len(prices) > 0 {
				cart.Remove(ctx, "gift-0")
				want -= prices[0]
			}
			return math.Abs(cart.Subtotal()-want) < 1e-6
		},
		gen.SliceOf(gen.Float64Range(0, 1000)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCartStore_FirstSnapshotWins(t *testing.T) {
	cart := newTestCart(t)
	ctx := context.Background()

	require.True(t, cart.Add(ctx, domain.CartItem{ProductID: "p1", Name: "Cap", PriceTon: 1.5}))
	require.False(t, cart.Add(ctx, domain.CartItem{ProductID: "p1", Name: "Cap v2", PriceTon: 9.9}))

	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Cap", items[0].Name)
	assert.Equal(t, 1.5, items[0].PriceTon)
}

func TestCartStore_RemoveAbsentIsNoop(t *testing.T) {
	cart := newTestCart(t)
	ctx := context.Background()

	cart.Add(ctx, domain.CartItem{ProductID: "p1", PriceTon: 1})
	cart.Remove(ctx, "missing")
	assert.Equal(t, 1, cart.Len())
}

func TestCartStore_ClearEmptiesAndPersists(t *testing.T) {
	storage := NewMemoryCartStorage()
	logger := zap.NewNop()
	ctx := context.Background()

	cart := NewCartStore(ctx, storage, logger)
	cart.Add(ctx, domain.CartItem{ProductID: "p1", PriceTon: 1})
	cart.Add(ctx, domain.CartItem{ProductID: "p2", PriceTon: 2})
	cart.Clear(ctx)

	assert.Zero(t, cart.Len())
	persisted, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}

func TestRedisCartStorage_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	storage := NewRedisCartStorage(client)
	ctx := context.Background()

	// Empty key reads as an empty cart, not an error.
	items, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	want := []domain.CartItem{
		{ProductID: "p1", Name: "Plush Pepe", PriceTon: 2.5, Category: "plush"},
		{ProductID: "p2", Name: "Signet Ring", PriceTon: 0.8, Category: "jewelry"},
	}
	require.NoError(t, storage.Save(ctx, want))

	got, err := storage.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNewCartStore_LoadsPersistedCart(t *testing.T) {
	storage := NewMemoryCartStorage()
	ctx := context.Background()
	require.NoError(t, storage.Save(ctx, []domain.CartItem{{ProductID: "p1", PriceTon: 3}}))

	cart := NewCartStore(ctx, storage, zap.NewNop())
	assert.Equal(t, 1, cart.Len())
	assert.InDelta(t, 3.0, cart.Subtotal(), 1e-9)
}

type failingStorage struct{}

func (failingStorage) Load(ctx context.Context) ([]domain.CartItem, error) {
	return nil, fmt.Errorf("storage offline")
}

func (failingStorage) Save(ctx context.Context, items []domain.CartItem) error {
	return fmt.Errorf("storage offline")
}

func TestCartStore_StorageFailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	cart := NewCartStore(ctx, failingStorage{}, zap.NewNop())

	// Construction survives a failed load and operations survive failed saves.
	assert.Zero(t, cart.Len())
	assert.True(t, cart.Add(ctx, domain.CartItem{ProductID: "p1", PriceTon: 1}))
	assert.Equal(t, 1, cart.Len())
}
