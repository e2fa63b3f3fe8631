package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"giftmarket/internal/client"
	"giftmarket/internal/domain"
	"giftmarket/internal/store"
	"giftmarket/internal/telegram"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWallet struct {
	connected bool
	address   string
}

func (w *fakeWallet) Connected() bool { return w.connected }
func (w *fakeWallet) Address() string { return w.address }

type fakeOracle struct {
	balance float64
	err     error
	calls   atomic.Int64
}

func (o *fakeOracle) Balance(ctx context.Context, address string) (float64, error) {
	o.calls.Add(1)
	return o.balance, o.err
}

type recordingHaptics struct {
	mu       sync.Mutex
	success  int
	warning  int
	errcount int
}

func (h *recordingHaptics) Success() { h.mu.Lock(); h.success++; h.mu.Unlock() }
func (h *recordingHaptics) Warning() { h.mu.Lock(); h.warning++; h.mu.Unlock() }
func (h *recordingHaptics) Error()   { h.mu.Lock(); h.errcount++; h.mu.Unlock() }

// harness wires an orchestrator over an in-memory cart and a fake gateway
// that records every order draft it receives.
type harness struct {
	orch   *Orchestrator
	cart   *store.CartStore
	oracle *fakeOracle
	wallet *fakeWallet
	server *httptest.Server

	mu     sync.Mutex
	drafts []client.OrderDraft
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		oracle: &fakeOracle{balance: 1000},
		wallet: &fakeWallet{connected: true, address: "EQWalletAddr"},
	}

	var seq atomic.Int64
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var draft client.OrderDraft
		require.NoError(t, json.NewDecoder(r.Body).Decode(&draft))
		h.mu.Lock()
		h.drafts = append(h.drafts, draft)
		h.mu.Unlock()

		order := &domain.Order{
			ID:            fmt.Sprintf("order-%d", seq.Add(1)),
			User:          draft.User,
			WalletAddress: draft.WalletAddress,
			Products:      draft.Products,
			TotalAmount:   draft.TotalAmount,
			CouponCode:    draft.CouponCode,
			Status:        draft.Status,
			CreatedAt:     time.Now().UTC(),
		}
		raw, _ := json.Marshal(order)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    json.RawMessage(raw),
			"message": "order created",
		})
	}))
	t.Cleanup(h.server.Close)

	logger := zap.NewNop()
	ctx := context.Background()
	h.cart = store.NewCartStore(ctx, store.NewMemoryCartStorage(), logger)
	orders := store.NewOrderStore(client.New(h.server.URL), logger)
	h.orch = New(h.cart, orders, h.oracle, h.wallet, logger)
	return h
}

func (h *harness) placed() []client.OrderDraft {
	h.mu.Lock()
	defer h.mu.Unlock()
	drafts := make([]client.OrderDraft, len(h.drafts))
	copy(drafts, h.drafts)
	return drafts
}

func (h *harness) fill(t *testing.T, prices ...float64) {
	t.Helper()
	ctx := context.Background()
	for i, price := range prices {
		require.True(t, h.cart.Add(ctx, domain.CartItem{
			ProductID: fmt.Sprintf("gift-%d", i),
			Name:      fmt.Sprintf("Gift %d", i),
			PriceTon:  price,
		}))
	}
}

func TestCheckout_LiveHappyPath(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 1.2, 0.8)
	h.orch.SetIdentity(&telegram.User{ID: 12345})

	var settles atomic.Int64
	h.orch.OnSettle(func(order *domain.Order) { settles.Add(1) })

	order, err := h.orch.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateSettled, h.orch.State())
	assert.InDelta(t, 2.05, order.TotalAmount, 1e-9)
	assert.Equal(t, "12345", order.User)
	assert.Equal(t, "EQWalletAddr", order.WalletAddress)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	// Cart clears exactly once the order lands, and navigation fires once.
	assert.Zero(t, h.cart.Len())
	assert.EqualValues(t, 1, settles.Load())
	require.Len(t, h.placed(), 1)
	assert.Len(t, h.placed()[0].Products, 2)
}

func TestCheckout_MissingIdentityFallsBack(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 1.0)

	order, err := h.orch.Checkout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, telegram.FallbackIdentity, order.User)
}

func TestCheckout_WalletGateReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 1.0)
	h.wallet.connected = false

	haptics := &recordingHaptics{}
	h.orch.SetHaptics(haptics)

	_, err := h.orch.Checkout(context.Background())
	require.ErrorIs(t, err, ErrWalletNotConnected)

	// A precondition, not a failure: state returns to IDLE and the cart and
	// balance oracle are untouched.
	assert.Equal(t, StateIdle, h.orch.State())
	assert.Equal(t, 1, h.cart.Len())
	assert.Zero(t, h.oracle.calls.Load())
	assert.Empty(t, h.placed())
	assert.Equal(t, 1, haptics.warning)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.Checkout(context.Background())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, h.placed())
}

// Feature: gift-storefront, Property: insufficient funds never submit an order
func TestProperty_InsufficientFundsNeverSubmit(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a short balance fails the checkout before submission", prop.ForAll(
		func(price float64, gap float64) bool {
			h := newHarness(t)
			h.fill(t, price)
			h.oracle.balance = price + domain.ProtocolFeeTon - gap

			_, err := h.orch.Checkout(context.Background())

			var insufficient *InsufficientFundsError
			if !errors.As(err, &insufficient) {
				t.Logf("FAIL: expected insufficient funds, got %v", err)
				return false
			}
			if insufficient.Shortfall() <= 0 {
				return false
			}
			// Nothing reached the gateway and the cart still holds the item.
			return h.orch.State() == StateFailed && len(h.placed()) == 0 && h.cart.Len() == 1
		},
		gen.Float64Range(0.1, 10_000),
		gen.Float64Range(0.02, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestCheckout_InsufficientFundsMessageCarriesBalance(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 5.0)
	h.oracle.balance = 3.0

	_, err := h.orch.Checkout(context.Background())
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.InDelta(t, 2.05, insufficient.Shortfall(), 1e-9)
	assert.Contains(t, err.Error(), "3.00")
}

func TestCheckout_OracleFailureIsChainSync(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 1.0)
	h.oracle.err = errors.New("toncenter timed out")

	_, err := h.orch.Checkout(context.Background())
	require.ErrorIs(t, err, ErrChainSync)
	assert.Equal(t, StateFailed, h.orch.State())
	assert.Empty(t, h.placed())
	assert.Equal(t, 1, h.cart.Len())
}

func TestCheckout_DemoModeBypassesWalletAndFunds(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 2.0)
	h.wallet.connected = false
	h.orch.SetDemoMode(true)

	order, err := h.orch.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, DemoWalletAddress, order.WalletAddress)
	assert.Equal(t, domain.OrderStatusDemo, order.Status)
	assert.Zero(t, h.oracle.calls.Load(), "demo checkout must not read the chain")
	assert.InDelta(t, 2.05, order.TotalAmount, 1e-9)
	assert.Zero(t, h.cart.Len(), "demo orders still clear the cart")
}

func TestCheckout_CouponDiscountsSubmittedTotal(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 2.0)
	require.True(t, h.orch.ApplyCoupon("GIFT10"))

	order, err := h.orch.Checkout(context.Background())
	require.NoError(t, err)
	// 2.0 + 0.05 fee - 0.2 discount
	assert.InDelta(t, 1.85, order.TotalAmount, 1e-9)
	assert.Equal(t, "gift10", order.CouponCode)

	// The lock releases with the cart.
	assert.Empty(t, h.orch.CouponCode())
}

func TestCheckout_SubmitFailureKeepsCart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "order total mismatch",
		})
	}))
	defer server.Close()

	logger := zap.NewNop()
	ctx := context.Background()
	cart := store.NewCartStore(ctx, store.NewMemoryCartStorage(), logger)
	orders := store.NewOrderStore(client.New(server.URL), logger)
	orch := New(cart, orders, &fakeOracle{balance: 100}, &fakeWallet{connected: true, address: "EQx"}, logger)

	require.True(t, cart.Add(ctx, domain.CartItem{ProductID: "p1", PriceTon: 1}))

	var settles atomic.Int64
	orch.OnSettle(func(order *domain.Order) { settles.Add(1) })

	_, err := orch.Checkout(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, client.ErrBadRequest)
	assert.Equal(t, StateFailed, orch.State())
	assert.Equal(t, 1, cart.Len(), "a failed submission leaves the cart for retry")
	assert.Zero(t, settles.Load())
}

func TestCheckout_ReentrancyGuard(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-release
		raw, _ := json.Marshal(&domain.Order{ID: "order-1"})
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "data": json.RawMessage(raw),
		})
	}))
	defer server.Close()

	logger := zap.NewNop()
	ctx := context.Background()
	cart := store.NewCartStore(ctx, store.NewMemoryCartStorage(), logger)
	orders := store.NewOrderStore(client.New(server.URL), logger)
	orch := New(cart, orders, &fakeOracle{balance: 100}, &fakeWallet{connected: true, address: "EQx"}, logger)
	cart.Add(ctx, domain.CartItem{ProductID: "p1", PriceTon: 1})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := orch.Checkout(ctx)
		assert.NoError(t, err)
	}()

	<-started
	_, err := orch.Checkout(ctx)
	assert.ErrorIs(t, err, ErrCheckoutInFlight)

	close(release)
	wg.Wait()
	assert.Equal(t, StateSettled, orch.State())
}

func TestCheckout_ResetReturnsToIdle(t *testing.T) {
	h := newHarness(t)
	h.fill(t, 1.0)
	h.wallet.connected = false
	h.orch.SetDemoMode(false)
	h.oracle.err = nil

	require.True(t, h.orch.ApplyCoupon("vip20"))
	h.wallet.connected = true
	h.oracle.balance = 0
	_, err := h.orch.Checkout(context.Background())
	require.Error(t, err)
	require.Equal(t, StateFailed, h.orch.State())

	h.orch.Reset()
	assert.Equal(t, StateIdle, h.orch.State())
	assert.Empty(t, h.orch.CouponCode())
	assert.Zero(t, h.orch.Discount())
}
