package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"giftmarket/internal/client"
	"giftmarket/internal/domain"
	"giftmarket/internal/store"
	"giftmarket/internal/telegram"
	"giftmarket/internal/ton"

	"go.uber.org/zap"
)

// State is the phase of a checkout attempt.
type State string

const (
	StateIdle             State = "IDLE"
	StateValidatingWallet State = "VALIDATING_WALLET"
	StateVerifyingFunds   State = "VERIFYING_FUNDS"
	StateSubmitting       State = "SUBMITTING"
	StateSettled          State = "SETTLED"
	StateFailed           State = "FAILED"
)

// DemoWalletAddress is the sentinel wallet written on simulated checkouts.
const DemoWalletAddress = "DEMO"

var (
	// ErrWalletNotConnected gates a live checkout without a linked wallet.
	// A precondition, not a failure: the orchestrator returns to IDLE so the
	// shopper can connect and retry.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrCheckoutInFlight rejects a second checkout while one is running.
	ErrCheckoutInFlight = errors.New("a checkout is already in flight")

	ErrEmptyCart = errors.New("cart is empty")

	// ErrChainSync marks a failed balance lookup. The order is never
	// submitted on an unverifiable balance.
	ErrChainSync = errors.New("could not read wallet balance, check network")
)

// InsufficientFundsError carries the shortfall for display.
type InsufficientFundsError struct {
	Balance float64
	Total   float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %.2f TON, need %.2f TON (short %.2f)",
		e.Balance, e.Total, e.Shortfall())
}

func (e *InsufficientFundsError) Shortfall() float64 {
	return domain.Round2(e.Total - e.Balance)
}

// Orchestrator drives a checkout attempt: totals with coupon discount, wallet
// and funds gates, then order submission. One orchestrator serves one shopper
// session; construct it alongside the stores.
type Orchestrator struct {
	cart   *store.CartStore
	orders *store.OrderStore
	oracle ton.BalanceOracle
	wallet telegram.Wallet
	logger *zap.Logger

	haptics  telegram.Haptics
	identity *telegram.User
	onSettle func(order *domain.Order)

	mu          sync.Mutex
	state       State
	inFlight    bool
	demoMode    bool
	couponCode  string
	couponRate  float64
	couponErr   bool
	couponTimer *time.Timer
	noticeTTL   time.Duration
}

// New creates an orchestrator over the cart and order stores. Haptics default
// to a no-op; attach the host bridge with SetHaptics.
func New(
	cart *store.CartStore,
	orders *store.OrderStore,
	oracle ton.BalanceOracle,
	wallet telegram.Wallet,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		cart:      cart,
		orders:    orders,
		oracle:    oracle,
		wallet:    wallet,
		logger:    logger,
		haptics:   telegram.NoopHaptics{},
		state:     StateIdle,
		noticeTTL: 2 * time.Second,
	}
}

// SetHaptics attaches the host's tactile feedback bridge.
func (o *Orchestrator) SetHaptics(h telegram.Haptics) {
	o.mu.Lock()
	o.haptics = h
	o.mu.Unlock()
}

// SetIdentity attaches the host identity payload used on order placement.
func (o *Orchestrator) SetIdentity(user *telegram.User) {
	o.mu.Lock()
	o.identity = user
	o.mu.Unlock()
}

// SetDemoMode toggles the simulated checkout path: no wallet requirement, no
// balance check, sentinel wallet address and a demo order status.
func (o *Orchestrator) SetDemoMode(demo bool) {
	o.mu.Lock()
	o.demoMode = demo
	o.mu.Unlock()
}

// OnSettle registers the navigation callback fired once after a successful
// placement.
func (o *Orchestrator) OnSettle(fn func(order *domain.Order)) {
	o.mu.Lock()
	o.onSettle = fn
	o.mu.Unlock()
}

// State returns the current checkout phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Subtotal is the cart sum before fee and discount.
func (o *Orchestrator) Subtotal() float64 {
	return o.cart.Subtotal()
}

// Discount is the locked coupon's cut of the current subtotal. Recomputed
// live, so it follows cart changes.
func (o *Orchestrator) Discount() float64 {
	o.mu.Lock()
	rate := o.couponRate
	o.mu.Unlock()
	return o.cart.Subtotal() * rate
}

// Total is subtotal plus the protocol fee minus the discount, floored at
// zero. Unrounded: rounding happens only on the submitted amount.
func (o *Orchestrator) Total() float64 {
	o.mu.Lock()
	rate := o.couponRate
	o.mu.Unlock()

	subtotal := o.cart.Subtotal()
	total := subtotal + domain.ProtocolFeeTon - subtotal*rate
	if total < 0 {
		total = 0
	}
	return total
}

// Checkout runs one checkout attempt end to end. On success the cart is
// cleared and the settle callback fires; on failure the cart is left intact
// so the shopper can retry.
func (o *Orchestrator) Checkout(ctx context.Context) (*domain.Order, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		return nil, ErrCheckoutInFlight
	}
	o.inFlight = true
	demo := o.demoMode
	couponCode := o.couponCode
	identity := o.identity
	haptics := o.haptics
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	items := o.cart.Items()
	if len(items) == 0 {
		haptics.Warning()
		return nil, ErrEmptyCart
	}

	var subtotal float64
	for _, item := range items {
		subtotal += item.PriceTon
	}
	total := domain.OrderTotal(subtotal, couponCode)

	// Wallet gate
	o.setState(StateValidatingWallet)
	if !demo && !o.wallet.Connected() {
		o.setState(StateIdle)
		haptics.Warning()
		return nil, ErrWalletNotConnected
	}

	walletAddress := DemoWalletAddress
	if !demo {
		walletAddress = o.wallet.Address()

		// Funds gate
		o.setState(StateVerifyingFunds)
		balance, err := o.oracle.Balance(ctx, walletAddress)
		if err != nil {
			o.logger.Error("Balance lookup failed", zap.Error(err))
			o.setState(StateFailed)
			haptics.Error()
			return nil, fmt.Errorf("%w: %v", ErrChainSync, err)
		}
		if balance < total {
			o.logger.Warn("Insufficient funds",
				zap.Float64("balance", balance),
				zap.Float64("total", total),
			)
			o.setState(StateFailed)
			haptics.Error()
			return nil, &InsufficientFundsError{Balance: balance, Total: total}
		}
	}

	// Submission
	o.setState(StateSubmitting)
	status := domain.OrderStatusPending
	if demo {
		status = domain.OrderStatusDemo
	}

	orderItems := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, item.OrderItem())
	}

	draft := &client.OrderDraft{
		User:          identity.Identity(),
		WalletAddress: walletAddress,
		Products:      orderItems,
		TotalAmount:   total,
		CouponCode:    couponCode,
		Status:        status,
	}

	order, err := o.orders.PlaceOrder(ctx, draft)
	if err != nil {
		o.setState(StateFailed)
		haptics.Error()
		return nil, fmt.Errorf("order submission failed: %w", err)
	}

	// The cart clears on any successful placement, demo included. The coupon
	// lock releases with it.
	o.cart.Clear(ctx)
	o.resetCoupon()
	o.setState(StateSettled)
	haptics.Success()

	o.mu.Lock()
	settle := o.onSettle
	o.mu.Unlock()
	if settle != nil {
		settle(order)
	}

	o.logger.Info("Checkout settled",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.TotalAmount),
		zap.Bool("demo", demo),
	)
	return order, nil
}

// Reset returns the orchestrator to IDLE and releases the coupon lock, as on
// a page reload.
func (o *Orchestrator) Reset() {
	o.resetCoupon()
	o.setState(StateIdle)
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
