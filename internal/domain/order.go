package domain

import "time"

// OrderStatus is the settlement state of an order. The demo variants mark
// simulated checkouts that never touch the chain.
type OrderStatus string

const (
	OrderStatusPending       OrderStatus = "PENDING"
	OrderStatusCompleted     OrderStatus = "COMPLETED"
	OrderStatusCancelled     OrderStatus = "CANCELLED"
	OrderStatusDemo          OrderStatus = "DEMO"
	OrderStatusDemoCompleted OrderStatus = "DEMO_COMPLETED"
)

// CanTransitionTo reports whether an order may move from s to next.
// COMPLETED, CANCELLED and DEMO_COMPLETED are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	case OrderStatusDemo:
		return next == OrderStatusDemoCompleted
	default:
		return false
	}
}

// IsTerminal reports whether no further status transition is allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusDemoCompleted
}

// OrderItem is a line item projected from a cart entry at placement time.
type OrderItem struct {
	ProductID string  `json:"productId" bson:"productId"`
	Name      string  `json:"name" bson:"name"`
	PriceTon  float64 `json:"priceTon" bson:"priceTon"`
	Image     string  `json:"image" bson:"image"`
}

// Order is a committed purchase. Products and TotalAmount are immutable after
// creation; only Status (and the externally supplied TransactionHash) move.
type Order struct {
	ID              string      `json:"_id" bson:"_id"`
	User            string      `json:"user" bson:"user"`
	WalletAddress   string      `json:"walletAddress" bson:"walletAddress"`
	Products        []OrderItem `json:"products" bson:"products"`
	TotalAmount     float64     `json:"totalAmount" bson:"totalAmount"`
	CouponCode      string      `json:"couponCode,omitempty" bson:"couponCode,omitempty"`
	Status          OrderStatus `json:"status" bson:"status"`
	TransactionHash string      `json:"transactionHash,omitempty" bson:"transactionHash,omitempty"`
	CreatedAt       time.Time   `json:"createdAt" bson:"createdAt"`
}

// Subtotal is the sum of line item prices, before fee and discount.
func (o *Order) Subtotal() float64 {
	var sum float64
	for _, item := range o.Products {
		sum += item.PriceTon
	}
	return sum
}
