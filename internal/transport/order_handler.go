package transport

import (
	"errors"
	"net/http"

	"giftmarket/internal/domain"
	"giftmarket/internal/middleware"
	"giftmarket/internal/repository"
	"giftmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderItemRequest is a line item in an order placement payload
type OrderItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required"`
	PriceTon  float64 `json:"priceTon" validate:"required,gt=0"`
	Image     string  `json:"image"`
}

// PlaceOrderRequest represents the order placement payload
type PlaceOrderRequest struct {
	User          string             `json:"user" validate:"required"`
	WalletAddress string             `json:"walletAddress" validate:"required"`
	Products      []OrderItemRequest `json:"products" validate:"required,min=1,dive"`
	TotalAmount   float64            `json:"totalAmount" validate:"required,gt=0"`
	CouponCode    string             `json:"couponCode"`
	Status        string             `json:"status" validate:"required,oneof=PENDING DEMO"`
}

// UpdateOrderStatusRequest represents a status transition payload
type UpdateOrderStatusRequest struct {
	Status          string `json:"status" validate:"required,oneof=COMPLETED CANCELLED DEMO_COMPLETED"`
	TransactionHash string `json:"transactionHash"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, adminAuth func(http.Handler) http.Handler) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.Place)

		// Back-office routes
		r.Group(func(r chi.Router) {
			r.Use(adminAuth)
			r.Get("/", h.List)
			r.Patch("/{id}/status", h.UpdateStatus)
		})
	})
}

// Place handles order placement
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Order placement validation failed", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, "invalid order payload")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.Products))
	for _, item := range req.Products {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			PriceTon:  item.PriceTon,
			Image:     item.Image,
		})
	}

	order := &domain.Order{
		User:          req.User,
		WalletAddress: req.WalletAddress,
		Products:      items,
		TotalAmount:   req.TotalAmount,
		CouponCode:    req.CouponCode,
		Status:        domain.OrderStatus(req.Status),
	}

	placed, err := h.orderService.Place(r.Context(), order)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder),
			errors.Is(err, service.ErrUnknownProduct),
			errors.Is(err, service.ErrPriceMismatch),
			errors.Is(err, service.ErrTotalMismatch),
			errors.Is(err, service.ErrInvalidStatus):
			h.logger.Warn("Order rejected", zap.Error(err), zap.String("user", req.User))
			middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUserBanned):
			middleware.RespondWithEnvelopeError(w, http.StatusForbidden, "user is banned")
		default:
			h.logger.Error("Order placement failed", zap.Error(err))
			middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to place order")
		}
		return
	}

	h.logger.Info("Order placed",
		zap.String("order_id", placed.ID),
		zap.String("user", placed.User),
		zap.Float64("total", placed.TotalAmount),
		zap.String("status", string(placed.Status)),
	)
	middleware.RespondWithEnvelope(w, http.StatusCreated, placed, "order placed")
}

// List handles the back-office order listing
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithEnvelope(w, http.StatusOK, orders, "")
}

// UpdateStatus handles order status transitions
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Status transition validation failed", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, "invalid status payload")
		return
	}

	id := chi.URLParam(r, "id")
	order, err := h.orderService.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status), req.TransactionHash)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithEnvelopeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrInvalidTransition):
			middleware.RespondWithEnvelopeError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Failed to update order status", zap.Error(err))
			middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	h.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("status", string(order.Status)),
	)
	middleware.RespondWithEnvelope(w, http.StatusOK, order, "")
}
