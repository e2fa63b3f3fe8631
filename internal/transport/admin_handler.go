package transport

import (
	"errors"
	"net/http"

	"giftmarket/internal/middleware"
	"giftmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the back-office login payload
type LoginRequest struct {
	Passkey string `json:"passkey" validate:"required"`
}

// LoginResponse carries the admin session token
type LoginResponse struct {
	Token string `json:"token"`
}

// AdminHandler handles HTTP requests for the back office
type AdminHandler struct {
	adminService service.AdminService
	logger       *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

// RegisterRoutes registers all admin routes
func (h *AdminHandler) RegisterRoutes(r chi.Router, adminAuth func(http.Handler) http.Handler) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(adminAuth)
			r.Get("/metrics", h.Metrics)
		})
	})
}

// Login handles the server-verified passkey exchange
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	token, err := h.adminService.Login(r.Context(), req.Passkey)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPasskey) {
			h.logger.Warn("Admin login rejected", zap.String("remote_addr", r.RemoteAddr))
			middleware.RespondWithEnvelopeError(w, http.StatusUnauthorized, "invalid passkey")
			return
		}
		h.logger.Error("Admin login failed", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to login")
		return
	}

	h.logger.Info("Admin session issued")
	middleware.RespondWithEnvelope(w, http.StatusOK, LoginResponse{Token: token}, "")
}

// Metrics handles the back-office dashboard snapshot
func (h *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.adminService.Metrics(r.Context())
	if err != nil {
		h.logger.Error("Failed to load admin metrics", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to load metrics")
		return
	}

	middleware.RespondWithEnvelope(w, http.StatusOK, metrics, "")
}
