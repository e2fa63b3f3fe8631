package transport

import (
	"errors"
	"net/http"
	"strconv"

	"giftmarket/internal/domain"
	"giftmarket/internal/middleware"
	"giftmarket/internal/repository"
	"giftmarket/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterUserRequest represents the identity payload sent on first app open
type RegisterUserRequest struct {
	TelegramID   int64          `json:"telegramId" validate:"required"`
	FirstName    string         `json:"firstName" validate:"required"`
	LastName     string         `json:"lastName"`
	Username     string         `json:"username"`
	PhotoURL     string         `json:"photoUrl" validate:"omitempty,url"`
	LanguageCode string         `json:"languageCode"`
	TelegramData map[string]any `json:"telegramData"`
}

// UpdateUserRequest represents a partial user update. A telegramId in the
// body is ignored: identity is taken from the URL and never rewritten.
type UpdateUserRequest struct {
	FirstName    *string `json:"firstName" validate:"omitempty,min=1"`
	LastName     *string `json:"lastName"`
	Username     *string `json:"username"`
	PhotoURL     *string `json:"photoUrl" validate:"omitempty,url"`
	LanguageCode *string `json:"languageCode"`
	IsBanned     *bool   `json:"isBanned"`
}

// UserHandler handles HTTP requests for user operations
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, adminAuth func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		// Registration happens on app open, before any session exists
		r.Post("/", h.Register)
		r.Get("/{id}/orders", h.GetWithOrders)

		// Back-office routes
		r.Group(func(r chi.Router) {
			r.Use(adminAuth)
			r.Get("/", h.List)
			r.Put("/{id}", h.Update)
		})
	})
}

// Register handles the registration upsert keyed on telegramId
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User registration validation failed", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, "invalid registration payload")
		return
	}

	user := &domain.User{
		TelegramID:   req.TelegramID,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		PhotoURL:     req.PhotoURL,
		LanguageCode: req.LanguageCode,
		TelegramData: req.TelegramData,
	}

	persisted, created, err := h.userService.Register(r.Context(), user)
	if err != nil {
		h.logger.Error("User registration failed", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	status := http.StatusOK
	message := "user refreshed"
	if created {
		status = http.StatusCreated
		message = "user registered"
	}

	h.logger.Info("User upserted",
		zap.Int64("telegram_id", persisted.TelegramID),
		zap.Bool("created", created),
	)
	middleware.RespondWithEnvelope(w, status, persisted, message)
}

// List handles the back-office user listing
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	middleware.RespondWithEnvelope(w, http.StatusOK, users, "")
}

// Update handles partial user updates, the ban toggle included
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("User update validation failed", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, "invalid update payload")
		return
	}

	update := &domain.UserUpdate{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Username:     req.Username,
		PhotoURL:     req.PhotoURL,
		LanguageCode: req.LanguageCode,
		IsBanned:     req.IsBanned,
	}

	user, err := h.userService.Update(r.Context(), telegramID, update)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			middleware.RespondWithEnvelopeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("Failed to update user", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	if req.IsBanned != nil {
		h.logger.Info("User moderation flag changed",
			zap.Int64("telegram_id", telegramID),
			zap.Bool("is_banned", *req.IsBanned),
		)
	}
	middleware.RespondWithEnvelope(w, http.StatusOK, user, "")
}

// GetWithOrders handles the profile-plus-recent-orders lookup
func (h *UserHandler) GetWithOrders(w http.ResponseWriter, r *http.Request) {
	telegramID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.RespondWithEnvelopeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	profile, err := h.userService.GetWithRecentOrders(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			middleware.RespondWithEnvelopeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("Failed to load user orders", zap.Error(err))
		middleware.RespondWithEnvelopeError(w, http.StatusInternalServerError, "failed to load user orders")
		return
	}

	middleware.RespondWithEnvelope(w, http.StatusOK, profile, "")
}
