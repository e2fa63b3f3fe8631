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

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	Image       string  `json:"image" validate:"required,url"`
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description"`
	PriceTon    float64 `json:"priceTon" validate:"required,gt=0"`
	Status      string  `json:"status" validate:"omitempty,oneof=listed draft sold"`
	MintDate    string  `json:"mintDate"`
}

// UpdateProductRequest represents a partial product update payload
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	Image       *string  `json:"image" validate:"omitempty,url"`
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Description *string  `json:"description"`
	PriceTon    *float64 `json:"priceTon" validate:"omitempty,gt=0"`
	Status      *string  `json:"status" validate:"omitempty,oneof=listed draft sold"`
	MintDate    *string  `json:"mintDate"`
}

// ProductHandler handles HTTP requests for catalog operations
type ProductHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(catalogService service.CatalogService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, adminAuth func(http.Handler) http.Handler) {
	r.Route("/products", func(r chi.Router) {
		// Public storefront routes
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/views", h.RecordView)

		// Back-office routes
		r.Group(func(r chi.Router) {
			r.Use(adminAuth)
			r.Post("/", h.Create)
			r.Put("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

// List handles the catalog listing, newest first
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalogService.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get handles a single product lookup
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles product creation
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product creation validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := &domain.Product{
		Name:        req.Name,
		Image:       req.Image,
		Category:    req.Category,
		Description: req.Description,
		PriceTon:    req.PriceTon,
		Status:      domain.ProductStatus(req.Status),
		MintDate:    req.MintDate,
	}

	created, err := h.catalogService.Create(r.Context(), product)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPrice) {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("product_id", created.ProductID))
	middleware.RespondWithJSON(w, http.StatusCreated, created)
}

// Update handles partial product updates
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product update validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	update := &domain.ProductUpdate{
		Name:        req.Name,
		Image:       req.Image,
		Category:    req.Category,
		Description: req.Description,
		PriceTon:    req.PriceTon,
		MintDate:    req.MintDate,
	}
	if req.Status != nil {
		status := domain.ProductStatus(*req.Status)
		update.Status = &status
	}

	product, err := h.catalogService.Update(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrProductNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case errors.Is(err, service.ErrInvalidPrice):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to update product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete handles product deletion
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.catalogService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// RecordView handles the storefront view counter
func (h *ProductHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalogService.RecordView(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to record view", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to record view")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}
