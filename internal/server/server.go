package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"giftmarket/internal/config"
	custommiddleware "giftmarket/internal/middleware"
	"giftmarket/internal/repository"
	"giftmarket/internal/service"
	"giftmarket/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *mongo.Database
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *mongo.Database, redisClient *redis.Client) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	// Rate limit mutating traffic; browsing the catalog is unmetered
	if redisClient != nil {
		router.Use(writeRateLimit(redisClient, logger))
	}

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize services
	catalogService := service.NewCatalogService(productRepo)
	userService := service.NewUserService(userRepo, orderRepo)
	orderService := service.NewOrderService(orderRepo, productRepo, userRepo)
	adminService := service.NewAdminService(
		orderRepo,
		userRepo,
		cfg.Admin.PasskeyHash,
		cfg.Admin.SessionSecret,
		cfg.Admin.SessionExpiry,
	)

	// Initialize handlers
	productHandler := transport.NewProductHandler(catalogService, logger)
	userHandler := transport.NewUserHandler(userService, logger)
	orderHandler := transport.NewOrderHandler(orderService, logger)
	adminHandler := transport.NewAdminHandler(adminService, logger)

	// Create auth middleware
	adminAuth := custommiddleware.AdminAuthMiddleware(cfg.Admin.SessionSecret, logger)

	// Register routes
	productHandler.RegisterRoutes(router, adminAuth)
	userHandler.RegisterRoutes(router, adminAuth)
	orderHandler.RegisterRoutes(router, adminAuth)
	adminHandler.RegisterRoutes(router, adminAuth)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

// writeRateLimit meters POST/PUT/PATCH/DELETE requests per client IP.
func writeRateLimit(redisClient *redis.Client, logger *zap.Logger) func(http.Handler) http.Handler {
	limit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:write",
	}, logger)

	return func(next http.Handler) http.Handler {
		limited := limit(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				limited.ServeHTTP(w, r)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.db.Client().Disconnect(ctx); err != nil {
			s.logger.Error("Failed to close MongoDB connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
