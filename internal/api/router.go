package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"taskmanager/internal/api/handler"
	"taskmanager/internal/api/middleware"
	"taskmanager/internal/app/service"
	"taskmanager/internal/common/security"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	// RateLimiter is optional; nil disables request throttling.
	RateLimiter *middleware.RateLimiter
	// TrustProxyHeaders lets X-Forwarded-For / X-Real-IP replace RemoteAddr. Leave it off
	// unless a proxy in front overwrites those headers, or clients can pick their own
	// rate-limit key.
	TrustProxyHeaders bool
}

func NewRouter(
	authService *service.AuthService,
	taskService *service.TaskService,
	tokens *security.TokenIssuer,
	cfg RouterConfig,
	logger *zap.Logger,
) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chiMiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware)
	}

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	authHandler := handler.NewAuthHandler(authService, tokens, logger)
	r.Route("/auth", authHandler.RegisterRoutes)

	taskHandler := handler.NewTaskHandler(taskService, tokens, logger)
	r.Route("/tasks", taskHandler.RegisterRoutes)

	return r
}
