package http

import (
	"context"
	"net/http"
	"time"

	"github.com/VarZ-96/VibeCommerce-Cart/internal/auth"
	"github.com/VarZ-96/VibeCommerce-Cart/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Products *ProductHandler
	Cart     *CartHandler
	Payment  *PaymentHandler
	Orders   *OrdersHandler

	Auth    *auth.Authenticator
	Health  Pinger
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	RequestTimeout     time.Duration
	MaxRequestBodySize int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger, cfg.Metrics))
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.MaxRequestBodySize > 0 {
		r.Use(MaxBodySize(cfg.MaxRequestBodySize))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := cfg.Health.Ping(ctx); err != nil {
			cfg.Logger.Warn("health check failed", zap.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/products", cfg.Products.ListProducts)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg.Auth))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.Cart.GetCart)
				r.Post("/", cfg.Cart.AddItem)
				r.Post("/decrease", cfg.Cart.DecreaseItem)
				r.Delete("/{itemId}", cfg.Cart.RemoveItem)
			})
			r.Route("/payment", func(r chi.Router) {
				r.Post("/create-order", cfg.Payment.CreateOrder)
				r.Post("/verify", cfg.Payment.VerifyPayment)
			})
			r.Get("/orders", cfg.Orders.ListOrders)
		})
	})

	return r
}
