package transport

import (
	"net/http"

	"pickup-be/internal/logger"
	"pickup-be/internal/middleware"

	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	JWTSecret   []byte
	CORSOrigins []string
	Limiter     *middleware.RateLimiter
	// Webhook is mounted outside auth; the provider signs its requests.
	Webhook http.HandlerFunc
}

// NewRouter builds the HTTP router for the pickup service.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if cfg.Limiter == nil {
		cfg.Limiter = middleware.NewRateLimiter()
	}

	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Auth(cfg.JWTSecret))
	r.Use(cfg.Limiter.Limit)

	r.Get("/health", h.Health)
	r.Get("/internal/metrics", h.Metrics)
	if cfg.Webhook != nil {
		r.Post("/webhook/payment", cfg.Webhook)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Get("/windows", h.Windows)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Patch("/items/{lineID}", h.UpdateItem)
			r.Delete("/items/{lineID}", h.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", h.Quote)
			r.Post("/evaluate", h.Evaluate)
			r.Post("/begin", h.Begin)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Post("/redeem", h.RedeemCoupon)
			r.Post("/usages/{usageID}/activate", h.ActivateCoupon)
			r.Delete("/active", h.DeactivateCoupon)
		})

		r.Get("/orders/{day}/{code}", h.GetOrder)
	})

	return r
}
