package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pickup-be/internal/admission"
	"pickup-be/internal/cart"
	"pickup-be/internal/checkout"
	"pickup-be/internal/config"
	"pickup-be/internal/coupon"
	"pickup-be/internal/db"
	"pickup-be/internal/logger"
	"pickup-be/internal/metrics"
	"pickup-be/internal/middleware"
	"pickup-be/internal/order"
	"pickup-be/internal/payment"
	"pickup-be/internal/payment/webhook"
	"pickup-be/internal/reservation"
	"pickup-be/internal/restaurant"
	"pickup-be/internal/slot"
	"pickup-be/internal/transport"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cartTTL = 24 * time.Hour

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database := db.InitDB(cfg)
	defer database.Close()

	rdb := db.InitRedis(cfg)
	defer rdb.Close()

	log.Info("capacity policy",
		zap.Duration("lead_time", cfg.LeadTime),
		zap.Int("horizon_days", cfg.HorizonDays),
		zap.Int("slot_minutes", cfg.SlotMinutes()),
		zap.Int("window_minutes", cfg.WindowMinutes),
		zap.String("timezone", cfg.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewRateLimiter()
	go limiter.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           setupRouter(cfg, database, rdb, limiter),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	log.Info("server stopped")
}

// setupRouter wires repositories, services and handlers.
func setupRouter(cfg *config.Config, database *sql.DB, rdb *redis.Client, limiter *middleware.RateLimiter) http.Handler {
	m := metrics.NewCheckout()

	cartSvc := cart.NewService(cart.NewRedisStore(rdb, cartTTL))

	slotSvc := slot.NewService(slot.NewRepository(database), slot.NewAggregator(cfg.LeadTime), cfg.Location)
	controller := admission.NewController(slotSvc, cfg.HorizonDays)

	couponSvc := coupon.NewService(coupon.NewRepository(database))
	orderRepo := order.NewRepository(database)
	reservationSvc := reservation.NewService(reservation.NewRepository(database), m)

	gateway := payment.NewStripeGateway(payment.StripeConfig{
		SecretKey:     cfg.PaymentSecretKey,
		BaseURL:       cfg.PaymentBaseURL,
		WebhookSecret: cfg.PaymentWebhookSecret,
		AllowUnsigned: cfg.AppEnv == "development",
	})

	checkoutSvc := checkout.NewService(checkout.Deps{
		Carts:        cartSvc,
		Slots:        slotSvc,
		Admission:    controller,
		Restaurants:  restaurant.NewRepository(database),
		Coupons:      couponSvc,
		Orders:       orderRepo,
		Reservations: reservationSvc,
		Payments:     gateway,
		Metrics:      m,
		Currency:     cfg.Currency,
		Location:     cfg.Location,
	})

	webhookHandler := webhook.NewWebhookHandler(checkoutSvc, gateway, payment.NewRepository(database), m, cfg.Location)

	h := transport.NewHandler(cartSvc, checkoutSvc, couponSvc, order.NewService(orderRepo), m, cfg.Location)
	return transport.NewRouter(h, transport.RouterConfig{
		JWTSecret:   []byte(cfg.JWTSecret),
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		Webhook:     webhookHandler.PaymentWebhookHandler,
	})
}
