package reservation

import (
	"context"
	"time"

	"pickup-be/internal/logger"
	"pickup-be/internal/metrics"

	"go.uber.org/zap"
)

type Service interface {
	// Commit is safe to call any number of times for the same order.
	Commit(ctx context.Context, r Reservation) (Outcome, error)
}

type service struct {
	repo    Repository
	metrics *metrics.Checkout
}

func NewService(repo Repository, m *metrics.Checkout) Service {
	if m == nil {
		m = metrics.NewCheckout()
	}
	return &service{repo: repo, metrics: m}
}

func (s *service) Commit(ctx context.Context, r Reservation) (Outcome, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Commit"),
		zap.String("order_code", r.OrderCode),
		zap.String("order_day", r.OrderDay.Format(time.DateOnly)),
		zap.Int64("slot_id", r.SlotID),
		zap.Float64("load", r.Load),
	)
	timer := metrics.StartTimer()

	outcome, err := s.repo.Commit(ctx, r)
	if err != nil {
		log.Error("reservation commit failed", zap.Error(err))
		return outcome, err
	}

	switch outcome {
	case Committed:
		s.metrics.ReservationsCommitted.Inc()
		log.Info("reservation committed", zap.Int64("duration_ms", timer.Duration().Milliseconds()))
	case Duplicate:
		log.Info("reservation already committed")
	case CapacityExceeded:
		s.metrics.ReservationsDrifted.Inc()
		log.Warn("slot capacity exceeded at commit, flagged for reconciliation")
	}
	return outcome, nil
}
