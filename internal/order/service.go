package order

import (
	"context"
	"time"

	"pickup-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	GetOrder(ctx context.Context, userID uint, day time.Time, code string) (*Order, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// GetOrder only returns orders owned by userID; anything else reads as not found.
func (s *service) GetOrder(ctx context.Context, userID uint, day time.Time, code string) (*Order, error) {
	o, err := s.repo.GetByCode(ctx, day, code)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		logger.FromCtx(ctx).Warn("order requested by non-owner",
			zap.String("order_code", code),
		)
		return nil, ErrOrderNotFound
	}
	return o, nil
}
