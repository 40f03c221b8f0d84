package coupon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pickup-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Redeem(ctx context.Context, userID uint, code string) (*RedeemResult, error)
	Activate(ctx context.Context, userID uint, usageID uuid.UUID) error
	Deactivate(ctx context.Context, userID uint) error
	// Active returns nil, nil when no usage is selected.
	Active(ctx context.Context, userID uint) (*ActiveCoupon, error)
	MarkApplied(ctx context.Context, usageID uuid.UUID) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) Service {
	return &service{repo: repo, now: time.Now}
}

// Redeem claims a coupon into the user's wallet and selects it. Redeeming a
// coupon that is already in the wallet returns the existing usage untouched.
func (s *service) Redeem(ctx context.Context, userID uint, code string) (*RedeemResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Redeem"),
		zap.String("code", code),
	)

	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrCouponCodeRequired
	}

	// 1. Load coupon
	c, err := s.repo.GetByCode(ctx, code)
	if errors.Is(err, ErrInvalidCoupon) {
		log.Warn("coupon has malformed rule", zap.Error(err))
		return nil, ErrInvalidCoupon
	}
	if err != nil {
		log.Error("failed to load coupon", zap.Error(err))
		return nil, err
	}
	if c == nil {
		return nil, ErrInvalidCoupon
	}

	// 2. Existing wallet entry
	existing, err := s.repo.FindOpenUsage(ctx, userID, c.ID)
	if err != nil {
		log.Error("failed to load coupon usage", zap.Error(err))
		return nil, err
	}
	if existing != nil && existing.Status == UsageRedeemed {
		log.Info("coupon already redeemed", zap.String("usage_id", existing.ID.String()))
		return &RedeemResult{Usage: existing, Coupon: c, AlreadyRedeemed: true}, nil
	}

	// 3. Eligibility
	if err := s.checkEligibility(ctx, userID, c); err != nil {
		log.Info("coupon not eligible", zap.Error(err))
		return nil, err
	}

	// 4. Claim
	usage := existing
	if usage != nil {
		if err := s.repo.MarkRedeemed(ctx, usage.ID); err != nil {
			log.Error("failed to claim granted coupon", zap.Error(err))
			return nil, err
		}
		usage.Status = UsageRedeemed
	} else {
		usage = &Usage{
			ID:        uuid.New(),
			UserID:    userID,
			CouponID:  c.ID,
			Status:    UsageRedeemed,
			CreatedAt: s.now(),
		}
		created, err := s.repo.CreateUsage(ctx, usage)
		if err != nil {
			log.Error("failed to create coupon usage", zap.Error(err))
			return nil, err
		}
		if !created {
			// lost a race against a concurrent redeem of the same code
			winner, err := s.repo.FindOpenUsage(ctx, userID, c.ID)
			if err != nil {
				return nil, err
			}
			if winner == nil {
				return nil, fmt.Errorf("coupon usage vanished after conflict: %w", ErrUsageNotFound)
			}
			return &RedeemResult{Usage: winner, Coupon: c, AlreadyRedeemed: true}, nil
		}
	}

	// 5. Select it for checkout
	if err := s.repo.Activate(ctx, userID, usage.ID); err != nil {
		log.Error("failed to activate coupon", zap.Error(err))
		return nil, err
	}
	usage.Active = true

	log.Info("coupon redeemed", zap.String("usage_id", usage.ID.String()))
	return &RedeemResult{Usage: usage, Coupon: c}, nil
}

func (s *service) checkEligibility(ctx context.Context, userID uint, c *Coupon) error {
	if !c.Active {
		return ErrInvalidCoupon
	}

	now := s.now()
	if (c.ValidFrom != nil && now.Before(*c.ValidFrom)) || (c.ValidUntil != nil && now.After(*c.ValidUntil)) {
		return ErrExpiredCoupon
	}

	if c.RemainingUses != nil {
		if *c.RemainingUses <= 0 {
			return ErrUsageLimitReached
		}
		return nil
	}

	if c.MaxUses > 0 {
		used, err := s.repo.CountApplied(ctx, userID, c.ID)
		if err != nil {
			return err
		}
		if used >= c.MaxUses {
			return ErrUsageLimitReached
		}
	}
	return nil
}

func (s *service) Activate(ctx context.Context, userID uint, usageID uuid.UUID) error {
	if err := s.repo.Activate(ctx, userID, usageID); err != nil {
		logger.FromCtx(ctx).Warn("failed to activate coupon usage",
			zap.String("usage_id", usageID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) Deactivate(ctx context.Context, userID uint) error {
	return s.repo.Deactivate(ctx, userID)
}

func (s *service) Active(ctx context.Context, userID uint) (*ActiveCoupon, error) {
	u, err := s.repo.GetActive(ctx, userID)
	if err != nil || u == nil {
		return nil, err
	}

	c, err := s.repo.GetByID(ctx, u.CouponID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrInvalidCoupon
	}
	return &ActiveCoupon{Usage: u, Coupon: c}, nil
}

func (s *service) MarkApplied(ctx context.Context, usageID uuid.UUID) error {
	return s.repo.MarkApplied(ctx, usageID)
}
