package transport

import (
	"context"
	"time"

	"pickup-be/internal/admission"
	"pickup-be/internal/cart"
	"pickup-be/internal/checkout"
	"pickup-be/internal/coupon"
	"pickup-be/internal/order"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockCartService struct{ mock.Mock }

func (m *MockCartService) Get(ctx context.Context, userID uint) (*cart.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, userID uint, p cart.AddItemParams) (*cart.Cart, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID uint, lineID string, q int) (*cart.Cart, error) {
	args := m.Called(ctx, userID, lineID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID uint, lineID string) (*cart.Cart, error) {
	args := m.Called(ctx, userID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) Consume(ctx context.Context, userID uint, items []cart.Item) (*cart.Cart, error) {
	args := m.Called(ctx, userID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

type MockCheckoutService struct{ mock.Mock }

func (m *MockCheckoutService) Quote(ctx context.Context, userID uint, date time.Time) (*checkout.Quote, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.Quote), args.Error(1)
}

func (m *MockCheckoutService) Evaluate(ctx context.Context, userID uint, date time.Time, label string) (*admission.Decision, error) {
	args := m.Called(ctx, userID, date, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*admission.Decision), args.Error(1)
}

func (m *MockCheckoutService) Begin(ctx context.Context, userID uint, date time.Time, slotID int64) (*checkout.BeginResult, error) {
	args := m.Called(ctx, userID, date, slotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*checkout.BeginResult), args.Error(1)
}

func (m *MockCheckoutService) HandlePaymentSucceeded(ctx context.Context, day time.Time, code string) error {
	return m.Called(ctx, day, code).Error(0)
}

func (m *MockCheckoutService) HandlePaymentFailed(ctx context.Context, day time.Time, code string) error {
	return m.Called(ctx, day, code).Error(0)
}

type MockCouponService struct{ mock.Mock }

func (m *MockCouponService) Redeem(ctx context.Context, userID uint, code string) (*coupon.RedeemResult, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.RedeemResult), args.Error(1)
}

func (m *MockCouponService) Activate(ctx context.Context, userID uint, usageID uuid.UUID) error {
	return m.Called(ctx, userID, usageID).Error(0)
}

func (m *MockCouponService) Deactivate(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCouponService) Active(ctx context.Context, userID uint) (*coupon.ActiveCoupon, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.ActiveCoupon), args.Error(1)
}

func (m *MockCouponService) MarkApplied(ctx context.Context, usageID uuid.UUID) error {
	return m.Called(ctx, usageID).Error(0)
}

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) GetOrder(ctx context.Context, userID uint, day time.Time, code string) (*order.Order, error) {
	args := m.Called(ctx, userID, day, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}
