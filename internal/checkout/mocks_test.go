package checkout

import (
	"context"
	"time"

	"pickup-be/internal/cart"
	"pickup-be/internal/coupon"
	"pickup-be/internal/order"
	"pickup-be/internal/payment"
	"pickup-be/internal/reservation"
	"pickup-be/internal/restaurant"
	"pickup-be/internal/slot"

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
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) UpdateQuantity(ctx context.Context, userID uint, lineID string, q int) (*cart.Cart, error) {
	args := m.Called(ctx, userID, lineID, q)
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) RemoveItem(ctx context.Context, userID uint, lineID string) (*cart.Cart, error) {
	args := m.Called(ctx, userID, lineID)
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartService) Consume(ctx context.Context, userID uint, items []cart.Item) (*cart.Cart, error) {
	args := m.Called(ctx, userID, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

type MockSlotService struct{ mock.Mock }

func (m *MockSlotService) WindowsFor(ctx context.Context, date time.Time) ([]slot.CustomerWindow, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]slot.CustomerWindow), args.Error(1)
}

func (m *MockSlotService) Get(ctx context.Context, id int64) (*slot.DriverSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slot.DriverSlot), args.Error(1)
}

func (m *MockSlotService) Live(ctx context.Context, date time.Time, id int64) (*slot.DriverSlot, error) {
	args := m.Called(ctx, date, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*slot.DriverSlot), args.Error(1)
}

type MockRestaurants struct{ mock.Mock }

func (m *MockRestaurants) ActiveStatus(ctx context.Context, ids []string) (map[string]restaurant.Restaurant, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]restaurant.Restaurant), args.Error(1)
}

type MockCoupons struct{ mock.Mock }

func (m *MockCoupons) Redeem(ctx context.Context, userID uint, code string) (*coupon.RedeemResult, error) {
	args := m.Called(ctx, userID, code)
	return args.Get(0).(*coupon.RedeemResult), args.Error(1)
}

func (m *MockCoupons) Activate(ctx context.Context, userID uint, usageID uuid.UUID) error {
	return m.Called(ctx, userID, usageID).Error(0)
}

func (m *MockCoupons) Deactivate(ctx context.Context, userID uint) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockCoupons) Active(ctx context.Context, userID uint) (*coupon.ActiveCoupon, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*coupon.ActiveCoupon), args.Error(1)
}

func (m *MockCoupons) MarkApplied(ctx context.Context, usageID uuid.UUID) error {
	return m.Called(ctx, usageID).Error(0)
}

type MockOrders struct{ mock.Mock }

func (m *MockOrders) CodeExists(ctx context.Context, day time.Time, code string) (bool, error) {
	args := m.Called(ctx, day, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrders) CreateSession(ctx context.Context, s *order.CheckoutSession) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockOrders) AttachPaymentIntent(ctx context.Context, sessionID uuid.UUID, intentID string) error {
	return m.Called(ctx, sessionID, intentID).Error(0)
}

func (m *MockOrders) GetSession(ctx context.Context, day time.Time, code string) (*order.CheckoutSession, error) {
	args := m.Called(ctx, day, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CheckoutSession), args.Error(1)
}

func (m *MockOrders) MarkSessionFailed(ctx context.Context, day time.Time, code string) (bool, error) {
	args := m.Called(ctx, day, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrders) CreateFromSession(ctx context.Context, o *order.Order) (bool, error) {
	args := m.Called(ctx, o)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrders) GetByCode(ctx context.Context, day time.Time, code string) (*order.Order, error) {
	args := m.Called(ctx, day, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockReservations struct{ mock.Mock }

func (m *MockReservations) Commit(ctx context.Context, r reservation.Reservation) (reservation.Outcome, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(reservation.Outcome), args.Error(1)
}

type MockProcessor struct{ mock.Mock }

func (m *MockProcessor) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockProcessor) VerifySignature(header string, payload []byte) error {
	return m.Called(header, payload).Error(0)
}
