package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"pickup-be/internal/admission"
	"pickup-be/internal/cart"
	"pickup-be/internal/coupon"
	"pickup-be/internal/metrics"
	"pickup-be/internal/order"
	"pickup-be/internal/payment"
	"pickup-be/internal/reservation"
	"pickup-be/internal/restaurant"
	"pickup-be/internal/slot"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const userID = uint(7)

var (
	fixedNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	orderDay = time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
)

func testCart() *cart.Cart {
	return &cart.Cart{
		UserID: userID,
		Items: []cart.Item{
			{ID: "l1", MenuItemID: "gyro", RestaurantID: "r1", Name: "Lamb Gyro", UnitPrice: 12, Quantity: 1, LoadWeight: 5},
			{ID: "l2", MenuItemID: "cor", RestaurantID: "r1", Name: "Chicken Over Rice", UnitPrice: 11, Quantity: 1, LoadWeight: 6},
			{ID: "l3", MenuItemID: "cola", RestaurantID: "r2", Name: "Cola", UnitPrice: 2, Quantity: 2},
		},
	}
}

type fixture struct {
	carts        *MockCartService
	slots        *MockSlotService
	restaurants  *MockRestaurants
	coupons      *MockCoupons
	orders       *MockOrders
	reservations *MockReservations
	payments     *MockProcessor
	metrics      *metrics.Checkout
	svc          *service
}

func newFixture(codes ...string) *fixture {
	f := &fixture{
		carts:        new(MockCartService),
		slots:        new(MockSlotService),
		restaurants:  new(MockRestaurants),
		coupons:      new(MockCoupons),
		orders:       new(MockOrders),
		reservations: new(MockReservations),
		payments:     new(MockProcessor),
		metrics:      metrics.NewCheckout(),
	}
	svc := NewService(Deps{
		Carts:        f.carts,
		Slots:        f.slots,
		Admission:    admission.NewController(f.slots, 7),
		Restaurants:  f.restaurants,
		Coupons:      f.coupons,
		Orders:       f.orders,
		Reservations: f.reservations,
		Payments:     f.payments,
		Metrics:      f.metrics,
		Currency:     "USD",
		Location:     time.UTC,
	}).(*service)
	svc.now = func() time.Time { return fixedNow }

	next := 0
	svc.genCode = func() string {
		c := codes[next%len(codes)]
		next++
		return c
	}
	f.svc = svc
	return f
}

func liveSlot(load float64) *slot.DriverSlot {
	return &slot.DriverSlot{
		ID:          4,
		Day:         time.Wednesday,
		Time:        slot.TimeOfDay{Hour: 6, Meridiem: slot.PM},
		MaxCapacity: 20,
		CurrentLoad: load,
	}
}

func allActive() map[string]restaurant.Restaurant {
	return map[string]restaurant.Restaurant{
		"r1": {ID: "r1", Active: true},
		"r2": {ID: "r2", Active: true},
	}
}

func TestService_Begin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newFixture("111111", "222222")
		f.carts.On("Get", ctx, userID).Return(testCart(), nil)
		f.slots.On("Live", mock.Anything, orderDay, int64(4)).Return(liveSlot(0), nil)
		f.restaurants.On("ActiveStatus", mock.Anything, []string{"r1", "r2"}).Return(allActive(), nil)
		f.coupons.On("Active", ctx, userID).Return(nil, nil)
		f.orders.On("CodeExists", ctx, orderDay, "111111").Return(true, nil)
		f.orders.On("CodeExists", ctx, orderDay, "222222").Return(false, nil)
		f.orders.On("CreateSession", ctx, mock.MatchedBy(func(s *order.CheckoutSession) bool {
			return s.Code == "222222" && s.SlotID == 4 && s.RequiredLoad == 11 && s.UsageID == nil
		})).Return(nil)
		f.payments.On("CreateIntent", ctx, mock.MatchedBy(func(r payment.IntentRequest) bool {
			return r.Amount == 3588 && r.Currency == "usd" &&
				r.Metadata.OrderCode == "222222" &&
				r.Metadata.OrderDay == "2026-10-14" &&
				r.Metadata.Restaurant == "r1,r2" &&
				r.Metadata.UserID == "7"
		})).Return(&payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil)
		f.orders.On("AttachPaymentIntent", ctx, mock.AnythingOfType("uuid.UUID"), "pi_1").Return(nil)

		res, err := f.svc.Begin(ctx, userID, orderDay, 4)

		require.NoError(t, err)
		assert.Equal(t, "222222", res.OrderCode)
		assert.Equal(t, "pi_1_secret", res.ClientSecret)
		assert.Equal(t, admission.StatusNormal, res.Status)
		assert.Equal(t, 35.88, res.Pricing.Total)
		f.orders.AssertExpectations(t)
		f.payments.AssertExpectations(t)
	})

	t.Run("Empty cart", func(t *testing.T) {
		f := newFixture("111111")
		f.carts.On("Get", ctx, userID).Return(&cart.Cart{UserID: userID}, nil)

		_, err := f.svc.Begin(ctx, userID, orderDay, 4)
		assert.ErrorIs(t, err, cart.ErrCartEmpty)
	})

	t.Run("Slot filled since selection", func(t *testing.T) {
		f := newFixture("111111")
		f.carts.On("Get", ctx, userID).Return(testCart(), nil)
		f.slots.On("Live", mock.Anything, orderDay, int64(4)).Return(liveSlot(16), nil)
		f.restaurants.On("ActiveStatus", mock.Anything, mock.Anything).Return(allActive(), nil).Maybe()

		_, err := f.svc.Begin(ctx, userID, orderDay, 4)

		assert.ErrorIs(t, err, ErrSlotInvalidated)
		assert.Equal(t, uint64(1), f.metrics.RevalidationFailed.Load())
		f.orders.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
		f.payments.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
	})

	t.Run("Slot removed", func(t *testing.T) {
		f := newFixture("111111")
		f.carts.On("Get", ctx, userID).Return(testCart(), nil)
		f.slots.On("Live", mock.Anything, orderDay, int64(4)).Return(nil, slot.ErrSlotNotFound)
		f.restaurants.On("ActiveStatus", mock.Anything, mock.Anything).Return(allActive(), nil).Maybe()

		_, err := f.svc.Begin(ctx, userID, orderDay, 4)
		assert.ErrorIs(t, err, ErrSlotInvalidated)
	})

	t.Run("Restaurant closed", func(t *testing.T) {
		f := newFixture("111111")
		f.carts.On("Get", ctx, userID).Return(testCart(), nil)
		f.slots.On("Live", mock.Anything, orderDay, int64(4)).Return(liveSlot(0), nil)
		f.restaurants.On("ActiveStatus", mock.Anything, []string{"r1", "r2"}).
			Return(map[string]restaurant.Restaurant{"r1": {ID: "r1", Active: true}, "r2": {ID: "r2"}}, nil)

		_, err := f.svc.Begin(ctx, userID, orderDay, 4)

		assert.ErrorIs(t, err, ErrRestaurantInactive)
		assert.Contains(t, err.Error(), "r2")
		f.orders.AssertNotCalled(t, "CreateSession", mock.Anything, mock.Anything)
	})

	t.Run("Code taken by concurrent checkout", func(t *testing.T) {
		f := newFixture("111111", "222222")
		f.carts.On("Get", ctx, userID).Return(testCart(), nil)
		f.slots.On("Live", mock.Anything, orderDay, int64(4)).Return(liveSlot(0), nil)
		f.restaurants.On("ActiveStatus", mock.Anything, mock.Anything).Return(allActive(), nil)
		f.coupons.On("Active", ctx, userID).Return(nil, nil)
		f.orders.On("CodeExists", ctx, orderDay, mock.Anything).Return(false, nil)
		f.orders.On("CreateSession", ctx, mock.Anything).Return(order.ErrOrderCodeTaken).Once()
		f.orders.On("CreateSession", ctx, mock.Anything).Return(nil).Once()
		f.payments.On("CreateIntent", ctx, mock.Anything).Return(&payment.Intent{ID: "pi_2", ClientSecret: "s"}, nil)
		f.orders.On("AttachPaymentIntent", ctx, mock.Anything, "pi_2").Return(nil)

		res, err := f.svc.Begin(ctx, userID, orderDay, 4)

		require.NoError(t, err)
		assert.Equal(t, "222222", res.OrderCode)
	})

	t.Run("Payment provider down", func(t *testing.T) {
		f := newFixture("333333")
		f.carts.On("Get", ctx, userID).Return(testCart(), nil)
		f.slots.On("Live", mock.Anything, orderDay, int64(4)).Return(liveSlot(0), nil)
		f.restaurants.On("ActiveStatus", mock.Anything, mock.Anything).Return(allActive(), nil)
		f.coupons.On("Active", ctx, userID).Return(nil, nil)
		f.orders.On("CodeExists", ctx, orderDay, "333333").Return(false, nil)
		f.orders.On("CreateSession", ctx, mock.Anything).Return(nil)
		f.payments.On("CreateIntent", ctx, mock.Anything).
			Return(nil, errors.Join(payment.ErrPaymentUnavailable, errors.New("status 503")))
		f.orders.On("MarkSessionFailed", ctx, orderDay, "333333").Return(true, nil)

		_, err := f.svc.Begin(ctx, userID, orderDay, 4)

		assert.ErrorIs(t, err, payment.ErrPaymentUnavailable)
		f.orders.AssertExpectations(t)
	})

	t.Run("Active coupon is priced and linked", func(t *testing.T) {
		f := newFixture("444444")
		usageID := uuid.New()
		f.carts.On("Get", ctx, userID).Return(testCart(), nil)
		f.slots.On("Live", mock.Anything, orderDay, int64(4)).Return(liveSlot(0), nil)
		f.restaurants.On("ActiveStatus", mock.Anything, mock.Anything).Return(allActive(), nil)
		f.coupons.On("Active", ctx, userID).Return(&coupon.ActiveCoupon{
			Usage:  &coupon.Usage{ID: usageID, Status: coupon.UsageRedeemed, Active: true},
			Coupon: &coupon.Coupon{Code: "FREESHIP", Rule: coupon.DeliveryFee{}},
		}, nil)
		f.orders.On("CodeExists", ctx, orderDay, "444444").Return(false, nil)
		f.orders.On("CreateSession", ctx, mock.MatchedBy(func(s *order.CheckoutSession) bool {
			return s.UsageID != nil && *s.UsageID == usageID && s.Pricing.FinalDeliveryFee == 0
		})).Return(nil)
		f.payments.On("CreateIntent", ctx, mock.MatchedBy(func(r payment.IntentRequest) bool {
			return r.Amount == 3048
		})).Return(&payment.Intent{ID: "pi_3", ClientSecret: "s"}, nil)
		f.orders.On("AttachPaymentIntent", ctx, mock.Anything, "pi_3").Return(nil)

		res, err := f.svc.Begin(ctx, userID, orderDay, 4)

		require.NoError(t, err)
		assert.Equal(t, coupon.CategoryDeliveryFee, res.Pricing.CouponCategory)
	})
}

func paidSession(usageID *uuid.UUID) *order.CheckoutSession {
	return &order.CheckoutSession{
		ID:           uuid.New(),
		Code:         "042917",
		OrderDay:     orderDay,
		UserID:       userID,
		Status:       order.CheckoutSessionStatusPending,
		Items:        testCart().Items,
		SlotID:       4,
		RequiredLoad: 11,
		UsageID:      usageID,
	}
}

func TestService_HandlePaymentSucceeded(t *testing.T) {
	ctx := context.Background()
	expected := reservation.Reservation{OrderDay: orderDay, OrderCode: "042917", SlotID: 4, Load: 11}

	t.Run("First delivery", func(t *testing.T) {
		f := newFixture("0")
		usageID := uuid.New()
		f.orders.On("GetSession", ctx, orderDay, "042917").Return(paidSession(&usageID), nil)
		f.orders.On("CreateFromSession", ctx, mock.MatchedBy(func(o *order.Order) bool {
			return o.Code == "042917" && o.Status == order.StatusConfirmed
		})).Return(true, nil)
		f.reservations.On("Commit", ctx, expected).Return(reservation.Committed, nil)
		f.coupons.On("MarkApplied", ctx, usageID).Return(nil)
		f.carts.On("Consume", ctx, userID, testCart().Items).Return(&cart.Cart{UserID: userID}, nil)

		require.NoError(t, f.svc.HandlePaymentSucceeded(ctx, orderDay, "042917"))

		f.reservations.AssertExpectations(t)
		f.coupons.AssertExpectations(t)
		f.carts.AssertExpectations(t)
	})

	t.Run("Redelivery keeps the new cart", func(t *testing.T) {
		f := newFixture("0")
		f.orders.On("GetSession", ctx, orderDay, "042917").Return(paidSession(nil), nil)
		f.orders.On("CreateFromSession", ctx, mock.Anything).Return(false, nil)
		f.reservations.On("Commit", ctx, expected).Return(reservation.Duplicate, nil)

		require.NoError(t, f.svc.HandlePaymentSucceeded(ctx, orderDay, "042917"))

		f.carts.AssertNotCalled(t, "Consume", mock.Anything, mock.Anything, mock.Anything)
		f.coupons.AssertNotCalled(t, "MarkApplied", mock.Anything, mock.Anything)
	})

	t.Run("Capacity drift does not fail the order", func(t *testing.T) {
		f := newFixture("0")
		f.orders.On("GetSession", ctx, orderDay, "042917").Return(paidSession(nil), nil)
		f.orders.On("CreateFromSession", ctx, mock.Anything).Return(true, nil)
		f.reservations.On("Commit", ctx, expected).Return(reservation.CapacityExceeded, nil)
		f.carts.On("Consume", ctx, userID, mock.Anything).Return(&cart.Cart{UserID: userID}, nil)

		assert.NoError(t, f.svc.HandlePaymentSucceeded(ctx, orderDay, "042917"))
	})

	t.Run("Store failure asks for redelivery", func(t *testing.T) {
		f := newFixture("0")
		f.orders.On("GetSession", ctx, orderDay, "042917").Return(paidSession(nil), nil)
		f.orders.On("CreateFromSession", ctx, mock.Anything).Return(true, nil)
		f.reservations.On("Commit", ctx, expected).Return(reservation.Committed, errors.New("db down"))

		assert.EqualError(t, f.svc.HandlePaymentSucceeded(ctx, orderDay, "042917"), "db down")
	})

	t.Run("Unknown session", func(t *testing.T) {
		f := newFixture("0")
		f.orders.On("GetSession", ctx, orderDay, "999999").Return(nil, order.ErrSessionNotFound)

		assert.NoError(t, f.svc.HandlePaymentSucceeded(ctx, orderDay, "999999"))
		f.reservations.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
	})
}

func TestService_HandlePaymentFailed(t *testing.T) {
	ctx := context.Background()
	f := newFixture("0")
	f.orders.On("MarkSessionFailed", ctx, orderDay, "042917").Return(true, nil)

	require.NoError(t, f.svc.HandlePaymentFailed(ctx, orderDay, "042917"))
	f.reservations.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func window(label string, slots ...slot.DriverSlot) slot.CustomerWindow {
	w := slot.CustomerWindow{Label: label, EarliestSlot: slots[0], Slots: slots}
	for _, s := range slots {
		w.SlotIDs = append(w.SlotIDs, s.ID)
		w.Capacity += s.MaxCapacity
		w.Load += s.CurrentLoad
	}
	return w
}

func TestService_Quote(t *testing.T) {
	ctx := context.Background()
	f := newFixture("0")
	f.carts.On("Get", ctx, userID).Return(testCart(), nil)
	f.slots.On("WindowsFor", ctx, orderDay).Return([]slot.CustomerWindow{
		window("6:00 PM", *liveSlot(0)),
		window("7:00 PM", slot.DriverSlot{ID: 5, Time: slot.TimeOfDay{Hour: 7, Meridiem: slot.PM}, MaxCapacity: 20, CurrentLoad: 12}),
	}, nil)
	f.coupons.On("Active", ctx, userID).Return(nil, errors.New("coupon store down"))

	q, err := f.svc.Quote(ctx, userID, orderDay)

	require.NoError(t, err)
	assert.Equal(t, 11.0, q.Load.TotalScore)
	assert.False(t, q.LargeOrder)
	require.Len(t, q.Windows, 2)
	assert.Equal(t, admission.StatusNormal, q.Windows[0].Status)
	assert.Equal(t, admission.StatusOver, q.Windows[1].Status)
	require.NotNil(t, q.Earliest)
	assert.Equal(t, "6:00 PM", q.Earliest.Window.Label)
	assert.Nil(t, q.Coupon)
	assert.Equal(t, 35.88, q.Pricing.Total)
}

func TestService_Quote_ShopFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture("0")
	f.carts.On("Get", ctx, userID).Return(testCart(), nil)
	f.slots.On("WindowsFor", ctx, mock.Anything).Return([]slot.CustomerWindow{
		window("6:00 PM", *liveSlot(15)),
	}, nil)
	f.coupons.On("Active", ctx, userID).Return(nil, nil)

	q, err := f.svc.Quote(ctx, userID, orderDay)

	require.NoError(t, err)
	assert.Nil(t, q.Earliest)
	assert.Equal(t, admission.StatusOver, q.Windows[0].Status)
}

func TestService_Evaluate(t *testing.T) {
	ctx := context.Background()
	f := newFixture("0")
	f.carts.On("Get", ctx, userID).Return(testCart(), nil)
	f.slots.On("WindowsFor", ctx, orderDay).Return([]slot.CustomerWindow{
		window("6:00 PM", *liveSlot(6)),
	}, nil)

	d, err := f.svc.Evaluate(ctx, userID, orderDay, "6:00 PM")

	require.NoError(t, err)
	assert.Equal(t, admission.StatusLarge, d.Status)
	assert.Equal(t, uint64(1), f.metrics.AdmissionLarge.Load())
}
