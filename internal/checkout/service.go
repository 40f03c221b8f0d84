package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pickup-be/internal/admission"
	"pickup-be/internal/cart"
	"pickup-be/internal/coupon"
	"pickup-be/internal/load"
	"pickup-be/internal/logger"
	"pickup-be/internal/metrics"
	"pickup-be/internal/order"
	"pickup-be/internal/payment"
	"pickup-be/internal/pricing"
	"pickup-be/internal/reservation"
	"pickup-be/internal/restaurant"
	"pickup-be/internal/slot"
	"pickup-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const maxCodeAttempts = 10

type Service interface {
	Quote(ctx context.Context, userID uint, date time.Time) (*Quote, error)
	Evaluate(ctx context.Context, userID uint, date time.Time, label string) (*admission.Decision, error)
	Begin(ctx context.Context, userID uint, date time.Time, slotID int64) (*BeginResult, error)

	HandlePaymentSucceeded(ctx context.Context, day time.Time, code string) error
	HandlePaymentFailed(ctx context.Context, day time.Time, code string) error
}

type Deps struct {
	Carts        cart.Service
	Slots        slot.Service
	Admission    *admission.Controller
	Restaurants  restaurant.Repository
	Coupons      coupon.Service
	Orders       order.Repository
	Reservations reservation.Service
	Payments     payment.Processor
	Metrics      *metrics.Checkout
	Currency     string
	Location     *time.Location
}

type service struct {
	Deps
	now      func() time.Time
	genCode  func() string
	currency string
}

func NewService(d Deps) Service {
	if d.Metrics == nil {
		d.Metrics = metrics.NewCheckout()
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	currency := strings.ToLower(d.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &service{
		Deps:     d,
		now:      time.Now,
		genCode:  utils.GenerateOrderCode,
		currency: currency,
	}
}

func (s *service) day(date time.Time) time.Time {
	return utils.DayOf(date.In(s.Location))
}

// activeRule returns the rule of the selected coupon, or nil. A coupon that
// can no longer be read never blocks checkout; it is priced without it.
func (s *service) activeRule(ctx context.Context, userID uint) (*coupon.ActiveCoupon, coupon.Rule) {
	ac, err := s.Coupons.Active(ctx, userID)
	if err != nil {
		logger.FromCtx(ctx).Warn("failed to load active coupon, pricing without it", zap.Error(err))
		return nil, nil
	}
	if ac == nil {
		return nil, nil
	}
	return ac, ac.Coupon.Rule
}

func (s *service) Quote(ctx context.Context, userID uint, date time.Time) (*Quote, error) {
	c, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	score := load.ScoreCart(c)

	windows, err := s.Slots.WindowsFor(ctx, date)
	if err != nil {
		return nil, err
	}
	options := make([]WindowOption, 0, len(windows))
	for _, w := range windows {
		options = append(options, WindowOption{
			Window: w,
			Status: admission.ClassifyWindow(score.TotalScore, w),
		})
	}

	var earliest *admission.Candidate
	if !c.IsEmpty() {
		earliest, err = s.Admission.FirstAvailable(ctx, score.TotalScore, date)
		if err != nil && !errors.Is(err, admission.ErrShopFull) {
			return nil, err
		}
	}

	ac, rule := s.activeRule(ctx, userID)

	return &Quote{
		Date:       s.day(date),
		Load:       score,
		Windows:    options,
		Earliest:   earliest,
		Coupon:     appliedCoupon(ac),
		Pricing:    pricing.Quote(c, rule).Rounded(),
		LargeOrder: score.IsOverloaded,
	}, nil
}

func (s *service) Evaluate(ctx context.Context, userID uint, date time.Time, label string) (*admission.Decision, error) {
	c, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}

	score := load.ScoreCart(c)
	decision, err := s.Admission.Evaluate(ctx, score.TotalScore, date, label)
	if err != nil {
		return nil, err
	}

	s.Metrics.ObserveAdmission(string(decision.Status))
	return decision, nil
}

// Begin revalidates the chosen slot and restaurants, prices the cart, opens
// a checkout session and creates the payment intent. Nothing is reserved
// here; capacity is only committed once payment succeeds.
func (s *service) Begin(ctx context.Context, userID uint, date time.Time, slotID int64) (*BeginResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Begin"),
		zap.Int64("slot_id", slotID),
	)

	// 1. Load cart
	c, err := s.Carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, cart.ErrCartEmpty
	}
	score := load.ScoreCart(c)
	orderDay := s.day(date)

	// 2. Revalidate
	live, err := s.revalidate(ctx, c, orderDay, slotID, score.TotalScore)
	if err != nil {
		s.Metrics.RevalidationFailed.Inc()
		log.Info("checkout revalidation failed", zap.Error(err))
		return nil, err
	}
	status := admission.Classify(score.TotalScore, live.MaxCapacity, live.CurrentLoad)

	// 3. Price
	ac, rule := s.activeRule(ctx, userID)
	quote := pricing.Quote(c, rule)
	rounded := quote.Rounded()

	session := &order.CheckoutSession{
		ID:           uuid.New(),
		OrderDay:     orderDay,
		UserID:       userID,
		Status:       order.CheckoutSessionStatusPending,
		Items:        c.Items,
		Pricing:      rounded,
		SlotID:       live.ID,
		RequiredLoad: score.TotalScore,
		CreatedAt:    s.now(),
	}
	if ac != nil {
		session.UsageID = &ac.Usage.ID
	}

	// 4. Allocate day-scoped code and persist session
	if err := s.createSession(ctx, session); err != nil {
		log.Error("failed to create checkout session", zap.Error(err))
		return nil, err
	}
	log = log.With(zap.String("order_code", session.Code))

	// 5. Payment intent
	intent, err := s.Payments.CreateIntent(ctx, payment.IntentRequest{
		Amount:   quote.TotalCents(),
		Currency: s.currency,
		Metadata: payment.Metadata{
			OrderCode:  session.Code,
			OrderDay:   orderDay.Format(time.DateOnly),
			Restaurant: strings.Join(c.RestaurantIDs(), ","),
			UserID:     strconv.FormatUint(uint64(userID), 10),
		},
		IdempotencyKey: "checkout-" + session.ID.String(),
	})
	if err != nil {
		log.Error("failed to create payment intent", zap.Error(err))
		if _, markErr := s.Orders.MarkSessionFailed(ctx, orderDay, session.Code); markErr != nil {
			log.Error("failed to mark session failed", zap.Error(markErr))
		}
		return nil, err
	}

	if err := s.Orders.AttachPaymentIntent(ctx, session.ID, intent.ID); err != nil {
		log.Error("failed to attach payment intent", zap.Error(err))
		return nil, err
	}

	log.Info("checkout started",
		zap.Float64("required_load", score.TotalScore),
		zap.String("admission", string(status)),
	)

	return &BeginResult{
		SessionID:    session.ID,
		OrderCode:    session.Code,
		OrderDay:     orderDay.Format(time.DateOnly),
		SlotID:       live.ID,
		Status:       status,
		Pricing:      rounded,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// revalidate re-reads the slot and the restaurants concurrently.
func (s *service) revalidate(ctx context.Context, c *cart.Cart, day time.Time, slotID int64, required float64) (*slot.DriverSlot, error) {
	var (
		live     *slot.DriverSlot
		inactive []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ds, err := s.Slots.Live(gctx, day, slotID)
		if errors.Is(err, slot.ErrSlotNotFound) {
			return fmt.Errorf("%w: slot %d is no longer offered", ErrSlotInvalidated, slotID)
		}
		if err != nil {
			return err
		}
		if required > ds.Available() {
			return fmt.Errorf("%w: %.2f available, %.2f required", ErrSlotInvalidated, ds.Available(), required)
		}
		live = ds
		return nil
	})
	g.Go(func() error {
		status, err := s.Restaurants.ActiveStatus(gctx, c.RestaurantIDs())
		if err != nil {
			return err
		}
		inactive = restaurant.Inactive(status)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(inactive) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrRestaurantInactive, strings.Join(inactive, ", "))
	}
	return live, nil
}

// createSession retries random codes against the same day until one is free.
// The unique index catches a concurrent checkout picking the same code.
func (s *service) createSession(ctx context.Context, session *order.CheckoutSession) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.genCode()

		exists, err := s.Orders.CodeExists(ctx, session.OrderDay, code)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		session.Code = code
		err = s.Orders.CreateSession(ctx, session)
		if errors.Is(err, order.ErrOrderCodeTaken) {
			continue
		}
		return err
	}
	return ErrCodeExhausted
}

// HandlePaymentSucceeded turns a paid session into an order and commits its
// capacity. Every step is idempotent so redelivered events are harmless.
func (s *service) HandlePaymentSucceeded(ctx context.Context, day time.Time, code string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "HandlePaymentSucceeded"),
		zap.String("order_code", code),
		zap.String("order_day", day.Format(time.DateOnly)),
	)

	// 1. Load session
	session, err := s.Orders.GetSession(ctx, day, code)
	if errors.Is(err, order.ErrSessionNotFound) {
		log.Warn("payment succeeded for unknown session")
		return nil
	}
	if err != nil {
		return err
	}

	// 2. Create order
	o := order.FromSession(session, s.now())
	transitioned, err := s.Orders.CreateFromSession(ctx, o)
	if err != nil {
		log.Error("failed to create order from session", zap.Error(err))
		return err
	}

	// 3. Commit capacity
	outcome, err := s.Reservations.Commit(ctx, reservation.Reservation{
		OrderDay:  session.OrderDay,
		OrderCode: session.Code,
		SlotID:    session.SlotID,
		Load:      session.RequiredLoad,
	})
	if err != nil {
		return err
	}
	if outcome == reservation.CapacityExceeded {
		log.Warn("order confirmed without capacity, needs reconciliation")
	}

	// 4. Consume coupon
	if session.UsageID != nil {
		if err := s.Coupons.MarkApplied(ctx, *session.UsageID); err != nil {
			log.Error("failed to mark coupon applied", zap.Error(err))
			return err
		}
	}

	// 5. Remove purchased lines from the cart, first delivery only
	if transitioned {
		if _, err := s.Carts.Consume(ctx, session.UserID, session.Items); err != nil {
			log.Warn("failed to consume cart after payment", zap.Error(err))
		}
	}

	log.Info("order confirmed", zap.Bool("first_delivery", transitioned))
	return nil
}

// HandlePaymentFailed releases nothing: no capacity was held.
func (s *service) HandlePaymentFailed(ctx context.Context, day time.Time, code string) error {
	changed, err := s.Orders.MarkSessionFailed(ctx, day, code)
	if err != nil {
		return err
	}
	logger.FromCtx(ctx).Info("payment failed for checkout session",
		zap.String("order_code", code),
		zap.Bool("changed", changed),
	)
	return nil
}
