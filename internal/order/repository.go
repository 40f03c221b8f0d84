package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"pickup-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	// CodeExists reports whether code is already used on day.
	CodeExists(ctx context.Context, day time.Time, code string) (bool, error)
	CreateSession(ctx context.Context, s *CheckoutSession) error
	AttachPaymentIntent(ctx context.Context, sessionID uuid.UUID, intentID string) error
	GetSession(ctx context.Context, day time.Time, code string) (*CheckoutSession, error)
	MarkSessionFailed(ctx context.Context, day time.Time, code string) (bool, error)

	// CreateFromSession marks the session paid and inserts its order in one
	// transaction. The bool reports whether this call did the transition.
	CreateFromSession(ctx context.Context, o *Order) (bool, error)
	GetByCode(ctx context.Context, day time.Time, code string) (*Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func (r *repository) CodeExists(ctx context.Context, day time.Time, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM checkout_sessions
			WHERE order_day = $1 AND code = $2
		)
	`, day, code).Scan(&exists)
	return exists, err
}

func (r *repository) CreateSession(ctx context.Context, s *CheckoutSession) error {
	items, err := json.Marshal(s.Items)
	if err != nil {
		return err
	}
	pricing, err := json.Marshal(s.Pricing)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO checkout_sessions (
			id, code, order_day, user_id, status,
			items, pricing, slot_id, required_load, coupon_usage_id,
			created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		s.ID, s.Code, s.OrderDay, s.UserID, string(s.Status),
		items, pricing, s.SlotID, s.RequiredLoad, s.UsageID,
		s.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrOrderCodeTaken
	}
	return err
}

func (r *repository) AttachPaymentIntent(ctx context.Context, sessionID uuid.UUID, intentID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET payment_intent_id = $1
		WHERE id = $2
	`, intentID, sessionID)
	return err
}

func (r *repository) GetSession(ctx context.Context, day time.Time, code string) (*CheckoutSession, error) {
	var (
		s        CheckoutSession
		status   string
		items    []byte
		pricing  []byte
		usageID  uuid.NullUUID
		intentID sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, order_day, user_id, status,
			items, pricing, slot_id, required_load, coupon_usage_id,
			payment_intent_id, created_at
		FROM checkout_sessions
		WHERE order_day = $1 AND code = $2
	`, day, code).Scan(
		&s.ID, &s.Code, &s.OrderDay, &s.UserID, &status,
		&items, &pricing, &s.SlotID, &s.RequiredLoad, &usageID,
		&intentID, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	s.Status = CheckoutSessionStatus(status)
	if usageID.Valid {
		s.UsageID = &usageID.UUID
	}
	if intentID.Valid {
		s.PaymentIntentID = &intentID.String
	}
	if err := json.Unmarshal(items, &s.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pricing, &s.Pricing); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) MarkSessionFailed(ctx context.Context, day time.Time, code string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = 'FAILED'
		WHERE order_day = $1 AND code = $2 AND status = 'PENDING'
	`, day, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *repository) CreateFromSession(ctx context.Context, o *Order) (bool, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return false, err
	}
	pricing, err := json.Marshal(o.Pricing)
	if err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// 1. Mark session as paid. A payment may succeed after an earlier
	// failure event for the same intent.
	res, err := tx.ExecContext(ctx, `
		UPDATE checkout_sessions
		SET status = 'PAID'
		WHERE id = $1 AND status IN ('PENDING', 'FAILED')
	`, o.SessionID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	// 2. Insert order
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, code, order_day, user_id, checkout_session_id,
			slot_id, required_load, items, pricing, total,
			status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (order_day, code) DO NOTHING
	`,
		o.ID, o.Code, o.OrderDay, o.UserID, o.SessionID,
		o.SlotID, o.RequiredLoad, items, pricing, o.Pricing.Total,
		string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}

	if n == 0 {
		logger.FromCtx(ctx).Info("checkout session already paid",
			zap.String("order_code", o.Code),
		)
	}
	return n > 0, nil
}

func (r *repository) GetByCode(ctx context.Context, day time.Time, code string) (*Order, error) {
	var (
		o       Order
		status  string
		items   []byte
		pricing []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, order_day, user_id, checkout_session_id,
			slot_id, required_load, items, pricing, status, created_at
		FROM orders
		WHERE order_day = $1 AND code = $2
	`, day, code).Scan(
		&o.ID, &o.Code, &o.OrderDay, &o.UserID, &o.SessionID,
		&o.SlotID, &o.RequiredLoad, &items, &pricing, &status, &o.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Status = OrderStatus(status)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(pricing, &o.Pricing); err != nil {
		return nil, err
	}
	return &o, nil
}
