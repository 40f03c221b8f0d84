package coupon

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pickup-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id int64) (*Coupon, error)

	FindOpenUsage(ctx context.Context, userID uint, couponID int64) (*Usage, error)
	CountApplied(ctx context.Context, userID uint, couponID int64) (int, error)
	CreateUsage(ctx context.Context, u *Usage) (bool, error)
	MarkRedeemed(ctx context.Context, usageID uuid.UUID) error

	Activate(ctx context.Context, userID uint, usageID uuid.UUID) error
	Deactivate(ctx context.Context, userID uint) error
	GetActive(ctx context.Context, userID uint) (*Usage, error)
	MarkApplied(ctx context.Context, usageID uuid.UUID) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const couponColumns = `id, code, category, percentage, restaurant_id, menu_item_id,
	max_uses, remaining_uses, valid_from, valid_until, active`

const usageColumns = `id, user_id, coupon_id, status, active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoupon(row rowScanner) (*Coupon, error) {
	var (
		c            Coupon
		restaurantID sql.NullString
		menuItemID   sql.NullString
		remaining    sql.NullInt64
		validFrom    sql.NullTime
		validUntil   sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.Code, &c.Category, &c.Percent, &restaurantID, &menuItemID,
		&c.MaxUses, &remaining, &validFrom, &validUntil, &c.Active,
	); err != nil {
		return nil, err
	}
	if remaining.Valid {
		n := int(remaining.Int64)
		c.RemainingUses = &n
	}
	if validFrom.Valid {
		c.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		c.ValidUntil = &validUntil.Time
	}

	rule, err := ParseRule(c.Category, c.Percent, nullable(restaurantID), nullable(menuItemID))
	if err != nil {
		return nil, err
	}
	c.Rule = rule
	return &c, nil
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func scanUsage(row rowScanner) (*Usage, error) {
	var (
		u      Usage
		status string
	)
	if err := row.Scan(&u.ID, &u.UserID, &u.CouponID, &status, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Status = UsageStatus(status)
	return &u, nil
}

// GetByCode returns nil, nil when no coupon carries code.
func (r *repository) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1
	`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Coupon, error) {
	c, err := scanCoupon(r.db.QueryRowContext(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE id = $1
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// FindOpenUsage returns the user's non-terminal usage of a coupon, if any.
func (r *repository) FindOpenUsage(ctx context.Context, userID uint, couponID int64) (*Usage, error) {
	u, err := scanUsage(r.db.QueryRowContext(ctx, `
		SELECT `+usageColumns+`
		FROM coupon_usages
		WHERE user_id = $1 AND coupon_id = $2 AND status <> 'applied'
	`, userID, couponID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *repository) CountApplied(ctx context.Context, userID uint, couponID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM coupon_usages
		WHERE user_id = $1 AND coupon_id = $2 AND status = 'applied'
	`, userID, couponID).Scan(&n)
	return n, err
}

// CreateUsage inserts a redeemed usage. It reports false when a concurrent
// redemption already holds the open row for the same user and coupon.
func (r *repository) CreateUsage(ctx context.Context, u *Usage) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO coupon_usages (id, user_id, coupon_id, status, active, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		ON CONFLICT (user_id, coupon_id) WHERE status <> 'applied' DO NOTHING
		RETURNING id
	`, u.ID, u.UserID, u.CouponID, string(u.Status), u.CreatedAt).Scan(&u.ID)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *repository) MarkRedeemed(ctx context.Context, usageID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE coupon_usages
		SET status = 'redeemed'
		WHERE id = $1 AND status = 'available'
	`, usageID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Activate makes usageID the only active usage of the user.
func (r *repository) Activate(ctx context.Context, userID uint, usageID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Clear the previous selection
	if _, err := tx.ExecContext(ctx, `
		UPDATE coupon_usages
		SET active = false
		WHERE user_id = $1 AND active = true
	`, userID); err != nil {
		return err
	}

	// 2. Select the new one
	res, err := tx.ExecContext(ctx, `
		UPDATE coupon_usages
		SET active = true
		WHERE id = $1 AND user_id = $2 AND status = 'redeemed'
	`, usageID, userID)
	if err != nil {
		return err
	}
	if err := requireAffected(res); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *repository) Deactivate(ctx context.Context, userID uint) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE coupon_usages
		SET active = false
		WHERE user_id = $1 AND active = true
	`, userID)
	return err
}

// GetActive returns nil, nil when the user has no active usage.
func (r *repository) GetActive(ctx context.Context, userID uint) (*Usage, error) {
	u, err := scanUsage(r.db.QueryRowContext(ctx, `
		SELECT `+usageColumns+`
		FROM coupon_usages
		WHERE user_id = $1 AND active = true AND status = 'redeemed'
		LIMIT 1
	`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// MarkApplied consumes a usage. Applying an already applied usage is a no-op,
// so repeated payment callbacks never decrement the counter twice.
func (r *repository) MarkApplied(ctx context.Context, usageID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var couponID int64
	err = tx.QueryRowContext(ctx, `
		UPDATE coupon_usages
		SET status = 'applied', active = false, applied_at = $2
		WHERE id = $1 AND status <> 'applied'
		RETURNING coupon_id
	`, usageID, time.Now()).Scan(&couponID)
	if errors.Is(err, sql.ErrNoRows) {
		logger.FromCtx(ctx).Info("coupon usage already applied",
			zap.String("usage_id", usageID.String()),
		)
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE coupons
		SET remaining_uses = remaining_uses - 1
		WHERE id = $1 AND remaining_uses IS NOT NULL AND remaining_uses > 0
	`, couponID); err != nil {
		return err
	}

	return tx.Commit()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUsageNotFound
	}
	return nil
}
