package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var couponCols = []string{
	"id", "code", "category", "percentage", "restaurant_id", "menu_item_id",
	"max_uses", "remaining_uses", "valid_from", "valid_until", "active",
}

func TestRepository_GetByCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Builds rule from row", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("HALF").
			WillReturnRows(sqlmock.NewRows(couponCols).
				AddRow(1, "HALF", "restaurant-fee", 50.0, "r1", nil, 1, nil, now, nil, true))

		c, err := repo.GetByCode(ctx, "HALF")

		require.NoError(t, err)
		assert.Equal(t, RestaurantFee{Percent: 50, RestaurantID: "r1"}, c.Rule)
		assert.Nil(t, c.RemainingUses)
		assert.Nil(t, c.ValidUntil)
	})

	t.Run("Remaining uses counter", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("FRIEND").
			WillReturnRows(sqlmock.NewRows(couponCols).
				AddRow(2, "FRIEND", "delivery-free", 100.0, nil, nil, 0, 3, now, now.Add(time.Hour), true))

		c, err := repo.GetByCode(ctx, "FRIEND")

		require.NoError(t, err)
		assert.Equal(t, Referral{Percent: 100}, c.Rule)
		require.NotNil(t, c.RemainingUses)
		assert.Equal(t, 3, *c.RemainingUses)
		assert.NotNil(t, c.ValidUntil)
	})

	t.Run("Null start date", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("FREEDEL").
			WillReturnRows(sqlmock.NewRows(couponCols).
				AddRow(5, "FREEDEL", "delivery-fee", 0.0, nil, nil, 1, nil, nil, nil, true))

		c, err := repo.GetByCode(ctx, "FREEDEL")

		require.NoError(t, err)
		assert.Equal(t, DeliveryFee{}, c.Rule)
		assert.Nil(t, c.ValidFrom)
		assert.Nil(t, c.ValidUntil)
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("NONE").
			WillReturnRows(sqlmock.NewRows(couponCols))

		c, err := repo.GetByCode(ctx, "NONE")
		assert.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("Malformed rule", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM coupons WHERE code = \$1`).
			WithArgs("BROKEN").
			WillReturnRows(sqlmock.NewRows(couponCols).
				AddRow(3, "BROKEN", "item-fee", 10.0, "r1", nil, 1, nil, now, nil, true))

		_, err := repo.GetByCode(ctx, "BROKEN")
		assert.ErrorIs(t, err, ErrInvalidCoupon)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_CreateUsage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	u := &Usage{ID: uuid.New(), UserID: 1, CouponID: 2, Status: UsageRedeemed, CreatedAt: time.Now()}

	t.Run("Inserted", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO coupon_usages .* ON CONFLICT \(user_id, coupon_id\) WHERE status <> 'applied' DO NOTHING RETURNING id`).
			WithArgs(u.ID, u.UserID, u.CouponID, "redeemed", u.CreatedAt).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(u.ID.String()))

		created, err := repo.CreateUsage(ctx, u)
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("Conflict", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO coupon_usages`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		created, err := repo.CreateUsage(ctx, u)
		require.NoError(t, err)
		assert.False(t, created)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Activate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	usageID := uuid.New()

	t.Run("Switches selection", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE coupon_usages SET active = false WHERE user_id = \$1 AND active = true`).
			WithArgs(uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE coupon_usages SET active = true WHERE id = \$1 AND user_id = \$2 AND status = 'redeemed'`).
			WithArgs(usageID, uint(1)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.Activate(ctx, 1, usageID))
	})

	t.Run("Foreign or applied usage", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE coupon_usages SET active = false`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`UPDATE coupon_usages SET active = true`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		assert.ErrorIs(t, repo.Activate(ctx, 1, usageID), ErrUsageNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	ctx := context.Background()
	usageID := uuid.New()

	t.Run("Consumes usage and counter", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE coupon_usages SET status = 'applied'`).
			WithArgs(usageID, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"coupon_id"}).AddRow(int64(5)))
		mock.ExpectExec(`UPDATE coupons SET remaining_uses = remaining_uses - 1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, repo.MarkApplied(ctx, usageID))
	})

	t.Run("Second callback is a no-op", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`UPDATE coupon_usages SET status = 'applied'`).
			WithArgs(usageID, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"coupon_id"}))
		mock.ExpectRollback()

		assert.NoError(t, repo.MarkApplied(ctx, usageID))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
