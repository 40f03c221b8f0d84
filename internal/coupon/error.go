package coupon

import "errors"

var (
	// -- Redemption --
	ErrInvalidCoupon      = errors.New("invalid coupon")
	ErrExpiredCoupon      = errors.New("coupon expired")
	ErrUsageLimitReached  = errors.New("coupon usage limit reached")
	ErrCouponCodeRequired = errors.New("coupon code is required")

	// -- Wallet --
	ErrUsageNotFound = errors.New("coupon usage not found")
)
