package coupon

import (
	"time"

	"github.com/google/uuid"
)

type Coupon struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	Rule          Rule       `json:"-"`
	Category      string     `json:"category"`
	Percent       float64    `json:"percent"`
	MaxUses       int        `json:"max_uses"`
	RemainingUses *int       `json:"remaining_uses,omitempty"`
	ValidFrom     *time.Time `json:"valid_from,omitempty"`
	ValidUntil    *time.Time `json:"valid_until,omitempty"`
	Active        bool       `json:"active"`
}

type UsageStatus string

const (
	// granted to the user but not yet claimed
	UsageAvailable UsageStatus = "available"
	// claimed into the wallet, selectable at checkout
	UsageRedeemed UsageStatus = "redeemed"
	// consumed by a paid order, terminal
	UsageApplied UsageStatus = "applied"
)

type Usage struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uint        `json:"user_id"`
	CouponID  int64       `json:"coupon_id"`
	Status    UsageStatus `json:"status"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}

type RedeemResult struct {
	Usage           *Usage  `json:"usage"`
	Coupon          *Coupon `json:"coupon"`
	AlreadyRedeemed bool    `json:"already_redeemed"`
}

// ActiveCoupon is the usage currently selected for checkout.
type ActiveCoupon struct {
	Usage  *Usage
	Coupon *Coupon
}
