package checkout

import (
	"time"

	"pickup-be/internal/admission"
	"pickup-be/internal/coupon"
	"pickup-be/internal/load"
	"pickup-be/internal/pricing"
	"pickup-be/internal/slot"

	"github.com/google/uuid"
)

type WindowOption struct {
	Window slot.CustomerWindow `json:"window"`
	Status admission.Status    `json:"status"`
}

type AppliedCoupon struct {
	UsageID  uuid.UUID `json:"usage_id"`
	Code     string    `json:"code"`
	Category string    `json:"category"`
}

type Quote struct {
	Date    time.Time         `json:"date"`
	Load    load.Score        `json:"load"`
	Windows []WindowOption    `json:"windows"`
	Coupon  *AppliedCoupon    `json:"coupon,omitempty"`
	Pricing pricing.Breakdown `json:"pricing"`

	// Earliest is the first window in the horizon that fits the cart, or
	// nil when the shop is full.
	Earliest *admission.Candidate `json:"earliest,omitempty"`

	// LargeOrder is advisory only; hard rejection happens per slot.
	LargeOrder bool `json:"large_order"`
}

type BeginResult struct {
	SessionID    uuid.UUID         `json:"session_id"`
	OrderCode    string            `json:"order_code"`
	OrderDay     string            `json:"order_day"`
	SlotID       int64             `json:"slot_id"`
	Status       admission.Status  `json:"status"`
	Pricing      pricing.Breakdown `json:"pricing"`
	ClientSecret string            `json:"client_secret"`
}

func appliedCoupon(ac *coupon.ActiveCoupon) *AppliedCoupon {
	if ac == nil {
		return nil
	}
	return &AppliedCoupon{
		UsageID:  ac.Usage.ID,
		Code:     ac.Coupon.Code,
		Category: ac.Coupon.Rule.Category(),
	}
}
