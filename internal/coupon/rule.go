package coupon

import (
	"fmt"

	"pickup-be/internal/cart"
)

// Wire categories as stored on coupons.
const (
	CategoryDeliveryFee   = "delivery-fee"
	CategoryReferral      = "referral"
	CategoryDeliveryFree  = "delivery-free" // legacy alias of referral
	CategoryRestaurantFee = "restaurant-fee"
	CategoryDevFee        = "dev-fee"
	CategoryItemFee       = "item-fee"
	CategoryPercentage    = "percentage"
)

// Charges are the pre-discount amounts a rule works against.
type Charges struct {
	Subtotal    float64
	DeliveryFee float64
}

type Discount struct {
	Subtotal float64
	Delivery float64
}

// Rule is the behaviour of one coupon category. The set of variants is
// closed: apply is unexported so only this package can add one.
type Rule interface {
	Category() string
	apply(ch Charges, items []cart.Item) Discount
}

// DeliveryFee waives the whole delivery fee.
type DeliveryFee struct{}

// Referral takes Percent off the delivery fee.
type Referral struct {
	Percent float64
}

// RestaurantFee takes Percent off the whole subtotal when the cart holds
// anything from RestaurantID.
type RestaurantFee struct {
	Percent      float64
	RestaurantID string
}

// DevFee makes the order free.
type DevFee struct{}

// ItemFee takes Percent off every line of MenuItemID from RestaurantID.
type ItemFee struct {
	Percent      float64
	MenuItemID   string
	RestaurantID string
}

// Percentage takes Percent off the subtotal.
type Percentage struct {
	Percent float64
}

func (DeliveryFee) Category() string   { return CategoryDeliveryFee }
func (Referral) Category() string      { return CategoryReferral }
func (RestaurantFee) Category() string { return CategoryRestaurantFee }
func (DevFee) Category() string        { return CategoryDevFee }
func (ItemFee) Category() string       { return CategoryItemFee }
func (Percentage) Category() string    { return CategoryPercentage }

func (DeliveryFee) apply(ch Charges, _ []cart.Item) Discount {
	return Discount{Delivery: ch.DeliveryFee}
}

func (r Referral) apply(ch Charges, _ []cart.Item) Discount {
	return Discount{Delivery: ch.DeliveryFee * r.Percent / 100}
}

func (r RestaurantFee) apply(ch Charges, items []cart.Item) Discount {
	for _, it := range items {
		if it.RestaurantID == r.RestaurantID {
			return Discount{Subtotal: ch.Subtotal * r.Percent / 100}
		}
	}
	return Discount{}
}

func (DevFee) apply(ch Charges, _ []cart.Item) Discount {
	return Discount{Subtotal: ch.Subtotal, Delivery: ch.DeliveryFee}
}

func (r ItemFee) apply(_ Charges, items []cart.Item) Discount {
	var d Discount
	for _, it := range items {
		if it.MenuItemID == r.MenuItemID && it.RestaurantID == r.RestaurantID {
			d.Subtotal += it.LineTotal() * r.Percent / 100
		}
	}
	return d
}

func (r Percentage) apply(ch Charges, _ []cart.Item) Discount {
	return Discount{Subtotal: ch.Subtotal * r.Percent / 100}
}

// ParseRule builds the rule for a stored coupon. Unknown categories fall back
// to a plain percentage off the subtotal.
func ParseRule(category string, percent float64, restaurantID, menuItemID *string) (Rule, error) {
	switch category {
	case CategoryDeliveryFee:
		return DeliveryFee{}, nil
	case CategoryReferral, CategoryDeliveryFree:
		return Referral{Percent: percent}, nil
	case CategoryRestaurantFee:
		if restaurantID == nil || *restaurantID == "" {
			return nil, fmt.Errorf("%s coupon without restaurant id: %w", category, ErrInvalidCoupon)
		}
		return RestaurantFee{Percent: percent, RestaurantID: *restaurantID}, nil
	case CategoryDevFee:
		return DevFee{}, nil
	case CategoryItemFee:
		if restaurantID == nil || *restaurantID == "" || menuItemID == nil || *menuItemID == "" {
			return nil, fmt.Errorf("%s coupon without item reference: %w", category, ErrInvalidCoupon)
		}
		return ItemFee{Percent: percent, MenuItemID: *menuItemID, RestaurantID: *restaurantID}, nil
	default:
		return Percentage{Percent: percent}, nil
	}
}

// Resolution is a rule evaluated against one cart, already clamped.
type Resolution struct {
	Category         string  `json:"category,omitempty"`
	SubtotalDiscount float64 `json:"subtotal_discount"`
	DeliveryDiscount float64 `json:"delivery_discount"`
	FinalSubtotal    float64 `json:"final_subtotal"`
	FinalDeliveryFee float64 `json:"final_delivery_fee"`
}

// Resolve applies rule to the charges. A nil rule means no coupon is active.
// Neither final component ever goes below zero.
func Resolve(rule Rule, ch Charges, items []cart.Item) Resolution {
	res := Resolution{
		FinalSubtotal:    ch.Subtotal,
		FinalDeliveryFee: ch.DeliveryFee,
	}
	if rule == nil {
		return res
	}

	d := rule.apply(ch, items)
	res.Category = rule.Category()
	res.SubtotalDiscount = clamp(d.Subtotal, ch.Subtotal)
	res.DeliveryDiscount = clamp(d.Delivery, ch.DeliveryFee)
	res.FinalSubtotal = max(0, ch.Subtotal-res.SubtotalDiscount)
	res.FinalDeliveryFee = max(0, ch.DeliveryFee-res.DeliveryDiscount)
	return res
}

func clamp(discount, base float64) float64 {
	if discount < 0 {
		return 0
	}
	if base < 0 {
		return 0
	}
	return min(discount, base)
}
