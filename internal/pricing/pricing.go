package pricing

import (
	"pickup-be/internal/cart"
	"pickup-be/internal/coupon"

	"github.com/shopspring/decimal"
)

const (
	TaxRate            = 0.08875
	TransactionFeeRate = 0.029
	TransactionFeeFlat = 0.30
	DeliveryFeeRate    = 0.20
)

// Breakdown holds unrounded amounts. Round only when showing or storing it.
type Breakdown struct {
	Subtotal         float64 `json:"subtotal"`
	DeliveryFee      float64 `json:"delivery_fee"`
	SubtotalDiscount float64 `json:"subtotal_discount"`
	DeliveryDiscount float64 `json:"delivery_discount"`
	FinalSubtotal    float64 `json:"final_subtotal"`
	FinalDeliveryFee float64 `json:"final_delivery_fee"`
	Tax              float64 `json:"tax"`
	TransactionFee   float64 `json:"transaction_fee"`
	Total            float64 `json:"total"`
	CouponCategory   string  `json:"coupon_category,omitempty"`
}

// Quote prices a cart with the active coupon rule, which may be nil.
func Quote(c *cart.Cart, rule coupon.Rule) Breakdown {
	var items []cart.Item
	subtotal := 0.0
	if c != nil {
		items = c.Items
		subtotal = c.Subtotal()
	}

	charges := coupon.Charges{
		Subtotal:    subtotal,
		DeliveryFee: DeliveryFeeRate * subtotal,
	}
	res := coupon.Resolve(rule, charges, items)

	b := Breakdown{
		Subtotal:         charges.Subtotal,
		DeliveryFee:      charges.DeliveryFee,
		SubtotalDiscount: res.SubtotalDiscount,
		DeliveryDiscount: res.DeliveryDiscount,
		FinalSubtotal:    res.FinalSubtotal,
		FinalDeliveryFee: res.FinalDeliveryFee,
		CouponCategory:   res.Category,
	}
	b.Tax = TaxRate * b.FinalSubtotal
	b.TransactionFee = TransactionFeeRate*b.FinalSubtotal + TransactionFeeFlat
	b.Total = b.FinalSubtotal + b.FinalDeliveryFee + b.Tax + b.TransactionFee
	return b
}

// Rounded returns a copy with every amount rounded half-up to cents.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		Subtotal:         round2(b.Subtotal),
		DeliveryFee:      round2(b.DeliveryFee),
		SubtotalDiscount: round2(b.SubtotalDiscount),
		DeliveryDiscount: round2(b.DeliveryDiscount),
		FinalSubtotal:    round2(b.FinalSubtotal),
		FinalDeliveryFee: round2(b.FinalDeliveryFee),
		Tax:              round2(b.Tax),
		TransactionFee:   round2(b.TransactionFee),
		Total:            round2(b.Total),
		CouponCategory:   b.CouponCategory,
	}
}

// TotalCents is the amount charged through the payment processor.
func (b Breakdown) TotalCents() int64 {
	return decimal.NewFromFloat(b.Total).Round(2).Shift(2).IntPart()
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
