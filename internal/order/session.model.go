package order

import (
	"time"

	"pickup-be/internal/cart"
	"pickup-be/internal/pricing"

	"github.com/google/uuid"
)

type CheckoutSessionStatus string

const (
	CheckoutSessionStatusPending CheckoutSessionStatus = "PENDING"
	CheckoutSessionStatusPaid    CheckoutSessionStatus = "PAID"
	CheckoutSessionStatusFailed  CheckoutSessionStatus = "FAILED"
)

// CheckoutSession is the priced snapshot a payment intent is created for.
type CheckoutSession struct {
	ID       uuid.UUID
	Code     string
	OrderDay time.Time
	UserID   uint
	Status   CheckoutSessionStatus

	Items   []cart.Item
	Pricing pricing.Breakdown // rounded

	SlotID       int64
	RequiredLoad float64
	UsageID      *uuid.UUID

	PaymentIntentID *string
	CreatedAt       time.Time
}
