package order

import (
	"time"

	"pickup-be/internal/cart"
	"pickup-be/internal/pricing"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	StatusConfirmed OrderStatus = "CONFIRMED"
)

type Order struct {
	ID           uuid.UUID         `json:"id"`
	Code         string            `json:"code"`
	OrderDay     time.Time         `json:"order_day"`
	UserID       uint              `json:"user_id"`
	SessionID    uuid.UUID         `json:"session_id"`
	SlotID       int64             `json:"slot_id"`
	RequiredLoad float64           `json:"required_load"`
	Items        []cart.Item       `json:"items"`
	Pricing      pricing.Breakdown `json:"pricing"`
	Status       OrderStatus       `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}

// FromSession snapshots a paid session into an order.
func FromSession(s *CheckoutSession, now time.Time) *Order {
	return &Order{
		ID:           uuid.New(),
		Code:         s.Code,
		OrderDay:     s.OrderDay,
		UserID:       s.UserID,
		SessionID:    s.ID,
		SlotID:       s.SlotID,
		RequiredLoad: s.RequiredLoad,
		Items:        s.Items,
		Pricing:      s.Pricing,
		Status:       StatusConfirmed,
		CreatedAt:    now,
	}
}
