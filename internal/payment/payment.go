package payment

import (
	"context"
	"errors"
)

// Processor is the external payment provider. The core never sees payment
// method details, only an intent and, later, its outcome.
type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	VerifySignature(header string, payload []byte) error
}

type Metadata struct {
	OrderCode  string `json:"order_code"`
	OrderDay   string `json:"order_day"`
	Restaurant string `json:"restaurant"`
	UserID     string `json:"user_id"`
}

type IntentRequest struct {
	Amount   int64 // minor units
	Currency string
	Metadata Metadata
	// IdempotencyKey makes retries of the same checkout reuse one intent.
	IdempotencyKey string
}

type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

var (
	// ErrPaymentUnavailable is retryable: the provider could not be reached
	// or answered with a server side error.
	ErrPaymentUnavailable = errors.New("payment provider unavailable")
	ErrPaymentRejected    = errors.New("payment request rejected")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)
