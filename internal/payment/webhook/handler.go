package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pickup-be/internal/logger"
	"pickup-be/internal/metrics"
	"pickup-be/internal/payment"
	"pickup-be/internal/utils"

	"go.uber.org/zap"
)

const (
	provider        = "stripe"
	signatureHeader = "Stripe-Signature"
	maxBodyBytes    = 1 << 20

	EventSucceeded = "payment_intent.succeeded"
	EventFailed    = "payment_intent.payment_failed"
	EventCanceled  = "payment_intent.canceled"
)

// PaymentEvents receives payment outcomes. Both calls must be idempotent,
// deliveries are at least once.
type PaymentEvents interface {
	HandlePaymentSucceeded(ctx context.Context, day time.Time, code string) error
	HandlePaymentFailed(ctx context.Context, day time.Time, code string) error
}

// Event is the subset of the provider event we act on.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string           `json:"id"`
			Metadata payment.Metadata `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

type Handler struct {
	events    PaymentEvents
	processor payment.Processor
	repo      payment.Repository
	metrics   *metrics.Checkout
	loc       *time.Location
}

func NewWebhookHandler(
	events PaymentEvents,
	processor payment.Processor,
	repo payment.Repository,
	m *metrics.Checkout,
	loc *time.Location,
) *Handler {
	if m == nil {
		m = metrics.NewCheckout()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{events: events, processor: processor, repo: repo, metrics: m, loc: loc}
}

// PaymentWebhookHandler answers 2xx only once the event is handled, so the
// provider redelivers anything that failed.
func (h *Handler) PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromCtx(ctx).With(zap.String("handler", "payment_webhook"))

	// 1. Read body
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	// 2. Verify signature
	if err := h.processor.VerifySignature(r.Header.Get(signatureHeader), body); err != nil {
		log.Warn("rejected webhook signature", zap.Error(err))
		utils.WriteJSONError(w, "invalid signature", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	// 3. Parse event
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil || ev.ID == "" {
		utils.WriteJSONError(w, "invalid JSON payload", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	log = log.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	// 4. Store for dedupe
	webhookID, duplicate, err := h.repo.SaveWebhook(ctx, provider, ev.ID, ev.Type, body)
	if err != nil {
		log.Error("failed to save webhook", zap.Error(err))
		utils.WriteJSONError(w, "failed to save webhook", "INTERNAL", http.StatusInternalServerError)
		return
	}
	if duplicate {
		h.metrics.DuplicateWebhooks.Inc()
		log.Info("duplicate webhook ignored")
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	// 5. Dispatch
	err = h.dispatch(ctx, ev)
	if errors.Is(err, errIgnored) {
		if markErr := h.repo.MarkWebhookProcessed(ctx, webhookID); markErr != nil {
			log.Error("failed to mark webhook processed", zap.Error(markErr))
		}
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err != nil {
		log.Error("webhook processing failed", zap.Error(err))
		if markErr := h.repo.MarkWebhookFailed(ctx, webhookID, err.Error()); markErr != nil {
			log.Error("failed to mark webhook failed", zap.Error(markErr))
		}
		utils.WriteJSONError(w, "failed to process webhook", "INTERNAL", http.StatusInternalServerError)
		return
	}

	if err := h.repo.MarkWebhookProcessed(ctx, webhookID); err != nil {
		log.Error("failed to mark webhook processed", zap.Error(err))
	}
	log.Info("webhook processed")
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var errIgnored = errors.New("event ignored")

func (h *Handler) dispatch(ctx context.Context, ev Event) error {
	var handle func(context.Context, time.Time, string) error
	switch ev.Type {
	case EventSucceeded:
		handle = h.events.HandlePaymentSucceeded
	case EventFailed, EventCanceled:
		handle = h.events.HandlePaymentFailed
	default:
		return errIgnored
	}

	meta := ev.Data.Object.Metadata
	if meta.OrderCode == "" || meta.OrderDay == "" {
		logger.FromCtx(ctx).Warn("payment event without order metadata",
			zap.String("intent_id", ev.Data.Object.ID),
		)
		return errIgnored
	}
	day, err := time.ParseInLocation(time.DateOnly, meta.OrderDay, h.loc)
	if err != nil {
		return errIgnored
	}

	return handle(ctx, day, meta.OrderCode)
}
