package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pickup-be/internal/logger"

	"go.uber.org/zap"
)

const (
	defaultBaseURL     = "https://api.stripe.com"
	signatureTolerance = 5 * time.Minute
)

type StripeConfig struct {
	SecretKey     string
	BaseURL       string
	WebhookSecret string
	// AllowUnsigned accepts webhooks without verification when no
	// WebhookSecret is set. Only honoured in development.
	AllowUnsigned bool
}

type stripeGateway struct {
	secretKey     string
	baseURL       string
	webhookSecret string
	allowUnsigned bool
	httpClient    *http.Client
	now           func() time.Time
}

// ----------------- Constructor -----------------

func NewStripeGateway(cfg StripeConfig) Processor {
	if cfg.SecretKey == "" {
		logger.L().Warn("payment secret key is empty")
	}
	if cfg.WebhookSecret == "" {
		if cfg.AllowUnsigned {
			logger.L().Warn("webhook secret is empty, accepting unsigned webhooks")
		} else {
			logger.L().Warn("webhook secret is empty, all webhooks will be rejected")
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	return &stripeGateway{
		secretKey:     cfg.SecretKey,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		webhookSecret: cfg.WebhookSecret,
		allowUnsigned: cfg.AllowUnsigned,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		now: time.Now,
	}
}

// ----------------- CreateIntent -----------------

func (g *stripeGateway) CreateIntent(ctx context.Context, in IntentRequest) (*Intent, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("order_code", in.Metadata.OrderCode),
		zap.Int64("amount", in.Amount),
		zap.String("currency", in.Currency),
	)

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(in.Amount, 10))
	form.Set("currency", in.Currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	form.Set("metadata[order_code]", in.Metadata.OrderCode)
	form.Set("metadata[order_day]", in.Metadata.OrderDay)
	form.Set("metadata[restaurant]", in.Metadata.Restaurant)
	form.Set("metadata[user_id]", in.Metadata.UserID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		log.Error("failed creating request", zap.Error(err))
		return nil, err
	}
	req.SetBasicAuth(g.secretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if in.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", in.IdempotencyKey)
	}

	log.Info("creating payment intent")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("payment provider request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("failed to read response body", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		log.Error("payment provider unavailable",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("%w: status %d", ErrPaymentUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		log.Error("payment provider rejected intent",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", body),
		)
		return nil, fmt.Errorf("%w: status %d", ErrPaymentRejected, resp.StatusCode)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		log.Error("failed decoding payment intent", zap.Error(err))
		return nil, err
	}
	if intent.ClientSecret == "" {
		return nil, fmt.Errorf("%w: intent %s has no client secret", ErrPaymentRejected, intent.ID)
	}

	log.Info("payment intent created", zap.String("intent_id", intent.ID))
	return &intent, nil
}

// ----------------- Verify Signature -----------------

// VerifySignature checks a "t=<unix>,v1=<hex hmac>" header computed over
// "<t>.<payload>" with the webhook secret.
func (g *stripeGateway) VerifySignature(header string, payload []byte) error {
	if g.webhookSecret == "" {
		if g.allowUnsigned {
			return nil
		}
		return fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}

	var (
		ts   string
		sigs []string
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if age := g.now().Sub(time.Unix(unix, 0)); age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := Sign(g.webhookSecret, ts, payload)
	for _, s := range sigs {
		if hmac.Equal([]byte(s), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Sign computes the v1 signature for payload at timestamp ts.
func Sign(secret, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
