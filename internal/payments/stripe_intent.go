package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devcrafthub/client-portal/internal/checkout"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

var stripeTracer = otel.Tracer("devcraft.internal.payments.stripe")

// StripeIntentService creates Stripe PaymentIntents. The returned
// client secret drives the hosted confirmation step in the browser.
type StripeIntentService struct {
	secretKey  string
	currency   string
	baseURL    string
	apiVersion string
	httpClient *http.Client
	logger     *logging.Logger
	dryRun     bool
}

// NewStripeIntentService creates a PaymentIntent client.
func NewStripeIntentService(secretKey, currency string, logger *logging.Logger) *StripeIntentService {
	if logger == nil {
		logger = logging.Default()
	}
	if currency == "" {
		currency = "usd"
	}
	return &StripeIntentService{
		secretKey:  secretKey,
		currency:   currency,
		baseURL:    "https://api.stripe.com",
		apiVersion: "2024-12-18.acacia",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the Stripe API base URL (for testing).
func (s *StripeIntentService) WithBaseURL(baseURL string) *StripeIntentService {
	if baseURL != "" {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
	return s
}

// WithDryRun enables dry-run mode (returns a synthetic client secret
// without calling Stripe).
func (s *StripeIntentService) WithDryRun(enabled bool) *StripeIntentService {
	s.dryRun = enabled
	return s
}

// IntentParams describes the PaymentIntent to create.
type IntentParams struct {
	AmountCents int64
	Currency    string
	Metadata    map[string]string
}

// Intent is the subset of Stripe's PaymentIntent we need.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// CreateIntent creates a PaymentIntent and returns its client secret.
func (s *StripeIntentService) CreateIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	ctx, span := stripeTracer.Start(ctx, "stripe.create_payment_intent")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("devcraft.amount_cents", params.AmountCents),
		attribute.String("devcraft.currency", params.Currency),
	)

	if s.dryRun {
		fakeID := "pi_dryrun_" + uuid.New().String()[:8]
		s.logger.Info("stripe dry run: skipping payment intent creation",
			"amount_cents", params.AmountCents)
		return &Intent{
			ID:           fakeID,
			ClientSecret: fakeID + "_secret_" + uuid.New().String()[:8],
		}, nil
	}

	currency := params.Currency
	if currency == "" {
		currency = s.currency
	}

	// Build form-encoded body for the Stripe API
	form := url.Values{}
	form.Set("amount", fmt.Sprintf("%d", params.AmountCents))
	form.Set("currency", strings.ToLower(currency))
	form.Set("automatic_payment_methods[enabled]", "true")
	for key, value := range params.Metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	apiURL := s.baseURL + "/v1/payment_intents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("payments: stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.secretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Stripe-Version", s.apiVersion)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payments: stripe http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("payments: stripe api status %d: %s", resp.StatusCode, string(body))
	}

	var parsed Intent
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("payments: stripe decode: %w", err)
	}
	if parsed.ClientSecret == "" {
		return nil, fmt.Errorf("payments: stripe response missing client secret")
	}

	return &parsed, nil
}

// Process implements checkout.Processor by creating a PaymentIntent
// and handing the client secret back for hosted confirmation.
func (s *StripeIntentService) Process(ctx context.Context, req checkout.ChargeRequest) (*checkout.ChargeResult, error) {
	intent, err := s.CreateIntent(ctx, IntentParams{
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return &checkout.ChargeResult{ClientSecret: intent.ClientSecret}, nil
}
