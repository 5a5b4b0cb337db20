package payments

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/devcrafthub/client-portal/internal/observability/metrics"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// IntentCreator creates a payment intent with a Stripe-compatible
// provider.
type IntentCreator interface {
	CreateIntent(ctx context.Context, params IntentParams) (*Intent, error)
}

// IntentHandler serves the payment-intent endpoint consumed by the
// checkout page's hosted payment step.
type IntentHandler struct {
	intents   IntentCreator
	logger    *logging.Logger
	metrics   *metrics.SiteMetrics
	minAmount int64
	currency  string
}

type intentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type intentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewIntentHandler(intents IntentCreator, logger *logging.Logger, minAmount int64, currency string) *IntentHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if currency == "" {
		currency = "usd"
	}
	return &IntentHandler{
		intents:   intents,
		logger:    logger,
		minAmount: minAmount,
		currency:  currency,
	}
}

// WithMetrics attaches intent counters.
func (h *IntentHandler) WithMetrics(m *metrics.SiteMetrics) *IntentHandler {
	h.metrics = m
	return h
}

// CreateIntent handles POST /api/create-payment-intent. Any other
// method gets 405 with an Allow header; amounts below the provider
// minimum get 400 before any provider call.
func (h *IntentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req intentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Amount < h.minAmount {
		h.metrics.ObservePaymentIntent("rejected")
		writeJSONError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	currency := req.Currency
	if currency == "" {
		currency = h.currency
	}

	intent, err := h.intents.CreateIntent(r.Context(), IntentParams{
		AmountCents: req.Amount,
		Currency:    currency,
		Metadata:    req.Metadata,
	})
	if err != nil {
		h.logger.Error("payment intent creation failed", "error", err, "amount_cents", req.Amount)
		h.metrics.ObservePaymentIntent("error")
		writeJSONError(w, http.StatusInternalServerError, "failed to create payment intent")
		return
	}

	h.metrics.ObservePaymentIntent("created")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(intentResponse{ClientSecret: intent.ClientSecret})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: message})
}
