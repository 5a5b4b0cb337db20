package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Step numbers the wizard's three screens.
const (
	StepReview    = 1
	StepPayment   = 2
	StepConfirmed = 3
)

var (
	// ErrCompleted is returned for any action after the wizard reached
	// its terminal step.
	ErrCompleted = errors.New("checkout already completed")

	// ErrNotOnPayment is returned when payment is submitted from the
	// wrong step.
	ErrNotOnPayment = errors.New("not on the payment step")

	// ErrProcessing is returned while a charge is in flight.
	ErrProcessing = errors.New("payment in progress")

	// ErrNoPendingConfirmation is returned when a hosted-confirmation
	// callback arrives without a pending client secret.
	ErrNoPendingConfirmation = errors.New("no payment awaiting confirmation")
)

// CardFields are the payment inputs. Submission requires every field
// non-empty.
type CardFields struct {
	Name   string `json:"name"`
	Card   string `json:"card"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

// MissingFields lists the empty required fields, in display order.
func (c CardFields) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(c.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(c.Card) == "" {
		missing = append(missing, "card")
	}
	if strings.TrimSpace(c.Expiry) == "" {
		missing = append(missing, "expiry")
	}
	if strings.TrimSpace(c.CVV) == "" {
		missing = append(missing, "cvv")
	}
	return missing
}

// ValidationError reports missing payment fields. It is caught before
// any remote call and surfaced inline.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("checkout: missing required fields: %s", strings.Join(e.Missing, ", "))
}

// ChargeRequest is what the wizard hands to a payment processor.
type ChargeRequest struct {
	AmountCents    int64
	Currency       string
	CardholderName string
	Metadata       map[string]string
}

// ChargeResult reports how the processor handled the request. Either
// the charge completed (local simulated variant) or the processor
// issued a client secret and the hosted UI must confirm it.
type ChargeResult struct {
	Completed    bool
	ClientSecret string
}

// Processor executes the payment step. Implementations: a fully local
// simulated charge and a delegation to an external processor's hosted
// flow.
type Processor interface {
	Process(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// Wizard is the linear three-step checkout: review, payment,
// confirmed. The step only moves forward, one instance per checkout
// visit, nothing persisted across reloads.
type Wizard struct {
	mu        sync.Mutex
	step      int
	loading   bool
	selection Selection
	currency  string
	processor Processor
	pending   string // client secret awaiting hosted confirmation
	payerMail string
	logger    *logging.Logger
}

// NewWizard opens a checkout on the review step.
func NewWizard(selection Selection, currency string, processor Processor, logger *logging.Logger) *Wizard {
	if logger == nil {
		logger = logging.Default()
	}
	if currency == "" {
		currency = "usd"
	}
	return &Wizard{
		step:      StepReview,
		selection: selection,
		currency:  currency,
		processor: processor,
		logger:    logger,
	}
}

// SetCustomerEmail stamps the payer's email onto charge metadata so
// the provider can tie the transaction back to the account.
func (w *Wizard) SetCustomerEmail(email string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.payerMail = email
}

// Step returns the wizard's current step.
func (w *Wizard) Step() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Selection returns the order being checked out.
func (w *Wizard) Selection() Selection {
	return w.selection
}

// TotalCents returns the order total.
func (w *Wizard) TotalCents() int64 {
	return w.selection.TotalCents()
}

// Loading reports whether a charge is in flight.
func (w *Wizard) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// ContinueToPayment advances from review to payment.
func (w *Wizard) ContinueToPayment() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.step {
	case StepConfirmed:
		return ErrCompleted
	case StepPayment:
		return nil
	}
	w.step = StepPayment
	return nil
}

// CanSubmit reports whether the payment form is submittable: all card
// fields present and no charge in flight.
func (w *Wizard) CanSubmit(card CardFields) bool {
	w.mu.Lock()
	loading := w.loading
	step := w.step
	w.mu.Unlock()
	return step == StepPayment && !loading && len(card.MissingFields()) == 0
}

// SubmitPayment validates the card fields and runs the processor.
// Validation failures happen before any remote call. A completed
// charge advances to the confirmed step; a hosted-flow result parks
// the wizard on the payment step until ResolveHosted is called.
// Failures keep the step unchanged so the visitor can resubmit.
func (w *Wizard) SubmitPayment(ctx context.Context, card CardFields) (*ChargeResult, error) {
	if missing := card.MissingFields(); len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	w.mu.Lock()
	if w.step == StepConfirmed {
		w.mu.Unlock()
		return nil, ErrCompleted
	}
	if w.step != StepPayment {
		w.mu.Unlock()
		return nil, ErrNotOnPayment
	}
	if w.loading {
		w.mu.Unlock()
		return nil, ErrProcessing
	}
	w.loading = true
	metadata := map[string]string{
		"service_tier": string(w.selection.Tier),
	}
	if w.payerMail != "" {
		metadata["customer_email"] = w.payerMail
	}
	w.mu.Unlock()

	result, err := w.processor.Process(ctx, ChargeRequest{
		AmountCents:    w.selection.TotalCents(),
		Currency:       w.currency,
		CardholderName: card.Name,
		Metadata:       metadata,
	})

	w.mu.Lock()
	defer w.mu.Unlock()
	w.loading = false
	if err != nil {
		// Surfaced to the visitor; the step does not advance and no
		// automatic retry happens.
		return nil, fmt.Errorf("checkout: payment failed: %w", err)
	}
	if result.Completed {
		w.step = StepConfirmed
		w.logger.Info("checkout completed", "tier", w.selection.Tier, "total_cents", w.selection.TotalCents())
		return result, nil
	}
	w.pending = result.ClientSecret
	return result, nil
}

// ResolveHosted finishes a hosted payment confirmation. Success
// advances to confirmed; failure surfaces inline and the visitor may
// resubmit (the step does not advance).
func (w *Wizard) ResolveHosted(succeeded bool, reason string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step == StepConfirmed {
		return ErrCompleted
	}
	if w.pending == "" {
		return ErrNoPendingConfirmation
	}
	if !succeeded {
		w.pending = ""
		if reason == "" {
			reason = "payment was not confirmed"
		}
		return fmt.Errorf("checkout: %s", reason)
	}
	w.pending = ""
	w.step = StepConfirmed
	w.logger.Info("checkout completed via hosted confirmation", "tier", w.selection.Tier)
	return nil
}
