package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcrafthub/client-portal/internal/catalog"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

type stubProcessor struct {
	result  *ChargeResult
	err     error
	calls   int
	lastReq ChargeRequest
}

func (s *stubProcessor) Process(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	s.calls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func validCard() CardFields {
	return CardFields{
		Name:   "Jordan Smith",
		Card:   "4242424242424242",
		Expiry: "12/27",
		CVV:    "123",
	}
}

func newTestWizard(t *testing.T, proc Processor, addons ...catalog.AddonID) *Wizard {
	t.Helper()
	sel, err := NewSelection(catalog.TierGrowth, addons)
	require.NoError(t, err)
	return NewWizard(sel, "usd", proc, logging.New("error"))
}

func TestSelectionTotals(t *testing.T) {
	sel, err := NewSelection(catalog.TierGrowth, []catalog.AddonID{catalog.AddonSEO})
	require.NoError(t, err)
	assert.Equal(t, int64(810000), sel.TotalCents())

	sel, err = NewSelection(catalog.TierStarter, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), sel.TotalCents())

	sel, err = NewSelection(catalog.TierEnterprise, []catalog.AddonID{
		catalog.AddonDesignSprint, catalog.AddonMobileApp,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2370000), sel.TotalCents())
}

func TestSelectionRejectsUnknownIDs(t *testing.T) {
	_, err := NewSelection("platinum", nil)
	assert.Error(t, err)

	_, err = NewSelection(catalog.TierGrowth, []catalog.AddonID{"blockchain"})
	assert.Error(t, err)
}

func TestSelectionDeduplicatesAddons(t *testing.T) {
	sel, err := NewSelection(catalog.TierGrowth, []catalog.AddonID{
		catalog.AddonSEO, catalog.AddonSEO, catalog.AddonSEO,
	})
	require.NoError(t, err)
	assert.Len(t, sel.Addons, 1)
	assert.Equal(t, int64(810000), sel.TotalCents())
}

func TestWizardStartsOnReview(t *testing.T) {
	w := newTestWizard(t, &stubProcessor{})
	assert.Equal(t, StepReview, w.Step())
}

func TestContinueToPayment(t *testing.T) {
	w := newTestWizard(t, &stubProcessor{})
	require.NoError(t, w.ContinueToPayment())
	assert.Equal(t, StepPayment, w.Step())

	// Repeat continue is a no-op, not an error.
	require.NoError(t, w.ContinueToPayment())
	assert.Equal(t, StepPayment, w.Step())
}

func TestSubmitPaymentRequiresAllCardFields(t *testing.T) {
	proc := &stubProcessor{result: &ChargeResult{Completed: true}}
	w := newTestWizard(t, proc)
	require.NoError(t, w.ContinueToPayment())

	card := validCard()
	card.CVV = ""
	_, err := w.SubmitPayment(context.Background(), card)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"cvv"}, verr.Missing)
	assert.Zero(t, proc.calls, "validation must happen before the processor runs")
	assert.Equal(t, StepPayment, w.Step())
}

func TestSubmitPaymentFromReviewStepFails(t *testing.T) {
	w := newTestWizard(t, &stubProcessor{result: &ChargeResult{Completed: true}})
	_, err := w.SubmitPayment(context.Background(), validCard())
	assert.ErrorIs(t, err, ErrNotOnPayment)
	assert.Equal(t, StepReview, w.Step())
}

func TestCompletedChargeAdvancesToConfirmed(t *testing.T) {
	proc := &stubProcessor{result: &ChargeResult{Completed: true}}
	w := newTestWizard(t, proc, catalog.AddonSEO)
	require.NoError(t, w.ContinueToPayment())

	result, err := w.SubmitPayment(context.Background(), validCard())
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, StepConfirmed, w.Step())
	assert.Equal(t, int64(810000), proc.lastReq.AmountCents)
	assert.Equal(t, "usd", proc.lastReq.Currency)
	assert.Equal(t, "growth", proc.lastReq.Metadata["service_tier"])
	assert.NotContains(t, proc.lastReq.Metadata, "customer_email")
}

func TestCustomerEmailCarriedInChargeMetadata(t *testing.T) {
	proc := &stubProcessor{result: &ChargeResult{Completed: true}}
	w := newTestWizard(t, proc)
	w.SetCustomerEmail("jordan@example.com")
	require.NoError(t, w.ContinueToPayment())

	_, err := w.SubmitPayment(context.Background(), validCard())
	require.NoError(t, err)
	assert.Equal(t, "jordan@example.com", proc.lastReq.Metadata["customer_email"])
}

func TestChargeFailureStaysOnPaymentStep(t *testing.T) {
	proc := &stubProcessor{err: errors.New("card declined")}
	w := newTestWizard(t, proc)
	require.NoError(t, w.ContinueToPayment())

	_, err := w.SubmitPayment(context.Background(), validCard())
	require.Error(t, err)
	assert.Equal(t, StepPayment, w.Step())
	assert.False(t, w.Loading())

	// The visitor can resubmit after the failure.
	proc.err = nil
	proc.result = &ChargeResult{Completed: true}
	_, err = w.SubmitPayment(context.Background(), validCard())
	require.NoError(t, err)
	assert.Equal(t, StepConfirmed, w.Step())
}

func TestHostedFlowParksOnPaymentUntilResolved(t *testing.T) {
	proc := &stubProcessor{result: &ChargeResult{ClientSecret: "pi_123_secret_abc"}}
	w := newTestWizard(t, proc)
	require.NoError(t, w.ContinueToPayment())

	result, err := w.SubmitPayment(context.Background(), validCard())
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, "pi_123_secret_abc", result.ClientSecret)
	assert.Equal(t, StepPayment, w.Step())

	require.NoError(t, w.ResolveHosted(true, ""))
	assert.Equal(t, StepConfirmed, w.Step())
}

func TestHostedFailureSurfacesInlineAndAllowsRetry(t *testing.T) {
	proc := &stubProcessor{result: &ChargeResult{ClientSecret: "pi_1_secret_x"}}
	w := newTestWizard(t, proc)
	require.NoError(t, w.ContinueToPayment())

	_, err := w.SubmitPayment(context.Background(), validCard())
	require.NoError(t, err)

	err = w.ResolveHosted(false, "your card was declined")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declined")
	assert.Equal(t, StepPayment, w.Step())

	// A resubmission starts a fresh pending confirmation.
	_, err = w.SubmitPayment(context.Background(), validCard())
	require.NoError(t, err)
	require.NoError(t, w.ResolveHosted(true, ""))
	assert.Equal(t, StepConfirmed, w.Step())
}

func TestResolveHostedWithoutPendingSecret(t *testing.T) {
	w := newTestWizard(t, &stubProcessor{})
	require.NoError(t, w.ContinueToPayment())
	assert.ErrorIs(t, w.ResolveHosted(true, ""), ErrNoPendingConfirmation)
}

func TestWizardNeverMovesBackward(t *testing.T) {
	proc := &stubProcessor{result: &ChargeResult{Completed: true}}
	w := newTestWizard(t, proc)
	require.NoError(t, w.ContinueToPayment())
	_, err := w.SubmitPayment(context.Background(), validCard())
	require.NoError(t, err)
	require.Equal(t, StepConfirmed, w.Step())

	assert.ErrorIs(t, w.ContinueToPayment(), ErrCompleted)
	_, err = w.SubmitPayment(context.Background(), validCard())
	assert.ErrorIs(t, err, ErrCompleted)
	assert.ErrorIs(t, w.ResolveHosted(true, ""), ErrCompleted)
	assert.Equal(t, StepConfirmed, w.Step())
}

func TestCanSubmit(t *testing.T) {
	w := newTestWizard(t, &stubProcessor{})
	assert.False(t, w.CanSubmit(validCard()), "review step is not submittable")

	require.NoError(t, w.ContinueToPayment())
	assert.True(t, w.CanSubmit(validCard()))
	assert.False(t, w.CanSubmit(CardFields{Name: "Jordan Smith"}))
}
