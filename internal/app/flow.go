package app

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/devcrafthub/client-portal/internal/booking"
	"github.com/devcrafthub/client-portal/internal/catalog"
	"github.com/devcrafthub/client-portal/internal/checkout"
	"github.com/devcrafthub/client-portal/internal/notify"
	"github.com/devcrafthub/client-portal/internal/observability/metrics"
	"github.com/devcrafthub/client-portal/internal/pages"
	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// ErrNoCheckout is returned for checkout actions before a package has
// been selected.
var ErrNoCheckout = errors.New("app: no checkout in progress")

// Flow is one visitor's pass through the site: the current page, the
// booking in progress, and the checkout in progress. A flow lives in
// memory and dies with the visit; signing out does not move the
// visitor off their page.
type Flow struct {
	ID string

	pages    *pages.Machine
	booking  *booking.Workflow
	manager  *session.Manager
	payments checkout.Processor
	currency string
	metrics  *metrics.SiteMetrics
	notify   *notify.Service
	logger   *logging.Logger

	mu          sync.Mutex
	checkout    *checkout.Wizard
	unsubscribe func()
}

// FlowConfig carries the shared dependencies every flow composes.
type FlowConfig struct {
	Calendar  *booking.Calendar
	Creator   booking.Creator
	Manager   *session.Manager
	Processor checkout.Processor
	Currency  string
	Metrics   *metrics.SiteMetrics
	Notify    *notify.Service
	Logger    *logging.Logger
}

// NewFlow opens a flow on the home page, synced to the current
// session.
func NewFlow(cfg FlowConfig) *Flow {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	f := &Flow{
		ID:       uuid.New().String(),
		pages:    pages.NewMachine(),
		booking:  booking.NewWorkflow(cfg.Calendar, cfg.Creator, logger),
		manager:  cfg.Manager,
		payments: cfg.Processor,
		currency: cfg.Currency,
		metrics:  cfg.Metrics,
		notify:   cfg.Notify,
		logger:   logger,
	}

	f.pages.OnTransition(func(from, to pages.Page) {
		f.metrics.ObservePageTransition(to.String())
		logger.Debug("page transition", "flow_id", f.ID, "from", from.String(), "to", to.String())
	})

	if cfg.Manager != nil {
		f.pages.ApplySession(cfg.Manager.Current())
		f.unsubscribe = cfg.Manager.Subscribe(func(s session.Session) {
			f.pages.ApplySession(s)
		})
	}
	return f
}

// Close detaches the flow from session updates.
func (f *Flow) Close() {
	if f.unsubscribe != nil {
		f.unsubscribe()
	}
}

// Pages exposes the page machine.
func (f *Flow) Pages() *pages.Machine { return f.pages }

// Booking exposes the booking workflow.
func (f *Flow) Booking() *booking.Workflow { return f.booking }

// Session returns the current session as this flow sees it.
func (f *Flow) Session() session.Session {
	if f.manager == nil {
		return session.Anonymous()
	}
	return f.manager.Current()
}

// StartCheckout validates the package selection and opens a wizard on
// the review step, replacing any earlier unfinished checkout.
func (f *Flow) StartCheckout(tier catalog.TierID, addons []catalog.AddonID) (*checkout.Wizard, error) {
	selection, err := checkout.NewSelection(tier, addons)
	if err != nil {
		return nil, err
	}
	w := checkout.NewWizard(selection, f.currency, f.payments, f.logger)

	f.mu.Lock()
	f.checkout = w
	f.mu.Unlock()

	f.pages.Visit(pages.Checkout)
	return w, nil
}

// Checkout returns the wizard in progress, if any.
func (f *Flow) Checkout() (*checkout.Wizard, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkout == nil {
		return nil, false
	}
	return f.checkout, true
}

// SubmitPayment runs the payment step of the current checkout and
// records a completion metric when the charge settles locally.
func (f *Flow) SubmitPayment(ctx context.Context, card checkout.CardFields) (*checkout.ChargeResult, error) {
	w, ok := f.Checkout()
	if !ok {
		return nil, ErrNoCheckout
	}
	w.SetCustomerEmail(f.Session().Email)
	result, err := w.SubmitPayment(ctx, card)
	if err != nil {
		return nil, err
	}
	if result.Completed {
		f.metrics.ObserveCheckoutCompleted("fake")
		f.sendReceipt(ctx, w)
	}
	return result, nil
}

// ResolveHostedPayment finishes a hosted confirmation for the current
// checkout.
func (f *Flow) ResolveHostedPayment(ctx context.Context, succeeded bool, reason string) error {
	w, ok := f.Checkout()
	if !ok {
		return ErrNoCheckout
	}
	if err := w.ResolveHosted(succeeded, reason); err != nil {
		return err
	}
	f.metrics.ObserveCheckoutCompleted("stripe")
	f.sendReceipt(ctx, w)
	return nil
}

func (f *Flow) sendReceipt(ctx context.Context, w *checkout.Wizard) {
	if f.notify == nil {
		return
	}
	summary := w.Selection().Describe()
	if err := f.notify.NotifyCheckoutCompleted(ctx, f.Session(), summary, w.TotalCents()); err != nil {
		f.logger.Warn("checkout receipt email failed", "flow_id", f.ID, "error", err)
	}
}

// ConfirmBooking runs the booking confirmation against the current
// session. An anonymous visitor is routed to the sign-up page.
func (f *Flow) ConfirmBooking(ctx context.Context) (*booking.ConfirmResult, error) {
	draft := f.booking.Draft()
	result, err := f.booking.Confirm(ctx, f.Session())
	if err != nil {
		f.metrics.ObserveBooking(string(draft.CallType), "failed")
		return nil, err
	}
	if result.Redirect != nil {
		f.pages.Visit(*result.Redirect)
		return result, nil
	}
	f.metrics.ObserveBooking(string(draft.CallType), "confirmed")
	if f.notify != nil && result.Booking != nil {
		if err := f.notify.NotifyBookingConfirmed(ctx, f.Session(), result.Booking); err != nil {
			f.logger.Warn("booking confirmation email failed", "flow_id", f.ID, "error", err)
		}
	}
	return result, nil
}

// Registry tracks live flows by id.
type Registry struct {
	mu    sync.Mutex
	flows map[string]*Flow
	cfg   FlowConfig
}

// NewRegistry creates a flow registry with shared dependencies.
func NewRegistry(cfg FlowConfig) *Registry {
	return &Registry{
		flows: make(map[string]*Flow),
		cfg:   cfg,
	}
}

// Open creates and tracks a new flow.
func (r *Registry) Open() *Flow {
	f := NewFlow(r.cfg)
	r.mu.Lock()
	r.flows[f.ID] = f
	r.mu.Unlock()
	return f
}

// Get looks up a live flow.
func (r *Registry) Get(id string) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flows[id]
	return f, ok
}

// Drop closes and forgets a flow.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	f, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()
	if ok {
		f.Close()
	}
}
