package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/devcrafthub/client-portal/internal/booking"
	"github.com/devcrafthub/client-portal/internal/catalog"
	"github.com/devcrafthub/client-portal/internal/checkout"
	"github.com/devcrafthub/client-portal/internal/pages"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Handler serves the visitor flow endpoints: page navigation, the
// booking workflow, and the checkout wizard.
type Handler struct {
	registry *Registry
	logger   *logging.Logger
}

func NewHandler(registry *Registry, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{registry: registry, logger: logger}
}

// Routes mounts the flow endpoints.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.OpenFlow)
	r.Route("/{flowID}", func(r chi.Router) {
		r.Get("/", h.GetFlow)
		r.Delete("/", h.CloseFlow)
		r.Post("/visit", h.Visit)
		r.Route("/booking", func(r chi.Router) {
			r.Get("/calendar", h.BookingCalendar)
			r.Post("/call-type", h.BookingSelectCallType)
			r.Post("/month", h.BookingSetMonth)
			r.Post("/day", h.BookingSelectDay)
			r.Post("/time", h.BookingSelectTime)
			r.Post("/confirm", h.BookingConfirm)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", h.CheckoutStart)
			r.Post("/continue", h.CheckoutContinue)
			r.Post("/payment", h.CheckoutPayment)
			r.Post("/hosted", h.CheckoutHosted)
		})
	})
	return r
}

type flowState struct {
	FlowID        string         `json:"flow_id"`
	Page          string         `json:"page"`
	RenderedPage  string         `json:"rendered_page"`
	Authenticated bool           `json:"authenticated"`
	Booking       bookingState   `json:"booking"`
	Checkout      *checkoutState `json:"checkout,omitempty"`
}

type bookingState struct {
	State string        `json:"state"`
	Draft booking.Draft `json:"draft"`
}

type checkoutState struct {
	Step       int    `json:"step"`
	TotalCents int64  `json:"total_cents"`
	Summary    string `json:"summary"`
}

func (h *Handler) state(f *Flow) flowState {
	st := flowState{
		FlowID:        f.ID,
		Page:          f.Pages().Current().String(),
		RenderedPage:  f.Pages().Rendered().String(),
		Authenticated: f.Session().Authenticated,
		Booking: bookingState{
			State: f.Booking().State().String(),
			Draft: f.Booking().Draft(),
		},
	}
	if w, ok := f.Checkout(); ok {
		st.Checkout = &checkoutState{
			Step:       w.Step(),
			TotalCents: w.TotalCents(),
			Summary:    w.Selection().Describe(),
		}
	}
	return st
}

// OpenFlow handles POST /api/flows.
func (h *Handler) OpenFlow(w http.ResponseWriter, r *http.Request) {
	f := h.registry.Open()
	h.writeState(w, http.StatusCreated, f)
}

// GetFlow handles GET /api/flows/{flowID}.
func (h *Handler) GetFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	h.writeState(w, http.StatusOK, f)
}

// CloseFlow handles DELETE /api/flows/{flowID}.
func (h *Handler) CloseFlow(w http.ResponseWriter, r *http.Request) {
	h.registry.Drop(chi.URLParam(r, "flowID"))
	w.WriteHeader(http.StatusNoContent)
}

// Visit handles POST /api/flows/{flowID}/visit.
func (h *Handler) Visit(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req struct {
		Page string `json:"page"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	page, err := pages.Parse(req.Page)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.Pages().Visit(page)
	h.writeState(w, http.StatusOK, f)
}

// BookingCalendar handles GET /api/flows/{flowID}/booking/calendar.
func (h *Handler) BookingCalendar(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	month := f.Booking().Draft().Month
	if raw := strings.TrimSpace(r.URL.Query().Get("month")); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		month = parsed
	}
	cal := f.Booking().Calendar()
	resp := map[string]any{
		"month": month.Format("2006-01"),
		"days":  cal.MonthGrid(month),
		"slots": cal.DaySlots(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// BookingSelectCallType handles POST /api/flows/{flowID}/booking/call-type.
func (h *Handler) BookingSelectCallType(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req struct {
		CallType string `json:"call_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	h.bookingAction(w, f, f.Booking().SelectCallType(booking.CallType(req.CallType)))
}

// BookingSetMonth handles POST /api/flows/{flowID}/booking/month.
func (h *Handler) BookingSetMonth(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req struct {
		Month string `json:"month"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	month, err := time.Parse("2006-01", req.Month)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	h.bookingAction(w, f, f.Booking().SetMonth(month))
}

// BookingSelectDay handles POST /api/flows/{flowID}/booking/day.
func (h *Handler) BookingSelectDay(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req struct {
		Day int `json:"day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	h.bookingAction(w, f, f.Booking().SelectDay(req.Day))
}

// BookingSelectTime handles POST /api/flows/{flowID}/booking/time.
func (h *Handler) BookingSelectTime(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req struct {
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	h.bookingAction(w, f, f.Booking().SelectTime(req.Time))
}

// BookingConfirm handles POST /api/flows/{flowID}/booking/confirm.
func (h *Handler) BookingConfirm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	result, err := f.ConfirmBooking(r.Context())
	if err != nil {
		h.writeError(w, bookingStatus(err), err.Error())
		return
	}
	resp := map[string]any{"state": h.state(f)}
	if result.Redirect != nil {
		resp["redirect"] = result.Redirect.String()
	}
	if result.Booking != nil {
		resp["booking"] = result.Booking
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// CheckoutStart handles POST /api/flows/{flowID}/checkout.
func (h *Handler) CheckoutStart(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req struct {
		Tier   string   `json:"tier"`
		Addons []string `json:"addons"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	addons := make([]catalog.AddonID, 0, len(req.Addons))
	for _, a := range req.Addons {
		addons = append(addons, catalog.AddonID(a))
	}
	if _, err := f.StartCheckout(catalog.TierID(req.Tier), addons); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeState(w, http.StatusCreated, f)
}

// CheckoutContinue handles POST /api/flows/{flowID}/checkout/continue.
func (h *Handler) CheckoutContinue(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	wizard, found := f.Checkout()
	if !found {
		h.writeError(w, http.StatusConflict, ErrNoCheckout.Error())
		return
	}
	if err := wizard.ContinueToPayment(); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeState(w, http.StatusOK, f)
}

// CheckoutPayment handles POST /api/flows/{flowID}/checkout/payment.
func (h *Handler) CheckoutPayment(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var card checkout.CardFields
	if err := json.NewDecoder(r.Body).Decode(&card); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	result, err := f.SubmitPayment(r.Context(), card)
	if err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			h.writeError(w, http.StatusBadRequest, verr.Error())
		case errors.Is(err, ErrNoCheckout), errors.Is(err, checkout.ErrNotOnPayment),
			errors.Is(err, checkout.ErrCompleted), errors.Is(err, checkout.ErrProcessing):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	resp := map[string]any{"state": h.state(f)}
	if result.ClientSecret != "" {
		resp["clientSecret"] = result.ClientSecret
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// CheckoutHosted handles POST /api/flows/{flowID}/checkout/hosted.
func (h *Handler) CheckoutHosted(w http.ResponseWriter, r *http.Request) {
	f, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req struct {
		Succeeded bool   `json:"succeeded"`
		Reason    string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := f.ResolveHostedPayment(r.Context(), req.Succeeded, req.Reason); err != nil {
		switch {
		case errors.Is(err, ErrNoCheckout), errors.Is(err, checkout.ErrNoPendingConfirmation),
			errors.Is(err, checkout.ErrCompleted):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			// Declined hosted confirmations surface inline.
			h.writeError(w, http.StatusPaymentRequired, err.Error())
		}
		return
	}
	h.writeState(w, http.StatusOK, f)
}

func (h *Handler) flow(w http.ResponseWriter, r *http.Request) (*Flow, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "flowID"))
	f, ok := h.registry.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown flow")
		return nil, false
	}
	return f, true
}

func (h *Handler) bookingAction(w http.ResponseWriter, f *Flow, err error) {
	if err != nil {
		h.writeError(w, bookingStatus(err), err.Error())
		return
	}
	h.writeState(w, http.StatusOK, f)
}

func bookingStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrDayUnavailable),
		errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrNoDaySelected),
		errors.Is(err, booking.ErrIncomplete),
		errors.Is(err, booking.ErrInvalidCallType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, booking.ErrAlreadyConfirmed), errors.Is(err, booking.ErrSubmitting):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) writeState(w http.ResponseWriter, status int, f *Flow) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(h.state(f))
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
