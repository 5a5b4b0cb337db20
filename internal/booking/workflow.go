package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devcrafthub/client-portal/internal/catalog"
	"github.com/devcrafthub/client-portal/internal/pages"
	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

var bookingTracer = otel.Tracer("devcraft.internal.booking")

// CallType is the kind of session being booked.
type CallType string

const (
	CallDiscovery CallType = "discovery"
	CallKickoff   CallType = "kickoff"
)

// State is the workflow's position in the selection flow.
type State int

const (
	StateSelectingType State = iota
	StateSelectingDate
	StateSelectingTime
	StateConfirming
	StateSubmitting
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateSelectingType:
		return "selecting-type"
	case StateSelectingDate:
		return "selecting-date"
	case StateSelectingTime:
		return "selecting-time"
	case StateConfirming:
		return "confirming"
	case StateSubmitting:
		return "submitting"
	case StateConfirmed:
		return "confirmed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Draft is the in-progress selection. It lives only as long as the
// workflow instance; returning to the page starts a fresh draft.
type Draft struct {
	CallType CallType  `json:"call_type"`
	Month    time.Time `json:"month"`
	Day      int       `json:"day,omitempty"`
	TimeSlot string    `json:"time,omitempty"`
}

// Creator persists a confirmed booking remotely.
type Creator interface {
	CreateBooking(ctx context.Context, ownerID string, startsAt time.Time, callType CallType, slot string) (*Record, error)
}

// Record is a persisted booking.
type Record struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	StartsAt  time.Time `json:"starts_at"`
	CallType  CallType  `json:"call_type"`
	Slot      string    `json:"slot"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ConfirmResult reports what confirming did. When the visitor is not
// signed in, Redirect points at the signup page and no record exists.
type ConfirmResult struct {
	Redirect *pages.Page
	Booking  *Record
}

// Workflow drives one visitor's booking selection: call type, then
// date, then time, then confirmation. Confirmed is terminal; a new
// page visit builds a new workflow.
type Workflow struct {
	mu       sync.Mutex
	state    State
	draft    Draft
	calendar *Calendar
	creator  Creator
	logger   *logging.Logger
}

// NewWorkflow starts a workflow in the type-selection state, with the
// month grid opened on the calendar's reference month.
func NewWorkflow(calendar *Calendar, creator Creator, logger *logging.Logger) *Workflow {
	if calendar == nil {
		calendar = NewCalendar(time.Time{})
	}
	if logger == nil {
		logger = logging.Default()
	}
	ref := calendar.Reference()
	return &Workflow{
		state:    StateSelectingType,
		calendar: calendar,
		creator:  creator,
		logger:   logger,
		draft: Draft{
			CallType: CallDiscovery,
			Month:    time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()),
		},
	}
}

// State returns the workflow's current position.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Draft returns a copy of the in-progress selection.
func (w *Workflow) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Calendar exposes the availability rules backing this workflow.
func (w *Workflow) Calendar() *Calendar {
	return w.calendar
}

// SelectCallType picks discovery or kickoff. Allowed any time before
// submission.
func (w *Workflow) SelectCallType(ct CallType) error {
	if ct != CallDiscovery && ct != CallKickoff {
		return ErrInvalidCallType
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	w.draft.CallType = ct
	if w.state == StateSelectingType {
		w.state = StateSelectingDate
	}
	return nil
}

// SetMonth moves the grid to another month. Any selected day and time
// are cleared: their availability was judged against the old month.
func (w *Workflow) SetMonth(month time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	w.draft.Month = time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, w.calendar.Reference().Location())
	w.draft.Day = 0
	w.draft.TimeSlot = ""
	if w.state > StateSelectingDate {
		w.state = StateSelectingDate
	}
	return nil
}

// SelectDay picks a day of the displayed month. Unavailable days are
// rejected. Selecting a day always clears a previously selected time:
// a time is only valid paired with its day.
func (w *Workflow) SelectDay(day int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if !w.calendar.DayAvailable(w.draft.Month, day) {
		return ErrDayUnavailable
	}
	w.draft.Day = day
	w.draft.TimeSlot = ""
	w.state = StateSelectingTime
	return nil
}

// SelectTime picks a slot on the selected day. Blocked and unknown
// slots are rejected.
func (w *Workflow) SelectTime(slot string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.mutable(); err != nil {
		return err
	}
	if w.draft.Day == 0 {
		return ErrNoDaySelected
	}
	if !catalog.ValidSlot(slot) || catalog.SlotBlocked(slot) {
		return ErrSlotUnavailable
	}
	w.draft.TimeSlot = slot
	w.state = StateConfirming
	return nil
}

// CanConfirm reports whether both a day and a time are chosen.
func (w *Workflow) CanConfirm() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Day != 0 && w.draft.TimeSlot != ""
}

// Confirm submits the booking. Booking requires an account, so an
// unauthenticated visitor is sent to signup and no record is created.
// On success the workflow reaches its terminal state.
func (w *Workflow) Confirm(ctx context.Context, sess session.Session) (*ConfirmResult, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.confirm")
	defer span.End()

	w.mu.Lock()
	if w.state == StateConfirmed {
		w.mu.Unlock()
		return nil, ErrAlreadyConfirmed
	}
	if w.state == StateSubmitting {
		w.mu.Unlock()
		return nil, ErrSubmitting
	}
	if w.draft.Day == 0 || w.draft.TimeSlot == "" {
		w.mu.Unlock()
		return nil, ErrIncomplete
	}
	if !sess.Authenticated {
		w.mu.Unlock()
		redirect := pages.Signup
		return &ConfirmResult{Redirect: &redirect}, nil
	}
	draft := w.draft
	w.state = StateSubmitting
	w.mu.Unlock()

	span.SetAttributes(
		attribute.String("devcraft.call_type", string(draft.CallType)),
		attribute.String("devcraft.slot", draft.TimeSlot),
	)

	startsAt, err := startTime(w.calendar, draft)
	if err != nil {
		w.failSubmit()
		return nil, fmt.Errorf("booking: bad slot %q: %w", draft.TimeSlot, err)
	}

	record, err := w.creator.CreateBooking(ctx, sess.UserID, startsAt, draft.CallType, draft.TimeSlot)
	if err != nil {
		span.RecordError(err)
		w.failSubmit()
		return nil, fmt.Errorf("booking: create failed: %w", err)
	}

	w.mu.Lock()
	w.state = StateConfirmed
	w.mu.Unlock()

	w.logger.Info("booking confirmed",
		"user_id", sess.UserID,
		"call_type", draft.CallType,
		"starts_at", startsAt,
	)
	return &ConfirmResult{Booking: record}, nil
}

// failSubmit returns the workflow to the confirming state so the
// visitor can retry manually. No automatic retry happens anywhere.
func (w *Workflow) failSubmit() {
	w.mu.Lock()
	if w.state == StateSubmitting {
		w.state = StateConfirming
	}
	w.mu.Unlock()
}

func (w *Workflow) mutable() error {
	switch w.state {
	case StateConfirmed:
		return ErrAlreadyConfirmed
	case StateSubmitting:
		return ErrSubmitting
	}
	return nil
}

func startTime(cal *Calendar, draft Draft) (time.Time, error) {
	hour, minute, err := slotClock(draft.TimeSlot)
	if err != nil {
		return time.Time{}, err
	}
	loc := cal.Reference().Location()
	return time.Date(draft.Month.Year(), draft.Month.Month(), draft.Day, hour, minute, 0, 0, loc), nil
}
