package booking

import "errors"

var (
	// ErrDayUnavailable is returned when the requested day is in the
	// past or falls on a weekend.
	ErrDayUnavailable = errors.New("day is not available")

	// ErrSlotUnavailable is returned for unknown or already-taken slots.
	ErrSlotUnavailable = errors.New("time slot is not available")

	// ErrNoDaySelected is returned when a time is picked before a day.
	ErrNoDaySelected = errors.New("select a day first")

	// ErrIncomplete is returned when confirm is attempted without both
	// a day and a time.
	ErrIncomplete = errors.New("booking requires a day and a time")

	// ErrAlreadyConfirmed is returned for any mutation after the
	// workflow reached its terminal state.
	ErrAlreadyConfirmed = errors.New("booking already confirmed")

	// ErrSubmitting is returned while a confirmation is in flight.
	ErrSubmitting = errors.New("booking confirmation in progress")

	// ErrInvalidCallType is returned for call types outside the fixed set.
	ErrInvalidCallType = errors.New("unknown call type")

	// ErrNotFound is returned when a booking does not exist or belongs
	// to another client.
	ErrNotFound = errors.New("booking not found")
)
