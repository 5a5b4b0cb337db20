package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/devcrafthub/client-portal/pkg/logging"
)

// SimulatedCreator is the offline variant: it waits a fixed delay and
// reports success without touching a data store. Gated by config the
// same way fake payments are.
type SimulatedCreator struct {
	delay  time.Duration
	logger *logging.Logger
}

// NewSimulatedCreator builds the offline creator.
func NewSimulatedCreator(delay time.Duration, logger *logging.Logger) *SimulatedCreator {
	if logger == nil {
		logger = logging.Default()
	}
	return &SimulatedCreator{delay: delay, logger: logger}
}

// CreateBooking waits the configured delay, then returns a synthetic
// confirmed record.
func (c *SimulatedCreator) CreateBooking(ctx context.Context, ownerID string, startsAt time.Time, callType CallType, slot string) (*Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.delay):
	}

	now := time.Now().UTC()
	c.logger.Info("simulated booking created", "owner_id", ownerID, "starts_at", startsAt)
	return &Record{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		StartsAt:  startsAt,
		CallType:  callType,
		Slot:      slot,
		Status:    "confirmed",
		CreatedAt: now,
	}, nil
}
