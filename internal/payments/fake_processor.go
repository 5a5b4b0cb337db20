package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/devcrafthub/client-portal/internal/checkout"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// FakeProcessor is a dev/demo payment provider that waits a fixed
// delay and reports success without touching any card network.
//
// This MUST be gated by configuration (ALLOW_FAKE_PAYMENTS) and should
// never be enabled in production.
type FakeProcessor struct {
	delay  time.Duration
	logger *logging.Logger
}

func NewFakeProcessor(delay time.Duration, logger *logging.Logger) *FakeProcessor {
	if logger == nil {
		logger = logging.Default()
	}
	return &FakeProcessor{delay: delay, logger: logger}
}

// Process implements checkout.Processor.
func (p *FakeProcessor) Process(ctx context.Context, req checkout.ChargeRequest) (*checkout.ChargeResult, error) {
	if req.AmountCents <= 0 {
		return nil, fmt.Errorf("payments: fake processor requires a positive amount")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("payments: fake processor: %w", ctx.Err())
		}
	}
	p.logger.Info("fake payment processed",
		"amount_cents", req.AmountCents, "currency", req.Currency)
	return &checkout.ChargeResult{Completed: true}, nil
}
