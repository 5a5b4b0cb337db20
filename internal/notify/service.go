package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devcrafthub/client-portal/internal/booking"
	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Service sends client-facing notifications for site events.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service. email may be nil, in
// which case notifications are skipped.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// NotifyBookingConfirmed emails the calendar invite for a confirmed
// call.
func (s *Service) NotifyBookingConfirmed(ctx context.Context, sess session.Session, rec *booking.Record) error {
	if s.email == nil {
		s.logger.Debug("notify: email sender not configured, skipping booking confirmation")
		return nil
	}
	if sess.Email == "" {
		s.logger.Warn("notify: session has no email, skipping booking confirmation", "user_id", sess.UserID)
		return nil
	}

	callLabel := "Discovery Call"
	if rec.CallType == booking.CallKickoff {
		callLabel = "Project Kickoff"
	}
	when := rec.StartsAt.Format("Monday, January 2, 2006")

	msg := EmailMessage{
		To:      sess.Email,
		ToName:  sess.DisplayName,
		Subject: fmt.Sprintf("Your %s is booked for %s", callLabel, when),
		Body: strings.Join([]string{
			fmt.Sprintf("Hi %s,", firstName(sess.DisplayName)),
			"",
			fmt.Sprintf("Your %s with DevCraft Hub is confirmed for %s at %s.", callLabel, when, rec.Slot),
			"A calendar invite has been sent to your email.",
			"",
			"Need to reschedule? Reply to this email and we'll sort it out.",
		}, "\n"),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: booking confirmation: %w", err)
	}
	return nil
}

// NotifyCheckoutCompleted emails the order receipt after a completed
// checkout.
func (s *Service) NotifyCheckoutCompleted(ctx context.Context, sess session.Session, summary string, totalCents int64) error {
	if s.email == nil || sess.Email == "" {
		return nil
	}

	msg := EmailMessage{
		To:      sess.Email,
		ToName:  sess.DisplayName,
		Subject: "Your DevCraft Hub order is confirmed",
		Body: strings.Join([]string{
			fmt.Sprintf("Hi %s,", firstName(sess.DisplayName)),
			"",
			fmt.Sprintf("Thanks for your order: %s.", summary),
			fmt.Sprintf("Total charged: $%.2f.", float64(totalCents)/100),
			fmt.Sprintf("Order date: %s.", time.Now().Format("January 2, 2006")),
			"",
			"We'll reach out within one business day to schedule your kickoff.",
		}, "\n"),
	}

	if err := s.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: order receipt: %w", err)
	}
	return nil
}

func firstName(displayName string) string {
	name := strings.TrimSpace(displayName)
	if name == "" {
		return "there"
	}
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
