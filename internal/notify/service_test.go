package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devcrafthub/client-portal/internal/booking"
	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

type capturingSender struct {
	sent []EmailMessage
	err  error
}

func (c *capturingSender) Send(_ context.Context, msg EmailMessage) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func confirmedBooking() *booking.Record {
	return &booking.Record{
		ID:       "bk-1",
		OwnerID:  "user-1",
		StartsAt: time.Date(2026, time.February, 16, 14, 0, 0, 0, time.UTC),
		CallType: booking.CallDiscovery,
		Slot:     "2:00 PM",
		Status:   "confirmed",
	}
}

func jordanSession() session.Session {
	return session.Session{Authenticated: true, UserID: "user-1", DisplayName: "Jordan Smith", Email: "jordan@example.com"}
}

func TestNotifyBookingConfirmed(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, logging.New("error"))

	require.NoError(t, svc.NotifyBookingConfirmed(context.Background(), jordanSession(), confirmedBooking()))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "jordan@example.com", msg.To)
	assert.Contains(t, msg.Subject, "Discovery Call")
	assert.Contains(t, msg.Subject, "Monday, February 16, 2026")
	assert.Contains(t, msg.Body, "Hi Jordan,")
	assert.Contains(t, msg.Body, "2:00 PM")
	assert.Contains(t, msg.Body, "A calendar invite has been sent to your email.")
}

func TestNotifyBookingConfirmedKickoffLabel(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, logging.New("error"))

	rec := confirmedBooking()
	rec.CallType = booking.CallKickoff
	require.NoError(t, svc.NotifyBookingConfirmed(context.Background(), jordanSession(), rec))
	assert.Contains(t, sender.sent[0].Subject, "Project Kickoff")
}

func TestNotifyBookingConfirmedWithoutEmailSkips(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, logging.New("error"))

	sess := jordanSession()
	sess.Email = ""
	require.NoError(t, svc.NotifyBookingConfirmed(context.Background(), sess, confirmedBooking()))
	assert.Empty(t, sender.sent)
}

func TestNotifyBookingConfirmedNilSenderSkips(t *testing.T) {
	svc := NewService(nil, logging.New("error"))
	assert.NoError(t, svc.NotifyBookingConfirmed(context.Background(), jordanSession(), confirmedBooking()))
}

func TestNotifyBookingConfirmedSendFailure(t *testing.T) {
	sender := &capturingSender{err: errors.New("provider down")}
	svc := NewService(sender, logging.New("error"))
	assert.Error(t, svc.NotifyBookingConfirmed(context.Background(), jordanSession(), confirmedBooking()))
}

func TestNotifyCheckoutCompleted(t *testing.T) {
	sender := &capturingSender{}
	svc := NewService(sender, logging.New("error"))

	require.NoError(t, svc.NotifyCheckoutCompleted(context.Background(), jordanSession(), "Growth Package + 1 add-on(s)", 810000))

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Body, "$8100.00")
	assert.Contains(t, sender.sent[0].Body, "Growth Package")
}

func TestStubSenderSwallowsMessages(t *testing.T) {
	stub := NewStubSender(logging.New("error"))
	assert.NoError(t, stub.Send(context.Background(), EmailMessage{To: "a@b.c", Subject: "x"}))
}
