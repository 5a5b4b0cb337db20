package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "github.com/devcrafthub/client-portal/internal/config"
	"github.com/devcrafthub/client-portal/internal/payments"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

func TestSetupMetricsExposesSiteMetrics(t *testing.T) {
	handler, _, site := setupMetrics()
	if handler == nil || site == nil {
		t.Fatalf("expected non-nil handler and metrics")
	}

	site.ObservePageTransition("home")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "devcraft_site_page_transitions_total") {
		t.Fatalf("expected page transition counter to be exported")
	}
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	if pool := connectPostgresPool(context.Background(), "", logger); pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestOpenStatsDBEmptyURLReturnsNil(t *testing.T) {
	logger := logging.New("error")
	if db := openStatsDB("", logger); db != nil {
		t.Fatalf("expected nil db for empty URL")
	}
}

func TestBookingReferenceParsesPinnedDate(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{BookingReferenceDate: "2026-02-12"}

	ref := bookingReference(cfg, logger)
	if got := ref.Format("2006-01-02"); got != "2026-02-12" {
		t.Fatalf("expected pinned date, got %s", got)
	}
}

func TestBookingReferenceInvalidFallsBackToNow(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{BookingReferenceDate: "next tuesday"}

	ref := bookingReference(cfg, logger)
	if ref.IsZero() {
		t.Fatalf("expected wall-clock fallback")
	}
}

func TestBuildPaymentsFakeModeKeepsStripeIntents(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{AllowFakePayments: true, PaymentCurrency: "usd"}

	processor, intents := buildPayments(cfg, logger)
	if _, ok := processor.(*payments.FakeProcessor); !ok {
		t.Fatalf("expected fake processor, got %T", processor)
	}
	if _, ok := intents.(*payments.StripeIntentService); !ok {
		t.Fatalf("expected stripe intent service, got %T", intents)
	}
}

func TestBuildPaymentsDefaultsToStripe(t *testing.T) {
	logger := logging.New("error")
	cfg := &appconfig.Config{StripeSecretKey: "sk_test_x", PaymentCurrency: "usd"}

	processor, intents := buildPayments(cfg, logger)
	if _, ok := processor.(*payments.StripeIntentService); !ok {
		t.Fatalf("expected stripe processor, got %T", processor)
	}
	if processor.(*payments.StripeIntentService) != intents.(*payments.StripeIntentService) {
		t.Fatalf("expected processor and intent creator to share the service")
	}
}

func TestBuildEmailSenderStubAndDisabled(t *testing.T) {
	logger := logging.New("error")

	if s := buildEmailSender(context.Background(), &appconfig.Config{EmailProvider: "stub"}, logger); s == nil {
		t.Fatalf("expected stub sender")
	}
	if s := buildEmailSender(context.Background(), &appconfig.Config{}, logger); s != nil {
		t.Fatalf("expected nil sender when no provider is configured")
	}
	if s := buildEmailSender(context.Background(), &appconfig.Config{EmailProvider: "sendgrid"}, logger); s != nil {
		t.Fatalf("expected nil sender for unconfigured sendgrid")
	}
}
