package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.MinChargeCents != 50 {
		t.Errorf("expected default min charge 50, got %d", cfg.MinChargeCents)
	}
	if cfg.PaymentCurrency != "usd" {
		t.Errorf("expected default currency usd, got %s", cfg.PaymentCurrency)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default session ttl 24h, got %s", cfg.SessionTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MIN_CHARGE_CENTS", "100")
	t.Setenv("ALLOW_FAKE_PAYMENTS", "true")
	t.Setenv("BOOKING_REFERENCE_DATE", "2026-02-12")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://devcrafthub.com, https://app.devcrafthub.com")
	t.Setenv("FAKE_PAYMENT_DELAY", "10ms")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.MinChargeCents != 100 {
		t.Errorf("expected min charge 100, got %d", cfg.MinChargeCents)
	}
	if !cfg.AllowFakePayments {
		t.Error("expected fake payments enabled")
	}
	if cfg.BookingReferenceDate != "2026-02-12" {
		t.Errorf("unexpected reference date %s", cfg.BookingReferenceDate)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %d", len(cfg.CORSAllowedOrigins))
	}
	if cfg.CORSAllowedOrigins[1] != "https://app.devcrafthub.com" {
		t.Errorf("unexpected origin %s", cfg.CORSAllowedOrigins[1])
	}
	if cfg.FakePaymentDelay != 10*time.Millisecond {
		t.Errorf("unexpected fake payment delay %s", cfg.FakePaymentDelay)
	}
}

func TestGetEnvAsDurationInvalid(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	cfg := Load()
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("invalid duration should fall back to default, got %s", cfg.SessionTTL)
	}
}
