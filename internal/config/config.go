package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	PublicBaseURL string
	LogLevel      string
	DatabaseURL   string

	CORSAllowedOrigins []string

	// Identity provider (external auth service)
	AuthProviderURL    string
	AuthProviderKey    string
	AuthSigningSecret  string
	SessionTTL         time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool

	// Payments
	StripeSecretKey    string
	StripeAPIBaseURL   string
	PaymentCurrency    string
	MinChargeCents     int64
	AllowFakePayments  bool
	FakePaymentDelay   time.Duration

	// Booking calendar
	BookingReferenceDate string // YYYY-MM-DD; empty means wall-clock today
	BookingConfirmDelay  time.Duration

	// Email notifications
	EmailProvider     string // "sendgrid", "ses", or "" to disable
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	AWSRegion         string
}

// Load reads configuration from the environment. A local .env file is
// honored when present so dev setups match deployed ones.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),

		AuthProviderURL:   getEnv("AUTH_PROVIDER_URL", ""),
		AuthProviderKey:   getEnv("AUTH_PROVIDER_KEY", ""),
		AuthSigningSecret: getEnv("AUTH_SIGNING_SECRET", ""),
		SessionTTL:        getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		RedisAddr:         getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisTLS:          getEnvAsBool("REDIS_TLS", false),

		StripeSecretKey:   getEnv("STRIPE_SECRET_KEY", ""),
		StripeAPIBaseURL:  getEnv("STRIPE_API_BASE_URL", ""),
		PaymentCurrency:   strings.ToLower(getEnv("PAYMENT_CURRENCY", "usd")),
		MinChargeCents:    int64(getEnvAsInt("MIN_CHARGE_CENTS", 50)),
		AllowFakePayments: getEnvAsBool("ALLOW_FAKE_PAYMENTS", false),
		FakePaymentDelay:  getEnvAsDuration("FAKE_PAYMENT_DELAY", 2200*time.Millisecond),

		BookingReferenceDate: getEnv("BOOKING_REFERENCE_DATE", ""),
		BookingConfirmDelay:  getEnvAsDuration("BOOKING_CONFIRM_DELAY", 1200*time.Millisecond),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", ""))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "DevCraft Hub"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "DevCraft Hub"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
