package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/devcrafthub/client-portal/cmd/mainconfig"
	"github.com/devcrafthub/client-portal/internal/api/router"
	"github.com/devcrafthub/client-portal/internal/app"
	"github.com/devcrafthub/client-portal/internal/auth"
	"github.com/devcrafthub/client-portal/internal/booking"
	"github.com/devcrafthub/client-portal/internal/checkout"
	appconfig "github.com/devcrafthub/client-portal/internal/config"
	"github.com/devcrafthub/client-portal/internal/notify"
	"github.com/devcrafthub/client-portal/internal/observability/metrics"
	"github.com/devcrafthub/client-portal/internal/payments"
	"github.com/devcrafthub/client-portal/internal/portal"
	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

func main() {
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting client-portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	metricsHandler, registry, siteMetrics := setupMetrics()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	statsDB := openStatsDB(cfg.DatabaseURL, logger)
	redisClient := connectRedis(cfg)

	// Session fan-out: manager holds the current session, stream
	// pushes changes to connected browsers.
	manager := session.NewManager(logger)
	stream := session.NewStream(manager, logger)

	sessionStore := auth.NewSessionStore(redisClient, cfg.SessionTTL)
	authClient := auth.NewClient(cfg.AuthProviderURL, cfg.AuthProviderKey, logger).
		WithSessionCache(sessionStore)
	authHandler := auth.NewHandler(authClient, manager, sessionStore, logger)

	// Restore a persisted session without blocking startup.
	go manager.Bootstrap(ctx, authClient)

	calendar := booking.NewCalendar(bookingReference(cfg, logger))
	var creator booking.Creator
	var bookingsHandler *booking.Handler
	if pool != nil {
		repo := booking.NewRepository(pool)
		creator = repo
		bookingsHandler = booking.NewHandler(repo, logger)
	} else {
		logger.Warn("no database configured, bookings are in-memory only")
		creator = booking.NewSimulatedCreator(cfg.BookingConfirmDelay, logger)
	}

	processor, intents := buildPayments(cfg, logger)
	paymentsHandler := payments.NewIntentHandler(intents, logger, cfg.MinChargeCents, cfg.PaymentCurrency).
		WithMetrics(siteMetrics)

	notifier := notify.NewService(buildEmailSender(ctx, cfg, logger), logger)

	registryFlows := app.NewRegistry(app.FlowConfig{
		Calendar:  calendar,
		Creator:   creator,
		Manager:   manager,
		Processor: processor,
		Currency:  cfg.PaymentCurrency,
		Metrics:   siteMetrics,
		Notify:    notifier,
		Logger:    logger,
	})
	flowHandler := app.NewHandler(registryFlows, logger)

	var source portal.DataSource
	if pool != nil {
		source = portal.NewRepository(pool)
	} else {
		logger.Warn("no database configured, serving portal fixtures")
		source = portal.NewFixtureSource()
	}
	portalHandler := portal.NewHandler(source, stream, siteMetrics, logger)
	statsHandler := portal.NewStatsHandler(statsDB, registry, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		FlowHandler:        flowHandler,
		AuthHandler:        authHandler,
		PaymentsHandler:    paymentsHandler,
		PortalHandler:      portalHandler,
		StatsHandler:       statsHandler,
		BookingsHandler:    bookingsHandler,
		SessionStream:      stream,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthSigningSecret:  cfg.AuthSigningSecret,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if pool != nil {
		pool.Close()
	}
	if statsDB != nil {
		_ = statsDB.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("server stopped")
}

// setupMetrics builds the Prometheus registry, the /metrics handler,
// and the site metric set on top of it.
func setupMetrics() (http.Handler, *prometheus.Registry, *metrics.SiteMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	site := metrics.NewSiteMetrics(registry)
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return handler, registry, site
}

// connectPostgresPool returns nil when no database is configured so
// callers can fall back to in-memory implementations.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres ping failed, continuing anyway", "error", err)
	}
	return pool
}

// openStatsDB opens the database/sql handle the stats aggregates run
// on. Nil when no database is configured.
func openStatsDB(databaseURL string, logger *logging.Logger) *sql.DB {
	if databaseURL == "" {
		return nil
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Error("failed to open stats db", "error", err)
		return nil
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db
}

func connectRedis(cfg *appconfig.Config) *redis.Client {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// bookingReference resolves the calendar anchor date. Demo
// deployments pin it so the advertised availability stays stable.
func bookingReference(cfg *appconfig.Config, logger *logging.Logger) time.Time {
	if cfg.BookingReferenceDate == "" {
		return time.Now()
	}
	ref, err := time.Parse("2006-01-02", cfg.BookingReferenceDate)
	if err != nil {
		logger.Warn("invalid booking reference date, using today",
			"value", cfg.BookingReferenceDate,
			"error", err,
		)
		return time.Now()
	}
	return ref
}

// buildPayments picks the checkout processor and the intent creator
// backing the payment endpoint. The fake processor is only ever used
// when explicitly allowed.
func buildPayments(cfg *appconfig.Config, logger *logging.Logger) (checkout.Processor, payments.IntentCreator) {
	svc := payments.NewStripeIntentService(cfg.StripeSecretKey, cfg.PaymentCurrency, logger)
	if cfg.StripeAPIBaseURL != "" {
		svc = svc.WithBaseURL(cfg.StripeAPIBaseURL)
	}
	if cfg.StripeSecretKey == "" {
		logger.Warn("no Stripe secret key configured, payment intents run in dry-run mode")
		svc = svc.WithDryRun(true)
	}

	if cfg.AllowFakePayments {
		logger.Warn("fake payments enabled, card charges complete without a provider")
		return payments.NewFakeProcessor(cfg.FakePaymentDelay, logger), svc
	}
	return svc, svc
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but not configured, notifications disabled")
			return nil
		}
		return sender
	case "ses":
		client, err := mainconfig.NewSESClient(ctx, cfg)
		if err != nil {
			logger.Error("failed to build SES client, notifications disabled", "error", err)
			return nil
		}
		sender := notify.NewSESSender(client, notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender == nil {
			return nil
		}
		return sender
	case "stub":
		return notify.NewStubSender(logger)
	case "":
		return nil
	default:
		logger.Warn("unknown email provider, notifications disabled", "provider", cfg.EmailProvider)
		return nil
	}
}
