package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/devcrafthub/client-portal/internal/app"
	"github.com/devcrafthub/client-portal/internal/auth"
	"github.com/devcrafthub/client-portal/internal/booking"
	httpmiddleware "github.com/devcrafthub/client-portal/internal/http/middleware"
	"github.com/devcrafthub/client-portal/internal/payments"
	"github.com/devcrafthub/client-portal/internal/portal"
	"github.com/devcrafthub/client-portal/internal/session"
	"github.com/devcrafthub/client-portal/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	FlowHandler     *app.Handler
	AuthHandler     *auth.Handler
	PaymentsHandler *payments.IntentHandler
	PortalHandler   *portal.Handler
	StatsHandler    *portal.StatsHandler
	BookingsHandler *booking.Handler
	SessionStream   *session.Stream
	MetricsHandler  http.Handler

	CORSAllowedOrigins []string

	// Shared secret for validating provider-issued bearer tokens on
	// the portal routes.
	AuthSigningSecret string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.SessionStream != nil {
			public.Get("/api/session/stream", cfg.SessionStream.ServeHTTP)
		}
		if cfg.AuthHandler != nil {
			public.Route("/api/auth", func(r chi.Router) {
				r.Post("/signup", cfg.AuthHandler.SignUp)
				r.Post("/signin", cfg.AuthHandler.SignIn)
				r.Post("/signout", cfg.AuthHandler.SignOut)
			})
		}
		if cfg.FlowHandler != nil {
			public.Mount("/api/flows", cfg.FlowHandler.Routes())
		}
		if cfg.PaymentsHandler != nil {
			// Method filtering happens inside the handler so non-POST
			// requests get the 405 contract rather than chi's default.
			public.HandleFunc("/api/create-payment-intent", cfg.PaymentsHandler.CreateIntent)
		}
	})

	// Portal routes (signed-in clients only)
	if cfg.AuthSigningSecret != "" && (cfg.PortalHandler != nil || cfg.StatsHandler != nil || cfg.BookingsHandler != nil) {
		r.Route("/api/portal", func(portalRoutes chi.Router) {
			portalRoutes.Use(auth.RequireJWT(cfg.AuthSigningSecret))
			if cfg.PortalHandler != nil {
				portalRoutes.Get("/dashboard", cfg.PortalHandler.GetDashboard)
				portalRoutes.Post("/messages/{messageID}/read", cfg.PortalHandler.MarkMessageRead)
			}
			if cfg.StatsHandler != nil {
				portalRoutes.Get("/clients/{clientID}/stats", cfg.StatsHandler.GetStats)
			}
			if cfg.BookingsHandler != nil {
				portalRoutes.Get("/bookings/{bookingID}", cfg.BookingsHandler.GetBooking)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
