package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmorgan-dev/consulting-site/internal/booking"
	"github.com/dmorgan-dev/consulting-site/internal/chat"
	"github.com/dmorgan-dev/consulting-site/internal/contact"
	httpmiddleware "github.com/dmorgan-dev/consulting-site/internal/http/middleware"
	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingHandler     *booking.Handler
	ChatHandler        *chat.Handler
	ContactHandler     *contact.Handler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitPerSec    float64
	RateLimitBurst     int
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
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	if cfg.BookingHandler != nil {
		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", cfg.BookingHandler.List)
			r.Post("/", cfg.BookingHandler.Create)
			r.Delete("/", cfg.BookingHandler.Cancel)
			r.Get("/upcoming", cfg.BookingHandler.Upcoming)
			r.Get("/availability", cfg.BookingHandler.Availability)
			r.Get("/dates", cfg.BookingHandler.Dates)
		})
	}

	if cfg.ChatHandler != nil {
		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", cfg.ChatHandler.Message)
			r.Get("/history", cfg.ChatHandler.History)
			r.Post("/reset", cfg.ChatHandler.Reset)
		})
	}

	if cfg.ContactHandler != nil {
		r.Post("/contact", cfg.ContactHandler.Submit)
	}

	return r
}
