package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmorgan-dev/consulting-site/internal/booking"
	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := booking.NewStore(booking.NewMemoryBlobStore(), nil)
	bookingHandler := booking.NewHandler(store, nil, nil, nil)
	registry := prometheus.NewRegistry()

	return New(&Config{
		Logger:             logging.New("error"),
		BookingHandler:     bookingHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: []string{"*"},
	})
}

func TestHealthRoute(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected health body: %q", rec.Body.String())
	}
}

func TestMetricsRoute(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestBookingRoutesMounted(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/bookings", "/bookings/dates", "/bookings/upcoming"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestUnmountedHandlersReturn404(t *testing.T) {
	r := New(&Config{Logger: logging.New("error")})

	for _, path := range []string{"/chat/message", "/contact", "/bookings"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: expected 404/405 without handler, got %d", path, rec.Code)
		}
	}
}

func TestCORSHeadersApplied(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://widget.example")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://widget.example" {
		t.Errorf("expected CORS origin echoed, got %q", got)
	}
}
