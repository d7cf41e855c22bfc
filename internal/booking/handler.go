package booking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmorgan-dev/consulting-site/internal/observability/metrics"
	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

// ConfirmationSender notifies the contact (and the consultant) about a new
// or cancelled booking. Failures never block the booking itself.
type ConfirmationSender interface {
	SendBookingConfirmation(ctx context.Context, b Booking) error
	SendBookingCancellation(ctx context.Context, b Booking) error
}

// Handler exposes the booking store over HTTP.
type Handler struct {
	store    *Store
	notifier ConfirmationSender
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
	now      func() time.Time
}

// NewHandler creates a booking handler. notifier and m may be nil.
func NewHandler(store *Store, notifier ConfirmationSender, m *metrics.BookingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type createBookingRequest struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	ContactName  string `json:"contactName"`
	ContactEmail string `json:"contactEmail"`
}

func (req *createBookingRequest) validate() map[string]string {
	problems := map[string]string{}
	if _, err := ParseDate(req.Date); err != nil {
		problems["date"] = "date must be formatted YYYY-MM-DD"
	}
	if !IsValidSlot(req.Time) {
		problems["time"] = "time must be one of the offered slots"
	}
	if strings.TrimSpace(req.ContactName) == "" {
		problems["contactName"] = "name is required"
	}
	if !emailPattern.MatchString(req.ContactEmail) {
		problems["contactEmail"] = "a valid email address is required"
	}
	return problems
}

// Create handles POST /bookings requests
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if problems := req.validate(); len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": problems})
		return
	}

	b := Booking{
		Date:         req.Date,
		Time:         req.Time,
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
	}

	if err := h.store.Create(r.Context(), b); err != nil {
		if errors.Is(err, ErrSlotTaken) {
			h.metrics.ObserveBooking("conflict")
			writeJSON(w, http.StatusConflict, map[string]any{
				"errors": map[string]string{"time": "this slot was just booked, pick another"},
			})
			return
		}
		h.metrics.ObserveBooking("error")
		h.logger.Error("failed to create booking", "error", err)
		http.Error(w, "failed to create booking", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveBooking("created")

	// The booking is already persisted; email delivery only decides what
	// status the caller shows.
	notified := false
	if h.notifier != nil {
		if err := h.notifier.SendBookingConfirmation(r.Context(), b); err != nil {
			h.logger.Error("booking confirmation email failed", "error", err, "date", b.Date, "time", b.Time)
		} else {
			notified = true
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"booking":  b,
		"notified": notified,
	})
}

// Cancel handles DELETE /bookings requests
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Date == "" || req.Time == "" {
		http.Error(w, "date and time are required", http.StatusBadRequest)
		return
	}

	// Capture contact details before the delete for the cancellation notice.
	var cancelled *Booking
	for _, b := range h.store.List(r.Context()) {
		if b.Date == req.Date && b.Time == req.Time {
			match := b
			cancelled = &match
			break
		}
	}

	if err := h.store.Delete(r.Context(), req.Date, req.Time); err != nil {
		h.logger.Error("failed to delete booking", "error", err)
		http.Error(w, "failed to cancel booking", http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveBooking("cancelled")

	if cancelled != nil && h.notifier != nil {
		if err := h.notifier.SendBookingCancellation(r.Context(), *cancelled); err != nil {
			h.logger.Error("booking cancellation email failed", "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /bookings requests
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	bookings := h.store.List(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// Upcoming handles GET /bookings/upcoming requests
func (h *Handler) Upcoming(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	if from == "" {
		from = h.now().Format(DateLayout)
	} else if _, err := ParseDate(from); err != nil {
		http.Error(w, "from must be formatted YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	bookings := h.store.Future(r.Context(), from)
	writeJSON(w, http.StatusOK, map[string]any{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// Availability handles GET /bookings/availability requests
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if _, err := ParseDate(date); err != nil {
		http.Error(w, "date must be formatted YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	status := h.store.AvailabilityStatus(r.Context(), date)
	writeJSON(w, http.StatusOK, map[string]any{
		"date":      date,
		"slots":     h.store.AvailableSlots(r.Context(), date),
		"remaining": status.Remaining,
		"status":    status.Status,
	})
}

// Dates handles GET /bookings/dates requests, returning the selectable
// weekday dates with their availability class.
func (h *Handler) Dates(w http.ResponseWriter, r *http.Request) {
	count := 14
	if raw := r.URL.Query().Get("days"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 60 {
			count = n
		}
	}

	dates := SelectableDates(h.now(), count)
	out := make([]Availability, 0, len(dates))
	for _, d := range dates {
		out = append(out, h.store.AvailabilityStatus(r.Context(), d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": out})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
