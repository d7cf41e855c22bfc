package contact

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

// MessageSender delivers a contact-form submission to the consultant.
type MessageSender interface {
	SendContactMessage(ctx context.Context, name, email, message string) error
}

// Handler handles contact form submissions.
type Handler struct {
	sender MessageSender
	logger *logging.Logger
}

// NewHandler creates a contact handler.
func NewHandler(sender MessageSender, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{sender: sender, logger: logger}
}

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const maxMessageLength = 5000

// Submit handles POST /contact requests
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Message = strings.TrimSpace(req.Message)

	problems := map[string]string{}
	if req.Name == "" {
		problems["name"] = "name is required"
	}
	if !emailPattern.MatchString(req.Email) {
		problems["email"] = "a valid email address is required"
	}
	if req.Message == "" {
		problems["message"] = "message is required"
	} else if len(req.Message) > maxMessageLength {
		problems["message"] = "message is too long"
	}
	if len(problems) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"errors": problems})
		return
	}

	if err := h.sender.SendContactMessage(r.Context(), req.Name, req.Email, req.Message); err != nil {
		h.logger.Error("contact: delivery failed", "error", err)
		http.Error(w, "failed to send message", http.StatusBadGateway)
		return
	}

	h.logger.Info("contact message delivered", "from", req.Email)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "sent"})
}
