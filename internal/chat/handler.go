package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmorgan-dev/consulting-site/internal/observability/metrics"
	"github.com/dmorgan-dev/consulting-site/pkg/logging"
)

// SessionStore persists transcripts and stage counters.
type SessionStore interface {
	Append(ctx context.Context, sessionID string, msg Message) error
	History(ctx context.Context, sessionID string, limit int64) ([]Message, error)
	Stage(ctx context.Context, sessionID string) (Stage, error)
	SetStage(ctx context.Context, sessionID string, stage Stage) error
	Clear(ctx context.Context, sessionID string) error
}

// Gateway streams completions for a transcript.
type Gateway interface {
	Stream(ctx context.Context, req GenerateRequest, onDelta func(delta string)) (StreamResult, error)
}

// Handler drives one chat turn per request: advance the stage from the
// user's message, stream the gateway reply, persist both sides.
type Handler struct {
	sessions SessionStore
	gateway  Gateway
	machine  *StageMachine
	metrics  *metrics.ChatMetrics
	logger   *logging.Logger
}

// NewHandler creates a chat handler. m may be nil.
func NewHandler(sessions SessionStore, gateway Gateway, machine *StageMachine, m *metrics.ChatMetrics, logger *logging.Logger) *Handler {
	if machine == nil {
		machine = NewStageMachine(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		sessions: sessions,
		gateway:  gateway,
		machine:  machine,
		metrics:  m,
		logger:   logger,
	}
}

type messageResponse struct {
	SessionID string  `json:"session_id"`
	Message   Message `json:"message"`
	Stage     Stage   `json:"stage"`
}

// Message handles POST /chat/message requests
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	ctx := r.Context()

	history, err := h.sessions.History(ctx, req.SessionID, 0)
	if err != nil {
		h.logger.Error("chat: failed to load history", "error", err, "session_id", req.SessionID)
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}
	if len(history) == 0 {
		greeting := GreetingMessage()
		if err := h.sessions.Append(ctx, req.SessionID, greeting); err != nil {
			h.logger.Error("chat: failed to seed greeting", "error", err, "session_id", req.SessionID)
		}
		history = append(history, greeting)
	}

	current, err := h.sessions.Stage(ctx, req.SessionID)
	if err != nil {
		h.logger.Warn("chat: stage load failed, using initial", "error", err, "session_id", req.SessionID)
		current = StageGreet
	}

	// The stage computed from the user's message is what goes on the wire.
	// The post-reply force transition only affects the following turn.
	next := h.machine.Next(current, req.Text)

	userMsg := NewMessage(RoleUser, req.Text)
	if err := h.sessions.Append(ctx, req.SessionID, userMsg); err != nil {
		h.logger.Error("chat: failed to persist user message", "error", err, "session_id", req.SessionID)
	}

	wire := make([]WireMessage, 0, len(history)+1)
	for _, m := range history {
		wire = append(wire, WireMessage{Role: m.Role, Content: m.Content})
	}
	wire = append(wire, WireMessage{Role: RoleUser, Content: req.Text})

	start := time.Now()
	result, err := h.gateway.Stream(ctx, GenerateRequest{Messages: wire, Stage: next}, nil)
	if err != nil {
		h.logger.Error("chat: gateway stream failed", "error", err, "session_id", req.SessionID)
		h.metrics.ObserveMessage("error", stageLabel(next))

		// Abandon the in-progress reply and answer with the fixed apology.
		apology := NewMessage(RoleAssistant, Apology)
		if err := h.sessions.Append(ctx, req.SessionID, apology); err != nil {
			h.logger.Error("chat: failed to persist apology", "error", err, "session_id", req.SessionID)
		}
		if err := h.sessions.SetStage(ctx, req.SessionID, next); err != nil {
			h.logger.Error("chat: failed to persist stage", "error", err, "session_id", req.SessionID)
		}
		writeJSON(w, http.StatusOK, messageResponse{
			SessionID: req.SessionID,
			Message:   apology,
			Stage:     next,
		})
		return
	}
	h.metrics.ObserveStream(time.Since(start).Seconds(), result.Deltas)
	h.metrics.ObserveMessage("ok", stageLabel(next))

	final := next
	if current == StageSolutions && ReplyForcesOffer(result.Text) {
		final = StageOffer
	}

	assistantMsg := NewMessage(RoleAssistant, result.Text)
	if err := h.sessions.Append(ctx, req.SessionID, assistantMsg); err != nil {
		h.logger.Error("chat: failed to persist assistant message", "error", err, "session_id", req.SessionID)
	}
	if err := h.sessions.SetStage(ctx, req.SessionID, final); err != nil {
		h.logger.Error("chat: failed to persist stage", "error", err, "session_id", req.SessionID)
	}

	writeJSON(w, http.StatusOK, messageResponse{
		SessionID: req.SessionID,
		Message:   assistantMsg,
		Stage:     final,
	})
}

// History handles GET /chat/history requests
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	msgs, err := h.sessions.History(r.Context(), sessionID, 0)
	if err != nil {
		h.logger.Error("chat: failed to load history", "error", err, "session_id", sessionID)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	stage, err := h.sessions.Stage(r.Context(), sessionID)
	if err != nil {
		stage = StageGreet
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   msgs,
		"stage":      stage,
	})
}

// Reset handles POST /chat/reset requests: clear the transcript, reseed the
// greeting, stage back to the start.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if err := h.sessions.Clear(ctx, req.SessionID); err != nil {
		h.logger.Error("chat: failed to clear session", "error", err, "session_id", req.SessionID)
		http.Error(w, "failed to reset session", http.StatusInternalServerError)
		return
	}

	greeting := GreetingMessage()
	if err := h.sessions.Append(ctx, req.SessionID, greeting); err != nil {
		h.logger.Error("chat: failed to seed greeting", "error", err, "session_id", req.SessionID)
	}
	if err := h.sessions.SetStage(ctx, req.SessionID, StageGreet); err != nil {
		h.logger.Error("chat: failed to reset stage", "error", err, "session_id", req.SessionID)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": req.SessionID,
		"messages":   []Message{greeting},
		"stage":      StageGreet,
	})
}

func stageLabel(s Stage) string {
	return fmt.Sprintf("%d", int(s))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
