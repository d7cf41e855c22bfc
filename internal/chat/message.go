package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Greeting opens every fresh transcript.
const Greeting = "Hi, I'm the assistant for Morgan Consulting. What brings you here today?"

// Apology replaces the assistant reply when the stream fails. No automatic
// retry is performed; the visitor resubmits manually.
const Apology = "Sorry, something went wrong. Please try again."

// Message is one entry in a conversation transcript. User messages are
// immutable once created; assistant messages grow while streaming.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a transcript entry with a fresh ID.
func NewMessage(role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// GreetingMessage returns the assistant greeting that seeds a transcript.
func GreetingMessage() Message {
	return NewMessage(RoleAssistant, Greeting)
}
