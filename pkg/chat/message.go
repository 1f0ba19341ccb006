package chat

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Messages are never mutated after
// creation; the transcript only grows.
type Message struct {
	ID   string    `json:"id"`
	Role Role      `json:"role"`
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

// HistoryEntry is the wire shape sent to the chat API.
type HistoryEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

func newMessage(role Role, text string) Message {
	return Message{
		ID:   uuid.NewString(),
		Role: role,
		Text: text,
		Time: time.Now(),
	}
}
