package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatMessage is immutable once appended to a meeting's history.
// History is unbounded; eviction is a known gap, not a feature.
type ChatMessage struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChatMessage(author, text string) ChatMessage {
	return ChatMessage{
		ID:        uuid.NewString(),
		User:      author,
		Text:      text,
		Timestamp: time.Now(),
	}
}
