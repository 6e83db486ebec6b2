package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMessageIDRequired      = errors.New("message id is required")
	ErrMessageConversationID  = errors.New("message conversation id is required")
	ErrMessageSenderRequired  = errors.New("message sender id is required")
	ErrMessageContentRequired = errors.New("message content is required")
)

// Message is immutable once created.
type Message struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Content        string    `json:"content"`
	SentAt         time.Time `json:"sent_at"`
}

// NewMessage validates and builds a message. Content is trimmed of
// surrounding whitespace and must not end up empty.
func NewMessage(id, conversationID, senderID uuid.UUID, content string, sentAt time.Time) (*Message, error) {
	if id == uuid.Nil {
		return nil, ErrMessageIDRequired
	}
	if conversationID == uuid.Nil {
		return nil, ErrMessageConversationID
	}
	if senderID == uuid.Nil {
		return nil, ErrMessageSenderRequired
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrMessageContentRequired
	}

	return &Message{
		ID:             id,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		SentAt:         sentAt,
	}, nil
}

// Preview returns the content truncated to max runes, for conversation
// list metadata. Not authoritative for message content.
func (m *Message) Preview(max int) string {
	runes := []rune(m.Content)
	if len(runes) <= max {
		return m.Content
	}
	return string(runes[:max])
}
