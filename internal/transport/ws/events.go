package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeMessageSend       = "message.send"
	EventTypeConversationJoin  = "conversation.join"
	EventTypeConversationLeave = "conversation.leave"
	EventTypeOnlineContacts    = "contacts.online"
	EventTypePing              = "ping"
)

// Event types - Server → Client
const (
	EventTypeMessageSent          = "message.sent"
	EventTypeMessageReceived      = "message.received"
	EventTypePresenceChanged      = "presence.changed"
	EventTypeOnlineContactsResult = "contacts.online.result"
	EventTypePong                 = "pong"
	EventTypeError                = "error"
)

// Event is the base envelope for all WebSocket messages.
type Event struct {
	Type           string          `json:"type"`
	ConversationID *uuid.UUID      `json:"conversation_id,omitempty"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Timestamp      int64           `json:"ts,omitempty"`
}

// --- Client → Server payloads ---

type MessageSendPayload struct {
	Content string `json:"content"`
}

type ConversationPayload struct {
	ConversationID uuid.UUID `json:"conversation_id"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

type PresencePayload struct {
	UserID uuid.UUID `json:"user_id"`
	Online bool      `json:"online"`
}

type OnlineContactsPayload struct {
	UserIDs []uuid.UUID `json:"user_ids"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, conversationID *uuid.UUID, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:           eventType,
		ConversationID: conversationID,
		Payload:        data,
		Timestamp:      time.Now().Unix(),
	}, nil
}
