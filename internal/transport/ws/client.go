package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/service"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// MessageSender is the slice of the message service the client needs.
type MessageSender interface {
	Send(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error)
}

// Client represents a single WebSocket connection.
type Client struct {
	id     uuid.UUID
	userID uuid.UUID

	hub    *Hub
	sender MessageSender
	conn   *websocket.Conn
	logger *zap.Logger

	send chan []byte
}

func NewClient(hub *Hub, sender MessageSender, conn *websocket.Conn, userID uuid.UUID, logger *zap.Logger) *Client {
	return &Client{
		id:     uuid.New(),
		userID: userID,
		hub:    hub,
		sender: sender,
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBufSize),
	}
}

// ReadPump reads events from the WebSocket until the connection
// closes, then runs the disconnect path.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Disconnect(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		if err := wsjson.Read(ctx, c.conn, &event); err != nil {
			if websocket.CloseStatus(err) != -1 {
				c.logger.Debug("client disconnected", zap.String("user_id", c.userID.String()))
			} else {
				c.logger.Debug("read error", zap.String("user_id", c.userID.String()), zap.Error(err))
			}
			return
		}

		c.handleEvent(ctx, &event)
	}
}

// WritePump writes queued events to the WebSocket and keeps the
// connection alive with pings. Returns when the send channel closes.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				c.logger.Debug("write error", zap.String("user_id", c.userID.String()), zap.Error(err))
				return
			}

		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (c *Client) handleEvent(ctx context.Context, event *Event) {
	switch event.Type {
	case EventTypeConversationJoin:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.join payload")
			return
		}
		if err := c.hub.JoinConversation(ctx, c, p.ConversationID); err != nil {
			if errors.Is(err, ErrNotParticipant) {
				c.sendError("FORBIDDEN", "not a participant in this conversation")
			} else {
				c.sendError("INTERNAL", "could not join conversation")
			}
			return
		}

	case EventTypeConversationLeave:
		var p ConversationPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid conversation.leave payload")
			return
		}
		c.hub.LeaveConversation(c, p.ConversationID)

	case EventTypeMessageSend:
		if event.ConversationID == nil {
			c.sendError("INVALID_PAYLOAD", "conversation_id required for message.send")
			return
		}
		var p MessageSendPayload
		if err := json.Unmarshal(event.Payload, &p); err != nil {
			c.sendError("INVALID_PAYLOAD", "invalid message.send payload")
			return
		}
		c.handleSendMessage(ctx, *event.ConversationID, p.Content)

	case EventTypeOnlineContacts:
		online, err := c.hub.OnlineContacts(ctx, c.userID)
		if err != nil {
			c.sendError("INTERNAL", "could not resolve online contacts")
			return
		}
		c.sendEvent(EventTypeOnlineContactsResult, nil, OnlineContactsPayload{UserIDs: online})

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError("UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (c *Client) handleSendMessage(ctx context.Context, conversationID uuid.UUID, content string) {
	msg, err := c.sender.Send(ctx, conversationID, c.userID, content)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			c.sendError("VALIDATION", "message content is empty")
		case errors.Is(err, service.ErrContentTooLong):
			c.sendError("VALIDATION", "message content is too long")
		case errors.Is(err, service.ErrNotParticipant):
			c.sendError("FORBIDDEN", "not a participant in this conversation")
		case errors.Is(err, service.ErrConversationNotFound):
			c.sendError("NOT_FOUND", "conversation not found")
		default:
			c.logger.Error("send message over ws", zap.Error(err))
			c.sendError("INTERNAL", "could not send message")
		}
		return
	}

	// Echo the stored message back to the sender; other participants
	// get it through the notifier fan-out.
	c.sendEvent(EventTypeMessageSent, &msg.ConversationID, MessagePayload{Message: *msg})
}

func (c *Client) sendEvent(eventType string, conversationID *uuid.UUID, payload any) {
	evt, err := NewEvent(eventType, conversationID, payload)
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendPong() {
	data, _ := json.Marshal(Event{Type: EventTypePong})
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(code, message string) {
	c.sendEvent(EventTypeError, nil, ErrorPayload{Code: code, Message: message})
}
