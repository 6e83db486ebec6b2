package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/presence"
	"github.com/vedran77/relay/internal/session"
	"go.uber.org/zap"
)

// offlineBroadcastTimeout bounds the best-effort offline presence
// fan-out that runs after the triggering connection is already gone.
const offlineBroadcastTimeout = 5 * time.Second

// Directory is the slice of the conversation service the hub needs.
type Directory interface {
	ConversationIDsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error)
	ContactUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
}

var ErrNotParticipant = errors.New("not a participant in this conversation")

// Hub coordinates the connection lifecycle: it registers connections,
// auto-joins conversation groups, maintains presence counts and fans
// events out to live connections.
type Hub struct {
	registry  *session.Registry
	presence  *presence.Tracker
	directory Directory

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client // connection id → client

	autoJoinLimit int
	logger        *zap.Logger
}

func NewHub(registry *session.Registry, tracker *presence.Tracker, directory Directory, autoJoinLimit int, logger *zap.Logger) *Hub {
	return &Hub{
		registry:      registry,
		presence:      tracker,
		directory:     directory,
		clients:       make(map[uuid.UUID]*Client),
		autoJoinLimit: autoJoinLimit,
		logger:        logger,
	}
}

// Connect brings a freshly authenticated connection online: register
// it, subscribe it to the user's conversations (bounded by the
// auto-join cap) and, if this is the user's first live connection,
// broadcast an online presence change to their contacts.
func (h *Hub) Connect(ctx context.Context, c *Client) error {
	convIDs, err := h.directory.ConversationIDsForUser(ctx, c.userID, h.autoJoinLimit)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	h.registry.Register(c.id, c.userID)
	for _, convID := range convIDs {
		h.registry.JoinGroup(c.id, convID)
	}

	h.logger.Info("connection established",
		zap.String("connection_id", c.id.String()),
		zap.String("user_id", c.userID.String()),
		zap.Int("auto_joined", len(convIDs)),
	)

	if h.presence.RecordConnect(c.userID) {
		h.broadcastPresence(ctx, c.userID, true)
	}
	return nil
}

// Disconnect tears a connection down. The offline presence broadcast
// runs on a fresh context: the connection's own context is already
// canceled by the closure that triggered the cleanup, and presence
// bookkeeping must not be skipped because of it.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	h.mu.Unlock()

	h.registry.Unregister(c.id)

	h.logger.Info("connection closed",
		zap.String("connection_id", c.id.String()),
		zap.String("user_id", c.userID.String()),
	)

	if h.presence.RecordDisconnect(c.userID) {
		ctx, cancel := context.WithTimeout(context.Background(), offlineBroadcastTimeout)
		defer cancel()
		h.broadcastPresence(ctx, c.userID, false)
	}
}

// JoinConversation subscribes a single connection to a conversation
// group. Participancy is re-verified on every join; client input is
// not trusted.
func (h *Hub) JoinConversation(ctx context.Context, c *Client, conversationID uuid.UUID) error {
	ok, err := h.directory.IsParticipant(ctx, conversationID, c.userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotParticipant
	}
	h.registry.JoinGroup(c.id, conversationID)
	return nil
}

func (h *Hub) LeaveConversation(c *Client, conversationID uuid.UUID) {
	h.registry.LeaveGroup(c.id, conversationID)
}

// OnlineContacts returns the subset of the user's contacts that
// currently hold at least one live connection.
func (h *Hub) OnlineContacts(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	contacts, err := h.directory.ContactUserIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	online := make([]uuid.UUID, 0, len(contacts))
	for _, contact := range contacts {
		if h.presence.IsOnline(contact) {
			online = append(online, contact)
		}
	}
	return online, nil
}

// BroadcastToUsers delivers an event to every live connection of each
// target user. Best-effort: a connection with a full buffer is skipped
// and the drop logged.
func (h *Hub) BroadcastToUsers(userIDs []uuid.UUID, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		for _, connID := range h.registry.ConnectionsForUser(userID) {
			c, ok := h.clients[connID]
			if !ok {
				continue
			}
			select {
			case c.send <- data:
			default:
				h.logger.Warn("dropping event, send buffer full",
					zap.String("connection_id", connID.String()),
					zap.String("event", event.Type),
				)
			}
		}
	}
}

func (h *Hub) broadcastPresence(ctx context.Context, userID uuid.UUID, online bool) {
	contacts, err := h.directory.ContactUserIDs(ctx, userID)
	if err != nil {
		// Presence fan-out must never fail the lifecycle operation
		// that triggered it.
		h.logger.Warn("failed to resolve contacts for presence broadcast",
			zap.String("user_id", userID.String()),
			zap.Bool("online", online),
			zap.Error(err),
		)
		return
	}

	evt, err := NewEvent(EventTypePresenceChanged, nil, PresencePayload{UserID: userID, Online: online})
	if err != nil {
		h.logger.Error("marshal presence event", zap.Error(err))
		return
	}
	h.BroadcastToUsers(contacts, evt)
}
