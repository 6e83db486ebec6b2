package ws

import (
	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"go.uber.org/zap"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub    *Hub
	logger *zap.Logger
}

func NewHubNotifier(hub *Hub, logger *zap.Logger) *HubNotifier {
	return &HubNotifier{hub: hub, logger: logger}
}

func (n *HubNotifier) NotifyMessageReceived(msg *domain.Message, recipients []uuid.UUID) {
	evt, err := NewEvent(EventTypeMessageReceived, &msg.ConversationID, MessagePayload{Message: *msg})
	if err != nil {
		n.logger.Error("marshal message event", zap.Error(err))
		return
	}
	n.hub.BroadcastToUsers(recipients, evt)
}
