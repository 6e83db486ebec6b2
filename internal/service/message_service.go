package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrEmptyContent   = errors.New("message content is empty")
	ErrContentTooLong = errors.New("message content is too long")
)

// Notifier pushes real-time events to connected clients. Delivery is
// best-effort; implementations must never return delivery failures
// into the send path.
type Notifier interface {
	NotifyMessageReceived(msg *domain.Message, recipients []uuid.UUID)
}

// MessageService validates, persists and fans out messages.
type MessageService struct {
	messageRepo   repository.MessageRepository
	conversations *ConversationService
	clock         Clock
	maxLength     int
	notifier      Notifier
	logger        *zap.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	conversations *ConversationService,
	clock Clock,
	maxLength int,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		conversations: conversations,
		clock:         clock,
		maxLength:     maxLength,
		logger:        logger,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

// Send validates the content, checks the sender's membership, persists
// the message, refreshes conversation recency and fans the message out
// to every other participant's live connections.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if len([]rune(content)) > s.maxLength {
		return nil, ErrContentTooLong
	}

	isParticipant, err := s.conversations.IsParticipant(ctx, conversationID, senderID)
	if err != nil {
		return nil, fmt.Errorf("checking participancy: %w", err)
	}
	if !isParticipant {
		return nil, ErrNotParticipant
	}

	msg, err := domain.NewMessage(uuid.New(), conversationID, senderID, content, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.messageRepo.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	if err := s.conversations.TouchLastMessage(ctx, conversationID, msg.SentAt, msg.Preview(previewLength)); err != nil {
		// Recency metadata is advisory; the message is already stored.
		s.logger.Warn("failed to update conversation recency",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err),
		)
	}

	if s.notifier != nil {
		participants, err := s.conversations.ParticipantIDs(ctx, conversationID)
		if err != nil {
			s.logger.Warn("failed to resolve recipients for fan-out",
				zap.String("conversation_id", conversationID.String()),
				zap.Error(err),
			)
		} else {
			recipients := make([]uuid.UUID, 0, len(participants))
			for _, p := range participants {
				if p != senderID {
					recipients = append(recipients, p)
				}
			}
			s.notifier.NotifyMessageReceived(msg, recipients)
		}
	}

	return msg, nil
}

// GetHistory returns messages newest-first. A non-nil before is an
// exclusive upper bound on sent_at for cursor pagination. The
// requester must be a participant.
func (s *MessageService) GetHistory(ctx context.Context, conversationID, requesterID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error) {
	isParticipant, err := s.conversations.IsParticipant(ctx, conversationID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("checking participancy: %w", err)
	}
	if !isParticipant {
		return nil, ErrNotParticipant
	}

	messages, err := s.messageRepo.ListByConversation(ctx, conversationID, before, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}
