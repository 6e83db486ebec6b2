package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
)

// ErrDuplicateDirectKey is returned by ConversationRepository.Insert
// when another conversation already holds the same direct key. Callers
// resolve it by re-reading the store, never by surfacing a conflict.
var ErrDuplicateDirectKey = errors.New("direct key already exists")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	SearchByUsername(ctx context.Context, prefix string, limit int) ([]domain.User, error)
}

type ConversationRepository interface {
	// Insert stores a new conversation. A direct-key collision yields
	// ErrDuplicateDirectKey.
	Insert(ctx context.Context, conv *domain.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	GetByDirectKey(ctx context.Context, key string) (*domain.Conversation, error)
	// ListForUser returns the user's conversations, most recently
	// active first.
	ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error)
	IDsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error)
	ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error)
	// ContactUserIDs returns every other participant across all of the
	// user's conversations.
	ContactUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	ExistsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	// TouchLastMessage applies last-writer-wins recency metadata.
	TouchLastMessage(ctx context.Context, conversationID uuid.UUID, at time.Time, preview string) error
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	// ListByConversation returns messages newest-first. A non-nil
	// before is an exclusive upper bound on sent_at.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error)
}
