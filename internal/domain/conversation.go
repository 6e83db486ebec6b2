package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	ErrConversationIDRequired = errors.New("conversation id is required")
	ErrTooFewParticipants     = errors.New("a conversation needs at least 2 participants")
)

// Conversation is a direct (2 participants) or group (3+) chat.
// Direct conversations carry a DirectKey so the store can enforce
// at most one conversation per user pair.
type Conversation struct {
	ID                 uuid.UUID   `json:"id"`
	ParticipantIDs     []uuid.UUID `json:"participant_ids"`
	CreatedAt          time.Time   `json:"created_at"`
	LastMessageAt      *time.Time  `json:"last_message_at,omitempty"`
	LastMessagePreview *string     `json:"last_message_preview,omitempty"`
	DirectKey          *string     `json:"-"`
}

// NewConversation validates and builds a conversation. Participant ids
// are deduplicated and nil ids dropped; at least 2 must remain.
func NewConversation(id uuid.UUID, participantIDs []uuid.UUID, createdAt time.Time) (*Conversation, error) {
	if id == uuid.Nil {
		return nil, ErrConversationIDRequired
	}

	participants := lo.Uniq(lo.Filter(participantIDs, func(p uuid.UUID, _ int) bool {
		return p != uuid.Nil
	}))
	if len(participants) < 2 {
		return nil, ErrTooFewParticipants
	}

	return &Conversation{
		ID:             id,
		ParticipantIDs: participants,
		CreatedAt:      createdAt,
	}, nil
}

// NewDirectConversation builds a 2-participant conversation carrying
// the canonical direct key for the pair.
func NewDirectConversation(id uuid.UUID, a, b uuid.UUID, createdAt time.Time) (*Conversation, error) {
	conv, err := NewConversation(id, []uuid.UUID{a, b}, createdAt)
	if err != nil {
		return nil, err
	}
	key := DirectKey(a, b)
	conv.DirectKey = &key
	return conv, nil
}

// DirectKey returns the canonical key for a user pair: the smaller id
// first, joined with ":". Order of the arguments does not matter.
func DirectKey(a, b uuid.UUID) string {
	sa, sb := a.String(), b.String()
	if sa < sb {
		return sa + ":" + sb
	}
	return sb + ":" + sa
}

func (c *Conversation) IsDirect() bool {
	return len(c.ParticipantIDs) == 2
}

func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return lo.Contains(c.ParticipantIDs, userID)
}

// OtherParticipants returns every participant except the given user.
func (c *Conversation) OtherParticipants(userID uuid.UUID) []uuid.UUID {
	return lo.Filter(c.ParticipantIDs, func(p uuid.UUID, _ int) bool {
		return p != userID
	})
}
