package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
	"go.uber.org/zap"
)

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrParticipantNotFound  = errors.New("participant user not found")
	// ErrDirectLookupFailed covers the near-impossible case where an
	// insert was rejected as a duplicate but the winning row cannot be
	// read back.
	ErrDirectLookupFailed = errors.New("direct conversation missing after duplicate key")
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	previewLength    = 120
)

// ConversationService owns conversation identity, participant sets and
// the direct-conversation dedup protocol.
type ConversationService struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
	clock    Clock
	logger   *zap.Logger
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	clock Clock,
	logger *zap.Logger,
) *ConversationService {
	return &ConversationService{
		convRepo: convRepo,
		userRepo: userRepo,
		clock:    clock,
		logger:   logger,
	}
}

// Create builds a conversation for the creator plus the given
// participants. A resolved set of exactly two becomes a direct
// conversation and goes through the dedup path; anything larger is a
// group conversation.
func (s *ConversationService) Create(ctx context.Context, creatorID uuid.UUID, participantIDs []uuid.UUID) (*domain.Conversation, error) {
	participants := lo.Uniq(append(
		lo.Filter(participantIDs, func(p uuid.UUID, _ int) bool { return p != uuid.Nil }),
		creatorID,
	))

	for _, id := range participants {
		if id == creatorID {
			continue
		}
		exists, err := s.userRepo.ExistsByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("checking participant %s: %w", id, err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, id)
		}
	}

	if len(participants) == 2 {
		return s.CreateOrGetDirect(ctx, participants[0], participants[1])
	}

	conv, err := domain.NewConversation(uuid.New(), participants, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.convRepo.Insert(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	s.logger.Info("group conversation created",
		zap.String("conversation_id", conv.ID.String()),
		zap.Int("participants", len(conv.ParticipantIDs)),
	)
	return conv, nil
}

// CreateOrGetDirect guarantees at most one direct conversation per user
// pair. It inserts unconditionally and relies on the store's unique
// direct-key constraint: on a duplicate-key rejection it re-reads by
// key and returns the conversation that won the race. There is
// deliberately no existence pre-check; check-then-insert would race.
func (s *ConversationService) CreateOrGetDirect(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	conv, err := domain.NewDirectConversation(uuid.New(), userA, userB, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.convRepo.Insert(ctx, conv)
	if err == nil {
		s.logger.Info("direct conversation created",
			zap.String("conversation_id", conv.ID.String()),
		)
		return conv, nil
	}
	if !errors.Is(err, repository.ErrDuplicateDirectKey) {
		return nil, fmt.Errorf("creating direct conversation: %w", err)
	}

	existing, err := s.convRepo.GetByDirectKey(ctx, *conv.DirectKey)
	if err != nil {
		return nil, fmt.Errorf("fetching direct conversation after conflict: %w", err)
	}
	if existing == nil {
		s.logger.Error("duplicate direct key but no row found",
			zap.String("direct_key", *conv.DirectKey),
		)
		return nil, ErrDirectLookupFailed
	}
	return existing, nil
}

func (s *ConversationService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return s.convRepo.ExistsParticipant(ctx, conversationID, userID)
}

// TouchLastMessage updates recency metadata with a truncated preview.
// Last writer wins; the router's send path orders writes within a
// conversation.
func (s *ConversationService) TouchLastMessage(ctx context.Context, conversationID uuid.UUID, at time.Time, preview string) error {
	if runes := []rune(preview); len(runes) > previewLength {
		preview = string(runes[:previewLength])
	}
	return s.convRepo.TouchLastMessage(ctx, conversationID, at, preview)
}

// ListForUser returns the user's conversations, most recently active
// first. Non-positive limits fall back to the default; the hard cap is
// always applied.
func (s *ConversationService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	convs, err := s.convRepo.ListForUser(ctx, userID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return convs, nil
}

// ConversationIDsForUser supports connect-time auto-join, bounded by
// the caller's cap.
func (s *ConversationService) ConversationIDsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	return s.convRepo.IDsForUser(ctx, userID, normalizeLimit(limit))
}

func (s *ConversationService) ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := s.convRepo.ParticipantIDs(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		return nil, ErrConversationNotFound
	}
	return ids, nil
}

// ContactUserIDs is the union of every other participant across the
// user's conversations, used for presence fan-out.
func (s *ConversationService) ContactUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	return s.convRepo.ContactUserIDs(ctx, userID)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
