package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// fakeConversationRepo is an in-memory store that enforces the same
// unique direct-key constraint as the real one, so the
// insert-then-reconcile race behaves like production.
type fakeConversationRepo struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*domain.Conversation
	byKey  map[string]uuid.UUID
	limits []int // limits passed to ListForUser/IDsForUser
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		byID:  make(map[uuid.UUID]*domain.Conversation),
		byKey: make(map[string]uuid.UUID),
	}
}

func (r *fakeConversationRepo) Insert(_ context.Context, conv *domain.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conv.DirectKey != nil {
		if _, exists := r.byKey[*conv.DirectKey]; exists {
			return repository.ErrDuplicateDirectKey
		}
		r.byKey[*conv.DirectKey] = conv.ID
	}
	cp := *conv
	r.byID[conv.ID] = &cp
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeConversationRepo) GetByDirectKey(_ context.Context, key string) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[key]; ok {
		cp := *r.byID[id]
		return &cp, nil
	}
	return nil, nil
}

func (r *fakeConversationRepo) ListForUser(_ context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limits = append(r.limits, limit)

	var out []domain.Conversation
	for _, c := range r.byID {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return recency(out[i]).After(recency(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func recency(c domain.Conversation) time.Time {
	if c.LastMessageAt != nil {
		return *c.LastMessageAt
	}
	return c.CreatedAt
}

func (r *fakeConversationRepo) IDsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	convs, err := r.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}
	return ids, nil
}

func (r *fakeConversationRepo) ParticipantIDs(_ context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[conversationID]; ok {
		return append([]uuid.UUID(nil), c.ParticipantIDs...), nil
	}
	return nil, nil
}

func (r *fakeConversationRepo) ContactUserIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, c := range r.byID {
		if !c.HasParticipant(userID) {
			continue
		}
		for _, p := range c.ParticipantIDs {
			if p == userID {
				continue
			}
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) ExistsParticipant(_ context.Context, conversationID, userID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[conversationID]
	return ok && c.HasParticipant(userID), nil
}

func (r *fakeConversationRepo) TouchLastMessage(_ context.Context, conversationID uuid.UUID, at time.Time, preview string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byID[conversationID]; ok {
		c.LastMessageAt = &at
		c.LastMessagePreview = &preview
	}
	return nil
}

func (r *fakeConversationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := r.GetByID(ctx, id)
	return u != nil, err
}

func (r *fakeUserRepo) SearchByUsername(_ context.Context, prefix string, limit int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if len(out) == limit {
			break
		}
		if len(u.Username) >= len(prefix) && u.Username[:len(prefix)] == prefix {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []domain.Message
}

func (r *fakeMessageRepo) Insert(_ context.Context, msg *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Message
	for _, m := range r.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if before != nil && !m.SentAt.Before(*before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type fakeNotifier struct {
	mu         sync.Mutex
	messages   []*domain.Message
	recipients [][]uuid.UUID
}

func (n *fakeNotifier) NotifyMessageReceived(msg *domain.Message, recipients []uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	n.recipients = append(n.recipients, recipients)
}
