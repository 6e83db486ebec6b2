package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/repository"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type ConversationRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewConversationRepo(pool *pgxpool.Pool, logger *zap.Logger) *ConversationRepo {
	return &ConversationRepo{pool: pool, logger: logger}
}

func (r *ConversationRepo) Insert(ctx context.Context, conv *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, participant_ids, direct_key, created_at, last_message_at, last_message_preview)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.pool.Exec(ctx, query,
		conv.ID, conv.ParticipantIDs, conv.DirectKey,
		conv.CreatedAt, conv.LastMessageAt, conv.LastMessagePreview,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		r.logger.Debug("direct key collision on insert",
			zap.String("conversation_id", conv.ID.String()),
		)
		return repository.ErrDuplicateDirectKey
	}
	return err
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return r.scanConversation(ctx, `
		SELECT id, participant_ids, direct_key, created_at, last_message_at, last_message_preview
		FROM conversations
		WHERE id = $1`, id)
}

func (r *ConversationRepo) GetByDirectKey(ctx context.Context, key string) (*domain.Conversation, error) {
	return r.scanConversation(ctx, `
		SELECT id, participant_ids, direct_key, created_at, last_message_at, last_message_preview
		FROM conversations
		WHERE direct_key = $1`, key)
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Conversation, error) {
	query := `
		SELECT id, participant_ids, direct_key, created_at, last_message_at, last_message_preview
		FROM conversations
		WHERE $1 = ANY(participant_ids)
		ORDER BY COALESCE(last_message_at, created_at) DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(
			&c.ID, &c.ParticipantIDs, &c.DirectKey,
			&c.CreatedAt, &c.LastMessageAt, &c.LastMessagePreview,
		); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) IDsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM conversations
		WHERE $1 = ANY(participant_ids)
		ORDER BY COALESCE(last_message_at, created_at) DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ConversationRepo) ParticipantIDs(ctx context.Context, conversationID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.pool.QueryRow(ctx,
		`SELECT participant_ids FROM conversations WHERE id = $1`, conversationID,
	).Scan(&ids)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return ids, err
}

func (r *ConversationRepo) ContactUserIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT p
		FROM conversations c, unnest(c.participant_ids) AS p
		WHERE $1 = ANY(c.participant_ids) AND p <> $1`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ConversationRepo) ExistsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1 AND $2 = ANY(participant_ids))`,
		conversationID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *ConversationRepo) TouchLastMessage(ctx context.Context, conversationID uuid.UUID, at time.Time, preview string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE conversations
		SET last_message_at = $2, last_message_preview = $3
		WHERE id = $1`,
		conversationID, at, preview,
	)
	if err != nil {
		r.logger.Error("failed to touch conversation recency",
			zap.String("conversation_id", conversationID.String()),
			zap.Error(err),
		)
	}
	return err
}

func (r *ConversationRepo) scanConversation(ctx context.Context, query string, arg any) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.ParticipantIDs, &c.DirectKey,
		&c.CreatedAt, &c.LastMessageAt, &c.LastMessagePreview,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return &c, err
}
