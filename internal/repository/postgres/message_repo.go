package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vedran77/relay/internal/domain"
	"go.uber.org/zap"
)

type MessageRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewMessageRepo(pool *pgxpool.Pool, logger *zap.Logger) *MessageRepo {
	return &MessageRepo{pool: pool, logger: logger}
}

func (r *MessageRepo) Insert(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, content, sent_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.SentAt,
	)
	if err != nil {
		r.logger.Error("failed to insert message",
			zap.String("conversation_id", msg.ConversationID.String()),
			zap.Error(err),
		)
	}
	return err
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, before *time.Time, limit int) ([]domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, sent_at
		FROM messages
		WHERE conversation_id = $1 AND ($2::timestamptz IS NULL OR sent_at < $2)
		ORDER BY sent_at DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, conversationID, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
