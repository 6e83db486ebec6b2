package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The partial unique index on direct_key is what makes concurrent
// direct-conversation creation race-safe: the second writer gets a
// duplicate-key error and reconciles by re-reading. Group
// conversations leave direct_key NULL and are not constrained.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            uuid PRIMARY KEY,
	email         text NOT NULL,
	username      text NOT NULL,
	display_name  text NOT NULL,
	password_hash text NOT NULL,
	created_at    timestamptz NOT NULL,
	updated_at    timestamptz NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_users_email ON users (email);
CREATE UNIQUE INDEX IF NOT EXISTS ux_users_username ON users (username);

CREATE TABLE IF NOT EXISTS conversations (
	id                   uuid PRIMARY KEY,
	participant_ids      uuid[] NOT NULL,
	direct_key           text,
	created_at           timestamptz NOT NULL,
	last_message_at      timestamptz,
	last_message_preview text
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_conversations_direct_key
	ON conversations (direct_key) WHERE direct_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS ix_conversations_participants
	ON conversations USING gin (participant_ids);
CREATE INDEX IF NOT EXISTS ix_conversations_recency
	ON conversations (last_message_at DESC NULLS LAST);

CREATE TABLE IF NOT EXISTS messages (
	id              uuid PRIMARY KEY,
	conversation_id uuid NOT NULL REFERENCES conversations (id),
	sender_id       uuid NOT NULL,
	content         text NOT NULL,
	sent_at         timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_messages_conversation_sent_at
	ON messages (conversation_id, sent_at DESC);
`

// EnsureSchema creates tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
