package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_TrimsContent(t *testing.T) {
	msg, err := NewMessage(uuid.New(), uuid.New(), uuid.New(), "  hello \n", time.Now())
	require.NoError(t, err)

	assert.Equal(t, "hello", msg.Content)
}

func TestNewMessage_RejectsEmptyContent(t *testing.T) {
	_, err := NewMessage(uuid.New(), uuid.New(), uuid.New(), "   \t\n ", time.Now())
	assert.ErrorIs(t, err, ErrMessageContentRequired)
}

func TestNewMessage_RequiresIDs(t *testing.T) {
	_, err := NewMessage(uuid.Nil, uuid.New(), uuid.New(), "hi", time.Now())
	assert.ErrorIs(t, err, ErrMessageIDRequired)

	_, err = NewMessage(uuid.New(), uuid.Nil, uuid.New(), "hi", time.Now())
	assert.ErrorIs(t, err, ErrMessageConversationID)

	_, err = NewMessage(uuid.New(), uuid.New(), uuid.Nil, "hi", time.Now())
	assert.ErrorIs(t, err, ErrMessageSenderRequired)
}

func TestMessage_Preview(t *testing.T) {
	short, err := NewMessage(uuid.New(), uuid.New(), uuid.New(), "hello", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "hello", short.Preview(120))

	long, err := NewMessage(uuid.New(), uuid.New(), uuid.New(), strings.Repeat("é", 200), time.Now())
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 120), long.Preview(120), "truncation counts runes, not bytes")
}
