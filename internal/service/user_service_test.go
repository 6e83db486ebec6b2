package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMe(t *testing.T) {
	user := testUser("iva")
	svc := NewUserService(newFakeUserRepo(user))

	got, err := svc.GetMe(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)

	_, err = svc.GetMe(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSearch_ShortQueryReturnsNothing(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(testUser("iva")))

	for _, query := range []string{"", "i", "  i  "} {
		users, err := svc.Search(context.Background(), query, 10)
		require.NoError(t, err)
		assert.NotNil(t, users)
		assert.Empty(t, users)
	}
}

func TestSearch_PrefixMatch(t *testing.T) {
	svc := NewUserService(newFakeUserRepo(testUser("ivana"), testUser("ivan"), testUser("marko")))

	users, err := svc.Search(context.Background(), "iva", 10)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}
