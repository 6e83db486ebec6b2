package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthService(userRepo *fakeUserRepo) *AuthService {
	return NewAuthService(userRepo, testSecret, fixedClock{at: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Email:       "iva@example.com",
		Username:    "iva",
		DisplayName: "Iva",
		Password:    "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.NotEmpty(t, registered.User.PasswordHash)
	assert.NotEqual(t, "correct horse", registered.User.PasswordHash)

	loggedIn, err := svc.Login(ctx, LoginInput{Email: "iva@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, loggedIn.User.ID)

	_, err = svc.Login(ctx, LoginInput{Email: "iva@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestRegister_Taken(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "iva@example.com", Username: "iva", Password: "pw123456"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "iva@example.com", Username: "other", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.Register(ctx, RegisterInput{Email: "other@example.com", Username: "iva", Password: "pw123456"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestTokenClaims(t *testing.T) {
	svc := newAuthService(newFakeUserRepo())

	resp, err := svc.Register(context.Background(), RegisterInput{
		Email:    "iva@example.com",
		Username: "iva",
		Password: "pw123456",
	})
	require.NoError(t, err)

	token, err := jwt.Parse(resp.AccessToken, func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	sub, err := token.Claims.GetSubject()
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID.String(), sub)
}
