package service

import (
	"context"
	"errors"
	"testing"

	"inventory-service/config"
	"inventory-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mapSessions struct {
	users   map[string]models.User
	failSet error
}

func (m *mapSessions) CurrentUser(ctx context.Context, token string) *models.User {
	u, ok := m.users[token]
	if !ok {
		return nil
	}
	return &u
}

func (m *mapSessions) SetCurrentUser(ctx context.Context, token string, user *models.User) error {
	if m.failSet != nil {
		return m.failSet
	}
	if user == nil {
		delete(m.users, token)
		return nil
	}
	m.users[token] = *user
	return nil
}

func newAuth(t *testing.T) (*AuthService, *mapSessions) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	sessions := &mapSessions{users: map[string]models.User{}}
	return NewAuthService(sessions, config.AuthConfig{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(hash),
		AdminID:           "u1",
		AdminName:         "Admin",
	}), sessions
}

func TestLoginLogout(t *testing.T) {
	auth, _ := newAuth(t)
	ctx := context.Background()

	token, user, err := auth.Login(ctx, "  Admin@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, models.User{ID: "u1", Name: "Admin"}, user)

	current := auth.CurrentUser(ctx, token)
	require.NotNil(t, current)
	assert.Equal(t, "u1", current.ID)

	auth.Logout(ctx, token)
	assert.Nil(t, auth.CurrentUser(ctx, token))
	assert.Nil(t, auth.CurrentUser(ctx, ""))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth, sessions := newAuth(t)
	ctx := context.Background()

	_, _, err := auth.Login(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, KindUnauthorized, KindOf(err))

	_, _, err = auth.Login(ctx, "other@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, sessions.users)
}

func TestLoginWithoutConfiguredHash(t *testing.T) {
	auth := NewAuthService(&mapSessions{users: map[string]models.User{}}, config.AuthConfig{AdminEmail: "a@b.c"})
	_, _, err := auth.Login(context.Background(), "a@b.c", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginSessionStoreFailure(t *testing.T) {
	auth, sessions := newAuth(t)
	sessions.failSet = errors.New("redis down")

	_, _, err := auth.Login(context.Background(), "admin@example.com", "s3cret")
	assert.Equal(t, KindPersistence, KindOf(err))
}
