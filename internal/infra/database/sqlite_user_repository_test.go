package database

import (
	"context"
	"testing"

	"schedule_notification_bot/internal/domain/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteUserRepository(newTestRunner(t))

	u := &user.User{TelegramID: 100, Username: "alice", FullName: "Alice A", NotificationsEnabled: true}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotZero(t, u.ID)

	got, err := repo.GetByTelegramID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.NotificationsEnabled)

	_, err = repo.GetByTelegramID(ctx, 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserDuplicateTelegramID(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteUserRepository(newTestRunner(t))

	require.NoError(t, repo.Create(ctx, &user.User{TelegramID: 100, Username: "alice"}))
	err := repo.Create(ctx, &user.User{TelegramID: 100, Username: "impostor"})
	require.ErrorIs(t, err, ErrDuplicateTelegramID)
}

func TestUserNotificationToggleAndListNotifiable(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteUserRepository(newTestRunner(t))

	require.NoError(t, repo.Create(ctx, &user.User{TelegramID: 100, Username: "alice", NotificationsEnabled: true}))
	require.NoError(t, repo.Create(ctx, &user.User{TelegramID: 200, Username: "bob", NotificationsEnabled: true}))

	require.NoError(t, repo.SetNotificationsEnabled(ctx, 200, false))

	notifiable, err := repo.ListNotifiable(ctx)
	require.NoError(t, err)
	require.Len(t, notifiable, 1)
	assert.Equal(t, int64(100), notifiable[0].TelegramID)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = repo.SetNotificationsEnabled(ctx, 999, true)
	require.ErrorIs(t, err, ErrUserNotFound)
}
