package database

import (
	"context"
	"testing"
	"time"

	"schedule_notification_bot/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationCreateAndExists(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteNotificationRepository(newTestRunner(t))

	rec := &notification.Record{
		UserTelegramID:   42,
		LessonKey:        notification.LessonKey("Математика", "09:00-10:30", "monday", "numerator"),
		NotificationDate: "2026-03-02",
	}
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.False(t, rec.SentAt.IsZero(), "Create fills sent_at when unset")

	exists, err := repo.Exists(ctx, 42, rec.LessonKey, "2026-03-02")
	require.NoError(t, err)
	assert.True(t, exists)

	// Different date, same lesson: a fresh occurrence, not yet recorded.
	exists, err = repo.Exists(ctx, 42, rec.LessonKey, "2026-03-09")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNotificationDuplicateInsertRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteNotificationRepository(newTestRunner(t))

	key := notification.LessonKey("Фізика", "10:40-12:10", "tuesday", "denominator")
	first := &notification.Record{UserTelegramID: 42, LessonKey: key, NotificationDate: "2026-03-03"}
	require.NoError(t, repo.Create(ctx, first))

	second := &notification.Record{UserTelegramID: 42, LessonKey: key, NotificationDate: "2026-03-03"}
	err := repo.Create(ctx, second)
	require.ErrorIs(t, err, ErrDuplicateRecord)

	// A different recipient is not blocked by the first record.
	other := &notification.Record{UserTelegramID: 43, LessonKey: key, NotificationDate: "2026-03-03"}
	require.NoError(t, repo.Create(ctx, other))
}

func TestNotificationPruneOlderThan(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteNotificationRepository(newTestRunner(t))

	now := time.Now().UTC()
	old := &notification.Record{
		UserTelegramID:   42,
		LessonKey:        "old_lesson",
		NotificationDate: now.AddDate(0, 0, -120).Format("2006-01-02"),
		SentAt:           now.AddDate(0, 0, -120),
	}
	recent := &notification.Record{
		UserTelegramID:   42,
		LessonKey:        "recent_lesson",
		NotificationDate: now.Format("2006-01-02"),
		SentAt:           now,
	}
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, recent))

	deleted, err := repo.PruneOlderThan(ctx, now.AddDate(0, 0, -90))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	exists, err := repo.Exists(ctx, 42, "old_lesson", old.NotificationDate)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.Exists(ctx, 42, "recent_lesson", recent.NotificationDate)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNotificationCountByDate(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLiteNotificationRepository(newTestRunner(t))

	for i := int64(1); i <= 3; i++ {
		rec := &notification.Record{UserTelegramID: i, LessonKey: "lesson", NotificationDate: "2026-03-02"}
		require.NoError(t, repo.Create(ctx, rec))
	}

	count, err := repo.CountByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	count, err = repo.CountByDate(ctx, "2026-03-03")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
