package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"schedule_notification_bot/internal/domain/alert"
	"schedule_notification_bot/internal/domain/notification"
	"schedule_notification_bot/internal/domain/schedule"
	"schedule_notification_bot/internal/domain/user"
	"schedule_notification_bot/internal/infra/cache"
	idb "schedule_notification_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

type fakeTelegramClient struct {
	sent []int64
	fail bool
}

func (f *fakeTelegramClient) SendMessage(recipientChatID int64, text string, options *telebot.SendOptions) error {
	if f.fail {
		return fmt.Errorf("telegram unavailable")
	}
	f.sent = append(f.sent, recipientChatID)
	return nil
}

type fakeAlertProvider struct{ status alert.Status }

func (f *fakeAlertProvider) Status() alert.Status { return f.status }

type notificationFixture struct {
	svc       *NotificationServiceImpl
	client    *fakeTelegramClient
	userRepo  *idb.SQLiteUserRepository
	notifRepo *idb.SQLiteNotificationRepository
	schedSvc  *ScheduleService
}

func newNotificationFixture(t *testing.T, now time.Time) *notificationFixture {
	t.Helper()
	runner := newTestRunner(t)
	schedSvc := NewScheduleService(
		idb.NewSQLiteScheduleRepository(runner),
		cache.New[[]schedule.Entry](cache.DefaultTTL),
		logrus.NewEntry(logrus.New()),
	)
	userRepo := idb.NewSQLiteUserRepository(runner)
	notifRepo := idb.NewSQLiteNotificationRepository(runner)
	client := &fakeTelegramClient{}

	svc := NewNotificationServiceImpl(
		schedSvc, userRepo, notifRepo, client,
		&fakeAlertProvider{status: alert.Status{Known: true, Active: false}},
		logrus.NewEntry(logrus.New()),
		10, 90*24*time.Hour, "Дніпро",
	)
	svc.now = func() time.Time { return now }
	return &notificationFixture{svc: svc, client: client, userRepo: userRepo, notifRepo: notifRepo, schedSvc: schedSvc}
}

// Monday, so DaySchedule resolves to "monday".
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func TestReminderSentOnceAcrossRepeatedTicks(t *testing.T) {
	ctx := context.Background()
	fx := newNotificationFixture(t, testNow)

	require.NoError(t, fx.userRepo.Create(ctx, &user.User{TelegramID: 100, NotificationsEnabled: true}))
	require.NoError(t, fx.schedSvc.AddEntry(ctx, &schedule.Entry{
		DayOfWeek: "monday", TimeRange: "08:10-09:30", Subject: "Математика", WeekType: schedule.WeekNumerator,
	}))

	require.NoError(t, fx.svc.ProcessDueLessonReminders(ctx))
	require.NoError(t, fx.svc.ProcessDueLessonReminders(ctx))

	assert.Equal(t, []int64{100}, fx.client.sent, "back-to-back ticks must not duplicate the reminder")

	count, err := fx.notifRepo.CountByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestReminderSkipsLessonsOutsideLeadWindow(t *testing.T) {
	ctx := context.Background()
	fx := newNotificationFixture(t, testNow)

	require.NoError(t, fx.userRepo.Create(ctx, &user.User{TelegramID: 100, NotificationsEnabled: true}))
	// One lesson too far in the future, one already started.
	require.NoError(t, fx.schedSvc.AddEntry(ctx, &schedule.Entry{
		DayOfWeek: "monday", TimeRange: "12:00-13:30", Subject: "Фізика", WeekType: schedule.WeekNumerator,
	}))
	require.NoError(t, fx.schedSvc.AddEntry(ctx, &schedule.Entry{
		DayOfWeek: "monday", TimeRange: "07:30-08:50", Subject: "Хімія", WeekType: schedule.WeekNumerator,
	}))

	require.NoError(t, fx.svc.ProcessDueLessonReminders(ctx))
	assert.Empty(t, fx.client.sent)
}

func TestReminderOnlyGoesToNotifiableUsers(t *testing.T) {
	ctx := context.Background()
	fx := newNotificationFixture(t, testNow)

	require.NoError(t, fx.userRepo.Create(ctx, &user.User{TelegramID: 100, NotificationsEnabled: true}))
	require.NoError(t, fx.userRepo.Create(ctx, &user.User{TelegramID: 200, NotificationsEnabled: false}))
	require.NoError(t, fx.schedSvc.AddEntry(ctx, &schedule.Entry{
		DayOfWeek: "monday", TimeRange: "08:10-09:30", Subject: "Математика", WeekType: schedule.WeekNumerator,
	}))

	require.NoError(t, fx.svc.ProcessDueLessonReminders(ctx))
	assert.Equal(t, []int64{100}, fx.client.sent)
}

func TestFailedDispatchRetriedNextTick(t *testing.T) {
	ctx := context.Background()
	fx := newNotificationFixture(t, testNow)

	require.NoError(t, fx.userRepo.Create(ctx, &user.User{TelegramID: 100, NotificationsEnabled: true}))
	require.NoError(t, fx.schedSvc.AddEntry(ctx, &schedule.Entry{
		DayOfWeek: "monday", TimeRange: "08:10-09:30", Subject: "Математика", WeekType: schedule.WeekNumerator,
	}))

	fx.client.fail = true
	require.NoError(t, fx.svc.ProcessDueLessonReminders(ctx))
	assert.Empty(t, fx.client.sent)

	count, err := fx.notifRepo.CountByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count, "failed dispatch must leave no ledger record")

	// Next tick, still inside the window, succeeds and records.
	fx.client.fail = false
	require.NoError(t, fx.svc.ProcessDueLessonReminders(ctx))
	assert.Equal(t, []int64{100}, fx.client.sent)

	count, err = fx.notifRepo.CountByDate(ctx, "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPruneLedgerRemovesOnlyExpiredRecords(t *testing.T) {
	ctx := context.Background()
	fx := newNotificationFixture(t, testNow)

	old := testNow.AddDate(0, 0, -120)
	require.NoError(t, fx.notifRepo.Create(ctx, ledgerRecord(100, "old_lesson", old)))
	require.NoError(t, fx.notifRepo.Create(ctx, ledgerRecord(100, "recent_lesson", testNow.AddDate(0, 0, -1))))

	require.NoError(t, fx.svc.PruneLedger(ctx))

	exists, err := fx.notifRepo.Exists(ctx, 100, "old_lesson", old.Format("2006-01-02"))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = fx.notifRepo.Exists(ctx, 100, "recent_lesson", testNow.AddDate(0, 0, -1).Format("2006-01-02"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func ledgerRecord(userID int64, key string, sentAt time.Time) *notification.Record {
	return &notification.Record{
		UserTelegramID:   userID,
		LessonKey:        key,
		NotificationDate: sentAt.Format("2006-01-02"),
		SentAt:           sentAt,
	}
}
