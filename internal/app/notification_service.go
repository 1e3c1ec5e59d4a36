package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedule_notification_bot/internal/domain/alert"
	"schedule_notification_bot/internal/domain/notification"
	"schedule_notification_bot/internal/domain/schedule"
	domainTelegram "schedule_notification_bot/internal/domain/telegram"
	"schedule_notification_bot/internal/domain/user"
	idb "schedule_notification_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// NotificationService defines the operations driven by the periodic scheduler.
type NotificationService interface {
	// ProcessDueLessonReminders is one scheduler tick: scan today's schedule
	// for a lesson starting within the lead window and notify every user with
	// notifications enabled, deduplicating through the ledger.
	ProcessDueLessonReminders(ctx context.Context) error
	// PruneLedger removes ledger records older than the retention window.
	PruneLedger(ctx context.Context) error
}

// AlertStatusProvider supplies the current air-alert status for reminder
// headers without blocking.
type AlertStatusProvider interface {
	Status() alert.Status
}

// NotificationServiceImpl implements NotificationService.
type NotificationServiceImpl struct {
	scheduleSvc    *ScheduleService
	userRepo       user.Repository
	notifRepo      notification.Repository
	telegramClient domainTelegram.Client
	alertStatus    AlertStatusProvider
	log            *logrus.Entry
	leadMinutes    int
	retention      time.Duration
	city           string
	now            func() time.Time
}

func NewNotificationServiceImpl(
	scheduleSvc *ScheduleService,
	ur user.Repository,
	nr notification.Repository,
	tc domainTelegram.Client,
	ap AlertStatusProvider,
	log *logrus.Entry,
	leadMinutes int,
	retention time.Duration,
	city string,
) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		scheduleSvc:    scheduleSvc,
		userRepo:       ur,
		notifRepo:      nr,
		telegramClient: tc,
		alertStatus:    ap,
		log:            log,
		leadMinutes:    leadMinutes,
		retention:      retention,
		city:           city,
		now:            time.Now,
	}
}

// ProcessDueLessonReminders scans today's schedule and dispatches reminders
// for the lesson starting in [lead, lead+1] minutes. The window is one
// minute wide so a 60-second tick hits each lesson exactly once; the ledger
// covers the case where overlapping or repeated ticks hit it twice.
func (s *NotificationServiceImpl) ProcessDueLessonReminders(ctx context.Context) error {
	now := s.now()
	day := schedule.DayName(now.Weekday())

	week, err := s.scheduleSvc.CurrentWeekType(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve current week type: %w", err)
	}

	entries, err := s.scheduleSvc.DaySchedule(ctx, day, week)
	if err != nil {
		return fmt.Errorf("failed to load day schedule: %w", err)
	}

	date := now.Format("2006-01-02")
	for _, e := range entries {
		start, err := e.StartTime(now)
		if err != nil {
			s.log.Warnf("Unparseable time range %q for entry %d, skipping", e.TimeRange, e.ID)
			continue
		}
		minutes := int(start.Sub(now).Minutes())
		if minutes < s.leadMinutes || minutes > s.leadMinutes+1 {
			continue
		}
		s.dispatchLessonReminder(ctx, e, day, week, date)
	}
	return nil
}

// dispatchLessonReminder notifies each enabled recipient in turn, keeping
// per-recipient ordering. The ledger check before dispatch skips anything
// already sent; the unique constraint on insert catches the race between
// overlapping ticks, and that violation counts as success.
func (s *NotificationServiceImpl) dispatchLessonReminder(ctx context.Context, e schedule.Entry, day string, week schedule.WeekType, date string) {
	recipients, err := s.userRepo.ListNotifiable(ctx)
	if err != nil {
		s.log.Errorf("Failed to list notifiable users: %v", err)
		return
	}
	if len(recipients) == 0 {
		return
	}

	key := notification.LessonKey(e.Subject, e.TimeRange, day, string(week))
	text := s.buildReminderText(e, day, week)

	sent := 0
	for _, u := range recipients {
		exists, err := s.notifRepo.Exists(ctx, u.TelegramID, key, date)
		if err != nil {
			s.log.Errorf("Failed to check ledger for user %d: %v", u.TelegramID, err)
			continue
		}
		if exists {
			continue
		}

		err = s.telegramClient.SendMessage(u.TelegramID, text, &telebot.SendOptions{
			ParseMode:             telebot.ModeHTML,
			DisableWebPagePreview: true,
		})
		if err != nil {
			// No ledger record on failure: the item stays eligible next tick.
			s.log.Errorf("Failed to send reminder to user %d: %v", u.TelegramID, err)
			continue
		}

		rec := &notification.Record{
			UserTelegramID:   u.TelegramID,
			LessonKey:        key,
			NotificationDate: date,
			SentAt:           s.now().UTC(),
		}
		if err := s.notifRepo.Create(ctx, rec); err != nil {
			if errors.Is(err, idb.ErrDuplicateRecord) {
				s.log.Infof("Reminder for user %d already recorded by a concurrent tick", u.TelegramID)
			} else {
				s.log.Errorf("Failed to record reminder for user %d: %v", u.TelegramID, err)
			}
		}
		sent++
	}
	if sent > 0 {
		s.log.Infof("Sent %d reminders for '%s' (%s %s)", sent, e.Subject, day, e.TimeRange)
	}
}

// PruneLedger deletes records whose sent_at is past the retention window.
// Records exist only for dispatched past occurrences, so nothing still
// pending can be removed.
func (s *NotificationServiceImpl) PruneLedger(ctx context.Context) error {
	cutoff := s.now().Add(-s.retention)
	deleted, err := s.notifRepo.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune notification ledger: %w", err)
	}
	if deleted > 0 {
		s.log.Infof("Pruned %d notification records older than %s", deleted, cutoff.Format("2006-01-02"))
	}
	return nil
}

var dayNamesUA = map[string]string{
	"monday": "Понеділок", "tuesday": "Вівторок", "wednesday": "Середа",
	"thursday": "Четвер", "friday": "П'ятниця", "saturday": "Субота",
	"sunday": "Неділя",
}

var lessonTypeEmoji = map[string]string{
	"лекція": "📚", "практика": "✏️", "лабораторна": "🔬",
}

func (s *NotificationServiceImpl) buildReminderText(e schedule.Entry, day string, week schedule.WeekType) string {
	header := s.alertStatus.Status().Indicator(s.city)

	typeEmoji := lessonTypeEmoji[e.LessonType]
	if typeEmoji == "" {
		typeEmoji = "📖"
	}
	dayUA := dayNamesUA[day]
	weekUA := "чисельник"
	if week == schedule.WeekDenominator {
		weekUA = "знаменник"
	}

	parts := []string{
		header,
		"🔔 <b>НАГАДУВАННЯ ПРО ЗАНЯТТЯ</b>",
		fmt.Sprintf("📅 <b>%s</b> (%s)", dayUA, weekUA),
		fmt.Sprintf("⏰ <b>Через ~%d хв</b> починається:", s.leadMinutes),
		"",
		fmt.Sprintf("%s <b>%s</b>", typeEmoji, e.Subject),
		fmt.Sprintf("🕐 %s", e.TimeRange),
		fmt.Sprintf("👨‍🏫 %s", e.Teacher),
	}
	if e.ConferenceLink != "" {
		parts = append(parts, fmt.Sprintf("💻 <a href='%s'>Приєднатися</a>", e.ConferenceLink))
	}
	parts = append(parts, "", "💡 <i>Оповіщення можна вимкнути в меню бота</i>")
	return strings.Join(parts, "\n")
}
