// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedule_notification_bot/internal/app"
	"schedule_notification_bot/internal/domain/schedule"
	"schedule_notification_bot/internal/domain/user"
	"schedule_notification_bot/internal/infra/config"
	idb "schedule_notification_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const busyReply = "⏳ База даних зараз перевантажена. Спробуйте ще раз за кілька секунд."

var dayTitlesUA = map[string]string{
	"monday": "Понеділок", "tuesday": "Вівторок", "wednesday": "Середа",
	"thursday": "Четвер", "friday": "П'ятниця", "saturday": "Субота",
	"sunday": "Неділя",
}

func weekTitleUA(week schedule.WeekType) string {
	if week == schedule.WeekDenominator {
		return "знаменник"
	}
	return "чисельник"
}

// RegisterBotCommands registers the handlers available to every bot user.
func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	cfg *config.AppConfig,
	scheduleService *app.ScheduleService,
	userRepo user.Repository,
	alertStatus app.AlertStatusProvider,
	baseLogger *logrus.Entry,
) {
	htmlOpts := &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true}

	b.Handle("/start", func(c telebot.Context) error {
		sender := c.Sender()
		logCtx := baseLogger.WithField("command", "/start").WithField("sender_id", sender.ID)
		logCtx.Info("Processing /start command")

		_, err := userRepo.GetByTelegramID(ctx, sender.ID)
		if err != nil {
			if !errors.Is(err, idb.ErrUserNotFound) {
				logCtx.WithError(err).Error("Failed to look up user")
				return c.Send(replyForError(err))
			}
			newUser := &user.User{
				TelegramID:           sender.ID,
				Username:             sender.Username,
				FullName:             strings.TrimSpace(sender.FirstName + " " + sender.LastName),
				NotificationsEnabled: true,
			}
			if err := userRepo.Create(ctx, newUser); err != nil && !errors.Is(err, idb.ErrDuplicateTelegramID) {
				logCtx.WithError(err).Error("Failed to register user")
				return c.Send(replyForError(err))
			}
			logCtx.WithField("user_id", newUser.ID).Info("New user registered")
		}

		var hello strings.Builder
		hello.WriteString(fmt.Sprintf("Привіт, %s! 👋\n", sender.FirstName))
		hello.WriteString("Я бот розкладу занять. Надсилаю нагадування перед початком пар і показую розклад.\n\n")
		hello.WriteString("Команди:\n")
		hello.WriteString("/today — розклад на сьогодні\n")
		hello.WriteString("/tomorrow — розклад на завтра\n")
		hello.WriteString("/week — розклад на тиждень\n")
		hello.WriteString("/alert — статус повітряної тривоги\n")
		hello.WriteString("/notify_on — увімкнути нагадування\n")
		hello.WriteString("/notify_off — вимкнути нагадування")
		return c.Send(hello.String())
	})

	b.Handle("/today", func(c telebot.Context) error {
		logCtx := baseLogger.WithField("command", "/today").WithField("sender_id", c.Sender().ID)
		return sendDaySchedule(ctx, c, scheduleService, time.Now(), logCtx, htmlOpts)
	})

	b.Handle("/tomorrow", func(c telebot.Context) error {
		logCtx := baseLogger.WithField("command", "/tomorrow").WithField("sender_id", c.Sender().ID)
		return sendDaySchedule(ctx, c, scheduleService, time.Now().AddDate(0, 0, 1), logCtx, htmlOpts)
	})

	b.Handle("/week", func(c telebot.Context) error {
		logCtx := baseLogger.WithField("command", "/week").WithField("sender_id", c.Sender().ID)
		logCtx.Info("Processing /week command")

		week, err := scheduleService.CurrentWeekType(ctx)
		if err != nil {
			logCtx.WithError(err).Error("Failed to resolve current week type")
			return c.Send(replyForError(err))
		}
		byDay, err := scheduleService.WeekSchedule(ctx, week)
		if err != nil {
			logCtx.WithError(err).Error("Failed to load week schedule")
			return c.Send(replyForError(err))
		}

		var text strings.Builder
		text.WriteString(fmt.Sprintf("📅 <b>Розклад на тиждень</b> (%s)\n", weekTitleUA(week)))
		empty := true
		for _, day := range schedule.Days {
			entries := byDay[day]
			if len(entries) == 0 {
				continue
			}
			empty = false
			text.WriteString(fmt.Sprintf("\n<b>%s</b>\n", dayTitlesUA[day]))
			for _, e := range entries {
				text.WriteString(formatEntryLine(e))
			}
		}
		if empty {
			return c.Send("На цьому тижні занять немає 🎉")
		}
		return c.Send(text.String(), htmlOpts)
	})

	b.Handle("/alert", func(c telebot.Context) error {
		baseLogger.WithField("command", "/alert").WithField("sender_id", c.Sender().ID).Info("Processing /alert command")
		return c.Send(alertStatus.Status().Describe(cfg.AlertCity, time.Now()), htmlOpts)
	})

	b.Handle("/notify_on", func(c telebot.Context) error {
		return setNotifications(ctx, c, userRepo, true,
			baseLogger.WithField("command", "/notify_on").WithField("sender_id", c.Sender().ID))
	})

	b.Handle("/notify_off", func(c telebot.Context) error {
		return setNotifications(ctx, c, userRepo, false,
			baseLogger.WithField("command", "/notify_off").WithField("sender_id", c.Sender().ID))
	})
}

func sendDaySchedule(
	ctx context.Context,
	c telebot.Context,
	scheduleService *app.ScheduleService,
	date time.Time,
	logCtx *logrus.Entry,
	opts *telebot.SendOptions,
) error {
	logCtx.Info("Processing day schedule command")

	week, err := scheduleService.CurrentWeekType(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to resolve current week type")
		return c.Send(replyForError(err))
	}
	day := schedule.DayName(date.Weekday())
	entries, err := scheduleService.DaySchedule(ctx, day, week)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load day schedule")
		return c.Send(replyForError(err))
	}

	if len(entries) == 0 {
		return c.Send(fmt.Sprintf("%s: занять немає 🎉", dayTitlesUA[day]))
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("📅 <b>%s</b> (%s)\n\n", dayTitlesUA[day], weekTitleUA(week)))
	for _, e := range entries {
		text.WriteString(formatEntryLine(e))
	}
	return c.Send(text.String(), opts)
}

func formatEntryLine(e schedule.Entry) string {
	var line strings.Builder
	line.WriteString(fmt.Sprintf("🕐 %s — <b>%s</b> (%s)\n", e.TimeRange, e.Subject, e.LessonType))
	if e.Teacher != "" {
		line.WriteString(fmt.Sprintf("   👨‍🏫 %s\n", e.Teacher))
	}
	if e.Classroom != "" {
		line.WriteString(fmt.Sprintf("   🚪 %s\n", e.Classroom))
	}
	if e.ConferenceLink != "" {
		line.WriteString(fmt.Sprintf("   💻 <a href='%s'>Приєднатися</a>\n", e.ConferenceLink))
	}
	return line.String()
}

func setNotifications(ctx context.Context, c telebot.Context, userRepo user.Repository, enabled bool, logCtx *logrus.Entry) error {
	logCtx.Info("Processing notification toggle")

	if err := userRepo.SetNotificationsEnabled(ctx, c.Sender().ID, enabled); err != nil {
		if errors.Is(err, idb.ErrUserNotFound) {
			return c.Send("Спочатку надішліть /start, щоб зареєструватися.")
		}
		logCtx.WithError(err).Error("Failed to toggle notifications")
		return c.Send(replyForError(err))
	}
	if enabled {
		return c.Send("🔔 Нагадування увімкнено. Я напишу перед початком заняття.")
	}
	return c.Send("🔕 Нагадування вимкнено. Увімкнути знову: /notify_on")
}

// replyForError maps infrastructure errors to user-facing text. Contention
// exhaustion gets its own reply so the user knows a retry is worthwhile.
func replyForError(err error) string {
	if errors.Is(err, idb.ErrDataUnavailable) {
		return busyReply
	}
	return "Сталася помилка. Спробуйте, будь ласка, пізніше."
}
