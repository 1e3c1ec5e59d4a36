package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"schedule_notification_bot/internal/app"
	"schedule_notification_bot/internal/domain/schedule"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterAdminHandlers registers handlers for admin commands.
// It requires the bot instance, schedule service, and the configured admin Telegram ID.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, scheduleService *app.ScheduleService, adminTelegramID int64, baseLogger *logrus.Entry) {
	b.Handle("/setweek", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/setweek",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if c.Sender().ID != adminTelegramID {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send("У вас немає прав для виконання цієї команди.")
		}

		args := c.Args()
		// Expected format: /setweek <numerator|denominator>
		if len(args) != 1 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("Невірний формат. Використовуйте: /setweek numerator або /setweek denominator")
		}

		week := schedule.WeekType(strings.ToLower(args[0]))
		handlerLogger = handlerLogger.WithField("week_type", week)

		if err := scheduleService.SetCurrentWeek(ctx, week); err != nil {
			logWithError := handlerLogger.WithError(err)
			if errors.Is(err, app.ErrInvalidWeekType) {
				logWithError.Warn("Invalid week type argument")
				return c.Send("Тип тижня має бути numerator (чисельник) або denominator (знаменник).")
			}
			logWithError.Error("Failed to set current week")
			return c.Send(replyForError(err))
		}

		handlerLogger.Info("Current week updated")
		return c.Send(fmt.Sprintf("Поточний тиждень встановлено: %s ✅", weekTitleUA(week)))
	})
}
