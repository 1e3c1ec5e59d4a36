package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schedule_notification_bot/internal/app"
	"schedule_notification_bot/internal/domain/schedule"
	"schedule_notification_bot/internal/infra/alerts"
	"schedule_notification_bot/internal/infra/cache"
	"schedule_notification_bot/internal/infra/config"
	idb "schedule_notification_bot/internal/infra/database"
	applogger "schedule_notification_bot/internal/infra/logger"
	"schedule_notification_bot/internal/infra/scheduler"
	"schedule_notification_bot/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		applogger.Log.Fatalf("Could not load application configuration: %v", err)
	}

	applogger.Init(cfg)
	log := applogger.Get().WithField("component", "main")
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Admin ID: %d", cfg.LogLevel, cfg.Environment, cfg.AdminTelegramID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Data store: file-backed SQLite shared with the admin panel process.
	db, err := idb.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Could not open database at %s: %v", cfg.DatabasePath, err)
	}
	defer db.Close()
	log.Infof("Database opened at %s", cfg.DatabasePath)

	runner := idb.NewTxRunner(db, applogger.Get().WithField("component", "tx_runner"), cfg.WriteMaxAttempts, cfg.WriteBackoffBase)
	scheduleRepo := idb.NewSQLiteScheduleRepository(runner)
	userRepo := idb.NewSQLiteUserRepository(runner)
	notificationRepo := idb.NewSQLiteNotificationRepository(runner)

	scheduleCache := cache.New[[]schedule.Entry](cache.DefaultTTL)
	scheduleService := app.NewScheduleService(scheduleRepo, scheduleCache, applogger.Get().WithField("component", "schedule_service"))

	// Air-alert poller: refreshes in the background so reminder building
	// never waits on the feed.
	alertClient := alerts.NewClient(cfg.AlertsAPIURL, cfg.AlertsAPIToken, cfg.AlertCity)
	alertPoller := alerts.NewPoller(alertClient, cfg.AlertInterval, applogger.Get().WithField("component", "alert_poller"))
	alertPoller.Start()
	defer alertPoller.Stop()

	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := applogger.Get().WithField("component", "telebot").WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("sender_id", c.Sender().ID)
			}
			entry.Error("Telegram handler error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		log.Fatalf("Could not create Telegram bot: %v", err)
	}

	telegramClient := telegram.NewTelebotAdapter(bot)
	notificationService := app.NewNotificationServiceImpl(
		scheduleService,
		userRepo,
		notificationRepo,
		telegramClient,
		alertPoller,
		applogger.Get().WithField("component", "notification_service"),
		cfg.ReminderLeadMinutes,
		time.Duration(cfg.LedgerRetentionDays)*24*time.Hour,
		cfg.AlertCity,
	)

	notifScheduler := scheduler.NewNotificationScheduler(
		notificationService,
		applogger.Get().WithField("component", "scheduler"),
		cfg.NotificationInterval,
	)
	if err := notifScheduler.Start(); err != nil {
		log.Fatalf("Could not start notification scheduler: %v", err)
	}

	handlerLogger := applogger.Get().WithField("component", "telegram_handlers")
	telegram.RegisterBotCommands(ctx, bot, cfg, scheduleService, userRepo, alertPoller, handlerLogger)
	telegram.RegisterAdminHandlers(ctx, bot, scheduleService, cfg.AdminTelegramID, handlerLogger)
	log.Info("Command handlers registered")

	log.Info("Application setup complete. Bot and scheduler are starting...")
	go bot.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	bot.Stop()
	notifScheduler.Stop()
	log.Info("Application shut down gracefully")
}
