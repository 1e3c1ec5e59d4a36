package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	TelegramToken   string
	DatabasePath    string
	AdminTelegramID int64
	LogLevel        string
	Environment     string

	// Data store contention handling.
	WriteMaxAttempts int           // unit-of-work retry ceiling
	WriteBackoffBase time.Duration // first retry delay

	// Notification scheduler.
	NotificationInterval time.Duration // tick period
	ReminderLeadMinutes  int           // notify this many minutes before a lesson
	LedgerRetentionDays  int

	// Air alert poller.
	AlertsAPIURL   string
	AlertsAPIToken string
	AlertCity      string
	AlertInterval  time.Duration
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabasePath = os.Getenv("DATABASE_PATH")
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "schedule_bot.db"
	}

	adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.WriteMaxAttempts, err = intEnv("DB_WRITE_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}
	cfg.WriteBackoffBase, err = durationEnv("DB_WRITE_BACKOFF_BASE", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}

	cfg.NotificationInterval, err = durationEnv("NOTIFICATION_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.ReminderLeadMinutes, err = intEnv("REMINDER_LEAD_MINUTES", 10)
	if err != nil {
		return nil, err
	}
	cfg.LedgerRetentionDays, err = intEnv("LEDGER_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}

	cfg.AlertsAPIURL = os.Getenv("ALERTS_API_URL")
	if cfg.AlertsAPIURL == "" {
		cfg.AlertsAPIURL = "https://api.alerts.in.ua/v1/alerts/active.json"
	}
	cfg.AlertsAPIToken = os.Getenv("ALERTS_API_TOKEN")
	cfg.AlertCity = os.Getenv("AIR_ALERT_CITY")
	if cfg.AlertCity == "" {
		cfg.AlertCity = "Дніпро"
	}
	cfg.AlertInterval, err = durationEnv("ALERT_UPDATE_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// durationEnv parses a duration env var; a bare number is taken as seconds,
// matching the original installation's config files.
func durationEnv(name string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
