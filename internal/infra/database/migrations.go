package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations, versions sequential
// from 1. Both processes (bot and web admin) run these at startup; the
// version check makes that safe.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	telegram_id           INTEGER NOT NULL UNIQUE,
	username              TEXT NOT NULL DEFAULT '',
	full_name             TEXT NOT NULL DEFAULT '',
	notifications_enabled INTEGER NOT NULL DEFAULT 0,
	approved_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS schedule_entries (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	day_of_week     TEXT NOT NULL,
	time_range      TEXT NOT NULL,
	subject         TEXT NOT NULL,
	lesson_type     TEXT NOT NULL DEFAULT '',
	teacher         TEXT NOT NULL DEFAULT '',
	teacher_phone   TEXT NOT NULL DEFAULT '',
	classroom       TEXT NOT NULL DEFAULT '',
	conference_link TEXT NOT NULL DEFAULT '',
	exam_type       TEXT NOT NULL DEFAULT '',
	week_type       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS schedule_metadata (
	id                   INTEGER PRIMARY KEY AUTOINCREMENT,
	current_week         TEXT NOT NULL DEFAULT 'numerator',
	group_name           TEXT NOT NULL DEFAULT '',
	academic_year        TEXT NOT NULL DEFAULT '',
	numerator_start_date TEXT NOT NULL DEFAULT '',
	last_updated         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS notification_history (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id           INTEGER NOT NULL,
	lesson_key        TEXT NOT NULL,
	notification_date TEXT NOT NULL,
	sent_at           DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	CONSTRAINT notification_history_unique UNIQUE (user_id, lesson_key, notification_date)
);

CREATE INDEX IF NOT EXISTS idx_schedule_day_week ON schedule_entries(day_of_week, week_type);
CREATE INDEX IF NOT EXISTS idx_users_notifiable ON users(notifications_enabled);
CREATE INDEX IF NOT EXISTS idx_history_sent_at ON notification_history(sent_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func runMigrations(db *sqlx.DB) error {
	currentVersion := 0

	var tableCount int
	err := db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}
