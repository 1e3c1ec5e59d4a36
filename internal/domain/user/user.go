package user

import "time"

// User represents a bot user who may receive lesson reminders.
// Corresponds to the 'users' table.
type User struct {
	ID                   int64     `db:"id"`
	TelegramID           int64     `db:"telegram_id"`
	Username             string    `db:"username"`
	FullName             string    `db:"full_name"`
	NotificationsEnabled bool      `db:"notifications_enabled"`
	ApprovedAt           time.Time `db:"approved_at"`
}
