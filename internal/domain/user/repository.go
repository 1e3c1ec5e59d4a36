package user

import "context"

// Repository defines persistence operations for bot users.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	SetNotificationsEnabled(ctx context.Context, telegramID int64, enabled bool) error
	// ListNotifiable returns users with notifications enabled; these are the
	// recipients of scheduled lesson reminders.
	ListNotifiable(ctx context.Context) ([]User, error)
}
