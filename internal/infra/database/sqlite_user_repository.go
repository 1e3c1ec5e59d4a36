package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"schedule_notification_bot/internal/domain/user"

	"github.com/jmoiron/sqlx"
)

var ErrUserNotFound = fmt.Errorf("user not found")
var ErrDuplicateTelegramID = fmt.Errorf("user with this Telegram ID already exists")

type SQLiteUserRepository struct {
	runner *TxRunner
}

func NewSQLiteUserRepository(runner *TxRunner) *SQLiteUserRepository {
	return &SQLiteUserRepository{runner: runner}
}

func (r *SQLiteUserRepository) Create(ctx context.Context, u *user.User) error {
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		if u.ApprovedAt.IsZero() {
			u.ApprovedAt = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO users (telegram_id, username, full_name, notifications_enabled, approved_at)
			 VALUES (?, ?, ?, ?, ?)`,
			u.TelegramID, u.Username, u.FullName, u.NotificationsEnabled, u.ApprovedAt)
		if err != nil {
			return err
		}
		u.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateTelegramID
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*user.User, error) {
	var u user.User
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &u, `SELECT * FROM users WHERE telegram_id = ?`, telegramID)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by Telegram ID: %w", err)
	}
	return &u, nil
}

func (r *SQLiteUserRepository) SetNotificationsEnabled(ctx context.Context, telegramID int64, enabled bool) error {
	return r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET notifications_enabled = ? WHERE telegram_id = ?`,
			enabled, telegramID)
		if err != nil {
			return fmt.Errorf("error updating notifications flag: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func (r *SQLiteUserRepository) ListNotifiable(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &users,
			`SELECT * FROM users WHERE notifications_enabled = 1 ORDER BY id`)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing notifiable users: %w", err)
	}
	return users, nil
}

func (r *SQLiteUserRepository) ListAll(ctx context.Context) ([]user.User, error) {
	users := make([]user.User, 0)
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &users, `SELECT * FROM users ORDER BY id`)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}
