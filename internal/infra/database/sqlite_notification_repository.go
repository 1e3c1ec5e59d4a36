package database

import (
	"context"
	"fmt"
	"time"

	"schedule_notification_bot/internal/domain/notification"

	"github.com/jmoiron/sqlx"
)

// ErrDuplicateRecord signals that the ledger already holds a record for this
// (user, lesson key, date) triple. When two overlapping ticks race on the
// same reminder, the loser gets this error from the UNIQUE constraint and
// treats it as "already sent".
var ErrDuplicateRecord = fmt.Errorf("duplicate notification record (user_id, lesson_key, notification_date)")

type SQLiteNotificationRepository struct {
	runner *TxRunner
}

func NewSQLiteNotificationRepository(runner *TxRunner) *SQLiteNotificationRepository {
	return &SQLiteNotificationRepository{runner: runner}
}

func (r *SQLiteNotificationRepository) Create(ctx context.Context, rec *notification.Record) error {
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		if rec.SentAt.IsZero() {
			rec.SentAt = time.Now().UTC()
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO notification_history (user_id, lesson_key, notification_date, sent_at)
			 VALUES (?, ?, ?, ?)`,
			rec.UserTelegramID, rec.LessonKey, rec.NotificationDate, rec.SentAt)
		if err != nil {
			return err
		}
		rec.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateRecord
		}
		return fmt.Errorf("error creating notification record: %w", err)
	}
	return nil
}

func (r *SQLiteNotificationRepository) Exists(ctx context.Context, userTelegramID int64, lessonKey, notificationDate string) (bool, error) {
	var count int
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM notification_history
			  WHERE user_id = ? AND lesson_key = ? AND notification_date = ?`,
			userTelegramID, lessonKey, notificationDate)
	})
	if err != nil {
		return false, fmt.Errorf("error checking notification record: %w", err)
	}
	return count > 0, nil
}

func (r *SQLiteNotificationRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM notification_history WHERE sent_at < ?`, cutoff.UTC())
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("error pruning notification history: %w", err)
	}
	return deleted, nil
}

func (r *SQLiteNotificationRepository) CountByDate(ctx context.Context, notificationDate string) (int64, error) {
	var count int64
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &count,
			`SELECT COUNT(*) FROM notification_history WHERE notification_date = ?`,
			notificationDate)
	})
	if err != nil {
		return 0, fmt.Errorf("error counting notification records: %w", err)
	}
	return count, nil
}
