package notification

import (
	"context"
	"time"
)

// Repository defines operations on the delivery ledger.
type Repository interface {
	// Create inserts a ledger record. It returns the repository's duplicate
	// error when a record with the same (user, lesson key, date) already
	// exists; callers treat that as "already sent".
	Create(ctx context.Context, rec *Record) error
	Exists(ctx context.Context, userTelegramID int64, lessonKey, notificationDate string) (bool, error)
	// PruneOlderThan removes records sent before the cutoff and reports how
	// many were deleted.
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
