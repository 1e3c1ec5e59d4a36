package notification

import (
	"fmt"
	"time"
)

// Record is one row of the delivery ledger: proof that a reminder for a
// specific lesson occurrence was sent to a specific user. Records are created
// only after a successful dispatch and are never mutated. The triple
// (UserTelegramID, LessonKey, NotificationDate) is unique at the storage
// layer; that constraint, not application logic, is what makes delivery
// idempotent. Corresponds to the 'notification_history' table.
type Record struct {
	ID               int64     `db:"id"`
	UserTelegramID   int64     `db:"user_id"`
	LessonKey        string    `db:"lesson_key"`
	NotificationDate string    `db:"notification_date"` // "2006-01-02"
	SentAt           time.Time `db:"sent_at"`
}

// LessonKey builds the stable identity of a lesson occurrence from its
// defining fields. Edits to incidental fields (phone, classroom, link) do not
// change the key, so they cannot cause a re-send.
func LessonKey(subject, timeRange, day, weekType string) string {
	return fmt.Sprintf("%s_%s_%s_%s", subject, timeRange, day, weekType)
}
