package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ErrDataUnavailable is returned when a unit of work could not be completed
// within the retry ceiling because of lock contention on the shared store.
// It is the only way contention surfaces to callers; they must treat it as a
// transient condition, not a crash.
var ErrDataUnavailable = fmt.Errorf("data store unavailable under contention")

// TxRunner executes units of work against the shared store. Every call gets
// its own transaction, committed or rolled back on all exit paths. Lock
// contention (the other process holds the write lock past the busy timeout)
// is retried with exponential backoff plus jitter up to a fixed ceiling.
type TxRunner struct {
	db          *sqlx.DB
	log         *logrus.Entry
	maxAttempts int
	backoffBase time.Duration
}

// NewTxRunner creates a runner with the given retry ceiling and first-retry
// delay. maxAttempts counts the initial attempt, so 1 disables retries.
func NewTxRunner(db *sqlx.DB, log *logrus.Entry, maxAttempts int, base time.Duration) *TxRunner {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &TxRunner{db: db, log: log, maxAttempts: maxAttempts, backoffBase: base}
}

// Run executes fn inside a transaction. Reads and writes inside fn are atomic
// and isolated from other units of work; the transaction is released on every
// exit path including panic. Returns ErrDataUnavailable (wrapped) once the
// contention retry ceiling is exceeded.
func (r *TxRunner) Run(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := r.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if IsLocked(err) {
			r.log.WithFields(logrus.Fields{"attempt": attempt, "max": r.maxAttempts}).
				Warnf("database locked, will retry: %v", err)
			return err
		}
		return backoff.Permanent(err)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.backoffBase
	eb.MaxElapsedTime = 0 // bounded by the attempt ceiling, not wall time

	err := backoff.Retry(op, backoff.WithContext(
		backoff.WithMaxRetries(eb, uint64(r.maxAttempts-1)), ctx))
	if err == nil {
		return nil
	}
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Err
	}
	if IsLocked(err) {
		return fmt.Errorf("%w after %d attempts: %v", ErrDataUnavailable, attempt, err)
	}
	return err
}

func (r *TxRunner) attempt(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after a successful commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsLocked reports whether err is a SQLite lock-contention error. The driver
// exposes these only as message text, so matching is by substring.
func IsLocked(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

// IsUniqueViolation reports whether err is a UNIQUE constraint violation.
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
