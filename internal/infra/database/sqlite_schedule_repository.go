package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"schedule_notification_bot/internal/domain/schedule"

	"github.com/jmoiron/sqlx"
)

var ErrEntryNotFound = fmt.Errorf("schedule entry not found")
var ErrMetadataNotFound = fmt.Errorf("schedule metadata not found")

// SQLiteScheduleRepository persists timetable entries and metadata. All
// operations go through the TxRunner so contention retries apply to reads
// and writes alike.
type SQLiteScheduleRepository struct {
	runner *TxRunner
}

func NewSQLiteScheduleRepository(runner *TxRunner) *SQLiteScheduleRepository {
	return &SQLiteScheduleRepository{runner: runner}
}

func (r *SQLiteScheduleRepository) CreateEntry(ctx context.Context, e *schedule.Entry) error {
	return r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_entries
			   (day_of_week, time_range, subject, lesson_type, teacher, teacher_phone,
			    classroom, conference_link, exam_type, week_type)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.DayOfWeek, e.TimeRange, e.Subject, e.LessonType, e.Teacher, e.TeacherPhone,
			e.Classroom, e.ConferenceLink, e.ExamType, e.WeekType)
		if err != nil {
			return fmt.Errorf("error creating schedule entry: %w", err)
		}
		e.ID, err = res.LastInsertId()
		return err
	})
}

func (r *SQLiteScheduleRepository) GetEntryByID(ctx context.Context, id int64) (*schedule.Entry, error) {
	var e schedule.Entry
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &e, `SELECT * FROM schedule_entries WHERE id = ?`, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("error getting schedule entry by ID: %w", err)
	}
	return &e, nil
}

func (r *SQLiteScheduleRepository) UpdateEntry(ctx context.Context, e *schedule.Entry) error {
	return r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE schedule_entries
			    SET day_of_week = ?, time_range = ?, subject = ?, lesson_type = ?,
			        teacher = ?, teacher_phone = ?, classroom = ?, conference_link = ?,
			        exam_type = ?, week_type = ?
			  WHERE id = ?`,
			e.DayOfWeek, e.TimeRange, e.Subject, e.LessonType,
			e.Teacher, e.TeacherPhone, e.Classroom, e.ConferenceLink,
			e.ExamType, e.WeekType, e.ID)
		if err != nil {
			return fmt.Errorf("error updating schedule entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEntryNotFound
		}
		return nil
	})
}

func (r *SQLiteScheduleRepository) DeleteEntry(ctx context.Context, id int64) error {
	return r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM schedule_entries WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("error deleting schedule entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrEntryNotFound
		}
		return nil
	})
}

func (r *SQLiteScheduleRepository) ListByDayAndWeek(ctx context.Context, day string, week schedule.WeekType) ([]schedule.Entry, error) {
	entries := make([]schedule.Entry, 0)
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &entries,
			`SELECT * FROM schedule_entries
			  WHERE day_of_week = ? AND week_type = ?
			  ORDER BY time_range`, day, week)
	})
	if err != nil {
		return nil, fmt.Errorf("error listing schedule entries for %s/%s: %w", day, week, err)
	}
	return entries, nil
}

func (r *SQLiteScheduleRepository) Metadata(ctx context.Context) (*schedule.Metadata, error) {
	var m schedule.Metadata
	err := r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &m,
			`SELECT * FROM schedule_metadata ORDER BY id LIMIT 1`)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMetadataNotFound
		}
		return nil, fmt.Errorf("error getting schedule metadata: %w", err)
	}
	return &m, nil
}

func (r *SQLiteScheduleRepository) SaveMetadata(ctx context.Context, m *schedule.Metadata) error {
	return r.runner.Run(ctx, func(tx *sqlx.Tx) error {
		if m.ID == 0 {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO schedule_metadata
				   (current_week, group_name, academic_year, numerator_start_date, last_updated)
				 VALUES (?, ?, ?, ?, ?)`,
				m.CurrentWeek, m.GroupName, m.AcademicYear, m.NumeratorStartDate, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("error creating schedule metadata: %w", err)
			}
			m.ID, err = res.LastInsertId()
			return err
		}
		_, err := tx.ExecContext(ctx,
			`UPDATE schedule_metadata
			    SET current_week = ?, group_name = ?, academic_year = ?,
			        numerator_start_date = ?, last_updated = ?
			  WHERE id = ?`,
			m.CurrentWeek, m.GroupName, m.AcademicYear,
			m.NumeratorStartDate, time.Now().UTC(), m.ID)
		if err != nil {
			return fmt.Errorf("error updating schedule metadata: %w", err)
		}
		return nil
	})
}
