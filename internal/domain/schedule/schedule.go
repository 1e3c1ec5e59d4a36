package schedule

import (
	"math"
	"time"
)

// WeekType distinguishes the two alternating timetable weeks.
type WeekType string

const (
	WeekNumerator   WeekType = "numerator"
	WeekDenominator WeekType = "denominator"
)

// Valid reports whether w is one of the two known week types.
func (w WeekType) Valid() bool {
	return w == WeekNumerator || w == WeekDenominator
}

// Days lists the day-of-week identifiers in timetable order.
var Days = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// DayName maps a time.Weekday to the identifier used in schedule queries.
func DayName(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "monday"
	case time.Tuesday:
		return "tuesday"
	case time.Wednesday:
		return "wednesday"
	case time.Thursday:
		return "thursday"
	case time.Friday:
		return "friday"
	case time.Saturday:
		return "saturday"
	}
	return "sunday"
}

// Entry represents one lesson in the timetable.
// Corresponds to the 'schedule_entries' table.
type Entry struct {
	ID             int64    `db:"id"`
	DayOfWeek      string   `db:"day_of_week"`
	TimeRange      string   `db:"time_range"` // "09:00-10:30"
	Subject        string   `db:"subject"`
	LessonType     string   `db:"lesson_type"`
	Teacher        string   `db:"teacher"`
	TeacherPhone   string   `db:"teacher_phone"`
	Classroom      string   `db:"classroom"`
	ConferenceLink string   `db:"conference_link"`
	ExamType       string   `db:"exam_type"`
	WeekType       WeekType `db:"week_type"`
}

// StartTime parses the beginning of the entry's time range on the given date.
func (e Entry) StartTime(day time.Time) (time.Time, error) {
	startStr, _, _ := splitTimeRange(e.TimeRange)
	t, err := time.Parse("15:04", startStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

func splitTimeRange(r string) (start, end string, ok bool) {
	for i := 0; i < len(r); i++ {
		if r[i] == '-' {
			return r[:i], r[i+1:], true
		}
	}
	return r, "", false
}

// Metadata holds timetable-wide settings (current week, group, year).
// Corresponds to the 'schedule_metadata' table.
type Metadata struct {
	ID                 int64     `db:"id"`
	CurrentWeek        WeekType  `db:"current_week"`
	GroupName          string    `db:"group_name"`
	AcademicYear       string    `db:"academic_year"`
	NumeratorStartDate string    `db:"numerator_start_date"` // "2006-01-02", empty when unset
	LastUpdated        time.Time `db:"last_updated"`
}

// WeekTypeAt derives the week type for the given date from the numerator
// start date, alternating every seven days. The week offset uses floor
// division so dates before the start date keep alternating backwards
// (three days before a numerator start is a denominator week, not the same
// week). Returns false when the start date is unset or unparseable, in
// which case CurrentWeek applies.
func (m Metadata) WeekTypeAt(date time.Time) (WeekType, bool) {
	if m.NumeratorStartDate == "" {
		return "", false
	}
	start, err := time.ParseInLocation("2006-01-02", m.NumeratorStartDate, date.Location())
	if err != nil {
		return "", false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	days := int(math.Round(day.Sub(start).Hours() / 24))
	weeks := days / 7
	if days < 0 && days%7 != 0 {
		weeks--
	}
	if weeks%2 == 0 {
		return WeekNumerator, true
	}
	return WeekDenominator, true
}
