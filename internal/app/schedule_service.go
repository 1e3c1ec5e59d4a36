package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"schedule_notification_bot/internal/domain/schedule"
	"schedule_notification_bot/internal/infra/cache"
	idb "schedule_notification_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
)

var ErrInvalidWeekType = fmt.Errorf("week type must be 'numerator' or 'denominator'")

// ScheduleService is the read/write surface for timetable data. Reads go
// through a short-lived cache; every write invalidates the affected scopes
// before it returns, so a read issued after a successful write always
// reflects it even though the cache TTL has not elapsed.
type ScheduleService struct {
	repo  schedule.Repository
	cache *cache.TTLCache[[]schedule.Entry]
	log   *logrus.Entry
}

func NewScheduleService(repo schedule.Repository, c *cache.TTLCache[[]schedule.Entry], log *logrus.Entry) *ScheduleService {
	return &ScheduleService{repo: repo, cache: c, log: log}
}

// dayKey is the deterministic serialization of a day-schedule query.
func dayKey(day string, week schedule.WeekType) string {
	return day + "|" + string(week)
}

// DaySchedule returns the lessons for one day of one week type, served from
// cache when fresh.
func (s *ScheduleService) DaySchedule(ctx context.Context, day string, week schedule.WeekType) ([]schedule.Entry, error) {
	return s.cache.ReadThrough(dayKey(day, week), func() ([]schedule.Entry, error) {
		return s.repo.ListByDayAndWeek(ctx, day, week)
	})
}

// WeekSchedule returns the full week, day by day through the cache.
func (s *ScheduleService) WeekSchedule(ctx context.Context, week schedule.WeekType) (map[string][]schedule.Entry, error) {
	result := make(map[string][]schedule.Entry, len(schedule.Days))
	for _, day := range schedule.Days {
		entries, err := s.DaySchedule(ctx, day, week)
		if err != nil {
			return nil, err
		}
		result[day] = entries
	}
	return result, nil
}

// CurrentWeekType resolves the active week type: auto-derived from the
// numerator start date when configured, otherwise the stored value,
// defaulting to numerator when no metadata exists yet.
func (s *ScheduleService) CurrentWeekType(ctx context.Context) (schedule.WeekType, error) {
	meta, err := s.repo.Metadata(ctx)
	if err != nil {
		if errors.Is(err, idb.ErrMetadataNotFound) {
			return schedule.WeekNumerator, nil
		}
		return "", err
	}
	if week, ok := meta.WeekTypeAt(time.Now()); ok {
		return week, nil
	}
	if meta.CurrentWeek.Valid() {
		return meta.CurrentWeek, nil
	}
	return schedule.WeekNumerator, nil
}

// AddEntry creates a lesson and invalidates its day's cached view before
// returning.
func (s *ScheduleService) AddEntry(ctx context.Context, e *schedule.Entry) error {
	if err := s.repo.CreateEntry(ctx, e); err != nil {
		return err
	}
	s.cache.Invalidate(dayKey(e.DayOfWeek, e.WeekType))
	s.log.Infof("Schedule entry %d added for %s/%s, cache invalidated", e.ID, e.DayOfWeek, e.WeekType)
	return nil
}

// UpdateEntry saves a lesson and invalidates both the old and the new scope,
// since an edit may move the lesson to another day or week.
func (s *ScheduleService) UpdateEntry(ctx context.Context, e *schedule.Entry) error {
	old, err := s.repo.GetEntryByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateEntry(ctx, e); err != nil {
		return err
	}
	s.cache.Invalidate(dayKey(old.DayOfWeek, old.WeekType))
	s.cache.Invalidate(dayKey(e.DayOfWeek, e.WeekType))
	return nil
}

// DeleteEntry removes a lesson and invalidates its day's cached view.
func (s *ScheduleService) DeleteEntry(ctx context.Context, id int64) error {
	old, err := s.repo.GetEntryByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteEntry(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(dayKey(old.DayOfWeek, old.WeekType))
	return nil
}

// SetCurrentWeek overrides the stored week type and clears the numerator
// start date so the override sticks. The whole cache is purged: every cached
// day view embeds the week type in its key, and the active week just changed.
func (s *ScheduleService) SetCurrentWeek(ctx context.Context, week schedule.WeekType) error {
	if !week.Valid() {
		return ErrInvalidWeekType
	}
	meta, err := s.repo.Metadata(ctx)
	if err != nil {
		if !errors.Is(err, idb.ErrMetadataNotFound) {
			return err
		}
		meta = &schedule.Metadata{}
	}
	meta.CurrentWeek = week
	meta.NumeratorStartDate = ""
	if err := s.repo.SaveMetadata(ctx, meta); err != nil {
		return err
	}
	s.cache.Purge()
	s.log.Infof("Current week set to %s, schedule cache purged", week)
	return nil
}
