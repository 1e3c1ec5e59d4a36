package schedule

import "context"

// Repository defines persistence operations for schedule entries and metadata.
type Repository interface {
	CreateEntry(ctx context.Context, e *Entry) error
	GetEntryByID(ctx context.Context, id int64) (*Entry, error)
	UpdateEntry(ctx context.Context, e *Entry) error
	DeleteEntry(ctx context.Context, id int64) error
	ListByDayAndWeek(ctx context.Context, day string, week WeekType) ([]Entry, error)

	Metadata(ctx context.Context) (*Metadata, error)
	SaveMetadata(ctx context.Context, m *Metadata) error
}
