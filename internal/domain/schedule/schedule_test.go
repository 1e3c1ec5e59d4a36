package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekTypeAtAlternatesEverySevenDays(t *testing.T) {
	m := Metadata{NumeratorStartDate: "2026-03-02"} // a Monday

	week, ok := m.WeekTypeAt(time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, WeekNumerator, week)

	week, ok = m.WeekTypeAt(time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, WeekDenominator, week)

	week, ok = m.WeekTypeAt(time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, WeekNumerator, week)
}

func TestWeekTypeAtBeforeStartDateAlternatesBackwards(t *testing.T) {
	m := Metadata{NumeratorStartDate: "2026-03-02"} // a Monday

	// Three days before the start falls in the previous week.
	week, ok := m.WeekTypeAt(time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, WeekDenominator, week)

	// Ten days before: two weeks back, numerator again.
	week, ok = m.WeekTypeAt(time.Date(2026, 2, 20, 12, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, WeekNumerator, week)

	// The Sunday immediately before the start still counts as the previous
	// (denominator) week.
	week, ok = m.WeekTypeAt(time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, WeekDenominator, week)
}

func TestWeekTypeAtUnsetOrBadStartDate(t *testing.T) {
	_, ok := Metadata{}.WeekTypeAt(time.Now())
	assert.False(t, ok)

	_, ok = Metadata{NumeratorStartDate: "02.03.2026"}.WeekTypeAt(time.Now())
	assert.False(t, ok)
}

func TestEntryStartTime(t *testing.T) {
	e := Entry{TimeRange: "09:00-10:30"}
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	start, err := e.StartTime(day)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), start)

	_, err = Entry{TimeRange: "морок"}.StartTime(day)
	assert.Error(t, err)
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "monday", DayName(time.Monday))
	assert.Equal(t, "sunday", DayName(time.Sunday))
}
