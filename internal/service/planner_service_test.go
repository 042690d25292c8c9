package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/planbot/internal/domain"
	"github.com/tazhate/planbot/internal/storage"
)

func newTestStore(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestPlannerService(t *testing.T) (*PlannerService, *storage.Storage) {
	t.Helper()
	store := newTestStore(t)
	return NewPlannerService(store, nil, NewRankingService(), time.UTC, 7, 5), store
}

func TestSetDefaultCalendarJoinsReadList(t *testing.T) {
	svc, store := newTestPlannerService(t)

	require.NoError(t, svc.SetDefaultCalendar("cal-main"))
	require.NoError(t, svc.SetDefaultCalendar("cal-main"))

	prefs, err := store.GetCalendarPrefs()
	require.NoError(t, err)
	assert.Equal(t, "cal-main", prefs.DefaultCalendarID)
	assert.Equal(t, []string{"cal-main"}, prefs.ReadCalendarIDs)
}

func TestSetDomainCalendar(t *testing.T) {
	svc, store := newTestPlannerService(t)

	require.NoError(t, svc.SetDomainCalendar(domain.ModeWork, "cal-work"))
	assert.Error(t, svc.SetDomainCalendar("gardening", "cal-x"))

	prefs, err := store.GetCalendarPrefs()
	require.NoError(t, err)
	assert.Equal(t, "cal-work", prefs.DomainCalendars[domain.ModeWork])
	assert.Contains(t, prefs.ReadCalendarIDs, "cal-work")
}

func TestAddReadCalendar(t *testing.T) {
	svc, store := newTestPlannerService(t)

	require.NoError(t, svc.AddReadCalendar("cal-shared"))
	require.NoError(t, svc.AddReadCalendar("cal-shared"))

	prefs, err := store.GetCalendarPrefs()
	require.NoError(t, err)
	assert.Equal(t, []string{"cal-shared"}, prefs.ReadCalendarIDs)
}

func TestSetDayAvailability(t *testing.T) {
	svc, store := newTestPlannerService(t)

	day := domain.DayAvailability{
		Enabled: true,
		Work:    []domain.TimeWindow{{Start: "08:00", End: "12:00"}},
	}
	require.NoError(t, svc.SetDayAvailability(time.Friday, day))

	week, err := store.GetAvailability()
	require.NoError(t, err)
	assert.Equal(t, day, week[time.Friday])
}

// Stored prefs feed calendar resolution end to end: once a default
// calendar is set, a bare activity gets a placement proposal.
func TestStoredPrefsReachTheAllocator(t *testing.T) {
	svc, store := newTestPlannerService(t)
	require.NoError(t, svc.SetDefaultCalendar("cal-main"))

	a := &domain.Activity{Title: "Write report"}
	require.NoError(t, store.CreateActivity(a))

	proposals, err := svc.ProposeSchedule(context.Background())
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	assert.Equal(t, "cal-main", proposals[0].CalendarID)
	assert.Equal(t, a.ID, proposals[0].ActivityID)
}
