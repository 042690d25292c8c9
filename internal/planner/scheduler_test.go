package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/planbot/internal/domain"
)

func testPlanner(now time.Time) *Planner {
	return &Planner{
		Prefs:    domain.CalendarPrefs{DefaultCalendarID: "cal-main"},
		Location: time.UTC,
		Now:      func() time.Time { return now },
	}
}

func TestProposeScheduleNonOverlapping(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	activities := []*domain.Activity{
		{ID: "a1", Title: "Write report", EstimateMinutes: 60},
		{ID: "a2", Title: "Read book", EstimateMinutes: 30},
		{ID: "a3", Title: "Client meeting", EstimateMinutes: 45},
	}

	proposals := p.ProposeSchedule(activities, nil, nil)

	require.Len(t, proposals, 3)
	for i := range proposals {
		for j := i + 1; j < len(proposals); j++ {
			assert.False(t, proposals[i].Interval().Overlaps(proposals[j].Interval()),
				"proposals %d and %d overlap", i, j)
		}
	}
}

func TestProposeScheduleRespectsInputBusy(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	busy := map[string][]domain.BusyInterval{
		"cal-main": {{Start: ts(monday, 9, 0), End: ts(monday, 10, 0)}},
	}
	activities := []*domain.Activity{
		{ID: "a1", Title: "Deadline prep", EstimateMinutes: 30},
	}

	proposals := p.ProposeSchedule(activities, nil, busy)

	require.Len(t, proposals, 1)
	assert.Equal(t, ts(monday, 10, 0), proposals[0].Start)
	assert.Equal(t, "work", proposals[0].Domain)
}

func TestProposeScheduleSkipsDoneAndScheduled(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	scheduled := ts(monday, 12, 0)
	activities := []*domain.Activity{
		{ID: "a1", Title: "Done item", Status: domain.StatusDone},
		{ID: "a2", Title: "Cancelled item", Status: domain.StatusCancelled},
		{ID: "a3", Title: "Pinned item", ScheduledAt: &scheduled},
		{ID: "a4", Title: "Open item"},
	}

	proposals := p.ProposeSchedule(activities, nil, nil)

	require.Len(t, proposals, 1)
	assert.Equal(t, "a4", proposals[0].ActivityID)
}

func TestProposeScheduleNoResolvableCalendar(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	p.Prefs = domain.CalendarPrefs{} // no default, no mapping
	activities := []*domain.Activity{
		{ID: "a1", Title: "One"},
		{ID: "a2", Title: "Two"},
	}

	proposals := p.ProposeSchedule(activities, nil, nil)
	assert.Empty(t, proposals)
}

func TestProposeScheduleDomainCalendarMapping(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	p.Prefs = domain.CalendarPrefs{
		DefaultCalendarID: "cal-main",
		DomainCalendars:   map[string]string{"work": "cal-work"},
	}
	activities := []*domain.Activity{
		{ID: "a1", Title: "Sprint review"},
		{ID: "a2", Title: "Water plants"},
		{ID: "a3", Title: "Standup", CalendarID: "cal-override"},
	}

	proposals := p.ProposeSchedule(activities, nil, nil)

	require.Len(t, proposals, 3)
	assert.Equal(t, "cal-work", proposals[0].CalendarID)
	assert.Equal(t, "cal-main", proposals[1].CalendarID)
	assert.Equal(t, "cal-override", proposals[2].CalendarID)
}

func TestProposeScheduleCrossCalendarNoDoubleBooking(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	p.Prefs = domain.CalendarPrefs{
		DefaultCalendarID: "cal-personal",
		DomainCalendars:   map[string]string{"work": "cal-work", "personal": "cal-personal"},
	}
	// Same-length personal activities land on a different calendar but must
	// still not overlap the work placement within one call.
	p.Availability = domain.WeekAvailability{
		time.Monday: {
			Enabled:  true,
			Work:     []domain.TimeWindow{{Start: "09:00", End: "12:00"}},
			Personal: []domain.TimeWindow{{Start: "09:00", End: "12:00"}},
		},
	}
	activities := []*domain.Activity{
		{ID: "a1", Title: "Client call", EstimateMinutes: 60},
		{ID: "a2", Title: "Morning run", EstimateMinutes: 60},
	}

	proposals := p.ProposeSchedule(activities, nil, nil)

	require.Len(t, proposals, 2)
	assert.NotEqual(t, proposals[0].CalendarID, proposals[1].CalendarID)
	assert.False(t, proposals[0].Interval().Overlaps(proposals[1].Interval()))
}

func TestProposeDailyPlanDisabledDay(t *testing.T) {
	sunday := time.Date(2026, 1, 4, 0, 0, 0, 0, time.UTC)
	p := testPlanner(ts(sunday, 8, 0))
	activities := []*domain.Activity{{ID: "a1", Title: "Anything", ScheduledDate: "2026-01-04"}}

	plan := p.ProposeDailyPlan(sunday, activities, nil, nil, nil)

	assert.Empty(t, plan.Proposals)
	assert.Empty(t, plan.UnplacedDue)
}

func TestProposeDailyPlanForcePlacesDue(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	p.MaxDailyItems = 1
	activities := []*domain.Activity{
		{ID: "fill", Title: "Filler"},
		{ID: "due", Title: "Due item", ScheduledDate: "2026-01-05"},
	}

	plan := p.ProposeDailyPlan(monday, activities, nil, nil, nil)

	// Due items are placed before fill items regardless of rank order.
	require.NotEmpty(t, plan.Proposals)
	assert.Equal(t, "due", plan.Proposals[0].ActivityID)
	assert.Empty(t, plan.UnplacedDue)
}

func TestProposeDailyPlanReportsUnplacedDue(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	// Whole day busy: nothing fits.
	busy := []domain.BusyInterval{
		{Start: ts(monday, 9, 0), End: ts(monday, 21, 0)},
	}
	activities := []*domain.Activity{
		{ID: "due", Title: "Due item", ScheduledDate: "2026-01-05"},
		{ID: "fill", Title: "Filler"},
	}

	plan := p.ProposeDailyPlan(monday, activities, nil, busy, nil)

	assert.Empty(t, plan.Proposals)
	require.Len(t, plan.UnplacedDue, 1)
	assert.Equal(t, "due", plan.UnplacedDue[0].ID)
}

func TestProposeDailyPlanFiltersCandidates(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	pinned := ts(monday, 15, 0)
	activities := []*domain.Activity{
		{ID: "done", Title: "Done", Status: domain.StatusDone},
		{ID: "cancelled", Title: "Cancelled", Status: domain.StatusCancelled},
		{ID: "pinned", Title: "Pinned", ScheduledAt: &pinned},
		{ID: "dismissed", Title: "Dismissed"},
		{ID: "ok", Title: "Plain item"},
	}

	plan := p.ProposeDailyPlan(monday, activities, nil, nil, map[string]bool{"dismissed": true})

	require.Len(t, plan.Proposals, 1)
	assert.Equal(t, "ok", plan.Proposals[0].ActivityID)
}

func TestProposeDailyPlanMaxItems(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	p.MaxDailyItems = 2
	activities := []*domain.Activity{
		{ID: "a1", Title: "One"},
		{ID: "a2", Title: "Two"},
		{ID: "a3", Title: "Three"},
		{ID: "a4", Title: "Four"},
	}

	plan := p.ProposeDailyPlan(monday, activities, nil, nil, nil)

	assert.Len(t, plan.Proposals, 2)
}

func TestProposeDailyPlanTodayStartsFromNow(t *testing.T) {
	// Planning today at 18:03: the personal window is already underway, so
	// the cursor floors at the next quarter hour, not the window start.
	p := testPlanner(ts(monday, 18, 3))
	activities := []*domain.Activity{
		{ID: "a1", Title: "Evening walk"},
	}

	plan := p.ProposeDailyPlan(monday, activities, nil, nil, nil)

	require.Len(t, plan.Proposals, 1)
	assert.Equal(t, ts(monday, 18, 15), plan.Proposals[0].Start)
	assert.Equal(t, "personal", plan.Proposals[0].Domain)
}

func TestProposeDailyPlanInsideWindows(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	activities := []*domain.Activity{
		{ID: "a1", Title: "Team sync", EstimateMinutes: 45},
		{ID: "a2", Title: "Laundry", EstimateMinutes: 30},
	}

	plan := p.ProposeDailyPlan(monday, activities, nil, nil, nil)

	require.Len(t, plan.Proposals, 2)
	for _, pr := range plan.Proposals {
		day := p.Availability.Resolve(pr.Start.Weekday())
		inside := false
		for _, w := range day.Windows(pr.Domain) {
			ws, we, ok := w.Clip(pr.Start, time.UTC)
			if ok && !pr.Start.Before(ws) && !pr.End.After(we) {
				inside = true
			}
		}
		assert.True(t, inside, "proposal %s outside its windows", pr.ActivityID)
	}
}

func TestProposeSlots(t *testing.T) {
	p := testPlanner(ts(monday, 8, 0))
	a := &domain.Activity{ID: "a1", Title: "Deep work", EstimateMinutes: 60}
	busy := []domain.BusyInterval{
		{Start: ts(monday, 9, 0), End: ts(monday, 10, 0)},
	}

	slots := p.ProposeSlots(a, nil, ts(monday, 8, 0), busy, 3)

	require.Len(t, slots, 3)
	assert.Equal(t, ts(monday, 10, 0), slots[0].Start)
	for i := range slots {
		assert.False(t, domain.OverlapsAny(slots[i], busy), "slot %d hits busy time", i)
		for j := i + 1; j < len(slots); j++ {
			assert.False(t, slots[i].Overlaps(slots[j]))
		}
	}
}
