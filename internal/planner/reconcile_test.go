package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazhate/planbot/internal/domain"
)

func extEvent(id, title string, start, end time.Time) domain.CalendarEvent {
	return domain.CalendarEvent{
		Provider:   "caldav",
		AccountID:  "acc1",
		CalendarID: "cal1",
		EventID:    id,
		Title:      title,
		Start:      start,
		End:        end,
	}
}

func block(id, title string, start, end time.Time) domain.ScheduledBlock {
	return domain.ScheduledBlock{
		Activity: &domain.Activity{ID: id, Title: title},
		Start:    start,
		End:      end,
	}
}

func TestReconcileFuzzyStandup(t *testing.T) {
	// "Team Standup" 09:00-09:15 vs external "Standup" 09:01-09:14 dedupes
	// on substring title + in-tolerance times.
	external := []domain.CalendarEvent{
		extEvent("e1", "Standup", ts(monday, 9, 1), ts(monday, 9, 14)),
		extEvent("e2", "Dentist", ts(monday, 11, 0), ts(monday, 12, 0)),
	}
	blocks := []domain.ScheduledBlock{
		block("a1", "Team Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
	}

	res := Reconcile(external, blocks)

	require.Len(t, res.Events, 1)
	assert.Equal(t, "Dentist", res.Events[0].Title)
	assert.Equal(t, "a1", res.Matched[external[0].Key()])
}

func TestReconcileExactRefWinsDespiteDrift(t *testing.T) {
	external := []domain.CalendarEvent{
		extEvent("e1", "Totally different title", ts(monday, 15, 0), ts(monday, 16, 0)),
	}
	b := block("a1", "Write report", ts(monday, 9, 0), ts(monday, 10, 0))
	b.Activity.External = &domain.ExternalRef{
		Provider: "caldav", AccountID: "acc1", CalendarID: "cal1", EventID: "e1",
	}

	res := Reconcile(external, []domain.ScheduledBlock{b})

	assert.Empty(t, res.Events)
	assert.Equal(t, "a1", res.Matched[external[0].Key()])
}

func TestReconcilePartialRefDoesNotExactMatch(t *testing.T) {
	external := []domain.CalendarEvent{
		extEvent("e1", "Dinner", ts(monday, 19, 0), ts(monday, 20, 0)),
	}
	b := block("a1", "Write report", ts(monday, 9, 0), ts(monday, 10, 0))
	b.Activity.External = &domain.ExternalRef{Provider: "caldav", EventID: "e1"}

	res := Reconcile(external, []domain.ScheduledBlock{b})

	require.Len(t, res.Events, 1)
	assert.Empty(t, res.Matched)
}

func TestReconcileSkipsAllDayAndMissingTimes(t *testing.T) {
	allDay := extEvent("e1", "Team Standup", ts(monday, 0, 0), ts(monday.AddDate(0, 0, 1), 0, 0))
	allDay.AllDay = true
	noTimes := extEvent("e2", "Team Standup", time.Time{}, time.Time{})

	external := []domain.CalendarEvent{allDay, noTimes}
	blocks := []domain.ScheduledBlock{
		block("a1", "Team Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
	}

	res := Reconcile(external, blocks)

	// Neither event is fuzzy-eligible, but both still render.
	assert.Len(t, res.Events, 2)
	assert.Empty(t, res.Matched)
}

func TestReconcileTitleMismatchBlocksMatch(t *testing.T) {
	external := []domain.CalendarEvent{
		extEvent("e1", "Dentist appointment", ts(monday, 9, 0), ts(monday, 9, 30)),
	}
	blocks := []domain.ScheduledBlock{
		block("a1", "Write report", ts(monday, 9, 0), ts(monday, 9, 30)),
	}

	res := Reconcile(external, blocks)

	assert.Len(t, res.Events, 1)
	assert.Empty(t, res.Matched)
}

func TestReconcileOverlapTier(t *testing.T) {
	// Endpoints differ by more than two minutes but overlap is ~93% of the
	// shorter event and durations differ by four minutes.
	external := []domain.CalendarEvent{
		extEvent("e1", "Project review", ts(monday, 9, 4), ts(monday, 10, 0)),
	}
	blocks := []domain.ScheduledBlock{
		block("a1", "Project Review!", ts(monday, 9, 0), ts(monday, 10, 0)),
	}

	res := Reconcile(external, blocks)

	assert.Empty(t, res.Events)
	assert.Equal(t, "a1", res.Matched[external[0].Key()])
}

func TestReconcilePicksClosestEligible(t *testing.T) {
	external := []domain.CalendarEvent{
		extEvent("far", "Standup", ts(monday, 9, 2), ts(monday, 9, 17)),
		extEvent("near", "Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
	}
	blocks := []domain.ScheduledBlock{
		block("a1", "Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
	}

	res := Reconcile(external, blocks)

	require.Len(t, res.Events, 1)
	assert.Equal(t, "far", res.Events[0].EventID)
	assert.Equal(t, "a1", res.Matched[external[1].Key()])
}

func TestReconcileInjective(t *testing.T) {
	// Two identical blocks contend for one event; the first-processed block
	// wins and the second stays unmatched.
	external := []domain.CalendarEvent{
		extEvent("e1", "Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
	}
	blocks := []domain.ScheduledBlock{
		block("a1", "Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
		block("a2", "Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
	}

	res := Reconcile(external, blocks)

	assert.Empty(t, res.Events)
	require.Len(t, res.Matched, 1)
	assert.Equal(t, "a1", res.Matched[external[0].Key()])
}

func TestReconcileDeterministic(t *testing.T) {
	external := []domain.CalendarEvent{
		extEvent("e1", "Standup", ts(monday, 9, 1), ts(monday, 9, 14)),
		extEvent("e2", "Review", ts(monday, 10, 0), ts(monday, 11, 0)),
		extEvent("e3", "Lunch", ts(monday, 12, 0), ts(monday, 13, 0)),
	}
	blocks := []domain.ScheduledBlock{
		block("a1", "Team Standup", ts(monday, 9, 0), ts(monday, 9, 15)),
		block("a2", "Design Review", ts(monday, 10, 0), ts(monday, 11, 0)),
	}

	first := Reconcile(external, blocks)
	second := Reconcile(external, blocks)

	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, first.Events, second.Events)
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "team standup", normalizeTitle("  Team -- Standup!! "))
	assert.Equal(t, "1 1 with sam", normalizeTitle("1:1 with Sam"))
	assert.Equal(t, "", normalizeTitle("***"))
}

func TestTitlesSimilar(t *testing.T) {
	assert.True(t, titlesSimilar("Team Standup", "standup"))
	assert.True(t, titlesSimilar("Review", "REVIEW"))
	// Short fragments never qualify for the substring tier.
	assert.False(t, titlesSimilar("Run", "Morning Run Club"))
	assert.False(t, titlesSimilar("", ""))
}
