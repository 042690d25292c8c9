package planner

import (
	"time"

	"github.com/tazhate/planbot/internal/domain"
)

const (
	// DefaultHorizonDays bounds the multi-day search.
	DefaultHorizonDays = 7
	// DefaultMaxDailyItems caps how many activities one daily plan places.
	DefaultMaxDailyItems = 5

	minScheduleMinutes = 5
	minDailyMinutes    = 10
)

// Planner places activities into availability windows. All methods are
// pure over their inputs; the only mutable state is the busy accumulator
// owned by a single call. A Planner value itself is safe to share, but
// two concurrent calls against the same logical calendar can double-book
// across calls: non-overlap is guaranteed only within one call's output.
type Planner struct {
	Availability  domain.WeekAvailability
	Prefs         domain.CalendarPrefs
	Location      *time.Location
	HorizonDays   int
	MaxDailyItems int
	Now           func() time.Time // Injectable for testing
}

func (p *Planner) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Planner) location() *time.Location {
	if p.Location != nil {
		return p.Location
	}
	return time.Local
}

func (p *Planner) horizon() int {
	if p.HorizonDays > 0 {
		return p.HorizonDays
	}
	return DefaultHorizonDays
}

func (p *Planner) maxDailyItems() int {
	if p.MaxDailyItems > 0 {
		return p.MaxDailyItems
	}
	return DefaultMaxDailyItems
}

// resolveCalendar picks the target calendar for an activity: explicit
// per-activity override, then the domain-to-calendar preference, then the
// default calendar. Empty means the activity cannot be placed this run.
func (p *Planner) resolveCalendar(a *domain.Activity, mode string) string {
	if a.CalendarID != "" {
		return a.CalendarID
	}
	if id, ok := p.Prefs.DomainCalendars[mode]; ok && id != "" {
		return id
	}
	return p.Prefs.DefaultCalendarID
}

// ProposeSchedule walks the activity list in input order and proposes one
// conflict-free placement per schedulable activity over the horizon.
// Accepted placements are committed into per-calendar and global busy
// accumulators for the remainder of the call, so every proposal from one
// invocation is mutually non-overlapping. There is no backtracking: an
// early placement never yields its slot to a later activity.
//
// busyByCalendar is the caller's snapshot of known busy time per calendar;
// it is not modified.
func (p *Planner) ProposeSchedule(activities []*domain.Activity, goals map[string]*domain.Goal, busyByCalendar map[string][]domain.BusyInterval) []domain.ProposedEvent {
	startAt := nextQuarter(p.now().In(p.location()))

	perCalendar := make(map[string][]domain.BusyInterval, len(busyByCalendar))
	for id, set := range busyByCalendar {
		perCalendar[id] = append([]domain.BusyInterval(nil), set...)
	}
	var committed []domain.BusyInterval

	var proposals []domain.ProposedEvent
	for _, a := range activities {
		if !a.IsOpen() || a.ScheduledAt != nil {
			continue
		}

		goal := goals[a.GoalID]
		mode := InferDomain(a, goal, ScheduleWorkKeywords)
		calendarID := p.resolveCalendar(a, mode)
		if calendarID == "" {
			continue
		}

		busy := append(append([]domain.BusyInterval(nil), perCalendar[calendarID]...), committed...)
		slot, ok := findNextSlot(slotRequest{
			duration:     time.Duration(a.Estimate(minScheduleMinutes)) * time.Minute,
			startAt:      startAt,
			horizonDays:  p.horizon(),
			mode:         mode,
			availability: p.Availability,
			busy:         domain.NormalizeIntervals(busy),
			loc:          p.location(),
		})
		if !ok {
			continue
		}

		proposals = append(proposals, domain.ProposedEvent{
			ActivityID: a.ID,
			Title:      a.Title,
			Start:      slot.Start,
			End:        slot.End,
			CalendarID: calendarID,
			Domain:     mode,
			GoalID:     a.GoalID,
			ArcID:      arcOf(goal),
		})
		perCalendar[calendarID] = append(perCalendar[calendarID], slot)
		committed = append(committed, slot)
	}
	return proposals
}

// ProposeDailyPlan builds a plan for one day from a ranked candidate list.
// A disabled day returns an empty plan immediately. Eligible candidates
// exclude done/cancelled, already-scheduled, and dismissed activities.
// Phase one force-places every candidate due on the target day, in ranked
// order, recording failures in UnplacedDue. Phase two fills the remaining
// capacity with not-due candidates, skipping failures silently so they
// stay retryable on the next call.
func (p *Planner) ProposeDailyPlan(day time.Time, ranked []*domain.Activity, goals map[string]*domain.Goal, busy []domain.BusyInterval, dismissed map[string]bool) domain.DailyPlan {
	loc := p.location()
	day = day.In(loc)

	avail := p.Availability.Resolve(day.Weekday())
	if !avail.Enabled {
		return domain.DailyPlan{}
	}

	now := p.now().In(loc)
	startAt := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	if sameDay(day, now) {
		// Planning today: never propose slots in the past.
		startAt = nextQuarter(now)
	}

	var eligible []*domain.Activity
	for _, a := range ranked {
		if !a.IsOpen() || a.ScheduledAt != nil || dismissed[a.ID] {
			continue
		}
		eligible = append(eligible, a)
	}

	working := domain.NormalizeIntervals(busy)
	plan := domain.DailyPlan{}
	placed := 0

	place := func(a *domain.Activity) bool {
		goal := goals[a.GoalID]
		mode := InferDomain(a, goal, DailyWorkKeywords)
		calendarID := p.resolveCalendar(a, mode)
		if calendarID == "" {
			return false
		}
		slot, ok := findNextSlot(slotRequest{
			duration:     time.Duration(a.Estimate(minDailyMinutes)) * time.Minute,
			startAt:      startAt,
			horizonDays:  0,
			mode:         mode,
			availability: p.Availability,
			busy:         working,
			loc:          loc,
		})
		if !ok {
			return false
		}
		plan.Proposals = append(plan.Proposals, domain.ProposedEvent{
			ActivityID: a.ID,
			Title:      a.Title,
			Start:      slot.Start,
			End:        slot.End,
			CalendarID: calendarID,
			Domain:     mode,
			GoalID:     a.GoalID,
			ArcID:      arcOf(goal),
		})
		working = append(working, slot)
		placed++
		return true
	}

	// Due-today items are placed unconditionally; failures surface as
	// warnings instead of being dropped.
	for _, a := range eligible {
		if !a.DueOn(day) {
			continue
		}
		if !place(a) {
			plan.UnplacedDue = append(plan.UnplacedDue, a)
		}
	}

	for _, a := range eligible {
		if placed >= p.maxDailyItems() {
			break
		}
		if a.DueOn(day) {
			continue
		}
		place(a)
	}

	return plan
}

// ProposeSlots lists up to limit non-overlapping candidate slots for one
// activity starting at from, using the daily vocabulary for mode
// resolution. Candidates never overlap each other: each accepted slot
// joins the local busy set before the scan continues.
func (p *Planner) ProposeSlots(a *domain.Activity, goal *domain.Goal, from time.Time, busy []domain.BusyInterval, limit int) []domain.BusyInterval {
	if a == nil || limit <= 0 {
		return nil
	}
	mode := InferDomain(a, goal, DailyWorkKeywords)
	return collectSlots(slotRequest{
		duration:     time.Duration(a.Estimate(minDailyMinutes)) * time.Minute,
		startAt:      nextQuarter(from.In(p.location())),
		horizonDays:  p.horizon(),
		mode:         mode,
		availability: p.Availability,
		busy:         domain.NormalizeIntervals(busy),
		loc:          p.location(),
	}, limit)
}

func arcOf(g *domain.Goal) string {
	if g == nil {
		return ""
	}
	return g.ArcID
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
