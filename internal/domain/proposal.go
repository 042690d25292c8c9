package domain

import "time"

// ProposedEvent is the planner's sole output record: a concrete placement
// for one activity on one calendar.
type ProposedEvent struct {
	ActivityID string
	Title      string
	Start      time.Time
	End        time.Time
	CalendarID string
	Domain     string
	GoalID     string
	ArcID      string
}

// Interval returns the proposal's occupied range.
func (p ProposedEvent) Interval() BusyInterval {
	return BusyInterval{Start: p.Start, End: p.End}
}

// DailyPlan is the result of a single-day planning pass.
type DailyPlan struct {
	Proposals []ProposedEvent
	// UnplacedDue lists activities due on the target day that could not be
	// placed. This is the caller-visible warning surface; fill activities
	// that fail placement are simply left unscheduled.
	UnplacedDue []*Activity
}

// ScheduledBlock pairs an activity with its realized calendar placement,
// as input to reconciliation.
type ScheduledBlock struct {
	Activity *Activity
	Start    time.Time
	End      time.Time
}
