package domain

import (
	"strings"
	"time"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusCancelled  Status = "cancelled"
)

const DefaultEstimateMinutes = 30

// Activity is a user task that may be placed onto a calendar.
type Activity struct {
	ID              string
	Title           string
	Status          Status
	ScheduledAt     *time.Time // Set once the activity has a concrete placement
	ScheduledDate   string     // "YYYY-MM-DD" due day, empty if none
	EstimateMinutes int
	Domain          string // Explicit "work"/"personal" override, empty = infer
	GoalID          string
	CalendarID      string // Explicit target calendar override
	External        *ExternalRef
	TodoistID       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExternalRef links an activity to the calendar event created from it.
type ExternalRef struct {
	Provider   string
	AccountID  string
	CalendarID string
	EventID    string
}

func (r *ExternalRef) Key() EventKey {
	return EventKey{Provider: r.Provider, AccountID: r.AccountID, CalendarID: r.CalendarID, EventID: r.EventID}
}

// Complete reports whether all four parts of the reference are set.
func (r *ExternalRef) Complete() bool {
	return r != nil && r.Provider != "" && r.AccountID != "" && r.CalendarID != "" && r.EventID != ""
}

func (a *Activity) IsOpen() bool {
	return a.Status != StatusDone && a.Status != StatusCancelled
}

// Estimate returns the activity's estimate floored at min minutes.
func (a *Activity) Estimate(min int) int {
	est := a.EstimateMinutes
	if est <= 0 {
		est = DefaultEstimateMinutes
	}
	if est < min {
		est = min
	}
	return est
}

// DueOn reports whether the activity is due on the given day.
func (a *Activity) DueOn(day time.Time) bool {
	if a.ScheduledDate == "" {
		return false
	}
	return a.ScheduledDate == day.Format("2006-01-02")
}

// Goal groups activities; its title feeds domain inference. ArcID links
// the goal to its larger arc and is carried through to proposals.
type Goal struct {
	ID        string
	Title     string
	ArcID     string
	CreatedAt time.Time
}

// ParseStatus maps free-form input to a Status, defaulting to todo.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusInProgress:
		return StatusInProgress
	case StatusDone:
		return StatusDone
	case StatusCancelled:
		return StatusCancelled
	default:
		return StatusTodo
	}
}
